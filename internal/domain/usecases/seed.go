package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// SeedResult counts what one import wrote.
type SeedResult struct {
	Path     string
	Orders   int
	Products int
	Profiles int
}

// SeedUseCase loads dataset files into the business store.
type SeedUseCase struct {
	loader  ports.DatasetLoader
	writer  ports.DatasetWriter
	watcher ports.FileWatcher
	logger  *zap.Logger
}

// NewSeedUseCase creates a SeedUseCase. watcher may be nil when Watch is not used.
func NewSeedUseCase(loader ports.DatasetLoader, writer ports.DatasetWriter, watcher ports.FileWatcher, logger *zap.Logger) *SeedUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedUseCase{loader: loader, writer: writer, watcher: watcher, logger: logger}
}

// Seed imports one dataset file.
func (uc *SeedUseCase) Seed(ctx context.Context, path string) (*SeedResult, error) {
	ds, err := uc.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", path, err)
	}
	if err := uc.writer.Import(ctx, ds); err != nil {
		return nil, fmt.Errorf("importing dataset %s: %w", path, err)
	}

	res := summarizeDataset(path, ds)
	uc.logger.Info("dataset imported",
		zap.String("path", path),
		zap.Int("orders", res.Orders),
		zap.Int("products", res.Products),
		zap.Int("profiles", res.Profiles))
	return res, nil
}

// SeedDir imports every supported file in dir, in name order.
func (uc *SeedUseCase) SeedDir(ctx context.Context, dir string) ([]*SeedResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && uc.supported(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	var results []*SeedResult
	var errs []error
	for _, p := range paths {
		res, err := uc.Seed(ctx, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// Watch seeds dir once, then re-imports files as they are created or
// modified until ctx is done. Deleted files leave their records in place.
func (uc *SeedUseCase) Watch(ctx context.Context, dir string) error {
	if uc.watcher == nil {
		return errors.New("seed: no file watcher configured")
	}

	if _, err := uc.SeedDir(ctx, dir); err != nil {
		uc.logger.Warn("initial dataset import incomplete", zap.Error(err))
	}

	events, err := uc.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Operation {
			case ports.FileCreated, ports.FileModified:
				if _, err := uc.Seed(ctx, ev.Path); err != nil {
					uc.logger.Warn("dataset reload failed", zap.String("path", ev.Path), zap.Error(err))
				}
			case ports.FileDeleted:
				uc.logger.Info("dataset file removed; records kept", zap.String("path", ev.Path))
			}
		}
	}
}

func (uc *SeedUseCase) supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range uc.loader.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}

func summarizeDataset(path string, ds *entities.Dataset) *SeedResult {
	return &SeedResult{
		Path:     path,
		Orders:   len(ds.Orders),
		Products: len(ds.Products),
		Profiles: len(ds.Profiles),
	}
}
