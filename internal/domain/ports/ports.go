// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

// BusinessStore is read access to storefront records.
// The assistant never mutates these.
type BusinessStore interface {
	// ConfirmedOrders returns confirmed orders with items, most recent first.
	ConfirmedOrders(ctx context.Context, limit int) ([]entities.Order, error)

	// ActiveProducts returns active products with reviews, most recent first.
	ActiveProducts(ctx context.Context, limit int) ([]entities.Product, error)

	// RecentProfiles returns customer profiles, most recent first.
	RecentProfiles(ctx context.Context, limit int) ([]entities.Profile, error)

	// CustomerStats returns the customer rollup.
	CustomerStats(ctx context.Context) (*entities.CustomerStats, error)

	// TopCategories returns categories ranked by confirmed revenue.
	TopCategories(ctx context.Context, limit int) ([]entities.Rollup, error)

	// TopBrands returns brands ranked by confirmed revenue.
	TopBrands(ctx context.Context, limit int) ([]entities.Rollup, error)

	// LowStockProducts returns active products with stock <= threshold, lowest first.
	LowStockProducts(ctx context.Context, threshold int) ([]entities.Product, error)
}

// SessionStore persists per-session conversation logs.
type SessionStore interface {
	// SessionLog returns the log for a session, empty if none exists.
	SessionLog(ctx context.Context, sessionID string) ([]entities.Exchange, error)

	// UpsertSessionLog replaces the whole log for a session, creating it if absent.
	UpsertSessionLog(ctx context.Context, sessionID, askerID string, log []entities.Exchange) error
}

// DatasetWriter bulk-loads business records, upserting by ID.
type DatasetWriter interface {
	Import(ctx context.Context, ds *entities.Dataset) error
}

// GenerateOptions bounds a single completion.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	// JSONMode asks the backend for a JSON body when it supports it.
	JSONMode bool
}

// LLMService generates text responses from a language model.
type LLMService interface {
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// DatasetLoader reads a dataset file.
type DatasetLoader interface {
	Load(ctx context.Context, path string) (*entities.Dataset, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
