// Package loader provides dataset loading adapters.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

// JSONLoader loads {orders, products, profiles} dataset files.
type JSONLoader struct{}

// NewJSONLoader creates a new JSON dataset loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// wireProduct lets isActive default to true when omitted.
type wireProduct struct {
	entities.Product
	IsActive *bool `json:"isActive"`
}

type wireDataset struct {
	Orders   []entities.Order   `json:"orders"`
	Products []wireProduct      `json:"products"`
	Profiles []entities.Profile `json:"profiles"`
}

// Load reads and validates a dataset from the given path.
func (l *JSONLoader) Load(ctx context.Context, path string) (*entities.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var w wireDataset
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	ds := &entities.Dataset{
		Orders:   w.Orders,
		Profiles: w.Profiles,
		Products: make([]entities.Product, 0, len(w.Products)),
	}
	for _, wp := range w.Products {
		p := wp.Product
		p.IsActive = wp.IsActive == nil || *wp.IsActive
		ds.Products = append(ds.Products, p)
	}

	if err := validate(ds); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return ds, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *JSONLoader) SupportedExtensions() []string {
	return []string{".json"}
}

func validate(ds *entities.Dataset) error {
	var errs []error
	for i, o := range ds.Orders {
		if o.ID == "" {
			errs = append(errs, fmt.Errorf("orders[%d]: missing id", i))
		}
		if o.Status == "" {
			errs = append(errs, fmt.Errorf("orders[%d]: missing status", i))
		}
		if o.CreatedAt.IsZero() {
			errs = append(errs, fmt.Errorf("orders[%d]: missing createdAt", i))
		}
	}
	for i, p := range ds.Products {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("products[%d]: missing id", i))
		}
		for j, r := range p.Reviews {
			if r.Rating < 1 || r.Rating > 5 {
				errs = append(errs, fmt.Errorf("products[%d].reviews[%d]: rating %d out of range 1-5", i, j, r.Rating))
			}
		}
	}
	for i, p := range ds.Profiles {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("profiles[%d]: missing id", i))
		}
	}
	return errors.Join(errs...)
}
