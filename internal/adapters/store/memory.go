// Package store provides business and session store adapters.
// Clean Architecture: Adapters implementing ports.BusinessStore, ports.SessionStore
// and ports.DatasetWriter.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

// MemoryStore keeps every record in process memory.
// Used by tests and by `--store memory`.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]entities.Order
	products map[string]entities.Product
	profiles map[string]entities.Profile
	sessions map[string]session
}

type session struct {
	askerID string
	log     []entities.Exchange
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]entities.Order),
		products: make(map[string]entities.Product),
		profiles: make(map[string]entities.Profile),
		sessions: make(map[string]session),
	}
}

// Import upserts every record in ds by ID.
func (s *MemoryStore) Import(ctx context.Context, ds *entities.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range ds.Products {
		s.products[p.ID] = p
	}
	for _, p := range ds.Profiles {
		s.profiles[p.ID] = p
	}
	for _, o := range ds.Orders {
		s.orders[o.ID] = o
	}
	return nil
}

// Close is a no-op; it lets MemoryStore stand in for SQLiteStore.
func (s *MemoryStore) Close() error { return nil }

// ConfirmedOrders returns confirmed orders, most recent first.
func (s *MemoryStore) ConfirmedOrders(ctx context.Context, limit int) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Order
	for _, o := range s.orders {
		if !o.Confirmed() {
			continue
		}
		o.Items = s.resolveItems(o.Items)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return truncate(out, limit), nil
}

// ActiveProducts returns active products, most recent first.
func (s *MemoryStore) ActiveProducts(ctx context.Context, limit int) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Product
	for _, p := range s.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return truncate(out, limit), nil
}

// RecentProfiles returns profiles, most recent first.
func (s *MemoryStore) RecentProfiles(ctx context.Context, limit int) ([]entities.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return truncate(out, limit), nil
}

// CustomerStats counts profiles and customers with at least one confirmed order.
func (s *MemoryStore) CustomerStats(ctx context.Context) (*entities.CustomerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buyers := make(map[string]int)
	confirmed := 0
	for _, o := range s.orders {
		if !o.Confirmed() || o.UserID == "" {
			continue
		}
		buyers[o.UserID]++
		confirmed++
	}

	stats := &entities.CustomerStats{
		TotalCustomers:  len(s.profiles),
		PayingCustomers: len(buyers),
	}
	if len(buyers) > 0 {
		stats.OrdersPerBuyer = float64(confirmed) / float64(len(buyers))
	}
	return stats, nil
}

// TopCategories ranks categories by confirmed revenue.
func (s *MemoryStore) TopCategories(ctx context.Context, limit int) ([]entities.Rollup, error) {
	return s.rollup(limit, func(p *entities.ProductRef) string { return p.Category }), nil
}

// TopBrands ranks brands by confirmed revenue.
func (s *MemoryStore) TopBrands(ctx context.Context, limit int) ([]entities.Rollup, error) {
	return s.rollup(limit, func(p *entities.ProductRef) string { return p.Brand }), nil
}

// LowStockProducts returns active products at or below threshold, lowest stock first.
func (s *MemoryStore) LowStockProducts(ctx context.Context, threshold int) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Product
	for _, p := range s.products {
		if p.IsActive && p.Stock <= threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SessionLog returns a copy of the session's log, empty if unknown.
func (s *MemoryStore) SessionLog(ctx context.Context, sessionID string) ([]entities.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return []entities.Exchange{}, nil
	}
	return append([]entities.Exchange{}, sess.log...), nil
}

// UpsertSessionLog replaces the session's log.
func (s *MemoryStore) UpsertSessionLog(ctx context.Context, sessionID, askerID string, log []entities.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = session{
		askerID: askerID,
		log:     append([]entities.Exchange{}, log...),
	}
	return nil
}

// rollup aggregates confirmed order items under the key picked from each product.
// Items without a product or with an empty key are skipped.
func (s *MemoryStore) rollup(limit int, key func(*entities.ProductRef) string) []entities.Rollup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName := make(map[string]*entities.Rollup)
	seen := make(map[string]map[string]bool)
	for _, o := range s.orders {
		if !o.Confirmed() {
			continue
		}
		for _, it := range s.resolveItems(o.Items) {
			if it.Product == nil {
				continue
			}
			name := key(it.Product)
			if name == "" {
				continue
			}
			r, ok := byName[name]
			if !ok {
				r = &entities.Rollup{Name: name}
				byName[name] = r
				seen[name] = make(map[string]bool)
			}
			r.Revenue += it.TotalPrice
			r.UnitsSold += it.Quantity
			if !seen[name][o.ID] {
				seen[name][o.ID] = true
				r.OrderCount++
			}
		}
	}

	out := make([]entities.Rollup, 0, len(byName))
	for _, r := range byName {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return truncate(out, limit)
}

// resolveItems fills item product snapshots from the catalog when only an ID is present.
// Caller must hold s.mu.
func (s *MemoryStore) resolveItems(items []entities.OrderItem) []entities.OrderItem {
	out := make([]entities.OrderItem, len(items))
	for i, it := range items {
		if it.Product != nil && it.Product.Name == "" {
			if p, ok := s.products[it.Product.ID]; ok {
				ref := productRef(p)
				it.Product = &ref
			}
		}
		out[i] = it
	}
	return out
}

func productRef(p entities.Product) entities.ProductRef {
	return entities.ProductRef{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Brand:    p.Brand,
		Price:    p.Price,
		Stock:    p.Stock,
	}
}

func newerFirst(a, b int64, idA, idB string) bool {
	if a != b {
		return a > b
	}
	return idA < idB
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
