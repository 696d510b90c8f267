package usecases

import (
	"context"
	"sync"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// mockStore implements ports.BusinessStore for testing
type mockStore struct {
	orders     []entities.Order
	products   []entities.Product
	profiles   []entities.Profile
	stats      *entities.CustomerStats
	categories []entities.Rollup
	brands     []entities.Rollup
	lowStock   []entities.Product

	// errs fails the named slice: orders, products, profiles, stats, categories, brands, low_stock
	errs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *mockStore) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
	return m.errs[name]
}

func (m *mockStore) called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockStore) ConfirmedOrders(ctx context.Context, limit int) ([]entities.Order, error) {
	if err := m.record("orders"); err != nil {
		return nil, err
	}
	out := m.orders
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) ActiveProducts(ctx context.Context, limit int) ([]entities.Product, error) {
	if err := m.record("products"); err != nil {
		return nil, err
	}
	return m.products, nil
}

func (m *mockStore) RecentProfiles(ctx context.Context, limit int) ([]entities.Profile, error) {
	if err := m.record("profiles"); err != nil {
		return nil, err
	}
	return m.profiles, nil
}

func (m *mockStore) CustomerStats(ctx context.Context) (*entities.CustomerStats, error) {
	if err := m.record("stats"); err != nil {
		return nil, err
	}
	if m.stats == nil {
		return &entities.CustomerStats{}, nil
	}
	return m.stats, nil
}

func (m *mockStore) TopCategories(ctx context.Context, limit int) ([]entities.Rollup, error) {
	if err := m.record("categories"); err != nil {
		return nil, err
	}
	return m.categories, nil
}

func (m *mockStore) TopBrands(ctx context.Context, limit int) ([]entities.Rollup, error) {
	if err := m.record("brands"); err != nil {
		return nil, err
	}
	return m.brands, nil
}

func (m *mockStore) LowStockProducts(ctx context.Context, threshold int) ([]entities.Product, error) {
	if err := m.record("low_stock"); err != nil {
		return nil, err
	}
	return m.lowStock, nil
}

// mockSessions implements ports.SessionStore for testing
type mockSessions struct {
	mu       sync.Mutex
	logs     map[string][]entities.Exchange
	askers   map[string]string
	readErr  error
	writeErr error

	// writeCtxErr is ctx.Err() as seen by the last write
	writeCtxErr error
}

func newMockSessions() *mockSessions {
	return &mockSessions{
		logs:   make(map[string][]entities.Exchange),
		askers: make(map[string]string),
	}
}

func (m *mockSessions) SessionLog(ctx context.Context, sessionID string) ([]entities.Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return append([]entities.Exchange(nil), m.logs[sessionID]...), nil
}

func (m *mockSessions) UpsertSessionLog(ctx context.Context, sessionID, askerID string, log []entities.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCtxErr = ctx.Err()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.logs[sessionID] = append([]entities.Exchange(nil), log...)
	m.askers[sessionID] = askerID
	return nil
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error

	// block waits for ctx cancellation before returning
	block bool

	mu      sync.Mutex
	prompts []string
	opts    []ports.GenerateOptions
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockLoader implements ports.DatasetLoader for testing
type mockLoader struct {
	datasets map[string]*entities.Dataset
	err      error
}

func (m *mockLoader) Load(ctx context.Context, path string) (*entities.Dataset, error) {
	if m.err != nil {
		return nil, m.err
	}
	if ds, ok := m.datasets[path]; ok {
		return ds, nil
	}
	return &entities.Dataset{}, nil
}

func (m *mockLoader) SupportedExtensions() []string {
	return []string{".json"}
}

// mockWriter implements ports.DatasetWriter for testing
type mockWriter struct {
	mu       sync.Mutex
	imported []*entities.Dataset
	err      error
	notify   chan struct{}
}

func (m *mockWriter) Import(ctx context.Context, ds *entities.Dataset) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	m.imported = append(m.imported, ds)
	m.mu.Unlock()
	if m.notify != nil {
		m.notify <- struct{}{}
	}
	return nil
}

func (m *mockWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.imported)
}

// mockWatcher implements ports.FileWatcher for testing
type mockWatcher struct {
	events chan ports.FileEvent
}

func (m *mockWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	return m.events, nil
}

func (m *mockWatcher) Stop() error {
	return nil
}
