package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// UnavailableContext is returned when no data slice could be fetched.
const UnavailableContext = "Unable to fetch complete data context."

// AssemblerConfig bounds how much data one request may pull.
type AssemblerConfig struct {
	OrderLimit        int
	ProductLimit      int
	ProfileLimit      int
	RollupLimit       int
	LowStockThreshold int
	Location          *time.Location
}

// DefaultAssemblerConfig returns the production limits.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		OrderLimit:        2000,
		ProductLimit:      100,
		ProfileLimit:      50,
		RollupLimit:       20,
		LowStockThreshold: 10,
		Location:          time.UTC,
	}
}

const (
	maxProductsShown  = 20
	maxProfilesShown  = 10
	maxOrdersShown    = 5
	maxConcurrentRead = 4
)

// ContextAssembler turns a staff query into a bounded textual context.
type ContextAssembler struct {
	store  ports.BusinessStore
	cfg    AssemblerConfig
	logger *zap.Logger
}

// NewContextAssembler creates a ContextAssembler with injected dependencies.
func NewContextAssembler(store ports.BusinessStore, cfg AssemblerConfig, logger *zap.Logger) *ContextAssembler {
	def := DefaultAssemblerConfig()
	if cfg.OrderLimit <= 0 {
		cfg.OrderLimit = def.OrderLimit
	}
	if cfg.ProductLimit <= 0 {
		cfg.ProductLimit = def.ProductLimit
	}
	if cfg.ProfileLimit <= 0 {
		cfg.ProfileLimit = def.ProfileLimit
	}
	if cfg.RollupLimit <= 0 {
		cfg.RollupLimit = def.RollupLimit
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = def.LowStockThreshold
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextAssembler{store: store, cfg: cfg, logger: logger}
}

// SalesMetrics aggregates confirmed orders over a window.
type SalesMetrics struct {
	Revenue           float64
	Orders            int
	AverageOrderValue float64
}

// Summarize sums confirmed in-window orders.
func Summarize(orders []entities.Order, w TimeWindow) SalesMetrics {
	var m SalesMetrics
	for _, o := range orders {
		if !o.Confirmed() || !w.Contains(o.CreatedAt) {
			continue
		}
		m.Revenue += o.TotalAmount
		m.Orders++
	}
	if m.Orders > 0 {
		m.AverageOrderValue = m.Revenue / float64(m.Orders)
	}
	return m
}

// GrowthRate is the percentage change from previous to current, 0 when previous is 0.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// fetched holds the raw slices read for one request. A nil error with
// a nil value means the slice was not requested.
type fetched struct {
	orders    []entities.Order
	ordersErr error

	products    []entities.Product
	productsErr error

	stats      *entities.CustomerStats
	statsErr   error
	profiles   []entities.Profile
	profileErr error

	categories    []entities.Rollup
	categoriesErr error
	brands        []entities.Rollup
	brandsErr     error

	lowStock    []entities.Product
	lowStockErr error

	attempted int
	failed    int
}

// Assemble builds the context for query as of now. Individual fetch
// failures drop their block; only a total failure yields UnavailableContext.
func (a *ContextAssembler) Assemble(ctx context.Context, query string, now time.Time) string {
	intent := ClassifyQuery(query)
	f := a.fetch(ctx, intent)

	a.logger.Debug("context fetched",
		zap.String("intent", string(intent.Kind())),
		zap.String("window", string(intent.Window)),
		zap.Int("attempted", f.attempted),
		zap.Int("failed", f.failed))

	if f.attempted > 0 && f.failed == f.attempted {
		return UnavailableContext
	}

	window := ResolveWindow(intent.Window, now, a.cfg.Location)

	var blocks []string
	if f.ordersErr == nil {
		blocks = append(blocks, a.salesBlock(f.orders, window, now))
		if intent.Compare && window.Bounded() {
			blocks = append(blocks, a.comparisonBlock(f.orders, window))
		}
	}
	if intent.Has(TopicProducts) && f.productsErr == nil {
		blocks = append(blocks, a.productBlock(f.products, now))
	}
	if intent.Has(TopicCustomers) && (f.statsErr == nil || f.profileErr == nil) {
		blocks = append(blocks, a.customerBlock(f))
	}
	if intent.Has(TopicPerformance) && (f.categoriesErr == nil || f.brandsErr == nil) {
		blocks = append(blocks, performanceBlock(f))
	}
	if intent.Has(TopicLowStock) && f.lowStockErr == nil {
		blocks = append(blocks, a.lowStockBlock(f.lowStock, now))
	}

	if len(blocks) == 0 {
		return UnavailableContext
	}
	return strings.Join(blocks, "\n\n")
}

// fetch reads every slice the intent needs, concurrently. Each read
// records its own error so one failure never cancels the others.
func (a *ContextAssembler) fetch(ctx context.Context, intent Intent) *fetched {
	f := &fetched{}
	var g errgroup.Group
	g.SetLimit(maxConcurrentRead)

	run := func(name string, read func() error, errp *error) {
		f.attempted++
		g.Go(func() error {
			if err := read(); err != nil {
				a.logger.Warn("context fetch failed", zap.String("slice", name), zap.Error(err))
				*errp = err
			}
			return nil
		})
	}

	run("orders", func() (err error) {
		f.orders, err = a.store.ConfirmedOrders(ctx, a.cfg.OrderLimit)
		return err
	}, &f.ordersErr)

	if intent.Has(TopicProducts) {
		run("products", func() (err error) {
			f.products, err = a.store.ActiveProducts(ctx, a.cfg.ProductLimit)
			return err
		}, &f.productsErr)
	}
	if intent.Has(TopicCustomers) {
		run("customer_stats", func() (err error) {
			f.stats, err = a.store.CustomerStats(ctx)
			return err
		}, &f.statsErr)
		run("profiles", func() (err error) {
			f.profiles, err = a.store.RecentProfiles(ctx, a.cfg.ProfileLimit)
			return err
		}, &f.profileErr)
	}
	if intent.Has(TopicPerformance) {
		run("top_categories", func() (err error) {
			f.categories, err = a.store.TopCategories(ctx, a.cfg.RollupLimit)
			return err
		}, &f.categoriesErr)
		run("top_brands", func() (err error) {
			f.brands, err = a.store.TopBrands(ctx, a.cfg.RollupLimit)
			return err
		}, &f.brandsErr)
	}
	if intent.Has(TopicLowStock) {
		run("low_stock", func() (err error) {
			f.lowStock, err = a.store.LowStockProducts(ctx, a.cfg.LowStockThreshold)
			return err
		}, &f.lowStockErr)
	}

	_ = g.Wait()

	for _, err := range []error{f.ordersErr, f.productsErr, f.statsErr, f.profileErr, f.categoriesErr, f.brandsErr, f.lowStockErr} {
		if err != nil {
			f.failed++
		}
	}
	return f
}

func (a *ContextAssembler) salesBlock(orders []entities.Order, w TimeWindow, now time.Time) string {
	m := Summarize(orders, w)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sales Summary for %s:\n", w.Label())
	fmt.Fprintf(&sb, "- Total Revenue: %s\n", rupees(m.Revenue))
	fmt.Fprintf(&sb, "- Total Orders: %d\n", m.Orders)
	fmt.Fprintf(&sb, "- Average Order Value: %s\n", rupees(m.AverageOrderValue))
	fmt.Fprintf(&sb, "- Data Range: %s\n", a.dataRange(orders))
	fmt.Fprintf(&sb, "- Current Date: %s", now.In(a.cfg.Location).Format(dateLayout))

	a.writeSamples(&sb, "Recent Orders", orders, w)
	return sb.String()
}

// writeSamples lists up to maxOrdersShown confirmed orders inside w,
// in the order given. Nothing is written when none match.
func (a *ContextAssembler) writeSamples(sb *strings.Builder, title string, orders []entities.Order, w TimeWindow) {
	shown := 0
	for _, o := range orders {
		if shown == maxOrdersShown {
			break
		}
		if !o.Confirmed() || !w.Contains(o.CreatedAt) {
			continue
		}
		if shown == 0 {
			fmt.Fprintf(sb, "\n- %s:", title)
		}
		fmt.Fprintf(sb, "\n  - %s", a.orderLine(o))
		shown++
	}
}

func (a *ContextAssembler) dataRange(orders []entities.Order) string {
	if len(orders) == 0 {
		return "N/A"
	}
	first, last := orders[0].CreatedAt, orders[0].CreatedAt
	for _, o := range orders[1:] {
		if o.CreatedAt.Before(first) {
			first = o.CreatedAt
		}
		if o.CreatedAt.After(last) {
			last = o.CreatedAt
		}
	}
	return fmt.Sprintf("%s to %s",
		first.In(a.cfg.Location).Format(dateLayout),
		last.In(a.cfg.Location).Format(dateLayout))
}

func (a *ContextAssembler) orderLine(o entities.Order) string {
	items := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		name := "unknown product"
		if it.Product != nil && it.Product.Name != "" {
			name = it.Product.Name
		}
		items = append(items, fmt.Sprintf("%dx %s", it.Quantity, name))
	}
	line := fmt.Sprintf("%s | %s | %s | payment %s",
		o.ID, o.CreatedAt.In(a.cfg.Location).Format("2006-01-02 15:04"), rupees(o.TotalAmount), orDash(o.PaymentStatus))
	if len(items) > 0 {
		line += " | " + strings.Join(items, ", ")
	}
	return line
}

func (a *ContextAssembler) comparisonBlock(orders []entities.Order, current TimeWindow) string {
	previous := current.Previous()
	cur := Summarize(orders, current)
	prev := Summarize(orders, previous)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Comparison Data (%s vs %s):\n", current.Name, previous.Name)
	fmt.Fprintf(&sb, "- %s: %d orders, %s revenue, %s average order value\n",
		current.Label(), cur.Orders, rupees(cur.Revenue), rupees(cur.AverageOrderValue))
	fmt.Fprintf(&sb, "- %s: %d orders, %s revenue, %s average order value\n",
		previous.Label(), prev.Orders, rupees(prev.Revenue), rupees(prev.AverageOrderValue))
	fmt.Fprintf(&sb, "- Revenue Growth Rate: %.1f%%", GrowthRate(cur.Revenue, prev.Revenue))
	a.writeSamples(&sb, previous.Name+" Orders", orders, previous)
	return sb.String()
}

func (a *ContextAssembler) productBlock(products []entities.Product, now time.Time) string {
	var sb strings.Builder
	shown := min(len(products), maxProductsShown)
	fmt.Fprintf(&sb, "Product Performance Data (%d of %d active products, catalog and reviews as of %s):",
		shown, len(products), now.In(a.cfg.Location).Format(dateLayout))
	if shown == 0 {
		sb.WriteString("\n- None")
	}
	for _, p := range products[:shown] {
		fmt.Fprintf(&sb, "\n- %s | %s | %s | %s (MRP %s) | stock %d (%s) | rating %.1f from %d reviews",
			p.Name, orDash(p.Category), orDash(p.Brand), rupees(p.Price), rupees(p.MRP),
			p.Stock, p.StockStatus(), p.AverageRating(), len(p.Reviews))
	}
	return sb.String()
}

func (a *ContextAssembler) customerBlock(f *fetched) string {
	var sb strings.Builder
	sb.WriteString("Customer Analytics (all time):")
	if f.statsErr == nil && f.stats != nil {
		fmt.Fprintf(&sb, "\n- Total Customers: %d", f.stats.TotalCustomers)
		fmt.Fprintf(&sb, "\n- Paying Customers: %d", f.stats.PayingCustomers)
		fmt.Fprintf(&sb, "\n- Orders per Paying Customer: %.2f", f.stats.OrdersPerBuyer)
	}
	if f.profileErr == nil {
		shown := min(len(f.profiles), maxProfilesShown)
		fmt.Fprintf(&sb, "\n- Recent Customers (%d of %d):", shown, len(f.profiles))
		if shown == 0 {
			sb.WriteString("\n  - None")
		}
		for _, p := range f.profiles[:shown] {
			fmt.Fprintf(&sb, "\n  - %s <%s> joined %s",
				orDash(p.FullName), orDash(p.Email), p.CreatedAt.In(a.cfg.Location).Format(dateLayout))
		}
	}
	return sb.String()
}

func performanceBlock(f *fetched) string {
	var sb strings.Builder
	sb.WriteString("Category & Brand Performance (confirmed orders, all time):")
	if f.categoriesErr == nil {
		writeRollups(&sb, "Top Categories", f.categories)
	}
	if f.brandsErr == nil {
		writeRollups(&sb, "Top Brands", f.brands)
	}
	return sb.String()
}

func writeRollups(sb *strings.Builder, title string, rows []entities.Rollup) {
	fmt.Fprintf(sb, "\n- %s:", title)
	if len(rows) == 0 {
		sb.WriteString(" none")
	}
	for _, r := range rows {
		fmt.Fprintf(sb, "\n  - %s: %s revenue, %d units, %d orders", r.Name, rupees(r.Revenue), r.UnitsSold, r.OrderCount)
	}
}

func (a *ContextAssembler) lowStockBlock(products []entities.Product, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Low Stock Alerts (stock <= %d, current stock as of %s):",
		a.cfg.LowStockThreshold, now.In(a.cfg.Location).Format(dateLayout))
	if len(products) == 0 {
		sb.WriteString("\n- None")
	}
	for _, p := range products {
		fmt.Fprintf(&sb, "\n- %s | %s | stock %d | %s", p.Name, orDash(p.Category), p.Stock, rupees(p.Price))
	}
	return sb.String()
}

func rupees(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
