package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // SQLite driver "sqlite" (pure Go)

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements the business, session and dataset ports on SQLite.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path using driver.
// An empty driver selects the pure-Go driver.
func NewSQLiteStore(driver, path string) (*SQLiteStore, error) {
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverMattn {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	if path == "" {
		path = "./data/staffassist.db"
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:"
	// databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

// initSchema creates the necessary tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		total_amount REAL NOT NULL DEFAULT 0,
		shipping_amount REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL,
		line INTEGER NOT NULL,
		product_id TEXT,
		product_name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 0,
		unit_price REAL NOT NULL DEFAULT 0,
		total_price REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (order_id, line)
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		mrp REAL NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS product_reviews (
		product_id TEXT NOT NULL,
		line INTEGER NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY (product_id, line)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS staff_chat_sessions (
		session_id TEXT PRIMARY KEY,
		staff_user_id TEXT NOT NULL DEFAULT '',
		conversation_log TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Import upserts every record in ds in a single transaction.
// Order items and reviews are replaced wholesale for each imported parent.
func (s *SQLiteStore) Import(ctx context.Context, ds *entities.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range ds.Products {
		if err := importProduct(ctx, tx, p); err != nil {
			return fmt.Errorf("importing product %s: %w", p.ID, err)
		}
	}
	for _, p := range ds.Profiles {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO profiles (id, full_name, email, created_at)
			VALUES (?, ?, ?, ?)`,
			p.ID, p.FullName, p.Email, formatTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("importing profile %s: %w", p.ID, err)
		}
	}
	for _, o := range ds.Orders {
		if err := importOrder(ctx, tx, o); err != nil {
			return fmt.Errorf("importing order %s: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

func importProduct(ctx context.Context, tx *sql.Tx, p entities.Product) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO products (id, name, category, brand, price, mrp, stock, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Brand, p.Price, p.MRP, p.Stock, boolInt(p.IsActive), formatTime(p.CreatedAt))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_reviews WHERE product_id = ?", p.ID); err != nil {
		return err
	}
	for i, r := range p.Reviews {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_reviews (product_id, line, rating, comment, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, i, r.Rating, r.Comment, formatTime(r.CreatedAt))
		if err != nil {
			return err
		}
	}
	return nil
}

func importOrder(ctx context.Context, tx *sql.Tx, o entities.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders (id, user_id, total_amount, shipping_amount, status, payment_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.TotalAmount, o.ShippingAmount, o.Status, o.PaymentStatus, formatTime(o.CreatedAt))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ?", o.ID); err != nil {
		return err
	}
	for i, it := range o.Items {
		var productID any
		var ref entities.ProductRef
		if it.Product != nil {
			productID = it.Product.ID
			ref = *it.Product
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line, product_id, product_name, category, brand, price, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, productID, ref.Name, ref.Category, ref.Brand, ref.Price, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return err
		}
	}
	return nil
}

// ConfirmedOrders returns confirmed orders with items, most recent first.
func (s *SQLiteStore) ConfirmedOrders(ctx context.Context, limit int) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, shipping_amount, status, payment_status, created_at
		FROM orders
		WHERE status = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, entities.OrderStatusConfirmed, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}

	var orders []entities.Order
	index := make(map[string]int)
	for rows.Next() {
		var o entities.Order
		var createdAt string
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingAmount, &o.Status, &o.PaymentStatus, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		if o.CreatedAt, err = parseTime(createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]any, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := s.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.quantity, oi.unit_price, oi.total_price,
			COALESCE(oi.product_id, ''),
			CASE WHEN oi.product_name <> '' THEN oi.product_name ELSE COALESCE(p.name, '') END,
			CASE WHEN oi.product_name <> '' THEN oi.category ELSE COALESCE(p.category, '') END,
			CASE WHEN oi.product_name <> '' THEN oi.brand ELSE COALESCE(p.brand, '') END,
			CASE WHEN oi.product_name <> '' THEN oi.price ELSE COALESCE(p.price, 0) END,
			COALESCE(p.stock, 0),
			oi.product_id IS NOT NULL
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (`+placeholders(len(ids))+`)
		ORDER BY oi.order_id, oi.line`, ids...)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var it entities.OrderItem
		var ref entities.ProductRef
		var hasProduct bool
		if err := itemRows.Scan(&orderID, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&ref.ID, &ref.Name, &ref.Category, &ref.Brand, &ref.Price, &ref.Stock, &hasProduct); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		if hasProduct {
			it.Product = &ref
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("reading order items: %w", err)
	}
	return orders, nil
}

// ActiveProducts returns active products with reviews, most recent first.
func (s *SQLiteStore) ActiveProducts(ctx context.Context, limit int) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products, err := s.queryProducts(ctx, `
		SELECT id, name, category, brand, price, mrp, stock, is_active, created_at
		FROM products
		WHERE is_active = 1
		ORDER BY created_at DESC, id
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	if err := s.attachReviews(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// LowStockProducts returns active products with stock <= threshold, lowest first.
func (s *SQLiteStore) LowStockProducts(ctx context.Context, threshold int) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProducts(ctx, `
		SELECT id, name, category, brand, price, mrp, stock, is_active, created_at
		FROM products
		WHERE is_active = 1 AND stock <= ?
		ORDER BY stock, id`, threshold)
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]entities.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []entities.Product
	for rows.Next() {
		var p entities.Product
		var active int
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Price, &p.MRP, &p.Stock, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.IsActive = active != 0
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) attachReviews(ctx context.Context, products []entities.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]any, 0, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, rating, comment, created_at
		FROM product_reviews
		WHERE product_id IN (`+placeholders(len(ids))+`)
		ORDER BY product_id, line`, ids...)
	if err != nil {
		return fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID, createdAt string
		var r entities.Review
		if err := rows.Scan(&productID, &r.Rating, &r.Comment, &createdAt); err != nil {
			return fmt.Errorf("scanning review: %w", err)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("review of %s: %w", productID, err)
		}
		i := index[productID]
		products[i].Reviews = append(products[i].Reviews, r)
	}
	return rows.Err()
}

// RecentProfiles returns customer profiles, most recent first.
func (s *SQLiteStore) RecentProfiles(ctx context.Context, limit int) ([]entities.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, email, created_at
		FROM profiles
		ORDER BY created_at DESC, id
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []entities.Profile
	for rows.Next() {
		var p entities.Profile
		var createdAt string
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CustomerStats counts profiles and customers with at least one confirmed order.
func (s *SQLiteStore) CustomerStats(ctx context.Context) (*entities.CustomerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats entities.CustomerStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles").Scan(&stats.TotalCustomers); err != nil {
		return nil, fmt.Errorf("counting profiles: %w", err)
	}

	var confirmed int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id), COUNT(*)
		FROM orders
		WHERE status = ? AND user_id <> ''`, entities.OrderStatusConfirmed).Scan(&stats.PayingCustomers, &confirmed)
	if err != nil {
		return nil, fmt.Errorf("counting buyers: %w", err)
	}
	if stats.PayingCustomers > 0 {
		stats.OrdersPerBuyer = float64(confirmed) / float64(stats.PayingCustomers)
	}
	return &stats, nil
}

// TopCategories returns categories ranked by confirmed revenue.
func (s *SQLiteStore) TopCategories(ctx context.Context, limit int) ([]entities.Rollup, error) {
	return s.rollup(ctx, "category", limit)
}

// TopBrands returns brands ranked by confirmed revenue.
func (s *SQLiteStore) TopBrands(ctx context.Context, limit int) ([]entities.Rollup, error) {
	return s.rollup(ctx, "brand", limit)
}

// rollup groups confirmed order items by column, which is one of the
// fixed identifiers "category" or "brand". The key alias must not collide
// with a column of the joined tables, or GROUP BY binds to that column.
func (s *SQLiteStore) rollup(ctx context.Context, column string, limit int) ([]entities.Rollup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := fmt.Sprintf("CASE WHEN oi.product_name <> '' THEN oi.%[1]s ELSE COALESCE(p.%[1]s, '') END", column)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+key+` AS rollup_key,
			SUM(oi.total_price), SUM(oi.quantity), COUNT(DISTINCT oi.order_id)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE o.status = ? AND oi.product_id IS NOT NULL
		GROUP BY rollup_key
		HAVING rollup_key <> ''
		ORDER BY 2 DESC, rollup_key
		LIMIT ?`, entities.OrderStatusConfirmed, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying %s rollup: %w", column, err)
	}
	defer rows.Close()

	var out []entities.Rollup
	for rows.Next() {
		var r entities.Rollup
		if err := rows.Scan(&r.Name, &r.Revenue, &r.UnitsSold, &r.OrderCount); err != nil {
			return nil, fmt.Errorf("scanning %s rollup: %w", column, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionLog returns the log for a session, empty if none exists.
func (s *SQLiteStore) SessionLog(ctx context.Context, sessionID string) ([]entities.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT conversation_log FROM staff_chat_sessions WHERE session_id = ?", sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []entities.Exchange{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", sessionID, err)
	}

	var log []entities.Exchange
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	if log == nil {
		log = []entities.Exchange{}
	}
	return log, nil
}

// UpsertSessionLog replaces the whole log for a session, creating it if absent.
func (s *SQLiteStore) UpsertSessionLog(ctx context.Context, sessionID, askerID string, log []entities.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log == nil {
		log = []entities.Exchange{}
	}
	raw, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}

	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO staff_chat_sessions (session_id, staff_user_id, conversation_log, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			staff_user_id = excluded.staff_user_id,
			conversation_log = excluded.conversation_log,
			updated_at = excluded.updated_at`,
		sessionID, askerID, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("writing session %s: %w", sessionID, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
