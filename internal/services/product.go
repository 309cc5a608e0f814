package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aruiz/shopsense/internal/event"
	"github.com/aruiz/shopsense/internal/store"
	"github.com/aruiz/shopsense/pkg/models"
)

// ProductFilter controls which products are returned by List.
type ProductFilter struct {
	Category string // Filter by catalog category (case-insensitive).
	Search   string // Search name and description.
}

// ProductRepository provides CRUD and snapshot access to catalog products.
type ProductRepository interface {
	// Get returns a single product by ID.
	Get(ctx context.Context, id string) (*models.Product, error)

	// List returns a filtered, paginated list of products.
	List(ctx context.Context, filter ProductFilter, opts ListOptions) (*ListResult[models.Product], error)

	// Snapshot returns every active product in a category, unpaginated.
	// This is the catalog read the comparison engine runs against.
	Snapshot(ctx context.Context, category string) ([]models.Product, error)

	// Create inserts a new product. If product.ID is empty, a UUID is generated.
	Create(ctx context.Context, product *models.Product) error

	// Update modifies an existing product's mutable fields.
	Update(ctx context.Context, product *models.Product) error

	// Delete removes a product by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of products.
	Count(ctx context.Context) (int, error)
}

// Compile-time interface guard.
var _ ProductRepository = (*SQLiteProductRepository)(nil)

// SQLiteProductRepository implements ProductRepository using SQLite.
// Mutations publish product.* events on the bus when one is attached.
type SQLiteProductRepository struct {
	db  *sql.DB
	bus *event.Bus
}

// productMigrations creates the catalog_products table.
var productMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create catalog_products table",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE catalog_products (
					id             TEXT PRIMARY KEY,
					name           TEXT NOT NULL,
					description    TEXT NOT NULL DEFAULT '',
					category       TEXT NOT NULL,
					base_price     TEXT NOT NULL DEFAULT '0',
					features       TEXT NOT NULL DEFAULT '{}',
					default_config TEXT NOT NULL DEFAULT '{}',
					image_url      TEXT NOT NULL DEFAULT '',
					active         INTEGER NOT NULL DEFAULT 1,
					created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_catalog_products_category ON catalog_products(category COLLATE NOCASE)`,
				`CREATE INDEX idx_catalog_products_name ON catalog_products(name)`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// NewSQLiteProductRepository creates a ProductRepository and runs the catalog
// migrations. bus may be nil when change notifications are not needed.
func NewSQLiteProductRepository(ctx context.Context, st *store.SQLiteStore, bus *event.Bus) (*SQLiteProductRepository, error) {
	if err := st.Migrate(ctx, "catalog", productMigrations); err != nil {
		return nil, fmt.Errorf("catalog migrations: %w", err)
	}
	return &SQLiteProductRepository{db: st.DB(), bus: bus}, nil
}

// productColumns is the shared column list for product queries.
const productColumns = `id, name, description, category, base_price,
	features, default_config, image_url, active, created_at, updated_at`

func (r *SQLiteProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM catalog_products WHERE id = ?`, id)
	p, err := scanProduct(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %q: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteProductRepository) List(ctx context.Context, filter ProductFilter, opts ListOptions) (*ListResult[models.Product], error) {
	opts = normalizeListOptions(opts)

	// Validate sortBy against allowed columns.
	sortCol := "created_at"
	allowedSorts := map[string]string{
		"name":       "name",
		"category":   "category",
		"base_price": "CAST(base_price AS REAL)",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	if opts.SortBy != "" {
		if col, ok := allowedSorts[opts.SortBy]; ok {
			sortCol = col
		}
	}

	// Build WHERE clause with parameterized placeholders.
	where := "1=1"
	var args []any

	if filter.Category != "" {
		where += " AND category = ? COLLATE NOCASE"
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR description LIKE ?)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	// Count total matching rows.
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM catalog_products WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	// Query with pagination and sorting.
	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, opts.Limit, opts.Offset)

	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM catalog_products WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?",
		productColumns, where, sortCol, orderDir,
	)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return &ListResult[models.Product]{Items: products, Total: total}, nil
}

func (r *SQLiteProductRepository) Snapshot(ctx context.Context, category string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog_products WHERE active = 1`
	var args []any
	if category != "" {
		query += " AND category = ? COLLATE NOCASE"
		args = append(args, category)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *SQLiteProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	featuresJSON, defaultJSON := marshalProductMaps(product)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog_products (
			id, name, description, category, base_price,
			features, default_config, image_url, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID, product.Name, product.Description, product.Category, product.BasePrice.String(),
		featuresJSON, defaultJSON, product.ImageURL, boolToInt(product.Active),
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	r.publish(ctx, event.TopicProductCreated, product.ID)
	return nil
}

func (r *SQLiteProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	featuresJSON, defaultJSON := marshalProductMaps(product)

	res, err := r.db.ExecContext(ctx, `
		UPDATE catalog_products SET
			name = ?, description = ?, category = ?, base_price = ?,
			features = ?, default_config = ?, image_url = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		product.Name, product.Description, product.Category, product.BasePrice.String(),
		featuresJSON, defaultJSON, product.ImageURL, boolToInt(product.Active),
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	r.publish(ctx, event.TopicProductUpdated, product.ID)
	return nil
}

func (r *SQLiteProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM catalog_products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	r.publish(ctx, event.TopicProductDeleted, id)
	return nil
}

func (r *SQLiteProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r *SQLiteProductRepository) publish(ctx context.Context, topic, productID string) {
	if r.bus == nil {
		return
	}
	_ = r.bus.Publish(ctx, event.Event{
		Topic:     topic,
		Source:    "catalog",
		Timestamp: time.Now().UTC(),
		Payload:   productID,
	})
}

// marshalProductMaps serializes the features and default configuration maps
// for storage. Nil maps become empty JSON objects.
func marshalProductMaps(p *models.Product) (featuresJSON, defaultJSON string) {
	fj, _ := json.Marshal(p.Features)
	if p.Features == nil {
		fj = []byte("{}")
	}
	dj, _ := json.Marshal(p.DefaultConfiguration)
	if p.DefaultConfiguration == nil {
		dj = []byte("{}")
	}
	return string(fj), string(dj)
}

// scanProduct scans a product row via the given scan function, shared by
// QueryRow and Rows paths.
func scanProduct(scan func(dest ...any) error) (*models.Product, error) {
	var p models.Product
	var priceStr, featuresJSON, defaultJSON string
	var active int
	err := scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &priceStr,
		&featuresJSON, &defaultJSON, &p.ImageURL, &active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", priceStr, err)
	}
	p.BasePrice = price
	p.Active = active != 0
	_ = json.Unmarshal([]byte(featuresJSON), &p.Features)
	_ = json.Unmarshal([]byte(defaultJSON), &p.DefaultConfiguration)
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
