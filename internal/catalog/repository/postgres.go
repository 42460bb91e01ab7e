package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-catalog/internal/catalog"
)

const healthCheckTimeout = 2 * time.Second

const productColumns = "id, name, description, price, category, stock, created_at, updated_at"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// whereClause renders the filter into a WHERE fragment with positional
// placeholders. The same fragment backs both the page query and its count
// so the two can never disagree.
func whereClause(f catalog.Filter) (string, []any) {
	var conds []string
	var args []any

	next := func() int { return len(args) + 1 }

	if f.Search != "" {
		n := next()
		conds = append(conds, fmt.Sprintf("(name ILIKE '%%'||$%d||'%%' OR description ILIKE '%%'||$%d||'%%')", n, n))
		args = append(args, f.Search)
	}
	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("LOWER(category) = LOWER($%d)", next()))
		args = append(args, f.Category)
	}
	if f.MaxStock != nil {
		conds = append(conds, fmt.Sprintf("stock <= $%d", next()))
		args = append(args, *f.MaxStock)
	}
	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("price >= $%d", next()))
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("price <= $%d", next()))
		args = append(args, *f.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) FindPage(ctx context.Context, filter catalog.Filter, sort catalog.SortSpec, limit, offset int) ([]catalog.Product, int64, error) {
	where, args := whereClause(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM products" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}

	var query strings.Builder
	query.WriteString("SELECT " + productColumns + " FROM products" + where)
	query.WriteString(fmt.Sprintf(" ORDER BY %s %s, id ASC", sort.Column, direction))
	if limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	list := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	return list, total, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (catalog.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	var p catalog.Product
	var description, category sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &description, &p.Price, &category, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return catalog.Product{}, fmt.Errorf("query product %d: %w", id, err)
	}
	p.Description = description.String
	p.Category = category.String
	return p, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	query := `
		INSERT INTO products (name, description, price, category, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, nullableString(p.Description), p.Price, nullableString(p.Category), p.Stock, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, stock = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Name, nullableString(p.Description), p.Price, nullableString(p.Category), p.Stock, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update product %d: %w", p.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM products
		WHERE category IS NOT NULL AND category != ''
		ORDER BY category
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *PostgresRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var total int64
	query := "SELECT COUNT(*) FROM products WHERE LOWER(category) = LOWER($1)"
	if err := r.db.QueryRowContext(ctx, query, category).Scan(&total); err != nil {
		return 0, fmt.Errorf("count category %q: %w", category, err)
	}
	return total, nil
}

func (r *PostgresRepository) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

func scanProduct(rows *sql.Rows) (catalog.Product, error) {
	var p catalog.Product
	var description, category sql.NullString
	if err := rows.Scan(&p.ID, &p.Name, &description, &p.Price, &category, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Description = description.String
	p.Category = category.String
	return p, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
