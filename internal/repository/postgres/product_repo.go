package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ProductRepo implements ProductRepository using PostgreSQL.
type ProductRepo struct{ db *DB }

// NewProductRepo constructs a product repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, type, category, price, description, seller_id, status, uploaded_at,
COALESCE(acquired_by, '00000000-0000-0000-0000-000000000000'::uuid)`

// nullID maps uuid.Nil to SQL NULL.
func nullID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p      model.Product
		status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Category, &p.Price, &p.Description,
		&p.SellerID, &status, &p.UploadedAt, &p.AcquiredBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.Status = model.ProductStatus(status)
	return &p, nil
}

// Create inserts the product exactly as given, including ID, status and timestamp,
// so deleted snapshots can be restored unchanged.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, type, category, price, description, seller_id, status, uploaded_at, acquired_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.Name, p.Type, p.Category, p.Price, p.Description,
		p.SellerID, string(p.Status), p.UploadedAt, nullID(p.AcquiredBy))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects a product by ID.
func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products WHERE id=$1`
	return scanProduct(r.db.Pool.QueryRow(ctx, q, id))
}

// buildList renders the filtered catalog query and its arguments.
func buildList(f model.ProductFilter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + productCols + ` FROM products WHERE TRUE`)
	where := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND "+cond, len(args))
	}
	if f.SellerID != uuid.Nil {
		where("seller_id=$%d", f.SellerID)
	}
	if f.AcquiredBy != uuid.Nil {
		where("acquired_by=$%d", f.AcquiredBy)
	}
	if len(f.Statuses) > 0 {
		where("status = ANY($%d)", statusStrings(f.Statuses))
	}
	if f.Category != "" {
		where("category=$%d", strings.ToLower(f.Category))
	}
	if f.MinPrice > 0 {
		where("price >= $%d", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where("price <= $%d", f.MaxPrice)
	}
	if f.SortByPrice {
		sb.WriteString(" ORDER BY price ASC, uploaded_at DESC")
	} else {
		sb.WriteString(" ORDER BY uploaded_at DESC")
	}
	return sb.String(), args
}

// List returns the products matching f.
func (r *ProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	q, args := buildList(f)
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// explainMiss tells a missing product apart from one in the wrong status
// after a guarded write touched no rows.
func explainMiss(ctx context.Context, q querier, id uuid.UUID) error {
	var status string
	if err := q.QueryRow(ctx, `SELECT status FROM products WHERE id=$1`, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("product is %s: %w", status, errs.ErrInvalidState)
}

// Update edits description and price while the status is one of in.
func (r *ProductRepo) Update(ctx context.Context, id uuid.UUID, upd model.ProductUpdate, in []model.ProductStatus) error {
	const q = `UPDATE products SET description=$2, price=$3 WHERE id=$1 AND status = ANY($4)`
	tag, err := r.db.Pool.Exec(ctx, q, id, upd.Description, upd.Price, statusStrings(in))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return explainMiss(ctx, r.db.Pool, id)
	}
	return nil
}

// SetStatus performs a guarded status transition.
func (r *ProductRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to model.ProductStatus) error {
	const q = `UPDATE products SET status=$3 WHERE id=$1 AND status=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return explainMiss(ctx, r.db.Pool, id)
	}
	return nil
}

// Delete removes the product while its status is one of in.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID, in []model.ProductStatus) error {
	const q = `DELETE FROM products WHERE id=$1 AND status = ANY($2)`
	tag, err := r.db.Pool.Exec(ctx, q, id, statusStrings(in))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return explainMiss(ctx, r.db.Pool, id)
	}
	return nil
}

// SetUploadedAt rewrites the listing time.
func (r *ProductRepo) SetUploadedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `UPDATE products SET uploaded_at=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
