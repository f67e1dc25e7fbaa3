package postgres

import (
	"context"
	"errors"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, username, credential, role, carbon_credits, total_sales, created_at`

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, username, credential, role, carbon_credits, total_sales, created_at)
VALUES ($1, $2, $3, $4, 0, 0, $5)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.Credential, string(u.Role), u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Credential, &role, &u.CarbonCredits, &u.TotalSales, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE username=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, username))
}

const (
	addCreditsSQL = `UPDATE users SET carbon_credits = carbon_credits + $2 WHERE id = $1`
	addSalesSQL   = `UPDATE users SET total_sales = total_sales + $2 WHERE id = $1`
)

// increment applies an additive update in the database so concurrent deltas are never lost.
func increment(ctx context.Context, q querier, sql string, id uuid.UUID, delta float64) error {
	tag, err := q.Exec(ctx, sql, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AdjustCredits adds delta to carbon_credits.
func (r *UserRepo) AdjustCredits(ctx context.Context, id uuid.UUID, delta float64) error {
	return increment(ctx, r.db.Pool, addCreditsSQL, id, delta)
}

// AddSales adds delta to total_sales.
func (r *UserRepo) AddSales(ctx context.Context, id uuid.UUID, delta float64) error {
	return increment(ctx, r.db.Pool, addSalesSQL, id, delta)
}

// Leaderboard returns the top sellers by sales or recyclers by credits.
func (r *UserRepo) Leaderboard(ctx context.Context, role model.Role, limit int) ([]model.User, error) {
	const (
		bySales   = `SELECT ` + userCols + ` FROM users WHERE role=$1 ORDER BY total_sales DESC, username ASC LIMIT $2`
		byCredits = `SELECT ` + userCols + ` FROM users WHERE role=$1 ORDER BY carbon_credits DESC, username ASC LIMIT $2`
	)
	var q string
	switch role {
	case model.RoleSeller:
		q = bySales
	case model.RoleRecycler:
		q = byCredits
	default:
		return nil, errs.New(errs.ErrValidation, "no leaderboard for role %q", role)
	}
	if limit <= 0 {
		limit = model.LeaderboardSize
	}
	rows, err := r.db.Pool.Query(ctx, q, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
