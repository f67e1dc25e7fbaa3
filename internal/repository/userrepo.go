// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to registered users and their running totals.
type UserRepository interface {
	// Create inserts a new user; a taken username yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads a user by exact (case-sensitive) username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// AdjustCredits adds delta to the user's carbon credits.
	AdjustCredits(ctx context.Context, id uuid.UUID, delta float64) error
	// AddSales adds delta to the user's total sales.
	AddSales(ctx context.Context, id uuid.UUID, delta float64) error
	// Leaderboard returns the top users of a role: sellers by total sales,
	// recyclers by carbon credits, descending.
	Leaderboard(ctx context.Context, role model.Role, limit int) ([]model.User, error)
}
