package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// Register creates an account. Usernames are unique and case-sensitive;
// a taken name fails with errs.ErrAlreadyExists (a validation failure).
func (m *Marketplace) Register(ctx context.Context, username, password string, role model.Role) (uuid.UUID, error) {
	if !role.Valid() {
		return uuid.Nil, m.reject(errs.ErrValidation, "unknown role %q", role)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, m.fault("register", err)
	}
	cred, err := m.creds.Seal(password)
	if err != nil {
		return uuid.Nil, m.fault("register", err)
	}
	u := &model.User{
		ID:         uid,
		Username:   username,
		Credential: cred,
		Role:       role,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.st.Users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return uuid.Nil, m.fault("username "+username+" is taken", err)
		}
		return uuid.Nil, m.fault("register", err, zap.String("username", username))
	}
	m.log.Info("user registered", zap.Stringer("user_id", uid), zap.String("role", string(role)))
	return uid, nil
}

// Authenticate checks the credential and opens a session.
// Unknown users and wrong passwords are indistinguishable.
func (m *Marketplace) Authenticate(ctx context.Context, username, password string) (model.Session, error) {
	u, err := m.st.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Session{}, m.reject(errs.ErrUnauthorized, "invalid username or password")
		}
		return model.Session{}, m.fault("authenticate", err)
	}
	if !m.creds.Match(password, u.Credential) {
		return model.Session{}, m.reject(errs.ErrUnauthorized, "invalid username or password")
	}
	return model.SessionOf(u), nil
}

// Resume revalidates a session restored from a token against the identity store.
func (m *Marketplace) Resume(ctx context.Context, s model.Session) (model.Session, error) {
	u, err := m.st.Users.GetByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Session{}, m.reject(errs.ErrUnauthorized, "session user no longer exists")
		}
		return model.Session{}, m.fault("resume session", err)
	}
	if u.Role != s.Role {
		return model.Session{}, m.reject(errs.ErrUnauthorized, "session role mismatch")
	}
	return model.SessionOf(u), nil
}

// User returns the account with id.
func (m *Marketplace) User(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := m.st.Users.GetByID(ctx, id)
	if err != nil {
		return nil, m.fault("load user", err, zap.Stringer("user_id", id))
	}
	return u, nil
}

// SellerLeaderboard returns the top sellers by total sales.
func (m *Marketplace) SellerLeaderboard(ctx context.Context) ([]model.User, error) {
	out, err := m.st.Users.Leaderboard(ctx, model.RoleSeller, model.LeaderboardSize)
	if err != nil {
		return nil, m.fault("seller leaderboard", err)
	}
	return out, nil
}

// RecyclerLeaderboard returns the top recyclers by carbon credits.
func (m *Marketplace) RecyclerLeaderboard(ctx context.Context) ([]model.User, error) {
	out, err := m.st.Users.Leaderboard(ctx, model.RoleRecycler, model.LeaderboardSize)
	if err != nil {
		return nil, m.fault("recycler leaderboard", err)
	}
	return out, nil
}
