// Package identity registers chat users on first contact.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// UserRegistrar is the subset of the repository needed to register users.
type UserRegistrar interface {
	RegisterUser(ctx context.Context, userID int64, displayName string) error
}

// Registrar makes sure every user seen by the assistant has a row in the
// users table. Known users are remembered so repeated events skip the
// database round trip.
type Registrar struct {
	repo UserRegistrar
	seen sync.Map // int64 -> struct{}
}

// NewRegistrar creates a registrar backed by repo.
func NewRegistrar(repo UserRegistrar) *Registrar {
	return &Registrar{repo: repo}
}

// Ensure registers the user if this process has not done so yet. It is
// safe to call concurrently; the underlying insert is idempotent.
func (r *Registrar) Ensure(ctx context.Context, userID int64, displayName string) error {
	if userID <= 0 {
		return fmt.Errorf("register user: invalid user id %d", userID)
	}
	if _, ok := r.seen.Load(userID); ok {
		return nil
	}

	if err := r.repo.RegisterUser(ctx, userID, displayName); err != nil {
		return fmt.Errorf("register user %d: %w", userID, err)
	}

	if _, loaded := r.seen.LoadOrStore(userID, struct{}{}); !loaded {
		slog.Info("User registered", "user_id", userID)
	}
	return nil
}
