// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/taskchat/internal/domain"
)

// Repository persists users and their tasks. Every task operation is
// scoped to an owner: a task id that belongs to someone else behaves
// exactly like a missing one and yields domain.ErrNotFound.
type Repository interface {
	// RegisterUser inserts the user if absent. Registering a known user is a no-op.
	RegisterUser(ctx context.Context, userID int64, displayName string) error

	// GetUser retrieves a user by ID. It returns nil, nil if the user does not exist.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// ListUsers returns all users in registration order.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// CreateTask inserts a new pending task and returns its ID.
	CreateTask(ctx context.Context, ownerID int64, title string) (int64, error)

	// AttachDescription sets or clears (nil) the description of an owned task.
	AttachDescription(ctx context.Context, taskID, ownerID int64, description *string) error

	// GetTask retrieves one owned task.
	GetTask(ctx context.Context, taskID, ownerID int64) (*domain.Task, error)

	// ListTasks returns all tasks of the owner, newest first.
	ListTasks(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// ListIncomplete returns the owner's tasks that are not done, newest first.
	ListIncomplete(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// CompleteTask marks an owned task as done. Completing twice is not an error.
	CompleteTask(ctx context.Context, taskID, ownerID int64) error

	// DeleteTask removes an owned task.
	DeleteTask(ctx context.Context, taskID, ownerID int64) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
