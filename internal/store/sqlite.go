package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/taskchat/internal/domain"
	"github.com/ashureev/taskchat/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy

	// writeMu serializes writers so id assignment and read-modify-write
	// updates never interleave and SQLITE_BUSY stays rare.
	writeMu sync.Mutex
}

// Option customizes a SQLiteStore.
type Option func(*SQLiteStore)

// WithRetryPolicy sets the backoff used for busy/locked errors.
func WithRetryPolicy(p shared.RetryPolicy) Option {
	return func(s *SQLiteStore) {
		s.retry = p
	}
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers, foreign keys for owner references.
	dsn := "file:" + dbPath +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

// OpenReadOnly opens an existing database without creating files or
// running migrations. The schema must already be at the current version.
func OpenReadOnly(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("stat database: %w", err)
	}

	dsn := "file:" + dbPath + "?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := store.checkSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// write runs fn under the write lock with busy/locked retries. Errors that
// are not already classified come back as *domain.StorageError.
func (s *SQLiteStore) write(ctx context.Context, op string, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := shared.Retry(ctx, s.retry, op, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	if shared.IsSQLiteConstraintError(err) {
		slog.Warn("Write rejected by schema constraint", "op", op, "error", err)
	}
	return domain.NewStorageError(op, err)
}

// RegisterUser inserts the user if absent.
func (s *SQLiteStore) RegisterUser(ctx context.Context, userID int64, displayName string) error {
	query := `
	INSERT INTO users (user_id, display_name, registered_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO NOTHING`

	name := domain.DisplayNameOrDefault(userID, displayName)
	return s.write(ctx, "register user", func() error {
		_, err := s.db.ExecContext(ctx, query, userID, name, time.Now().Unix())
		return err
	})
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	query := `SELECT user_id, display_name, registered_at FROM users WHERE user_id = ?`

	var user domain.User
	var registeredAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&user.UserID, &user.DisplayName, &registeredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("get user", err)
	}
	user.RegisteredAt = time.Unix(registeredAt, 0)
	return &user, nil
}

// ListUsers returns all users in registration order.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT user_id, display_name, registered_at FROM users ORDER BY registered_at, user_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("list users", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close user rows", "error", closeErr)
		}
	}()

	users := []*domain.User{}
	for rows.Next() {
		var user domain.User
		var registeredAt int64
		if err := rows.Scan(&user.UserID, &user.DisplayName, &registeredAt); err != nil {
			return nil, domain.NewStorageError("scan user row", err)
		}
		user.RegisteredAt = time.Unix(registeredAt, 0)
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate users", err)
	}
	return users, nil
}

// CreateTask inserts a new pending task and returns its ID.
func (s *SQLiteStore) CreateTask(ctx context.Context, ownerID int64, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, domain.NewValidationError("title", "must not be empty")
	}

	query := `
	INSERT INTO tasks (owner_id, title, description, created_at, done)
	VALUES (?, ?, NULL, ?, 0)`

	var id int64
	err := s.write(ctx, "create task", func() error {
		result, err := s.db.ExecContext(ctx, query, ownerID, title, time.Now().Unix())
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AttachDescription sets or clears the description of an owned task.
func (s *SQLiteStore) AttachDescription(ctx context.Context, taskID, ownerID int64, description *string) error {
	query := `UPDATE tasks SET description = ? WHERE id = ? AND owner_id = ?`

	var value interface{}
	if description != nil {
		value = *description
	}

	return s.write(ctx, "attach description", func() error {
		result, err := s.db.ExecContext(ctx, query, value, taskID, ownerID)
		if err != nil {
			return err
		}
		return requireRow(result, taskID)
	})
}

// CompleteTask marks an owned task as done.
func (s *SQLiteStore) CompleteTask(ctx context.Context, taskID, ownerID int64) error {
	query := `UPDATE tasks SET done = 1 WHERE id = ? AND owner_id = ?`

	return s.write(ctx, "complete task", func() error {
		result, err := s.db.ExecContext(ctx, query, taskID, ownerID)
		if err != nil {
			return err
		}
		return requireRow(result, taskID)
	})
}

// DeleteTask removes an owned task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID, ownerID int64) error {
	query := `DELETE FROM tasks WHERE id = ? AND owner_id = ?`

	return s.write(ctx, "delete task", func() error {
		result, err := s.db.ExecContext(ctx, query, taskID, ownerID)
		if err != nil {
			return err
		}
		return requireRow(result, taskID)
	})
}

// requireRow maps "no row matched id AND owner_id" to domain.ErrNotFound.
// SQLite counts matched rows, so rewriting an unchanged value still reports 1.
func requireRow(result sql.Result, taskID int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %d: %w", taskID, domain.ErrNotFound)
	}
	return nil
}

const taskColumns = `id, owner_id, title, description, created_at, done`

// GetTask retrieves one owned task.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID, ownerID int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", taskID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.NewStorageError("get task", err)
	}
	return task, nil
}

// ListTasks returns all tasks of the owner, newest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`
	return s.queryTasks(ctx, "list tasks", query, ownerID)
}

// ListIncomplete returns the owner's pending tasks, newest first.
func (s *SQLiteStore) ListIncomplete(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE owner_id = ? AND done = 0
		ORDER BY created_at DESC, id DESC`
	return s.queryTasks(ctx, "list incomplete tasks", query, ownerID)
}

func (s *SQLiteStore) queryTasks(ctx context.Context, op, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close task rows", "op", op, "error", closeErr)
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var description sql.NullString
	var createdAt int64

	if err := row.Scan(
		&task.ID, &task.OwnerID, &task.Title,
		&description, &createdAt, &task.Done,
	); err != nil {
		return nil, err
	}

	if description.Valid {
		d := description.String
		task.Description = &d
	}
	task.CreatedAt = time.Unix(createdAt, 0)
	return &task, nil
}

var _ Repository = (*SQLiteStore)(nil)
