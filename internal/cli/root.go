// Package cli implements taskctl, a read-only operator view of the task
// database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ashureev/taskchat/internal/domain"
	"github.com/ashureev/taskchat/internal/store"
	"github.com/spf13/cobra"
)

// Reader is the subset of the store taskctl needs.
type Reader interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListTasks(ctx context.Context, ownerID int64) ([]*domain.Task, error)
	ListIncomplete(ctx context.Context, ownerID int64) ([]*domain.Task, error)
	Close() error
}

type options struct {
	dbPath string
	output string
	open   func(path string) (Reader, error)
}

// NewRootCmd builds the taskctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{open: openStore}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Inspect the task chat database",
		Long: `taskctl prints the registered users and their tasks straight from the
SQLite database used by the chat server. It never modifies data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultDB := os.Getenv("DB_PATH")
	if defaultDB == "" {
		defaultDB = "./data/tasks.db"
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", defaultDB, "Path to the SQLite database (env DB_PATH)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatTable, "Output format: table or yaml")

	root.AddCommand(newUsersCmd(opts))
	root.AddCommand(newTasksCmd(opts))
	return root
}

// Execute runs taskctl.
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *options) reader() (Reader, error) {
	if err := checkFormat(o.output); err != nil {
		return nil, err
	}
	return o.open(o.dbPath)
}

func openStore(path string) (Reader, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("database %s does not exist", path)
	}
	s, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
