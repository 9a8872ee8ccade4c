package cli

import (
	"context"
	"fmt"

	"github.com/ashureev/taskchat/internal/domain"
	"github.com/spf13/cobra"
)

func newTasksCmd(opts *options) *cobra.Command {
	var (
		userID  int64
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks, newest first",
		Long: `List tasks of one user (--user) or of every registered user.
With --pending only unfinished tasks are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("user") && userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}

			r, err := opts.reader()
			if err != nil {
				return err
			}
			defer r.Close()

			tasks, err := collectTasks(context.Background(), r, userID, pending)
			if err != nil {
				return err
			}
			return renderTasks(cmd.OutOrStdout(), opts.output, tasks)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Only show tasks of this user id")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only show unfinished tasks")
	return cmd
}

// collectTasks lists the tasks of userID, or of every user when userID is 0.
func collectTasks(ctx context.Context, r Reader, userID int64, pending bool) ([]*domain.Task, error) {
	list := r.ListTasks
	if pending {
		list = r.ListIncomplete
	}

	if userID > 0 {
		return list(ctx, userID)
	}

	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	all := []*domain.Task{}
	for _, u := range users {
		tasks, err := list(ctx, u.UserID)
		if err != nil {
			return nil, fmt.Errorf("list tasks of user %d: %w", u.UserID, err)
		}
		all = append(all, tasks...)
	}
	return all, nil
}
