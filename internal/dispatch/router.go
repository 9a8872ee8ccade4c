package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/taskchat/internal/dialogue"
	"github.com/ashureev/taskchat/internal/domain"
	"github.com/ashureev/taskchat/internal/identity"
	"github.com/ashureev/taskchat/internal/store"
)

// Router is the entry point of the core: gateways hand it events and
// render the responses it returns.
type Router struct {
	repo      store.Repository
	users     *identity.Registrar
	dialogues *dialogue.Registry
	machine   *dialogue.Machine
}

// NewRouter creates a router over the given store, user registrar and
// dialogue registry.
func NewRouter(repo store.Repository, users *identity.Registrar, dialogues *dialogue.Registry) *Router {
	return &Router{
		repo:      repo,
		users:     users,
		dialogues: dialogues,
		machine:   dialogue.NewMachine(repo),
	}
}

// Handle processes one event. Events of one user are handled one at a
// time; events of different users run concurrently. Handle never fails:
// every error becomes a user-visible response.
func (r *Router) Handle(ctx context.Context, ev Event) domain.Response {
	actor := ev.Sender()
	if actor.UserID <= 0 {
		slog.Warn("Event without user id", "event", fmt.Sprintf("%T", ev))
		return domain.PlainText(msgNotUnderstood)
	}

	if err := r.users.Ensure(ctx, actor.UserID, actor.DisplayName); err != nil {
		slog.Error("Failed to register user", "user_id", actor.UserID, "error", err)
		r.dialogues.Reset(actor.UserID)
		return domain.PlainText(dialogue.MsgGenericFailure)
	}

	var resp domain.Response
	r.dialogues.With(actor.UserID, func(st *dialogue.State) {
		resp = r.route(ctx, actor, st, ev)
	})
	return resp
}

func (r *Router) route(ctx context.Context, a Actor, st *dialogue.State, ev Event) domain.Response {
	switch e := ev.(type) {
	case TextMessage:
		if cmd, ok := slashCommand(e.Text); ok {
			return r.command(ctx, a, st, cmd)
		}
		if resp, ok := r.machine.HandleText(ctx, a.UserID, st, e.Text); ok {
			return resp
		}
		// Also what a user sees whose dialogue was lost to a restart.
		return domain.PlainText(msgNoDialogue)

	case Command:
		cmd, ok := ParseCommand(e.Name)
		if !ok {
			slog.Info("Unknown command", "user_id", a.UserID, "command", e.Name)
			return domain.PlainText(msgNotUnderstood)
		}
		return r.command(ctx, a, st, cmd)

	case Selection:
		return r.selection(ctx, a, st, e.Action, e.TaskID)

	case Token:
		parsed, err := ParseToken(a, e.Token)
		if errors.Is(err, domain.ErrValidation) {
			slog.Info("Malformed selection token", "user_id", a.UserID, "token", e.Token, "error", err)
			return domain.PlainText(msgBadSelection)
		}
		if err != nil {
			slog.Info("Unknown token", "user_id", a.UserID, "token", e.Token)
			return domain.PlainText(msgNotUnderstood)
		}
		return r.route(ctx, a, st, parsed)

	default:
		return domain.PlainText(msgNotUnderstood)
	}
}

func (r *Router) command(ctx context.Context, a Actor, st *dialogue.State, cmd CommandName) domain.Response {
	switch cmd {
	case CmdStart:
		slog.Info("User started the bot", "user_id", a.UserID)
		return domain.PlainText(fmt.Sprintf(msgWelcomeFormat, domain.DisplayNameOrDefault(a.UserID, a.DisplayName)))

	case CmdHelp:
		return domain.PlainText(msgHelp)

	case CmdNewTask:
		return r.machine.Begin(a.UserID, st)

	case CmdCancel:
		return r.machine.Cancel(a.UserID, st)

	case CmdListTasks:
		tasks, err := r.repo.ListTasks(ctx, a.UserID)
		if err != nil {
			return r.storageFailure(a, st, "list tasks", err)
		}
		if len(tasks) == 0 {
			return domain.TaskListing(msgNoTasks, tasks)
		}
		return domain.TaskListing(msgYourTasks, tasks)

	case CmdDeleteTask:
		tasks, err := r.repo.ListTasks(ctx, a.UserID)
		if err != nil {
			return r.storageFailure(a, st, "list tasks for deletion", err)
		}
		if len(tasks) == 0 {
			return domain.PlainText(msgNoTasksToDelete)
		}
		return domain.ChoiceList(msgChooseDelete, domain.ActionDelete, tasks)

	case CmdCompleteTask:
		tasks, err := r.repo.ListIncomplete(ctx, a.UserID)
		if err != nil {
			return r.storageFailure(a, st, "list tasks for completion", err)
		}
		if len(tasks) == 0 {
			return domain.PlainText(msgNoTasksToComplete)
		}
		return domain.ChoiceList(msgChooseComplete, domain.ActionComplete, tasks)

	default:
		return domain.PlainText(msgNotUnderstood)
	}
}

// selection runs a single-shot delete or complete. It does not touch the
// dialogue unless the store fails.
func (r *Router) selection(ctx context.Context, a Actor, st *dialogue.State, action domain.Action, taskID int64) domain.Response {
	if !action.Valid() || taskID <= 0 {
		slog.Info("Invalid selection", "user_id", a.UserID, "action", action, "task_id", taskID)
		return domain.PlainText(msgBadSelection)
	}

	var err error
	var done string
	switch action {
	case domain.ActionDelete:
		err = r.repo.DeleteTask(ctx, taskID, a.UserID)
		done = msgDeletedFormat
	case domain.ActionComplete:
		err = r.repo.CompleteTask(ctx, taskID, a.UserID)
		done = msgCompletedFormat
	}

	if errors.Is(err, domain.ErrNotFound) {
		slog.Info("Selected task not found", "user_id", a.UserID, "task_id", taskID, "action", action)
		return domain.PlainText(fmt.Sprintf(msgTaskNotFoundFormat, taskID))
	}
	if err != nil {
		return r.storageFailure(a, st, string(action)+" task", err)
	}

	slog.Info("Task updated", "user_id", a.UserID, "task_id", taskID, "action", action)
	return domain.PlainText(fmt.Sprintf(done, taskID))
}

// storageFailure logs err and resets the dialogue so the user is never
// stuck mid-dialogue behind a failing store.
func (r *Router) storageFailure(a Actor, st *dialogue.State, op string, err error) domain.Response {
	slog.Error("Store operation failed", "op", op, "user_id", a.UserID, "phase", st.Phase.String(), "error", err)
	*st = dialogue.State{}
	return domain.PlainText(dialogue.MsgGenericFailure)
}
