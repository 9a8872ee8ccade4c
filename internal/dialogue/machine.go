package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/taskchat/internal/domain"
)

// SkipToken skips the description step.
const SkipToken = "/skip"

// User-visible messages produced by the dialogue.
const (
	MsgAskTitle         = "📝 Enter the task title:"
	MsgTitleEmpty       = "The title cannot be empty. Enter the task title:"
	MsgAskDescription   = "📄 Enter a description for the task (or " + SkipToken + " to skip):"
	MsgCancelled        = "Task creation cancelled."
	MsgNothingToCancel  = "There is nothing to cancel."
	MsgGenericFailure   = "❌ Something went wrong. Please try again later."
	msgCreatedFormat    = "✅ Task #%d created!"
	msgPendingGone      = "The task you were describing no longer exists."
	msgAbandonedPending = "Started a new task. Task #%d was kept without a description."
)

// TaskWriter is the part of the task store the dialogue writes to.
type TaskWriter interface {
	CreateTask(ctx context.Context, ownerID int64, title string) (int64, error)
	AttachDescription(ctx context.Context, taskID, ownerID int64, description *string) error
}

// Machine applies dialogue transitions to a user's State. It holds no
// per-user data itself; callers pass the state they hold the lock for.
type Machine struct {
	tasks TaskWriter
}

// NewMachine creates a state machine writing to tasks.
func NewMachine(tasks TaskWriter) *Machine {
	return &Machine{tasks: tasks}
}

// Begin starts a new dialogue from any phase. A dialogue already waiting
// for a description is abandoned; its task keeps no description.
func (m *Machine) Begin(userID int64, st *State) domain.Response {
	abandoned := st.PendingTaskID
	*st = State{Phase: PhaseAwaitingTitle}

	if abandoned != 0 {
		slog.Info("Dialogue restarted", "user_id", userID, "abandoned_task_id", abandoned)
		return domain.PlainText(fmt.Sprintf(msgAbandonedPending, abandoned) + "\n" + MsgAskTitle)
	}
	slog.Info("Dialogue started", "user_id", userID)
	return domain.PlainText(MsgAskTitle)
}

// Cancel returns the user to idle. A task already created by the dialogue
// is kept without a description.
func (m *Machine) Cancel(userID int64, st *State) domain.Response {
	if st.Phase == PhaseIdle {
		return domain.PlainText(MsgNothingToCancel)
	}
	slog.Info("Dialogue cancelled", "user_id", userID, "phase", st.Phase.String(), "pending_task_id", st.PendingTaskID)
	*st = State{}
	return domain.PlainText(MsgCancelled)
}

// HandleText feeds free text into the dialogue. It reports false when the
// user has no dialogue in progress.
func (m *Machine) HandleText(ctx context.Context, userID int64, st *State, text string) (domain.Response, bool) {
	switch st.Phase {
	case PhaseAwaitingTitle:
		return m.handleTitle(ctx, userID, st, text), true
	case PhaseAwaitingDescription:
		return m.handleDescription(ctx, userID, st, text), true
	default:
		return domain.Response{}, false
	}
}

func (m *Machine) handleTitle(ctx context.Context, userID int64, st *State, text string) domain.Response {
	title := strings.TrimSpace(text)
	if title == "" {
		return domain.PlainText(MsgTitleEmpty)
	}

	taskID, err := m.tasks.CreateTask(ctx, userID, title)
	if errors.Is(err, domain.ErrValidation) {
		return domain.PlainText(MsgTitleEmpty)
	}
	if err != nil {
		return m.fail(userID, st, "create task", err)
	}

	*st = State{Phase: PhaseAwaitingDescription, PendingTaskID: taskID}
	slog.Info("Task created", "user_id", userID, "task_id", taskID)
	return domain.PlainText(MsgAskDescription)
}

func (m *Machine) handleDescription(ctx context.Context, userID int64, st *State, text string) domain.Response {
	taskID := st.PendingTaskID

	// Non-blank text is stored as typed; only blank text and the skip token
	// leave the description unset.
	var description *string
	if trimmed := strings.TrimSpace(text); trimmed != "" && trimmed != SkipToken {
		description = &text
	}

	err := m.tasks.AttachDescription(ctx, taskID, userID, description)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return m.fail(userID, st, "attach description", err)
	}

	// The dialogue is over either way.
	*st = State{}
	if err != nil {
		slog.Info("Pending task vanished before description", "user_id", userID, "task_id", taskID)
		return domain.PlainText(msgPendingGone)
	}

	slog.Info("Task description attached", "user_id", userID, "task_id", taskID, "skipped", description == nil)
	return domain.PlainText(fmt.Sprintf(msgCreatedFormat, taskID))
}

func (m *Machine) fail(userID int64, st *State, op string, err error) domain.Response {
	slog.Error("Dialogue step failed", "op", op, "user_id", userID, "pending_task_id", st.PendingTaskID, "error", err)
	*st = State{}
	return domain.PlainText(MsgGenericFailure)
}
