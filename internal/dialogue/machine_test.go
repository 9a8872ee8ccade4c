package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ashureev/taskchat/internal/domain"
)

type fakeTasks struct {
	mu           sync.Mutex
	nextID       int64
	titles       map[int64]string
	owners       map[int64]int64
	descriptions map[int64]*string
	createErr    error
	attachErr    error
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{
		titles:       make(map[int64]string),
		owners:       make(map[int64]int64),
		descriptions: make(map[int64]*string),
	}
}

func (f *fakeTasks) CreateTask(_ context.Context, ownerID int64, title string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.titles[f.nextID] = title
	f.owners[f.nextID] = ownerID
	return f.nextID, nil
}

func (f *fakeTasks) AttachDescription(_ context.Context, taskID, ownerID int64, description *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	if owner, ok := f.owners[taskID]; !ok || owner != ownerID {
		return fmt.Errorf("task %d: %w", taskID, domain.ErrNotFound)
	}
	f.descriptions[taskID] = description
	return nil
}

func TestMachineFullDialogue(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	ctx := context.Background()
	var st State

	if resp := m.Begin(1, &st); resp.Text != MsgAskTitle {
		t.Errorf("Expected title prompt, got %q", resp.Text)
	}
	if st.Phase != PhaseAwaitingTitle {
		t.Fatalf("Expected awaiting title, got %v", st.Phase)
	}

	resp, ok := m.HandleText(ctx, 1, &st, "Buy milk")
	if !ok || resp.Text != MsgAskDescription {
		t.Fatalf("Expected description prompt, got %q (handled=%v)", resp.Text, ok)
	}
	if st.Phase != PhaseAwaitingDescription || st.PendingTaskID != 1 || !st.Valid() {
		t.Fatalf("Unexpected state after title: %+v", st)
	}

	resp, ok = m.HandleText(ctx, 1, &st, "2%")
	if !ok || !strings.Contains(resp.Text, "#1") {
		t.Fatalf("Expected success for task #1, got %q", resp.Text)
	}
	if st != (State{}) {
		t.Errorf("Expected idle after description, got %+v", st)
	}
	if tasks.titles[1] != "Buy milk" {
		t.Errorf("Expected title Buy milk, got %q", tasks.titles[1])
	}
	if d := tasks.descriptions[1]; d == nil || *d != "2%" {
		t.Errorf("Expected description 2%%, got %v", d)
	}
}

func TestMachineDescriptionStoredVerbatim(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	ctx := context.Background()
	st := State{Phase: PhaseAwaitingTitle}

	m.HandleText(ctx, 1, &st, "Buy milk")
	m.HandleText(ctx, 1, &st, "  2% \n")

	if d := tasks.descriptions[1]; d == nil || *d != "  2% \n" {
		t.Errorf("Expected description kept as typed, got %v", d)
	}
}

func TestMachineBlankDescriptionSkips(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	ctx := context.Background()
	st := State{Phase: PhaseAwaitingTitle}

	m.HandleText(ctx, 1, &st, "X")
	m.HandleText(ctx, 1, &st, " \t ")

	if d, ok := tasks.descriptions[1]; !ok || d != nil {
		t.Errorf("Expected blank description to leave it unset, got %v (attached=%v)", d, ok)
	}
}

func TestMachineEmptyTitleReprompts(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	st := State{Phase: PhaseAwaitingTitle}

	for _, text := range []string{"", "   ", "\t\n"} {
		resp, ok := m.HandleText(context.Background(), 1, &st, text)
		if !ok || resp.Text != MsgTitleEmpty {
			t.Errorf("HandleText(%q): expected re-prompt, got %q", text, resp.Text)
		}
		if st.Phase != PhaseAwaitingTitle {
			t.Errorf("HandleText(%q): expected to stay awaiting title, got %v", text, st.Phase)
		}
	}
	if tasks.nextID != 0 {
		t.Errorf("Expected no task created, got %d", tasks.nextID)
	}
}

func TestMachineSkipDescription(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	ctx := context.Background()
	st := State{Phase: PhaseAwaitingTitle}

	m.HandleText(ctx, 1, &st, "X")
	resp, _ := m.HandleText(ctx, 1, &st, SkipToken)

	if !strings.Contains(resp.Text, "created") {
		t.Errorf("Expected success message, got %q", resp.Text)
	}
	if st.Phase != PhaseIdle {
		t.Errorf("Expected idle, got %v", st.Phase)
	}
	if d, ok := tasks.descriptions[1]; !ok || d != nil {
		t.Errorf("Expected description explicitly unset, got %v (attached=%v)", d, ok)
	}
}

func TestMachineUsesPendingIDNotLatestTask(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	ctx := context.Background()
	st := State{Phase: PhaseAwaitingTitle}

	m.HandleText(ctx, 1, &st, "first")
	// Another session of the same user creates a newer task meanwhile.
	if _, err := tasks.CreateTask(ctx, 1, "second"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	m.HandleText(ctx, 1, &st, "for the first one")

	if d := tasks.descriptions[1]; d == nil || *d != "for the first one" {
		t.Errorf("Expected description on task 1, got %v", d)
	}
	if _, ok := tasks.descriptions[2]; ok {
		t.Error("Expected task 2 to be untouched")
	}
}

func TestMachineCreateFailureResetsToIdle(t *testing.T) {
	tasks := newFakeTasks()
	tasks.createErr = domain.NewStorageError("create task", errors.New("disk I/O error"))
	m := NewMachine(tasks)
	st := State{Phase: PhaseAwaitingTitle}

	resp, _ := m.HandleText(context.Background(), 1, &st, "doomed")
	if resp.Text != MsgGenericFailure {
		t.Errorf("Expected generic failure, got %q", resp.Text)
	}
	if st != (State{}) {
		t.Errorf("Expected idle after failure, got %+v", st)
	}
}

func TestMachineAttachFailureResetsToIdle(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	ctx := context.Background()
	st := State{Phase: PhaseAwaitingTitle}
	m.HandleText(ctx, 1, &st, "title")

	tasks.attachErr = domain.NewStorageError("attach description", errors.New("database is closed"))
	resp, _ := m.HandleText(ctx, 1, &st, "desc")
	if resp.Text != MsgGenericFailure {
		t.Errorf("Expected generic failure, got %q", resp.Text)
	}
	if st != (State{}) {
		t.Errorf("Expected idle after failure, got %+v", st)
	}
}

func TestMachinePendingTaskDeleted(t *testing.T) {
	tasks := newFakeTasks()
	m := NewMachine(tasks)
	st := State{Phase: PhaseAwaitingDescription, PendingTaskID: 42}

	resp, _ := m.HandleText(context.Background(), 1, &st, "desc")
	if resp.Text != msgPendingGone {
		t.Errorf("Expected not-found message, got %q", resp.Text)
	}
	if st != (State{}) {
		t.Errorf("Expected idle, got %+v", st)
	}
}

func TestMachineIdleTextNotHandled(t *testing.T) {
	m := NewMachine(newFakeTasks())
	var st State
	if _, ok := m.HandleText(context.Background(), 1, &st, "hello"); ok {
		t.Error("Expected idle text not to be handled by the dialogue")
	}
}

func TestMachineCancel(t *testing.T) {
	m := NewMachine(newFakeTasks())

	var idle State
	if resp := m.Cancel(1, &idle); resp.Text != MsgNothingToCancel {
		t.Errorf("Expected nothing-to-cancel, got %q", resp.Text)
	}

	st := State{Phase: PhaseAwaitingDescription, PendingTaskID: 3}
	if resp := m.Cancel(1, &st); resp.Text != MsgCancelled {
		t.Errorf("Expected cancelled, got %q", resp.Text)
	}
	if st != (State{}) {
		t.Errorf("Expected idle after cancel, got %+v", st)
	}
}

func TestMachineBeginAbandonsPending(t *testing.T) {
	m := NewMachine(newFakeTasks())
	st := State{Phase: PhaseAwaitingDescription, PendingTaskID: 5}

	resp := m.Begin(1, &st)
	if !strings.Contains(resp.Text, "#5") || !strings.HasSuffix(resp.Text, MsgAskTitle) {
		t.Errorf("Unexpected restart message %q", resp.Text)
	}
	if st.Phase != PhaseAwaitingTitle || st.PendingTaskID != 0 {
		t.Errorf("Expected fresh title step, got %+v", st)
	}
}
