package dispatch

import (
	"errors"
	"testing"

	"github.com/ashureev/taskchat/internal/domain"
)

func TestEventSender(t *testing.T) {
	a := Actor{UserID: 9, DisplayName: "zoe"}
	for _, ev := range []Event{
		Command{Actor: a, Name: "help"},
		TextMessage{Actor: a, Text: "hi"},
		Selection{Actor: a, Action: domain.ActionDelete, TaskID: 1},
		Token{Actor: a, Token: "delete:1"},
	} {
		if got := ev.Sender(); got != a {
			t.Errorf("%T.Sender() = %+v, want %+v", ev, got, a)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want CommandName
		ok   bool
	}{
		{"new-task", CmdNewTask, true},
		{"/new", CmdNewTask, true},
		{"/Tasks@taskbot", CmdListTasks, true},
		{" complete ", CmdCompleteTask, true},
		{"delete-task", CmdDeleteTask, true},
		{"/cancel", CmdCancel, true},
		{"/skip", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCommand(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCommand(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSlashCommandOnlyMatchesLeadingSlash(t *testing.T) {
	if _, ok := slashCommand("tasks"); ok {
		t.Error("plain word must stay free text")
	}
	if cmd, ok := slashCommand("/delete now"); !ok || cmd != CmdDeleteTask {
		t.Errorf("expected delete-task, got %q, %v", cmd, ok)
	}
	if _, ok := slashCommand("   "); ok {
		t.Error("blank text is not a command")
	}
}

func TestParseToken(t *testing.T) {
	a := Actor{UserID: 1}

	ev, err := ParseToken(a, "list_tasks")
	if err != nil {
		t.Fatalf("ParseToken(list_tasks): %v", err)
	}
	if cmd, ok := ev.(Command); !ok || cmd.Name != string(CmdListTasks) {
		t.Errorf("expected list-tasks command, got %#v", ev)
	}

	ev, err = ParseToken(a, "complete_12")
	if err != nil {
		t.Fatalf("ParseToken(complete_12): %v", err)
	}
	sel, ok := ev.(Selection)
	if !ok || sel.Action != domain.ActionComplete || sel.TaskID != 12 || sel.Sender() != a {
		t.Errorf("expected complete selection of 12, got %#v", ev)
	}

	if _, err := ParseToken(a, "delete_abc"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := ParseToken(a, "launch_1"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected unknown token, got %v", err)
	}
	if _, err := ParseToken(a, "nonsense"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected unknown token, got %v", err)
	}
}
