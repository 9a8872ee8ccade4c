// Package dispatch routes inbound chat events to the task store or the
// create-task dialogue.
package dispatch

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ashureev/taskchat/internal/domain"
)

// Actor identifies the user behind an event.
type Actor struct {
	UserID      int64
	DisplayName string
}

// Event is an inbound event delivered by a gateway.
type Event interface {
	Sender() Actor
}

// Command is a named command such as "new-task".
type Command struct {
	Actor
	Name string
}

// TextMessage is free text typed by the user.
type TextMessage struct {
	Actor
	Text string
}

// Selection is a choice picked from a rendered choice list.
type Selection struct {
	Actor
	Action domain.Action
	TaskID int64
}

// Token is a raw button token, parsed by the router.
type Token struct {
	Actor
	Token string
}

// Sender returns the user who issued the command.
func (c Command) Sender() Actor { return c.Actor }

// Sender returns the user who typed the message.
func (m TextMessage) Sender() Actor { return m.Actor }

// Sender returns the user who picked the choice.
func (s Selection) Sender() Actor { return s.Actor }

// Sender returns the user who pressed the button.
func (t Token) Sender() Actor { return t.Actor }

// CommandName is a canonical command name.
type CommandName string

const (
	CmdStart        CommandName = "start"
	CmdHelp         CommandName = "help"
	CmdNewTask      CommandName = "new-task"
	CmdListTasks    CommandName = "list-tasks"
	CmdDeleteTask   CommandName = "delete-task"
	CmdCompleteTask CommandName = "complete-task"
	CmdCancel       CommandName = "cancel"
)

var commandAliases = map[string]CommandName{
	"start":         CmdStart,
	"help":          CmdHelp,
	"new-task":      CmdNewTask,
	"new":           CmdNewTask,
	"list-tasks":    CmdListTasks,
	"tasks":         CmdListTasks,
	"delete-task":   CmdDeleteTask,
	"delete":        CmdDeleteTask,
	"complete-task": CmdCompleteTask,
	"complete":      CmdCompleteTask,
	"cancel":        CmdCancel,
}

// ParseCommand normalizes a command name. It accepts the canonical names,
// their short aliases, a leading slash and a "@botname" suffix.
func ParseCommand(name string) (CommandName, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	cmd, ok := commandAliases[name]
	return cmd, ok
}

// slashCommand reports whether text is a slash command naming a known
// command, e.g. "/tasks". Anything else, "/skip" included, is free text.
func slashCommand(text string) (CommandName, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	return ParseCommand(fields[0])
}

// ErrUnknownToken is returned by ParseToken for tokens it does not recognise.
var ErrUnknownToken = errors.New("unknown token")

var menuTokens = map[string]CommandName{
	"create_task":   CmdNewTask,
	"list_tasks":    CmdListTasks,
	"delete_task":   CmdDeleteTask,
	"complete_task": CmdCompleteTask,
}

// ParseToken turns a button token into an event. Menu tokens such as
// "list_tasks" become commands; "delete_<id>" and "complete_<id>" become
// selections. A selection token with a malformed id yields a
// *domain.ValidationError.
func ParseToken(a Actor, token string) (Event, error) {
	token = strings.TrimSpace(token)
	if cmd, ok := menuTokens[token]; ok {
		return Command{Actor: a, Name: string(cmd)}, nil
	}

	prefix, rawID, ok := strings.Cut(token, "_")
	if !ok {
		return nil, ErrUnknownToken
	}
	action := domain.Action(prefix)
	if !action.Valid() {
		return nil, ErrUnknownToken
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.NewValidationError("selection", "bad task id "+strconv.Quote(rawID))
	}
	return Selection{Actor: a, Action: action, TaskID: id}, nil
}
