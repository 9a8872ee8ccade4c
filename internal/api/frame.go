package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/taskchat/internal/dispatch"
	"github.com/ashureev/taskchat/internal/domain"
)

// Frame types accepted by the gateways.
const (
	FrameCommand   = "command"
	FrameMessage   = "message"
	FrameSelection = "selection"
	FrameToken     = "token"
)

// Frame is the JSON form of one inbound event, shared by the HTTP and
// WebSocket gateways.
type Frame struct {
	Type        string `json:"type"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Name        string `json:"name,omitempty"`
	Text        string `json:"text,omitempty"`
	Action      string `json:"action,omitempty"`
	TaskID      int64  `json:"task_id,omitempty"`
	Token       string `json:"token,omitempty"`
}

// DecodeFrame reads a single frame from r. Unknown fields are rejected.
func DecodeFrame(r io.Reader) (Frame, error) {
	var f Frame
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Frame{}, domain.NewValidationError("frame", err.Error())
	}
	return f, nil
}

// Event converts the frame into a dispatch event. Structural problems are
// reported as *domain.ValidationError; a selection with an unknown action
// is passed through for the router to answer.
func (f Frame) Event() (dispatch.Event, error) {
	if f.UserID <= 0 {
		return nil, domain.NewValidationError("user_id", "must be a positive integer")
	}
	actor := dispatch.Actor{UserID: f.UserID, DisplayName: strings.TrimSpace(f.DisplayName)}

	switch f.Type {
	case FrameCommand:
		if strings.TrimSpace(f.Name) == "" {
			return nil, domain.NewValidationError("name", "required for command frames")
		}
		return dispatch.Command{Actor: actor, Name: f.Name}, nil
	case FrameMessage:
		return dispatch.TextMessage{Actor: actor, Text: f.Text}, nil
	case FrameSelection:
		if f.TaskID <= 0 {
			return nil, domain.NewValidationError("task_id", "required for selection frames")
		}
		return dispatch.Selection{Actor: actor, Action: domain.Action(f.Action), TaskID: f.TaskID}, nil
	case FrameToken:
		if strings.TrimSpace(f.Token) == "" {
			return nil, domain.NewValidationError("token", "required for token frames")
		}
		return dispatch.Token{Actor: actor, Token: f.Token}, nil
	default:
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown frame type %q", f.Type))
	}
}
