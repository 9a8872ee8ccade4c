// Package domain contains core domain types for the task assistant.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// User is a chat user known to the assistant. Users are created on first
// contact and never mutated afterwards.
type User struct {
	UserID       int64     `json:"user_id" yaml:"user_id"`
	DisplayName  string    `json:"display_name" yaml:"display_name"`
	RegisteredAt time.Time `json:"registered_at" yaml:"registered_at"`
}

// DisplayNameOrDefault returns name, or a placeholder derived from userID
// when name is blank.
func DisplayNameOrDefault(userID int64, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "user-" + strconv.FormatInt(userID, 10)
	}
	return name
}
