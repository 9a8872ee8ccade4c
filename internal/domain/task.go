package domain

import (
	"time"
)

// Task is a personal to-do item exclusively owned by OwnerID.
type Task struct {
	ID          int64     `json:"id" yaml:"id"`
	OwnerID     int64     `json:"owner_id" yaml:"owner_id"`
	Title       string    `json:"title" yaml:"title"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Done        bool      `json:"done" yaml:"done"`
}

// HasDescription reports whether a description has been attached.
func (t *Task) HasDescription() bool {
	return t.Description != nil
}

// DescriptionText returns the description or an empty string when unset.
func (t *Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}
