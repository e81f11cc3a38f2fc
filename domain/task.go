package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a task and selects its board column.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// ColumnOrder lists statuses in board order.
var ColumnOrder = [...]Status{StatusBacklog, StatusInProgress, StatusDone}

var columnTitles = map[Status]string{
	StatusBacklog:    "Backlog",
	StatusInProgress: "In Progress",
	StatusDone:       "Done",
}

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	_, ok := columnTitles[s]
	return ok
}

// Title returns the column heading for s.
func (s Status) Title() string {
	return columnTitles[s]
}

// ParseStatus converts raw input into a Status. An empty value yields the
// backlog default.
func ParseStatus(raw string) (Status, error) {
	if raw == "" {
		return StatusBacklog, nil
	}
	s := Status(raw)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Task is the single persisted entity.
type Task struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskPatch carries the optional fields of an update.
type TaskPatch struct {
	Content *string `json:"content,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// Empty reports whether the patch changes no field.
func (p TaskPatch) Empty() bool {
	return p.Content == nil && p.Status == nil
}

// ValidateNew checks content and status of a new task.
func ValidateNew(content string, status Status) error {
	if strings.TrimSpace(content) == "" {
		return ErrContentRequired
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Validate checks the fields present in the patch.
func (p TaskPatch) Validate() error {
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return ErrContentEmpty
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ToggleStatus returns the status a task moves to when its completion is
// toggled. Done tasks reopen to reopenTo, which defaults to backlog; every
// other status completes.
func ToggleStatus(current, reopenTo Status) Status {
	if current != StatusDone {
		return StatusDone
	}
	if reopenTo == StatusInProgress {
		return StatusInProgress
	}
	return StatusBacklog
}
