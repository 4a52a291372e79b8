package domain

import "time"

// Status is a task's column on the board. Column identifiers and status
// values are the same strings, keyed 1:1.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Columns returns the board columns in display order.
func Columns() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusDone}
}

// ParseStatus resolves a column identifier to a status value.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusToDo, StatusInProgress, StatusDone:
		return Status(s), true
	}
	return "", false
}

// Task is a unit of work belonging to exactly one board.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskPatch carries a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	AssignedTo  *string
}

// Merge returns t with the set patch fields applied.
func (t Task) Merge(p TaskPatch) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	return t
}
