package repo

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// Tasks maps task operations onto the document store. Tasks are scoped to
// their board's partition; the store already denormalizes the assignee to a
// bare identifier on read.
type Tasks struct {
	store TaskStore
	log   *log.Logger
}

// NewTasks creates the task repository.
func NewTasks(store TaskStore, logger *log.Logger) *Tasks {
	return &Tasks{store: store, log: logger}
}

// FetchAll returns all tasks under the board in backend enumeration order.
func (r *Tasks) FetchAll(ctx context.Context, boardID string) ([]domain.Task, error) {
	return r.store.ListTasks(ctx, boardID)
}

// Add inserts a task. Status defaults to To Do when empty; an empty
// assignee is omitted from storage rather than stored as null.
func (r *Tasks) Add(ctx context.Context, boardID, title, description string, status domain.Status, assignedTo string) (domain.Task, error) {
	if status == "" {
		status = domain.StatusToDo
	}
	t := domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		AssignedTo:  assignedTo,
		CreatedAt:   nextCreatedAt(),
	}
	if err := r.store.InsertTask(ctx, boardID, t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// Update merges the given fields into the stored task.
func (r *Tasks) Update(ctx context.Context, boardID, taskID string, patch domain.TaskPatch) error {
	return r.store.MergeTask(ctx, boardID, taskID, patch)
}

// Delete removes the task permanently.
func (r *Tasks) Delete(ctx context.Context, boardID, taskID string) error {
	return r.store.DeleteTask(ctx, boardID, taskID)
}
