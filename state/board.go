package state

import (
	"context"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

const (
	welcomeTaskTitle       = "Welcome Task"
	welcomeTaskDescription = "Edit or delete this task to get started!"
)

// TaskService is what the board page needs from the task repository.
type TaskService interface {
	FetchAll(ctx context.Context, boardID string) ([]domain.Task, error)
	Add(ctx context.Context, boardID, title, description string, status domain.Status, assignedTo string) (domain.Task, error)
	Update(ctx context.Context, boardID, taskID string, patch domain.TaskPatch) error
	Delete(ctx context.Context, boardID, taskID string) error
}

// DragEnd is a finished drag gesture: the task that was dragged and the
// column it was dropped on. An empty Column means the drop landed outside
// any column.
type DragEnd struct {
	TaskID string
	Column string
}

// TaskBoard is one board page's view state: its tasks, grouped into
// status columns, and the actions the page can take on them.
type TaskBoard struct {
	boardID string
	svc     TaskService
	col     *Collection[domain.Task]
}

// NewTaskBoard creates the view state for one board.
func NewTaskBoard(svc TaskService, boardID string, logger *log.Logger) *TaskBoard {
	return &TaskBoard{boardID: boardID, svc: svc, col: NewCollection[domain.Task](logger)}
}

// Load fetches the board's tasks. An empty board is seeded with a single
// starter task so the page never renders blank columns on first visit.
func (b *TaskBoard) Load(ctx context.Context) error {
	return b.col.Load(ctx, func(ctx context.Context) ([]domain.Task, error) {
		tasks, err := b.svc.FetchAll(ctx, b.boardID)
		if err != nil {
			return nil, err
		}
		if len(tasks) == 0 {
			seeded, err := b.svc.Add(ctx, b.boardID, welcomeTaskTitle, welcomeTaskDescription, domain.StatusToDo, "")
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, seeded)
		}
		return tasks, nil
	})
}

// Phase returns the page's lifecycle stage.
func (b *TaskBoard) Phase() Phase { return b.col.Phase() }

// Tasks returns a copy of the board's tasks in creation order.
func (b *TaskBoard) Tasks() []domain.Task { return b.col.Items() }

// ByStatus groups the tasks into the board's columns. Every column is
// present in the result, empty or not, so the page always renders all
// three.
func (b *TaskBoard) ByStatus() map[domain.Status][]domain.Task {
	grouped := make(map[domain.Status][]domain.Task, len(domain.Columns()))
	for _, s := range domain.Columns() {
		grouped[s] = []domain.Task{}
	}
	for _, t := range b.col.Items() {
		grouped[t.Status] = append(grouped[t.Status], t)
	}
	return grouped
}

// AddTask creates a task and appends it once the identifier is known.
func (b *TaskBoard) AddTask(ctx context.Context, title, description string, status domain.Status, assignedTo string) (domain.Task, error) {
	return b.col.Insert(ctx, func(ctx context.Context) (domain.Task, error) {
		return b.svc.Add(ctx, b.boardID, title, description, status, assignedTo)
	})
}

// UpdateTask merges the patch into the task, locally first.
func (b *TaskBoard) UpdateTask(ctx context.Context, taskID string, patch domain.TaskPatch) error {
	return b.col.Mutate(ctx, Mutation[domain.Task]{
		Apply: func(items []domain.Task) []domain.Task {
			for i, t := range items {
				if t.ID == taskID {
					items[i] = t.Merge(patch)
				}
			}
			return items
		},
		Send: func(ctx context.Context) error {
			return b.svc.Update(ctx, b.boardID, taskID, patch)
		},
	})
}

// DeleteTask removes the task, locally first.
func (b *TaskBoard) DeleteTask(ctx context.Context, taskID string) error {
	return b.col.Mutate(ctx, Mutation[domain.Task]{
		Apply: func(items []domain.Task) []domain.Task {
			out := items[:0]
			for _, t := range items {
				if t.ID != taskID {
					out = append(out, t)
				}
			}
			return out
		},
		Send: func(ctx context.Context) error {
			return b.svc.Delete(ctx, b.boardID, taskID)
		},
	})
}

// HandleDragEnd reconciles a finished drag gesture with the board. Drops
// outside a column, on an unknown column, or back on the task's current
// column do nothing. A real move is a status mutation: the column change
// shows immediately and one update is sent for it; if the write fails the
// task snaps back.
func (b *TaskBoard) HandleDragEnd(ctx context.Context, drag DragEnd) error {
	if drag.Column == "" {
		return nil
	}
	dest, ok := domain.ParseStatus(drag.Column)
	if !ok {
		return nil
	}
	var current domain.Status
	found := false
	for _, t := range b.col.Items() {
		if t.ID == drag.TaskID {
			current = t.Status
			found = true
			break
		}
	}
	if !found || current == dest {
		return nil
	}

	patch := domain.TaskPatch{Status: &dest}
	return b.col.Mutate(ctx, Mutation[domain.Task]{
		Apply: func(items []domain.Task) []domain.Task {
			for i, t := range items {
				if t.ID == drag.TaskID {
					items[i].Status = dest
				}
			}
			return items
		},
		Send: func(ctx context.Context) error {
			return b.svc.Update(ctx, b.boardID, drag.TaskID, patch)
		},
	})
}
