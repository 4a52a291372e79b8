package repo

import (
	"context"

	"taskboard-api/domain"
)

// BoardStore is the slice of the document store the board repository uses.
type BoardStore interface {
	InsertBoard(ctx context.Context, b domain.Board) error
	GetBoard(ctx context.Context, id string) (domain.Board, error)
	BoardsByOwner(ctx context.Context, ownerID string) ([]domain.Board, error)
	BoardsByMember(ctx context.Context, userID string) ([]domain.Board, error)
	BoardByAccessCode(ctx context.Context, code string) (domain.Board, error)
	MergeBoard(ctx context.Context, id string, patch domain.BoardPatch) error
	DeleteBoard(ctx context.Context, id string) error
	InsertShare(ctx context.Context, userID, boardID string) error
	EnqueueBoardPurge(ctx context.Context, boardID string) error
}

// TaskStore is the slice of the document store the task repository uses.
type TaskStore interface {
	ListTasks(ctx context.Context, boardID string) ([]domain.Task, error)
	InsertTask(ctx context.Context, boardID string, t domain.Task) error
	MergeTask(ctx context.Context, boardID, taskID string, patch domain.TaskPatch) error
	DeleteTask(ctx context.Context, boardID, taskID string) error
}
