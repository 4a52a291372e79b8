package api

import (
	"context"

	"taskboard-api/domain"
	"taskboard-api/prefs"
)

// BoardService abstracts board persistence for handlers.
type BoardService interface {
	FetchOwnedAndShared(ctx context.Context, userID string) ([]domain.Board, error)
	Create(ctx context.Context, ownerID, title, description string) (domain.Board, error)
	FetchByID(ctx context.Context, id string) (domain.Board, error)
	Update(ctx context.Context, id string, patch domain.BoardPatch) error
	DeleteByID(ctx context.Context, id, requestingUserID string) error
	EnsureAccessCode(ctx context.Context, boardID string) (string, error)
	JoinByAccessCode(ctx context.Context, code, userID string) (domain.Board, error)
}

// TaskService abstracts task persistence for handlers.
type TaskService interface {
	FetchAll(ctx context.Context, boardID string) ([]domain.Task, error)
	Add(ctx context.Context, boardID, title, description string, status domain.Status, assignedTo string) (domain.Task, error)
	Update(ctx context.Context, boardID, taskID string, patch domain.TaskPatch) error
	Delete(ctx context.Context, boardID, taskID string) error
}

// UserStore abstracts the user profile documents.
type UserStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	PutUser(ctx context.Context, u domain.User) error
	UpdateUserTheme(ctx context.Context, id, theme string) error
}

// PrefStore abstracts per-user preferences and sign-in handoff state.
type PrefStore interface {
	Theme(ctx context.Context, userID string) (string, error)
	SetTheme(ctx context.Context, userID, theme string) error
	StageHandoff(ctx context.Context, h prefs.Handoff) error
	TakeHandoff(ctx context.Context, userID string) (prefs.Handoff, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents replays of create requests carrying the same
// idempotency key.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}

// Services bundles everything Register needs.
type Services struct {
	Boards  BoardService
	Tasks   TaskService
	Users   UserStore
	Prefs   PrefStore
	Auth    Authenticator
	Deduper Deduper
}
