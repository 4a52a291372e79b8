package state

import (
	"context"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// BoardService is what the dashboard needs from the board repository.
type BoardService interface {
	FetchOwnedAndShared(ctx context.Context, userID string) ([]domain.Board, error)
	Create(ctx context.Context, ownerID, title, description string) (domain.Board, error)
	Update(ctx context.Context, id string, patch domain.BoardPatch) error
	DeleteByID(ctx context.Context, id, requestingUserID string) error
	EnsureAccessCode(ctx context.Context, boardID string) (string, error)
	JoinByAccessCode(ctx context.Context, code, userID string) (domain.Board, error)
}

// Dashboard is the boards page's view state: the user's visible boards and
// the actions the page can take on them.
type Dashboard struct {
	userID string
	svc    BoardService
	col    *Collection[domain.Board]
}

// NewDashboard creates the dashboard state for one user.
func NewDashboard(svc BoardService, userID string, logger *log.Logger) *Dashboard {
	return &Dashboard{userID: userID, svc: svc, col: NewCollection[domain.Board](logger)}
}

// Load fetches the user's boards. The service seeds a default board when
// the user has none, so a successful load is never empty.
func (d *Dashboard) Load(ctx context.Context) error {
	return d.col.Load(ctx, func(ctx context.Context) ([]domain.Board, error) {
		return d.svc.FetchOwnedAndShared(ctx, d.userID)
	})
}

// Phase returns the page's lifecycle stage.
func (d *Dashboard) Phase() Phase { return d.col.Phase() }

// Boards returns a copy of the visible boards.
func (d *Dashboard) Boards() []domain.Board { return d.col.Items() }

// AddBoard creates a board and appends it once the identifier is known.
func (d *Dashboard) AddBoard(ctx context.Context, title, description string) (domain.Board, error) {
	return d.col.Insert(ctx, func(ctx context.Context) (domain.Board, error) {
		return d.svc.Create(ctx, d.userID, title, description)
	})
}

// UpdateBoard merges the patch into the board, locally first.
func (d *Dashboard) UpdateBoard(ctx context.Context, id string, patch domain.BoardPatch) error {
	return d.col.Mutate(ctx, Mutation[domain.Board]{
		Apply: func(items []domain.Board) []domain.Board {
			for i, b := range items {
				if b.ID == id {
					items[i] = b.Merge(patch)
				}
			}
			return items
		},
		Send: func(ctx context.Context) error {
			return d.svc.Update(ctx, id, patch)
		},
	})
}

// DeleteBoard removes the board, locally first. The owner check runs in
// the service; a rejected delete rolls the board back into view.
func (d *Dashboard) DeleteBoard(ctx context.Context, id string) error {
	return d.col.Mutate(ctx, Mutation[domain.Board]{
		Apply: func(items []domain.Board) []domain.Board {
			out := items[:0]
			for _, b := range items {
				if b.ID != id {
					out = append(out, b)
				}
			}
			return out
		},
		Send: func(ctx context.Context) error {
			return d.svc.DeleteByID(ctx, id, d.userID)
		},
	})
}

// ShareBoard returns the board's access code, generating one on first
// share, and reflects it in the local collection.
func (d *Dashboard) ShareBoard(ctx context.Context, id string) (string, error) {
	code, err := d.svc.EnsureAccessCode(ctx, id)
	if err != nil {
		return "", err
	}
	d.col.replace(func(items []domain.Board) []domain.Board {
		for i, b := range items {
			if b.ID == id {
				items[i].AccessCode = code
			}
		}
		return items
	})
	return code, nil
}

// JoinBoard joins another user's board by access code and appends it to
// the dashboard on success.
func (d *Dashboard) JoinBoard(ctx context.Context, code string) (domain.Board, error) {
	b, err := d.svc.JoinByAccessCode(ctx, code, d.userID)
	if err != nil {
		return domain.Board{}, err
	}
	d.col.replace(func(items []domain.Board) []domain.Board {
		return append(items, b)
	})
	return b, nil
}
