package repo

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

const (
	welcomeBoardTitle       = "Welcome Board"
	welcomeBoardDescription = "This is a default board."
)

// Boards maps board operations onto the document store.
type Boards struct {
	store BoardStore
	log   *log.Logger

	// randInt is swapped for a deterministic source in tests.
	randInt func(n int) int
}

// NewBoards creates the board repository.
func NewBoards(store BoardStore, logger *log.Logger) *Boards {
	return &Boards{store: store, log: logger, randInt: rand.Intn}
}

// FetchOwnedAndShared returns the union of boards the user owns and boards
// shared with them, deduplicated by identifier with the owned copy taking
// precedence. A user with no visible boards gets a default board created
// for them.
func (r *Boards) FetchOwnedAndShared(ctx context.Context, userID string) ([]domain.Board, error) {
	owned, err := r.store.BoardsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	shared, err := r.store.BoardsByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned))
	boards := make([]domain.Board, 0, len(owned)+len(shared))
	for _, b := range owned {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		boards = append(boards, b)
	}
	for _, b := range shared {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		boards = append(boards, b)
	}

	if len(boards) == 0 {
		welcome, err := r.Create(ctx, userID, welcomeBoardTitle, welcomeBoardDescription)
		if err != nil {
			return nil, err
		}
		boards = append(boards, welcome)
	}
	return boards, nil
}

// Create inserts a new board with an empty access code and empty shared set
// and returns it with its generated identifier.
func (r *Boards) Create(ctx context.Context, ownerID, title, description string) (domain.Board, error) {
	b := domain.Board{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   nextCreatedAt(),
	}
	if err := r.store.InsertBoard(ctx, b); err != nil {
		return domain.Board{}, err
	}
	return b, nil
}

// FetchByID returns the board or domain.ErrNotFound.
func (r *Boards) FetchByID(ctx context.Context, id string) (domain.Board, error) {
	return r.store.GetBoard(ctx, id)
}

// FetchByAccessCode returns the first board carrying the code. An empty
// code never matches: boards that were never shared all carry the empty
// code, and it must not act as one.
func (r *Boards) FetchByAccessCode(ctx context.Context, code string) (domain.Board, error) {
	if code == "" {
		return domain.Board{}, domain.ErrNotFound
	}
	return r.store.BoardByAccessCode(ctx, code)
}

// Update merges the given fields into the stored board.
func (r *Boards) Update(ctx context.Context, id string, patch domain.BoardPatch) error {
	return r.store.MergeBoard(ctx, id, patch)
}

// DeleteByID re-reads the board and deletes it only when requestingUserID
// is the stored owner. Task rows and share index rows are purged
// asynchronously; a failed purge enqueue is logged, not surfaced, since the
// board itself is already gone.
func (r *Boards) DeleteByID(ctx context.Context, id, requestingUserID string) error {
	b, err := r.store.GetBoard(ctx, id)
	if err != nil {
		return err
	}
	if b.OwnerID != requestingUserID {
		return domain.ErrNotOwner
	}
	if err := r.store.DeleteBoard(ctx, id); err != nil {
		return err
	}
	if err := r.store.EnqueueBoardPurge(ctx, id); err != nil {
		r.log.WithError(err).WithField("board_id", id).Warn("boards: purge enqueue failed")
	}
	return nil
}

// JoinByAccessCode adds the requester to the board's shared set. It returns
// domain.ErrNotFound for an unknown code and domain.ErrAlreadyMember when
// the requester is the owner or already a member; in both cases nothing is
// changed. The membership index row is written before the shared-set merge:
// InsertShare is idempotent, so a retry after a partial failure repairs the
// join instead of tripping over the already-merged shared set. The
// read-modify-write is not atomic: two users joining the same board
// concurrently can overwrite each other's membership.
func (r *Boards) JoinByAccessCode(ctx context.Context, code, userID string) (domain.Board, error) {
	b, err := r.FetchByAccessCode(ctx, code)
	if err != nil {
		return domain.Board{}, err
	}
	if b.OwnerID == userID || b.HasMember(userID) {
		return domain.Board{}, domain.ErrAlreadyMember
	}

	if err := r.store.InsertShare(ctx, userID, b.ID); err != nil {
		return domain.Board{}, err
	}
	shared := append(append([]string(nil), b.SharedWith...), userID)
	if err := r.store.MergeBoard(ctx, b.ID, domain.BoardPatch{SharedWith: &shared}); err != nil {
		return domain.Board{}, err
	}
	b.SharedWith = shared
	return b, nil
}
