package repo

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

func testBoards(store BoardStore) *Boards {
	return NewBoards(store, log.New())
}

func mustCreate(t *testing.T, r *Boards, ownerID, title string) domain.Board {
	t.Helper()
	b, err := r.Create(context.Background(), ownerID, title, "")
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return b
}

func TestFetchOwnedAndSharedDeduplicates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := testBoards(store)

	owned := mustCreate(t, r, "u1", "mine")
	other := mustCreate(t, r, "u2", "theirs")

	// Membership on the other user's board, plus an accidental overlap
	// where u1 is both owner and member of their own board.
	shared := []string{"u1"}
	if err := store.MergeBoard(ctx, other.ID, domain.BoardPatch{SharedWith: &shared}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := store.InsertShare(ctx, "u1", other.ID); err != nil {
		t.Fatalf("share: %v", err)
	}
	if err := store.InsertShare(ctx, "u1", owned.ID); err != nil {
		t.Fatalf("share: %v", err)
	}

	boards, err := r.FetchOwnedAndShared(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("expected 2 boards, got %d", len(boards))
	}
	if boards[0].ID != owned.ID || boards[1].ID != other.ID {
		t.Fatalf("expected owned board first, got %v then %v", boards[0].ID, boards[1].ID)
	}
}

func TestFetchOwnedAndSharedSeedsDefaultBoard(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := testBoards(store)

	boards, err := r.FetchOwnedAndShared(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected seeded board, got %d", len(boards))
	}
	b := boards[0]
	if b.Title != "Welcome Board" || b.OwnerID != "u1" {
		t.Fatalf("unexpected seeded board: %+v", b)
	}
	if b.AccessCode != "" || len(b.SharedWith) != 0 {
		t.Fatalf("expected empty code and shared set, got %+v", b)
	}
	if _, err := store.GetBoard(ctx, b.ID); err != nil {
		t.Fatalf("expected seeded board to be persisted: %v", err)
	}
}

func TestDeleteByIDRequiresOwner(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := testBoards(store)
	b := mustCreate(t, r, "u1", "mine")

	if err := r.DeleteByID(ctx, b.ID, "u2"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := store.GetBoard(ctx, b.ID); err != nil {
		t.Fatalf("expected board to survive non-owner delete: %v", err)
	}
	if len(store.purged) != 0 {
		t.Fatalf("expected no purge enqueue, got %v", store.purged)
	}

	if err := r.DeleteByID(ctx, b.ID, "u1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := store.GetBoard(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected board to be gone, got %v", err)
	}
	if len(store.purged) != 1 || store.purged[0] != b.ID {
		t.Fatalf("expected purge enqueued for %s, got %v", b.ID, store.purged)
	}
}

func TestDeleteByIDMissingBoard(t *testing.T) {
	r := testBoards(newMemStore())
	if err := r.DeleteByID(context.Background(), "nope", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinByAccessCode(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := testBoards(store)
	b := mustCreate(t, r, "owner", "shared board")
	code := "ZX9QK2"
	if err := store.MergeBoard(ctx, b.ID, domain.BoardPatch{AccessCode: &code}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	joined, err := r.JoinByAccessCode(ctx, code, "member")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(joined.SharedWith) != 1 || joined.SharedWith[0] != "member" {
		t.Fatalf("expected exactly one member added, got %#v", joined.SharedWith)
	}

	// Joining again is a no-op, as is the owner joining their own board.
	if _, err := r.JoinByAccessCode(ctx, code, "member"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember for repeat join, got %v", err)
	}
	if _, err := r.JoinByAccessCode(ctx, code, "owner"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember for owner join, got %v", err)
	}
	stored, err := store.GetBoard(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.SharedWith) != 1 {
		t.Fatalf("expected shared set unchanged, got %#v", stored.SharedWith)
	}

	if _, err := r.JoinByAccessCode(ctx, "WRONG1", "member"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
}

// flakyStore injects transient failures into single store operations.
type flakyStore struct {
	*memStore
	shareFailures int
	mergeFailures int
}

func (s *flakyStore) InsertShare(ctx context.Context, userID, boardID string) error {
	if s.shareFailures > 0 {
		s.shareFailures--
		return errors.New("transient storage error")
	}
	return s.memStore.InsertShare(ctx, userID, boardID)
}

func (s *flakyStore) MergeBoard(ctx context.Context, id string, patch domain.BoardPatch) error {
	if s.mergeFailures > 0 {
		s.mergeFailures--
		return errors.New("transient storage error")
	}
	return s.memStore.MergeBoard(ctx, id, patch)
}

func sharedBoard(t *testing.T, r *Boards, store BoardStore, code string) domain.Board {
	t.Helper()
	b := mustCreate(t, r, "owner", "shared board")
	if err := store.MergeBoard(context.Background(), b.ID, domain.BoardPatch{AccessCode: &code}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	return b
}

func TestJoinByAccessCodeRetriesAfterShareFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{memStore: newMemStore(), shareFailures: 1}
	r := testBoards(store)
	b := sharedBoard(t, r, store, "ZX9QK2")

	if _, err := r.JoinByAccessCode(ctx, "ZX9QK2", "member"); err == nil {
		t.Fatal("expected first join to fail")
	}
	joined, err := r.JoinByAccessCode(ctx, "ZX9QK2", "member")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(joined.SharedWith) != 1 || joined.SharedWith[0] != "member" {
		t.Fatalf("unexpected shared set after retry: %#v", joined.SharedWith)
	}

	visible, err := r.FetchOwnedAndShared(ctx, "member")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != b.ID {
		t.Fatalf("expected member to see the joined board, got %#v", visible)
	}
}

func TestJoinByAccessCodeRetriesAfterMergeFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{memStore: newMemStore()}
	r := testBoards(store)
	b := sharedBoard(t, r, store, "ZX9QK2")
	store.mergeFailures = 1

	if _, err := r.JoinByAccessCode(ctx, "ZX9QK2", "member"); err == nil {
		t.Fatal("expected first join to fail")
	}
	joined, err := r.JoinByAccessCode(ctx, "ZX9QK2", "member")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(joined.SharedWith) != 1 || joined.SharedWith[0] != "member" {
		t.Fatalf("unexpected shared set after retry: %#v", joined.SharedWith)
	}

	visible, err := r.FetchOwnedAndShared(ctx, "member")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != b.ID {
		t.Fatalf("expected member to see the joined board, got %#v", visible)
	}
	stored, _ := store.GetBoard(ctx, b.ID)
	if len(stored.SharedWith) != 1 || stored.SharedWith[0] != "member" {
		t.Fatalf("expected member added to shared set exactly once, got %#v", stored.SharedWith)
	}
}

func TestFetchByAccessCodeEmptyCodeNeverMatches(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := testBoards(store)
	mustCreate(t, r, "u1", "never shared")

	if _, err := r.FetchByAccessCode(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty code, got %v", err)
	}
}

func TestUpdateMergesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := testBoards(store)
	b := mustCreate(t, r, "u1", "title")
	desc := "described"
	if err := store.MergeBoard(ctx, b.ID, domain.BoardPatch{Description: &desc}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	title := "renamed"
	if err := r.Update(ctx, b.ID, domain.BoardPatch{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := store.GetBoard(ctx, b.ID)
	if stored.Title != "renamed" || stored.Description != "described" {
		t.Fatalf("expected untouched fields to survive, got %+v", stored)
	}
}
