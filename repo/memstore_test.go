package repo

import (
	"context"
	"sort"

	"taskboard-api/domain"
)

// memStore is an in-memory BoardStore/TaskStore used by the repository
// tests. Listings are ordered by creation time so tests are deterministic.
type memStore struct {
	boards map[string]domain.Board
	tasks  map[string]map[string]domain.Task
	shares map[string]map[string]bool
	purged []string
	err    error
}

func newMemStore() *memStore {
	return &memStore{
		boards: map[string]domain.Board{},
		tasks:  map[string]map[string]domain.Task{},
		shares: map[string]map[string]bool{},
	}
}

func (m *memStore) sortedBoards() []domain.Board {
	out := make([]domain.Board, 0, len(m.boards))
	for _, b := range m.boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) InsertBoard(ctx context.Context, b domain.Board) error {
	if m.err != nil {
		return m.err
	}
	m.boards[b.ID] = b
	return nil
}

func (m *memStore) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	if m.err != nil {
		return domain.Board{}, m.err
	}
	b, ok := m.boards[id]
	if !ok {
		return domain.Board{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) BoardsByOwner(ctx context.Context, ownerID string) ([]domain.Board, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Board{}
	for _, b := range m.sortedBoards() {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) BoardsByMember(ctx context.Context, userID string) ([]domain.Board, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Board{}
	for _, b := range m.sortedBoards() {
		if m.shares[userID][b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) BoardByAccessCode(ctx context.Context, code string) (domain.Board, error) {
	if m.err != nil {
		return domain.Board{}, m.err
	}
	for _, b := range m.sortedBoards() {
		if code != "" && b.AccessCode == code {
			return b, nil
		}
	}
	return domain.Board{}, domain.ErrNotFound
}

func (m *memStore) MergeBoard(ctx context.Context, id string, patch domain.BoardPatch) error {
	if m.err != nil {
		return m.err
	}
	b, ok := m.boards[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.boards[id] = b.Merge(patch)
	return nil
}

func (m *memStore) DeleteBoard(ctx context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.boards[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.boards, id)
	return nil
}

func (m *memStore) InsertShare(ctx context.Context, userID, boardID string) error {
	if m.err != nil {
		return m.err
	}
	if m.shares[userID] == nil {
		m.shares[userID] = map[string]bool{}
	}
	m.shares[userID][boardID] = true
	return nil
}

func (m *memStore) EnqueueBoardPurge(ctx context.Context, boardID string) error {
	if m.err != nil {
		return m.err
	}
	m.purged = append(m.purged, boardID)
	return nil
}

func (m *memStore) ListTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Task, 0, len(m.tasks[boardID]))
	for _, t := range m.tasks[boardID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) InsertTask(ctx context.Context, boardID string, t domain.Task) error {
	if m.err != nil {
		return m.err
	}
	if m.tasks[boardID] == nil {
		m.tasks[boardID] = map[string]domain.Task{}
	}
	m.tasks[boardID][t.ID] = t
	return nil
}

func (m *memStore) MergeTask(ctx context.Context, boardID, taskID string, patch domain.TaskPatch) error {
	if m.err != nil {
		return m.err
	}
	t, ok := m.tasks[boardID][taskID]
	if !ok {
		return domain.ErrNotFound
	}
	m.tasks[boardID][taskID] = t.Merge(patch)
	return nil
}

func (m *memStore) DeleteTask(ctx context.Context, boardID, taskID string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.tasks[boardID][taskID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tasks[boardID], taskID)
	return nil
}
