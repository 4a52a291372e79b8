package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard-api/domain"
)

// All boards live in one partition; row keys are board identifiers.
const boardsPartition = "boards"

type boardEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	OwnerID     string `json:"OwnerID"`
	AccessCode  string `json:"AccessCode"`
	SharedWith  string `json:"SharedWith"`
	CreatedAt   string `json:"CreatedAt"`
}

func decodeBoardEntity(data []byte) (domain.Board, error) {
	var ent boardEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Board{}, err
	}
	b := domain.Board{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		OwnerID:     ent.OwnerID,
		AccessCode:  ent.AccessCode,
	}
	if ent.SharedWith != "" {
		if err := json.Unmarshal([]byte(ent.SharedWith), &b.SharedWith); err != nil {
			return domain.Board{}, err
		}
	}
	if ent.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
		if err != nil {
			return domain.Board{}, err
		}
		b.CreatedAt = ts
	}
	return b, nil
}

func encodeSharedWith(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// InsertBoard writes a new board row.
func (s *Storage) InsertBoard(ctx context.Context, b domain.Board) error {
	shared, err := encodeSharedWith(b.SharedWith)
	if err != nil {
		return err
	}
	props := map[string]any{
		"PartitionKey": boardsPartition,
		"RowKey":       b.ID,
		"Title":        b.Title,
		"Description":  b.Description,
		"OwnerID":      b.OwnerID,
		"AccessCode":   b.AccessCode,
		"SharedWith":   shared,
		"CreatedAt":    b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.boards.AddEntity(ctx, data, nil)
	return err
}

// GetBoard returns the board or domain.ErrNotFound.
func (s *Storage) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	resp, err := s.boards.GetEntity(ctx, boardsPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Board{}, domain.ErrNotFound
		}
		return domain.Board{}, err
	}
	return decodeBoardEntity(resp.Value)
}

func (s *Storage) listBoards(ctx context.Context, filter string) ([]domain.Board, error) {
	pager := s.boards.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	boards := []domain.Board{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			b, err := decodeBoardEntity(e)
			if err != nil {
				return nil, err
			}
			boards = append(boards, b)
		}
	}
	return boards, nil
}

// BoardsByOwner returns every board owned by the given user.
func (s *Storage) BoardsByOwner(ctx context.Context, ownerID string) ([]domain.Board, error) {
	filter := eqFilter("PartitionKey", boardsPartition) + " and " + eqFilter("OwnerID", ownerID)
	return s.listBoards(ctx, filter)
}

// BoardsByMember resolves the user's membership index rows to boards. Index
// rows whose board has since been deleted are skipped.
func (s *Storage) BoardsByMember(ctx context.Context, userID string) ([]domain.Board, error) {
	ids, err := s.sharesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	boards := []domain.Board{}
	for _, id := range ids {
		b, err := s.GetBoard(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

// BoardByAccessCode returns the first board carrying the code, or
// domain.ErrNotFound. Duplicate codes (only reachable through the documented
// generation race) resolve to whichever row the backend enumerates first.
func (s *Storage) BoardByAccessCode(ctx context.Context, code string) (domain.Board, error) {
	filter := eqFilter("PartitionKey", boardsPartition) + " and " + eqFilter("AccessCode", code)
	boards, err := s.listBoards(ctx, filter)
	if err != nil {
		return domain.Board{}, err
	}
	if len(boards) == 0 {
		return domain.Board{}, domain.ErrNotFound
	}
	return boards[0], nil
}

// MergeBoard applies the set patch fields to the stored row, leaving other
// properties untouched.
func (s *Storage) MergeBoard(ctx context.Context, id string, patch domain.BoardPatch) error {
	props := map[string]any{
		"PartitionKey": boardsPartition,
		"RowKey":       id,
	}
	if patch.Title != nil {
		props["Title"] = *patch.Title
	}
	if patch.Description != nil {
		props["Description"] = *patch.Description
	}
	if patch.AccessCode != nil {
		props["AccessCode"] = *patch.AccessCode
	}
	if patch.SharedWith != nil {
		shared, err := encodeSharedWith(*patch.SharedWith)
		if err != nil {
			return err
		}
		props["SharedWith"] = shared
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.boards.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

// DeleteBoard removes the board row. Tasks and share index rows are cleaned
// up asynchronously by the purge worker.
func (s *Storage) DeleteBoard(ctx context.Context, id string) error {
	_, err := s.boards.DeleteEntity(ctx, boardsPartition, id, nil)
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

// InsertShare records userID's membership of boardID in the index. Writing
// an existing row is a no-op.
func (s *Storage) InsertShare(ctx context.Context, userID, boardID string) error {
	props := map[string]any{
		"PartitionKey": userID,
		"RowKey":       boardID,
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.shares.AddEntity(ctx, data, nil)
	if isConflict(err) {
		return nil
	}
	return err
}

func (s *Storage) sharesByUser(ctx context.Context, userID string) ([]string, error) {
	filter := eqFilter("PartitionKey", userID)
	pager := s.shares.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	ids := []string{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent aztables.Entity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			ids = append(ids, ent.RowKey)
		}
	}
	return ids, nil
}

func (s *Storage) deleteBoardShares(ctx context.Context, boardID string) error {
	filter := eqFilter("RowKey", boardID)
	pager := s.shares.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range resp.Entities {
			var ent aztables.Entity
			if err := json.Unmarshal(e, &ent); err != nil {
				return err
			}
			if _, err := s.shares.DeleteEntity(ctx, ent.PartitionKey, ent.RowKey, nil); err != nil && !isNotFound(err) {
				return err
			}
		}
	}
	return nil
}
