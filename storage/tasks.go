package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard-api/domain"
)

// Tasks are partitioned per board, mirroring a sub-collection: partition key
// is the board identifier, row key the task identifier.
type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	AssignedTo  string `json:"AssignedTo"`
	CreatedAt   string `json:"CreatedAt"`
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		Status:      domain.Status(ent.Status),
		AssignedTo:  ent.AssignedTo,
	}
	if ent.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
		if err != nil {
			return domain.Task{}, err
		}
		t.CreatedAt = ts
	}
	return t, nil
}

// ListTasks retrieves all tasks under the board in backend enumeration
// order.
func (s *Storage) ListTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	filter := eqFilter("PartitionKey", boardID)
	pager := s.tasks.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			t, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// InsertTask writes a new task row. The assignee property is omitted
// entirely when the task is unassigned so rows stay sparse.
func (s *Storage) InsertTask(ctx context.Context, boardID string, t domain.Task) error {
	props := map[string]any{
		"PartitionKey": boardID,
		"RowKey":       t.ID,
		"Title":        t.Title,
		"Description":  t.Description,
		"Status":       string(t.Status),
		"CreatedAt":    t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.AssignedTo != "" {
		props["AssignedTo"] = t.AssignedTo
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.tasks.AddEntity(ctx, data, nil)
	return err
}

// MergeTask applies the set patch fields to the stored row.
func (s *Storage) MergeTask(ctx context.Context, boardID, taskID string, patch domain.TaskPatch) error {
	props := map[string]any{
		"PartitionKey": boardID,
		"RowKey":       taskID,
	}
	if patch.Title != nil {
		props["Title"] = *patch.Title
	}
	if patch.Description != nil {
		props["Description"] = *patch.Description
	}
	if patch.Status != nil {
		props["Status"] = string(*patch.Status)
	}
	if patch.AssignedTo != nil {
		props["AssignedTo"] = *patch.AssignedTo
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.tasks.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

// DeleteTask removes the task permanently.
func (s *Storage) DeleteTask(ctx context.Context, boardID, taskID string) error {
	_, err := s.tasks.DeleteEntity(ctx, boardID, taskID, nil)
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

func (s *Storage) deleteBoardTasks(ctx context.Context, boardID string) error {
	tasks, err := s.ListTasks(ctx, boardID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.DeleteTask(ctx, boardID, t.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}
