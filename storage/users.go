package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard-api/domain"
)

type userEntity struct {
	aztables.Entity
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Theme string `json:"Theme"`
}

// GetUser returns the stored profile or domain.ErrNotFound.
func (s *Storage) GetUser(ctx context.Context, id string) (domain.User, error) {
	resp, err := s.users.GetEntity(ctx, id, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: ent.RowKey, Name: ent.Name, Email: ent.Email, Theme: ent.Theme}, nil
}

// PutUser creates or replaces the profile row.
func (s *Storage) PutUser(ctx context.Context, u domain.User) error {
	props := map[string]any{
		"PartitionKey": u.ID,
		"RowKey":       u.ID,
		"Name":         u.Name,
		"Email":        u.Email,
		"Theme":        u.Theme,
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.users.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// UpdateUserTheme merges only the theme property into the profile row.
func (s *Storage) UpdateUserTheme(ctx context.Context, id, theme string) error {
	props := map[string]any{
		"PartitionKey": id,
		"RowKey":       id,
		"Theme":        theme,
	}
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.users.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}
