// Package prefs stores small per-user preferences and short-lived sign-in
// handoff state in Redis, behind typed accessors. Callers never touch raw
// keys or string payloads.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	defaultHandoffTTL = 10 * time.Minute
)

// ErrNoHandoff is returned when no staged sign-in handoff exists for the
// user.
var ErrNoHandoff = errors.New("prefs: no staged handoff")

// Handoff is the identity captured before a federated sign-in redirect,
// consumed exactly once when the user returns.
type Handoff struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// Store reads and writes preferences for one Redis database.
type Store struct {
	rdb        *redis.Client
	handoffTTL time.Duration
}

// New creates a Store. A non-positive handoffTTL falls back to the
// default.
func New(rdb *redis.Client, handoffTTL time.Duration) *Store {
	if handoffTTL <= 0 {
		handoffTTL = defaultHandoffTTL
	}
	return &Store{rdb: rdb, handoffTTL: handoffTTL}
}

func themeKey(userID string) string   { return "theme:" + userID }
func handoffKey(userID string) string { return "handoff:" + userID }

// Theme returns the user's colour theme, or the empty string when none
// has been saved. Callers fall back to the profile document's copy and
// then to light, so a flushed Redis does not lose a chosen theme.
func (s *Store) Theme(ctx context.Context, userID string) (string, error) {
	val, err := s.rdb.Get(ctx, themeKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("prefs: get theme: %w", err)
	}
	return val, nil
}

// SetTheme saves the user's colour theme. Themes have no expiry.
func (s *Store) SetTheme(ctx context.Context, userID, theme string) error {
	if err := s.rdb.Set(ctx, themeKey(userID), theme, 0).Err(); err != nil {
		return fmt.Errorf("prefs: set theme: %w", err)
	}
	return nil
}

// StageHandoff records the identity to restore after a federated sign-in
// redirect. The entry expires on its own if the user never returns.
func (s *Store) StageHandoff(ctx context.Context, h Handoff) error {
	payload, err := sonic.ConfigStd.Marshal(h)
	if err != nil {
		return fmt.Errorf("prefs: stage handoff: %w", err)
	}
	if err := s.rdb.Set(ctx, handoffKey(h.UserID), payload, s.handoffTTL).Err(); err != nil {
		return fmt.Errorf("prefs: stage handoff: %w", err)
	}
	return nil
}

// TakeHandoff consumes the staged handoff for the user. The read and the
// removal are one Redis operation, so a handoff can be taken at most
// once.
func (s *Store) TakeHandoff(ctx context.Context, userID string) (Handoff, error) {
	val, err := s.rdb.GetDel(ctx, handoffKey(userID)).Result()
	if err == redis.Nil {
		return Handoff{}, ErrNoHandoff
	}
	if err != nil {
		return Handoff{}, fmt.Errorf("prefs: take handoff: %w", err)
	}
	var h Handoff
	if err := sonic.ConfigStd.Unmarshal([]byte(val), &h); err != nil {
		return Handoff{}, fmt.Errorf("prefs: take handoff: %w", err)
	}
	return h, nil
}
