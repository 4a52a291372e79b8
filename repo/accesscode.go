package repo

import (
	"context"
	"errors"

	"taskboard-api/domain"
)

const (
	accessCodeLength   = 6
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func (r *Boards) randomCode() string {
	buf := make([]byte, accessCodeLength)
	for i := range buf {
		buf[i] = accessCodeAlphabet[r.randInt(len(accessCodeAlphabet))]
	}
	return string(buf)
}

// GenerateUniqueAccessCode samples codes until one is unused, retrying on
// collision without bound. Uniqueness holds at check time only: two
// generators running concurrently can both observe the same code as free.
func (r *Boards) GenerateUniqueAccessCode(ctx context.Context) (string, error) {
	for {
		code := r.randomCode()
		_, err := r.store.BoardByAccessCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		r.log.WithField("code", code).Debug("boards: access code collision, retrying")
	}
}

// EnsureAccessCode returns the board's access code, generating and
// persisting one on first use.
func (r *Boards) EnsureAccessCode(ctx context.Context, boardID string) (string, error) {
	b, err := r.store.GetBoard(ctx, boardID)
	if err != nil {
		return "", err
	}
	if b.AccessCode != "" {
		return b.AccessCode, nil
	}
	code, err := r.GenerateUniqueAccessCode(ctx)
	if err != nil {
		return "", err
	}
	if err := r.store.MergeBoard(ctx, boardID, domain.BoardPatch{AccessCode: &code}); err != nil {
		return "", err
	}
	return code, nil
}
