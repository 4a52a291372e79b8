package domain

import "time"

// User is the profile stored for an authenticated account. The identifier is
// issued by the identity provider; the application never deletes users.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Theme string `json:"theme"`
}

// Board is a named task container with exactly one owner and an optional set
// of members who joined via access code. References to users are plain
// identifiers; deleting a board never touches the users it references.
type Board struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	AccessCode  string    `json:"accessCode,omitempty"`
	SharedWith  []string  `json:"sharedWith,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether userID is in the shared set. The owner is not a
// member.
func (b Board) HasMember(userID string) bool {
	for _, id := range b.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// BoardPatch carries a partial board update. Nil fields are left untouched.
type BoardPatch struct {
	Title       *string
	Description *string
	AccessCode  *string
	SharedWith  *[]string
}

// Merge returns b with the set patch fields applied.
func (b Board) Merge(p BoardPatch) Board {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.AccessCode != nil {
		b.AccessCode = *p.AccessCode
	}
	if p.SharedWith != nil {
		b.SharedWith = append([]string(nil), (*p.SharedWith)...)
	}
	return b
}
