package domain

import "errors"

var (
	// ErrNotFound marks an absent board, task or user.
	ErrNotFound = errors.New("not found")
	// ErrNotOwner is returned when a mutation is restricted to the board
	// owner and the requester is somebody else.
	ErrNotOwner = errors.New("requester is not the board owner")
	// ErrAlreadyMember is returned by join when the requester is the owner
	// or already in the shared set; nothing is changed.
	ErrAlreadyMember = errors.New("requester already has access to the board")
)
