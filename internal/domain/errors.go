package domain

import "errors"

var (
	ErrNoteNotFound    = errors.New("collab note not found")
	ErrVersionNotFound = errors.New("collab note version not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrBlankContent rejects edits whose content is empty after trimming.
	ErrBlankContent = errors.New("content is required")
)
