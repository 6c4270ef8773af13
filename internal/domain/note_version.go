package domain

import "time"

// NoteVersion is an immutable numbered snapshot of a note's content.
// Versions are only ever appended; an edit either no-ops (identical content)
// or produces a new version with the next number.
type NoteVersion struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"note_id"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}
