package domain

import (
	"sort"
	"time"
)

// TimestampFormat is the display format used by note list and detail
// responses, e.g. "Jan 01, 2021 12:00 PM".
const TimestampFormat = "Jan 02, 2006 03:04 PM"

type Note struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	IsDeleted     bool           `json:"is_deleted"`
	Collaborators []string       `json:"collaborators"`
	Versions      []*NoteVersion `json:"versions"`
	CreatedAt     time.Time      `json:"created_at"`
	ModifiedAt    time.Time      `json:"modified_at"`
	CreatedBy     string         `json:"created_by"`
	ModifiedBy    string         `json:"modified_by"`
}

// LatestVersion returns the version with the highest number, or nil for a
// note without versions.
func (n *Note) LatestVersion() *NoteVersion {
	var latest *NoteVersion
	for _, v := range n.Versions {
		if latest == nil || v.Version > latest.Version {
			latest = v
		}
	}
	return latest
}

// VersionByID looks up one of the note's versions by its id.
func (n *Note) VersionByID(versionID string) *NoteVersion {
	for _, v := range n.Versions {
		if v.ID == versionID {
			return v
		}
	}
	return nil
}

// HasCollaborator reports whether userID is already in the collaborator set.
func (n *Note) HasCollaborator(userID string) bool {
	for _, id := range n.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// VersionsNewestFirst returns the versions sorted by version number
// descending, the order detail responses use.
func (n *Note) VersionsNewestFirst() []*NoteVersion {
	sorted := make([]*NoteVersion, len(n.Versions))
	copy(sorted, n.Versions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version > sorted[j].Version
	})
	return sorted
}

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=255"`
	Content []string `json:"content" validate:"required,min=1"`
}

type EditVersionRequest struct {
	Content string `json:"content" validate:"required"`
}

type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// NoteSummary is the list-view shape; Content carries the latest version's
// content so the list can render previews without a second request.
type NoteSummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	CreatedAt string       `json:"created_at"`
	CreatedBy *UserSummary `json:"created_by"`
	Content   string       `json:"content"`
}

type VersionResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Version int    `json:"version"`
}

type NoteDetailResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Versions      []*VersionResponse `json:"versions"`
	CreatedAt     string             `json:"created_at"`
	ModifiedAt    string             `json:"modified_at"`
	CreatedBy     *UserSummary       `json:"created_by"`
	ModifiedBy    *UserSummary       `json:"modified_by"`
	Collaborators []*UserSummary     `json:"collaborators"`
}
