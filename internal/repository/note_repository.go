package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"collabnotes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type NoteRepository interface {
	Create(note *domain.Note) error
	FindByID(id string) (*domain.Note, error)
	List(search string) ([]*domain.Note, error)
	AppendVersion(noteID string, version *domain.NoteVersion) (*domain.NoteVersion, error)
	Delete(id string) error
}

// maxConflictRetries bounds the recompute loop when concurrent writers race
// on the same note document.
const maxConflictRetries = 5

type noteRepository struct {
	client *kivik.Client
	dbName string
}

func NewNoteRepository(client *kivik.Client, dbName string) NoteRepository {
	return &noteRepository{
		client: client,
		dbName: dbName,
	}
}

// noteDoc carries the CouchDB revision alongside the note. A note and its
// versions live in a single document, so deletes are atomic and version
// appends serialize on the document revision.
type noteDoc struct {
	Rev string `json:"_rev,omitempty"`
	domain.Note
}

func noteDocID(id string) string {
	return fmt.Sprintf("collab-note:%s", id)
}

func (r *noteRepository) Create(note *domain.Note) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(context.Background(), noteDocID(note.ID), note)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *noteRepository) FindByID(id string) (*domain.Note, error) {
	doc, err := r.fetch(id)
	if err != nil {
		return nil, err
	}
	return &doc.Note, nil
}

func (r *noteRepository) fetch(id string) (*noteDoc, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), noteDocID(id))

	var doc noteDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	return &doc, nil
}

func (r *noteRepository) List(search string) ([]*domain.Note, error) {
	db := r.client.DB(r.dbName)

	// Only note documents carry a versions field.
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"versions": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	search = strings.ToLower(strings.TrimSpace(search))

	var notes []*domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.ScanDoc(&note); err != nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(note.Title), search) {
			continue
		}
		notes = append(notes, &note)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	return notes, nil
}

// AppendVersion appends a new version to the note, assigning the next
// version number by recounting inside the update. A revision conflict means
// another writer committed first; the loop refetches and recomputes so the
// numbers stay contiguous regardless of who wins.
func (r *noteRepository) AppendVersion(noteID string, version *domain.NoteVersion) (*domain.NoteVersion, error) {
	db := r.client.DB(r.dbName)

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		doc, err := r.fetch(noteID)
		if err != nil {
			return nil, err
		}

		appended := *version
		appended.NoteID = noteID
		appended.Version = len(doc.Versions) + 1

		doc.Versions = append(doc.Versions, &appended)
		if !doc.HasCollaborator(appended.CreatedBy) {
			doc.Collaborators = append(doc.Collaborators, appended.CreatedBy)
		}
		doc.ModifiedAt = time.Now()
		doc.ModifiedBy = appended.CreatedBy

		_, err = db.Put(context.Background(), noteDocID(noteID), doc)
		if err == nil {
			return &appended, nil
		}
		if kivik.HTTPStatus(err) == http.StatusConflict {
			continue
		}
		return nil, fmt.Errorf("failed to append version: %w", err)
	}

	return nil, errors.New("failed to append version: too many write conflicts")
}

// Delete removes the note document, taking its versions with it. A revision
// conflict triggers a refetch of the current revision.
func (r *noteRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		doc, err := r.fetch(id)
		if err != nil {
			return err
		}

		_, err = db.Delete(context.Background(), noteDocID(id), doc.Rev)
		if err == nil {
			return nil
		}
		if kivik.HTTPStatus(err) == http.StatusConflict {
			continue
		}
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return domain.ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return errors.New("failed to delete note: too many write conflicts")
}
