package service

import (
	"log"
	"strings"
	"time"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/registry"
	"collabnotes-server/internal/repository"
	"collabnotes-server/internal/websocket"

	"github.com/google/uuid"
)

// EditResult is the outcome of a version edit: either the edit matched the
// target version's content exactly and nothing changed (Created false), or a
// new version was appended (Created true). Both outcomes are terminal.
type EditResult struct {
	Version *domain.NoteVersion
	Created bool
}

type NoteService struct {
	repo     repository.NoteRepository
	userRepo repository.UserRepository
	registry registry.Registry
}

func NewNoteService(repo repository.NoteRepository, userRepo repository.UserRepository, reg registry.Registry) *NoteService {
	return &NoteService{
		repo:     repo,
		userRepo: userRepo,
		registry: reg,
	}
}

// Create makes a note owned by userID, with one version per content string
// numbered from 1, and the creator as the only collaborator. The note_created
// event goes out to the list topic after the write commits.
func (s *NoteService) Create(userID string, req *domain.CreateNoteRequest) (*domain.Note, error) {
	now := time.Now()

	note := &domain.Note{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Collaborators: []string{userID},
		CreatedAt:     now,
		ModifiedAt:    now,
		CreatedBy:     userID,
		ModifiedBy:    userID,
	}

	for i, content := range req.Content {
		note.Versions = append(note.Versions, &domain.NoteVersion{
			ID:        uuid.New().String(),
			NoteID:    note.ID,
			Content:   content,
			Version:   i + 1,
			CreatedAt: now,
			CreatedBy: userID,
		})
	}

	if err := s.repo.Create(note); err != nil {
		return nil, err
	}

	if payload, err := websocket.EncodeNoteCreated(s.summary(note)); err == nil {
		if err := s.registry.Broadcast(registry.AllNotesTopic, payload); err != nil {
			log.Printf("note_created broadcast failed: %v", err)
		}
	}

	return note, nil
}

func (s *NoteService) List(search string) ([]*domain.NoteSummary, error) {
	notes, err := s.repo.List(search)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.NoteSummary, 0, len(notes))
	for _, n := range notes {
		summaries = append(summaries, s.summary(n))
	}

	return summaries, nil
}

func (s *NoteService) GetByID(noteID string) (*domain.NoteDetailResponse, error) {
	note, err := s.repo.FindByID(noteID)
	if err != nil {
		return nil, err
	}

	detail := &domain.NoteDetailResponse{
		ID:            note.ID,
		Title:         note.Title,
		CreatedAt:     note.CreatedAt.Format(domain.TimestampFormat),
		ModifiedAt:    note.ModifiedAt.Format(domain.TimestampFormat),
		CreatedBy:     s.userSummary(note.CreatedBy),
		ModifiedBy:    s.userSummary(note.ModifiedBy),
		Collaborators: make([]*domain.UserSummary, 0, len(note.Collaborators)),
		Versions:      make([]*domain.VersionResponse, 0, len(note.Versions)),
	}

	for _, v := range note.VersionsNewestFirst() {
		detail.Versions = append(detail.Versions, &domain.VersionResponse{
			ID:      v.ID,
			Content: v.Content,
			Version: v.Version,
		})
	}

	for _, id := range note.Collaborators {
		if summary := s.userSummary(id); summary != nil {
			detail.Collaborators = append(detail.Collaborators, summary)
		}
	}

	return detail, nil
}

// Delete removes the note and all its versions in one step, then announces
// note_deleted on the list topic.
func (s *NoteService) Delete(noteID string) error {
	if err := s.repo.Delete(noteID); err != nil {
		return err
	}

	if payload, err := websocket.EncodeNoteDeleted(noteID); err == nil {
		if err := s.registry.Broadcast(registry.AllNotesTopic, payload); err != nil {
			log.Printf("note_deleted broadcast failed: %v", err)
		}
	}

	return nil
}

// EditVersion is the persisted edit path. Blank content is rejected; content
// identical to the target version is a no-op that leaves the note untouched.
// Otherwise a new version is appended (number assigned at commit time) and
// the editor joins the collaborator set. No broadcast happens here: live
// updates travel over the ephemeral edit channel only.
func (s *NoteService) EditVersion(userID, noteID, versionID, content string) (*EditResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrBlankContent
	}

	note, err := s.repo.FindByID(noteID)
	if err != nil {
		return nil, err
	}

	target := note.VersionByID(versionID)
	if target == nil {
		return nil, domain.ErrVersionNotFound
	}

	if target.Content == content {
		return &EditResult{Version: target, Created: false}, nil
	}

	appended, err := s.repo.AppendVersion(noteID, &domain.NoteVersion{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: time.Now(),
		CreatedBy: userID,
	})
	if err != nil {
		return nil, err
	}

	return &EditResult{Version: appended, Created: true}, nil
}

func (s *NoteService) summary(note *domain.Note) *domain.NoteSummary {
	content := ""
	if latest := note.LatestVersion(); latest != nil {
		content = latest.Content
	}

	return &domain.NoteSummary{
		ID:        note.ID,
		Title:     note.Title,
		CreatedAt: note.CreatedAt.Format(domain.TimestampFormat),
		CreatedBy: s.userSummary(note.CreatedBy),
		Content:   content,
	}
}

// userSummary resolves a user id to its display summary; nil when the id is
// empty or the user is gone.
func (s *NoteService) userSummary(id string) *domain.UserSummary {
	if id == "" {
		return nil
	}
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil
	}
	return user.Summary()
}
