package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"collabnotes-server/internal/domain"
	"collabnotes-server/internal/middleware"
	"collabnotes-server/internal/service"
	"collabnotes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type NoteHandler struct {
	service  *service.NoteService
	validate *validator.Validate
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	note, err := h.service.Create(middleware.GetUserID(r), &req)
	if err != nil {
		response.InternalError(w, "Failed to create note")
		return
	}

	response.Created(w, map[string]string{"id": note.ID})
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(r.URL.Query().Get("search"))
	if err != nil {
		response.InternalError(w, "Failed to list notes")
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	note, err := h.service.GetByID(noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			response.NotFound(w, "Collab note not found")
			return
		}
		response.InternalError(w, "Failed to get note")
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	if err := h.service.Delete(noteID); err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			response.NotFound(w, "Collab note not found")
			return
		}
		response.InternalError(w, "Failed to delete note")
		return
	}

	response.NoContent(w)
}

func (h *NoteHandler) EditVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	noteID := vars["note_id"]
	versionID := vars["version_id"]

	var req domain.EditVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	result, err := h.service.EditVersion(middleware.GetUserID(r), noteID, versionID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBlankContent):
			response.BadRequest(w, "Content is required.")
		case errors.Is(err, domain.ErrNoteNotFound), errors.Is(err, domain.ErrVersionNotFound):
			response.NotFound(w, "Collab note or version not found")
		default:
			response.InternalError(w, "Failed to edit version")
		}
		return
	}

	response.Success(w, map[string]string{"id": result.Version.ID})
}
