package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/model"
	notesync "github.com/dukerupert/notesync/internal/sync"
	"github.com/dukerupert/notesync/internal/websocket"
)

type NoteHandler struct {
	engine *notesync.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewNoteHandler(engine *notesync.Engine, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{engine: engine, hub: hub, logger: logger}
}

func (h *NoteHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type noteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// List answers GET /api/notes?q=&category= with a one-shot query.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	f := cache.Filter{Search: r.URL.Query().Get("q")}
	if cat := r.URL.Query().Get("category"); cat != "" {
		f.Category = &cat
	}

	notes, err := h.engine.Notes(f)
	if err != nil {
		h.logger.Error("list notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.Note(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get note")
		return
	}
	if n == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	n, err := h.engine.AddNote(r.Context(), req.Title, req.Content, req.Category)
	if err != nil {
		if status := errorStatus(err); status != http.StatusInternalServerError {
			writeError(w, status, err.Error())
			return
		}
		h.logger.Error("create note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	h.broadcast(websocket.NoteMessage("created", n.ID))
	writeJSON(w, http.StatusCreated, n)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.engine.Note(id)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get note")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	n, err := h.engine.UpdateNote(r.Context(), id, req.Title, req.Content, req.Category)
	if err != nil {
		if status := errorStatus(err); status != http.StatusInternalServerError {
			writeError(w, status, err.Error())
			return
		}
		h.logger.Error("update note", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update note")
		return
	}
	if n == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	h.broadcast(websocket.NoteMessage("updated", id))
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.engine.Note(id)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get note")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	if err := h.engine.DeleteNote(r.Context(), *existing); err != nil {
		h.logger.Error("delete note", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}

	h.broadcast(websocket.NoteMessage("deleted", id))
	w.WriteHeader(http.StatusNoContent)
}
