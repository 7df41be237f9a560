package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/notesync/internal/category"
	"github.com/dukerupert/notesync/internal/model"
	notesync "github.com/dukerupert/notesync/internal/sync"
)

type SyncHandler struct {
	engine     *notesync.Engine
	categories *category.Registry
	logger     *slog.Logger
}

func NewSyncHandler(engine *notesync.Engine, categories *category.Registry, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, categories: categories, logger: logger}
}

type syncResponse struct {
	notesync.Result
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Sync runs a full push/pull cycle. The cycle is detached from the request
// so a client hanging up does not abort it half way.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res := h.engine.SyncAll(context.WithoutCancel(r.Context()))

	resp := syncResponse{Result: res, Status: h.engine.Status()}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		writeJSON(w, errorStatus(res.Err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	Status      string         `json:"status"`
	Dirty       int            `json:"dirty"`
	Identity    model.Identity `json:"identity"`
	DisplayName string         `json:"display_name"`
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	dirty, err := h.engine.DirtyCount(r.Context())
	if err != nil {
		h.logger.Error("count dirty notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read status")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:      h.engine.Status(),
		Dirty:       dirty,
		Identity:    h.engine.Identity(),
		DisplayName: h.engine.DisplayName(),
	})
}

// Ping checks the remote store.
func (h *SyncHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.CheckConnection(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"status": h.engine.Status(), "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": h.engine.Status()})
}

func (h *SyncHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
