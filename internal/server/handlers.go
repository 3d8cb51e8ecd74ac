// Package server provides the localhost REST API for the prompt
// collection. Handlers receive and return plain data objects; storage
// types never cross the boundary.
package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kimhsiao/promptstash/internal/errors"
	"github.com/kimhsiao/promptstash/internal/export"
	"github.com/kimhsiao/promptstash/internal/logging"
)

// PromptHandler handles prompt collection operations.
type PromptHandler struct {
	srv *Server
}

// NewPromptHandler creates a new PromptHandler.
func NewPromptHandler(srv *Server) *PromptHandler {
	return &PromptHandler{srv: srv}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// ListPrompts handles GET /prompts
func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	tag := r.URL.Query().Get("tag")

	h.srv.mu.Lock()
	h.srv.controller.SetSearch(search)
	h.srv.controller.SetTag(tag)
	items := h.srv.controller.Visible()
	h.srv.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prompts": items,
		"total":   len(items),
	})
}

// GetPrompt handles GET /prompts/{id}
func (h *PromptHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.srv.mu.Lock()
	item, ok := h.srv.controller.Get(id)
	h.srv.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, h.srv.printer.Message("prompt.not_found"))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CreatePrompt handles POST /prompts
func (h *PromptHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if request.Title == "" || request.Content == "" {
		writeError(w, http.StatusBadRequest, h.srv.printer.Message("prompt.invalid"))
		return
	}

	h.srv.mu.Lock()
	created, err := h.srv.controller.Add(r.Context(), request.Title, request.Content, request.Tags)
	h.srv.mu.Unlock()

	if err != nil {
		logging.ErrorWithCode("Create prompt failed", string(apperrors.CodeOf(err)), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.srv.hub.BroadcastPromptCreated(created.ID)
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePrompt handles PUT /prompts/{id}
func (h *PromptHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var request struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if request.Title == "" || request.Content == "" {
		writeError(w, http.StatusBadRequest, h.srv.printer.Message("prompt.invalid"))
		return
	}

	h.srv.mu.Lock()
	existing, ok := h.srv.controller.Get(id)
	if !ok {
		h.srv.mu.Unlock()
		writeError(w, http.StatusNotFound, h.srv.printer.Message("prompt.not_found"))
		return
	}
	existing.Title = request.Title
	existing.Content = request.Content
	if request.Tags != nil {
		existing.Tags = request.Tags
	}
	err := h.srv.controller.Edit(r.Context(), existing)
	updated, _ := h.srv.controller.Get(id)
	h.srv.mu.Unlock()

	if err != nil {
		logging.ErrorWithCode("Update prompt failed", string(apperrors.CodeOf(err)), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.srv.hub.BroadcastPromptUpdated(id)
	writeJSON(w, http.StatusOK, updated)
}

// DeletePrompt handles DELETE /prompts/{id}
func (h *PromptHandler) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.srv.mu.Lock()
	_, ok := h.srv.controller.Get(id)
	var err error
	if ok {
		err = h.srv.controller.Remove(r.Context(), id)
	}
	h.srv.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, h.srv.printer.Message("prompt.not_found"))
		return
	}
	if err != nil {
		logging.ErrorWithCode("Delete prompt failed", string(apperrors.CodeOf(err)), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.srv.hub.BroadcastPromptDeleted(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ReorderPrompts handles POST /prompts/reorder
func (h *PromptHandler) ReorderPrompts(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ID string `json:"id"`
		To int    `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.srv.mu.Lock()
	_, ok := h.srv.controller.Get(request.ID)
	var err error
	if ok {
		err = h.srv.controller.Move(r.Context(), request.ID, request.To)
	}
	items := h.srv.controller.All()
	h.srv.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, h.srv.printer.Message("prompt.not_found"))
		return
	}
	if err != nil {
		logging.ErrorWithCode("Reorder failed", string(apperrors.CodeOf(err)), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.srv.hub.BroadcastPromptReordered()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prompts": items,
	})
}

// ListTags handles GET /tags
func (h *PromptHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	h.srv.mu.Lock()
	tags := h.srv.controller.Tags()
	h.srv.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tags": tags,
	})
}

// ExportHandler handles export and import of the collection document.
type ExportHandler struct {
	srv *Server
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(srv *Server) *ExportHandler {
	return &ExportHandler{srv: srv}
}

// ExportPrompts handles POST /export. The export document is streamed
// as the response body for the client to save.
func (h *ExportHandler) ExportPrompts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.DefaultExportName(h.srv.now()))

	result, err := h.srv.exporter.Export(r.Context(), w)
	if err != nil {
		// Headers are out; all we can do is log and notify.
		logging.ErrorWithCode("Export failed", string(apperrors.CodeOf(err)), err)
		h.srv.hub.BroadcastExportFailed(string(apperrors.CodeOf(err)))
		return
	}

	h.srv.hub.BroadcastExportCompleted(result.ItemCount, result.SizeBytes)
}

// ImportPrompts handles POST /import. The request body is the export
// document; the outcome is always a 200 with a result object.
func (h *ExportHandler) ImportPrompts(w http.ResponseWriter, r *http.Request) {
	result := h.srv.exporter.Import(r.Context(), r.Body)

	h.srv.mu.Lock()
	h.srv.controller.Refresh(r.Context())
	h.srv.mu.Unlock()

	if result.OK() {
		h.srv.hub.BroadcastImportCompleted(result.Added, result.Skipped)
	} else {
		h.srv.hub.BroadcastImportFailed(string(result.Code))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"added":   result.Added,
		"skipped": result.Skipped,
		"ok":      result.OK(),
		"message": h.srv.importMessage(result),
	})
}

// importMessage formats an import outcome for the configured language.
func (s *Server) importMessage(result *export.ImportResult) string {
	if result.OK() {
		return s.printer.Message(result.MessageKey(), result.Added, result.Skipped)
	}
	return s.printer.Message(result.MessageKey())
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "promptstash",
	})
}
