package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/noteservice"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. Granola%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Sync handles POST /api/sync.
//
//	@Summary		Run a sync pass now
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncResponse
//	@Failure		412	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SyncNow(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNoToken):
			writeJSON(w, http.StatusPreconditionFailed, errorBody("no access token available"))
		case errors.Is(err, apperr.ErrFetch):
			writeJSON(w, http.StatusBadGateway, errorBody("failed to fetch documents"))
		default:
			slog.Error("sync failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, newSyncResponse(res))
}

// SyncStatus handles GET /api/sync/status.
//
//	@Summary		Current sync state and last recorded run
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncStatus
//	@Security		BearerAuth
//	@Router			/sync/status [get]
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		slog.Error("sync status failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SyncRuns handles GET /api/sync/runs.
func (h *Handler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Current sync settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	settings.Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

// PutSettings handles PUT /api/settings. The body replaces all settings;
// changing syncDirectory moves already synced notes.
//
//	@Summary		Replace sync settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		settings.Settings	true	"New settings"
//	@Success		200		{object}	settings.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	next := h.svc.Settings()
	if !decodeJSON(w, r, &next) {
		return
	}
	updated, err := h.svc.ReplaceSettings(next)
	if err != nil {
		h.settingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// PutCustomProperty handles PUT /api/settings/custom-properties.
//
//	@Summary		Add or update a custom metadata property
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CustomPropertyRequest	true	"Property"
//	@Success		200		{object}	settings.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/custom-properties [put]
func (h *Handler) PutCustomProperty(w http.ResponseWriter, r *http.Request) {
	var req CustomPropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	updated, err := h.svc.SetCustomProperty(req.Name, req.Value)
	if err != nil {
		h.settingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteCustomProperty handles DELETE /api/settings/custom-properties/{name}.
//
//	@Summary		Remove a custom metadata property
//	@Tags			settings
//	@Param			name	path		string	true	"Property name"
//	@Success		200		{object}	settings.Settings
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/custom-properties/{name} [delete]
func (h *Handler) DeleteCustomProperty(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	updated, err := h.svc.RemoveCustomProperty(name)
	if err != nil {
		h.settingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) settingsError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorBody(verrs.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error("settings update failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List synced documents
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []DocumentItem{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// Preview handles POST /api/preview. The body is one raw document object.
//
//	@Summary		Render a document without writing it
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	noteservice.Preview
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	p, err := h.svc.Preview(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("body must be a JSON object"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across synced notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Read a synced note by vault path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}
