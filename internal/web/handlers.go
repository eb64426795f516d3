package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hpungsan/callscribe/internal/errors"
	"github.com/hpungsan/callscribe/internal/inference"
	"github.com/hpungsan/callscribe/internal/ingest"
	"github.com/hpungsan/callscribe/internal/logger"
	"github.com/hpungsan/callscribe/internal/ops"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	db       *sql.DB
	guard    *inference.Guard
	ingestor *ingest.Ingestor
	log      *logger.Logger
}

type createCallRequest struct {
	AudioURL string `json:"audio_url"`
}

// HandleCreateCall handles POST /api/call — ingest, classify and persist a
// call. The response is held open for the full pipeline.
func (h *Handlers) HandleCreateCall(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	var req createCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, log, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	// Once started, the pipeline runs to completion even if the client
	// disconnects; there is no client-initiated abort.
	ctx := context.WithoutCancel(r.Context())
	out, err := ops.CreateCall(ctx, h.db, h.guard, h.ingestor, ops.CreateCallInput{AudioURL: req.AudioURL})
	if err != nil {
		renderError(w, log, err)
		return
	}

	renderJSON(w, http.StatusOK, out)
}

// HandleGetCall handles GET /api/call/{id}. An unknown id answers 202, not
// 404: callers treat it as a call still being processed.
func (h *Handlers) HandleGetCall(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	c, err := ops.GetCall(h.db, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		renderError(w, log, err)
		return
	}

	renderJSON(w, http.StatusOK, c)
}

// HandleListCategories handles GET /api/category.
func (h *Handlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	categories, err := ops.ListCategories(h.db)
	if err != nil {
		renderError(w, log, err)
		return
	}

	renderJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Title  *string   `json:"title"`
	Points *[]string `json:"points"`
}

// HandleCreateCategory handles POST /api/category — insert the category and
// reindex the whole corpus before responding.
func (h *Handlers) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, log, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if req.Title == nil {
		renderError(w, log, errors.NewInvalidRequest("title is required"))
		return
	}

	input := ops.CreateCategoryInput{Title: *req.Title}
	if req.Points != nil {
		input.Points = *req.Points
	}

	// The reindex scan survives a client disconnect.
	category, err := ops.CreateCategory(context.WithoutCancel(r.Context()), h.db, h.guard, input)
	if err != nil {
		renderError(w, log, err)
		return
	}

	renderJSON(w, http.StatusOK, category)
}

// HandleUpdateCategory handles PUT /api/category/{id} — partial update, then
// reindex with the pre-update title.
func (h *Handlers) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	id, err := parseCategoryID(r)
	if err != nil {
		renderError(w, log, err)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, log, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	category, err := ops.UpdateCategory(context.WithoutCancel(r.Context()), h.db, h.guard, id,
		ops.UpdateCategoryInput{Title: req.Title, Points: req.Points})
	if err != nil {
		// Updating an unknown id answers 422: only delete surfaces 404.
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.ErrNotFound {
			appErr.Status = http.StatusUnprocessableEntity
		}
		renderError(w, log, err)
		return
	}

	renderJSON(w, http.StatusOK, category)
}

// HandleDeleteCategory handles DELETE /api/category/{id} — drop the category
// and strip its title from every call.
func (h *Handlers) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	id, err := parseCategoryID(r)
	if err != nil {
		renderError(w, log, err)
		return
	}

	out, err := ops.DeleteCategory(h.db, id)
	if err != nil {
		renderError(w, log, err)
		return
	}

	renderJSON(w, http.StatusOK, out)
}

// HandleHealthz handles GET /healthz.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func parseCategoryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest("category id must be an integer")
	}
	return id, nil
}
