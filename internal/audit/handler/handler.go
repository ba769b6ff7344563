// Package handler exposes the audit log query endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartdoor/internal/audit"
	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
	"smartdoor/pkg/platform/httputil"
	"smartdoor/pkg/requestcontext"
)

// Log defines the interface for audit queries.
type Log interface {
	Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
}

// Handler wires the audit endpoint to the audit log.
type Handler struct {
	log    Log
	logger *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(log Log, logger *slog.Logger) *Handler {
	return &Handler{
		log:    log,
		logger: logger,
	}
}

// Register mounts the audit endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/door/logs", h.HandleQuery)
}

// HandleQuery handles GET /door/logs requests. door_id and actor query
// parameters narrow the result; both are optional.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.log.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit log"))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	h.logger.InfoContext(ctx, "audit log queried",
		"request_id", requestID,
		"subject_id", requestcontext.SubjectID(ctx),
		"entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, queryResponse{
		Success: true,
		Data:    entries,
	})
}

type queryResponse struct {
	Success bool          `json:"success"`
	Data    []audit.Entry `json:"data"`
}

func parseFilter(r *http.Request) (audit.Filter, error) {
	var filter audit.Filter

	if raw := r.URL.Query().Get("door_id"); raw != "" {
		doorID, err := id.ParseDoorID(raw)
		if err != nil {
			return audit.Filter{}, err
		}
		filter.DoorID = &doorID
	}
	if raw := r.URL.Query().Get("actor"); raw != "" {
		actor, err := id.ParseSubjectID(raw)
		if err != nil {
			return audit.Filter{}, err
		}
		filter.Actor = &actor
	}
	return filter, nil
}
