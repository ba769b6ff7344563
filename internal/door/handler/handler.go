// Package handler exposes the door endpoints consumed by the mobile client.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
	"smartdoor/pkg/platform/httputil"
	"smartdoor/pkg/requestcontext"
)

// Service defines the interface for door operations.
type Service interface {
	AccessibleDoors(ctx context.Context, rawToken string) ([]models.AccessibleDoor, error)
	Execute(ctx context.Context, rawToken string, doorID id.DoorID, rawAction string) (*models.CommandResult, error)
}

// Handler wires door endpoints to the command processor.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a door handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts door endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/door/status", h.HandleStatus)
	r.Post("/door/control", h.HandleControl)
}

// HandleStatus handles GET /door/status requests.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	doors, err := h.service.AccessibleDoors(ctx, bearerToken(r))
	if err != nil {
		h.logger.WarnContext(ctx, "door status rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "door status resolved",
		"request_id", requestID,
		"subject_id", requestcontext.SubjectID(ctx),
		"doors", len(doors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromAccessibleDoors(doors))
}

// HandleControl handles POST /door/control requests.
func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[ControlRequest](w, r, h.logger)
	if !ok {
		return
	}

	doorID, err := req.ParsedDoorID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Execute(ctx, bearerToken(r), doorID, req.Action)
	if err != nil {
		h.logger.WarnContext(ctx, "door control rejected",
			"request_id", requestID,
			"door_id", req.DoorID,
			"action", req.Action,
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "door control executed",
		"request_id", requestID,
		"subject_id", requestcontext.SubjectID(ctx),
		"door_id", result.DoorID,
		"action", result.Action,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromCommandResult(result))
}

// bearerToken extracts the raw credential from the Authorization header. The
// command processor re-validates it; the handler never trusts it.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
