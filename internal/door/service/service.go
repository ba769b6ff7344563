// Package service implements the command processor: it validates the
// credential, authorizes the subject, checks device health, applies the lock
// transition, and records the audit entry, in that order. Each step is a
// possible termination point.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"smartdoor/internal/audit"
	"smartdoor/internal/door/metrics"
	"smartdoor/internal/door/models"
	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
	"smartdoor/pkg/platform/sentinel"
	"smartdoor/pkg/requestcontext"
)

// CredentialVerifier validates a bearer credential and extracts its subject.
// Injected so signing-key rotation and alternate issuers stay representable.
type CredentialVerifier interface {
	SubjectFromToken(tokenString string) (id.SubjectID, error)
}

// AccessResolver answers authorization questions for the command pipeline.
type AccessResolver interface {
	ResolveAccessibleDoors(ctx context.Context, subjectID id.SubjectID) ([]models.AccessibleDoor, error)
	Authorize(ctx context.Context, subjectID id.SubjectID, doorID id.DoorID) (bool, error)
}

// DoorRegistry is the slice of the registry the processor needs.
type DoorRegistry interface {
	Get(ctx context.Context, doorID id.DoorID) (*models.Door, error)
	ApplyTransition(ctx context.Context, doorID id.DoorID, action models.Action, now time.Time) (*models.Door, error)
}

// AuditAppender records executed commands.
type AuditAppender interface {
	Append(ctx context.Context, entry audit.Entry) error
}

// Service is the door command processor.
type Service struct {
	verifier CredentialVerifier
	resolver AccessResolver
	registry DoorRegistry
	auditLog AuditAppender
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the command processor.
func New(verifier CredentialVerifier, resolver AccessResolver, registry DoorRegistry, auditLog AuditAppender, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, fmt.Errorf("credential verifier is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("access resolver is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("door registry is required")
	}
	if auditLog == nil {
		return nil, fmt.Errorf("audit log is required")
	}

	s := &Service{
		verifier: verifier,
		resolver: resolver,
		registry: registry,
		auditLog: auditLog,
		logger:   slog.Default(),
		tracer:   otel.Tracer("smartdoor/door"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessibleDoors validates the credential and resolves the doors its subject
// may operate.
func (s *Service) AccessibleDoors(ctx context.Context, rawToken string) ([]models.AccessibleDoor, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveResolveLatency(time.Since(start)) }()

	subjectID, err := s.verifier.SubjectFromToken(rawToken)
	if err != nil {
		return nil, err
	}
	return s.resolver.ResolveAccessibleDoors(ctx, subjectID)
}

// Execute runs a control command through the full pipeline. On success the
// returned result carries the updated door state; on failure the error carries
// a stable code for the caller to render.
func (s *Service) Execute(ctx context.Context, rawToken string, doorID id.DoorID, rawAction string) (*models.CommandResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "door.Execute",
		trace.WithAttributes(attribute.String("door.id", doorID.String())))
	defer span.End()

	result, err := s.execute(ctx, rawToken, doorID, rawAction)
	s.metrics.ObserveCommandLatency(time.Since(start))
	if err != nil {
		code := dErrors.CodeOf(err)
		span.SetAttributes(attribute.String("door.result", string(code)))
		s.metrics.IncrementOutcome(rawAction, string(code))
		return nil, err
	}
	span.SetAttributes(attribute.String("door.result", "SUCCESS"))
	s.metrics.IncrementOutcome(string(result.Action), "SUCCESS")
	return result, nil
}

func (s *Service) execute(ctx context.Context, rawToken string, doorID id.DoorID, rawAction string) (*models.CommandResult, error) {
	// Step 1: credential. Failures terminate before a subject is known, so
	// they produce no audit entry.
	subjectID, err := s.verifier.SubjectFromToken(rawToken)
	if err != nil {
		return nil, err
	}

	// Step 2: normalize the action to the canonical vocabulary.
	action, err := models.ParseAction(rawAction)
	if err != nil {
		return nil, err
	}

	// Step 3: authorization.
	allowed, err := s.resolver.Authorize(ctx, subjectID, doorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.audit(ctx, doorID, subjectID, action, audit.OutcomeDenied, "access denied to this door")
		return nil, dErrors.New(dErrors.CodeAccessDenied, "access denied to this door")
	}

	// Step 4: the door must exist.
	door, err := s.registry.Get(ctx, doorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeDoorNotFound, "door not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load door")
	}

	// Step 5: device health. No transition is attempted against an offline
	// door; the attempt itself is still recorded.
	if !door.Online() {
		s.audit(ctx, doorID, subjectID, action, audit.OutcomeDeviceError, "door is offline (battery depleted)")
		return nil, dErrors.New(dErrors.CodeDoorOffline, "door is offline (battery depleted)")
	}

	// Steps 6-7: transition and audit. Once the transition starts it runs to
	// completion and produces exactly one audit entry, even if the caller
	// goes away.
	ctx = context.WithoutCancel(ctx)
	now := requestcontext.Now(ctx).UTC()

	updated, err := s.registry.ApplyTransition(ctx, doorID, action, now)
	if err != nil {
		s.audit(ctx, doorID, subjectID, action, audit.OutcomeDeviceError, "failed to update door state")
		s.logger.ErrorContext(ctx, "door transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"door_id", doorID,
			"action", action,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUpdateFailed, "failed to update door state")
	}

	message := "Door locked successfully"
	if action == models.ActionUnlock {
		message = "Door opened successfully"
	}
	s.audit(ctx, doorID, subjectID, action, audit.OutcomeSuccess, message)

	s.logger.InfoContext(ctx, "door command executed",
		"request_id", requestcontext.RequestID(ctx),
		"door_id", doorID,
		"subject_id", subjectID,
		"action", action,
		"locked", updated.Locked,
	)

	return &models.CommandResult{
		DoorID:    doorID,
		Action:    action,
		Timestamp: now,
		Message:   message,
		Door:      updated,
	}, nil
}

// audit appends an entry; a failing audit write is logged but never masks the
// command outcome already decided.
func (s *Service) audit(ctx context.Context, doorID id.DoorID, actor id.SubjectID, action models.Action, outcome audit.Outcome, message string) {
	entry := audit.Entry{
		DoorID:  doorID,
		Actor:   actor,
		Action:  action,
		Outcome: outcome,
		Device:  requestcontext.Device(ctx),
		Message: message,
	}
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit entry",
			"request_id", requestcontext.RequestID(ctx),
			"door_id", doorID,
			"outcome", outcome,
			"error", err,
		)
	}
}
