package goSession

import (
	"context"
	"errors"
	"io"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/store"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventRegisterSuccess = "register_success"
	auditEventRegisterFailure = "register_failure"
	auditEventLogout          = "logout"
	auditEventForcedLogout    = "forced_logout"
	auditEventIdentityUpdated = "identity_updated"
	auditEventRefresh         = "refresh"
	auditEventStorageFailure  = "storage_failure"
)

const (
	auditErrValidation         = "validation"
	auditErrEndpoint           = "endpoint_rejected"
	auditErrTransport          = "transport"
	auditErrStorage            = "storage"
	auditErrBackendUnavailable = "backend_unavailable"
	auditErrNoCredential       = "no_credential"
	auditErrInternal           = "internal"
)

// AuditEvent is one session lifecycle record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink delivers events on a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogSink writes every event to logger at info level.
func NewLogSink(logger Logger) AuditSink {
	return internalaudit.SinkFunc(func(ctx context.Context, ev AuditEvent) {
		logger.Info(ctx, "audit",
			"event_id", ev.ID,
			"event", ev.EventType,
			"user_id", ev.UserID,
			"request_id", ev.RequestID,
			"reason", ev.Reason,
			"success", ev.Success,
			"error", ev.Error,
		)
	})
}

// AuditDropped returns the number of events dropped by backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, userID string, reason Reason, err error, metadata map[string]string) {
	if m == nil || m.audit == nil {
		return
	}
	ev := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		RequestID: RequestIDFromContext(ctx),
		Reason:    string(reason),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		ev.Error = auditErrorCode(err)
	}
	m.audit.Emit(ctx, ev)
}

func auditErrorCode(err error) string {
	var endpointErr *EndpointError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.As(err, &endpointErr):
		return auditErrEndpoint
	case errors.Is(err, ErrEmptyCredential), errors.Is(err, ErrNoSession):
		return auditErrNoCredential
	case errors.Is(err, store.ErrBackendUnavailable):
		return auditErrBackendUnavailable
	case errors.Is(err, ErrStorage),
		errors.Is(err, store.ErrCredentialTooLarge):
		return auditErrStorage
	case errors.Is(err, ErrTransport):
		return auditErrTransport
	default:
		return auditErrInternal
	}
}
