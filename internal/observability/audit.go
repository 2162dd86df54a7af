package observability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Audit event types.
const (
	AuditRun      = "run"
	AuditReplay   = "replay"
	AuditPlan     = "plan"
	AuditSchedule = "schedule"
)

// AuditEvent is one line of the report audit trail.
type AuditEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"`   // run id or job name
	Action    string                 `json:"action"`            // e.g. "run:finished", "plan:saved"
	Status    string                 `json:"status"`            // run status, "success" or "failure"
	Subject   string                 `json:"subject,omitempty"` // fund id or plan name
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// AuditLogger appends audit events as JSON lines.
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

var (
	auditMu   sync.RWMutex
	auditInst = &AuditLogger{logger: zerolog.Nop()}
)

// GetAuditLogger returns the global audit logger. It discards events until
// InitAuditLogger is called.
func GetAuditLogger() *AuditLogger {
	auditMu.RLock()
	defer auditMu.RUnlock()
	return auditInst
}

// InitAuditLogger directs audit events to the file at path.
func InitAuditLogger(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	auditMu.Lock()
	prev := auditInst
	auditInst = &AuditLogger{
		logger: zerolog.New(file).With().Timestamp().Logger(),
		file:   file,
	}
	auditMu.Unlock()

	return prev.Close()
}

// CloseAuditLogger closes the audit file and goes back to discarding.
func CloseAuditLogger() error {
	auditMu.Lock()
	prev := auditInst
	auditInst = &AuditLogger{logger: zerolog.Nop()}
	auditMu.Unlock()
	return prev.Close()
}

// Record writes the event and mirrors it onto the active span.
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()

		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.subject", event.Subject),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("type", event.Type).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("status", event.Status).
		Str("subject", event.Subject).
		Str("trace_id", event.TraceID)

	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		err := a.file.Close()
		a.file = nil
		return err
	}
	return nil
}

// RecordRunAudit records the end of a live run.
func RecordRunAudit(ctx context.Context, runID, fundID, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditRun,
		Actor:    runID,
		Action:   "run:finished",
		Status:   status,
		Subject:  fundID,
		Metadata: metadata,
	})
}

// RecordReplayAudit records the end of a replay.
func RecordReplayAudit(ctx context.Context, runID, planName string, success bool, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditReplay,
		Actor:    runID,
		Action:   "replay:finished",
		Status:   auditStatus(success),
		Subject:  planName,
		Metadata: metadata,
	})
}

// RecordPlanAudit records a change to the plan store.
func RecordPlanAudit(ctx context.Context, action, planName string, success bool, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditPlan,
		Action:   "plan:" + action,
		Status:   auditStatus(success),
		Subject:  planName,
		Metadata: metadata,
	})
}

// RecordScheduleAudit records one scheduled job execution.
func RecordScheduleAudit(ctx context.Context, job, planName string, success bool, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditSchedule,
		Actor:    job,
		Action:   "schedule:executed",
		Status:   auditStatus(success),
		Subject:  planName,
		Metadata: metadata,
	})
}

func auditStatus(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
