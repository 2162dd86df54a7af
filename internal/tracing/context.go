package tracing

import (
	"context"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// RunIDKey is the context key for run ID
	RunIDKey ContextKey = "run_id"
	// FundIDKey is the context key for the fund a run reports on
	FundIDKey ContextKey = "fund_id"
	// PlanKey is the context key for the plan being replayed
	PlanKey ContextKey = "plan"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID string
	RunID   string
	FundID  string
	Plan    string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewRunID generates a short run ID. It falls back to a uuid if the random
// source fails.
func NewRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		return uuid.New().String()
	}
	return id
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithFundID adds a fund ID to the context
func WithFundID(ctx context.Context, fundID string) context.Context {
	return context.WithValue(ctx, FundIDKey, fundID)
}

// WithPlan adds a plan name to the context
func WithPlan(ctx context.Context, plan string) context.Context {
	return context.WithValue(ctx, PlanKey, plan)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

// GetRunID retrieves the run ID from the context
func GetRunID(ctx context.Context) string {
	return getString(ctx, RunIDKey)
}

// GetFundID retrieves the fund ID from the context
func GetFundID(ctx context.Context) string {
	return getString(ctx, FundIDKey)
}

// GetPlan retrieves the plan name from the context
func GetPlan(ctx context.Context) string {
	return getString(ctx, PlanKey)
}

func getString(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID: GetTraceID(ctx),
		RunID:   GetRunID(ctx),
		FundID:  GetFundID(ctx),
		Plan:    GetPlan(ctx),
	}
}

// NewContext creates a new context with tracing information
func NewContext(ctx context.Context, tc *TraceContext) context.Context {
	if tc.TraceID != "" {
		ctx = WithTraceID(ctx, tc.TraceID)
	}
	if tc.RunID != "" {
		ctx = WithRunID(ctx, tc.RunID)
	}
	if tc.FundID != "" {
		ctx = WithFundID(ctx, tc.FundID)
	}
	if tc.Plan != "" {
		ctx = WithPlan(ctx, tc.Plan)
	}
	return ctx
}

// NewRequestContext creates a new context for a request with a new trace ID
func NewRequestContext(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// NewRunContext starts a run for fundID. The trace ID is kept when present.
func NewRunContext(ctx context.Context, fundID string) (context.Context, string) {
	if GetTraceID(ctx) == "" {
		ctx = NewRequestContext(ctx)
	}
	runID := NewRunID()
	ctx = WithRunID(ctx, runID)
	ctx = WithFundID(ctx, fundID)
	return ctx, runID
}
