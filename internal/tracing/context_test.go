package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if id1 == "" {
		t.Error("NewTraceID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTraceID returned duplicate IDs")
	}
}

func TestNewRunID(t *testing.T) {
	id1 := NewRunID()
	id2 := NewRunID()

	if id1 == "" {
		t.Error("NewRunID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewRunID returned duplicate IDs")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), &TraceContext{
		TraceID: "trace-1",
		RunID:   "run-1",
		FundID:  "alpha_aggressive",
		Plan:    "q3_risk",
	})

	tc := FromContext(ctx)
	if tc.TraceID != "trace-1" || tc.RunID != "run-1" {
		t.Errorf("unexpected ids: %+v", tc)
	}
	if tc.FundID != "alpha_aggressive" {
		t.Errorf("Expected fund alpha_aggressive, got %s", tc.FundID)
	}
	if tc.Plan != "q3_risk" {
		t.Errorf("Expected plan q3_risk, got %s", tc.Plan)
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()

	if GetTraceID(ctx) != "" || GetRunID(ctx) != "" || GetFundID(ctx) != "" || GetPlan(ctx) != "" {
		t.Error("Expected empty values from background context")
	}
}

func TestNewRunContext_KeepsTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "parent-trace")

	runCtx, runID := NewRunContext(ctx, "horizon_income")

	if GetTraceID(runCtx) != "parent-trace" {
		t.Errorf("Expected trace ID to be kept, got %s", GetTraceID(runCtx))
	}
	if GetRunID(runCtx) != runID || runID == "" {
		t.Errorf("Expected run ID %s in context", runID)
	}
	if GetFundID(runCtx) != "horizon_income" {
		t.Errorf("Expected fund ID in context, got %s", GetFundID(runCtx))
	}
}

func TestNewRunContext_CreatesTraceID(t *testing.T) {
	runCtx, _ := NewRunContext(context.Background(), "alpha_aggressive")

	if GetTraceID(runCtx) == "" {
		t.Error("Expected a trace ID to be generated")
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := NewContext(context.Background(), &TraceContext{TraceID: "t-1", RunID: "r-1", FundID: "f-1"})
	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"trace_id":"t-1"`, `"run_id":"r-1"`, `"fund_id":"f-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in log output %s", want, out)
		}
	}
	if strings.Contains(out, `"plan"`) {
		t.Errorf("Unexpected plan field in %s", out)
	}
}
