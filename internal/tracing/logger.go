package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggerFromContext adds the tracing fields found in ctx to baseLogger.
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)
	logCtx := baseLogger.With()

	if tc.TraceID != "" {
		logCtx = logCtx.Str("trace_id", tc.TraceID)
	}
	if tc.RunID != "" {
		logCtx = logCtx.Str("run_id", tc.RunID)
	}
	if tc.FundID != "" {
		logCtx = logCtx.Str("fund_id", tc.FundID)
	}
	if tc.Plan != "" {
		logCtx = logCtx.Str("plan", tc.Plan)
	}

	return logCtx.Logger()
}
