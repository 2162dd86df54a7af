package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
)

// Document formats.
const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// ChartRenderer draws one chart from a fund profile. Implementations must be
// safe for concurrent calls with distinct chart ids.
type ChartRenderer interface {
	RenderChart(ctx context.Context, chartID string, args map[string]interface{}, profile *fund.Profile) (report.ChartArtifact, error)
}

// DocumentRenderer turns a finished report into document bytes.
type DocumentRenderer interface {
	RenderDocument(ctx context.Context, snap report.Snapshot, th theme.Theme) ([]byte, error)
	Format() string
}

// RenderError reports a failed chart or document render.
type RenderError struct {
	ChartID string
	Err     error
}

func (e *RenderError) Error() string {
	if e.ChartID == "" {
		return fmt.Sprintf("render document: %v", e.Err)
	}
	return fmt.Sprintf("render chart %s: %v", e.ChartID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ChartRendererFunc adapts a function to ChartRenderer.
type ChartRendererFunc func(ctx context.Context, chartID string, args map[string]interface{}, profile *fund.Profile) (report.ChartArtifact, error)

func (f ChartRendererFunc) RenderChart(ctx context.Context, chartID string, args map[string]interface{}, profile *fund.Profile) (report.ChartArtifact, error) {
	return f(ctx, chartID, args, profile)
}

// WriteDocument stores doc as dir/<base>.<format> and returns the path.
func WriteDocument(dir, base, format string, doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", fmt.Errorf("document is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, base+"."+format)
	if err := writeFileAtomic(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// DocumentName builds a sortable file name for a rendered report.
func DocumentName(prefix, fundID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, fundID, at.UTC().Format("20060102T150405"))
}
