package render

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/report"
	"github.com/amatiych/llm-work/pkg/theme"
)

// PDFConfig configures the headless browser used for printing.
type PDFConfig struct {
	ChromePath string
	NoSandbox  bool
	// Funds, when set, adds the top holdings table.
	Funds fund.Provider
}

// PDFDocumentRenderer prints the HTML document to PDF in headless Chromium.
// The browser is launched lazily and reused until Close.
type PDFDocumentRenderer struct {
	html   *HTMLDocumentRenderer
	config PDFConfig
	logger zerolog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewPDFDocumentRenderer creates a PDF renderer.
func NewPDFDocumentRenderer(config PDFConfig, logger zerolog.Logger) *PDFDocumentRenderer {
	return &PDFDocumentRenderer{
		html:   NewHTMLDocumentRenderer().WithFunds(config.Funds),
		config: config,
		logger: logger,
	}
}

// Format implements DocumentRenderer.
func (r *PDFDocumentRenderer) Format() string { return FormatPDF }

// RenderDocument implements DocumentRenderer.
func (r *PDFDocumentRenderer) RenderDocument(ctx context.Context, snap report.Snapshot, th theme.Theme) ([]byte, error) {
	doc, err := r.html.RenderDocument(ctx, snap, th)
	if err != nil {
		return nil, err
	}

	browser, err := r.connect()
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, &RenderError{Err: fmt.Errorf("failed to open page: %w", err)}
	}
	defer page.Close()

	if err := page.SetDocumentContent(string(doc)); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("failed to load document: %w", err)}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("failed waiting for document: %w", err)}
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, &RenderError{Err: fmt.Errorf("failed to print pdf: %w", err)}
	}
	defer stream.Close()

	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, &RenderError{Err: fmt.Errorf("failed to read pdf: %w", err)}
	}

	r.logger.Debug().Int("bytes", len(out)).Str("title", snap.Title).Msg("PDF document rendered")
	return out, nil
}

func (r *PDFDocumentRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)
	if r.config.NoSandbox {
		l = l.NoSandbox(true)
	}
	if r.config.ChromePath != "" {
		l = l.Bin(r.config.ChromePath)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	r.launcher = l
	r.browser = browser
	r.logger.Info().Msg("Headless browser started for PDF rendering")
	return browser, nil
}

// Close shuts the browser down.
func (r *PDFDocumentRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
