// Package export turns invoice documents into deliverable artifacts: the PDF
// download, the auto-printing HTML view, and the JSON document itself. PDF
// rendering goes through headless Chrome; rendered bytes are cached in Redis
// so repeated downloads of the same order do not re-render.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Renderer converts receipt HTML into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

var ErrEmptyHTML = errors.New("export: html content is empty")

const (
	// receiptWidthMM is the thermal paper width.
	receiptWidthMM = 80
	// continuousHeightMM makes the page tall enough that a receipt never
	// paginates; Chrome clips to actual content height.
	continuousHeightMM = 3000

	defaultRenderTimeout = 30 * time.Second
)

// ChromeConfig configures the headless Chrome renderer.
type ChromeConfig struct {
	// RemoteURL points at a running Chrome instance. Empty launches one.
	RemoteURL string
	// NoSandbox is required when running as root in a container.
	NoSandbox bool
	Timeout   time.Duration
	Scale     float64
	Logger    zerolog.Logger
}

// ChromePDF renders receipts with the Chrome DevTools protocol. The allocator
// is shared; each render gets its own browser context.
type ChromePDF struct {
	cfg         ChromeConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromePDF prepares a Chrome allocator. Close releases it.
func NewChromePDF(cfg ChromeConfig) *ChromePDF {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1.0
	}
	r := &ChromePDF{cfg: cfg}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// Close tears down the Chrome allocator.
func (r *ChromePDF) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

// RenderPDF loads the HTML into a fresh tab and prints it to PDF on 80mm
// continuous paper.
func (r *ChromePDF) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}
	start := time.Now()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx)
	defer browserCancel()
	runCtx, runCancel := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer runCancel()
	// chromedp contexts must descend from the allocator, so caller
	// cancellation is forwarded instead of inherited.
	stop := context.AfterFunc(ctx, runCancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(mmToInches(receiptWidthMM)).
				WithPaperHeight(mmToInches(continuousHeightMM)).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithScale(r.cfg.Scale).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("export: pdf render timed out after %v: %w", r.cfg.Timeout, err)
		}
		return nil, fmt.Errorf("export: chromedp run: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("export: rendered pdf is empty")
	}
	r.cfg.Logger.Debug().
		Int("bytes", len(pdf)).
		Dur("duration", time.Since(start)).
		Msg("invoice pdf rendered")
	return pdf, nil
}

func mmToInches(mm float64) float64 { return mm / 25.4 }
