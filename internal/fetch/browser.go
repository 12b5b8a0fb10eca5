// Package fetch - browser.go provides the headless browser session used for
// listing pages. The session is exclusive: one tab holds the listing state
// (required for load-more pagination), so pages are processed strictly
// sequentially.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Default timings for browser interactions.
const (
	DefaultNavTimeout    = 30 * time.Second
	DefaultDetailTimeout = 45 * time.Second
	// renderSettle gives client-side scripts time to append content after
	// navigation or a control click.
	renderSettle = 2 * time.Second
)

// BrowserOptions configures the browser session.
type BrowserOptions struct {
	NavTimeout    time.Duration
	DetailTimeout time.Duration
}

// Browser is a chromedp-backed page source. The listing tab lives for the
// whole site scan; detail pages render in short-lived sibling tabs so the
// listing state survives.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	opts        BrowserOptions
	log         *zap.Logger
}

// NewBrowser starts a headless browser allocator and one listing tab.
// Requires Chrome/Chromium to be installed on the system.
func NewBrowser(ctx context.Context, opts BrowserOptions, log *zap.Logger) (*Browser, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = DefaultNavTimeout
	}
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = DefaultDetailTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1920, 1080),
		)...,
	)

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	return &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		opts:        opts,
		log:         log,
	}, nil
}

// OpenListing navigates the listing tab and waits for the list container to
// render.
func (b *Browser) OpenListing(ctx context.Context, url, waitSelector string) (string, error) {
	runCtx, cancel := context.WithTimeout(b.tabCtx, b.opts.NavTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.Sleep(renderSettle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("listing navigation failed for %s: %w", url, err)
	}
	b.log.Debug("listing rendered", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// ClickControl clicks a pagination control in the listing tab and lets the
// page settle. The caller decides whether new content actually arrived by
// comparing entry counts before and after.
func (b *Browser) ClickControl(ctx context.Context, selector string) error {
	runCtx, cancel := context.WithTimeout(b.tabCtx, b.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Click(selector, chromedp.NodeVisible, chromedp.ByQuery),
		chromedp.Sleep(renderSettle),
	)
	if err != nil {
		return fmt.Errorf("click failed for %s: %w", selector, err)
	}
	return nil
}

// ListingHTML re-reads the current state of the listing tab.
func (b *Browser) ListingHTML(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(b.tabCtx, b.opts.NavTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read listing HTML: %w", err)
	}
	return html, nil
}

// FetchDetail renders a detail page in a fresh tab so the exclusive listing
// tab keeps its state. The call is individually time-bounded; a timeout is
// that call's failure, not the scan's.
func (b *Browser) FetchDetail(ctx context.Context, url string) (string, error) {
	detailCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	runCtx, timeoutCancel := context.WithTimeout(detailCtx, b.opts.DetailTimeout)
	defer timeoutCancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(renderSettle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("detail rendering failed for %s: %w", url, err)
	}
	b.log.Debug("detail rendered", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Close tears down the listing tab and the browser allocator.
func (b *Browser) Close(ctx context.Context) error {
	b.tabCancel()
	b.allocCancel()
	return nil
}
