// internal/editor/geometry/chrome.go
package geometry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DocumentSource is a Source that can also address its elements by XPath
// and render itself.
type DocumentSource interface {
	Source
	XPathOf(n *html.Node) string
}

// ChromeOptions configures the headless browser.
type ChromeOptions struct {
	ViewportWidth  int
	ViewportHeight int
	Stylesheets    []string
	Timeout        time.Duration
	// ExecPath overrides chromedp's browser discovery when set.
	ExecPath string
}

// Chrome measures elements in a headless Chrome. The document is loaded
// into the page again whenever its revision changes.
type Chrome struct {
	src     DocumentSource
	opts    ChromeOptions
	logger  *zap.Logger
	ctx     context.Context
	cancels []context.CancelFunc

	loaded   bool
	revision uint64
}

// NewChrome starts the browser. Close must be called to release it.
func NewChrome(ctx context.Context, src DocumentSource, opts ChromeOptions, logger *zap.Logger) (*Chrome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = 1280, 800
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	c := &Chrome{
		src:     src,
		opts:    opts,
		logger:  logger.Named("geometry.chrome"),
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
	}

	startCtx, cancel := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}
	return c, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

func (c *Chrome) Box(n *html.Node) (Rect, bool) {
	if n == nil || n.Type != html.ElementNode {
		return Rect{}, false
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.Timeout)
	defer cancel()

	if err := c.sync(ctx); err != nil {
		c.logger.Debug("Could not load document into the browser.", zap.Error(err))
		return Rect{}, false
	}

	xpath := c.src.XPathOf(n)
	if xpath == "" {
		return Rect{}, false
	}
	literal, err := json.Marshal(xpath)
	if err != nil {
		return Rect{}, false
	}
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return [];
		const r = el.getBoundingClientRect();
		return [r.left + window.scrollX, r.top + window.scrollY, r.width, r.height];
	})()`, literal)

	var box []float64
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &box)); err != nil {
		c.logger.Debug("Geometry query failed.", zap.String("xpath", xpath), zap.Error(err))
		return Rect{}, false
	}
	if len(box) != 4 {
		return Rect{}, false
	}
	return Rect{X: box[0], Y: box[1], Width: box[2], Height: box[3]}, true
}

// sync writes the current document into the page when it changed.
func (c *Chrome) sync(ctx context.Context) error {
	if c.loaded && c.revision == c.src.Revision() {
		return nil
	}
	var page bytes.Buffer
	if err := html.Render(&page, c.src.Root()); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	markup, err := json.Marshal(page.String())
	if err != nil {
		return err
	}
	sheets, err := json.Marshal(c.opts.Stylesheets)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		document.open();
		document.write(%s);
		document.close();
		for (const css of (%s || [])) {
			const s = document.createElement('style');
			s.textContent = css;
			document.head.appendChild(s);
		}
		return true;
	})()`, markup, sheets)

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return errors.New("document load script returned false")
	}
	c.loaded = true
	c.revision = c.src.Revision()
	c.logger.Debug("Document loaded into browser.", zap.Uint64("revision", c.revision))
	return nil
}
