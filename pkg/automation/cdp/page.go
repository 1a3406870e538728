// Package cdp drives Chrome through the DevTools protocol as an automation.Page.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/pkg/automation"
)

// Options configures the browser started by Launch.
type Options struct {
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	Logger       logrus.FieldLogger
}

// DefaultOptions returns a headless 1920x1080 browser.
func DefaultOptions() Options {
	return Options{Headless: true, WindowWidth: 1920, WindowHeight: 1080}
}

// Page is a single Chrome tab.
type Page struct {
	ctx context.Context
	log logrus.FieldLogger
}

var _ automation.Page = (*Page)(nil)

// Launch starts a browser and opens a tab. The returned function closes both.
func Launch(ctx context.Context, opts Options) (*Page, func(), error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	allocOpts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf), chromedp.WithErrorf(log.Errorf))
	closeFn := func() {
		cancelTab()
		cancelAlloc()
	}

	// an empty Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}
	log.WithFields(logrus.Fields{"headless": opts.Headless, "exec_path": opts.ExecPath}).Debug("Browser started")
	return &Page{ctx: tabCtx, log: log}, closeFn, nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *Page) WaitForLoad(ctx context.Context) error {
	if err := p.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return err
	}
	return p.poll(ctx, `document.readyState === "complete"`)
}

func (p *Page) Count(ctx context.Context, loc automation.Locator) (int, error) {
	var n int
	if err := p.run(ctx, chromedp.Evaluate(countExpr(loc), &n)); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Page) WaitFor(ctx context.Context, loc automation.Locator, state automation.State) error {
	expr, err := stateExpr(loc, state)
	if err != nil {
		return err
	}
	return p.poll(ctx, expr)
}

func (p *Page) ScrollIntoView(ctx context.Context, loc automation.Locator) error {
	return p.run(ctx, chromedp.ScrollIntoView(loc.Query, by(loc)))
}

func (p *Page) Click(ctx context.Context, loc automation.Locator) error {
	return p.run(ctx, chromedp.Click(loc.Query, by(loc), chromedp.NodeVisible))
}

func (p *Page) SetValue(ctx context.Context, loc automation.Locator, value string) error {
	return p.run(ctx, chromedp.SetValue(loc.Query, value, by(loc)))
}

func (p *Page) DispatchEvent(ctx context.Context, loc automation.Locator, event string) error {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(dispatchExpr(loc, event), &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("dispatch %s: no element matches %s", event, loc)
	}
	return nil
}

func (p *Page) Text(ctx context.Context, loc automation.Locator) (string, error) {
	var s string
	if err := p.run(ctx, chromedp.Text(loc.Query, &s, by(loc))); err != nil {
		return "", err
	}
	return s, nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

const pollInterval = 100 * time.Millisecond

// poll evaluates expr until it yields true or ctx ends.
func (p *Page) poll(ctx context.Context, expr string) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		var ok bool
		if err := p.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// run executes actions on the tab under the deadline and cancellation of ctx.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		runCtx, cancelDL = context.WithDeadline(runCtx, dl)
		defer cancelDL()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func by(loc automation.Locator) chromedp.QueryOption {
	if loc.Kind == automation.KindXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// firstExpr is a JS expression yielding the first match of loc or null.
func firstExpr(loc automation.Locator) string {
	if loc.Kind == automation.KindXPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", jsString(loc.Query))
	}
	return fmt.Sprintf("document.querySelector(%s)", jsString(loc.Query))
}

func countExpr(loc automation.Locator) string {
	if loc.Kind == automation.KindXPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength", jsString(loc.Query))
	}
	return fmt.Sprintf("document.querySelectorAll(%s).length", jsString(loc.Query))
}

const visibleFn = `(el) => !!el && !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length) && getComputedStyle(el).visibility !== "hidden"`

func stateExpr(loc automation.Locator, state automation.State) (string, error) {
	el := firstExpr(loc)
	switch state {
	case automation.StateVisible:
		return fmt.Sprintf("(%s)(%s)", visibleFn, el), nil
	case automation.StateHidden:
		return fmt.Sprintf("!(%s)(%s)", visibleFn, el), nil
	case automation.StateEnabled:
		return fmt.Sprintf("((el) => !!el && !el.disabled)(%s)", el), nil
	case automation.StateDisabled:
		return fmt.Sprintf("((el) => !!el && !!el.disabled)(%s)", el), nil
	}
	return "", fmt.Errorf("wait for %s: %w: %s", loc, automation.ErrUnknownState, state)
}

func dispatchExpr(loc automation.Locator, event string) string {
	return fmt.Sprintf("((el) => !!el && (el.dispatchEvent(new Event(%s, {bubbles: true})), true))(%s)", jsString(event), firstExpr(loc))
}
