// internal/browser/browser.go
// Package browser owns the Chromium process and the isolated per-trial
// browser contexts the collectors run against.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/mwiater/modebench/internal/logging"
)

const (
	ViewportWidth  = 1920
	ViewportHeight = 1080
)

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	Headless bool
	// ExecPath overrides chromedp's own binary discovery when set.
	ExecPath string
	// Debug forwards chromedp protocol logs to the application log.
	Debug bool
}

// LaunchError reports that Chromium could not be started.
type LaunchError struct {
	ExecPath string
	Err      error
}

func (e *LaunchError) Error() string {
	if e.ExecPath != "" {
		return fmt.Sprintf("launch browser %s: %v", e.ExecPath, e.Err)
	}
	return fmt.Sprintf("launch browser: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Browser is a running Chromium instance shared by every trial of a run.
type Browser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
}

// AllocatorOptions returns the exec allocator flag set used for every launch.
func AllocatorOptions(opts LaunchOptions) []chromedp.ExecAllocatorOption {
	out := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	out = append(out,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("disable-accelerated-video-decode", true),
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
	)
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	return out
}

// Launch starts Chromium and waits until the first target is attached.
// Cancelling ctx kills the process.
func Launch(ctx context.Context, opts LaunchOptions) (*Browser, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(opts)...)

	var ctxOpts []chromedp.ContextOption
	if opts.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(logging.LogEvent), chromedp.WithErrorf(logging.LogEvent))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &LaunchError{ExecPath: opts.ExecPath, Err: err}
	}
	logging.LogEvent("browser launched (headless=%v)", opts.Headless)

	return &Browser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close terminates the browser process. Safe to call more than once.
func (b *Browser) Close() {
	if b == nil {
		return
	}
	b.closeOnce.Do(func() {
		b.browserCancel()
		b.allocCancel()
		logging.LogEvent("browser closed")
	})
}

// Session is one isolated browser context with a single page target.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	stop      func() bool
	closeOnce sync.Once
}

// NewIsolatedContext opens a page in a fresh browser context (no shared cache,
// cookies or storage) sized to the fixed viewport. Cancelling ctx tears the
// session down as well.
func (b *Browser) NewIsolatedContext(ctx context.Context) (*Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	s := &Session{
		ctx:    tabCtx,
		cancel: tabCancel,
		stop:   context.AfterFunc(ctx, tabCancel),
	}

	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(ViewportWidth, ViewportHeight)); err != nil {
		s.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("create browser context: %w", ctx.Err())
		}
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	return s, nil
}

// Context returns the chromedp target context collectors run against.
func (s *Session) Context() context.Context { return s.ctx }

// Close disposes of the browser context. Safe to call more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.stop()
		s.cancel()
	})
}

// FindExecPath looks for a Chromium-family binary in the usual install
// locations and on PATH.
func FindExecPath() (string, bool) {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}

	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux":
		paths = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/headless-shell/headless-shell",
		}
	case "windows":
		paths = []string{
			"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
			"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
		}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}
