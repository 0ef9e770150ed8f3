package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/config"
)

// Session is the browser capability the session bootstrapper depends on.
// Implementations own one live browser; Close must release it on every path.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	CurrentURL(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, out any) error
	EvaluateInFrame(ctx context.Context, frameSelector, script string) error
	Cookies(ctx context.Context) (map[string]string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Factory opens a fresh browser session. The bootstrapper acquires one per
// run and is responsible for closing it.
type Factory func(ctx context.Context) (Session, error)

// ChromeSession drives a headless Chrome instance through chromedp.
type ChromeSession struct {
	cfg    config.BrowserConfig
	ctx    context.Context
	cancel context.CancelFunc
	logger *logrus.Logger
}

// NewChromeFactory returns a Factory that launches Chrome with the usual
// headless stability flags and verifies the instance responds before use.
func NewChromeFactory(cfg config.BrowserConfig, logger *logrus.Logger) Factory {
	return func(ctx context.Context) (Session, error) {
		return NewChromeSession(cfg, logger)
	}
}

// NewChromeSession launches a Chrome instance and performs a health-check
// navigation so a broken launch fails fast instead of at first real use.
func NewChromeSession(cfg config.BrowserConfig, logger *logrus.Logger) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	session := &ChromeSession{
		cfg: cfg,
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		logger: logger,
	}

	healthCtx, healthCancel := context.WithTimeout(browserCtx, 15*time.Second)
	defer healthCancel()
	if err := chromedp.Run(healthCtx, chromedp.Navigate("about:blank")); err != nil {
		session.Close()
		return nil, fmt.Errorf("browser health check failed: %w", err)
	}

	return session, nil
}

// run executes chromedp actions on the session context, bounded by timeout
// when one is given. The caller context is consulted for early cancellation
// only; chromedp actions must run on the browser's own context chain.
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	return chromedp.Run(runCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	s.logger.WithField("url", url).Debug("Navigating")
	return s.run(ctx, s.cfg.NavTimeout, chromedp.Navigate(url))
}

func (s *ChromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.cfg.NavTimeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Type(ctx context.Context, selector, text string) error {
	return s.run(ctx, s.cfg.NavTimeout,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (s *ChromeSession) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var value string
	var ok bool
	err := s.run(ctx, s.cfg.NavTimeout,
		chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery),
	)
	return value, ok, err
}

func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, s.cfg.NavTimeout, chromedp.Location(&url))
	return url, err
}

func (s *ChromeSession) Evaluate(ctx context.Context, script string, out any) error {
	return s.run(ctx, s.cfg.NavTimeout, chromedp.Evaluate(script, out))
}

// EvaluateInFrame runs a script inside an embedded frame. Cross-origin
// frames live in their own target, so the frame is located by matching its
// src against the open iframe targets and the script runs in a child
// context bound to that target. Same-origin frames have no separate target;
// the script then runs in the top-level document, which can reach into them.
func (s *ChromeSession) EvaluateInFrame(ctx context.Context, frameSelector, script string) error {
	var src string
	var ok bool
	if err := s.run(ctx, s.cfg.NavTimeout,
		chromedp.AttributeValue(frameSelector, "src", &src, &ok, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("locate frame %q: %w", frameSelector, err)
	}

	if ok && src != "" {
		targets, err := chromedp.Targets(s.ctx)
		if err != nil {
			return fmt.Errorf("list targets: %w", err)
		}
		for _, t := range targets {
			if t.Type != "iframe" || t.URL == "" {
				continue
			}
			if t.URL == src || strings.Contains(t.URL, src) || strings.Contains(src, t.URL) {
				frameCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(t.TargetID))
				defer cancel()
				return chromedp.Run(frameCtx, chromedp.Evaluate(script, nil))
			}
		}
	}

	return s.run(ctx, s.cfg.NavTimeout, chromedp.Evaluate(script, nil))
}

// Cookies reads every cookie visible to the browser context into a flat
// name to value mapping.
func (s *ChromeSession) Cookies(ctx context.Context) (map[string]string, error) {
	cookies := make(map[string]string)
	err := s.run(ctx, s.cfg.NavTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		browserCookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, cookie := range browserCookies {
			cookies[cookie.Name] = cookie.Value
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return cookies, nil
}

func (s *ChromeSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, s.cfg.NavTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Close tears down the browser. Safe to call more than once.
func (s *ChromeSession) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}
