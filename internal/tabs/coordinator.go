// Package tabs coordinates the browser windows a test opens and carries the
// per-user cookie snapshots that let a restarted browser resume a session.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// SessionFactory opens a fresh browser session.
type SessionFactory func(ctx context.Context) (browser.Driver, error)

// Options configures a Coordinator.
type Options struct {
	// BaseURL is loaded by CloseAndRestoreTab.
	BaseURL           string
	Factory           SessionFactory
	WaitBeforeRestart time.Duration
	Maximize          bool
}

// RestartOptions tunes one RestartBrowser call.
type RestartOptions struct {
	// WaitBeforeRestart overrides Options.WaitBeforeRestart when positive.
	WaitBeforeRestart time.Duration
	// OnRestart runs against the new session once the registry and navigator
	// have been reset.
	OnRestart func(ctx context.Context, d browser.Driver) error
}

// Coordinator owns the tab registry and the cookie jar of one browser session.
// Every operation leaves the navigator in frames.Default.
type Coordinator struct {
	driver browser.Driver
	nav    *frames.Navigator
	reg    *Registry
	jar    *CookieJar
	opts   Options
	logger *zap.Logger
}

// New builds a coordinator over an open session and syncs the registry with it.
func New(ctx context.Context, d browser.Driver, nav *frames.Navigator, opts Options, logger *zap.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		driver: d,
		nav:    nav,
		reg:    &Registry{current: -1},
		jar:    NewCookieJar(),
		opts:   opts,
		logger: logger.Named("tabs"),
	}
	if err := c.Sync(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Driver returns the live session; it changes after RestartBrowser.
func (c *Coordinator) Driver() browser.Driver { return c.driver }

// Jar returns the cookie snapshots.
func (c *Coordinator) Jar() *CookieJar { return c.jar }

// Registry exposes the tab registry for inspection.
func (c *Coordinator) Registry() *Registry { return c.reg }

// Sync re-reads the driver's handles so the registry matches the browser.
func (c *Coordinator) Sync(ctx context.Context) error {
	handles, err := c.driver.WindowHandles(ctx)
	if err != nil {
		return fmt.Errorf("listing windows: %w", err)
	}
	current, err := c.driver.CurrentWindowHandle(ctx)
	if err != nil && !errors.Is(err, browser.ErrNoSuchWindow) {
		return fmt.Errorf("reading current window: %w", err)
	}
	c.reg.Reset(handles, current)
	return nil
}

func (c *Coordinator) activate(ctx context.Context, i int) error {
	h, err := c.reg.At(i)
	if err != nil {
		return err
	}
	if err := c.driver.SwitchToWindow(ctx, h); err != nil {
		return fmt.Errorf("switching to tab %d: %w", i, err)
	}
	c.nav.Reset(nil)
	return c.reg.Select(i)
}

// OpenNewTab opens a tab, makes it current and loads url when non-empty.
func (c *Coordinator) OpenNewTab(ctx context.Context, url string) error {
	h, err := c.driver.NewWindow(ctx)
	if err != nil {
		return fmt.Errorf("opening tab: %w", err)
	}
	if err := c.activate(ctx, c.reg.Append(h)); err != nil {
		return err
	}
	c.logger.Debug("Opened tab.", zap.String("handle", h), zap.Int("tabs", c.reg.Len()))
	if url == "" {
		return nil
	}
	if err := c.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("loading %s in new tab: %w", url, err)
	}
	return nil
}

// SwitchToNextTab moves one tab right.
func (c *Coordinator) SwitchToNextTab(ctx context.Context) error {
	return c.activate(ctx, c.reg.Index()+1)
}

// SwitchToPreviousTab moves one tab left.
func (c *Coordinator) SwitchToPreviousTab(ctx context.Context) error {
	if c.reg.Index() < 0 {
		return fmt.Errorf("%w: no current tab", ErrNoSuchTab)
	}
	return c.activate(ctx, c.reg.Index()-1)
}

// SwitchTo activates the tab at index.
func (c *Coordinator) SwitchTo(ctx context.Context, index int) error {
	return c.activate(ctx, index)
}

// SwitchToLast picks up windows the application opened on its own and activates
// the newest one.
func (c *Coordinator) SwitchToLast(ctx context.Context) error {
	handles, err := c.driver.WindowHandles(ctx)
	if err != nil {
		return fmt.Errorf("listing windows: %w", err)
	}
	for _, h := range handles {
		c.reg.Append(h)
	}
	return c.activate(ctx, c.reg.Len()-1)
}

// CloseAndRestoreTab closes the current tab and opens a fresh one on the
// application root. The session survives through the browser's cookies.
func (c *Coordinator) CloseAndRestoreTab(ctx context.Context) error {
	closing, ok := c.reg.Current()
	if !ok {
		return fmt.Errorf("%w: no current tab to close", ErrNoSuchTab)
	}
	if err := c.driver.CloseWindow(ctx); err != nil {
		return fmt.Errorf("closing tab: %w", err)
	}
	c.reg.Remove(closing)
	c.nav.Reset(nil)
	c.logger.Debug("Closed tab.", zap.String("handle", closing))
	return c.OpenNewTab(ctx, c.opts.BaseURL)
}

// RestartBrowser quits the session and opens a new one through the factory.
// Cookie replay and client re-configuration belong to opts.OnRestart.
func (c *Coordinator) RestartBrowser(ctx context.Context, opts RestartOptions) error {
	if c.opts.Factory == nil {
		return errors.New("restart browser: no session factory configured")
	}
	if err := c.driver.Quit(ctx); err != nil {
		c.logger.Warn("Quitting the old session failed.", zap.Error(err))
	}

	delay := c.opts.WaitBeforeRestart
	if opts.WaitBeforeRestart > 0 {
		delay = opts.WaitBeforeRestart
	}
	if err := wait.Sleep(ctx, delay); err != nil {
		return fmt.Errorf("restart browser: %w", err)
	}

	d, err := c.opts.Factory(ctx)
	if err != nil {
		return fmt.Errorf("restart browser: %w", err)
	}
	c.driver = d
	if c.opts.Maximize {
		if err := d.Maximize(ctx); err != nil {
			return fmt.Errorf("restart browser: maximize: %w", err)
		}
	}
	c.nav.Reset(d)
	if err := c.Sync(ctx); err != nil {
		return fmt.Errorf("restart browser: %w", err)
	}
	c.logger.Info("Browser restarted.", zap.Duration("waited", delay))

	if opts.OnRestart != nil {
		if err := opts.OnRestart(ctx, d); err != nil {
			return fmt.Errorf("restart browser: restart hook: %w", err)
		}
	}
	return nil
}
