// Package passbolt is the domain layer of the end-to-end harness: actions that
// drive the application the way a user would, and assertions over the resulting
// DOM state. Every action positions the session, waits for its precondition
// marker, interacts, then waits for its postcondition marker.
package passbolt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/observability"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/server"
	"github.com/xkilldash9x/passbolt-e2e/internal/tabs"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// Options wires a Harness. Config, Tabs and Navigator are required.
type Options struct {
	Config    config.Interface
	Tabs      *tabs.Coordinator
	Navigator *frames.Navigator
	Selectors *selectors.Registry
	Fixtures  *fixtures.Catalogue
	Server    *server.Client
	// Fs holds the key material; defaults to the OS filesystem.
	Fs     afero.Fs
	Logger *zap.Logger
	// ResumeDelay is how long a restarted browser gets to start the page mod
	// before the application is loaded. Defaults to 2s.
	ResumeDelay time.Duration
}

// Harness drives one browser session against one application instance. It is
// not safe for concurrent use.
type Harness struct {
	cfg      config.Interface
	tabs     *tabs.Coordinator
	nav      *frames.Navigator
	sel      *selectors.Registry
	fixtures *fixtures.Catalogue
	server   *server.Client
	fs       afero.Fs
	logger   *zap.Logger

	baseURL    string
	primaryURL string
	addonURL   string
	user       *fixtures.User

	resumeDelay time.Duration
}

// New builds a Harness.
func New(opts Options) (*Harness, error) {
	if opts.Config == nil || opts.Tabs == nil || opts.Navigator == nil {
		return nil, errors.New("passbolt harness needs a config, a tab coordinator and a navigator")
	}
	h := &Harness{
		cfg:      opts.Config,
		tabs:     opts.Tabs,
		nav:      opts.Navigator,
		sel:      opts.Selectors,
		fixtures: opts.Fixtures,
		server:   opts.Server,
		fs:       opts.Fs,
		logger:   opts.Logger,
		baseURL:  strings.TrimRight(opts.Config.Passbolt().URL, "/"),

		resumeDelay: opts.ResumeDelay,
	}
	if h.resumeDelay <= 0 {
		h.resumeDelay = 2 * time.Second
	}
	if h.sel == nil {
		h.sel = selectors.Default()
	}
	if h.fixtures == nil {
		h.fixtures = fixtures.Default()
	}
	if h.fs == nil {
		h.fs = afero.NewOsFs()
	}
	if h.logger == nil {
		h.logger = observability.GetLogger()
	}
	h.logger = h.logger.Named("harness")
	return h, nil
}

// Driver returns the live session. It changes after RestartBrowser.
func (h *Harness) Driver() browser.Driver { return h.tabs.Driver() }

func (h *Harness) Navigator() *frames.Navigator   { return h.nav }
func (h *Harness) Tabs() *tabs.Coordinator        { return h.tabs }
func (h *Harness) Selectors() *selectors.Registry { return h.sel }
func (h *Harness) Fixtures() *fixtures.Catalogue  { return h.fixtures }
func (h *Harness) Server() *server.Client         { return h.server }
func (h *Harness) Config() config.Interface       { return h.cfg }
func (h *Harness) Logger() *zap.Logger            { return h.logger }

// BaseURL is the application root currently in use.
func (h *Harness) BaseURL() string { return h.baseURL }

// CurrentUser returns the user of the last LoginAs.
func (h *Harness) CurrentUser() (fixtures.User, bool) {
	if h.user == nil {
		return fixtures.User{}, false
	}
	return *h.user, true
}

// SetCurrentUser records u as the logged in user without logging in.
func (h *Harness) SetCurrentUser(u fixtures.User) { h.user = &u }

// s resolves a registry hook.
func (h *Harness) s(name selectors.Name, args ...any) browser.Selector {
	return h.sel.Get(name, args...)
}

// waitOpts returns the configured wait settings followed by extra.
func (h *Harness) waitOpts(extra ...wait.Option) []wait.Option {
	w := h.cfg.Wait()
	opts := []wait.Option{wait.WithLogger(h.logger)}
	if w.Timeout > 0 {
		opts = append(opts, wait.WithTimeout(w.Timeout))
	}
	if w.Interval > 0 {
		opts = append(opts, wait.WithInterval(w.Interval))
	}
	return append(opts, extra...)
}

func (h *Harness) timeout(d time.Duration) []wait.Option {
	if d <= 0 {
		return h.waitOpts()
	}
	return h.waitOpts(wait.WithTimeout(d))
}

var absoluteURL = regexp.MustCompile(`^(moz-extension|chrome-extension|http|https)`)

// URL resolves path against the application root. Absolute http(s) and
// extension URLs are returned unchanged.
func (h *Harness) URL(path string) string {
	if absoluteURL.MatchString(path) {
		return path
	}
	return h.baseURL + "/" + strings.TrimLeft(path, "/")
}

// GetURL navigates to path, resolved with URL.
func (h *Harness) GetURL(ctx context.Context, path string) error {
	target := h.URL(path)
	if err := h.Driver().Navigate(ctx, target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

// SwitchToSecondaryDomain points the harness at passbolt.secondary_url.
func (h *Harness) SwitchToSecondaryDomain() error {
	secondary := h.cfg.Passbolt().SecondaryURL
	if secondary == "" {
		return errors.New("passbolt.secondary_url is not configured")
	}
	if h.primaryURL == "" {
		h.primaryURL = h.baseURL
	}
	h.baseURL = strings.TrimRight(secondary, "/")
	h.logger.Info("Switched to secondary domain.", zap.String("url", h.baseURL))
	return nil
}

// SwitchToPrimaryDomain undoes SwitchToSecondaryDomain. It does nothing when
// no switch happened.
func (h *Harness) SwitchToPrimaryDomain() {
	if h.primaryURL == "" {
		return
	}
	h.baseURL = h.primaryURL
	h.primaryURL = ""
	h.logger.Info("Switched back to primary domain.", zap.String("url", h.baseURL))
}

// Within runs fn inside the iframe for c and always returns to the top level.
func (h *Harness) Within(ctx context.Context, c frames.Context, fn func(ctx context.Context) error) error {
	return h.nav.Within(ctx, c, fn)
}

// staleOK swallows a stale element error at a named race site.
func (h *Harness) staleOK(site string, err error) error {
	if errors.Is(err, browser.ErrStaleElement) {
		h.logger.Warn("Stale element ignored.", zap.String("site", site), zap.Error(err))
		return nil
	}
	return err
}
