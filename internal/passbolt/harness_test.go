package passbolt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/browser/browsertest"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/tabs"
)

const testBaseURL = "http://passbolt.test"

type harnessOpts struct {
	logger  *zap.Logger
	factory tabs.SessionFactory
	cfg     func(*config.Config)
}

// newHarness wires a Harness over the fake driver with short waits and an
// in-memory key directory holding ada's key and the server key.
func newHarness(t *testing.T, d *browsertest.Driver, o ...harnessOpts) *Harness {
	t.Helper()
	var opts harnessOpts
	if len(o) > 0 {
		opts = o[0]
	}
	logger := opts.logger
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}

	cfg := config.NewDefaultConfig()
	cfg.PassboltCfg.URL = testBaseURL
	cfg.WaitCfg.Timeout = 300 * time.Millisecond
	cfg.WaitCfg.Interval = 5 * time.Millisecond
	cfg.WaitCfg.SecurityTokenTimeout = 100 * time.Millisecond
	cfg.WaitCfg.ClipboardTimeout = 100 * time.Millisecond
	cfg.WaitCfg.CompletionTimeout = 300 * time.Millisecond
	if opts.cfg != nil {
		opts.cfg(cfg)
	}

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/gpg/ada_private.key", []byte("ADA PRIVATE KEY"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "data/gpg/server_public.key", []byte("SERVER PUBLIC KEY"), 0o644))

	nav := frames.New(d, logger)
	tc, err := tabs.New(context.Background(), d, nav, tabs.Options{BaseURL: testBaseURL, Factory: opts.factory}, logger)
	require.NoError(t, err)

	h, err := New(Options{
		Config:      cfg,
		Tabs:        tc,
		Navigator:   nav,
		Fs:          fs,
		Logger:      logger,
		ResumeDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return h
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Config: config.NewDefaultConfig()})
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	h := newHarness(t, browsertest.New())

	tests := []struct {
		name string
		path string
		want string
	}{
		{"relative", "login", testBaseURL + "/login"},
		{"rooted", "/auth/login", testBaseURL + "/auth/login"},
		{"root", "", testBaseURL + "/"},
		{"absolute http", "https://example.com/x", "https://example.com/x"},
		{"chrome extension", "chrome-extension://abc/data/config-debug.html", "chrome-extension://abc/data/config-debug.html"},
		{"firefox extension", "moz-extension://abc/data/x.html", "moz-extension://abc/data/x.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.URL(tt.path))
		})
	}
}

func TestGetURLRecordsNavigation(t *testing.T) {
	d := browsertest.New()
	h := newHarness(t, d)

	require.NoError(t, h.GetURL(context.Background(), "app/passwords"))
	assert.Equal(t, []string{testBaseURL + "/app/passwords"}, d.Navigations)
}

func TestDomainSwitching(t *testing.T) {
	t.Run("secondary not configured", func(t *testing.T) {
		h := newHarness(t, browsertest.New())
		assert.Error(t, h.SwitchToSecondaryDomain())
		assert.Equal(t, testBaseURL, h.BaseURL())
	})

	t.Run("switch and back", func(t *testing.T) {
		h := newHarness(t, browsertest.New(), harnessOpts{cfg: func(c *config.Config) {
			c.PassboltCfg.SecondaryURL = "http://127.0.0.1:8080/"
		}})

		require.NoError(t, h.SwitchToSecondaryDomain())
		assert.Equal(t, "http://127.0.0.1:8080", h.BaseURL())
		assert.Equal(t, "http://127.0.0.1:8080/login", h.URL("login"))

		// a second switch keeps the remembered primary
		require.NoError(t, h.SwitchToSecondaryDomain())
		h.SwitchToPrimaryDomain()
		assert.Equal(t, testBaseURL, h.BaseURL())

		h.SwitchToPrimaryDomain()
		assert.Equal(t, testBaseURL, h.BaseURL())
	})
}

func TestWithinReturnsToDefault(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	d.AddFrame("passbolt-iframe-password-share")
	h := newHarness(t, d)

	boom := errors.New("boom")
	err := h.Within(ctx, frames.Share, func(ctx context.Context) error {
		assert.Equal(t, frames.Share, h.Navigator().Current())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, frames.Default, h.Navigator().Current())
	assert.Equal(t, "", d.Frame())
}

func TestActionsRequireDefaultContext(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	d.AddFrame("passbolt-iframe-master-password")
	h := newHarness(t, d)

	require.NoError(t, h.Navigator().Enter(ctx, frames.MasterPassword))
	err := h.GoToLogin(ctx)
	assert.ErrorIs(t, err, frames.ErrInvalidContext)
	assert.Empty(t, d.Navigations)
}

func TestStaleOK(t *testing.T) {
	h := newHarness(t, browsertest.New())

	assert.NoError(t, h.staleOK("site", browser.ErrStaleElement))
	boom := errors.New("boom")
	assert.ErrorIs(t, h.staleOK("site", boom), boom)
	assert.NoError(t, h.staleOK("site", nil))
}
