//go:build e2e

// Package e2e drives a live passbolt instance through a DevTools endpoint.
// Run with: go test -tags e2e ./internal/e2e/... with PASSBOLT_E2E_PASSBOLT_URL
// and PASSBOLT_E2E_BROWSER_REMOTE_URL pointing at the stack.
package e2e

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/lifecycle"
	"github.com/xkilldash9x/passbolt-e2e/internal/passbolt"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/server"
	"github.com/xkilldash9x/passbolt-e2e/internal/tabs"
)

// scenarioTimeout bounds one scenario, setup and teardown included.
const scenarioTimeout = 3 * time.Minute

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix("PASSBOLT_E2E")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path := os.Getenv("PASSBOLT_E2E_CONFIG"); path != "" {
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	return cfg
}

// newHarness dials the browser, resets the database and wires the lifecycle
// hooks of t. The database is reset again when the test ends.
func newHarness(t *testing.T) (context.Context, *passbolt.Harness, *lifecycle.Run) {
	t.Helper()
	cfg := loadConfig(t)
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))

	ctx, cancel := context.WithTimeout(context.Background(), scenarioTimeout)
	t.Cleanup(cancel)

	fs := afero.NewOsFs()
	client, err := server.NewClient(cfg.Passbolt().URL, cfg.Server().Timeout, logger)
	require.NoError(t, err)
	resetter, closeReset, err := server.NewResetter(ctx, cfg.Server(), client, fs, logger)
	require.NoError(t, err)
	t.Cleanup(closeReset)
	require.NoError(t, resetter.Reset(ctx, cfg.Passbolt().ResetDataset))

	factory := func(ctx context.Context) (browser.Driver, error) {
		return browser.Dial(ctx, cfg.Browser(), logger)
	}
	driver, err := factory(ctx)
	require.NoError(t, err)

	nav := frames.New(driver, logger)
	coord, err := tabs.New(ctx, driver, nav, tabs.Options{
		BaseURL:           cfg.Passbolt().URL,
		Factory:           factory,
		WaitBeforeRestart: cfg.Browser().WaitBeforeRestart,
		Maximize:          cfg.Browser().Maximize,
	}, logger)
	require.NoError(t, err)

	sel := selectors.Default()
	if path := cfg.Fixtures().Selectors; path != "" {
		require.NoError(t, sel.LoadOverrides(fs, path))
	}
	cat, err := fixtures.Load(fs, cfg.Fixtures().Path)
	require.NoError(t, err)

	h, err := passbolt.New(passbolt.Options{
		Config:    cfg,
		Tabs:      coord,
		Navigator: nav,
		Selectors: sel,
		Fixtures:  cat,
		Server:    client,
		Fs:        fs,
		Logger:    logger,
	})
	require.NoError(t, err)

	lc, err := lifecycle.New(lifecycle.Options{
		Config:   cfg,
		Session:  h,
		Resetter: resetter,
		Logger:   logger,
	})
	require.NoError(t, err)

	// Registered first so it runs last, after the lifecycle teardown.
	t.Cleanup(func() {
		if err := h.Driver().Quit(context.Background()); err != nil {
			t.Logf("quitting the browser: %v", err)
		}
	})
	run, err := lc.Track(ctx, t)
	require.NoError(t, err)
	return ctx, h, run
}

func user(t *testing.T, h *passbolt.Harness, alias string) fixtures.User {
	t.Helper()
	u, err := h.Fixtures().User(alias)
	require.NoError(t, err)
	return u
}

func resource(t *testing.T, h *passbolt.Harness, alias string) fixtures.Resource {
	t.Helper()
	r, err := h.Fixtures().Resource(alias)
	require.NoError(t, err)
	return r
}
