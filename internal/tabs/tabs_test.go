package tabs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/browser/browsertest"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
)

func newCoordinator(t *testing.T, d *browsertest.Driver, opts Options) (*Coordinator, *frames.Navigator) {
	t.Helper()
	nav := frames.New(d, zaptest.NewLogger(t))
	c, err := New(context.Background(), d, nav, opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c, nav
}

// assertInStep checks the registry's current handle against the driver.
func assertInStep(t *testing.T, c *Coordinator) {
	t.Helper()
	active, err := c.Driver().CurrentWindowHandle(context.Background())
	require.NoError(t, err)
	current, ok := c.Registry().Current()
	require.True(t, ok)
	assert.Equal(t, active, current)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry([]string{"a", "b", "c"}, "b")
	assert.Equal(t, 1, r.Index())

	assert.Equal(t, 3, r.Append("d"))
	assert.Equal(t, 0, r.Append("a"), "known handles are not duplicated")

	r.Remove("a")
	assert.Equal(t, 0, r.Index(), "removing a tab before current shifts the index")
	h, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "b", h)

	r.Remove("b")
	_, ok = r.Current()
	assert.False(t, ok)

	assert.ErrorIs(t, r.Select(5), ErrNoSuchTab)
	assert.ErrorIs(t, r.Select(-1), ErrNoSuchTab)
	require.NoError(t, r.Select(1))

	if diff := cmp.Diff([]string{"c", "d"}, r.Handles()); diff != "" {
		t.Errorf("handles mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenAndSwitchTabs(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	c, nav := newCoordinator(t, d, Options{BaseURL: "https://passbolt.local"})

	require.NoError(t, c.OpenNewTab(ctx, "https://passbolt.local/auth/login"))
	assert.Equal(t, 2, c.Registry().Len())
	assert.Equal(t, 1, c.Registry().Index())
	assert.Equal(t, []string{"https://passbolt.local/auth/login"}, d.Navigations)
	assertInStep(t, c)

	require.NoError(t, c.SwitchToPreviousTab(ctx))
	assert.Equal(t, 0, c.Registry().Index())
	assertInStep(t, c)

	err := c.SwitchToPreviousTab(ctx)
	assert.ErrorIs(t, err, ErrNoSuchTab)
	assertInStep(t, c)

	require.NoError(t, c.SwitchToNextTab(ctx))
	assertInStep(t, c)
	assert.ErrorIs(t, c.SwitchToNextTab(ctx), ErrNoSuchTab)

	d.AddFrame(frames.Login.FrameName())
	require.NoError(t, nav.Enter(ctx, frames.Login))
	require.NoError(t, c.SwitchTo(ctx, 0))
	assert.Equal(t, frames.Default, nav.Current(), "switching tabs resets the frame context")
	assertInStep(t, c)
}

func TestOpenNewTabWithoutURL(t *testing.T) {
	d := browsertest.New()
	c, _ := newCoordinator(t, d, Options{})

	require.NoError(t, c.OpenNewTab(context.Background(), ""))
	assert.Empty(t, d.Navigations)
	assertInStep(t, c)
}

func TestSwitchToLastAdoptsExternalWindows(t *testing.T) {
	d := browsertest.New()
	c, _ := newCoordinator(t, d, Options{})

	popup := d.OpenWindowExternally()
	require.NoError(t, c.SwitchToLast(context.Background()))

	current, _ := c.Registry().Current()
	assert.Equal(t, popup, current)
	assertInStep(t, c)
}

func TestCloseAndRestoreTab(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	c, _ := newCoordinator(t, d, Options{BaseURL: "https://passbolt.local"})
	require.NoError(t, c.OpenNewTab(ctx, ""))
	closing, _ := c.Registry().Current()

	require.NoError(t, c.CloseAndRestoreTab(ctx))

	assert.NotContains(t, c.Registry().Handles(), closing)
	assert.Equal(t, 2, c.Registry().Len())
	assert.Equal(t, []string{"https://passbolt.local"}, d.Navigations)
	assertInStep(t, c)
}

func TestCookieJar(t *testing.T) {
	ctx := context.Background()
	jar := NewCookieJar()
	cookies := []browser.Cookie{
		{Name: "passbolt_session", Value: "abc", Domain: "passbolt.local", Path: "/"},
		{Name: "csrfToken", Value: "def", Domain: "passbolt.local", Path: "/"},
	}

	d := browsertest.New()
	replayed, err := jar.Replay(ctx, d, "ada@passbolt.com")
	require.NoError(t, err)
	assert.False(t, replayed)

	jar.Save("ada@passbolt.com", cookies)
	cookies[0].Value = "mutated"
	got, ok := jar.Load("ada@passbolt.com")
	require.True(t, ok)
	assert.Equal(t, "abc", got[0].Value, "the jar keeps its own copy")

	replayed, err = jar.Replay(ctx, d, "ada@passbolt.com")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Len(t, d.CookieJar(), 2)

	jar.Forget("ada@passbolt.com")
	_, ok = jar.Load("ada@passbolt.com")
	assert.False(t, ok)
}

func TestRestartBrowser(t *testing.T) {
	ctx := context.Background()
	old := browsertest.New()
	fresh := browsertest.New()

	c, nav := newCoordinator(t, old, Options{
		Maximize: true,
		Factory: func(context.Context) (browser.Driver, error) {
			return fresh, nil
		},
	})
	c.Jar().Save("ada@passbolt.com", []browser.Cookie{{Name: "passbolt_session", Value: "abc"}})
	old.AddFrame(frames.Login.FrameName())
	require.NoError(t, nav.Enter(ctx, frames.Login))

	var hookDriver browser.Driver
	start := time.Now()
	err := c.RestartBrowser(ctx, RestartOptions{
		WaitBeforeRestart: 10 * time.Millisecond,
		OnRestart: func(ctx context.Context, d browser.Driver) error {
			hookDriver = d
			_, err := c.Jar().Replay(ctx, d, "ada@passbolt.com")
			return err
		},
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.True(t, old.IsQuit())
	assert.Same(t, fresh, c.Driver())
	assert.Same(t, fresh, hookDriver)
	assert.Equal(t, frames.Default, nav.Current())
	assert.Len(t, fresh.CookieJar(), 1, "cookies are replayed into the new session")
	assertInStep(t, c)
}

func TestRestartBrowserFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("NoFactory", func(t *testing.T) {
		c, _ := newCoordinator(t, browsertest.New(), Options{})
		assert.Error(t, c.RestartBrowser(ctx, RestartOptions{}))
	})

	t.Run("FactoryError", func(t *testing.T) {
		boom := errors.New("cdp endpoint unreachable")
		c, _ := newCoordinator(t, browsertest.New(), Options{
			Factory: func(context.Context) (browser.Driver, error) { return nil, boom },
		})
		assert.ErrorIs(t, c.RestartBrowser(ctx, RestartOptions{}), boom)
	})

	t.Run("HookError", func(t *testing.T) {
		boom := errors.New("debug page missing")
		c, _ := newCoordinator(t, browsertest.New(), Options{
			Factory: func(context.Context) (browser.Driver, error) { return browsertest.New(), nil },
		})
		err := c.RestartBrowser(ctx, RestartOptions{
			OnRestart: func(context.Context, browser.Driver) error { return boom },
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CancelledDuringDelay", func(t *testing.T) {
		c, _ := newCoordinator(t, browsertest.New(), Options{
			WaitBeforeRestart: time.Hour,
			Factory:           func(context.Context) (browser.Driver, error) { return browsertest.New(), nil },
		})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, c.RestartBrowser(cctx, RestartOptions{}), context.Canceled)
	})
}
