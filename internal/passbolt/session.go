package passbolt

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/tabs"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// Feedback texts of the debug page. The key import message is misspelled by
// the extension.
var (
	configSaved    = regexp.MustCompile(`User and settings have been saved!`)
	keyImported    = regexp.MustCompile(`The key has been imported succesfully`)
	serverImported = regexp.MustCompile(`The key has been imported successfully`)
)

const settingsSetEvent = "passbolt.debug.settings.set"

// LoginOptions tunes LoginAs.
type LoginOptions struct {
	// SkipConfig leaves the extension profile as it is instead of seeding it
	// for the user first.
	SkipConfig bool
}

// LoginAs signs u in through the login form. On success the browser cookies
// are saved under u's username for RestartBrowser.
func (h *Harness) LoginAs(ctx context.Context, u fixtures.User, opts ...LoginOptions) error {
	var o LoginOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	h.SetCurrentUser(u)
	if !o.SkipConfig {
		if err := h.SetClientConfig(ctx, u); err != nil {
			return fmt.Errorf("login as %s: %w", u.Username, err)
		}
	}
	if err := h.login(ctx, u); err != nil {
		return fmt.Errorf("login as %s: %w", u.Username, err)
	}
	cookies, err := h.Driver().Cookies(ctx)
	if err != nil {
		return fmt.Errorf("login as %s: reading cookies: %w", u.Username, err)
	}
	h.tabs.Jar().Save(u.Username, cookies)
	h.logger.Info("Logged in.", zap.String("user", u.Username), zap.Int("cookies", len(cookies)))
	return nil
}

func (h *Harness) login(ctx context.Context, u fixtures.User) error {
	onForm, err := h.isPresent(ctx, h.s(selectors.LoginForm))
	if err != nil {
		return err
	}
	if !onForm {
		if err := h.GetURL(ctx, "login"); err != nil {
			return err
		}
	}
	browserType := h.cfg.Browser().Type
	if browserType == "" {
		browserType = config.BrowserChrome
	}
	for _, marker := range []browser.Selector{
		h.s(selectors.LoginIframeReady),
		h.s(selectors.LoginPluginCheck, browserType),
		h.s(selectors.LoginGPGCheck),
	} {
		if err := h.waitSee(ctx, marker); err != nil {
			return err
		}
	}

	err = h.Within(ctx, frames.Login, func(ctx context.Context) error {
		if err := h.assertInputValue(ctx, h.s(selectors.LoginUsername), u.Username); err != nil {
			return err
		}
		if err := h.input(ctx, selectors.MasterPasswordInput, u.MasterPassword); err != nil {
			return err
		}
		return h.click(ctx, selectors.LoginSubmit)
	})
	if err != nil {
		return err
	}

	if err := h.unsee(ctx, selectors.MasterPasswordPage); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.Logout); err != nil {
		return err
	}
	if err := h.WaitCompletion(ctx); err != nil {
		return err
	}
	return h.see(ctx, selectors.PluginReady)
}

// Logout ends the application session.
func (h *Harness) Logout(ctx context.Context) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	return h.GetURL(ctx, "logout")
}

// readKey loads armored key material. A name holding a path separator is used
// as is, anything else is looked up in fixtures.keys_dir.
func (h *Harness) readKey(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no key file configured")
	}
	path := name
	if !strings.Contains(name, "/") {
		path = filepath.Join(h.cfg.Fixtures().KeysDir, name)
	}
	b, err := afero.ReadFile(h.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading key %s: %w", path, err)
	}
	return string(b), nil
}

// ClientConfigFor builds the extension profile of u against the current base
// URL.
func (h *Harness) ClientConfigFor(u fixtures.User) (ClientConfig, error) {
	myKey, err := h.readKey(u.PrivateKey)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("private key of %s: %w", u.Alias, err)
	}
	serverKey, err := h.readKey(h.cfg.Fixtures().ServerKey)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("server key: %w", err)
	}
	return ClientConfig{
		BaseURL:                h.baseURL,
		UserID:                 u.ID,
		ProfileFirstName:       u.FirstName,
		ProfileLastName:        u.LastName,
		UserUsername:           u.Username,
		SecurityTokenCode:      u.TokenCode,
		SecurityTokenColor:     u.TokenColor,
		SecurityTokenTextColor: u.TokenTextColor,
		MyKeyASCII:             myKey,
		ServerKeyASCII:         serverKey,
	}, nil
}

// SetClientConfig seeds the extension profile of u through the debug page.
func (h *Harness) SetClientConfig(ctx context.Context, u fixtures.User) error {
	return h.setClientConfig(ctx, u, false)
}

// SetClientConfigManually is SetClientConfig typing every field instead of
// injecting them in one go.
func (h *Harness) SetClientConfigManually(ctx context.Context, u fixtures.User) error {
	return h.setClientConfig(ctx, u, true)
}

const jsSetAutoSettings = `document.getElementById(arguments[0]).value = arguments[1];`

func (h *Harness) setClientConfig(ctx context.Context, u fixtures.User, manual bool) error {
	conf, err := h.ClientConfigFor(u)
	if err != nil {
		return err
	}
	if err := h.GoToDebug(ctx); err != nil {
		return err
	}

	if manual {
		for _, f := range conf.fields() {
			if err := h.inputSel(ctx, browser.ID(f[0]), f[1]); err != nil {
				return err
			}
		}
	} else {
		encoded, err := conf.Encode()
		if err != nil {
			return err
		}
		field, _ := h.sel.Pattern(selectors.DebugSettings)
		if _, err := h.Driver().ExecuteScript(ctx, jsSetAutoSettings, field, encoded); err != nil {
			return fmt.Errorf("writing client config: %w", err)
		}
		if err := h.TriggerEvent(ctx, settingsSetEvent); err != nil {
			return err
		}
		if err := h.see(ctx, selectors.DebugDataSet); err != nil {
			return fmt.Errorf("client config not applied: %w", err)
		}
	}

	steps := []struct {
		button, feedback selectors.Name
		text             *regexp.Regexp
	}{
		{selectors.DebugSaveConfig, selectors.DebugConfigFeedback, configSaved},
		{selectors.DebugSaveKey, selectors.DebugKeyFeedback, keyImported},
		{selectors.DebugSaveServerKey, selectors.DebugServerKeyFeedback, serverImported},
	}
	for _, s := range steps {
		if err := h.click(ctx, s.button); err != nil {
			return err
		}
		if err := h.seeText(ctx, s.text, s.feedback); err != nil {
			return err
		}
	}
	h.logger.Debug("Client config set.", zap.String("user", u.Username), zap.Bool("manual", manual))
	return nil
}

// InitAppPagemod starts the extension's application page mod from the debug
// page. The extension only does it on its own after a login.
func (h *Harness) InitAppPagemod(ctx context.Context) error {
	if err := h.GoToDebug(ctx); err != nil {
		return err
	}
	return h.click(ctx, selectors.DebugInitPagemod)
}

// RestartOptions tunes RestartBrowser.
type RestartOptions struct {
	// WaitBeforeRestart keeps the browser closed that long, e.g. to let a
	// remembered passphrase expire.
	WaitBeforeRestart time.Duration
}

// RestartBrowser quits the browser and starts a new one, then restores what a
// user would find after reopening it: the extension profile of the current
// user and the session cookies.
func (h *Harness) RestartBrowser(ctx context.Context, opts ...RestartOptions) error {
	var o RestartOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return h.tabs.RestartBrowser(ctx, tabs.RestartOptions{
		WaitBeforeRestart: o.WaitBeforeRestart,
		OnRestart:         h.resume,
	})
}

// resume runs against the fresh session of RestartBrowser.
func (h *Harness) resume(ctx context.Context, d browser.Driver) error {
	// moz-extension URLs change with the profile
	h.addonURL = ""
	if _, err := wait.Present(ctx, d, h.s(selectors.Body), h.waitOpts()...); err != nil {
		return err
	}
	if h.user != nil {
		u := *h.user
		if err := h.SetClientConfig(ctx, u); err != nil {
			return err
		}
		if _, ok := h.tabs.Jar().Load(u.Username); ok {
			if err := h.GetURL(ctx, "/auth/login"); err != nil {
				return err
			}
			if _, err := h.tabs.Jar().Replay(ctx, d, u.Username); err != nil {
				return err
			}
		}
	}
	if err := h.InitAppPagemod(ctx); err != nil {
		return err
	}
	if err := wait.Sleep(ctx, h.resumeDelay); err != nil {
		return err
	}
	return h.GetURL(ctx, "")
}

// OpenNewTab opens a tab on path, resolved against the base URL, and switches
// to it. An empty path leaves the tab blank.
func (h *Harness) OpenNewTab(ctx context.Context, path string) error {
	if path != "" {
		path = h.URL(path)
	}
	return h.tabs.OpenNewTab(ctx, path)
}

func (h *Harness) CloseAndRestoreTab(ctx context.Context) error {
	return h.tabs.CloseAndRestoreTab(ctx)
}

func (h *Harness) SwitchToNextTab(ctx context.Context) error {
	return h.tabs.SwitchToNextTab(ctx)
}

func (h *Harness) SwitchToPreviousTab(ctx context.Context) error {
	return h.tabs.SwitchToPreviousTab(ctx)
}
