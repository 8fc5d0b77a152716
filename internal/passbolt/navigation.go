package passbolt

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

const addonURLAttr = "data-passbolt-addon-url"

// Workspace names as they appear in the left navigation hooks.
const (
	WorkspacePassword = "password"
	WorkspaceUser     = "user"
	WorkspaceSettings = "settings"
)

var pluginInstalled = regexp.MustCompile(`(?i)Nice one! The plugin is installed and up to date`)

func (h *Harness) headAddonURL(ctx context.Context) (string, error) {
	head, found, err := browser.TryFind(ctx, h.Driver(), h.s(selectors.Head))
	if err != nil || !found {
		return "", err
	}
	v, _, err := head.Attribute(ctx, addonURLAttr)
	return v, err
}

// AddonURL returns the extension base URL the application page advertises.
// The value is cached until the browser restarts.
func (h *Harness) AddonURL(ctx context.Context) (string, error) {
	if h.addonURL != "" {
		return h.addonURL, nil
	}
	addon, err := h.headAddonURL(ctx)
	if err != nil {
		return "", err
	}
	if addon == "" {
		// Only application pages carry the attribute.
		if err := h.GetURL(ctx, ""); err != nil {
			return "", err
		}
		if err := h.see(ctx, selectors.AppRoot); err != nil {
			return "", fmt.Errorf("addon url: %w", err)
		}
		if addon, err = h.headAddonURL(ctx); err != nil {
			return "", err
		}
	}
	if addon == "" {
		return "", fmt.Errorf("addon url: head has no %s attribute", addonURLAttr)
	}
	h.addonURL = addon
	return addon, nil
}

// GoToDebug opens the extension debug page.
func (h *Harness) GoToDebug(ctx context.Context) error {
	addon, err := h.AddonURL(ctx)
	if err != nil {
		return err
	}
	path := h.cfg.Passbolt().DebugPath
	if path == "" {
		path = "data/config-debug.html"
	}
	if err := h.GetURL(ctx, strings.TrimRight(addon, "/")+"/"+strings.TrimLeft(path, "/")); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.DebugReady); err != nil {
		return fmt.Errorf("debug page: %w", err)
	}
	return nil
}

// GoToLogin opens the login page.
func (h *Harness) GoToLogin(ctx context.Context) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	if err := h.GetURL(ctx, "login"); err != nil {
		return err
	}
	return h.see(ctx, selectors.LoginForm)
}

// WaitCompletion waits until the application reports that its pending
// operations are done, by default through html.loaded.
func (h *Harness) WaitCompletion(ctx context.Context, marker ...browser.Selector) error {
	sel := h.s(selectors.PageLoaded)
	if len(marker) > 0 {
		sel = marker[0]
	}
	if _, err := wait.Present(ctx, h.Driver(), sel, h.timeout(h.cfg.Wait().CompletionTimeout)...); err != nil {
		return fmt.Errorf("completion: %w", err)
	}
	return nil
}

// GoToWorkspace opens the named workspace through the navigation. "settings"
// goes through the profile dropdown instead.
func (h *Harness) GoToWorkspace(ctx context.Context, name string) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	if name == WorkspaceSettings {
		return h.GoToSettings(ctx)
	}
	if err := h.click(ctx, selectors.WorkspaceLink, name); err != nil {
		return fmt.Errorf("workspace %s: %w", name, err)
	}
	return h.WaitCompletion(ctx)
}

// GoToSettings opens the profile page of the settings workspace.
func (h *Harness) GoToSettings(ctx context.Context) error {
	if err := h.click(ctx, selectors.ProfileDropdown); err != nil {
		return err
	}
	if err := h.ClickLink(ctx, "my profile"); err != nil {
		return err
	}
	return h.see(ctx, selectors.SettingsPage)
}

// GoToPasswordWorkspace loads the application root, which lands on the
// password workspace.
func (h *Harness) GoToPasswordWorkspace(ctx context.Context) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	if err := h.GetURL(ctx, ""); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.PasswordPage); err != nil {
		return fmt.Errorf("password workspace: %w", err)
	}
	return nil
}

// GoToUserWorkspace opens the people workspace unless it is already shown.
func (h *Harness) GoToUserWorkspace(ctx context.Context) error {
	onPeople, err := h.isVisible(ctx, h.s(selectors.PeoplePage))
	if err != nil || onPeople {
		return err
	}
	if err := h.GoToPasswordWorkspace(ctx); err != nil {
		return err
	}
	if err := h.GoToWorkspace(ctx, WorkspaceUser); err != nil {
		return err
	}
	return h.see(ctx, selectors.PeoplePage)
}

// ensurePasswordWorkspace loads the password workspace unless it is already
// shown, then waits for the toolbar button marker.
func (h *Harness) ensurePasswordWorkspace(ctx context.Context, marker selectors.Name) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	shown, err := h.isVisible(ctx, h.s(selectors.PasswordPage))
	if err != nil || shown {
		return err
	}
	if err := h.GoToPasswordWorkspace(ctx); err != nil {
		return err
	}
	return h.see(ctx, marker)
}

// lastEmailLink opens the last email sent to username and returns the href of
// the link labelled text.
func (h *Harness) lastEmailLink(ctx context.Context, username, text string) (string, error) {
	if h.server != nil {
		email, err := h.server.LastEmail(ctx, username)
		if err != nil {
			return "", err
		}
		href, ok := email.LinkByText(text)
		if !ok {
			return "", fmt.Errorf("last email of %s has no %q link", username, text)
		}
		return href, nil
	}
	if err := h.GetURL(ctx, "seleniumTests/showLastEmail/"+username); err != nil {
		return "", err
	}
	link, err := h.findLink(ctx, text)
	if err != nil {
		return "", fmt.Errorf("last email of %s: %w", username, err)
	}
	href, _, err := link.Attribute(ctx, "href")
	return href, err
}

func (h *Harness) followEmailLink(ctx context.Context, username, text string, checkPlugin bool) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	href, err := h.lastEmailLink(ctx, username, text)
	if err != nil {
		return err
	}
	if err := h.GetURL(ctx, href); err != nil {
		return err
	}
	if !checkPlugin {
		return nil
	}
	return h.seeText(ctx, pluginInstalled, selectors.SetupPluginCheckSuccess)
}

// GoToSetup follows the "get started" link of the last email sent to username.
func (h *Harness) GoToSetup(ctx context.Context, username string, checkPlugin bool) error {
	return h.followEmailLink(ctx, username, "get started", checkPlugin)
}

// GoToRecover follows the "start recovery" link of the last email sent to
// username.
func (h *Harness) GoToRecover(ctx context.Context, username string, checkPlugin bool) error {
	return h.followEmailLink(ctx, username, "start recovery", checkPlugin)
}

// ClickToolbarIcon simulates a click on the extension toolbar button and
// switches to the window it opens.
func (h *Harness) ClickToolbarIcon(ctx context.Context) error {
	if err := h.GoToDebug(ctx); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.DebugToolbarIcon); err != nil {
		return err
	}
	if err := wait.Sleep(ctx, time.Second); err != nil {
		return err
	}
	if err := h.tabs.SwitchToLast(ctx); err != nil {
		return fmt.Errorf("toolbar window: %w", err)
	}
	h.logger.Debug("Switched to the toolbar window.")
	return nil
}

// Refresh reloads the current page and waits for completion.
func (h *Harness) Refresh(ctx context.Context) error {
	u, err := h.Driver().CurrentURL(ctx)
	if err != nil {
		return err
	}
	if err := h.Driver().Navigate(ctx, u); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	h.nav.Reset(nil)
	h.logger.Debug("Page refreshed.", zap.String("url", u))
	return h.WaitCompletion(ctx)
}

// PluginLogs returns the raw extension log the debug page shows. It leaves the
// browser on the debug page.
func (h *Harness) PluginLogs(ctx context.Context) (string, error) {
	if err := h.nav.LeaveToDefault(ctx); err != nil {
		return "", err
	}
	if err := h.GoToDebug(ctx); err != nil {
		return "", err
	}
	el, err := h.find(ctx, h.s(selectors.DebugLogs))
	if err != nil {
		return "", fmt.Errorf("plugin logs: %w", err)
	}
	return el.Text(ctx)
}
