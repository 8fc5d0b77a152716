package passbolt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// OpenMasterPasswordDialog waits for the passphrase iframe and enters it.
func (h *Harness) OpenMasterPasswordDialog(ctx context.Context) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.MasterPasswordIframeReady); err != nil {
		return fmt.Errorf("passphrase dialog: %w", err)
	}
	return h.nav.Enter(ctx, frames.MasterPassword)
}

// EnterMasterPassword types the passphrase into the open dialog and submits
// it. It must be called from inside the dialog and returns at the top level
// once the dialog is gone.
func (h *Harness) EnterMasterPassword(ctx context.Context, passphrase string, remember bool) (err error) {
	if err := h.nav.Require(frames.MasterPassword); err != nil {
		return err
	}
	defer h.leaveOnError(ctx, &err)

	if err := h.input(ctx, selectors.MasterPasswordInput, passphrase); err != nil {
		return err
	}
	if remember {
		if err := h.checkSel(ctx, h.s(selectors.MasterPasswordRemember)); err != nil {
			return err
		}
	}
	submit, err := h.find(ctx, h.s(selectors.MasterPasswordSubmit))
	if err != nil {
		return err
	}
	if err := submit.Click(ctx); err != nil {
		return fmt.Errorf("submit passphrase: %w", err)
	}
	if err := h.staleOK("master password processing", h.assertProcessing(ctx, submit)); err != nil {
		return err
	}

	if err := h.nav.LeaveToDefault(ctx); err != nil {
		return err
	}
	return h.unsee(ctx, selectors.MasterPasswordIframe)
}

// assertProcessing checks that the submit button went into its processing
// state. The dialog may already be gone, which surfaces as a stale element.
func (h *Harness) assertProcessing(ctx context.Context, submit browser.Element) error {
	processing, err := submit.HasClass(ctx, "processing")
	if err != nil {
		return err
	}
	if !processing {
		return fail("passphrase submit to be processing", "processing", "idle")
	}
	return nil
}

// EnterMasterPasswordWithKeyboard submits the passphrase with the keyboard
// only. With tabFirst the focus is moved into the field with a tab first. The
// tab variant needs chrome; other browsers type into the field directly.
func (h *Harness) EnterMasterPasswordWithKeyboard(ctx context.Context, passphrase string, tabFirst bool) (err error) {
	if err := h.nav.Require(frames.MasterPassword); err != nil {
		return err
	}
	defer h.leaveOnError(ctx, &err)

	if h.cfg.Browser().Type == config.BrowserFirefox {
		if err := h.input(ctx, selectors.MasterPasswordInput, passphrase); err != nil {
			return err
		}
	} else {
		if tabFirst {
			if err := h.PressTab(ctx); err != nil {
				return err
			}
			field, _ := h.sel.Pattern(selectors.MasterPasswordInput)
			if err := wait.HasFocus(ctx, h.Driver(), field, h.waitOpts()...); err != nil {
				return err
			}
		}
		if err := h.TypeTextLikeAUser(ctx, "", passphrase); err != nil {
			return err
		}
	}
	if err := h.PressEnter(ctx); err != nil {
		return err
	}

	if err := h.staleOK("master password keyboard processing", h.see(ctx, selectors.MasterPasswordProcessing)); err != nil {
		return err
	}
	return h.nav.LeaveToDefault(ctx)
}

// leaveOnError returns to the top level when the action failed midway.
func (h *Harness) leaveOnError(ctx context.Context, err *error) {
	if *err == nil {
		return
	}
	if leaveErr := h.nav.LeaveToDefault(browser.Detach(ctx)); leaveErr != nil {
		h.logger.Warn("Failed to leave frame after error.", zap.Error(leaveErr))
	}
}

// unlock answers the passphrase challenge for u, checking the dialog first.
func (h *Harness) unlock(ctx context.Context, u fixtures.User) error {
	if err := h.AssertMasterPasswordDialog(ctx, u); err != nil {
		return err
	}
	if err := h.OpenMasterPasswordDialog(ctx); err != nil {
		return err
	}
	return h.EnterMasterPassword(ctx, u.MasterPassword, false)
}
