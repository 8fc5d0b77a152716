package passbolt

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
)

const pendingShareChanges = "You need to save to apply the changes"

// GotoSharePassword opens the share dialog of resource id unless it is open.
func (h *Harness) GotoSharePassword(ctx context.Context, id string) error {
	if err := h.ensurePasswordWorkspace(ctx, selectors.ShareButton); err != nil {
		return err
	}
	open, err := h.isVisible(ctx, h.s(selectors.SharePermissionForm))
	if err != nil || open {
		return err
	}
	if err := h.selectPassword(ctx, id); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.ShareButton); err != nil {
		return err
	}
	return h.see(ctx, selectors.ShareDialogReady)
}

// SearchAroToGrant types aro into the share autocomplete of resource id and
// waits for the suggestions. u is the user whose security token is shown.
func (h *Harness) SearchAroToGrant(ctx context.Context, id, aro string, u fixtures.User) error {
	if err := h.GotoSharePassword(ctx, id); err != nil {
		return err
	}
	err := h.Within(ctx, frames.Share, func(ctx context.Context) error {
		if err := h.AssertSecurityToken(ctx, u, TokenShare); err != nil {
			return err
		}
		if err := h.input(ctx, selectors.ShareAroInput, aro); err != nil {
			return err
		}
		return h.click(ctx, selectors.SecurityToken)
	})
	if err != nil {
		return err
	}
	return h.WaitCompletion(ctx, h.s(selectors.ShareAutocompleteLoaded))
}

// AddTemporaryPermission picks aro in the autocomplete. The permission is only
// stored by SaveShareChanges.
func (h *Harness) AddTemporaryPermission(ctx context.Context, id, aro string, u fixtures.User) error {
	if err := h.SearchAroToGrant(ctx, id, aro, u); err != nil {
		return err
	}
	err := h.Within(ctx, frames.ShareAutocomplete, func(ctx context.Context) error {
		if err := h.seeText(ctx, ci(aro), selectors.AutocompleteContent); err != nil {
			return err
		}
		item, err := h.rowContaining(ctx, h.s(selectors.AutocompleteItem), aro)
		if err != nil {
			return fmt.Errorf("autocomplete entry %s: %w", aro, err)
		}
		return item.Click(ctx)
	})
	if err != nil {
		return err
	}
	return h.assertPendingChanges(ctx)
}

func (h *Harness) assertPendingChanges(ctx context.Context) error {
	return h.AssertElementContainsText(ctx, h.s(selectors.ShareChanges), pendingShareChanges)
}

// SaveShareChanges stores the pending changes. New permissions need the
// secret encrypted for the new aros, hence the passphrase of u.
func (h *Harness) SaveShareChanges(ctx context.Context, u fixtures.User) error {
	if err := h.click(ctx, selectors.ShareSave); err != nil {
		return err
	}
	if err := h.unlock(ctx, u); err != nil {
		return err
	}
	if err := h.unsee(ctx, selectors.ProgressDialog); err != nil {
		return err
	}
	if err := h.AssertNotification(ctx, NotifyShareUpdated); err != nil {
		return err
	}
	return h.unsee(ctx, selectors.ShareDialog)
}

// SharePassword grants aro the default permission on resource id.
func (h *Harness) SharePassword(ctx context.Context, id, aro string, u fixtures.User) error {
	if err := h.AddTemporaryPermission(ctx, id, aro, u); err != nil {
		return err
	}
	return h.SaveShareChanges(ctx, u)
}

// permissionRow returns the share dialog row of aro.
func (h *Harness) permissionRow(ctx context.Context, aro string) (browser.Element, error) {
	if err := h.AssertElementContainsText(ctx, h.s(selectors.PermissionsList), aro); err != nil {
		return nil, err
	}
	row, err := h.rowLabelled(ctx, h.s(selectors.PermissionRow), aro)
	if err != nil {
		return nil, fmt.Errorf("permission row of %s: %w", aro, err)
	}
	return row, nil
}

// permissionControl opens the share dialog of resource id and returns the
// control name in the row of aro.
func (h *Harness) permissionControl(ctx context.Context, id, aro string, name selectors.Name) (browser.Element, error) {
	if err := h.GotoSharePassword(ctx, id); err != nil {
		return nil, err
	}
	row, err := h.permissionRow(ctx, aro)
	if err != nil {
		return nil, err
	}
	return row.Find(ctx, h.s(name))
}

// EditTemporaryPermission changes the permission type of aro without saving.
func (h *Harness) EditTemporaryPermission(ctx context.Context, id, aro string, perm fixtures.PermissionType) error {
	typeSelect, err := h.permissionControl(ctx, id, aro, selectors.PermissionTypeSelect)
	if err != nil {
		return err
	}
	if err := typeSelect.SelectOption(ctx, perm.Label()); err != nil {
		return fmt.Errorf("permission of %s: %w", aro, err)
	}
	return h.assertPendingChanges(ctx)
}

// EditPermission changes and saves the permission type of aro. Existing
// permissions need no re-encryption, so no passphrase is asked.
func (h *Harness) EditPermission(ctx context.Context, id, aro string, perm fixtures.PermissionType) error {
	if err := h.EditTemporaryPermission(ctx, id, aro, perm); err != nil {
		return err
	}
	return h.saveWithoutPassphrase(ctx)
}

// DeleteTemporaryPermission removes the permission of aro without saving.
func (h *Harness) DeleteTemporaryPermission(ctx context.Context, id, aro string) error {
	del, err := h.permissionControl(ctx, id, aro, selectors.PermissionDelete)
	if err != nil {
		return err
	}
	return del.Click(ctx)
}

// DeletePermission removes and saves the permission of aro.
func (h *Harness) DeletePermission(ctx context.Context, id, aro string) error {
	if err := h.DeleteTemporaryPermission(ctx, id, aro); err != nil {
		return err
	}
	if err := h.assertPendingChanges(ctx); err != nil {
		return err
	}
	return h.saveWithoutPassphrase(ctx)
}

func (h *Harness) saveWithoutPassphrase(ctx context.Context) error {
	if err := h.click(ctx, selectors.ShareSave); err != nil {
		return err
	}
	if err := h.WaitCompletion(ctx); err != nil {
		return err
	}
	if err := h.AssertNotification(ctx, NotifyShareUpdated); err != nil {
		return err
	}
	return h.unsee(ctx, selectors.ShareDialog)
}

// IsPermissionChangeDisabled reports whether the permission type of aro is
// locked, as it is for the last owner.
func (h *Harness) IsPermissionChangeDisabled(ctx context.Context, id, aro string) (bool, error) {
	typeSelect, err := h.permissionControl(ctx, id, aro, selectors.PermissionTypeSelect)
	if err != nil {
		return false, err
	}
	return isDisabled(ctx, typeSelect)
}

// IsPermissionDeleteDisabled reports whether the permission of aro cannot be
// removed, as it is for the last owner.
func (h *Harness) IsPermissionDeleteDisabled(ctx context.Context, id, aro string) (bool, error) {
	del, err := h.permissionControl(ctx, id, aro, selectors.PermissionDelete)
	if err != nil {
		return false, err
	}
	return isDisabled(ctx, del)
}
