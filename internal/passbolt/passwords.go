package passbolt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
)

// PasswordFields is the content of the password create and edit forms. On
// edit, empty fields are left untouched.
type PasswordFields struct {
	// ID selects the resource to edit.
	ID          string
	Name        string
	Username    string
	URI         string
	Secret      string
	Description string
}

// PasswordFieldsFrom copies a fixture into form fields.
func PasswordFieldsFrom(r fixtures.Resource) PasswordFields {
	return PasswordFields{
		ID:          r.ID,
		Name:        r.Name,
		Username:    r.Username,
		URI:         r.URI,
		Secret:      r.Secret,
		Description: r.Description,
	}
}

// GotoCreatePassword opens the create password dialog.
func (h *Harness) GotoCreatePassword(ctx context.Context) error {
	if err := h.ensurePasswordWorkspace(ctx, selectors.CreateButton); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.CreateButton); err != nil {
		return err
	}
	return h.AssertVisible(ctx, h.s(selectors.CreatePasswordDialog))
}

// InputSecret types secret into the secret field of the edition iframe.
func (h *Harness) InputSecret(ctx context.Context, secret string) error {
	return h.Within(ctx, frames.SecretEdit, func(ctx context.Context) error {
		return h.input(ctx, selectors.Secret, secret)
	})
}

// FillPasswordForm opens the create dialog and fills it. Name, username and
// secret are always typed, even when empty.
func (h *Harness) FillPasswordForm(ctx context.Context, p PasswordFields) error {
	if err := h.GotoCreatePassword(ctx); err != nil {
		return err
	}
	if err := h.input(ctx, selectors.FieldName, p.Name); err != nil {
		return err
	}
	if err := h.input(ctx, selectors.FieldUsername, p.Username); err != nil {
		return err
	}
	if p.URI != "" {
		if err := h.input(ctx, selectors.FieldURI, p.URI); err != nil {
			return err
		}
	}
	if err := h.InputSecret(ctx, p.Secret); err != nil {
		return err
	}
	if p.Description != "" {
		if err := h.input(ctx, selectors.FieldDescription, p.Description); err != nil {
			return err
		}
	}
	return nil
}

// CreatePassword fills and submits the create dialog.
func (h *Harness) CreatePassword(ctx context.Context, p PasswordFields) error {
	if err := h.FillPasswordForm(ctx, p); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.CreatePasswordSubmit); err != nil {
		return err
	}
	if err := h.unsee(ctx, selectors.ProgressDialog); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyResourceAdded)
}

// IsPasswordSelected reports whether the row of resource id is selected.
func (h *Harness) IsPasswordSelected(ctx context.Context, id string) (bool, error) {
	return h.hasClassNow(ctx, h.s(selectors.PasswordRow, id), "selected")
}

func (h *Harness) requirePasswordWorkspace(ctx context.Context, op string) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	shown, err := h.isVisible(ctx, h.s(selectors.PasswordPage))
	if err != nil {
		return err
	}
	if !shown {
		return fmt.Errorf("%s requires the password workspace", op)
	}
	return nil
}

// ClickPassword selects the row of resource id.
func (h *Harness) ClickPassword(ctx context.Context, id string) error {
	if err := h.requirePasswordWorkspace(ctx, "click password"); err != nil {
		return err
	}
	return h.click(ctx, selectors.PasswordRowName, id)
}

// RightClickPassword opens the contextual menu of resource id.
func (h *Harness) RightClickPassword(ctx context.Context, id string) error {
	if err := h.requirePasswordWorkspace(ctx, "right click password"); err != nil {
		return err
	}
	if err := h.mouseDown(ctx, h.s(selectors.PasswordRowName, id), 3); err != nil {
		return err
	}
	return h.see(ctx, selectors.ContextMenuReady)
}

// CloseContextualMenu dismisses the contextual menu. The menu may be torn down
// while it is being checked.
func (h *Harness) CloseContextualMenu(ctx context.Context) error {
	if err := h.ReleaseFocus(ctx); err != nil {
		return err
	}
	return h.staleOK("contextual menu close", h.unsee(ctx, selectors.ContextMenu))
}

// selectPassword makes resource id the active row without toggling it off.
func (h *Harness) selectPassword(ctx context.Context, id string) error {
	if err := h.ReleaseFocus(ctx); err != nil {
		return err
	}
	selected, err := h.IsPasswordSelected(ctx, id)
	if err != nil || selected {
		return err
	}
	return h.ClickPassword(ctx, id)
}

// GotoEditPassword opens the edit dialog of resource id.
func (h *Harness) GotoEditPassword(ctx context.Context, id string) error {
	if err := h.ensurePasswordWorkspace(ctx, selectors.EditButton); err != nil {
		return err
	}
	if err := h.selectPassword(ctx, id); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.EditButton); err != nil {
		return err
	}
	if err := h.WaitCompletion(ctx); err != nil {
		return err
	}
	if err := h.AssertVisible(ctx, h.s(selectors.EditPasswordDialog)); err != nil {
		return err
	}
	return h.see(ctx, selectors.SecretEditReady)
}

// EditPassword changes the non-empty fields of p on resource p.ID. Changing the
// secret decrypts it first, which needs the passphrase of u.
func (h *Harness) EditPassword(ctx context.Context, p PasswordFields, u ...fixtures.User) error {
	if p.Secret != "" && len(u) == 0 {
		return errors.New("edit password: changing the secret needs the user to decrypt it")
	}
	if err := h.GotoEditPassword(ctx, p.ID); err != nil {
		return err
	}
	for _, f := range []struct {
		name  selectors.Name
		value string
	}{
		{selectors.FieldName, p.Name},
		{selectors.FieldUsername, p.Username},
		{selectors.FieldURI, p.URI},
	} {
		if f.value == "" {
			continue
		}
		if err := h.input(ctx, f.name, f.value); err != nil {
			return err
		}
	}
	if p.Secret != "" {
		if err := h.decryptSecretForEdit(ctx, u[0]); err != nil {
			return err
		}
		if err := h.InputSecret(ctx, p.Secret); err != nil {
			return err
		}
	}
	if p.Description != "" {
		if err := h.input(ctx, selectors.FieldDescription, p.Description); err != nil {
			return err
		}
	}
	if err := h.click(ctx, selectors.EditPasswordSubmit); err != nil {
		return err
	}
	if p.Secret != "" {
		if err := h.unsee(ctx, selectors.ProgressDialog); err != nil {
			return err
		}
	}
	if err := h.unsee(ctx, selectors.EditPasswordDialog); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyResourceEdited)
}

// decryptSecretForEdit focuses the secret field, answers the passphrase
// challenge and waits until the clear secret is in the field.
func (h *Harness) decryptSecretForEdit(ctx context.Context, u fixtures.User) error {
	err := h.Within(ctx, frames.SecretEdit, func(ctx context.Context) error {
		return h.click(ctx, selectors.Secret)
	})
	if err != nil {
		return err
	}
	if err := h.unlock(ctx, u); err != nil {
		return err
	}
	return h.Within(ctx, frames.SecretEdit, func(ctx context.Context) error {
		return h.unsee(ctx, selectors.SecretDecrypting)
	})
}

// DeletePassword deletes resource id through the toolbar and its confirmation.
func (h *Harness) DeletePassword(ctx context.Context, id string) error {
	if err := h.ensurePasswordWorkspace(ctx, selectors.DeleteButton); err != nil {
		return err
	}
	if err := h.selectPassword(ctx, id); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.DeleteButton); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.ConfirmDialog); err != nil {
		return err
	}
	if err := h.ConfirmActionInConfirmationDialog(ctx); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyResourceDeleted)
}

// CopyToClipboard copies the secret of resource id through the contextual menu.
func (h *Harness) CopyToClipboard(ctx context.Context, id string, u fixtures.User) error {
	if err := h.RightClickPassword(ctx, id); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.ContextMenu); err != nil {
		return err
	}
	if err := h.ClickLink(ctx, "Copy password"); err != nil {
		return err
	}
	if err := h.unlock(ctx, u); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyClipboardCopied)
}

// FindPasswordIDByName returns the id of the first listed resource whose row
// mentions name.
func (h *Harness) FindPasswordIDByName(ctx context.Context, name string) (string, error) {
	row, err := h.rowContaining(ctx, h.s(selectors.PasswordTableRow), name)
	if err != nil {
		return "", fmt.Errorf("password %q: %w", name, err)
	}
	id, _, err := row.Attribute(ctx, "id")
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(id, "resource_"), nil
}

// PostCommentInSidebar adds a comment through the sidebar of the selected
// resource.
func (h *Harness) PostCommentInSidebar(ctx context.Context, text string) error {
	if err := h.see(ctx, selectors.CommentForm); err != nil {
		return err
	}
	details, _ := h.sel.Pattern(selectors.PasswordDetails)
	if err := h.ScrollElementToBottom(ctx, details); err != nil {
		return err
	}
	if err := h.input(ctx, selectors.CommentContent, text); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.CommentSubmit); err != nil {
		return err
	}
	if err := h.AssertNotification(ctx, NotifyCommentAdded); err != nil {
		return err
	}
	return h.see(ctx, selectors.CommentsReady)
}
