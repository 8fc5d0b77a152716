package passbolt

import (
	"context"

	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
)

// ConfirmActionInConfirmationDialog clicks the action button of the open
// confirmation dialog.
func (h *Harness) ConfirmActionInConfirmationDialog(ctx context.Context) error {
	return h.click(ctx, selectors.ConfirmButton)
}

// CancelActionInConfirmationDialog dismisses the open confirmation dialog.
func (h *Harness) CancelActionInConfirmationDialog(ctx context.Context) error {
	return h.click(ctx, selectors.ConfirmCancel)
}

// AssertActionNameInConfirmationDialog checks the label of the action button.
func (h *Harness) AssertActionNameInConfirmationDialog(ctx context.Context, label string) error {
	return h.AssertElementAttributeEquals(ctx, h.s(selectors.ConfirmButton), "value", label)
}

// AssertConfirmationDialog waits for the confirmation dialog and checks its
// controls. A non empty title must appear in the dialog.
func (h *Harness) AssertConfirmationDialog(ctx context.Context, title string) error {
	if err := h.see(ctx, selectors.ConfirmDialog); err != nil {
		return err
	}
	for _, name := range []selectors.Name{
		selectors.ConfirmCloseLink,
		selectors.ConfirmCancelLink,
		selectors.ConfirmOK,
	} {
		if err := h.AssertVisible(ctx, h.s(name)); err != nil {
			return err
		}
	}
	if title == "" {
		return nil
	}
	return h.AssertElementContainsText(ctx, h.s(selectors.ConfirmDialog), title)
}
