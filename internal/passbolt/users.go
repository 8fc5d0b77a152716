package passbolt

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
)

// UserFields is the content of the user create and edit forms. On edit,
// empty fields are left untouched and an empty Role keeps the current one.
type UserFields struct {
	// ID selects the user to edit.
	ID        string
	FirstName string
	LastName  string
	Username  string
	Role      string
}

// UserFieldsFrom copies a fixture into form fields.
func UserFieldsFrom(u fixtures.User) UserFields {
	return UserFields{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Role:      u.Role,
	}
}

// GotoCreateUser opens the create user dialog.
func (h *Harness) GotoCreateUser(ctx context.Context) error {
	if err := h.openCreateMenu(ctx, selectors.CreateUserItem); err != nil {
		return err
	}
	return h.see(ctx, selectors.CreateUserDialog)
}

// CreateUser fills and submits the create user dialog.
func (h *Harness) CreateUser(ctx context.Context, u UserFields) error {
	if err := h.GotoCreateUser(ctx); err != nil {
		return err
	}
	for _, f := range []struct {
		name  selectors.Name
		value string
	}{
		{selectors.FirstName, u.FirstName},
		{selectors.LastName, u.LastName},
		{selectors.Username, u.Username},
	} {
		if err := h.input(ctx, f.name, f.value); err != nil {
			return err
		}
	}
	if u.Role == fixtures.RoleAdmin {
		if err := h.checkSel(ctx, h.s(selectors.RoleAdminCheckbox)); err != nil {
			return err
		}
	}
	if err := h.click(ctx, selectors.CreateUserSubmit); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyUserAdded)
}

// ClickUser selects a user in the people workspace, by id when set and by
// full name otherwise.
func (h *Harness) ClickUser(ctx context.Context, u UserFields) error {
	shown, err := h.isVisible(ctx, h.s(selectors.PeoplePage))
	if err != nil {
		return err
	}
	if !shown {
		return fmt.Errorf("click user requires the people workspace")
	}
	if u.ID != "" {
		return h.click(ctx, selectors.UserRowName, u.ID)
	}
	return h.click(ctx, selectors.UserByFullName, u.FirstName+" "+u.LastName)
}

// RightClickUser opens the contextual menu of user id.
func (h *Harness) RightClickUser(ctx context.Context, id string) error {
	shown, err := h.isVisible(ctx, h.s(selectors.PeoplePage))
	if err != nil {
		return err
	}
	if !shown {
		return fmt.Errorf("right click user requires the people workspace")
	}
	if err := h.mouseDown(ctx, h.s(selectors.UserRowName, id), 3); err != nil {
		return err
	}
	return h.see(ctx, selectors.ContextMenuReady)
}

// IsUserSelected reports whether the row of user id is selected.
func (h *Harness) IsUserSelected(ctx context.Context, id string) (bool, error) {
	return h.hasClassNow(ctx, h.s(selectors.UserRow, id), "selected")
}

// GotoEditUser opens the edit dialog of user id.
func (h *Harness) GotoEditUser(ctx context.Context, id string) error {
	if err := h.ensurePeopleWorkspace(ctx, selectors.UserEditButton); err != nil {
		return err
	}
	if err := h.ReleaseFocus(ctx); err != nil {
		return err
	}
	if err := h.ClickUser(ctx, UserFields{ID: id}); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.UserEditButton); err != nil {
		return err
	}
	if err := h.WaitCompletion(ctx); err != nil {
		return err
	}
	return h.AssertVisible(ctx, h.s(selectors.EditUserDialog))
}

// EditUser changes the non-empty fields of u on user u.ID.
func (h *Harness) EditUser(ctx context.Context, u UserFields) error {
	if err := h.GotoEditUser(ctx, u.ID); err != nil {
		return err
	}
	if u.FirstName != "" {
		if err := h.input(ctx, selectors.FirstName, u.FirstName); err != nil {
			return err
		}
	}
	if u.LastName != "" {
		if err := h.input(ctx, selectors.LastName, u.LastName); err != nil {
			return err
		}
	}
	if u.Role != "" {
		isAdmin, err := h.isPresent(ctx, h.s(selectors.RoleAdminChecked))
		if err != nil {
			return err
		}
		if isAdmin != (u.Role == fixtures.RoleAdmin) {
			if err := h.click(ctx, selectors.RoleAdminCheckbox); err != nil {
				return err
			}
		}
	}
	if err := h.click(ctx, selectors.EditUserSubmit); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyUserEdited)
}

// DeleteUser deletes user id through the toolbar and its confirmation.
func (h *Harness) DeleteUser(ctx context.Context, id string) error {
	if err := h.ensurePeopleWorkspace(ctx, selectors.UserDeleteButton); err != nil {
		return err
	}
	if err := h.ReleaseFocus(ctx); err != nil {
		return err
	}
	if err := h.ClickUser(ctx, UserFields{ID: id}); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.UserDeleteButton); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.ConfirmDialog); err != nil {
		return err
	}
	if err := h.ConfirmActionInConfirmationDialog(ctx); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyUserDeleted)
}
