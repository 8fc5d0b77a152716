package passbolt

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// ensurePeopleWorkspace opens the people workspace unless it is shown, then
// waits for the optional marker.
func (h *Harness) ensurePeopleWorkspace(ctx context.Context, marker ...selectors.Name) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	shown, err := h.isVisible(ctx, h.s(selectors.PeoplePage))
	if err != nil || shown {
		return err
	}
	if err := h.GoToUserWorkspace(ctx); err != nil {
		return err
	}
	for _, m := range marker {
		if err := h.see(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// openCreateMenu clicks the create button of the people workspace and picks
// item in its dropdown.
func (h *Harness) openCreateMenu(ctx context.Context, item selectors.Name) error {
	if err := h.ensurePeopleWorkspace(ctx, selectors.CreateButton); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.CreateButton); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.CreateMenu); err != nil {
		return err
	}
	return h.click(ctx, item)
}

// GotoCreateGroup opens the create group dialog.
func (h *Harness) GotoCreateGroup(ctx context.Context) error {
	if err := h.openCreateMenu(ctx, selectors.CreateGroupItem); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.EditGroupDialog); err != nil {
		return err
	}
	return h.see(ctx, selectors.GroupEditIframeReady)
}

// FillGroupForm opens the create group dialog and types the group name.
func (h *Harness) FillGroupForm(ctx context.Context, name string) error {
	if err := h.GotoCreateGroup(ctx); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.GroupNameField); err != nil {
		return err
	}
	return h.input(ctx, selectors.GroupNameField, name)
}

// SearchGroupUserToAdd looks member up in the group autocomplete. creator is
// the user whose security token is shown.
func (h *Harness) SearchGroupUserToAdd(ctx context.Context, member, creator fixtures.User) error {
	err := h.Within(ctx, frames.GroupEdit, func(ctx context.Context) error {
		if err := h.AssertSecurityToken(ctx, creator, TokenGroup); err != nil {
			return err
		}
		if err := h.input(ctx, selectors.GroupAutocompleteInput, strings.ToLower(member.FirstName)); err != nil {
			return err
		}
		return h.click(ctx, selectors.SecurityToken)
	})
	if err != nil {
		return err
	}
	if err := h.see(ctx, selectors.GroupAutocompleteLoaded); err != nil {
		return err
	}
	return h.Within(ctx, frames.GroupEditAutocomplete, func(ctx context.Context) error {
		if err := h.seeText(ctx, ci(member.FullName()), selectors.AutocompleteContent); err != nil {
			return fmt.Errorf("%s in the group autocomplete: %w", member.FullName(), err)
		}
		return nil
	})
}

// AddTemporaryGroupUser picks member in the resolved autocomplete and returns
// the row it gets in the member list.
func (h *Harness) AddTemporaryGroupUser(ctx context.Context, member fixtures.User) (browser.Element, error) {
	err := h.Within(ctx, frames.GroupEditAutocomplete, func(ctx context.Context) error {
		if err := h.seeText(ctx, ci(member.FullName()), selectors.AutocompleteContent); err != nil {
			return err
		}
		item, err := h.rowContaining(ctx, h.s(selectors.AutocompleteItem), member.FullName())
		if err != nil {
			return err
		}
		return item.Click(ctx)
	})
	if err != nil {
		return nil, err
	}
	return h.temporaryGroupUserRow(ctx, member)
}

// AddUserToGroup searches member and adds it to the group being edited.
func (h *Harness) AddUserToGroup(ctx context.Context, member, creator fixtures.User) error {
	if err := h.SearchGroupUserToAdd(ctx, member, creator); err != nil {
		return err
	}
	_, err := h.AddTemporaryGroupUser(ctx, member)
	return err
}

func (h *Harness) temporaryGroupUserRow(ctx context.Context, u fixtures.User) (browser.Element, error) {
	if err := h.AssertElementContainsText(ctx, h.s(selectors.PermissionsList), u.FullName()); err != nil {
		return nil, err
	}
	row, err := h.rowLabelled(ctx, h.s(selectors.GroupMemberRow), u.FullName())
	if err != nil {
		return nil, fmt.Errorf("group member row of %s: %w", u.Username, err)
	}
	return row, nil
}

// EditTemporaryGroupUserRole sets the role of u in the dialog without saving.
func (h *Harness) EditTemporaryGroupUserRole(ctx context.Context, u fixtures.User, admin bool) error {
	row, err := h.temporaryGroupUserRow(ctx, u)
	if err != nil {
		return err
	}
	role, err := row.Find(ctx, h.s(selectors.GroupMemberRole))
	if err != nil {
		return err
	}
	return role.SelectOption(ctx, roleLabel(admin))
}

// TemporaryGroupUserRole returns the role label selected for u in the dialog.
func (h *Harness) TemporaryGroupUserRole(ctx context.Context, u fixtures.User) (string, error) {
	row, err := h.temporaryGroupUserRow(ctx, u)
	if err != nil {
		return "", err
	}
	role, err := row.Find(ctx, h.s(selectors.GroupMemberRole))
	if err != nil {
		return "", err
	}
	return role.SelectedOption(ctx)
}

// GroupUserProperties is the state of a member row in the group dialog.
type GroupUserProperties struct {
	Role           string
	RoleDisabled   bool
	DeleteDisabled bool
}

// TemporaryGroupUserProperties reads the member row of u. The last group
// manager can neither be demoted nor removed.
func (h *Harness) TemporaryGroupUserProperties(ctx context.Context, u fixtures.User) (GroupUserProperties, error) {
	var p GroupUserProperties
	row, err := h.temporaryGroupUserRow(ctx, u)
	if err != nil {
		return p, err
	}
	role, err := row.Find(ctx, h.s(selectors.GroupMemberRole))
	if err != nil {
		return p, err
	}
	if p.Role, err = role.SelectedOption(ctx); err != nil {
		return p, err
	}
	if p.RoleDisabled, err = isDisabled(ctx, role); err != nil {
		return p, err
	}
	del, err := row.Find(ctx, h.s(selectors.GroupMemberDelete))
	if err != nil {
		return p, err
	}
	p.DeleteDisabled, err = isDisabled(ctx, del)
	return p, err
}

// DeleteTemporaryGroupUser removes u from the dialog member list and waits
// until the row is gone.
func (h *Harness) DeleteTemporaryGroupUser(ctx context.Context, u fixtures.User) error {
	row, err := h.temporaryGroupUserRow(ctx, u)
	if err != nil {
		return err
	}
	del, err := row.Find(ctx, h.s(selectors.GroupMemberDelete))
	if err != nil {
		return err
	}
	if err := del.Click(ctx); err != nil {
		return err
	}
	rows := h.s(selectors.GroupMemberRow)
	return wait.Until(ctx, wait.Condition{
		Description: fmt.Sprintf("member %s to leave the list", u.FullName()),
		Selector:    rows.String(),
		Check: func(ctx context.Context) (bool, error) {
			row, err := h.findLabelledRow(ctx, rows, u.FullName())
			return row == nil, err
		},
	}, h.waitOpts()...)
}

// SaveGroup submits the group dialog. Pass the editor when the change needs
// secrets to be encrypted for new members.
func (h *Harness) SaveGroup(ctx context.Context, editor ...fixtures.User) error {
	if err := h.click(ctx, selectors.GroupSave); err != nil {
		return err
	}
	if len(editor) == 0 {
		return nil
	}
	if err := h.unlock(ctx, editor[0]); err != nil {
		return err
	}
	return h.unsee(ctx, selectors.ProgressDialog)
}

// CreateGroup creates a group named name holding members. Members are looked
// up in the fixture catalogue by alias.
func (h *Harness) CreateGroup(ctx context.Context, name string, members []fixtures.Member, creator fixtures.User) error {
	if err := h.FillGroupForm(ctx, name); err != nil {
		return err
	}
	for _, m := range members {
		u, err := h.fixtures.User(m.User)
		if err != nil {
			return err
		}
		if err := h.AddUserToGroup(ctx, u, creator); err != nil {
			return err
		}
		if m.Admin {
			if err := h.EditTemporaryGroupUserRole(ctx, u, true); err != nil {
				return err
			}
		}
	}
	if err := h.SaveGroup(ctx); err != nil {
		return err
	}
	if err := h.AssertNotification(ctx, NotifyGroupAdded); err != nil {
		return err
	}
	return h.unsee(ctx, selectors.EditGroupDialog)
}

// GotoEditGroup opens the edit dialog of group id through its row menu.
func (h *Harness) GotoEditGroup(ctx context.Context, id string) error {
	if err := h.ensurePeopleWorkspace(ctx); err != nil {
		return err
	}
	open, err := h.isVisible(ctx, h.s(selectors.EditGroupDialog))
	if err != nil || open {
		return err
	}
	if err := h.click(ctx, selectors.GroupRowMenu, id); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.GroupMenuEdit); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.EditGroupDialog); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.EditGroupReady); err != nil {
		return err
	}
	// Only group managers get the member iframe.
	hasIframe, err := h.isPresent(ctx, h.s(selectors.GroupEditIframe))
	if err != nil || !hasIframe {
		return err
	}
	return h.see(ctx, selectors.GroupEditIframeReady)
}

// GroupChanges describes an edit of a group. Users are fixture aliases.
type GroupChanges struct {
	Name   string
	Add    []fixtures.Member
	Remove []string
	// Roles sets the role of existing members, Admin meaning group manager.
	// They are applied in order, after additions and before removals.
	Roles []fixtures.Member
}

// EditGroup applies changes to group id and saves them as editor.
func (h *Harness) EditGroup(ctx context.Context, id string, changes GroupChanges, editor fixtures.User) error {
	if err := h.GotoEditGroup(ctx, id); err != nil {
		return err
	}
	if changes.Name != "" {
		if err := h.input(ctx, selectors.GroupNameField, changes.Name); err != nil {
			return err
		}
	}
	for _, m := range changes.Add {
		u, err := h.fixtures.User(m.User)
		if err != nil {
			return err
		}
		if err := h.AddUserToGroup(ctx, u, editor); err != nil {
			return err
		}
		if m.Admin {
			if err := h.EditTemporaryGroupUserRole(ctx, u, true); err != nil {
				return err
			}
		}
	}
	for _, m := range changes.Roles {
		u, err := h.fixtures.User(m.User)
		if err != nil {
			return err
		}
		if err := h.EditTemporaryGroupUserRole(ctx, u, m.Admin); err != nil {
			return err
		}
	}
	for _, alias := range changes.Remove {
		u, err := h.fixtures.User(alias)
		if err != nil {
			return err
		}
		if err := h.DeleteTemporaryGroupUser(ctx, u); err != nil {
			return err
		}
	}

	var err error
	if len(changes.Add) > 0 {
		err = h.SaveGroup(ctx, editor)
	} else {
		err = h.SaveGroup(ctx)
	}
	if err != nil {
		return err
	}
	if err := h.AssertNotification(ctx, NotifyGroupEdited); err != nil {
		return err
	}
	return h.unsee(ctx, selectors.EditGroupDialog)
}

// GoToRemoveGroup asks to delete group id and waits for the confirmation.
func (h *Harness) GoToRemoveGroup(ctx context.Context, id string) error {
	if err := h.ensurePeopleWorkspace(ctx); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.GroupRowMenu, id); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.GroupMenuRemove); err != nil {
		return err
	}
	return h.see(ctx, selectors.ConfirmDialog)
}

// DeleteGroup deletes group id after confirming.
func (h *Harness) DeleteGroup(ctx context.Context, id string) error {
	if err := h.GoToRemoveGroup(ctx, id); err != nil {
		return err
	}
	if err := h.ConfirmActionInConfirmationDialog(ctx); err != nil {
		return err
	}
	return h.AssertNotification(ctx, NotifyGroupDeleted)
}

// ClickGroup selects group id in the people workspace.
func (h *Harness) ClickGroup(ctx context.Context, id string) error {
	if err := h.ensurePeopleWorkspace(ctx); err != nil {
		return err
	}
	if err := h.click(ctx, selectors.GroupRowMain, id); err != nil {
		return err
	}
	return h.WaitCompletion(ctx)
}

// IsGroupSelected reports whether group id is the active filter.
func (h *Harness) IsGroupSelected(ctx context.Context, id string) (bool, error) {
	return h.hasClassNow(ctx, h.s(selectors.GroupRowState, id), "selected")
}
