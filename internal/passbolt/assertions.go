package passbolt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/color"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/frames"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// hasClassNow reports, without waiting, whether sel carries cls. A missing
// element has no class.
func (h *Harness) hasClassNow(ctx context.Context, sel browser.Selector, cls string) (bool, error) {
	el, found, err := browser.TryFind(ctx, h.Driver(), sel)
	if err != nil || !found {
		return false, err
	}
	return el.HasClass(ctx, cls)
}

// isDisabled treats a control as disabled when the browser says so, or when
// the application marks it with a disabled class or attribute.
func isDisabled(ctx context.Context, el browser.Element) (bool, error) {
	enabled, err := el.IsEnabled(ctx)
	if err != nil {
		return false, err
	}
	if !enabled {
		return true, nil
	}
	if cls, err := el.HasClass(ctx, "disabled"); err != nil || cls {
		return cls, err
	}
	_, attr, err := el.Attribute(ctx, "disabled")
	return attr, err
}

// AssertPageContainsElement checks that sel is in the document right now.
func (h *Harness) AssertPageContainsElement(ctx context.Context, sel browser.Selector) error {
	found, err := h.isPresent(ctx, sel)
	if err != nil {
		return err
	}
	if !found {
		return fail(sel.String()+" to be in the page", "present", "absent")
	}
	return nil
}

// AssertElementNotPresent checks that sel is not in the document right now.
func (h *Harness) AssertElementNotPresent(ctx context.Context, sel browser.Selector) error {
	found, err := h.isPresent(ctx, sel)
	if err != nil {
		return err
	}
	if found {
		return fail(sel.String()+" not to be in the page", "absent", "present")
	}
	return nil
}

// AssertVisible waits for sel to be displayed.
func (h *Harness) AssertVisible(ctx context.Context, sel browser.Selector) error {
	_, err := wait.Visible(ctx, h.Driver(), sel, h.waitOpts()...)
	return err
}

// AssertNotVisible checks that sel is hidden or gone right now.
func (h *Harness) AssertNotVisible(ctx context.Context, sel browser.Selector) error {
	shown, err := h.isVisible(ctx, sel)
	if err != nil {
		return err
	}
	if shown {
		return fail(sel.String()+" not to be visible", "hidden", "visible")
	}
	return nil
}

// AssertElementContainsText checks the text of sel against text, a substring
// or a /regexp/flags literal.
func (h *Harness) AssertElementContainsText(ctx context.Context, sel browser.Selector, text string) error {
	got, match, err := h.textAndMatcher(ctx, sel, text)
	if err != nil {
		return err
	}
	if !match(got) {
		return fail("text of "+sel.String(), text, got)
	}
	return nil
}

// AssertElementNotContainText is the negation of AssertElementContainsText.
func (h *Harness) AssertElementNotContainText(ctx context.Context, sel browser.Selector, text string) error {
	got, match, err := h.textAndMatcher(ctx, sel, text)
	if err != nil {
		return err
	}
	if match(got) {
		return fail("text of "+sel.String()+" not to contain "+text, "no match", got)
	}
	return nil
}

func (h *Harness) textAndMatcher(ctx context.Context, sel browser.Selector, text string) (string, func(string) bool, error) {
	match, err := messageMatcher(text)
	if err != nil {
		return "", nil, err
	}
	el, err := h.find(ctx, sel)
	if err != nil {
		return "", nil, err
	}
	got, err := el.Text(ctx)
	if err != nil {
		return "", nil, err
	}
	return got, match, nil
}

// AssertElementHasClass checks that sel carries cls.
func (h *Harness) AssertElementHasClass(ctx context.Context, sel browser.Selector, cls string) error {
	return h.assertClass(ctx, sel, cls, true)
}

// AssertElementHasNotClass checks that sel does not carry cls.
func (h *Harness) AssertElementHasNotClass(ctx context.Context, sel browser.Selector, cls string) error {
	return h.assertClass(ctx, sel, cls, false)
}

func (h *Harness) assertClass(ctx context.Context, sel browser.Selector, cls string, want bool) error {
	el, err := h.find(ctx, sel)
	if err != nil {
		return err
	}
	got, err := el.HasClass(ctx, cls)
	if err != nil {
		return err
	}
	if got != want {
		return fail(fmt.Sprintf("class %q on %s", cls, sel), want, got)
	}
	return nil
}

// AssertInputValue checks the current value of the field behind sel.
func (h *Harness) AssertInputValue(ctx context.Context, sel browser.Selector, value string) error {
	return h.assertInputValue(ctx, sel, value)
}

func (h *Harness) assertInputValue(ctx context.Context, sel browser.Selector, value string) error {
	el, err := h.find(ctx, sel)
	if err != nil {
		return err
	}
	got, err := el.Value(ctx)
	if err != nil {
		return err
	}
	if got != value {
		return fail("value of "+sel.String(), value, got)
	}
	return nil
}

// AssertElementAttributeEquals checks attribute attr of sel.
func (h *Harness) AssertElementAttributeEquals(ctx context.Context, sel browser.Selector, attr, value string) error {
	el, err := h.find(ctx, sel)
	if err != nil {
		return err
	}
	got, _, err := el.Attribute(ctx, attr)
	if err != nil {
		return err
	}
	if got != value {
		return fail(fmt.Sprintf("attribute %s of %s", attr, sel), value, got)
	}
	return nil
}

func (h *Harness) AssertTitleContains(ctx context.Context, text string) error {
	title, err := h.Driver().Title(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(title, text) {
		return fail("page title", text, title)
	}
	return nil
}

// AssertCurrentURL compares the current URL with url, resolved against the
// base URL when addBase is set.
func (h *Harness) AssertCurrentURL(ctx context.Context, url string, addBase bool) error {
	if addBase {
		url = h.URL(url)
	}
	got, err := h.Driver().CurrentURL(ctx)
	if err != nil {
		return err
	}
	if got != url {
		return fail("current url", url, got)
	}
	return nil
}

// AssertURLMatches waits until the current URL matches re.
func (h *Harness) AssertURLMatches(ctx context.Context, re *regexp.Regexp) error {
	return wait.URLMatches(ctx, h.Driver(), re, h.waitOpts()...)
}

// AssertCurrentRole checks the role the application advertises on html.
func (h *Harness) AssertCurrentRole(ctx context.Context, role string) error {
	found, err := h.isPresent(ctx, h.s(selectors.Role, role))
	if err != nil {
		return err
	}
	if !found {
		return fail("current role", role, "another role")
	}
	return nil
}

// AssertBreadcrumb checks that the breadcrumb of workspace holds every crumb.
func (h *Harness) AssertBreadcrumb(ctx context.Context, workspace string, crumbs ...string) error {
	sel := h.s(selectors.Breadcrumb, workspace)
	for _, c := range crumbs {
		if err := h.AssertElementContainsText(ctx, sel, c); err != nil {
			return err
		}
	}
	return nil
}

// AssertMasterPasswordDialog checks the passphrase dialog shown to u. It must
// be called from the top level, where it returns.
func (h *Harness) AssertMasterPasswordDialog(ctx context.Context, u fixtures.User) error {
	if err := h.nav.RequireDefault(); err != nil {
		return err
	}
	if err := h.see(ctx, selectors.MasterPasswordIframeReady); err != nil {
		return fmt.Errorf("passphrase dialog: %w", err)
	}
	return h.Within(ctx, frames.MasterPassword, func(ctx context.Context) error {
		if err := h.AssertSecurityToken(ctx, u, TokenMaster); err != nil {
			return err
		}
		if err := h.AssertElementContainsText(ctx, h.s(selectors.MasterPasswordDialog), "Please enter your passphrase"); err != nil {
			return err
		}
		for _, name := range []selectors.Name{
			selectors.MasterPasswordClose,
			selectors.MasterPasswordSubmit,
			selectors.MasterPasswordCancel,
		} {
			if err := h.AssertVisible(ctx, h.s(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// TokenContext names where a security token is displayed. It decides which
// field is focused to check the colour swap.
type TokenContext string

const (
	TokenSecret          TokenContext = ""
	TokenMaster          TokenContext = "master"
	TokenLogin           TokenContext = "login"
	TokenShare           TokenContext = "share"
	TokenGroup           TokenContext = "group"
	TokenEncryptedSecret TokenContext = "has_encrypted_secret"
)

func (tc TokenContext) input() selectors.Name {
	switch tc {
	case TokenMaster, TokenLogin:
		return selectors.MasterPasswordInput
	case TokenShare:
		return selectors.ShareAroInput
	case TokenGroup:
		return selectors.GroupAutocompleteInput
	}
	return selectors.Secret
}

// AssertSecurityToken checks the token of u in the current document: its code
// and colours, then the inverted colours while the paired field has focus.
func (h *Harness) AssertSecurityToken(ctx context.Context, u fixtures.User, tc TokenContext) error {
	token := h.s(selectors.SecurityToken)
	el, err := wait.Visible(ctx, h.Driver(), token, h.waitOpts()...)
	if err != nil {
		return fmt.Errorf("security token: %w", err)
	}
	if err := h.AssertElementContainsText(ctx, token, u.TokenCode); err != nil {
		return err
	}
	if err := h.tokenColours(ctx, token, u.TokenColor, u.TokenTextColor); err != nil {
		return err
	}
	if tc == TokenEncryptedSecret {
		return nil
	}

	if tc == TokenMaster {
		first, _ := h.sel.Pattern(selectors.MasterPasswordFocusFirst)
		if err := h.WaitUntilElementHasFocus(ctx, first); err != nil {
			return err
		}
	}
	if err := h.click(ctx, tc.input()); err != nil {
		return err
	}
	if err := h.tokenColours(ctx, token, u.TokenTextColor, u.TokenColor); err != nil {
		return err
	}
	return el.Click(ctx)
}

func (h *Harness) tokenColours(ctx context.Context, token browser.Selector, background, text string) error {
	timeout := h.cfg.Wait().SecurityTokenTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if err := h.WaitUntilCSSValueEqual(ctx, token, "background-color", background, timeout); err != nil {
		return err
	}
	return h.WaitUntilCSSValueEqual(ctx, token, "color", text, timeout)
}

// WaitUntilCSSValueEqual waits until property of sel equals value once both
// are normalized. Giving up is reported as an AssertionError with the last
// value read.
func (h *Harness) WaitUntilCSSValueEqual(ctx context.Context, sel browser.Selector, property, value string, timeout time.Duration) error {
	err := wait.CSSEquals(ctx, h.Driver(), sel, property, value, h.timeout(timeout)...)
	if err == nil || !errors.Is(err, wait.ErrTimeout) {
		return err
	}
	actual := "unknown"
	if el, found, ferr := browser.TryFind(ctx, h.Driver(), sel); ferr == nil && found {
		if v, verr := el.CSSValue(ctx, property); verr == nil {
			actual = color.Normalize(v)
		}
	}
	return fail(fmt.Sprintf("css %s of %s", property, sel), color.Normalize(value), actual)
}

// WaitUntilElementHasFocus waits until the element with id is active.
func (h *Harness) WaitUntilElementHasFocus(ctx context.Context, id string) error {
	return wait.HasFocus(ctx, h.Driver(), id, h.waitOpts()...)
}

func selection(what string, want, got bool) error {
	if got == want {
		return nil
	}
	state := map[bool]string{true: "selected", false: "not selected"}
	return fail(what, state[want], state[got])
}

func (h *Harness) AssertPasswordSelected(ctx context.Context, id string) error {
	got, err := h.IsPasswordSelected(ctx, id)
	if err != nil {
		return err
	}
	return selection("password "+id, true, got)
}

func (h *Harness) AssertPasswordNotSelected(ctx context.Context, id string) error {
	got, err := h.IsPasswordSelected(ctx, id)
	if err != nil {
		return err
	}
	return selection("password "+id, false, got)
}

func (h *Harness) AssertUserSelected(ctx context.Context, id string) error {
	got, err := h.IsUserSelected(ctx, id)
	if err != nil {
		return err
	}
	return selection("user "+id, true, got)
}

func (h *Harness) AssertUserNotSelected(ctx context.Context, id string) error {
	got, err := h.IsUserSelected(ctx, id)
	if err != nil {
		return err
	}
	return selection("user "+id, false, got)
}

func (h *Harness) AssertGroupSelected(ctx context.Context, id string) error {
	got, err := h.IsGroupSelected(ctx, id)
	if err != nil {
		return err
	}
	return selection("group "+id, true, got)
}

func (h *Harness) AssertGroupNotSelected(ctx context.Context, id string) error {
	got, err := h.IsGroupSelected(ctx, id)
	if err != nil {
		return err
	}
	return selection("group "+id, false, got)
}

// AssertPermission opens the share dialog of resource id and checks the
// permission aro holds. The dialog is closed afterwards when closeDialog is set.
func (h *Harness) AssertPermission(ctx context.Context, id, aro string, perm fixtures.PermissionType, closeDialog bool) error {
	if err := h.GotoSharePassword(ctx, id); err != nil {
		return err
	}
	if err := h.AssertElementContainsText(ctx, h.s(selectors.PermissionsList), aro); err != nil {
		return err
	}
	row, err := h.permissionRow(ctx, aro)
	if err != nil {
		return err
	}
	typeSelect, err := row.Find(ctx, h.s(selectors.PermissionTypeSelect))
	if err != nil {
		return err
	}
	got, err := typeSelect.SelectedOption(ctx)
	if err != nil {
		return err
	}
	if got != perm.Label() {
		return fail("permission of "+aro+" on "+id, perm.Label(), got)
	}
	if closeDialog {
		return h.click(ctx, selectors.DialogClose)
	}
	return nil
}

// AssertNoPermission checks that aro holds no direct permission on resource id.
func (h *Harness) AssertNoPermission(ctx context.Context, id, aro string) error {
	if err := h.GotoSharePassword(ctx, id); err != nil {
		return err
	}
	return h.AssertElementNotContainText(ctx, h.s(selectors.PermissionsList), aro)
}

// AssertPermissionInSidebar checks the permission listed for aro in the
// details sidebar of the selected resource.
func (h *Harness) AssertPermissionInSidebar(ctx context.Context, aro string, perm fixtures.PermissionType) error {
	if err := h.see(ctx, selectors.SidebarPermissionsReady); err != nil {
		return err
	}
	row, err := h.rowContaining(ctx, h.s(selectors.SidebarPermissionRow), aro)
	if err != nil {
		return fmt.Errorf("sidebar permission of %s: %w", aro, err)
	}
	return h.assertSubinfo(ctx, row, "sidebar permission of "+aro, perm.Label(), true)
}

// assertSubinfo compares the .subinfo line of row with want, exactly or as a
// substring.
func (h *Harness) assertSubinfo(ctx context.Context, row browser.Element, what, want string, exact bool) error {
	info, err := row.Find(ctx, h.s(selectors.Subinfo))
	if err != nil {
		return err
	}
	got, err := info.Text(ctx)
	if err != nil {
		return err
	}
	got = strings.TrimSpace(got)
	if (exact && got != want) || (!exact && !strings.Contains(got, want)) {
		return fail(what, want, got)
	}
	return nil
}

func roleLabel(admin bool) string {
	if admin {
		return "Group manager"
	}
	return "Member"
}

// AssertGroupMember checks, in the group sidebar of the people workspace, that
// u is a member of group id with the given role.
func (h *Harness) AssertGroupMember(ctx context.Context, id string, u fixtures.User, admin bool) error {
	if err := h.GoToUserWorkspace(ctx); err != nil {
		return err
	}
	selected, err := h.IsGroupSelected(ctx, id)
	if err != nil {
		return err
	}
	if !selected {
		if err := h.ClickGroup(ctx, id); err != nil {
			return err
		}
	}
	if err := h.see(ctx, selectors.GroupDetailsMembers); err != nil {
		return err
	}
	row, err := h.rowContaining(ctx, h.s(selectors.GroupDetailsMemberRow), u.FullName())
	if err != nil {
		return fmt.Errorf("member %s of group %s: %w", u.Username, id, err)
	}
	return h.assertSubinfo(ctx, row, "role of "+u.Username+" in group "+id, roleLabel(admin), true)
}

// AssertGroupMemberInEditDialog opens the edit dialog of group id and checks
// the role selected for u.
func (h *Harness) AssertGroupMemberInEditDialog(ctx context.Context, id string, u fixtures.User, admin bool) error {
	if err := h.GotoEditGroup(ctx, id); err != nil {
		return err
	}
	got, err := h.TemporaryGroupUserRole(ctx, u)
	if err != nil {
		return err
	}
	if got != roleLabel(admin) {
		return fail("role of "+u.Username+" in the group edit dialog", roleLabel(admin), got)
	}
	return nil
}

// AssertGroupUserInSidebar checks that the selected user is listed in group
// name with the given role.
func (h *Harness) AssertGroupUserInSidebar(ctx context.Context, name string, manager bool) error {
	if err := h.see(ctx, selectors.UserGroupsReady); err != nil {
		return err
	}
	row, err := h.rowContaining(ctx, h.s(selectors.UserGroupRow), name)
	if err != nil {
		return fmt.Errorf("group %s in user sidebar: %w", name, err)
	}
	label, err := row.Find(ctx, h.s(selectors.UserGroupName))
	if err != nil {
		return err
	}
	got, err := label.Text(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(got, name) {
		return fail("group name in user sidebar", name, got)
	}
	return h.assertSubinfo(ctx, row, "role in group "+name, roleLabel(manager), false)
}

// AssertComplexity checks the strength indicators of the secret field.
func (h *Harness) AssertComplexity(ctx context.Context, strength string) error {
	class := strings.ReplaceAll(strength, " ", "_")
	if err := h.AssertVisible(ctx, h.s(selectors.SecretStrength, class)); err != nil {
		return err
	}
	if err := h.AssertElementHasClass(ctx, h.s(selectors.StrengthBar), class); err != nil {
		return err
	}
	label := strength
	if strength == "not available" {
		label = "n/a"
	} else if err := h.AssertVisible(ctx, h.s(selectors.StrengthBarLevel, class)); err != nil {
		return err
	}
	if err := h.AssertVisible(ctx, h.s(selectors.ComplexityText)); err != nil {
		return err
	}
	return h.AssertElementContainsText(ctx, h.s(selectors.ComplexityText), "complexity: "+label)
}

const clipboardArea = `<textarea id="%s" style="position:absolute; top:0; left:0; z-index:999;"></textarea>`

// AssertClipboard pastes the clipboard into a temporary textarea and compares
// it with expected.
func (h *Harness) AssertClipboard(ctx context.Context, expected string) (err error) {
	areaID, _ := h.sel.Pattern(selectors.ClipboardArea)
	container, _ := h.sel.Pattern(selectors.Container)
	if err := h.AppendHTMLInPage(ctx, container, fmt.Sprintf(clipboardArea, areaID)); err != nil {
		return err
	}
	defer func() {
		if rmErr := h.RemoveElementFromPage(browser.Detach(ctx), areaID); rmErr != nil && err == nil {
			err = rmErr
		}
	}()
	area := browser.ID(areaID)
	if err := h.waitSee(ctx, area); err != nil {
		return err
	}

	timeout := h.cfg.Wait().ClipboardTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	var pasted string
	err = wait.Until(ctx, wait.Condition{
		Description: "clipboard to hold the expected content",
		Selector:    area.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, err := h.Driver().Find(ctx, area)
			if err != nil {
				return false, err
			}
			if err := el.Clear(ctx); err != nil {
				return false, err
			}
			if err := el.Click(ctx); err != nil {
				return false, err
			}
			if err := h.Driver().Keyboard(ctx, browser.KeyPaste); err != nil {
				return false, err
			}
			pasted, err = el.Value(ctx)
			return pasted == expected, err
		},
	}, h.timeout(timeout)...)
	if errors.Is(err, wait.ErrTimeout) {
		return fail("clipboard content", expected, pasted)
	}
	return err
}

// AssertToggleButtonStatus checks whether the toggle button with id is pressed.
func (h *Harness) AssertToggleButtonStatus(ctx context.Context, id string, pressed bool) error {
	el, err := h.find(ctx, h.s(selectors.ToggleButton, id))
	if err != nil {
		return err
	}
	got, err := el.HasClass(ctx, "selected")
	if err != nil {
		return err
	}
	if got != pressed {
		state := map[bool]string{true: "pressed", false: "unpressed"}
		return fail("toggle button "+id, state[pressed], state[got])
	}
	return nil
}

func (h *Harness) AssertFilterIsSelected(ctx context.Context, filterID string) error {
	return h.AssertElementHasClass(ctx, h.s(selectors.FilterRow, filterID), "selected")
}

func (h *Harness) AssertFilterIsNotSelected(ctx context.Context, filterID string) error {
	return h.AssertElementHasNotClass(ctx, h.s(selectors.FilterRow, filterID), "selected")
}

// AssertPlugin waits for the extension to announce itself on the page.
func (h *Harness) AssertPlugin(ctx context.Context) error {
	_, err := wait.Present(ctx, h.Driver(), h.s(selectors.PluginPresent), h.waitOpts()...)
	return err
}

// AssertNoPlugin checks that the page reports no extension.
func (h *Harness) AssertNoPlugin(ctx context.Context) error {
	return h.assertPresentNow(ctx, selectors.PluginAbsent, "page to report no plugin")
}

func (h *Harness) AssertPluginConfigured(ctx context.Context) error {
	return h.assertPresentNow(ctx, selectors.PluginConfigured, "plugin to be configured")
}

func (h *Harness) AssertPluginNotConfigured(ctx context.Context) error {
	return h.assertPresentNow(ctx, selectors.PluginUnconfigured, "plugin not to be configured")
}

// AssertPluginReady waits until the extension finished starting on the page.
func (h *Harness) AssertPluginReady(ctx context.Context) error {
	_, err := wait.Present(ctx, h.Driver(), h.s(selectors.PluginReady), h.waitOpts()...)
	return err
}

func (h *Harness) assertPresentNow(ctx context.Context, name selectors.Name, what string) error {
	found, err := h.isPresent(ctx, h.s(name))
	if err != nil {
		return err
	}
	if !found {
		return fail(what, "present", "absent")
	}
	return nil
}

// AssertICanSeePassword waits for the row of the resource fixture name.
func (h *Harness) AssertICanSeePassword(ctx context.Context, name string) error {
	sel := h.s(selectors.PasswordRow, fixtures.ResourceID(strings.ToLower(name)))
	if err := h.waitSee(ctx, sel, ci(name)); err != nil {
		return fmt.Errorf("password %s to be visible: %w", name, err)
	}
	return nil
}

// AssertICannotSeePassword waits until the row of the resource fixture name
// is hidden or gone.
func (h *Harness) AssertICannotSeePassword(ctx context.Context, name string) error {
	sel := h.s(selectors.PasswordRow, fixtures.ResourceID(strings.ToLower(name)))
	if err := wait.NotVisible(ctx, h.Driver(), sel, h.waitOpts()...); err != nil {
		return fmt.Errorf("password %s to be hidden: %w", name, err)
	}
	return nil
}

// AssertICanSeeGroup waits for the row of the group fixture name.
func (h *Harness) AssertICanSeeGroup(ctx context.Context, name string) error {
	sel := h.s(selectors.GroupRow, fixtures.GroupID(strings.ToLower(name)))
	if err := h.waitSee(ctx, sel, ci(name)); err != nil {
		return fmt.Errorf("group %s to be visible: %w", name, err)
	}
	return nil
}

// AssertLastEmailContains checks the body of the last email sent to username.
func (h *Harness) AssertLastEmailContains(ctx context.Context, username, text string) error {
	if h.server == nil {
		if err := h.GetURL(ctx, "seleniumTests/showLastEmail/"+username); err != nil {
			return err
		}
		return h.AssertElementContainsText(ctx, h.s(selectors.Body), text)
	}
	email, err := h.server.LastEmail(ctx, username)
	if err != nil {
		return err
	}
	if !email.Contains(text) {
		return fail("last email of "+username, text, email.Subject)
	}
	return nil
}

// AssertDisabled checks that the control behind sel cannot be used.
func (h *Harness) AssertDisabled(ctx context.Context, sel browser.Selector) error {
	el, err := h.find(ctx, sel)
	if err != nil {
		return err
	}
	disabled, err := isDisabled(ctx, el)
	if err != nil {
		return err
	}
	if !disabled {
		return fail(sel.String()+" to be disabled", "disabled", "enabled")
	}
	return nil
}
