package passbolt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/browser/browsertest"
	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

func TestAssertionError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", fail("text of #x", "foo", "bar"))

	assert.ErrorIs(t, err, ErrAssertion)
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "foo", ae.Expected)
	assert.Equal(t, "bar", ae.Actual)
	assert.Contains(t, err.Error(), "expected foo, got bar")

	bare := &AssertionError{What: "row to exist"}
	assert.Equal(t, "assertion failed: row to exist", bare.Error())
}

func TestMessageMatcher(t *testing.T) {
	tests := []struct {
		msg   string
		text  string
		match bool
	}{
		{"added successfully", "The password has been added successfully", true},
		{"added successfully", "The password has been deleted", false},
		{"/has been (added|updated)/", "The password has been updated", true},
		{"/PASSWORD/i", "the password", true},
		{"/PASSWORD/", "the password", false},
		{"/", "a / b", true},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			match, err := messageMatcher(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.match, match(tt.text))
		})
	}

	_, err := messageMatcher("/(/")
	assert.Error(t, err)
}

func TestNotificationID(t *testing.T) {
	id := NotificationID(NotifyResourceAdded)
	assert.Equal(t, fixtures.UUID(NotifyResourceAdded), id)
	assert.Equal(t, id, NotificationID(NotifyResourceAdded), "ids are deterministic")
	assert.NotEqual(t, id, NotificationID(NotifyResourceDeleted))
	assert.Equal(t, "notification_"+id, NotificationElementID(NotifyResourceAdded))
}

func TestAssertNotification(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	d.Add(&browsertest.Node{ID: NotificationElementID(NotifyResourceAdded), Text: "The password has been added successfully"})
	h := newHarness(t, d)

	require.NoError(t, h.AssertNotification(ctx, NotifyResourceAdded))
	require.NoError(t, h.AssertNotification(ctx, NotifyResourceAdded, "/ADDED/i"))

	err := h.AssertNotification(ctx, NotifyResourceAdded, "deleted")
	assert.ErrorIs(t, err, ErrAssertion)

	err = h.AssertNotification(ctx, NotifyResourceDeleted)
	assert.ErrorIs(t, err, wait.ErrTimeout)

	d.Remove(NotificationElementID(NotifyResourceAdded))
	require.NoError(t, h.WaitUntilNotificationDisappears(ctx, NotifyResourceAdded))
}

// securityToken adds a token showing user colours that swap while field has
// focus. Clicking the token restores them.
func securityToken(d *browsertest.Driver, u fixtures.User, field string) *browsertest.Node {
	token := &browsertest.Node{
		Selectors: []string{".security-token"},
		Text:      u.TokenCode,
		CSS:       map[string]string{"background-color": u.TokenColor, "color": u.TokenTextColor},
	}
	token.OnClick = func(d *browsertest.Driver, n *browsertest.Node) {
		d.Update(func() {
			n.CSS["background-color"] = u.TokenColor
			n.CSS["color"] = u.TokenTextColor
		})
	}
	d.Add(token, &browsertest.Node{ID: field, OnClick: func(d *browsertest.Driver, _ *browsertest.Node) {
		d.Update(func() {
			token.CSS["background-color"] = u.TokenTextColor
			token.CSS["color"] = u.TokenColor
		})
	}})
	return token
}

func TestAssertSecurityToken(t *testing.T) {
	ctx := context.Background()
	ada := fixtures.Default().MustUser("ada")

	t.Run("secret field", func(t *testing.T) {
		d := browsertest.New()
		token := securityToken(d, ada, "js_secret")
		h := newHarness(t, d)

		require.NoError(t, h.AssertSecurityToken(ctx, ada, TokenSecret))
		d.Update(func() {
			assert.Equal(t, ada.TokenColor, token.CSS["background-color"], "token restored")
		})
	})

	t.Run("share field", func(t *testing.T) {
		d := browsertest.New()
		securityToken(d, ada, "js_perm_create_form_aro_auto_cplt")
		h := newHarness(t, d)

		require.NoError(t, h.AssertSecurityToken(ctx, ada, TokenShare))
	})

	t.Run("colours written as rgb", func(t *testing.T) {
		d := browsertest.New()
		d.Add(&browsertest.Node{
			Selectors: []string{".security-token"},
			Text:      ada.TokenCode,
			CSS:       map[string]string{"background-color": "rgba(255, 58, 58, 1)", "color": "rgb(255, 255, 255)"},
		})
		h := newHarness(t, d)

		require.NoError(t, h.AssertSecurityToken(ctx, ada, TokenEncryptedSecret))
	})

	t.Run("wrong colour", func(t *testing.T) {
		d := browsertest.New()
		d.Add(&browsertest.Node{
			Selectors: []string{".security-token"},
			Text:      ada.TokenCode,
			CSS:       map[string]string{"background-color": "#000000", "color": ada.TokenTextColor},
		})
		h := newHarness(t, d)

		err := h.AssertSecurityToken(ctx, ada, TokenEncryptedSecret)
		var ae *AssertionError
		require.True(t, errors.As(err, &ae), "got %v", err)
		assert.Contains(t, ae.What, "background-color")
	})

	t.Run("no swap on focus", func(t *testing.T) {
		d := browsertest.New()
		d.Add(
			&browsertest.Node{
				Selectors: []string{".security-token"},
				Text:      ada.TokenCode,
				CSS:       map[string]string{"background-color": ada.TokenColor, "color": ada.TokenTextColor},
			},
			&browsertest.Node{ID: "js_secret"},
		)
		h := newHarness(t, d)

		assert.ErrorIs(t, h.AssertSecurityToken(ctx, ada, TokenSecret), ErrAssertion)
	})

	t.Run("wrong code", func(t *testing.T) {
		d := browsertest.New()
		securityToken(d, ada, "js_secret")
		h := newHarness(t, d)

		betty := fixtures.Default().MustUser("betty")
		assert.ErrorIs(t, h.AssertSecurityToken(ctx, betty, TokenSecret), ErrAssertion)
	})
}

// clipboardPage answers the scripts AssertClipboard runs to add and remove its
// textarea.
func clipboardPage(d *browsertest.Driver) {
	d.Add(&browsertest.Node{ID: "container"})
	d.ScriptFunc = func(script string, args []any) (any, error) {
		switch script {
		case jsAppendHTML:
			if args[0] != "container" {
				return false, nil
			}
			d.Add(&browsertest.Node{ID: "webdriver-clipboard-content"})
			return true, nil
		case jsRemoveElement:
			d.Remove(args[0].(string))
		}
		return nil, nil
	}
}

func TestAssertClipboard(t *testing.T) {
	ctx := context.Background()

	t.Run("matching content", func(t *testing.T) {
		d := browsertest.New()
		clipboardPage(d)
		d.Clipboard = "_upjvh-p@wAHP18D}OmY05M"
		h := newHarness(t, d)

		require.NoError(t, h.AssertClipboard(ctx, "_upjvh-p@wAHP18D}OmY05M"))
		present, err := browser.IsPresent(ctx, d, browser.ID("webdriver-clipboard-content"))
		require.NoError(t, err)
		assert.False(t, present, "paste area removed")
	})

	t.Run("other content", func(t *testing.T) {
		d := browsertest.New()
		clipboardPage(d)
		d.Clipboard = "something else"
		h := newHarness(t, d)

		err := h.AssertClipboard(ctx, "secret")
		var ae *AssertionError
		require.True(t, errors.As(err, &ae), "got %v", err)
		assert.Equal(t, "something else", ae.Actual)
		present, perr := browser.IsPresent(ctx, d, browser.ID("webdriver-clipboard-content"))
		require.NoError(t, perr)
		assert.False(t, present, "paste area removed on failure too")
	})
}

func TestAppendHTMLMissingParent(t *testing.T) {
	d := browsertest.New()
	d.ScriptFunc = func(string, []any) (any, error) { return false, nil }
	h := newHarness(t, d)

	err := h.AppendHTMLInPage(context.Background(), "nowhere", "<p></p>")
	assert.ErrorIs(t, err, browser.ErrNoSuchElement)
}

// shareDialog fakes an open share dialog listing ada as the only owner and
// betty with read access. The first row belongs to an aro whose name contains
// ada's, so rows must be matched on their whole label.
func shareDialog(d *browsertest.Driver) (changes *browsertest.Node) {
	changes = &browsertest.Node{Selectors: []string{".share-password-dialog #js_permissions_changes"}}
	options := func(selected string) []*browsertest.Node {
		var out []*browsertest.Node
		for _, p := range []fixtures.PermissionType{fixtures.Read, fixtures.Update, fixtures.Owner} {
			out = append(out, &browsertest.Node{Text: p.Label(), Selected: p.Label() == selected})
		}
		return out
	}
	d.Add(
		&browsertest.Node{Selectors: []string{".page.password"}},
		&browsertest.Node{Selectors: []string{"#js_rs_permission"}},
		&browsertest.Node{Selectors: []string{"#js_permissions_list"}, Text: "Nada Lovelace nada@passbolt.com Ada Lovelace ada@passbolt.com Betty Holberton betty@passbolt.com"},
		&browsertest.Node{
			Selectors: []string{"#js_permissions_list li"},
			Text:      "Nada Lovelace nada@passbolt.com",
			Children: []*browsertest.Node{
				{Selectors: []string{"*"}, Text: "Nada Lovelace"},
				{Selectors: []string{"*"}, Text: "nada@passbolt.com"},
				{Selectors: []string{".js_share_rs_perm_type"}, Children: options(fixtures.Update.Label())},
				{Selectors: []string{".js_perm_delete"}},
			},
		},
		&browsertest.Node{
			Selectors: []string{"#js_permissions_list li"},
			Text:      "Ada Lovelace ada@passbolt.com",
			Children: []*browsertest.Node{
				{Selectors: []string{"*"}, Text: "Ada Lovelace"},
				{Selectors: []string{"*"}, Text: "ada@passbolt.com"},
				{Selectors: []string{".js_share_rs_perm_type"}, Disabled: true, Children: options(fixtures.Owner.Label())},
				{Selectors: []string{".js_perm_delete"}, Classes: []string{"disabled"}},
			},
		},
		&browsertest.Node{
			Selectors: []string{"#js_permissions_list li"},
			Text:      "Betty Holberton betty@passbolt.com",
			Children: []*browsertest.Node{
				{Selectors: []string{"*"}, Text: "Betty Holberton"},
				{Selectors: []string{"*"}, Text: "betty@passbolt.com"},
				{
					Selectors: []string{".js_share_rs_perm_type"},
					Children:  options(fixtures.Read.Label()),
					OnChange: func(d *browsertest.Driver, _ *browsertest.Node) {
						d.Update(func() { changes.Text = pendingShareChanges })
					},
				},
				{Selectors: []string{".js_perm_delete"}},
			},
		},
		changes,
	)
	return changes
}

func TestShareDialogPermissions(t *testing.T) {
	ctx := context.Background()
	id := fixtures.ResourceID("apache")
	d := browsertest.New()
	shareDialog(d)
	h := newHarness(t, d)

	disabled, err := h.IsPermissionChangeDisabled(ctx, id, "ada@passbolt.com")
	require.NoError(t, err)
	assert.True(t, disabled, "last owner cannot be downgraded")
	disabled, err = h.IsPermissionDeleteDisabled(ctx, id, "ada@passbolt.com")
	require.NoError(t, err)
	assert.True(t, disabled, "last owner cannot be removed")

	disabled, err = h.IsPermissionChangeDisabled(ctx, id, "betty@passbolt.com")
	require.NoError(t, err)
	assert.False(t, disabled)
	disabled, err = h.IsPermissionDeleteDisabled(ctx, id, "betty@passbolt.com")
	require.NoError(t, err)
	assert.False(t, disabled)

	require.NoError(t, h.AssertPermission(ctx, id, "ada@passbolt.com", fixtures.Owner, false))
	require.NoError(t, h.AssertPermission(ctx, id, "betty@passbolt.com", fixtures.Read, false))
	assert.ErrorIs(t, h.AssertPermission(ctx, id, "betty@passbolt.com", fixtures.Update, false), ErrAssertion)

	require.NoError(t, h.EditTemporaryPermission(ctx, id, "betty@passbolt.com", fixtures.Update))
	require.NoError(t, h.AssertPermission(ctx, id, "betty@passbolt.com", fixtures.Update, false))

	require.NoError(t, h.AssertNoPermission(ctx, id, "carol@passbolt.com"))
	assert.ErrorIs(t, h.AssertNoPermission(ctx, id, "betty@passbolt.com"), ErrAssertion)

	t.Run("row matched on its whole label", func(t *testing.T) {
		// nada@passbolt.com comes first and contains ada@passbolt.com.
		require.NoError(t, h.AssertPermission(ctx, id, "nada@passbolt.com", fixtures.Update, false))
		require.NoError(t, h.AssertPermission(ctx, id, "ada@passbolt.com", fixtures.Owner, false))
		require.NoError(t, h.AssertPermission(ctx, id, "Ada Lovelace", fixtures.Owner, false))

		_, err := h.IsPermissionChangeDisabled(ctx, id, "Lovelace")
		assert.ErrorIs(t, err, wait.ErrTimeout, "a partial label matches no row")
	})
}

func TestPluginState(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	h := newHarness(t, d)

	assert.ErrorIs(t, h.AssertPluginNotConfigured(ctx), ErrAssertion)
	d.Add(&browsertest.Node{Selectors: []string{"html.passboltplugin.no-passboltconfig"}})
	assert.NoError(t, h.AssertPluginNotConfigured(ctx))
}

func TestImmediateAndWaitingVisibility(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New()
	hidden := &browsertest.Node{ID: "later", Hidden: true}
	d.Add(hidden)
	h := newHarness(t, d)

	require.NoError(t, h.AssertNotVisible(ctx, browser.ID("later")))
	require.NoError(t, h.AssertPageContainsElement(ctx, browser.ID("later")))
	assert.ErrorIs(t, h.AssertElementNotPresent(ctx, browser.ID("later")), ErrAssertion)

	d.Update(func() { hidden.Hidden = false })
	require.NoError(t, h.AssertVisible(ctx, browser.ID("later")))
	assert.ErrorIs(t, h.AssertNotVisible(ctx, browser.ID("later")), ErrAssertion)
}
