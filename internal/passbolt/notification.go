package passbolt

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// Notification keys used by the actions.
const (
	NotifyResourceAdded   = "app_resources_add_success"
	NotifyResourceEdited  = "app_resources_edit_success"
	NotifyResourceDeleted = "app_resources_delete_success"
	NotifyShareUpdated    = "app_share_update_success"
	NotifyGroupAdded      = "app_groups_add_success"
	NotifyGroupEdited     = "app_groups_edit_success"
	NotifyGroupDeleted    = "app_groups_delete_success"
	NotifyUserAdded       = "app_users_add_success"
	NotifyUserEdited      = "app_users_edit_success"
	NotifyUserDeleted     = "app_users_delete_success"
	NotifyCommentAdded    = "app_comments_addforeigncomment_success"
	NotifyClipboardCopied = "plugin_clipboard_copy_success"
)

// NotificationID is the deterministic id the application gives the
// notification for key.
func NotificationID(key string) string {
	return fixtures.UUID(key)
}

// NotificationElementID is the DOM id of the notification for key.
func NotificationElementID(key string) string {
	return "notification_" + NotificationID(key)
}

// regexLiteral recognizes messages written as /pattern/flags.
var regexLiteral = regexp.MustCompile(`^/(.+)/([a-z]*)$`)

// messageMatcher turns msg into a predicate. A /pattern/flags literal is a
// regular expression (only the i flag is honoured); anything else is a substring.
func messageMatcher(msg string) (func(string) bool, error) {
	m := regexLiteral.FindStringSubmatch(msg)
	if m == nil {
		return func(s string) bool { return strings.Contains(s, msg) }, nil
	}
	pattern := m[1]
	if strings.Contains(m[2], "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid notification pattern %q: %w", msg, err)
	}
	return re.MatchString, nil
}

// AssertNotification waits for the notification for key. When msg is given
// the notification text must contain it, or match it if msg is /regexp/.
func (h *Harness) AssertNotification(ctx context.Context, key string, msg ...string) error {
	sel := h.s(selectors.Notification, NotificationID(key))
	el, err := wait.Visible(ctx, h.Driver(), sel, h.waitOpts()...)
	if err != nil {
		return fmt.Errorf("notification %s: %w", key, err)
	}
	if len(msg) == 0 || msg[0] == "" {
		return nil
	}
	match, err := messageMatcher(msg[0])
	if err != nil {
		return err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return fmt.Errorf("notification %s: %w", key, err)
	}
	if !match(text) {
		return fail("notification "+key+" message", msg[0], text)
	}
	return nil
}

// WaitForNotification waits until the notification for key shows up and then
// until it goes away.
func (h *Harness) WaitForNotification(ctx context.Context, key string) error {
	if err := h.AssertNotification(ctx, key); err != nil {
		return err
	}
	return h.WaitUntilNotificationDisappears(ctx, key)
}

// WaitUntilNotificationDisappears waits until the notification for key is gone.
func (h *Harness) WaitUntilNotificationDisappears(ctx context.Context, key string) error {
	sel := h.s(selectors.Notification, NotificationID(key))
	if err := wait.NotVisible(ctx, h.Driver(), sel, h.waitOpts()...); err != nil {
		return fmt.Errorf("notification %s: %w", key, err)
	}
	return nil
}
