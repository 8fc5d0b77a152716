package passbolt

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/selectors"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

// find waits for sel to be present in the current document.
func (h *Harness) find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	return wait.Present(ctx, h.Driver(), sel, h.waitOpts()...)
}

// isVisible reports, without waiting, whether sel is displayed.
func (h *Harness) isVisible(ctx context.Context, sel browser.Selector) (bool, error) {
	el, found, err := browser.TryFind(ctx, h.Driver(), sel)
	if err != nil || !found {
		return false, err
	}
	return el.IsDisplayed(ctx)
}

// isPresent reports, without waiting, whether sel matches anything.
func (h *Harness) isPresent(ctx context.Context, sel browser.Selector) (bool, error) {
	return browser.IsPresent(ctx, h.Driver(), sel)
}

func (h *Harness) clickSel(ctx context.Context, sel browser.Selector) error {
	el, err := wait.Visible(ctx, h.Driver(), sel, h.waitOpts()...)
	if err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

func (h *Harness) click(ctx context.Context, name selectors.Name, args ...any) error {
	return h.clickSel(ctx, h.s(name, args...))
}

// Click clicks the element behind a loose locator: a bare id or a CSS query.
func (h *Harness) Click(ctx context.Context, locator string) error {
	return h.clickSel(ctx, browser.Resolve(locator))
}

// InputText replaces the value of the field behind locator with text.
func (h *Harness) InputText(ctx context.Context, locator, text string) error {
	return h.inputSel(ctx, browser.Resolve(locator), text)
}

func (h *Harness) input(ctx context.Context, name selectors.Name, text string) error {
	return h.inputSel(ctx, h.s(name), text)
}

func (h *Harness) inputSel(ctx context.Context, sel browser.Selector, text string) error {
	el, err := h.find(ctx, sel)
	if err != nil {
		return fmt.Errorf("input into %s: %w", sel, err)
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", sel, err)
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return fmt.Errorf("input into %s: %w", sel, err)
	}
	return nil
}

// CheckCheckbox ticks the checkbox behind locator unless it is already ticked.
func (h *Harness) CheckCheckbox(ctx context.Context, locator string) error {
	return h.checkSel(ctx, browser.Resolve(locator))
}

func (h *Harness) checkSel(ctx context.Context, sel browser.Selector) error {
	el, err := h.find(ctx, sel)
	if err != nil {
		return fmt.Errorf("check %s: %w", sel, err)
	}
	checked, err := el.IsSelected(ctx)
	if err != nil {
		return fmt.Errorf("check %s: %w", sel, err)
	}
	if checked {
		return nil
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("check %s: %w", sel, err)
	}
	return nil
}

// findLink returns the first link whose text equals text, ignoring case.
func (h *Harness) findLink(ctx context.Context, text string) (browser.Element, error) {
	var link browser.Element
	err := wait.Until(ctx, wait.Func(fmt.Sprintf("link %q to be present", text), func(ctx context.Context) (bool, error) {
		links, err := h.Driver().FindAll(ctx, h.s(selectors.Link))
		if err != nil {
			return false, err
		}
		for _, l := range links {
			t, err := l.Text(ctx)
			if err != nil {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(t), text) {
				link = l
				return true, nil
			}
		}
		return false, nil
	}), h.waitOpts()...)
	return link, err
}

// ClickLink clicks the link whose text is text, ignoring case.
func (h *Harness) ClickLink(ctx context.Context, text string) error {
	link, err := h.findLink(ctx, text)
	if err != nil {
		return fmt.Errorf("click link %q: %w", text, err)
	}
	return link.Click(ctx)
}

// FollowLink navigates to the href of the link whose text is text.
func (h *Harness) FollowLink(ctx context.Context, text string) error {
	link, err := h.findLink(ctx, text)
	if err != nil {
		return fmt.Errorf("follow link %q: %w", text, err)
	}
	href, ok, err := link.Attribute(ctx, "href")
	if err != nil {
		return err
	}
	if !ok || href == "" {
		return fmt.Errorf("link %q has no href", text)
	}
	return h.GetURL(ctx, href)
}

func (h *Harness) PressEnter(ctx context.Context) error {
	return h.Driver().Keyboard(ctx, browser.KeyEnter)
}

func (h *Harness) PressTab(ctx context.Context) error {
	return h.Driver().Keyboard(ctx, browser.KeyTab)
}

func (h *Harness) PressBackspace(ctx context.Context) error {
	return h.Driver().Keyboard(ctx, browser.KeyBackspace)
}

func (h *Harness) PressEscape(ctx context.Context) error {
	return h.Driver().Keyboard(ctx, browser.KeyEscape)
}

const jsCaretToEnd = `var el = document.getElementById(arguments[0]);
if (el && el.setSelectionRange) { var n = (el.value || '').length; el.setSelectionRange(n, n); }`

// EmptyFieldLikeAUser focuses the field, puts the caret at the end and
// erases the value one backspace at a time.
func (h *Harness) EmptyFieldLikeAUser(ctx context.Context, id string) error {
	el, err := h.find(ctx, browser.ID(id))
	if err != nil {
		return fmt.Errorf("empty field %s: %w", id, err)
	}
	value, err := el.Value(ctx)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("empty field %s: %w", id, err)
	}
	if _, err := h.Driver().ExecuteScript(ctx, jsCaretToEnd, id); err != nil {
		return fmt.Errorf("empty field %s: %w", id, err)
	}
	for range []rune(value) {
		if err := h.PressBackspace(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TypeTextLikeAUser focuses the field with the given id and sends text one
// key at a time. An empty id types into whatever element has the focus.
func (h *Harness) TypeTextLikeAUser(ctx context.Context, id, text string) error {
	if id != "" {
		el, err := h.find(ctx, browser.ID(id))
		if err != nil {
			return fmt.Errorf("type into %s: %w", id, err)
		}
		if err := el.Click(ctx); err != nil {
			return fmt.Errorf("type into %s: %w", id, err)
		}
	}
	for _, r := range text {
		if err := h.Driver().Keyboard(ctx, string(r)); err != nil {
			return fmt.Errorf("type %q: %w", text, err)
		}
	}
	return nil
}

const jsAppendHTML = `var el = document.getElementById(arguments[0]);
if (!el) { return false; }
var div = document.createElement('div');
div.innerHTML = arguments[1];
while (div.firstChild) { el.appendChild(div.firstChild); }
return true;`

// AppendHTMLInPage appends html as children of the element with id parentID.
func (h *Harness) AppendHTMLInPage(ctx context.Context, parentID, html string) error {
	res, err := h.Driver().ExecuteScript(ctx, jsAppendHTML, parentID, html)
	if err != nil {
		return fmt.Errorf("append html into %s: %w", parentID, err)
	}
	if res != nil && !cast.ToBool(res) {
		return fmt.Errorf("append html: %w: #%s", browser.ErrNoSuchElement, parentID)
	}
	return nil
}

const jsRemoveElement = `var el = document.getElementById(arguments[0]);
if (el) { el.parentNode.removeChild(el); }`

// RemoveElementFromPage detaches the element with the given id, if any.
func (h *Harness) RemoveElementFromPage(ctx context.Context, id string) error {
	if _, err := h.Driver().ExecuteScript(ctx, jsRemoveElement, id); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

const jsTriggerEvent = `var evt = document.createEvent('MouseEvents');
evt.initEvent(arguments[0], true, false);
window.dispatchEvent(evt);`

// TriggerEvent dispatches a bubbling DOM event named name on window. The
// extension listens to these on its debug page.
func (h *Harness) TriggerEvent(ctx context.Context, name string) error {
	if _, err := h.Driver().ExecuteScript(ctx, jsTriggerEvent, name); err != nil {
		return fmt.Errorf("trigger %s: %w", name, err)
	}
	return nil
}

const jsScrollToBottom = `var el = document.getElementById(arguments[0]);
if (el) { el.scrollTop = el.scrollHeight; }`

// ScrollElementToBottom scrolls the element with the given id to its end.
func (h *Harness) ScrollElementToBottom(ctx context.Context, id string) error {
	if _, err := h.Driver().ExecuteScript(ctx, jsScrollToBottom, id); err != nil {
		return fmt.Errorf("scroll %s: %w", id, err)
	}
	return nil
}

// jsMouseDown fires the mousedown the application opens its contextual menu on.
const jsMouseDown = `jQuery(arguments[0]).trigger({type: 'mousedown', which: arguments[1]});`

func (h *Harness) mouseDown(ctx context.Context, sel browser.Selector, button int) error {
	if _, err := h.Driver().ExecuteScript(ctx, jsMouseDown, sel.Value, button); err != nil {
		return fmt.Errorf("mousedown on %s: %w", sel, err)
	}
	return nil
}

// ReleaseFocus clicks the page background so that no row stays active.
func (h *Harness) ReleaseFocus(ctx context.Context) error {
	return h.click(ctx, selectors.Container)
}

// WaitUntilISee waits for sel to be visible. With a pattern the element text
// must match it too.
func (h *Harness) WaitUntilISee(ctx context.Context, locator string, pattern ...*regexp.Regexp) error {
	return h.waitSee(ctx, browser.Resolve(locator), pattern...)
}

func (h *Harness) waitSee(ctx context.Context, sel browser.Selector, pattern ...*regexp.Regexp) error {
	if _, err := wait.Visible(ctx, h.Driver(), sel, h.waitOpts()...); err != nil {
		return err
	}
	if len(pattern) == 0 || pattern[0] == nil {
		return nil
	}
	return wait.TextMatches(ctx, h.Driver(), sel, pattern[0], h.waitOpts()...)
}

func (h *Harness) see(ctx context.Context, name selectors.Name, args ...any) error {
	_, err := wait.Visible(ctx, h.Driver(), h.s(name, args...), h.waitOpts()...)
	return err
}

// seeText waits for the hook to be visible with text matching re.
func (h *Harness) seeText(ctx context.Context, re *regexp.Regexp, name selectors.Name, args ...any) error {
	return h.waitSee(ctx, h.s(name, args...), re)
}

// WaitUntilIDontSee waits for sel to be hidden or gone.
func (h *Harness) WaitUntilIDontSee(ctx context.Context, locator string) error {
	return wait.NotVisible(ctx, h.Driver(), browser.Resolve(locator), h.waitOpts()...)
}

func (h *Harness) unsee(ctx context.Context, name selectors.Name, args ...any) error {
	return wait.NotVisible(ctx, h.Driver(), h.s(name, args...), h.waitOpts()...)
}

// rowContaining returns the first row under rowSel whose text contains needle.
// It waits for the row to show up.
func (h *Harness) rowContaining(ctx context.Context, rowSel browser.Selector, needle string) (browser.Element, error) {
	return h.waitRow(ctx, fmt.Sprintf("row containing %q", needle), rowSel, func(ctx context.Context) (browser.Element, error) {
		return h.findRow(ctx, rowSel, needle)
	})
}

// rowLabelled returns the first row under rowSel holding an element whose
// whole text is label, so that "ada" never picks the row of "Ada Lovelace".
// It waits for the row to show up.
func (h *Harness) rowLabelled(ctx context.Context, rowSel browser.Selector, label string) (browser.Element, error) {
	return h.waitRow(ctx, fmt.Sprintf("row labelled %q", label), rowSel, func(ctx context.Context) (browser.Element, error) {
		return h.findLabelledRow(ctx, rowSel, label)
	})
}

func (h *Harness) waitRow(ctx context.Context, desc string, rowSel browser.Selector, find func(context.Context) (browser.Element, error)) (browser.Element, error) {
	var row browser.Element
	err := wait.Until(ctx, wait.Condition{
		Description: desc,
		Selector:    rowSel.String(),
		Check: func(ctx context.Context) (bool, error) {
			var err error
			row, err = find(ctx)
			return row != nil, err
		},
	}, h.waitOpts()...)
	return row, err
}

// findRow is rowContaining without waiting. It returns nil when no row matches.
func (h *Harness) findRow(ctx context.Context, rowSel browser.Selector, needle string) (browser.Element, error) {
	rows, err := h.Driver().FindAll(ctx, rowSel)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		text, err := r.Text(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(text, needle) {
			return r, nil
		}
	}
	return nil, nil
}

// findLabelledRow is rowLabelled without waiting. It returns nil when no row matches.
func (h *Harness) findLabelledRow(ctx context.Context, rowSel browser.Selector, label string) (browser.Element, error) {
	rows, err := h.Driver().FindAll(ctx, rowSel)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		cells, err := r.FindAll(ctx, h.s(selectors.RowLabel))
		if err != nil {
			continue
		}
		for _, c := range cells {
			text, err := c.Text(ctx)
			if err == nil && strings.TrimSpace(text) == label {
				return r, nil
			}
		}
	}
	return nil, nil
}

// ci builds a case-insensitive pattern matching s literally.
func ci(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}
