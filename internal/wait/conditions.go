package wait

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/color"
)

// Present waits until sel matches an element and returns it.
func Present(ctx context.Context, f browser.Finder, sel browser.Selector, opts ...Option) (browser.Element, error) {
	var found browser.Element
	err := Until(ctx, Condition{
		Description: "element to be present",
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, err := f.Find(ctx, sel)
			if err != nil {
				return false, err
			}
			found = el
			return true, nil
		},
	}, opts...)
	return found, err
}

// Visible waits until sel matches a displayed element and returns it.
func Visible(ctx context.Context, f browser.Finder, sel browser.Selector, opts ...Option) (browser.Element, error) {
	var found browser.Element
	err := Until(ctx, Condition{
		Description: "element to be visible",
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, err := f.Find(ctx, sel)
			if err != nil {
				return false, err
			}
			ok, err := el.IsDisplayed(ctx)
			if err != nil || !ok {
				return false, err
			}
			found = el
			return true, nil
		},
	}, opts...)
	return found, err
}

// Absent waits until sel matches nothing.
func Absent(ctx context.Context, f browser.Finder, sel browser.Selector, opts ...Option) error {
	return Until(ctx, Condition{
		Description: "element to be absent",
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			present, err := browser.IsPresent(ctx, f, sel)
			return !present, err
		},
	}, opts...)
}

// NotVisible waits until sel is hidden or gone. A node that detaches while being
// checked counts as gone.
func NotVisible(ctx context.Context, f browser.Finder, sel browser.Selector, opts ...Option) error {
	return Until(ctx, Condition{
		Description: "element to be hidden",
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, found, err := browser.TryFind(ctx, f, sel)
			if err != nil || !found {
				return !found && err == nil, err
			}
			shown, err := el.IsDisplayed(ctx)
			if errors.Is(err, browser.ErrStaleElement) {
				return true, nil
			}
			return !shown, err
		},
	}, opts...)
}

// TextMatches waits until the text of sel matches re.
func TextMatches(ctx context.Context, f browser.Finder, sel browser.Selector, re *regexp.Regexp, opts ...Option) error {
	return textUntil(ctx, f, sel, fmt.Sprintf("text to match %q", re.String()), re.MatchString, opts)
}

// TextContains waits until the text of sel contains s.
func TextContains(ctx context.Context, f browser.Finder, sel browser.Selector, s string, opts ...Option) error {
	return textUntil(ctx, f, sel, fmt.Sprintf("text to contain %q", s), func(text string) bool {
		return strings.Contains(text, s)
	}, opts)
}

func textUntil(ctx context.Context, f browser.Finder, sel browser.Selector, desc string, match func(string) bool, opts []Option) error {
	return Until(ctx, Condition{
		Description: desc,
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, err := f.Find(ctx, sel)
			if err != nil {
				return false, err
			}
			text, err := el.Text(ctx)
			if err != nil {
				return false, err
			}
			return match(text), nil
		},
	}, opts...)
}

// CSSEquals waits until the computed property of sel equals value. Colours are
// normalized on both sides before the exact comparison.
func CSSEquals(ctx context.Context, f browser.Finder, sel browser.Selector, property, value string, opts ...Option) error {
	want := color.Normalize(value)
	return Until(ctx, Condition{
		Description: fmt.Sprintf("css %s to equal %q", property, value),
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, err := f.Find(ctx, sel)
			if err != nil {
				return false, err
			}
			got, err := el.CSSValue(ctx, property)
			if err != nil {
				return false, err
			}
			return color.Normalize(got) == want, nil
		},
	}, opts...)
}

// HasClass waits until sel carries class cls.
func HasClass(ctx context.Context, f browser.Finder, sel browser.Selector, cls string, opts ...Option) error {
	return Until(ctx, Condition{
		Description: fmt.Sprintf("element to have class %q", cls),
		Selector:    sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			el, err := f.Find(ctx, sel)
			if err != nil {
				return false, err
			}
			return el.HasClass(ctx, cls)
		},
	}, opts...)
}

// HasFocus waits until the element with the given id is the active element.
func HasFocus(ctx context.Context, d browser.Driver, id string, opts ...Option) error {
	return Until(ctx, Condition{
		Description: "element to have focus",
		Selector:    browser.ID(id).String(),
		Check: func(ctx context.Context) (bool, error) {
			active, err := d.ActiveElementID(ctx)
			return active == id, err
		},
	}, opts...)
}

// URLMatches waits until the current URL matches re.
func URLMatches(ctx context.Context, d browser.Driver, re *regexp.Regexp, opts ...Option) error {
	return Until(ctx, Func(fmt.Sprintf("url to match %q", re.String()), func(ctx context.Context) (bool, error) {
		u, err := d.CurrentURL(ctx)
		return re.MatchString(u), err
	}), opts...)
}

// Script waits until js, evaluated in the current frame, returns a truthy value.
func Script(ctx context.Context, d browser.Driver, description, js string, opts ...Option) error {
	return Until(ctx, Func(description, func(ctx context.Context) (bool, error) {
		res, err := d.ExecuteScript(ctx, js)
		if err != nil {
			return false, err
		}
		return truthy(res), nil
	}), opts...)
}

// truthy follows JavaScript: null, false, 0, NaN and "" are falsy, objects and
// arrays are not.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case map[string]any, []any:
		return true
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
