// internal/browser/driver_test.go
package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		locator string
		want    Selector
	}{
		{"loginSubmit", Selector{By: ByIDOrCSS, Value: "loginSubmit"}},
		{"body", Selector{By: ByIDOrCSS, Value: "body"}},
		{"js_master_password", Selector{By: ByIDOrCSS, Value: "js_master_password"}},
		{"#js_wsp_create_button", CSS("#js_wsp_create_button")},
		{".create-password-dialog", CSS(".create-password-dialog")},
		{"html.loaded", CSS("html.loaded")},
		{"#passbolt-iframe-login-form.ready", CSS("#passbolt-iframe-login-form.ready")},
	}
	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.locator))
		})
	}
}

func TestSelectorCandidates(t *testing.T) {
	assert.Equal(t, []string{`[id="js_secret"]`}, ID("js_secret").Candidates())
	assert.Equal(t, []string{".logout"}, CSS(".logout").Candidates())
	assert.Equal(t, []string{`[id="body"]`, "body"}, Resolve("body").Candidates())

	assert.Equal(t, "#js_secret", ID("js_secret").String())
	assert.Equal(t, ".logout", CSS(".logout").String())
}

// stubFinder returns a fixed result for every lookup.
type stubFinder struct {
	el  Element
	err error
}

func (f stubFinder) Find(context.Context, Selector) (Element, error)      { return f.el, f.err }
func (f stubFinder) FindAll(context.Context, Selector) ([]Element, error) { return nil, f.err }

func TestTryFind(t *testing.T) {
	ctx := context.Background()

	t.Run("missing element is not an error", func(t *testing.T) {
		el, found, err := TryFind(ctx, stubFinder{err: notFound(ID("x"))}, ID("x"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, el)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, found, err := TryFind(ctx, stubFinder{err: boom}, ID("x"))
		assert.ErrorIs(t, err, boom)
		assert.False(t, found)
	})

	t.Run("stale errors propagate", func(t *testing.T) {
		_, _, err := TryFind(ctx, stubFinder{err: ErrStaleElement}, ID("x"))
		assert.ErrorIs(t, err, ErrStaleElement)
	})

	t.Run("IsPresent", func(t *testing.T) {
		ok, err := IsPresent(ctx, stubFinder{err: notFound(ID("x"))}, ID("x"))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNotFoundMentionsSelector(t *testing.T) {
	err := notFound(CSS(".logout"))
	assert.ErrorIs(t, err, ErrNoSuchElement)
	assert.Contains(t, err.Error(), ".logout")
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	stale := classify(errors.New("could not call function: No node with given id found (-32000)"))
	assert.ErrorIs(t, stale, ErrStaleElement)

	other := errors.New("websocket: close 1006")
	assert.Same(t, other, classify(other))
}
