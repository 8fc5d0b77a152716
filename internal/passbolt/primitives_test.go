package passbolt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser/browsertest"
	"github.com/xkilldash9x/passbolt-e2e/internal/wait"
)

func TestTypeTextLikeAUser(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (d *browsertest.Driver, focused, field *browsertest.Node, h *Harness) {
		d = browsertest.New()
		focused = &browsertest.Node{ID: "js_search"}
		field = &browsertest.Node{ID: "js_field_name"}
		d.Add(focused, field)
		d.Focus("js_search")
		return d, focused, field, newHarness(t, d)
	}

	t.Run("into the field with id", func(t *testing.T) {
		d, focused, field, h := setup(t)

		require.NoError(t, h.TypeTextLikeAUser(ctx, "js_field_name", "abc"))
		assert.Equal(t, []string{"a", "b", "c"}, d.Keys, "one key at a time")
		d.Update(func() {
			assert.Equal(t, "abc", field.Value)
			assert.Empty(t, focused.Value)
		})
	})

	t.Run("into the focused element", func(t *testing.T) {
		d, focused, field, h := setup(t)

		require.NoError(t, h.TypeTextLikeAUser(ctx, "", "xy"))
		d.Update(func() {
			assert.Equal(t, "xy", focused.Value)
			assert.Empty(t, field.Value)
		})
	})

	t.Run("missing field", func(t *testing.T) {
		d, _, _, h := setup(t)

		err := h.TypeTextLikeAUser(ctx, "js_nowhere", "abc")
		assert.ErrorIs(t, err, wait.ErrTimeout)
		assert.Empty(t, d.Keys, "nothing typed")
	})
}
