package compositor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanchriswhite/xscreen/internal/window/windowtest"
)

func TestSelectionName(t *testing.T) {
	assert.Equal(t, "_NET_WM_CM_S0", SelectionName(0))
	assert.Equal(t, "_NET_WM_CM_S2", SelectionName(2))
}

func TestHasCompositor(t *testing.T) {
	t.Run("owned selection", func(t *testing.T) {
		b := windowtest.New()
		b.Owners[b.Atom("_NET_WM_CM_S0")] = 0x200001
		assert.True(t, HasCompositor(b))
	})

	t.Run("no owner", func(t *testing.T) {
		b := windowtest.New()
		assert.False(t, HasCompositor(b))
	})

	t.Run("uses the default screen", func(t *testing.T) {
		b := windowtest.New()
		b.Screen = 1
		b.Owners[b.Atom("_NET_WM_CM_S0")] = 0x200001
		assert.False(t, HasCompositor(b))

		b.Owners[b.Atom("_NET_WM_CM_S1")] = 0x200002
		assert.True(t, HasCompositor(b))
	})

	t.Run("missing atom is not created", func(t *testing.T) {
		b := windowtest.New()
		assert.False(t, HasCompositor(b))
		assert.NotContains(t, b.Atoms, "_NET_WM_CM_S0")
		assert.Zero(t, b.Count("InternAtom"))
		assert.Zero(t, b.Count("SelectionOwner"))
	})

	t.Run("lookup failure", func(t *testing.T) {
		b := windowtest.New()
		b.Owners[b.Atom("_NET_WM_CM_S0")] = 0x200001
		b.Fail["LookupAtom"] = errors.New("broken pipe")
		assert.False(t, HasCompositor(b))
	})

	t.Run("query failure", func(t *testing.T) {
		b := windowtest.New()
		b.Owners[b.Atom("_NET_WM_CM_S0")] = 0x200001
		b.Fail["SelectionOwner"] = errors.New("broken pipe")
		assert.False(t, HasCompositor(b))
	})
}
