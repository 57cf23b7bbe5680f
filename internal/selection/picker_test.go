package selection

import (
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/xscreen/internal/config"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/window/windowtest"
)

// desktop builds a stack of two framed clients, a non-reparented client and
// an iconified client on top
func desktop() *windowtest.Fake {
	b := windowtest.New()
	wmState := b.Atom("WM_STATE")
	root := b.Root()

	b.AddWindow(root, 0x10, geom.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	b.AddWindow(0x10, 0x11, geom.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	b.SetProperty(0x11, wmState, 1)

	b.AddWindow(root, 0x20, geom.Rect{X: 400, Y: 300, Width: 800, Height: 600})
	b.AddWindow(0x20, 0x21, geom.Rect{X: 400, Y: 300, Width: 800, Height: 600})
	b.SetProperty(0x21, wmState, 1)

	b.AddWindow(root, 0x30, geom.Rect{X: 1500, Y: 0, Width: 100, Height: 100})
	b.SetProperty(0x30, wmState, 1)

	b.AddWindow(root, 0x40, geom.Rect{X: 0, Y: 0, Width: 1920, Height: 1080})
	b.AddWindow(0x40, 0x41, geom.Rect{X: 0, Y: 0, Width: 1920, Height: 1080})
	b.SetProperty(0x41, wmState, 3)

	return b
}

func windows(cands []Candidate) []xproto.Window {
	out := make([]xproto.Window, len(cands))
	for i, c := range cands {
		out[i] = c.Window
	}
	return out
}

func TestCandidates(t *testing.T) {
	b := desktop()
	visible, err := NewVisibility(b, config.VisibilityWMState)
	require.NoError(t, err)

	cands, err := Candidates(b, visible, 0)
	require.NoError(t, err)
	assert.Equal(t, []xproto.Window{0x11, 0x21, 0x30}, windows(cands))
	assert.Equal(t, geom.Rect{X: 400, Y: 300, Width: 800, Height: 600}, cands[1].Bounds)
}

func TestCandidatesBoundsInRootCoordinates(t *testing.T) {
	b := windowtest.New()
	wmState := b.Atom("WM_STATE")
	b.AddWindow(b.Root(), 0x10, geom.Rect{X: 100, Y: 50, Width: 400, Height: 300})
	// geometry is parent-relative, the origin comes from translation
	b.AddWindow(0x10, 0x11, geom.Rect{X: 2, Y: 20, Width: 396, Height: 278})
	b.Origins[0x11] = geom.Point{X: 102, Y: 70}
	b.SetProperty(0x11, wmState, 1)

	visible, err := NewVisibility(b, config.VisibilityWMState)
	require.NoError(t, err)

	cands, err := Candidates(b, visible, 0)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, geom.Rect{X: 102, Y: 70, Width: 396, Height: 278}, cands[0].Bounds)
}

func TestCandidatesSkipsBrokenAndExcludedWindows(t *testing.T) {
	b := desktop()
	wmState := b.Atom("WM_STATE")

	// vanished between QueryTree and GetGeometry
	b.Tree[b.Root()] = append(b.Tree[b.Root()], 0x50)
	b.SetProperty(0x50, wmState, 1)

	b.AddWindow(b.Root(), 0x60, geom.Rect{Width: 1920, Height: 1080})
	b.SetProperty(0x60, wmState, 1)

	visible, err := NewVisibility(b, config.VisibilityWMState)
	require.NoError(t, err)

	cands, err := Candidates(b, visible, 0x60)
	require.NoError(t, err)
	assert.Equal(t, []xproto.Window{0x11, 0x21, 0x30}, windows(cands))
}

func TestWorkspaceVisibility(t *testing.T) {
	b := windowtest.New()
	desktopAtom := b.Atom("_NET_WM_DESKTOP")
	b.SetProperty(b.Root(), b.Atom("_NET_CURRENT_DESKTOP"), 1)

	b.AddWindow(b.Root(), 0x10, geom.Rect{Width: 10, Height: 10})
	b.SetProperty(0x10, desktopAtom, 1)
	b.AddWindow(b.Root(), 0x20, geom.Rect{Width: 10, Height: 10})
	b.SetProperty(0x20, desktopAtom, 0)
	b.AddWindow(b.Root(), 0x30, geom.Rect{Width: 10, Height: 10})
	b.SetProperty(0x30, desktopAtom, 0xFFFFFFFF)
	b.AddWindow(b.Root(), 0x40, geom.Rect{Width: 10, Height: 10})

	visible, err := NewVisibility(b, config.VisibilityWorkspace)
	require.NoError(t, err)

	assert.True(t, visible(0x10))
	assert.False(t, visible(0x20))
	assert.True(t, visible(0x30), "sticky windows are on every desktop")
	assert.False(t, visible(0x40))

	cands, err := Candidates(b, visible, 0)
	require.NoError(t, err)
	assert.Equal(t, []xproto.Window{0x10, 0x30}, windows(cands))
}

func TestUnknownVisibility(t *testing.T) {
	_, err := NewVisibility(windowtest.New(), "mapped")
	assert.Error(t, err)
}

func TestHitTest(t *testing.T) {
	cands := []Candidate{
		{Window: 0x11, Bounds: geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}},
		{Window: 0x21, Bounds: geom.Rect{X: 400, Y: 300, Width: 800, Height: 600}},
	}

	tests := []struct {
		name  string
		point geom.Point
		want  xproto.Window
		found bool
	}{
		{"bottom window only", geom.Point{X: 100, Y: 100}, 0x11, true},
		{"overlap picks topmost", geom.Point{X: 500, Y: 400}, 0x21, true},
		{"origin is inside", geom.Point{X: 400, Y: 300}, 0x21, true},
		{"right edge is outside", geom.Point{X: 1200, Y: 400}, 0, false},
		{"outside every window", geom.Point{X: 1500, Y: 1000}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := HitTest(cands, tt.point)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, c.Window)
		})
	}
}

func newPicker(t *testing.T, b *windowtest.Fake, fallback string) *Picker {
	t.Helper()
	p, err := NewPicker(b, newSurface(t, b), PickerOptions{
		Visibility: config.VisibilityWMState,
		Fallback:   fallback,
	})
	require.NoError(t, err)
	return p
}

func TestPick(t *testing.T) {
	b := desktop()
	b.Events = []window.Event{motion(500, 400), press(500, 400)}
	p := newPicker(t, b, config.FallbackRoot)

	c, ok, err := p.Pick()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xproto.Window(0x21), c.Window)
	assert.Equal(t, geom.Rect{X: 400, Y: 300, Width: 800, Height: 600}, c.Bounds)

	grabs := b.CallsNamed("GrabPointer")
	require.Len(t, grabs, 1)
	assert.Equal(t, uint16(0x4|0x40), grabs[0].Args[1])
}

func TestPickKeepsHighlightOutsideWindows(t *testing.T) {
	b := desktop()
	b.Events = []window.Event{
		motion(100, 100),  // 0x11
		motion(110, 110),  // same window, no redraw
		motion(1700, 900), // nothing, highlight unchanged
		press(1700, 900),
	}
	p := newPicker(t, b, config.FallbackRoot)

	c, ok, err := p.Pick()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xproto.Window(0x11), c.Window)
	assert.Equal(t, 1, b.Count("FillRectangle"))
}

func TestPickFollowsPointer(t *testing.T) {
	b := desktop()
	b.Events = []window.Event{motion(100, 100), motion(1550, 50), press(1550, 50)}
	p := newPicker(t, b, config.FallbackRoot)

	c, ok, err := p.Pick()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xproto.Window(0x30), c.Window)
	assert.Equal(t, 2, b.Count("FillRectangle"))
}

func TestPickUsesPointerAfterThrottledMotion(t *testing.T) {
	b := desktop()
	b.Events = []window.Event{
		motion(1550, 50), // 0x30
		motion(100, 100), // 0x11, inside the throttle interval
		press(100, 100),
	}
	surface := newThrottledSurface(t, b, 0, 5*time.Millisecond, 500*time.Millisecond)

	p, err := NewPicker(b, surface, PickerOptions{Visibility: config.VisibilityWMState})
	require.NoError(t, err)

	c, ok, err := p.Pick()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xproto.Window(0x11), c.Window)

	fills := b.CallsNamed("FillRectangle")
	require.Len(t, fills, 2, "held motion still moves the highlight")
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}, fills[1].Args[1])
}

func TestPickHitTestsClickPosition(t *testing.T) {
	b := desktop()
	// the pointer reached 0x11 without any motion being reported
	b.Events = []window.Event{motion(1550, 50), press(100, 100)}
	p := newPicker(t, b, config.FallbackRoot)

	c, ok, err := p.Pick()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xproto.Window(0x11), c.Window)
}

func TestPickIgnoresOverlay(t *testing.T) {
	b := desktop()
	surface := newSurface(t, b)
	b.AddWindow(b.Root(), surface.Window(), surface.Bounds())
	b.SetProperty(surface.Window(), b.Atom("WM_STATE"), 1)
	b.Events = []window.Event{motion(500, 400), press(500, 400)}

	p, err := NewPicker(b, surface, PickerOptions{Visibility: config.VisibilityWMState})
	require.NoError(t, err)

	c, ok, err := p.Pick()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, xproto.Window(0x21), c.Window)
}

func TestPickFallback(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		b := desktop()
		b.Events = []window.Event{press(1700, 900)}
		p := newPicker(t, b, config.FallbackRoot)

		c, ok, err := p.Pick()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, b.Root(), c.Window)
		assert.Equal(t, geom.Rect{Width: 1920, Height: 1080}, c.Bounds)
	})

	t.Run("cancel", func(t *testing.T) {
		b := desktop()
		b.Events = []window.Event{press(1700, 900)}
		p := newPicker(t, b, config.FallbackCancel)

		_, ok, err := p.Pick()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPickCancelled(t *testing.T) {
	tests := []struct {
		name string
		ev   window.Event
	}{
		{"escape", window.KeyPress{Keycode: 9, Keysym: window.KeysymEscape}},
		{"q", window.KeyPress{Keycode: 24, Keysym: window.KeysymQ}},
		{"secondary button", window.ButtonPress{Button: window.ButtonSecondary}},
		{"overlay destroyed", window.DestroyNotify{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := desktop()
			b.Events = []window.Event{motion(500, 400), tt.ev, press(500, 400)}
			p := newPicker(t, b, config.FallbackRoot)

			_, ok, err := p.Pick()
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPickerIsSingleUse(t *testing.T) {
	b := desktop()
	b.Events = []window.Event{press(0, 0)}
	p := newPicker(t, b, config.FallbackRoot)

	_, _, err := p.Pick()
	require.NoError(t, err)

	_, _, err = p.Pick()
	assert.ErrorIs(t, err, ErrSelectorSpent)
}
