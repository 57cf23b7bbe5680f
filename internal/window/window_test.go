package window_test

import (
	"encoding/binary"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/window/windowtest"
)

func TestIsCancelKey(t *testing.T) {
	tests := []struct {
		name string
		ev   window.KeyPress
		want bool
	}{
		{"escape keysym", window.KeyPress{Keycode: 66, Keysym: window.KeysymEscape}, true},
		{"q keysym", window.KeyPress{Keycode: 38, Keysym: window.KeysymQ}, true},
		{"other keysym on the escape keycode", window.KeyPress{Keycode: 9, Keysym: 0x61}, false},
		{"escape keycode without keymap", window.KeyPress{Keycode: window.KeycodeEscape}, true},
		{"q keycode without keymap", window.KeyPress{Keycode: window.KeycodeQ}, true},
		{"other keycode", window.KeyPress{Keycode: 38}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, window.IsCancelKey(tt.ev))
		})
	}
}

func TestProperty(t *testing.T) {
	var missing *window.Property
	assert.False(t, missing.Exists())
	assert.Zero(t, missing.Len())

	empty := &window.Property{}
	assert.False(t, empty.Exists())
	_, ok := empty.Uint32At(0)
	assert.False(t, ok)

	prop := &window.Property{Type: xproto.AtomCardinal, Format: 32, Value: window.Uint32s(1, 0xFFFFFFFF)}
	assert.True(t, prop.Exists())
	assert.Equal(t, 2, prop.Len())

	v, ok := prop.Uint32At(1)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xFFFFFFFF), v)

	_, ok = prop.Uint32At(2)
	assert.False(t, ok)
	_, ok = prop.Uint32At(-1)
	assert.False(t, ok)

	bytes8 := &window.Property{Format: 8, Value: []byte("abcd")}
	_, ok = bytes8.Uint32At(0)
	assert.False(t, ok, "8-bit properties have no 32-bit items")
}

func TestImage(t *testing.T) {
	img := &window.Image{
		Width:        3,
		Height:       2,
		Depth:        24,
		BitsPerPixel: 32,
		ScanlinePad:  32,
		ByteOrder:    binary.LittleEndian,
		Data:         make([]byte, 24),
	}
	assert.Equal(t, 12, img.Stride())
	require.NoError(t, img.CheckTrueColor())

	binary.LittleEndian.PutUint32(img.Data[12+4:], 0x00abcdef)
	assert.Equal(t, uint32(0x00abcdef), img.Pixel(1, 1))

	short := *img
	short.Data = img.Data[:20]
	assert.Error(t, short.CheckTrueColor())

	depth16 := *img
	depth16.Depth = 16
	assert.Error(t, depth16.CheckTrueColor())

	bpp24 := *img
	bpp24.BitsPerPixel = 24
	assert.Error(t, bpp24.CheckTrueColor())
}

func TestTitle(t *testing.T) {
	b := windowtest.New()
	b.AddWindow(b.Root(), 0x10, geom.Rect{Width: 10, Height: 10})
	assert.Equal(t, "", window.Title(b, 0x10))

	b.Properties[0x10] = map[xproto.Atom]*window.Property{
		b.Atom("WM_NAME"): {Type: xproto.AtomString, Format: 8, Value: []byte("xterm")},
	}
	assert.Equal(t, "xterm", window.Title(b, 0x10))

	b.Properties[0x10][b.Atom("_NET_WM_NAME")] = &window.Property{Format: 8, Value: []byte("terminal ✓")}
	assert.Equal(t, "terminal ✓", window.Title(b, 0x10))
}
