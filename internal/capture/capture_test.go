package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/png"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/window/windowtest"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

// gradient encodes the coordinates into the pixel
func gradient(x, y int) uint32 {
	return uint32(x&0xff)<<16 | uint32(y&0xff)<<8 | uint32((x+y)&0xff)
}

func TestColors(t *testing.T) {
	tests := []struct {
		pixel uint32
		want  [3]uint8
	}{
		{0x123456, [3]uint8{0x12, 0x34, 0x56}},
		{0xFFFFFF, [3]uint8{255, 255, 255}},
		{0x000000, [3]uint8{0, 0, 0}},
		{0xAB000000 | 0x010203, [3]uint8{1, 2, 3}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Colors(tt.pixel), "pixel %#x", tt.pixel)
	}
}

func TestCaptureScreen(t *testing.T) {
	b := windowtest.New()
	b.Width, b.Height = 64, 48
	b.Pixels[xproto.Drawable(b.Root())] = gradient

	frame, err := NewCapturer(b, true).CaptureScreen()
	require.NoError(t, err)
	assert.Equal(t, 64, frame.Width())
	assert.Equal(t, 48, frame.Height())

	raster, err := frame.Raster()
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{10, 20, 30}, raster.RGB(10, 20))
	assert.Equal(t, [3]uint8{63, 47, 110}, raster.RGB(63, 47))
}

func TestCaptureRegion(t *testing.T) {
	b := windowtest.New()
	b.Pixels[xproto.Drawable(b.Root())] = gradient
	c := NewCapturer(b, true)

	frame, err := c.CaptureRegion(geom.Rect{X: 100, Y: 50, Width: 20, Height: 10})
	require.NoError(t, err)

	raster, err := frame.Raster()
	require.NoError(t, err)
	assert.Equal(t, 20, raster.Width)
	assert.Equal(t, 10, raster.Height)
	assert.Equal(t, Colors(gradient(100, 50)), raster.RGB(0, 0))
	assert.Equal(t, Colors(gradient(119, 59)), raster.RGB(19, 9))

	t.Run("clipped to the screen", func(t *testing.T) {
		frame, err := c.CaptureRegion(geom.Rect{X: 1910, Y: 1070, Width: 20, Height: 20})
		require.NoError(t, err)
		assert.Equal(t, 10, frame.Width())
		assert.Equal(t, 10, frame.Height())
	})

	t.Run("outside the screen", func(t *testing.T) {
		_, err := c.CaptureRegion(geom.Rect{X: 3000, Y: 0, Width: 20, Height: 20})
		assert.ErrorIs(t, err, xerr.InvalidRect)
	})
}

func TestCaptureErrors(t *testing.T) {
	t.Run("empty rect", func(t *testing.T) {
		b := windowtest.New()
		_, err := Capture(b, xproto.Drawable(b.Root()), geom.Rect{Width: 0, Height: 10})
		assert.ErrorIs(t, err, xerr.InvalidRect)
		assert.Zero(t, b.Count("GetImage"))
	})

	t.Run("request fails", func(t *testing.T) {
		b := windowtest.New()
		b.Fail["GetImage"] = errors.New("BadMatch")
		_, err := Capture(b, xproto.Drawable(b.Root()), geom.Rect{Width: 10, Height: 10})
		assert.ErrorIs(t, err, xerr.ImageError)
	})

	t.Run("unsupported depth", func(t *testing.T) {
		b := windowtest.New()
		b.ImageDepth = 16
		b.Pixels[xproto.Drawable(b.Root())] = gradient
		_, err := Capture(b, xproto.Drawable(b.Root()), geom.Rect{Width: 10, Height: 10})
		assert.ErrorIs(t, err, xerr.ImageError)
	})
}

func TestCaptureWindow(t *testing.T) {
	const win = xproto.Window(0x11)

	newBackend := func() *windowtest.Fake {
		b := windowtest.New()
		b.AddWindow(b.Root(), win, geom.Rect{X: 300, Y: 200, Width: 40, Height: 30})
		b.Pixels[xproto.Drawable(win)] = gradient
		return b
	}

	t.Run("composite pixmap", func(t *testing.T) {
		b := newBackend()
		frame, err := NewCapturer(b, true).CaptureWindow(win)
		require.NoError(t, err)
		assert.Equal(t, 40, frame.Width())
		assert.Equal(t, 30, frame.Height())

		images := b.CallsNamed("GetImage")
		require.Len(t, images, 1)
		assert.NotEqual(t, xproto.Drawable(win), images[0].Args[0])
		assert.Equal(t, geom.Rect{Width: 40, Height: 30}, images[0].Args[1])
		assert.Len(t, b.Released, 1)
	})

	t.Run("composite pixmap skips border", func(t *testing.T) {
		b := newBackend()
		b.Borders[win] = 2
		frame, err := NewCapturer(b, true).CaptureWindow(win)
		require.NoError(t, err)
		assert.Equal(t, 40, frame.Width())
		assert.Equal(t, 30, frame.Height())

		images := b.CallsNamed("GetImage")
		require.Len(t, images, 1)
		assert.Equal(t, geom.Rect{X: 2, Y: 2, Width: 40, Height: 30}, images[0].Args[1])

		raster, err := frame.Raster()
		require.NoError(t, err)
		assert.Equal(t, Colors(gradient(0, 0)), raster.RGB(0, 0))
		assert.Equal(t, Colors(gradient(39, 29)), raster.RGB(39, 29))
	})

	t.Run("composite unavailable", func(t *testing.T) {
		b := newBackend()
		b.Composite = false
		frame, err := NewCapturer(b, true).CaptureWindow(win)
		require.NoError(t, err)
		assert.Equal(t, 40, frame.Width())

		images := b.CallsNamed("GetImage")
		require.Len(t, images, 1)
		assert.Equal(t, xproto.Drawable(win), images[0].Args[0])
	})

	t.Run("composite disabled", func(t *testing.T) {
		b := newBackend()
		_, err := NewCapturer(b, false).CaptureWindow(win)
		require.NoError(t, err)
		assert.Zero(t, b.Count("NameWindowPixmap"))
	})

	t.Run("root window", func(t *testing.T) {
		b := newBackend()
		b.Pixels[xproto.Drawable(b.Root())] = gradient
		frame, err := NewCapturer(b, true).CaptureWindow(b.Root())
		require.NoError(t, err)
		assert.Equal(t, 1920, frame.Width())
		assert.Zero(t, b.Count("NameWindowPixmap"))
	})

	t.Run("window gone", func(t *testing.T) {
		b := newBackend()
		_, err := NewCapturer(b, true).CaptureWindow(0x99)
		assert.ErrorIs(t, err, xerr.WindowDestroyed)
	})
}

func TestFrameRelease(t *testing.T) {
	b := windowtest.New()
	b.Pixels[xproto.Drawable(b.Root())] = gradient
	frame, err := Capture(b, xproto.Drawable(b.Root()), geom.Rect{Width: 4, Height: 4})
	require.NoError(t, err)

	_, err = frame.Raster()
	require.NoError(t, err)

	_, err = frame.Raster()
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, err, xerr.ImageError)

	frame.Release()
	assert.Zero(t, frame.Width())
}

func TestRasterBigEndian(t *testing.T) {
	img := &window.Image{
		Width:        2,
		Height:       1,
		Depth:        24,
		BitsPerPixel: 32,
		ScanlinePad:  32,
		ByteOrder:    binary.BigEndian,
		Data:         []byte{0x00, 0x12, 0x34, 0x56, 0x00, 0xff, 0x80, 0x01},
	}
	require.NoError(t, img.CheckTrueColor())

	raster, err := (&Frame{image: img}).Raster()
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0x12, 0x34, 0x56}, raster.RGB(0, 0))
	assert.Equal(t, [3]uint8{0xff, 0x80, 0x01}, raster.RGB(1, 0))
}

func TestPNGRoundTrip(t *testing.T) {
	raster := NewRaster(17, 9)
	for y := 0; y < raster.Height; y++ {
		for x := 0; x < raster.Width; x++ {
			raster.SetRGB(x, y, Colors(gradient(x*13, y*29)))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, raster.EncodePNG(&buf))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, raster.Bounds(), decoded.Bounds())

	for y := 0; y < raster.Height; y++ {
		for x := 0; x < raster.Width; x++ {
			r, g, b, a := decoded.At(x, y).RGBA()
			want := raster.RGB(x, y)
			assert.Equal(t, [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}, want, "pixel %d,%d", x, y)
			assert.Equal(t, uint32(0xffff), a)
		}
	}
}

func TestRasterImage(t *testing.T) {
	raster := NewRaster(2, 2)
	raster.SetRGB(1, 1, [3]uint8{1, 2, 3})

	assert.True(t, raster.Opaque())
	r, g, b, a := raster.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0x0101, 0x0202, 0x0303, 0xffff}, []uint32{r, g, b, a})

	_, _, _, a = raster.At(5, 5).RGBA()
	assert.Zero(t, a)
}
