// Package capture reads frames from the display and converts them into RGB
// rasters.
package capture

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

// Capture reads r from drawable d. The image must use a 24 or 32-bit
// true-color visual stored in 32 bits per pixel.
func Capture(b window.Backend, d xproto.Drawable, r geom.Rect) (*Frame, error) {
	if r.Empty() {
		return nil, xerr.Errorf(xerr.InvalidRect, "cannot capture %s", r)
	}

	img, err := b.GetImage(d, r)
	if err != nil {
		return nil, xerr.New(xerr.ImageError, err)
	}
	if err := img.CheckTrueColor(); err != nil {
		return nil, xerr.New(xerr.ImageError, err)
	}

	logger.WithComponent("capture").Debug().
		Uint32("drawable", uint32(d)).
		Str("rect", r.String()).
		Uint8("depth", img.Depth).
		Int("bytes", len(img.Data)).
		Msg("Captured frame")

	return &Frame{image: img}, nil
}

// Capturer captures the screen, regions of it and single windows
type Capturer struct {
	backend      window.Backend
	useComposite bool
}

// NewCapturer returns a capturer reading through b. With useComposite,
// windows are read from their composite backing pixmap when possible.
func NewCapturer(b window.Backend, useComposite bool) *Capturer {
	return &Capturer{backend: b, useComposite: useComposite}
}

// ScreenBounds returns the rectangle covering the default screen
func (c *Capturer) ScreenBounds() geom.Rect {
	w, h := c.backend.ScreenSize()
	return geom.Rect{Width: uint32(w), Height: uint32(h)}
}

// CaptureScreen captures the whole screen
func (c *Capturer) CaptureScreen() (*Frame, error) {
	return Capture(c.backend, xproto.Drawable(c.backend.Root()), c.ScreenBounds())
}

// CaptureRegion captures r, clipped to the screen
func (c *Capturer) CaptureRegion(r geom.Rect) (*Frame, error) {
	clipped := r.Clip(c.ScreenBounds())
	if clipped.Empty() {
		return nil, xerr.Errorf(xerr.InvalidRect, "region %s is outside the screen", r)
	}
	return Capture(c.backend, xproto.Drawable(c.backend.Root()), clipped)
}

// CaptureWindow captures the contents of win. The root window captures the
// whole screen.
func (c *Capturer) CaptureWindow(win xproto.Window) (*Frame, error) {
	log := logger.WithComponent("capture")

	if win == c.backend.Root() {
		return c.CaptureScreen()
	}

	g, err := c.backend.Geometry(win)
	if err != nil {
		return nil, xerr.New(xerr.WindowDestroyed, fmt.Errorf("failed to get window geometry: %w", err))
	}
	local := geom.Rect{Width: g.Width, Height: g.Height}

	if c.useComposite {
		pixmap, release, err := c.backend.NameWindowPixmap(win)
		if err != nil {
			log.Debug().
				Err(err).
				Uint32("window_id", uint32(win)).
				Msg("Composite pixmap unavailable, capturing the window directly")
		} else {
			// the named pixmap includes the border around the contents
			bw := int(g.BorderWidth)
			inner := geom.Rect{X: bw, Y: bw, Width: g.Width, Height: g.Height}
			frame, err := Capture(c.backend, xproto.Drawable(pixmap), inner)
			release()
			if err == nil {
				return frame, nil
			}
			log.Warn().
				Err(err).
				Uint32("window_id", uint32(win)).
				Msg("Failed to capture composite pixmap, falling back to direct capture")
		}
	}

	return Capture(c.backend, xproto.Drawable(win), local)
}
