// Package overlay implements the full-screen input surface shown while the
// user selects a region or a window.
package overlay

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

const (
	// CrosshairGlyph is XC_crosshair in the X cursor font
	CrosshairGlyph = 34

	grabRetryInterval = 10 * time.Millisecond

	surfaceEventMask = xproto.EventMaskStructureNotify | xproto.EventMaskKeyPress

	// DragEventMask reports button presses and releases and motion while
	// the primary button is held
	DragEventMask = xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease | xproto.EventMaskButton1Motion
	// HoverEventMask reports button presses and all pointer motion
	HoverEventMask = xproto.EventMaskButtonPress | xproto.EventMaskPointerMotion
)

// Options configures an overlay
type Options struct {
	Background   uint32 // premultiplied ARGB
	Foreground   uint32 // premultiplied ARGB
	Fill         bool   // fill the selection instead of outlining it
	RefreshHz    int    // motion events forwarded per second
	ShowSize     bool
	GrabAttempts int

	// Clock and sleep hooks, time.Now and time.Sleep when nil
	Now   func() time.Time
	Sleep func(time.Duration)
}

// DefaultOptions returns the stock overlay look
func DefaultOptions() Options {
	return Options{
		Background:   0x00000000,
		Foreground:   0x82145482,
		Fill:         true,
		RefreshHz:    60,
		ShowSize:     true,
		GrabAttempts: 10,
	}
}

func (o Options) withDefaults() Options {
	if o.RefreshHz <= 0 {
		o.RefreshHz = 60
	}
	if o.GrabAttempts <= 0 {
		o.GrabAttempts = 1
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Overlay is a full-screen override-redirect window that grabs input while
// shown. It must be released with Close.
type Overlay struct {
	backend window.Backend
	opts    Options
	surface window.Surface
	bounds  geom.Rect
	gc      xproto.Gcontext

	interval  time.Duration
	lastEvent time.Time

	// pending is the latest motion dropped by the throttle. It is forwarded
	// ahead of the next other event, which waits in queued.
	pending *window.Motion
	queued  window.Event

	keyboardGrabbed bool
	pointerGrabbed  bool

	// active is false once the surface is gone, destroyed by us or by
	// someone else
	active bool
	closed bool
}

// New creates the overlay surface covering the whole screen. It is not
// mapped until Show.
func New(b window.Backend, opts Options) (*Overlay, error) {
	log := logger.WithComponent("overlay")
	opts = opts.withDefaults()

	w, h := b.ScreenSize()
	bounds := geom.Rect{Width: uint32(w), Height: uint32(h)}

	surface, err := b.CreateSurface(window.SurfaceSpec{
		Bounds:      bounds,
		Background:  opts.Background,
		CursorGlyph: CrosshairGlyph,
		EventMask:   surfaceEventMask,
		Translucent: true,
	})
	if err != nil {
		return nil, xerr.New(xerr.ConnectionError, fmt.Errorf("failed to create overlay window: %w", err))
	}

	foreground := opts.Foreground
	if !surface.ARGB {
		foreground &= 0x00ffffff
	}
	gc, err := b.CreateGC(surface.Window, foreground)
	if err != nil {
		b.DestroyWindow(surface.Window)
		return nil, xerr.New(xerr.ConnectionError, fmt.Errorf("failed to create overlay graphics context: %w", err))
	}

	log.Debug().
		Uint32("window_id", uint32(surface.Window)).
		Bool("argb", surface.ARGB).
		Str("bounds", bounds.String()).
		Msg("Overlay created")

	return &Overlay{
		backend:  b,
		opts:     opts,
		surface:  surface,
		bounds:   bounds,
		gc:       gc,
		interval: time.Second / time.Duration(opts.RefreshHz),
		active:   true,
	}, nil
}

// Window returns the overlay's window id
func (o *Overlay) Window() xproto.Window {
	return o.surface.Window
}

// Bounds returns the area covered by the overlay
func (o *Overlay) Bounds() geom.Rect {
	return o.bounds
}

// Active reports whether the overlay surface still exists
func (o *Overlay) Active() bool {
	return o.active
}

// Show maps the overlay and grabs the keyboard and pointer. captureMotion
// selects drag-style pointer reporting. Failed grabs are logged, not fatal.
func (o *Overlay) Show(captureMotion bool) error {
	log := logger.WithComponent("overlay")

	if err := o.backend.MapWindow(o.surface.Window); err != nil {
		return xerr.New(xerr.ConnectionError, fmt.Errorf("failed to map overlay: %w", err))
	}

	var pointerMask uint16 = HoverEventMask
	if captureMotion {
		pointerMask = DragEventMask
	}

	o.keyboardGrabbed = o.grab("keyboard", func() error {
		return o.backend.GrabKeyboard(o.surface.Window)
	})
	o.pointerGrabbed = o.grab("pointer", func() error {
		return o.backend.GrabPointer(o.surface.Window, pointerMask)
	})

	log.Debug().
		Bool("keyboard", o.keyboardGrabbed).
		Bool("pointer", o.pointerGrabbed).
		Bool("capture_motion", captureMotion).
		Msg("Overlay shown")
	return nil
}

// grab retries fn; a window that was just mapped may not be viewable yet
func (o *Overlay) grab(device string, fn func() error) bool {
	var err error
	for attempt := 1; attempt <= o.opts.GrabAttempts; attempt++ {
		if err = fn(); err == nil {
			return true
		}
		if attempt < o.opts.GrabAttempts {
			o.opts.Sleep(grabRetryInterval)
		}
	}

	logger.WithComponent("overlay").Warn().
		Err(err).
		Str("device", device).
		Int("attempts", o.opts.GrabAttempts).
		Msg("Failed to grab input")
	return false
}

// Clear repaints the whole overlay with its background
func (o *Overlay) Clear() error {
	if err := o.backend.ClearWindow(o.surface.Window); err != nil {
		return fmt.Errorf("failed to clear overlay: %w", err)
	}
	return nil
}

// DrawRect highlights r, filled or outlined, with an optional size label
func (o *Overlay) DrawRect(r geom.Rect) error {
	clipped := r.Clip(o.bounds)
	if clipped.Empty() {
		return nil
	}

	var err error
	if o.opts.Fill {
		err = o.backend.FillRectangle(o.surface.Window, o.gc, clipped)
	} else {
		err = o.backend.DrawRectangle(o.surface.Window, o.gc, clipped)
	}
	if err != nil {
		return fmt.Errorf("failed to draw selection: %w", err)
	}

	if o.opts.ShowSize {
		return o.drawLabel(clipped)
	}
	return nil
}

func (o *Overlay) drawLabel(sel geom.Rect) error {
	img := SizeLabel(sel).Render()
	size := img.Bounds().Size()
	at := Place(sel, size, o.bounds)

	dst := geom.Rect{X: at.X, Y: at.Y, Width: uint32(size.X), Height: uint32(size.Y)}
	data := zpixmap(img, o.surface.ARGB)
	if err := o.backend.PutImage(o.surface.Window, o.gc, dst, o.surface.Depth, data); err != nil {
		return fmt.Errorf("failed to draw size label: %w", err)
	}
	return nil
}

// NextEvent blocks for the next event. Motion events arriving sooner than
// the refresh interval after the last forwarded event are held back; only
// the most recent one is kept and it is delivered before the next other
// event, so the final pointer position of a burst is never lost.
func (o *Overlay) NextEvent() (window.Event, error) {
	if o.queued != nil {
		ev := o.queued
		o.queued = nil
		return o.forward(ev, o.lastEvent), nil
	}

	for {
		ev, err := o.backend.NextEvent()
		if err != nil {
			return nil, xerr.New(xerr.ConnectionError, fmt.Errorf("failed to read event: %w", err))
		}

		now := o.opts.Now()
		if m, ok := ev.(window.Motion); ok {
			if now.Sub(o.lastEvent) < o.interval {
				o.pending = &m
				continue
			}
			o.pending = nil
			return o.forward(m, now), nil
		}

		if o.pending != nil {
			m := *o.pending
			o.pending = nil
			o.queued = ev
			return o.forward(m, now), nil
		}
		return o.forward(ev, now), nil
	}
}

func (o *Overlay) forward(ev window.Event, now time.Time) window.Event {
	o.lastEvent = now
	if d, ok := ev.(window.DestroyNotify); ok && d.Window == o.surface.Window {
		logger.WithComponent("overlay").Debug().Msg("Overlay destroyed externally")
		o.active = false
	}
	return ev
}

// Close releases the grabs and destroys the overlay. Calling it again, or
// after the surface was destroyed externally, sends no requests for it.
func (o *Overlay) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true

	if !o.active {
		return nil
	}
	o.active = false

	var errs []error
	if o.keyboardGrabbed {
		errs = append(errs, o.backend.UngrabKeyboard())
	}
	if o.pointerGrabbed {
		errs = append(errs, o.backend.UngrabPointer())
	}
	errs = append(errs,
		o.backend.FreeGC(o.gc),
		o.backend.DestroyWindow(o.surface.Window),
	)
	o.backend.Sync()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to release overlay: %w", err)
	}
	return nil
}
