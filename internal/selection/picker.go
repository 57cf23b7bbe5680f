package selection

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/config"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

// Candidate is a pickable window and its bounds in root coordinates
type Candidate struct {
	Window xproto.Window `json:"window"`
	Bounds geom.Rect     `json:"bounds"`
}

// Candidates lists the pickable windows bottom-most first. Top-level
// windows are inspected together with their direct children so that client
// windows inside window manager frames are found. exclude is skipped.
func Candidates(b window.Backend, visible Visibility, exclude xproto.Window) ([]Candidate, error) {
	log := logger.WithComponent("picker")

	top, err := b.Children(b.Root())
	if err != nil {
		return nil, xerr.New(xerr.ConnectionError, fmt.Errorf("failed to list top-level windows: %w", err))
	}

	var out []Candidate
	add := func(win xproto.Window) {
		if win == exclude || !visible(win) {
			return
		}
		bounds, err := windowBounds(b, win)
		if err != nil {
			log.Debug().Err(err).Uint32("window_id", uint32(win)).Msg("Skipping window")
			return
		}
		if bounds.Empty() {
			return
		}
		out = append(out, Candidate{Window: win, Bounds: bounds})
	}

	for _, win := range top {
		if win == exclude {
			continue
		}
		add(win)

		children, err := b.Children(win)
		if err != nil {
			log.Debug().Err(err).Uint32("window_id", uint32(win)).Msg("Failed to list children")
			continue
		}
		for _, child := range children {
			add(child)
		}
	}

	log.Debug().Int("count", len(out)).Msg("Enumerated candidate windows")
	return out, nil
}

// windowBounds returns the window's rectangle in root coordinates
func windowBounds(b window.Backend, win xproto.Window) (geom.Rect, error) {
	origin, err := b.TranslateCoordinates(win, 0, 0)
	if err != nil {
		return geom.Rect{}, err
	}
	g, err := b.Geometry(win)
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.Rect{X: origin.X, Y: origin.Y, Width: g.Width, Height: g.Height}, nil
}

// HitTest returns the topmost candidate containing p
func HitTest(cands []Candidate, p geom.Point) (Candidate, bool) {
	for i := len(cands) - 1; i >= 0; i-- {
		if cands[i].Bounds.Contains(p) {
			return cands[i], true
		}
	}
	return Candidate{}, false
}

// PickerOptions configures a Picker
type PickerOptions struct {
	Visibility string
	Fallback   string
}

// Picker highlights the window under the pointer and returns the one
// clicked with the primary button
type Picker struct {
	backend  window.Backend
	surface  Surface
	visible  Visibility
	fallback string
	started  bool
}

// NewPicker returns a picker drawing on surface
func NewPicker(b window.Backend, surface Surface, opts PickerOptions) (*Picker, error) {
	visible, err := NewVisibility(b, opts.Visibility)
	if err != nil {
		return nil, err
	}
	fallback := opts.Fallback
	if fallback == "" {
		fallback = config.FallbackRoot
	}
	return &Picker{
		backend:  b,
		surface:  surface,
		visible:  visible,
		fallback: fallback,
	}, nil
}

// Pick shows the surface and tracks the pointer until a window is chosen.
// It returns false when the user cancelled.
func (p *Picker) Pick() (Candidate, bool, error) {
	log := logger.WithComponent("picker")

	if p.started {
		return Candidate{}, false, ErrSelectorSpent
	}
	p.started = true

	cands, err := Candidates(p.backend, p.visible, p.surface.Window())
	if err != nil {
		return Candidate{}, false, err
	}

	if err := p.surface.Show(false); err != nil {
		return Candidate{}, false, err
	}

	var highlight Candidate
	highlighted := false

	for {
		ev, err := p.surface.NextEvent()
		if err != nil {
			return Candidate{}, false, err
		}

		if isCancel(ev) {
			log.Debug().Msgf("Cancelled by %T", ev)
			return Candidate{}, false, nil
		}

		switch e := ev.(type) {
		case window.Motion:
			c, ok := HitTest(cands, e.Point)
			if !ok || (highlighted && c.Window == highlight.Window) {
				continue
			}
			highlight, highlighted = c, true
			if err := p.surface.Clear(); err != nil {
				return Candidate{}, false, fmt.Errorf("failed to redraw highlight: %w", err)
			}
			if err := p.surface.DrawRect(c.Bounds); err != nil {
				return Candidate{}, false, fmt.Errorf("failed to redraw highlight: %w", err)
			}

		case window.ButtonPress:
			if e.Button != window.ButtonPrimary {
				continue
			}
			// the click position wins over a highlight that may lag behind
			if c, ok := HitTest(cands, e.Point); ok {
				highlight, highlighted = c, true
			}
			if highlighted {
				log.Debug().Uint32("window_id", uint32(highlight.Window)).Msg("Window picked")
				return highlight, true, nil
			}
			return p.fallbackResult()
		}
	}
}

func (p *Picker) fallbackResult() (Candidate, bool, error) {
	log := logger.WithComponent("picker")

	if p.fallback == config.FallbackCancel {
		log.Debug().Msg("Nothing highlighted, cancelling")
		return Candidate{}, false, nil
	}

	w, h := p.backend.ScreenSize()
	log.Debug().Msg("Nothing highlighted, using the root window")
	return Candidate{
		Window: p.backend.Root(),
		Bounds: geom.Rect{Width: uint32(w), Height: uint32(h)},
	}, true, nil
}
