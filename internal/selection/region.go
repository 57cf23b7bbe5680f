package selection

import (
	"fmt"

	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
)

// RegionSelector lets the user drag out a rectangle with the primary button
type RegionSelector struct {
	surface Surface
	state   State
	started bool
	anchor  geom.Point
	result  geom.Rect
}

// NewRegionSelector returns an idle selector drawing on surface
func NewRegionSelector(surface Surface) *RegionSelector {
	return &RegionSelector{surface: surface}
}

// State returns the selector's current state
func (s *RegionSelector) State() State {
	return s.state
}

// Select shows the surface and runs the drag until it completes. It returns
// false when the user cancelled or the dragged area was empty.
func (s *RegionSelector) Select() (geom.Rect, bool, error) {
	if s.started {
		return geom.Rect{}, false, ErrSelectorSpent
	}
	s.started = true

	if err := s.surface.Show(true); err != nil {
		s.state = Cancelled
		return geom.Rect{}, false, err
	}

	for s.state == Idle || s.state == Dragging {
		ev, err := s.surface.NextEvent()
		if err != nil {
			s.state = Cancelled
			return geom.Rect{}, false, err
		}
		if err := s.step(ev); err != nil {
			s.state = Cancelled
			return geom.Rect{}, false, err
		}
	}

	if s.state == Done {
		return s.result, true, nil
	}
	return geom.Rect{}, false, nil
}

func (s *RegionSelector) step(ev window.Event) error {
	log := logger.WithComponent("region")

	if isCancel(ev) {
		log.Debug().Str("state", s.state.String()).Msgf("Cancelled by %T", ev)
		s.state = Cancelled
		return nil
	}

	switch e := ev.(type) {
	case window.ButtonPress:
		if e.Button == window.ButtonPrimary && s.state == Idle {
			s.anchor = e.Point
			s.state = Dragging
		}

	case window.Motion:
		if s.state != Dragging {
			return nil
		}
		r := geom.Span(s.anchor, e.Point)
		if err := s.surface.Clear(); err != nil {
			return fmt.Errorf("failed to redraw selection: %w", err)
		}
		if err := s.surface.DrawRect(r); err != nil {
			return fmt.Errorf("failed to redraw selection: %w", err)
		}

	case window.ButtonRelease:
		if e.Button != window.ButtonPrimary || s.state != Dragging {
			return nil
		}
		r := geom.Span(s.anchor, e.Point)
		if r.Empty() {
			log.Debug().Str("rect", r.String()).Msg("Empty selection")
			s.state = Cancelled
			return nil
		}
		s.result = r
		s.state = Done
		log.Debug().Str("rect", r.String()).Msg("Region selected")
	}
	return nil
}
