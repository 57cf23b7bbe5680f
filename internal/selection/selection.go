// Package selection implements the interactive region selector and window
// picker driven by the overlay's input events.
package selection

import (
	"errors"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/window"
)

// ErrSelectorSpent is returned when a finished selector is run again
var ErrSelectorSpent = errors.New("selector already finished, a new one is required")

// Surface is the part of the overlay the selectors drive
type Surface interface {
	Window() xproto.Window
	Show(captureMotion bool) error
	Clear() error
	DrawRect(r geom.Rect) error
	NextEvent() (window.Event, error)
}

// State is the progress of a selection
type State int

const (
	Idle State = iota
	Dragging
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// isCancel reports whether ev aborts any selection
func isCancel(ev window.Event) bool {
	switch e := ev.(type) {
	case window.KeyPress:
		return window.IsCancelKey(e)
	case window.ButtonPress:
		return e.Button == window.ButtonSecondary
	case window.DestroyNotify:
		return true
	}
	return false
}
