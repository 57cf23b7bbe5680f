package window

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
)

// Event is one of the event kinds below. Everything the core does not
// consume arrives as Other.
type Event interface {
	isEvent()
}

// ButtonPress is a pointer button press at a root position
type ButtonPress struct {
	Button byte
	Point  geom.Point
}

// ButtonRelease is a pointer button release at a root position
type ButtonRelease struct {
	Button byte
	Point  geom.Point
}

// KeyPress carries the keycode and, when a keyboard mapping is loaded, the
// unshifted keysym
type KeyPress struct {
	Keycode byte
	Keysym  uint32
}

// Motion is a pointer motion to a root position
type Motion struct {
	Point geom.Point
}

// DestroyNotify reports that a window was destroyed
type DestroyNotify struct {
	Window xproto.Window
}

// SelectionRequest asks the selection owner to convert the selection
type SelectionRequest struct {
	Time      xproto.Timestamp
	Owner     xproto.Window
	Requestor xproto.Window
	Selection xproto.Atom
	Target    xproto.Atom
	Property  xproto.Atom
}

// SelectionClear reports that another client took the selection
type SelectionClear struct {
	Owner     xproto.Window
	Selection xproto.Atom
}

// PropertyNotify reports a property change or deletion
type PropertyNotify struct {
	Window  xproto.Window
	Atom    xproto.Atom
	Deleted bool
}

// Other is any event the core ignores
type Other struct{}

func (ButtonPress) isEvent()      {}
func (ButtonRelease) isEvent()    {}
func (KeyPress) isEvent()         {}
func (Motion) isEvent()           {}
func (DestroyNotify) isEvent()    {}
func (SelectionRequest) isEvent() {}
func (SelectionClear) isEvent()   {}
func (PropertyNotify) isEvent()   {}
func (Other) isEvent()            {}
