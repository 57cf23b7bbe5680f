package window

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
)

// Backend is the windowing capability surface the capture components call
// into. One Backend wraps one display connection; it is not safe for
// concurrent use.
type Backend interface {
	// Close closes the connection to the display server
	Close() error

	// Name returns the backend name (e.g., "x11")
	Name() string

	// Root returns the root window of the default screen
	Root() xproto.Window

	// ScreenNumber returns the index of the default screen
	ScreenNumber() int

	// ScreenSize returns the pixel size of the default screen
	ScreenSize() (width, height uint16)

	// CreateSurface creates an unmapped override-redirect window
	CreateSurface(spec SurfaceSpec) (Surface, error)

	// CreateInputWindow creates an unmapped InputOnly helper window
	CreateInputWindow() (xproto.Window, error)

	// DestroyWindow destroys a window and any resources created with it
	DestroyWindow(win xproto.Window) error

	MapWindow(win xproto.Window) error
	ClearWindow(win xproto.Window) error

	CreateGC(win xproto.Window, foreground uint32) (xproto.Gcontext, error)
	FreeGC(gc xproto.Gcontext) error

	// FillRectangle and DrawRectangle expect rectangles already clipped to
	// the 16-bit protocol range.
	FillRectangle(win xproto.Window, gc xproto.Gcontext, r geom.Rect) error
	DrawRectangle(win xproto.Window, gc xproto.Gcontext, r geom.Rect) error

	// PutImage uploads 32-bit pixels, packed little-endian, to the window
	PutImage(win xproto.Window, gc xproto.Gcontext, r geom.Rect, depth byte, data []byte) error

	GrabKeyboard(win xproto.Window) error
	UngrabKeyboard() error
	GrabPointer(win xproto.Window, eventMask uint16) error
	UngrabPointer() error

	// InternAtom resolves an atom by name
	InternAtom(name string) (xproto.Atom, error)
	// LookupAtom resolves an atom without creating it, 0 if it does not exist
	LookupAtom(name string) (xproto.Atom, error)

	SelectionOwner(selection xproto.Atom) (xproto.Window, error)
	SetSelectionOwner(owner xproto.Window, selection xproto.Atom) error

	// Children returns the children of win in stacking order, bottom-most first
	Children(win xproto.Window) ([]xproto.Window, error)

	// Geometry returns the window's inner size, its position relative to its
	// parent and its border width
	Geometry(win xproto.Window) (Geometry, error)

	// Property reads a window property. A missing property is returned as
	// an empty Property, not an error.
	Property(win xproto.Window, prop xproto.Atom) (*Property, error)

	// ChangeProperty replaces a property; data holds len(data)/(format/8) items
	ChangeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, data []byte) error

	// SelectPropertyEvents subscribes to PropertyNotify on a foreign window
	SelectPropertyEvents(win xproto.Window) error

	// SendSelectionNotify answers a SelectionRequest. property 0 refuses it.
	SendSelectionNotify(req SelectionRequest, property xproto.Atom) error

	QueryPointer() (CursorSample, error)

	// TranslateCoordinates maps a point local to win into root coordinates
	TranslateCoordinates(win xproto.Window, x, y int) (geom.Point, error)

	// GetImage retrieves a ZPixmap image of r (drawable-local coordinates)
	GetImage(d xproto.Drawable, r geom.Rect) (*Image, error)

	// NameWindowPixmap returns the off-screen pixmap backing win through the
	// composite extension, and a release function for it.
	NameWindowPixmap(win xproto.Window) (xproto.Pixmap, func(), error)

	// NextEvent blocks until the next event the core consumes arrives
	NextEvent() (Event, error)

	// Sync flushes pending requests and waits for the server to process them
	Sync()
}

// SurfaceSpec describes an overlay surface
type SurfaceSpec struct {
	Bounds      geom.Rect
	Background  uint32 // premultiplied ARGB; alpha is ignored on opaque visuals
	CursorGlyph uint16 // glyph in the X cursor font, 0 for the parent's cursor
	EventMask   uint32
	Translucent bool // request a 32-bit ARGB visual
}

// Geometry is a window's rectangle as reported by GetGeometry. The
// rectangle excludes the border.
type Geometry struct {
	geom.Rect
	BorderWidth uint32
}

// Surface is a created overlay window
type Surface struct {
	Window xproto.Window
	Depth  byte
	ARGB   bool
}

// CursorSample is a pointer position in root coordinates
type CursorSample struct {
	Point geom.Point
	Root  xproto.Window
	Child xproto.Window // 0 when the pointer is over the root itself
}

// Pointer buttons and keysyms consumed by the selectors
const (
	ButtonPrimary   = 1
	ButtonSecondary = 3

	KeysymEscape = 0xff1b
	KeysymQ      = 0x0071

	// Keycodes of Escape and q on a standard evdev layout, used when no
	// keyboard mapping could be loaded
	KeycodeEscape = 9
	KeycodeQ      = 24
)

// IsCancelKey reports whether the key press is Escape or q.
func IsCancelKey(ev KeyPress) bool {
	if ev.Keysym != 0 {
		return ev.Keysym == KeysymEscape || ev.Keysym == KeysymQ
	}
	return ev.Keycode == KeycodeEscape || ev.Keycode == KeycodeQ
}
