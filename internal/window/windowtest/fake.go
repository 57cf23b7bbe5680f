// Package windowtest provides an in-memory window.Backend for tests.
package windowtest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/window"
)

// ErrNoEvents is returned by NextEvent once the scripted queue is drained
var ErrNoEvents = errors.New("windowtest: no more events")

// Call is one recorded Backend call
type Call struct {
	Name string
	Args []any
}

// PixelFunc returns the packed 0xRRGGBB pixel at drawable-local (x, y)
type PixelFunc func(x, y int) uint32

// Fake is a scripted Backend. Zero maps are allocated by New; tests fill
// in what the code under test reads.
type Fake struct {
	RootWindow    xproto.Window
	Screen        int
	Width, Height uint16

	// Events is the queue NextEvent pops from
	Events []window.Event

	// Window tree, root-relative geometry and explicit origins
	Tree       map[xproto.Window][]xproto.Window
	Geometries map[xproto.Window]geom.Rect
	Borders    map[xproto.Window]uint32
	Origins    map[xproto.Window]geom.Point
	Properties map[xproto.Window]map[xproto.Atom]*window.Property

	// Pixels backs GetImage per drawable
	Pixels map[xproto.Drawable]PixelFunc
	// ImageDepth is the depth GetImage reports, 24 when zero
	ImageDepth byte

	Atoms   map[string]xproto.Atom
	Owners  map[xproto.Atom]xproto.Window
	Pointer window.CursorSample

	ARGB      bool // a 32-bit visual is available
	Composite bool // NameWindowPixmap succeeds

	// Fail makes the named method return the error on every call.
	// FailTimes makes it fail the given number of times first.
	Fail      map[string]error
	FailTimes map[string]int

	Calls     []Call
	Surfaces  []window.SurfaceSpec
	Destroyed map[xproto.Window]bool
	Mapped    map[xproto.Window]bool
	Notifies  []Notify
	Released  []xproto.Pixmap
	Closed    bool

	nextID uint32
}

// Notify is a recorded SelectionNotify
type Notify struct {
	Request  window.SelectionRequest
	Property xproto.Atom
}

var _ window.Backend = (*Fake)(nil)

// New returns a Fake with a 1920x1080 root window
func New() *Fake {
	return &Fake{
		RootWindow: 1,
		Width:      1920,
		Height:     1080,
		Tree:       make(map[xproto.Window][]xproto.Window),
		Geometries: make(map[xproto.Window]geom.Rect),
		Borders:    make(map[xproto.Window]uint32),
		Origins:    make(map[xproto.Window]geom.Point),
		Properties: make(map[xproto.Window]map[xproto.Atom]*window.Property),
		Pixels:     make(map[xproto.Drawable]PixelFunc),
		Atoms:      make(map[string]xproto.Atom),
		Owners:     make(map[xproto.Atom]xproto.Window),
		Fail:       make(map[string]error),
		FailTimes:  make(map[string]int),
		Destroyed:  make(map[xproto.Window]bool),
		Mapped:     make(map[xproto.Window]bool),
		ARGB:       true,
		Composite:  true,
		nextID:     0x400000,
	}
}

func (f *Fake) record(name string, args ...any) error {
	f.Calls = append(f.Calls, Call{Name: name, Args: args})
	if n := f.FailTimes[name]; n > 0 {
		f.FailTimes[name] = n - 1
		return fmt.Errorf("windowtest: %s failed", name)
	}
	return f.Fail[name]
}

func (f *Fake) allocID() uint32 {
	f.nextID++
	return f.nextID
}

// Count returns how many times the named method was called
func (f *Fake) Count(name string) int {
	n := 0
	for _, c := range f.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// CallsNamed returns the recorded calls of one method
func (f *Fake) CallsNamed(name string) []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// AddWindow places win under parent with root-relative bounds
func (f *Fake) AddWindow(parent, win xproto.Window, bounds geom.Rect) {
	f.Tree[parent] = append(f.Tree[parent], win)
	f.Geometries[win] = bounds
	f.Origins[win] = geom.Point{X: bounds.X, Y: bounds.Y}
}

// SetProperty stores a 32-bit property
func (f *Fake) SetProperty(win xproto.Window, prop xproto.Atom, values ...uint32) {
	if f.Properties[win] == nil {
		f.Properties[win] = make(map[xproto.Atom]*window.Property)
	}
	f.Properties[win][prop] = &window.Property{
		Type:   xproto.AtomCardinal,
		Format: 32,
		Value:  window.Uint32s(values...),
	}
}

// Atom interns name and returns its id
func (f *Fake) Atom(name string) xproto.Atom {
	atom, _ := f.InternAtom(name)
	return atom
}

func (f *Fake) Close() error {
	f.Closed = true
	return f.record("Close")
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Root() xproto.Window { return f.RootWindow }

func (f *Fake) ScreenNumber() int { return f.Screen }

func (f *Fake) ScreenSize() (uint16, uint16) { return f.Width, f.Height }

func (f *Fake) CreateSurface(spec window.SurfaceSpec) (window.Surface, error) {
	if err := f.record("CreateSurface", spec); err != nil {
		return window.Surface{}, err
	}
	f.Surfaces = append(f.Surfaces, spec)
	s := window.Surface{Window: xproto.Window(f.allocID()), Depth: 24}
	if spec.Translucent && f.ARGB {
		s.Depth, s.ARGB = 32, true
	}
	return s, nil
}

func (f *Fake) CreateInputWindow() (xproto.Window, error) {
	if err := f.record("CreateInputWindow"); err != nil {
		return 0, err
	}
	return xproto.Window(f.allocID()), nil
}

func (f *Fake) DestroyWindow(win xproto.Window) error {
	f.Destroyed[win] = true
	return f.record("DestroyWindow", win)
}

func (f *Fake) MapWindow(win xproto.Window) error {
	if err := f.record("MapWindow", win); err != nil {
		return err
	}
	f.Mapped[win] = true
	return nil
}

func (f *Fake) ClearWindow(win xproto.Window) error {
	return f.record("ClearWindow", win)
}

func (f *Fake) CreateGC(win xproto.Window, foreground uint32) (xproto.Gcontext, error) {
	if err := f.record("CreateGC", win, foreground); err != nil {
		return 0, err
	}
	return xproto.Gcontext(f.allocID()), nil
}

func (f *Fake) FreeGC(gc xproto.Gcontext) error {
	return f.record("FreeGC", gc)
}

func (f *Fake) FillRectangle(win xproto.Window, gc xproto.Gcontext, r geom.Rect) error {
	return f.record("FillRectangle", win, r)
}

func (f *Fake) DrawRectangle(win xproto.Window, gc xproto.Gcontext, r geom.Rect) error {
	return f.record("DrawRectangle", win, r)
}

func (f *Fake) PutImage(win xproto.Window, gc xproto.Gcontext, r geom.Rect, depth byte, data []byte) error {
	return f.record("PutImage", win, r, depth, len(data))
}

func (f *Fake) GrabKeyboard(win xproto.Window) error {
	return f.record("GrabKeyboard", win)
}

func (f *Fake) UngrabKeyboard() error {
	return f.record("UngrabKeyboard")
}

func (f *Fake) GrabPointer(win xproto.Window, eventMask uint16) error {
	return f.record("GrabPointer", win, eventMask)
}

func (f *Fake) UngrabPointer() error {
	return f.record("UngrabPointer")
}

func (f *Fake) InternAtom(name string) (xproto.Atom, error) {
	if err := f.record("InternAtom", name); err != nil {
		return 0, err
	}
	if atom, ok := f.Atoms[name]; ok {
		return atom, nil
	}
	atom := xproto.Atom(f.allocID())
	f.Atoms[name] = atom
	return atom, nil
}

func (f *Fake) LookupAtom(name string) (xproto.Atom, error) {
	if err := f.record("LookupAtom", name); err != nil {
		return 0, err
	}
	return f.Atoms[name], nil
}

func (f *Fake) SelectionOwner(selection xproto.Atom) (xproto.Window, error) {
	if err := f.record("SelectionOwner", selection); err != nil {
		return 0, err
	}
	return f.Owners[selection], nil
}

func (f *Fake) SetSelectionOwner(owner xproto.Window, selection xproto.Atom) error {
	if err := f.record("SetSelectionOwner", owner, selection); err != nil {
		return err
	}
	f.Owners[selection] = owner
	return nil
}

func (f *Fake) Children(win xproto.Window) ([]xproto.Window, error) {
	if err := f.record("Children", win); err != nil {
		return nil, err
	}
	return f.Tree[win], nil
}

func (f *Fake) Geometry(win xproto.Window) (window.Geometry, error) {
	if err := f.record("Geometry", win); err != nil {
		return window.Geometry{}, err
	}
	if win == f.RootWindow {
		return window.Geometry{Rect: geom.Rect{Width: uint32(f.Width), Height: uint32(f.Height)}}, nil
	}
	r, ok := f.Geometries[win]
	if !ok {
		return window.Geometry{}, fmt.Errorf("windowtest: bad window %d", win)
	}
	return window.Geometry{Rect: r, BorderWidth: f.Borders[win]}, nil
}

func (f *Fake) Property(win xproto.Window, prop xproto.Atom) (*window.Property, error) {
	if err := f.record("Property", win, prop); err != nil {
		return nil, err
	}
	if p, ok := f.Properties[win][prop]; ok {
		return p, nil
	}
	return &window.Property{}, nil
}

func (f *Fake) ChangeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, data []byte) error {
	if err := f.record("ChangeProperty", win, prop, typ, format, len(data)); err != nil {
		return err
	}
	if f.Properties[win] == nil {
		f.Properties[win] = make(map[xproto.Atom]*window.Property)
	}
	value := make([]byte, len(data))
	copy(value, data)
	f.Properties[win][prop] = &window.Property{Type: typ, Format: format, Value: value}
	return nil
}

func (f *Fake) SelectPropertyEvents(win xproto.Window) error {
	return f.record("SelectPropertyEvents", win)
}

func (f *Fake) SendSelectionNotify(req window.SelectionRequest, property xproto.Atom) error {
	if err := f.record("SendSelectionNotify", req, property); err != nil {
		return err
	}
	f.Notifies = append(f.Notifies, Notify{Request: req, Property: property})
	return nil
}

func (f *Fake) QueryPointer() (window.CursorSample, error) {
	if err := f.record("QueryPointer"); err != nil {
		return window.CursorSample{}, err
	}
	return f.Pointer, nil
}

func (f *Fake) TranslateCoordinates(win xproto.Window, x, y int) (geom.Point, error) {
	if err := f.record("TranslateCoordinates", win, x, y); err != nil {
		return geom.Point{}, err
	}
	if win == f.RootWindow {
		return geom.Point{X: x, Y: y}, nil
	}
	o, ok := f.Origins[win]
	if !ok {
		return geom.Point{}, fmt.Errorf("windowtest: bad window %d", win)
	}
	return geom.Point{X: o.X + x, Y: o.Y + y}, nil
}

func (f *Fake) GetImage(d xproto.Drawable, r geom.Rect) (*window.Image, error) {
	if err := f.record("GetImage", d, r); err != nil {
		return nil, err
	}
	pixels, ok := f.Pixels[d]
	if !ok {
		return nil, fmt.Errorf("windowtest: bad drawable %d", d)
	}

	depth := f.ImageDepth
	if depth == 0 {
		depth = 24
	}
	w, h := int(r.Width), int(r.Height)
	data := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			binary.LittleEndian.PutUint32(data[(y*w+x)*4:], pixels(r.X+x, r.Y+y))
		}
	}
	return &window.Image{
		Width:        w,
		Height:       h,
		Depth:        depth,
		BitsPerPixel: 32,
		ScanlinePad:  32,
		ByteOrder:    binary.LittleEndian,
		Data:         data,
	}, nil
}

func (f *Fake) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, func(), error) {
	if err := f.record("NameWindowPixmap", win); err != nil {
		return 0, nil, err
	}
	if !f.Composite {
		return 0, nil, window.ErrCompositeUnavailable
	}
	// the named pixmap includes the border around the window contents
	pixmap := xproto.Pixmap(f.allocID())
	if pixels, ok := f.Pixels[xproto.Drawable(win)]; ok {
		bw := int(f.Borders[win])
		f.Pixels[xproto.Drawable(pixmap)] = func(x, y int) uint32 {
			return pixels(x-bw, y-bw)
		}
	}
	release := func() {
		f.Released = append(f.Released, pixmap)
		delete(f.Pixels, xproto.Drawable(pixmap))
	}
	return pixmap, release, nil
}

func (f *Fake) NextEvent() (window.Event, error) {
	if err := f.record("NextEvent"); err != nil {
		return nil, err
	}
	if len(f.Events) == 0 {
		return nil, ErrNoEvents
	}
	ev := f.Events[0]
	f.Events = f.Events[1:]
	return ev, nil
}

func (f *Fake) Sync() {
	f.record("Sync")
}
