package window

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/geom"
	"github.com/bryanchriswhite/xscreen/internal/logger"
)

// ErrCompositeUnavailable is returned by NameWindowPixmap when the server
// lacks the composite extension
var ErrCompositeUnavailable = errors.New("composite extension not available")

// ErrClosed is returned by requests made after Close
var ErrClosed = errors.New("connection to X server closed")

// X11Backend implements the Backend interface using X11
type X11Backend struct {
	conn   *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo
	root   xproto.Window

	// Atoms resolved on this connection
	atoms map[string]xproto.Atom

	// Keyboard mapping for keysym lookup
	minKeycode        xproto.Keycode
	keysymsPerKeycode int
	keysyms           []xproto.Keysym

	compositeEnabled bool

	// Colormaps and cursors owned by surfaces, freed with the window
	resources map[xproto.Window]surfaceResources

	// mu is held for reading by every request so Close never races one
	mu     sync.RWMutex
	closed bool
}

type surfaceResources struct {
	colormap xproto.Colormap
	cursor   xproto.Cursor
}

// NewX11Backend connects to the X server named by $DISPLAY
func NewX11Backend() (*X11Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	b := &X11Backend{
		conn:      conn,
		setup:     setup,
		screen:    screen,
		root:      screen.Root,
		atoms:     make(map[string]xproto.Atom),
		resources: make(map[xproto.Window]surfaceResources),
	}

	b.loadKeyboardMapping()
	b.initComposite()

	return b, nil
}

func (b *X11Backend) loadKeyboardMapping() {
	log := logger.WithComponent("x11-backend")

	first, last := b.setup.MinKeycode, b.setup.MaxKeycode
	reply, err := xproto.GetKeyboardMapping(b.conn, first, byte(last-first+1)).Reply()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load keyboard mapping, falling back to keycodes")
		return
	}

	b.minKeycode = first
	b.keysymsPerKeycode = int(reply.KeysymsPerKeycode)
	b.keysyms = reply.Keysyms
}

func (b *X11Backend) initComposite() {
	log := logger.WithComponent("x11-backend")

	if err := composite.Init(b.conn); err != nil {
		log.Debug().Err(err).Msg("Composite extension not available")
		return
	}
	if _, err := composite.QueryVersion(b.conn, 0, 4).Reply(); err != nil {
		log.Debug().Err(err).Msg("Composite version negotiation failed")
		return
	}
	b.compositeEnabled = true
}

// Close closes the X11 connection. It may be called from another
// goroutine to unblock NextEvent. Requests after Close fail with ErrClosed.
func (b *X11Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		b.conn.Close()
	}
	return nil
}

// lock holds off Close until the caller's request completes. The caller
// releases it with mu.RUnlock.
func (b *X11Backend) lock() error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

// Name returns the backend name
func (b *X11Backend) Name() string {
	return "x11"
}

// Root returns the root window
func (b *X11Backend) Root() xproto.Window {
	return b.root
}

// ScreenNumber returns the default screen index
func (b *X11Backend) ScreenNumber() int {
	return b.conn.DefaultScreen
}

// ScreenSize returns the default screen's size in pixels
func (b *X11Backend) ScreenSize() (uint16, uint16) {
	return b.screen.WidthInPixels, b.screen.HeightInPixels
}

// findVisual returns a visual of the given depth and class
func (b *X11Backend) findVisual(depth byte, class byte) (xproto.Visualid, bool) {
	for _, d := range b.screen.AllowedDepths {
		if d.Depth != depth {
			continue
		}
		for _, v := range d.Visuals {
			if v.Class == class {
				return v.VisualId, true
			}
		}
	}
	return 0, false
}

// CreateSurface creates the override-redirect window described by spec
func (b *X11Backend) CreateSurface(spec SurfaceSpec) (Surface, error) {
	if err := b.lock(); err != nil {
		return Surface{}, err
	}
	defer b.mu.RUnlock()

	log := logger.WithComponent("x11-backend")

	depth := b.screen.RootDepth
	visual := b.screen.RootVisual
	argb := false
	if spec.Translucent {
		if v, ok := b.findVisual(32, xproto.VisualClassTrueColor); ok {
			depth, visual, argb = 32, v, true
		} else {
			log.Warn().Msg("No 32-bit TrueColor visual, overlay will be opaque")
		}
	}

	win, err := xproto.NewWindowId(b.conn)
	if err != nil {
		return Surface{}, fmt.Errorf("failed to create window ID: %w", err)
	}

	cmap, err := xproto.NewColormapId(b.conn)
	if err != nil {
		return Surface{}, fmt.Errorf("failed to create colormap ID: %w", err)
	}
	if err := xproto.CreateColormapChecked(b.conn, xproto.ColormapAllocNone, cmap, b.root, visual).Check(); err != nil {
		return Surface{}, fmt.Errorf("failed to create colormap: %w", err)
	}

	var cursor xproto.Cursor
	if spec.CursorGlyph != 0 {
		cursor, err = b.createFontCursor(spec.CursorGlyph)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create cursor, keeping the default")
			cursor = 0
		}
	}

	background := spec.Background
	if !argb {
		background &= 0x00ffffff
	}

	// Values must follow the bit order of the mask
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwOverrideRedirect |
		xproto.CwEventMask | xproto.CwColormap)
	values := []uint32{
		background,
		0, // border pixel, required when the depth differs from the root
		1, // override-redirect
		spec.EventMask,
		uint32(cmap),
	}
	if cursor != 0 {
		mask |= xproto.CwCursor
		values = append(values, uint32(cursor))
	}

	r := spec.Bounds
	err = xproto.CreateWindowChecked(
		b.conn,
		depth,
		win,
		b.root,
		int16(r.X), int16(r.Y),
		uint16(r.Width), uint16(r.Height),
		0, // border width
		xproto.WindowClassInputOutput,
		visual,
		mask,
		values,
	).Check()
	if err != nil {
		xproto.FreeColormap(b.conn, cmap)
		if cursor != 0 {
			xproto.FreeCursor(b.conn, cursor)
		}
		return Surface{}, fmt.Errorf("failed to create window: %w", err)
	}

	b.resources[win] = surfaceResources{colormap: cmap, cursor: cursor}

	log.Debug().
		Uint32("window_id", uint32(win)).
		Uint8("depth", depth).
		Bool("argb", argb).
		Str("bounds", r.String()).
		Msg("Surface created")

	return Surface{Window: win, Depth: depth, ARGB: argb}, nil
}

// createFontCursor creates a cursor from the standard X cursor font
func (b *X11Backend) createFontCursor(glyph uint16) (xproto.Cursor, error) {
	font, err := xproto.NewFontId(b.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to create cursor font id: %w", err)
	}
	if err := xproto.OpenFontChecked(b.conn, font, uint16(len("cursor")), "cursor").Check(); err != nil {
		return 0, fmt.Errorf("failed to open cursor font: %w", err)
	}
	defer xproto.CloseFont(b.conn, font)

	cursor, err := xproto.NewCursorId(b.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to create cursor id: %w", err)
	}
	if err := xproto.CreateGlyphCursorChecked(b.conn, cursor, font, font,
		glyph, glyph+1, 0, 0, 0, 0xffff, 0xffff, 0xffff).Check(); err != nil {
		return 0, fmt.Errorf("failed to create cursor glyph: %w", err)
	}
	return cursor, nil
}

// CreateInputWindow creates an unmapped 1x1 InputOnly window
func (b *X11Backend) CreateInputWindow() (xproto.Window, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	win, err := xproto.NewWindowId(b.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to create window ID: %w", err)
	}

	err = xproto.CreateWindowChecked(
		b.conn,
		0, // copy depth from parent
		win,
		b.root,
		-1, -1, 1, 1,
		0,
		xproto.WindowClassInputOnly,
		0, // copy visual from parent
		xproto.CwOverrideRedirect,
		[]uint32{1},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}
	return win, nil
}

// DestroyWindow destroys win and frees the resources created with it
func (b *X11Backend) DestroyWindow(win xproto.Window) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	err := xproto.DestroyWindowChecked(b.conn, win).Check()

	if res, ok := b.resources[win]; ok {
		xproto.FreeColormap(b.conn, res.colormap)
		if res.cursor != 0 {
			xproto.FreeCursor(b.conn, res.cursor)
		}
		delete(b.resources, win)
	}

	if err != nil {
		return fmt.Errorf("failed to destroy window: %w", err)
	}
	return nil
}

// MapWindow maps win
func (b *X11Backend) MapWindow(win xproto.Window) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	if err := xproto.MapWindowChecked(b.conn, win).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	return nil
}

// ClearWindow repaints win with its background. Drawing requests are
// unchecked; their errors arrive through the event queue.
func (b *X11Backend) ClearWindow(win xproto.Window) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	xproto.ClearArea(b.conn, false, win, 0, 0, 0, 0)
	return nil
}

// CreateGC creates a graphics context drawing in foreground
func (b *X11Backend) CreateGC(win xproto.Window, foreground uint32) (xproto.Gcontext, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	gc, err := xproto.NewGcontextId(b.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to create graphics context ID: %w", err)
	}

	err = xproto.CreateGCChecked(
		b.conn,
		gc,
		xproto.Drawable(win),
		xproto.GcForeground,
		[]uint32{foreground},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create GC: %w", err)
	}
	return gc, nil
}

// FreeGC frees a graphics context
func (b *X11Backend) FreeGC(gc xproto.Gcontext) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	xproto.FreeGC(b.conn, gc)
	return nil
}

func toRectangle(r geom.Rect) xproto.Rectangle {
	return xproto.Rectangle{
		X:      int16(r.X),
		Y:      int16(r.Y),
		Width:  uint16(r.Width),
		Height: uint16(r.Height),
	}
}

// FillRectangle fills r
func (b *X11Backend) FillRectangle(win xproto.Window, gc xproto.Gcontext, r geom.Rect) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	xproto.PolyFillRectangle(b.conn, xproto.Drawable(win), gc, []xproto.Rectangle{toRectangle(r)})
	return nil
}

// DrawRectangle outlines r. The outline covers exactly the pixels of r.
func (b *X11Backend) DrawRectangle(win xproto.Window, gc xproto.Gcontext, r geom.Rect) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	if r.Empty() {
		return nil
	}
	r.Width--
	r.Height--
	xproto.PolyRectangle(b.conn, xproto.Drawable(win), gc, []xproto.Rectangle{toRectangle(r)})
	return nil
}

// PutImage uploads little-endian 32-bit pixels to win as a ZPixmap
func (b *X11Backend) PutImage(win xproto.Window, gc xproto.Gcontext, r geom.Rect, depth byte, data []byte) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	if b.setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
		swapped := make([]byte, len(data))
		for i := 0; i+3 < len(data); i += 4 {
			binary.BigEndian.PutUint32(swapped[i:], binary.LittleEndian.Uint32(data[i:]))
		}
		data = swapped
	}
	xproto.PutImage(
		b.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(win),
		gc,
		uint16(r.Width), uint16(r.Height),
		int16(r.X), int16(r.Y),
		0, // left pad
		depth,
		data,
	)
	return nil
}

func grabStatusName(status byte) string {
	switch status {
	case xproto.GrabStatusSuccess:
		return "Success"
	case xproto.GrabStatusAlreadyGrabbed:
		return "AlreadyGrabbed"
	case xproto.GrabStatusInvalidTime:
		return "InvalidTime"
	case xproto.GrabStatusNotViewable:
		return "NotViewable"
	case xproto.GrabStatusFrozen:
		return "Frozen"
	default:
		return fmt.Sprintf("status %d", status)
	}
}

// GrabKeyboard grabs the keyboard to win
func (b *X11Backend) GrabKeyboard(win xproto.Window) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.GrabKeyboard(
		b.conn,
		true, // owner events
		win,
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply()
	if err != nil {
		return fmt.Errorf("failed to grab keyboard: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("failed to grab keyboard: %s", grabStatusName(reply.Status))
	}
	return nil
}

// UngrabKeyboard releases the keyboard grab
func (b *X11Backend) UngrabKeyboard() error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	if err := xproto.UngrabKeyboardChecked(b.conn, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to ungrab keyboard: %w", err)
	}
	return nil
}

// GrabPointer grabs the pointer to win, reporting the events in eventMask
func (b *X11Backend) GrabPointer(win xproto.Window, eventMask uint16) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.GrabPointer(
		b.conn,
		true, // owner events
		win,
		eventMask,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		xproto.WindowNone,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return fmt.Errorf("failed to grab pointer: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("failed to grab pointer: %s", grabStatusName(reply.Status))
	}
	return nil
}

// UngrabPointer releases the pointer grab
func (b *X11Backend) UngrabPointer() error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	if err := xproto.UngrabPointerChecked(b.conn, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to ungrab pointer: %w", err)
	}
	return nil
}

// InternAtom gets an atom ID by name
func (b *X11Backend) InternAtom(name string) (xproto.Atom, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	if atom, ok := b.atoms[name]; ok {
		return atom, nil
	}

	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern atom %s: %w", name, err)
	}

	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// LookupAtom returns the atom named name without creating it, 0 if the
// server has never interned it
func (b *X11Backend) LookupAtom(name string) (xproto.Atom, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	if atom, ok := b.atoms[name]; ok {
		return atom, nil
	}

	reply, err := xproto.InternAtom(b.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to look up atom %s: %w", name, err)
	}
	if reply.Atom != xproto.AtomNone {
		b.atoms[name] = reply.Atom
	}
	return reply.Atom, nil
}

// SelectionOwner returns the window owning selection, 0 if none
func (b *X11Backend) SelectionOwner(selection xproto.Atom) (xproto.Window, error) {
	if err := b.lock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.GetSelectionOwner(b.conn, selection).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get selection owner: %w", err)
	}
	return reply.Owner, nil
}

// SetSelectionOwner makes owner the owner of selection
func (b *X11Backend) SetSelectionOwner(owner xproto.Window, selection xproto.Atom) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	if err := xproto.SetSelectionOwnerChecked(b.conn, owner, selection, xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to set selection owner: %w", err)
	}
	return nil
}

// Children returns the children of win, bottom-most first
func (b *X11Backend) Children(win xproto.Window) ([]xproto.Window, error) {
	if err := b.lock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()

	tree, err := xproto.QueryTree(b.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query tree: %w", err)
	}
	return tree.Children, nil
}

// Geometry returns the geometry of win relative to its parent
func (b *X11Backend) Geometry(win xproto.Window) (Geometry, error) {
	if err := b.lock(); err != nil {
		return Geometry{}, err
	}
	defer b.mu.RUnlock()

	g, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to get window geometry: %w", err)
	}
	return Geometry{
		Rect: geom.Rect{
			X:      int(g.X),
			Y:      int(g.Y),
			Width:  uint32(g.Width),
			Height: uint32(g.Height),
		},
		BorderWidth: uint32(g.BorderWidth),
	}, nil
}

// Property reads the whole value of a window property
func (b *X11Backend) Property(win xproto.Window, prop xproto.Atom) (*Property, error) {
	if err := b.lock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		prop,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return &Property{
		Type:   reply.Type,
		Format: reply.Format,
		Value:  reply.Value,
	}, nil
}

// ChangeProperty replaces a property on win
func (b *X11Backend) ChangeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, data []byte) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	count := len(data) / int(format/8)
	err := xproto.ChangePropertyChecked(
		b.conn,
		xproto.PropModeReplace,
		win,
		prop,
		typ,
		format,
		uint32(count),
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to change property: %w", err)
	}
	return nil
}

// SelectPropertyEvents subscribes to property changes of win
func (b *X11Backend) SelectPropertyEvents(win xproto.Window) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	err := xproto.ChangeWindowAttributesChecked(
		b.conn,
		win,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to set event mask: %w", err)
	}
	return nil
}

// SendSelectionNotify tells the requestor the conversion result
func (b *X11Backend) SendSelectionNotify(req SelectionRequest, property xproto.Atom) error {
	if err := b.lock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	ev := xproto.SelectionNotifyEvent{
		Time:      req.Time,
		Requestor: req.Requestor,
		Selection: req.Selection,
		Target:    req.Target,
		Property:  property,
	}
	err := xproto.SendEventChecked(
		b.conn,
		false,
		req.Requestor,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
	if err != nil {
		return fmt.Errorf("failed to send selection notify: %w", err)
	}
	return nil
}

// QueryPointer returns the pointer position on the root window
func (b *X11Backend) QueryPointer() (CursorSample, error) {
	if err := b.lock(); err != nil {
		return CursorSample{}, err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.QueryPointer(b.conn, b.root).Reply()
	if err != nil {
		return CursorSample{}, fmt.Errorf("failed to query pointer: %w", err)
	}
	return CursorSample{
		Point: geom.Point{X: int(reply.RootX), Y: int(reply.RootY)},
		Root:  reply.Root,
		Child: reply.Child,
	}, nil
}

// TranslateCoordinates maps (x, y) in win to root coordinates
func (b *X11Backend) TranslateCoordinates(win xproto.Window, x, y int) (geom.Point, error) {
	if err := b.lock(); err != nil {
		return geom.Point{}, err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.TranslateCoordinates(b.conn, win, b.root, int16(x), int16(y)).Reply()
	if err != nil {
		return geom.Point{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}
	return geom.Point{X: int(reply.DstX), Y: int(reply.DstY)}, nil
}

// pixmapFormat returns the pixmap format the server uses for depth
func (b *X11Backend) pixmapFormat(depth byte) (xproto.Format, bool) {
	for _, f := range b.setup.PixmapFormats {
		if f.Depth == depth {
			return f, true
		}
	}
	return xproto.Format{}, false
}

// GetImage retrieves a ZPixmap image of r from drawable d
func (b *X11Backend) GetImage(d xproto.Drawable, r geom.Rect) (*Image, error) {
	if err := b.lock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()

	reply, err := xproto.GetImage(
		b.conn,
		xproto.ImageFormatZPixmap,
		d,
		int16(r.X), int16(r.Y),
		uint16(r.Width), uint16(r.Height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if len(reply.Data) == 0 {
		return nil, fmt.Errorf("failed to get image: no data returned")
	}

	format, ok := b.pixmapFormat(reply.Depth)
	if !ok {
		return nil, fmt.Errorf("failed to get image: no pixmap format for depth %d", reply.Depth)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if b.setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
		order = binary.BigEndian
	}

	return &Image{
		Width:        int(r.Width),
		Height:       int(r.Height),
		Depth:        reply.Depth,
		BitsPerPixel: format.BitsPerPixel,
		ScanlinePad:  format.ScanlinePad,
		ByteOrder:    order,
		Data:         reply.Data,
	}, nil
}

// NameWindowPixmap redirects win off-screen and names its backing pixmap,
// so obscured parts of the window can be read
func (b *X11Backend) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, func(), error) {
	if err := b.lock(); err != nil {
		return 0, nil, err
	}
	defer b.mu.RUnlock()

	if !b.compositeEnabled {
		return 0, nil, ErrCompositeUnavailable
	}

	if err := composite.RedirectWindowChecked(b.conn, win, composite.RedirectAutomatic).Check(); err != nil {
		return 0, nil, fmt.Errorf("failed to redirect window: %w", err)
	}
	unredirect := func() {
		composite.UnredirectWindow(b.conn, win, composite.RedirectAutomatic)
	}

	pixmap, err := xproto.NewPixmapId(b.conn)
	if err != nil {
		unredirect()
		return 0, nil, fmt.Errorf("failed to create pixmap ID: %w", err)
	}
	if err := composite.NameWindowPixmapChecked(b.conn, win, pixmap).Check(); err != nil {
		unredirect()
		return 0, nil, fmt.Errorf("failed to name window pixmap: %w", err)
	}

	release := func() {
		if b.lock() != nil {
			return
		}
		defer b.mu.RUnlock()
		xproto.FreePixmap(b.conn, pixmap)
		unredirect()
	}
	return pixmap, release, nil
}

// NextEvent blocks for the next event. Protocol errors of unchecked
// requests are logged and skipped.
func (b *X11Backend) NextEvent() (Event, error) {
	log := logger.WithComponent("x11-backend")

	for {
		ev, xErr := b.conn.WaitForEvent()
		if ev == nil && xErr == nil {
			return nil, ErrClosed
		}
		if xErr != nil {
			log.Debug().Str("error", xErr.Error()).Msg("X protocol error")
			continue
		}
		return b.translate(ev), nil
	}
}

func (b *X11Backend) translate(ev xgb.Event) Event {
	switch e := ev.(type) {
	case xproto.ButtonPressEvent:
		return ButtonPress{Button: byte(e.Detail), Point: geom.Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.ButtonReleaseEvent:
		return ButtonRelease{Button: byte(e.Detail), Point: geom.Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.KeyPressEvent:
		return KeyPress{Keycode: byte(e.Detail), Keysym: b.keysym(e.Detail)}
	case xproto.MotionNotifyEvent:
		return Motion{Point: geom.Point{X: int(e.RootX), Y: int(e.RootY)}}
	case xproto.DestroyNotifyEvent:
		return DestroyNotify{Window: e.Window}
	case xproto.SelectionRequestEvent:
		return SelectionRequest{
			Time:      e.Time,
			Owner:     e.Owner,
			Requestor: e.Requestor,
			Selection: e.Selection,
			Target:    e.Target,
			Property:  e.Property,
		}
	case xproto.SelectionClearEvent:
		return SelectionClear{Owner: e.Owner, Selection: e.Selection}
	case xproto.PropertyNotifyEvent:
		return PropertyNotify{Window: e.Window, Atom: e.Atom, Deleted: e.State == xproto.PropertyDelete}
	default:
		return Other{}
	}
}

// keysym returns the first keysym bound to code, 0 if unknown
func (b *X11Backend) keysym(code xproto.Keycode) uint32 {
	if b.keysymsPerKeycode == 0 || code < b.minKeycode {
		return 0
	}
	i := int(code-b.minKeycode) * b.keysymsPerKeycode
	if i >= len(b.keysyms) {
		return 0
	}
	return uint32(b.keysyms[i])
}

// Sync waits until the server has processed all requests
func (b *X11Backend) Sync() {
	if b.lock() != nil {
		return
	}
	defer b.mu.RUnlock()
	b.conn.Sync()
}
