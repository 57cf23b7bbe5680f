package clipboard

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/window/windowtest"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
)

const requestor = xproto.Window(0x3000001)

func newServer(t *testing.T, data []byte) (*windowtest.Fake, *Server) {
	t.Helper()
	b := windowtest.New()
	s, err := New(b, data)
	require.NoError(t, err)
	return b, s
}

func request(b *windowtest.Fake, s *Server, target string, property string) window.SelectionRequest {
	return window.SelectionRequest{
		Owner:     s.Window(),
		Requestor: requestor,
		Selection: b.Atom("CLIPBOARD"),
		Target:    b.Atom(target),
		Property:  b.Atom(property),
	}
}

func takeOver(b *windowtest.Fake, s *Server) window.SelectionClear {
	return window.SelectionClear{Owner: s.Window(), Selection: b.Atom("CLIPBOARD")}
}

func TestServeTargets(t *testing.T) {
	b, s := newServer(t, []byte("png"))
	req := request(b, s, "TARGETS", "XSEL_DATA")
	b.Events = []window.Event{req, takeOver(b, s)}

	require.NoError(t, s.Serve(context.Background()))

	assert.Equal(t, s.Window(), b.Owners[b.Atom("CLIPBOARD")])
	require.Len(t, b.Notifies, 1)
	assert.Equal(t, b.Atom("XSEL_DATA"), b.Notifies[0].Property)

	prop := b.Properties[requestor][b.Atom("XSEL_DATA")]
	require.True(t, prop.Exists())
	assert.Equal(t, xproto.Atom(xproto.AtomAtom), prop.Type)
	first, _ := prop.Uint32At(0)
	second, _ := prop.Uint32At(1)
	assert.Equal(t, []uint32{uint32(b.Atom("TARGETS")), uint32(b.Atom(MimePNG))}, []uint32{first, second})

	assert.True(t, b.Destroyed[s.Window()])
}

func TestServeImage(t *testing.T) {
	data := []byte("\x89PNG small image")
	b, s := newServer(t, data)
	b.Events = []window.Event{request(b, s, MimePNG, "XSEL_DATA"), takeOver(b, s)}

	require.NoError(t, s.Serve(context.Background()))

	prop := b.Properties[requestor][b.Atom("XSEL_DATA")]
	require.True(t, prop.Exists())
	assert.Equal(t, b.Atom(MimePNG), prop.Type)
	assert.Equal(t, byte(8), prop.Format)
	assert.Equal(t, data, prop.Value)
	require.Len(t, b.Notifies, 1)
	assert.Equal(t, b.Atom("XSEL_DATA"), b.Notifies[0].Property)
}

func TestServeObsoleteRequestor(t *testing.T) {
	b, s := newServer(t, []byte("png"))
	req := request(b, s, MimePNG, "XSEL_DATA")
	req.Property = xproto.AtomNone
	b.Events = []window.Event{req, takeOver(b, s)}

	require.NoError(t, s.Serve(context.Background()))

	require.Len(t, b.Notifies, 1)
	assert.Equal(t, b.Atom(MimePNG), b.Notifies[0].Property)
}

func TestServeRefusesUnknownTarget(t *testing.T) {
	b, s := newServer(t, []byte("png"))
	b.Events = []window.Event{request(b, s, "UTF8_STRING", "XSEL_DATA"), takeOver(b, s)}

	require.NoError(t, s.Serve(context.Background()))

	require.Len(t, b.Notifies, 1)
	assert.Equal(t, xproto.Atom(xproto.AtomNone), b.Notifies[0].Property)
	assert.Zero(t, b.Count("ChangeProperty"))
}

func TestServeIgnoresOtherSelections(t *testing.T) {
	b, s := newServer(t, []byte("png"))
	req := request(b, s, MimePNG, "XSEL_DATA")
	req.Selection = b.Atom("PRIMARY")
	b.Events = []window.Event{
		req,
		window.SelectionClear{Owner: s.Window(), Selection: b.Atom("PRIMARY")},
		takeOver(b, s),
	}

	require.NoError(t, s.Serve(context.Background()))
	assert.Empty(t, b.Notifies)
}

func TestServeIncremental(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, 2*ChunkSize+100)
	b, s := newServer(t, data)
	property := b.Atom("XSEL_DATA")
	deleted := window.PropertyNotify{Window: requestor, Atom: property, Deleted: true}

	b.Events = []window.Event{
		request(b, s, MimePNG, "XSEL_DATA"),
		// the selection is lost mid-transfer; the transfer still completes
		takeOver(b, s),
		deleted,
		window.PropertyNotify{Window: requestor, Atom: property, Deleted: false},
		deleted,
		deleted,
		deleted,
	}

	require.NoError(t, s.Serve(context.Background()))
	assert.Empty(t, b.Events, "serving stops after the final chunk")

	assert.Equal(t, 1, b.Count("SelectPropertyEvents"))
	changes := b.CallsNamed("ChangeProperty")
	require.Len(t, changes, 5)

	sizes := make([]int, len(changes))
	for i, c := range changes {
		sizes[i] = c.Args[4].(int)
	}
	assert.Equal(t, []int{4, ChunkSize, ChunkSize, 100, 0}, sizes)
	assert.Equal(t, b.Atom("INCR"), changes[0].Args[2])

	require.Len(t, b.Notifies, 1)
	assert.Equal(t, property, b.Notifies[0].Property)
}

func TestServeFailures(t *testing.T) {
	t.Run("selection not acquired", func(t *testing.T) {
		b, s := newServer(t, []byte("png"))
		b.Fail["SetSelectionOwner"] = errors.New("BadWindow")

		err := s.Serve(context.Background())
		assert.ErrorIs(t, err, ErrNotOwner)
		assert.ErrorIs(t, err, xerr.IOError)
	})

	t.Run("connection lost", func(t *testing.T) {
		_, s := newServer(t, []byte("png"))

		err := s.Serve(context.Background())
		assert.ErrorIs(t, err, xerr.ConnectionError)
	})

	t.Run("interrupted", func(t *testing.T) {
		b, s := newServer(t, []byte("png"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Serve(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, b.Count("DestroyWindow"), "connection is closed on interrupt")
	})
}
