// Package clipboard offers a PNG image on the CLIPBOARD selection.
package clipboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
	"github.com/bryanchriswhite/xscreen/internal/xerr"
	"github.com/dustin/go-humanize"
)

// ChunkSize is the largest payload sent in one property change. Larger
// images are transferred incrementally.
const ChunkSize = 64 * 1024

// MimePNG is the target under which the image is offered
const MimePNG = "image/png"

// ErrNotOwner is returned when the selection could not be acquired
var ErrNotOwner = errors.New("failed to become the clipboard owner")

type atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	png       xproto.Atom
	incr      xproto.Atom
}

type transferKey struct {
	requestor xproto.Window
	property  xproto.Atom
}

// Server owns the clipboard and answers conversion requests until another
// client takes the selection
type Server struct {
	backend   window.Backend
	owner     xproto.Window
	data      []byte
	atoms     atoms
	transfers map[transferKey]int // next offset per incremental transfer
	lost      bool
}

// New prepares a server offering data as image/png
func New(b window.Backend, data []byte) (*Server, error) {
	var a atoms
	for name, dst := range map[string]*xproto.Atom{
		"CLIPBOARD": &a.clipboard,
		"TARGETS":   &a.targets,
		MimePNG:     &a.png,
		"INCR":      &a.incr,
	} {
		atom, err := b.InternAtom(name)
		if err != nil {
			return nil, xerr.New(xerr.ConnectionError, err)
		}
		*dst = atom
	}

	owner, err := b.CreateInputWindow()
	if err != nil {
		return nil, xerr.New(xerr.ConnectionError, fmt.Errorf("failed to create clipboard window: %w", err))
	}

	return &Server{
		backend:   b,
		owner:     owner,
		data:      data,
		atoms:     a,
		transfers: make(map[transferKey]int),
	}, nil
}

// Window returns the window owning the selection
func (s *Server) Window() xproto.Window {
	return s.owner
}

// Serve takes the selection and answers requests. It returns nil once the
// selection was taken over and pending transfers completed.
func (s *Server) Serve(ctx context.Context) error {
	log := logger.WithComponent("clipboard")
	defer func() {
		// the connection may already be closed once ctx is done
		if ctx.Err() == nil {
			s.backend.DestroyWindow(s.owner)
		}
	}()

	if err := s.backend.SetSelectionOwner(s.owner, s.atoms.clipboard); err != nil {
		return xerr.New(xerr.IOError, fmt.Errorf("%w: %w", ErrNotOwner, err))
	}
	owner, err := s.backend.SelectionOwner(s.atoms.clipboard)
	if err != nil || owner != s.owner {
		return xerr.New(xerr.IOError, ErrNotOwner)
	}

	log.Info().Str("size", humanize.Bytes(uint64(len(s.data)))).Msg("Serving screenshot on the clipboard")

	for !s.lost || len(s.transfers) > 0 {
		ev, err := s.backend.NextEvent()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return xerr.New(xerr.ConnectionError, fmt.Errorf("failed to read event: %w", err))
		}

		switch e := ev.(type) {
		case window.SelectionRequest:
			if e.Owner == s.owner && e.Selection == s.atoms.clipboard {
				s.handleRequest(e)
			}
		case window.SelectionClear:
			if e.Owner == s.owner && e.Selection == s.atoms.clipboard {
				log.Info().Int("pending", len(s.transfers)).Msg("Clipboard taken over by another client")
				s.lost = true
			}
		case window.PropertyNotify:
			if e.Deleted {
				s.continueTransfer(transferKey{requestor: e.Window, property: e.Atom})
			}
		}
	}
	return nil
}

func (s *Server) handleRequest(req window.SelectionRequest) {
	log := logger.WithComponent("clipboard")

	property := req.Property
	if property == xproto.AtomNone {
		// obsolete clients leave the property to the owner
		property = req.Target
	}

	var err error
	switch req.Target {
	case s.atoms.targets:
		err = s.backend.ChangeProperty(req.Requestor, property, xproto.AtomAtom, 32,
			window.Uint32s(uint32(s.atoms.targets), uint32(s.atoms.png)))
	case s.atoms.png:
		err = s.sendImage(req.Requestor, property)
	default:
		log.Debug().Uint32("target", uint32(req.Target)).Msg("Refusing unsupported target")
		property = xproto.AtomNone
	}
	if err != nil {
		log.Warn().Err(err).Uint32("requestor", uint32(req.Requestor)).Msg("Failed to answer clipboard request")
		property = xproto.AtomNone
	}

	if err := s.backend.SendSelectionNotify(req, property); err != nil {
		log.Warn().Err(err).Uint32("requestor", uint32(req.Requestor)).Msg("Failed to notify requestor")
	}
}

// sendImage stores the image on the requestor, starting an incremental
// transfer when it does not fit one chunk
func (s *Server) sendImage(requestor xproto.Window, property xproto.Atom) error {
	if len(s.data) <= ChunkSize {
		return s.backend.ChangeProperty(requestor, property, s.atoms.png, 8, s.data)
	}

	if err := s.backend.SelectPropertyEvents(requestor); err != nil {
		return err
	}
	err := s.backend.ChangeProperty(requestor, property, s.atoms.incr, 32, window.Uint32s(uint32(len(s.data))))
	if err != nil {
		return err
	}
	s.transfers[transferKey{requestor: requestor, property: property}] = 0

	logger.WithComponent("clipboard").Debug().
		Uint32("requestor", uint32(requestor)).
		Int("bytes", len(s.data)).
		Msg("Started incremental transfer")
	return nil
}

// continueTransfer sends the next chunk once the requestor deleted the
// previous one. The transfer ends with an empty chunk.
func (s *Server) continueTransfer(key transferKey) {
	offset, ok := s.transfers[key]
	if !ok {
		return
	}

	end := min(offset+ChunkSize, len(s.data))
	chunk := s.data[offset:end]
	if err := s.backend.ChangeProperty(key.requestor, key.property, s.atoms.png, 8, chunk); err != nil {
		logger.WithComponent("clipboard").Warn().Err(err).
			Uint32("requestor", uint32(key.requestor)).
			Msg("Incremental transfer aborted")
		delete(s.transfers, key)
		return
	}

	if len(chunk) == 0 {
		delete(s.transfers, key)
		return
	}
	s.transfers[key] = end
}
