// Package compositor detects a running compositing manager.
package compositor

import (
	"fmt"

	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
)

// SelectionName returns the manager selection a compositor owns on screen
func SelectionName(screen int) string {
	return fmt.Sprintf("_NET_WM_CM_S%d", screen)
}

// HasCompositor reports whether the _NET_WM_CM_S<n> selection of the default
// screen has an owner. Query failures count as no compositor. The atom is
// looked up, never created.
func HasCompositor(b window.Backend) bool {
	log := logger.WithComponent("compositor")

	name := SelectionName(b.ScreenNumber())
	atom, err := b.LookupAtom(name)
	if err != nil {
		log.Debug().Err(err).Str("selection", name).Msg("Failed to look up compositor atom")
		return false
	}
	if atom == 0 {
		// no client ever named the selection, so nobody owns it
		log.Debug().Str("selection", name).Msg("Compositor atom does not exist")
		return false
	}

	owner, err := b.SelectionOwner(atom)
	if err != nil {
		log.Debug().Err(err).Str("selection", name).Msg("Failed to query compositor selection owner")
		return false
	}

	log.Debug().Str("selection", name).Uint32("owner", uint32(owner)).Msg("Compositor selection owner")
	return owner != 0
}
