package selection

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/xscreen/internal/config"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/bryanchriswhite/xscreen/internal/window"
)

const (
	// normalState is the WM_STATE value of a mapped, non-iconified window
	normalState = 1
	// allDesktops is the _NET_WM_DESKTOP value of sticky windows
	allDesktops = 0xFFFFFFFF
)

// Visibility decides whether a window may be picked
type Visibility func(win xproto.Window) bool

// NewVisibility returns the predicate named by mode
func NewVisibility(b window.Backend, mode string) (Visibility, error) {
	switch mode {
	case config.VisibilityWMState:
		return wmStateVisibility(b)
	case config.VisibilityWorkspace:
		return workspaceVisibility(b)
	default:
		return nil, fmt.Errorf("unknown visibility mode %q", mode)
	}
}

// wmStateVisibility accepts windows whose WM_STATE is NormalState
func wmStateVisibility(b window.Backend) (Visibility, error) {
	wmState, err := b.InternAtom("WM_STATE")
	if err != nil {
		return nil, err
	}

	return func(win xproto.Window) bool {
		prop, err := b.Property(win, wmState)
		if err != nil {
			return false
		}
		state, ok := prop.Uint32At(0)
		return ok && state == normalState
	}, nil
}

// workspaceVisibility accepts windows on the current desktop and sticky
// windows
func workspaceVisibility(b window.Backend) (Visibility, error) {
	log := logger.WithComponent("picker")

	wmDesktop, err := b.InternAtom("_NET_WM_DESKTOP")
	if err != nil {
		return nil, err
	}
	currentDesktop, err := b.InternAtom("_NET_CURRENT_DESKTOP")
	if err != nil {
		return nil, err
	}

	prop, err := b.Property(b.Root(), currentDesktop)
	if err != nil {
		return nil, fmt.Errorf("failed to read current desktop: %w", err)
	}
	current, haveCurrent := prop.Uint32At(0)
	if !haveCurrent {
		log.Warn().Msg("Window manager does not publish _NET_CURRENT_DESKTOP, accepting every desktop")
	}

	return func(win xproto.Window) bool {
		prop, err := b.Property(win, wmDesktop)
		if err != nil {
			return false
		}
		desktop, ok := prop.Uint32At(0)
		if !ok {
			return false
		}
		return !haveCurrent || desktop == current || desktop == allDesktops
	}, nil
}
