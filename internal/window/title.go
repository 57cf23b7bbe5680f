package window

import (
	"github.com/BurntSushi/xgb/xproto"
)

// Title returns the window's title, preferring the UTF-8 _NET_WM_NAME over
// the legacy WM_NAME. It returns "" when neither is set.
func Title(b Backend, win xproto.Window) string {
	for _, name := range []string{"_NET_WM_NAME", "WM_NAME"} {
		atom, err := b.InternAtom(name)
		if err != nil {
			continue
		}
		prop, err := b.Property(win, atom)
		if err != nil || !prop.Exists() || prop.Format != 8 || len(prop.Value) == 0 {
			continue
		}
		return string(prop.Value)
	}
	return ""
}
