package window

import (
	"encoding/binary"

	"github.com/BurntSushi/xgb/xproto"
)

// Property is a window property value. Value is owned by the caller.
type Property struct {
	Type   xproto.Atom
	Format byte // 8, 16 or 32; 0 when the property does not exist
	Value  []byte
}

// Exists reports whether the property was set on the window
func (p *Property) Exists() bool {
	return p != nil && p.Format != 0
}

// Len returns the number of items of the property's format
func (p *Property) Len() int {
	if !p.Exists() {
		return 0
	}
	return len(p.Value) / int(p.Format/8)
}

// Uint32At returns the i-th CARDINAL/WINDOW/ATOM item of a 32-bit property
func (p *Property) Uint32At(i int) (uint32, bool) {
	if !p.Exists() || p.Format != 32 || i < 0 || i >= p.Len() {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p.Value[i*4:]), true
}

// Uint32s encodes values as the payload of a 32-bit property
func Uint32s(values ...uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}
