package overlay

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bryanchriswhite/xscreen/internal/geom"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelGap is the distance between a selection and its size label
const labelGap = 4

// Label is a small text box drawn next to the selection
type Label struct {
	Text       string
	TextColor  color.RGBA
	Background color.RGBA // premultiplied; used as-is on ARGB surfaces
	Padding    int
}

// SizeLabel returns the WxH label for r
func SizeLabel(r geom.Rect) Label {
	return Label{
		Text:       fmt.Sprintf("%dx%d", r.Width, r.Height),
		TextColor:  color.RGBA{255, 255, 255, 255},
		Background: color.RGBA{0, 0, 0, 0xb0},
		Padding:    3,
	}
}

// Render draws the label into a new image sized to fit the text
func (l Label) Render() *image.RGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()

	d := &font.Drawer{Face: face}
	width := d.MeasureString(l.Text).Ceil() + l.Padding*2
	height := (metrics.Ascent + metrics.Descent).Ceil() + l.Padding*2

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(l.Background), image.Point{}, draw.Src)

	d.Dst = img
	d.Src = image.NewUniform(l.TextColor)
	d.Dot = fixed.Point26_6{
		X: fixed.I(l.Padding),
		Y: fixed.I(l.Padding) + metrics.Ascent,
	}
	d.DrawString(l.Text)

	return img
}

// Place positions a label of the given size below the selection's bottom
// right corner, or above it when there is no room, inside screen.
func Place(sel geom.Rect, size image.Point, screen geom.Rect) geom.Point {
	x := sel.Right() - size.X
	y := sel.Bottom() + labelGap
	if y+size.Y > screen.Bottom() {
		y = sel.Y - labelGap - size.Y
	}
	if y < screen.Y {
		y = screen.Y
	}
	if x+size.X > screen.Right() {
		x = screen.Right() - size.X
	}
	if x < screen.X {
		x = screen.X
	}
	return geom.Point{X: x, Y: y}
}

// zpixmap packs img as little-endian 32-bit pixels. The alpha byte is kept
// for ARGB surfaces and cleared otherwise.
func zpixmap(img *image.RGBA, argb bool) []byte {
	b := img.Bounds()
	out := make([]byte, b.Dx()*b.Dy()*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			a := uint32(c.A)
			if !argb {
				a = 0
			}
			binary.LittleEndian.PutUint32(out[i:], a<<24|uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B))
			i += 4
		}
	}
	return out
}
