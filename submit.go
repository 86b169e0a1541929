package tabletop

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// whitePixel is a 1x1 white image used for solid rotated fills.
var whitePixel *ebiten.Image

// defaultFontSource backs token labels when no font is registered for the
// requested family.
var defaultFontSource *text.GoTextFaceSource

func init() {
	whitePixel = ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)

	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		// goregular is embedded and known-good; failing to parse it means
		// a broken toolchain, not bad board data.
		fmt.Fprintf(os.Stderr, "[tabletop] default font: %v\n", err)
		return
	}
	defaultFontSource = src
}

// toRGBA converts to a premultiplied 8-bit RGBA color.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(c.R * c.A * 255)),
		G: uint8(math.Round(c.G * c.A * 255)),
		B: uint8(math.Round(c.B * c.A * 255)),
		A: uint8(math.Round(c.A * 255)),
	}
}

// deviceScale returns the world-to-device pixel scale factor.
func (e *Engine) deviceScale() float64 {
	return e.cam.Zoom() * e.dpr
}

// worldToDevice maps a world point to physical backing-store pixels.
func (e *Engine) worldToDevice(wx, wy float64) (float64, float64) {
	sx, sy := e.cam.WorldToScreen(wx, wy)
	return sx * e.dpr, sy * e.dpr
}

// opGeoM builds the GeoM that maps an op's unit square onto its rotated
// world rectangle and then into device pixels.
func (e *Engine) opGeoM(op *drawOp, srcW, srcH float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.Scale(op.Width/srcW, op.Height/srcH)
	g.Translate(-op.Width/2, -op.Height/2)
	g.Rotate(op.Rotation * math.Pi / 180)
	g.Translate(op.X+op.Width/2, op.Y+op.Height/2)
	g.Scale(e.deviceScale(), e.deviceScale())
	g.Translate(e.cam.PanX*e.dpr, e.cam.PanY*e.dpr)
	return g
}

// opCorners returns the op rectangle's four corners (clockwise from
// top-left) in device pixels, honoring rotation.
func (e *Engine) opCorners(op *drawOp) [4][2]float64 {
	cx := op.X + op.Width/2
	cy := op.Y + op.Height/2
	hw := op.Width / 2
	hh := op.Height / 2
	local := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	var out [4][2]float64
	for i, p := range local {
		rx, ry := rotatePoint(p[0], p[1], op.Rotation)
		out[i][0], out[i][1] = e.worldToDevice(cx+rx, cy+ry)
	}
	return out
}

// submit executes a compiled op list onto dst.
func (e *Engine) submit(dst *ebiten.Image, ops []drawOp) {
	for i := range ops {
		op := &ops[i]
		switch op.Kind {
		case opClear:
			dst.Fill(op.Color.toRGBA())

		case opFillRect:
			var o ebiten.DrawImageOptions
			o.GeoM = e.opGeoM(op, 1, 1)
			o.ColorScale.ScaleWithColor(op.Color.toRGBA())
			dst.DrawImage(whitePixel, &o)

		case opStrokeRect:
			e.strokeRect(dst, op)

		case opFillCircle:
			cx, cy := e.worldToDevice(op.X+op.Width/2, op.Y+op.Width/2)
			r := op.Width / 2 * e.deviceScale()
			vector.DrawFilledCircle(dst, float32(cx), float32(cy), float32(r), op.Color.toRGBA(), true)

		case opStrokeCircle:
			cx, cy := e.worldToDevice(op.X+op.Width/2, op.Y+op.Width/2)
			r := op.Width / 2 * e.deviceScale()
			w := op.StrokeWidth * e.deviceScale()
			vector.StrokeCircle(dst, float32(cx), float32(cy), float32(r), float32(w), op.Color.toRGBA(), true)

		case opImage:
			b := op.Img.Bounds()
			var o ebiten.DrawImageOptions
			o.GeoM = e.opGeoM(op, float64(b.Dx()), float64(b.Dy()))
			o.Filter = ebiten.FilterLinear
			dst.DrawImage(op.Img, &o)

		case opCross:
			c := e.opCorners(op)
			w := float32(op.StrokeWidth * e.deviceScale())
			clr := op.Color.toRGBA()
			vector.StrokeLine(dst, float32(c[0][0]), float32(c[0][1]), float32(c[2][0]), float32(c[2][1]), w, clr, true)
			vector.StrokeLine(dst, float32(c[1][0]), float32(c[1][1]), float32(c[3][0]), float32(c[3][1]), w, clr, true)

		case opText:
			e.drawText(dst, op)
		}
	}
}

// strokeRect draws a rectangle outline. Axis-aligned rects use the vector
// helper; rotated rects stroke their four transformed edges.
func (e *Engine) strokeRect(dst *ebiten.Image, op *drawOp) {
	w := float32(op.StrokeWidth * e.deviceScale())
	clr := op.Color.toRGBA()
	if op.Rotation == 0 {
		x, y := e.worldToDevice(op.X, op.Y)
		vector.StrokeRect(dst, float32(x), float32(y),
			float32(op.Width*e.deviceScale()), float32(op.Height*e.deviceScale()),
			w, clr, true)
		return
	}
	c := e.opCorners(op)
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		vector.StrokeLine(dst, float32(c[i][0]), float32(c[i][1]), float32(c[j][0]), float32(c[j][1]), w, clr, true)
	}
}

// namePad is the world-unit gap between a token's top edge and its name plate.
const namePad = 3.0

// drawText renders a single-line label. Centered labels sit at the token's
// center; name plates sit above the top edge. Both rotate with the token.
func (e *Engine) drawText(dst *ebiten.Image, op *drawOp) {
	src := e.fontSource(op.Font)
	if src == nil {
		return
	}
	face := &text.GoTextFace{Source: src, Size: op.TextSize * e.deviceScale()}

	cx := op.X + op.Width/2
	cy := op.Y + op.Height/2

	var o text.DrawOptions
	o.PrimaryAlign = text.AlignCenter
	o.SecondaryAlign = text.AlignCenter

	anchorX, anchorY := cx, cy
	if op.Above {
		// Anchor the bottom of the text namePad above the top edge, in the
		// token's rotated frame.
		ox, oy := rotatePoint(0, -(op.Height/2 + namePad), op.Rotation)
		anchorX, anchorY = cx+ox, cy+oy
		o.SecondaryAlign = text.AlignEnd
	}

	dx, dy := e.worldToDevice(anchorX, anchorY)
	o.GeoM.Rotate(op.Rotation * math.Pi / 180)
	o.GeoM.Translate(dx, dy)
	o.ColorScale.ScaleWithColor(op.Color.toRGBA())
	text.Draw(dst, op.Text, face, &o)
}

// fontSource resolves a font family name to a registered source, falling
// back to the default face.
func (e *Engine) fontSource(family string) *text.GoTextFaceSource {
	if family != "" {
		if src, ok := e.fonts[family]; ok {
			return src
		}
	}
	return defaultFontSource
}
