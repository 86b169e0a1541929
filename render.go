package tabletop

import (
	"math"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// opKind identifies the kind of draw operation.
type opKind uint8

const (
	opClear        opKind = iota // fill the whole logical viewport (screen space)
	opFillRect                   // filled rectangle, rotated about its center
	opStrokeRect                 // stroked rectangle outline, rotated about its center
	opFillCircle                 // filled circle inscribed in the op rect
	opStrokeCircle               // stroked circle outline
	opImage                      // image scaled into the op rect
	opCross                      // diagonal X across the op rect (load-failure indicator)
	opText                       // single line of text anchored to the op rect
)

// drawOp is a single draw instruction emitted while compiling a frame.
// Geometry is in world units (except opClear, which is logical screen
// units); the submitter applies the camera transform. Keeping the frame as
// an explicit op list makes draw ordering testable without a GPU.
type drawOp struct {
	Kind    opKind
	TokenID string // originating token, "" for board/background ops

	// X, Y, Width, Height are the op's world-space rectangle. Circles are
	// inscribed in it; text is anchored to it.
	X, Y, Width, Height float64
	// Rotation in degrees about the rectangle's center.
	Rotation float64

	Color Color
	// StrokeWidth is in world units for stroke ops (already zoom
	// compensated by the compiler).
	StrokeWidth float64

	Img *ebiten.Image

	Text     string
	TextSize float64
	Font     string
	// Above anchors the text just above the rect's top edge instead of
	// centered inside it (name plates).
	Above bool
}

// frameStats counts what one compiled frame contained.
type frameStats struct {
	ops           int
	tokensDrawn   int
	tokensSkipped int
}

// highlightWidth returns the selection highlight stroke width for a zoom
// level: 2 logical pixels, clamped to [0.5, 4] world units.
func highlightWidth(zoom float64) float64 {
	return math.Max(0.5, math.Min(4, 2/zoom))
}

// boardBorderWidth returns the board outline stroke width for a zoom level:
// 1 logical pixel, at least 0.5 world units.
func boardBorderWidth(zoom float64) float64 {
	return math.Max(0.5, 1/zoom)
}

// crossWidth returns the load-failure indicator stroke width for a zoom
// level: 2 logical pixels, clamped to [1, 4] world units.
func crossWidth(zoom float64) float64 {
	return math.Max(1, math.Min(4, 2/zoom))
}

// compileFrame turns the current snapshot into an ordered op list:
// clear, board background, board border, then tokens ascending by ZIndex
// (painter's algorithm). Within a token: body, border, image or failure
// cross, label, name, and — always last — the selection highlight.
//
// Compiling also issues cache load requests for images that have never been
// requested, so a frame is the trigger that starts fetches.
func (e *Engine) compileFrame() []drawOp {
	e.ops = e.ops[:0]
	e.stats = frameStats{}

	snap := e.snap
	theme := e.theme
	zoom := e.cam.Zoom()

	// 1. Clear the logical viewport with the off-board fill.
	e.ops = append(e.ops, drawOp{
		Kind:  opClear,
		Width: e.logicalW, Height: e.logicalH,
		Color: theme.OffBoardFill,
	})
	if snap == nil {
		e.stats.ops = len(e.ops)
		return e.ops
	}

	// 2. Board background and border. A zero-size board paints nothing.
	if snap.Board.Width > 0 && snap.Board.Height > 0 {
		e.compileBackground(snap)
		e.ops = append(e.ops, drawOp{
			Kind:  opStrokeRect,
			Width: snap.Board.Width, Height: snap.Board.Height,
			Color:       theme.BoardBorder,
			StrokeWidth: boardBorderWidth(zoom),
		})
	}

	// 3. Tokens ascending by ZIndex; ties keep snapshot order.
	tokens := e.frameTokens()
	order := make([]int, len(tokens))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tokens[order[a]].ZIndex < tokens[order[b]].ZIndex
	})

	for _, i := range order {
		t := &tokens[i]
		if !t.paintable() {
			e.stats.tokensSkipped++
			continue
		}
		e.compileToken(t, t.ID == snap.SelectionID, zoom)
		e.stats.tokensDrawn++
	}

	e.stats.ops = len(e.ops)
	return e.ops
}

// compileBackground emits the board surface fill: a solid color, a loaded
// background image, or a status placeholder while the image is loading or
// after it failed.
func (e *Engine) compileBackground(snap *Snapshot) {
	theme := e.theme
	bg := snap.Background
	rect := drawOp{
		Kind:  opFillRect,
		Width: snap.Board.Width, Height: snap.Board.Height,
	}

	if bg.Kind == BackgroundImage && bg.ImageURL != "" {
		entry, ok := e.cache.Entry(bg.ImageURL)
		if !ok {
			e.cache.Request(bg.ImageURL, bg.ImageURL)
			rect.Color = theme.LoadingFill
			e.ops = append(e.ops, rect)
			return
		}
		switch entry.Status {
		case CacheLoaded:
			rect.Kind = opImage
			rect.Img = entry.Image
			e.ops = append(e.ops, rect)
		case CacheError:
			rect.Color = theme.ErrorFill
			e.ops = append(e.ops, rect)
		default:
			rect.Color = theme.LoadingFill
			e.ops = append(e.ops, rect)
		}
		return
	}

	rect.Color = bg.Color
	if rect.Color.IsZero() {
		rect.Color = theme.BoardFill
	}
	e.ops = append(e.ops, rect)
}

// compileToken emits all ops for one token, highlight last.
func (e *Engine) compileToken(t *Token, selected bool, zoom float64) {
	theme := e.theme
	app := &t.Appearance

	base := drawOp{
		TokenID:  t.ID,
		X:        t.X,
		Y:        t.Y,
		Width:    t.Width,
		Height:   t.Height,
		Rotation: t.Rotation,
	}

	// Body fill.
	fill := base
	fill.Kind = opFillRect
	if t.Shape == ShapeCircle {
		fill.Kind = opFillCircle
	}
	fill.Color = app.BackgroundColor
	if fill.Color.IsZero() {
		fill.Color = theme.TokenFill
	}
	e.ops = append(e.ops, fill)

	// Border.
	if !app.BorderColor.IsZero() && app.BorderWidth > 0 {
		border := base
		border.Kind = opStrokeRect
		if t.Shape == ShapeCircle {
			border.Kind = opStrokeCircle
		}
		border.Color = app.BorderColor
		border.StrokeWidth = app.BorderWidth
		e.ops = append(e.ops, border)
	}

	// Image, or a red cross when its load failed.
	if app.ImageURL != "" {
		entry, ok := e.cache.Entry(app.ImageURL)
		if !ok {
			e.cache.Request(app.ImageURL, app.ImageURL)
		} else {
			switch entry.Status {
			case CacheLoaded:
				img := base
				img.Kind = opImage
				img.Img = entry.Image
				e.ops = append(e.ops, img)
			case CacheError:
				cross := base
				cross.Kind = opCross
				cross.Color = theme.ErrorCross
				cross.StrokeWidth = crossWidth(zoom)
				e.ops = append(e.ops, cross)
			}
		}
	}

	// Centered label.
	if app.ShowLabel && strings.TrimSpace(app.Text) != "" {
		label := base
		label.Kind = opText
		label.Text = app.Text
		label.Font = app.FontFamily
		label.TextSize = app.FontSize
		if label.TextSize <= 0 {
			label.TextSize = theme.LabelFontSize
		}
		label.Color = app.TextColor
		if label.Color.IsZero() {
			label.Color = theme.TokenText
		}
		e.ops = append(e.ops, label)
	}

	// Name plate above the top edge.
	if strings.TrimSpace(t.Name) != "" {
		name := base
		name.Kind = opText
		name.Text = t.Name
		name.TextSize = theme.NameFontSize
		name.Color = theme.NameText
		name.Above = true
		e.ops = append(e.ops, name)
	}

	// Selection highlight: offset outward so it never overlaps the token's
	// own border, and always the token's last op so nothing occludes it.
	if selected {
		hw := highlightWidth(zoom)
		off := app.BorderWidth/2 + hw/2
		hl := base
		hl.Kind = opStrokeRect
		hl.X -= off
		hl.Y -= off
		hl.Width += 2 * off
		hl.Height += 2 * off
		hl.Color = theme.Highlight
		hl.StrokeWidth = hw
		e.ops = append(e.ops, hl)
	}
}
