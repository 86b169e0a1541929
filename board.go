package tabletop

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is opaque white.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is opaque black.
var ColorBlack = Color{0, 0, 0, 1}

// IsZero reports whether the color is the zero value, which the renderer
// treats as "not set" (theme defaults apply).
func (c Color) IsZero() bool {
	return c.R == 0 && c.G == 0 && c.B == 0 && c.A == 0
}

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa", and "rgba(r,g,b,a)"
// color strings (the forms board data carries around).
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("parse color: empty string")
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}
	if strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb(") {
		return parseRGBAColor(s)
	}
	return Color{}, fmt.Errorf("parse color: unsupported format %q", s)
}

func parseHexColor(s string) (Color, error) {
	h := s[1:]
	var r, g, b, a uint64
	a = 0xff
	var err error
	switch len(h) {
	case 3:
		r, g, b, err = hexPair(h[0:1]+h[0:1], h[1:2]+h[1:2], h[2:3]+h[2:3])
	case 6:
		r, g, b, err = hexPair(h[0:2], h[2:4], h[4:6])
	case 8:
		r, g, b, err = hexPair(h[0:2], h[2:4], h[4:6])
		if err == nil {
			a, err = strconv.ParseUint(h[6:8], 16, 8)
		}
	default:
		return Color{}, fmt.Errorf("parse color: bad hex length %q", s)
	}
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, float64(a) / 255}, nil
}

func hexPair(rs, gs, bs string) (r, g, b uint64, err error) {
	if r, err = strconv.ParseUint(rs, 16, 8); err != nil {
		return
	}
	if g, err = strconv.ParseUint(gs, 16, 8); err != nil {
		return
	}
	b, err = strconv.ParseUint(bs, 16, 8)
	return
}

func parseRGBAColor(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, fmt.Errorf("parse color: malformed %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("parse color: malformed %q", s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		vals[i] = v
	}
	c := Color{vals[0] / 255, vals[1] / 255, vals[2] / 255, 1}
	if len(vals) == 4 {
		c.A = vals[3] // rgba() alpha is already 0-1
	}
	return c, nil
}

// Vec2 is a 2D vector used for positions, offsets, and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Shape selects a token's outline geometry.
type Shape uint8

const (
	ShapeRectangle Shape = iota // axis-aligned box, rotated about its center
	ShapeCircle                 // Width is the diameter; Height is informational
)

// Appearance holds a token's visual styling. Zero-value colors mean "unset"
// and fall back to theme defaults; a border is drawn only when BorderColor is
// set and BorderWidth is positive.
type Appearance struct {
	BackgroundColor Color
	BorderColor     Color
	BorderWidth     float64
	ImageURL        string
	Text            string
	TextColor       Color
	FontFamily      string
	FontSize        float64
	ShowLabel       bool
}

// Token is one placeable object on the board. Positions and sizes are in
// world units; Rotation is in degrees, clockwise, about the token's center.
type Token struct {
	ID         string
	Name       string
	X, Y       float64
	Width      float64
	Height     float64
	Rotation   float64
	ZIndex     int
	Shape      Shape
	Appearance Appearance
	Movable    bool
}

// Bounds returns the token's unrotated bounding rectangle.
func (t *Token) Bounds() Rect {
	return Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

// Center returns the token's center point, which is also its rotation axis.
func (t *Token) Center() (float64, float64) {
	return t.X + t.Width/2, t.Y + t.Height/2
}

// paintable reports whether the token has valid, positive geometry. Tokens
// failing this are skipped for both drawing and picking rather than treated
// as an error.
func (t *Token) paintable() bool {
	if !isFinite(t.X) || !isFinite(t.Y) || !isFinite(t.Width) || !isFinite(t.Height) {
		return false
	}
	return t.Width > 0 && t.Height > 0
}

// BackgroundKind selects how the board background is painted.
type BackgroundKind uint8

const (
	BackgroundColor BackgroundKind = iota // solid Color fill
	BackgroundImage                       // image fetched through the cache, keyed by ImageURL
)

// Background describes the board surface behind all tokens.
type Background struct {
	Kind     BackgroundKind
	Color    Color
	ImageURL string
}

// Board is the drawable board rectangle, origin (0, 0), in world units.
type Board struct {
	Width, Height float64
}

// CameraState is the externally-owned view state: a screen-space pan offset
// and a uniform zoom factor. Zoom is clamped to [MinZoom, MaxZoom] whenever
// it enters the engine.
type CameraState struct {
	PanX, PanY float64
	Zoom       float64
}

// Snapshot is one consistent view of the external store: everything the
// engine needs to draw a frame and answer picks. The engine never mutates a
// snapshot it is handed; it keeps a validated copy.
type Snapshot struct {
	Tokens     []Token
	Camera     CameraState
	Background Background
	Board      Board
	// SelectionID is the id of the selected token, or "" for none.
	SelectionID string
}

// isFinite reports whether v is a usable coordinate value.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// normalize deep-copies the snapshot and repairs what can be repaired at the
// boundary: non-finite rotations become 0, the camera zoom is clamped, and a
// background with no usable value falls back to a color fill. Tokens with
// invalid geometry are kept (so ids remain visible to callers) but will be
// skipped by the picker and renderer.
func (s *Snapshot) normalize() *Snapshot {
	out := &Snapshot{
		Camera:      s.Camera,
		Background:  s.Background,
		Board:       s.Board,
		SelectionID: s.SelectionID,
	}
	// A zero zoom is the unset zero value of the struct, not a request for
	// minimum zoom; it means "default view".
	if out.Camera.Zoom == 0 {
		out.Camera.Zoom = 1
	}
	out.Camera.Zoom = clampZoom(out.Camera.Zoom)
	if out.Background.Kind == BackgroundImage && out.Background.ImageURL == "" {
		out.Background.Kind = BackgroundColor
	}
	if !isFinite(out.Board.Width) || out.Board.Width < 0 {
		out.Board.Width = 0
	}
	if !isFinite(out.Board.Height) || out.Board.Height < 0 {
		out.Board.Height = 0
	}
	out.Tokens = make([]Token, len(s.Tokens))
	copy(out.Tokens, s.Tokens)
	for i := range out.Tokens {
		if !isFinite(out.Tokens[i].Rotation) {
			out.Tokens[i].Rotation = 0
		}
	}
	return out
}
