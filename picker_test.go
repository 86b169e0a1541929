package tabletop

import (
	"math"
	"testing"
)

func rectToken(id string, x, y, w, h float64, z int) Token {
	return Token{ID: id, X: x, Y: y, Width: w, Height: h, ZIndex: z}
}

func TestPickAxisAlignedRect(t *testing.T) {
	tokens := []Token{rectToken("a", 10, 10, 100, 50, 0)}

	if got := Pick(60, 35, tokens); got != "a" {
		t.Errorf("Pick inside = %q, want \"a\"", got)
	}
	if got := Pick(10, 10, tokens); got != "a" {
		t.Errorf("Pick on corner = %q, want \"a\" (edges inclusive)", got)
	}
	if got := Pick(111, 35, tokens); got != "" {
		t.Errorf("Pick outside = %q, want none", got)
	}
}

func TestPickPrecedenceByZIndex(t *testing.T) {
	tokens := []Token{
		rectToken("below", 10, 10, 100, 50, 0),
		rectToken("above", 15, 15, 100, 50, 1),
	}
	// (60, 35) is inside both; the higher zIndex wins.
	if got := Pick(60, 35, tokens); got != "above" {
		t.Errorf("Pick = %q, want \"above\"", got)
	}
	// Order in the slice must not matter.
	tokens[0], tokens[1] = tokens[1], tokens[0]
	if got := Pick(60, 35, tokens); got != "above" {
		t.Errorf("Pick after reorder = %q, want \"above\"", got)
	}
}

func TestPickZIndexTieLaterTokenWins(t *testing.T) {
	tokens := []Token{
		rectToken("first", 0, 0, 50, 50, 3),
		rectToken("second", 0, 0, 50, 50, 3),
	}
	// Painter's algorithm draws "second" on top, so it must also pick first.
	if got := Pick(25, 25, tokens); got != "second" {
		t.Errorf("Pick = %q, want \"second\"", got)
	}
}

func TestPickRotatedRectCenter(t *testing.T) {
	tok := rectToken("r", 0, 0, 100, 100, 0)
	tok.Rotation = 45
	// The center is the rotation axis; it never moves.
	if got := Pick(50, 50, []Token{tok}); got != "r" {
		t.Errorf("Pick center of rotated rect = %q, want \"r\"", got)
	}
}

func TestPickRotatedRectCorner(t *testing.T) {
	tok := rectToken("r", 0, 0, 100, 100, 0)
	tok.Rotation = 45

	// The unrotated corner (1, 1) lies outside the 45-degree-rotated square
	// (the rotated square's corner points toward the edge midpoints).
	if got := Pick(1, 1, []Token{tok}); got != "" {
		t.Errorf("Pick unrotated corner = %q, want none", got)
	}
	// A point just beyond the unrotated top edge midpoint is inside the
	// rotated square (its corner now extends past (50, -20)).
	if got := Pick(50, -20, []Token{tok}); got != "r" {
		t.Errorf("Pick above edge midpoint = %q, want \"r\"", got)
	}
}

func TestPickRotationNotFiniteTreatedAsZero(t *testing.T) {
	tok := rectToken("r", 0, 0, 100, 100, 0)
	tok.Rotation = math.NaN()
	if got := Pick(99, 99, []Token{tok}); got != "r" {
		t.Errorf("Pick with NaN rotation = %q, want \"r\" (rotation 0)", got)
	}
}

func TestPickCircle(t *testing.T) {
	tok := Token{ID: "c", X: 10, Y: 10, Width: 50, Height: 50, Shape: ShapeCircle}
	tokens := []Token{tok}

	// diameter 50, radius 25, center (35, 35)
	if got := Pick(35, 35, tokens); got != "c" {
		t.Errorf("Pick center = %q, want \"c\"", got)
	}
	if got := Pick(35+25, 35, tokens); got != "c" {
		t.Errorf("Pick on rim = %q, want \"c\"", got)
	}
	if got := Pick(35+26, 35, tokens); got != "" {
		t.Errorf("Pick at radius+1 = %q, want none", got)
	}
	// The bounding-box corner is outside the circle.
	if got := Pick(11, 11, tokens); got != "" {
		t.Errorf("Pick bounding corner = %q, want none", got)
	}
}

func TestPickSkipsInvalidGeometry(t *testing.T) {
	tokens := []Token{
		rectToken("zero-width", 0, 0, 0, 50, 10),
		rectToken("nan-x", math.NaN(), 0, 50, 50, 10),
		rectToken("neg-height", 0, 0, 50, -1, 10),
		rectToken("ok", 0, 0, 50, 50, 0),
	}
	// All the broken tokens overlap the point and have higher zIndex; the
	// valid one must still win.
	if got := Pick(5, 5, tokens); got != "ok" {
		t.Errorf("Pick = %q, want \"ok\"", got)
	}
}

func TestPickDefensiveInputs(t *testing.T) {
	tokens := []Token{rectToken("a", 0, 0, 100, 100, 0)}

	if got := Pick(math.NaN(), 50, tokens); got != "" {
		t.Errorf("Pick(NaN, 50) = %q, want none", got)
	}
	if got := Pick(50, math.Inf(1), tokens); got != "" {
		t.Errorf("Pick(50, +Inf) = %q, want none", got)
	}
	if got := Pick(50, 50, nil); got != "" {
		t.Errorf("Pick with nil tokens = %q, want none", got)
	}
	if got := Pick(50, 50, []Token{}); got != "" {
		t.Errorf("Pick with empty tokens = %q, want none", got)
	}
}
