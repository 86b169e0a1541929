package tabletop

import (
	"fmt"
	"math"
	"os"
	"sort"
)

// Pick returns the id of the topmost token under the world-space point
// (wx, wy), or "" when nothing is hit.
//
// Pick is pure and never panics: a non-finite point or a nil token slice
// returns "" (with a diagnostic on stderr), and tokens with unusable
// geometry are skipped rather than failing the whole query. Tokens are
// tested in descending ZIndex order, so the first hit is the one painter's
// order would draw on top. A non-finite rotation is treated as 0.
func Pick(wx, wy float64, tokens []Token) string {
	if !isFinite(wx) || !isFinite(wy) {
		fmt.Fprintf(os.Stderr, "[tabletop] pick: non-finite point (%v, %v)\n", wx, wy)
		return ""
	}
	if tokens == nil {
		fmt.Fprintf(os.Stderr, "[tabletop] pick: nil token collection\n")
		return ""
	}

	// Reverse painter order: topmost first. ZIndex ties resolve to the
	// later (visually occluding) token in slice order.
	order := make([]int, len(tokens))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		za, zb := tokens[order[a]].ZIndex, tokens[order[b]].ZIndex
		if za != zb {
			return za > zb
		}
		return order[a] > order[b]
	})

	for _, i := range order {
		t := &tokens[i]
		if !t.paintable() {
			continue
		}
		rot := t.Rotation
		if !isFinite(rot) {
			rot = 0
		}
		if tokenContains(t, rot, wx, wy) {
			return t.ID
		}
	}
	return ""
}

// tokenContains tests a single token's shape against a world-space point.
func tokenContains(t *Token, rotation, wx, wy float64) bool {
	switch t.Shape {
	case ShapeCircle:
		// Width is the diameter; the center is offset by the radius from
		// the top-left origin.
		r := t.Width / 2
		dx := wx - (t.X + r)
		dy := wy - (t.Y + r)
		return dx*dx+dy*dy <= r*r
	default:
		if rotation == 0 {
			return t.Bounds().Contains(wx, wy)
		}
		// Rotate the point by -rotation about the rectangle's center,
		// then test the axis-aligned half-extents. Equivalent to rotating
		// the rectangle itself, since rotation about the center is
		// invertible and center-preserving.
		cx, cy := t.Center()
		lx, ly := rotatePoint(wx-cx, wy-cy, -rotation)
		return math.Abs(lx) <= t.Width/2 && math.Abs(ly) <= t.Height/2
	}
}

// rotatePoint rotates (x, y) about the origin by deg degrees (clockwise in
// screen coordinates, matching token rotation).
func rotatePoint(x, y, deg float64) (float64, float64) {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return x*cos - y*sin, x*sin + y*cos
}
