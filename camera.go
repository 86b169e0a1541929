package tabletop

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Zoom limits. Writes outside this range are clamped, never rejected.
const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// clampZoom pulls a requested zoom into [MinZoom, MaxZoom]. A non-finite
// request snaps to 1 so a malformed write cannot blank the view.
func clampZoom(z float64) float64 {
	if !isFinite(z) {
		return 1
	}
	return math.Max(MinZoom, math.Min(z, MaxZoom))
}

// scrollAnim holds active scroll-to tweens for camera pan X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera maps between screen space and world space via a screen-space pan
// offset and a uniform zoom:
//
//	world = (screen - pan) / zoom
//	screen = world*zoom + pan
//
// Device pixel ratio never enters this math; it only affects the physical
// backing-store size (see Engine.Resize).
type Camera struct {
	// PanX and PanY are the screen-space translation applied before zoom.
	PanX, PanY float64

	zoom float64

	scrollTween *scrollAnim
	zoomTween   *gween.Tween
	zoomDone    bool
	// zoomAnchor pins a screen point during an animated zoom so the world
	// point under it stays put.
	zoomAnchorX, zoomAnchorY float64
	zoomAnchored             bool
}

// NewCamera creates a camera at the origin with zoom 1.
func NewCamera() *Camera {
	return &Camera{zoom: 1}
}

// Zoom returns the current zoom factor.
func (c *Camera) Zoom() float64 {
	return c.zoom
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(z float64) {
	c.zoom = clampZoom(z)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// the screen point (sx, sy) stationary. This is the wheel-zoom primitive.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.zoom = clampZoom(c.zoom * factor)
	c.PanX = sx - wx*c.zoom
	c.PanY = sy - wy*c.zoom
}

// ScreenToWorld converts a screen-space point to world space.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return (sx - c.PanX) / c.zoom, (sy - c.PanY) / c.zoom
}

// WorldToScreen converts a world-space point to screen space. It is the
// exact algebraic inverse of ScreenToWorld.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return wx*c.zoom + c.PanX, wy*c.zoom + c.PanY
}

// State returns the camera as an external CameraState value.
func (c *Camera) State() CameraState {
	return CameraState{PanX: c.PanX, PanY: c.PanY, Zoom: c.zoom}
}

// SetState applies an external CameraState, clamping the zoom. Any running
// scroll or zoom animation is cancelled.
func (c *Camera) SetState(st CameraState) {
	c.PanX = st.PanX
	c.PanY = st.PanY
	c.zoom = clampZoom(st.Zoom)
	c.scrollTween = nil
	c.zoomTween = nil
}

// ScrollTo animates the pan to the given screen-space offset over duration
// seconds.
func (c *Camera) ScrollTo(panX, panY float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.PanX), float32(panX), duration, easeFn),
		tweenY: gween.New(float32(c.PanY), float32(panY), duration, easeFn),
	}
}

// CenterOn animates the pan so the world point (wx, wy) lands at the screen
// point (sx, sy) at the current zoom.
func (c *Camera) CenterOn(wx, wy, sx, sy float64, duration float32, easeFn ease.TweenFunc) {
	c.ScrollTo(sx-wx*c.zoom, sy-wy*c.zoom, duration, easeFn)
}

// ZoomTo animates the zoom to the given factor (clamped) over duration
// seconds, keeping the world point under the screen point (sx, sy) fixed
// for the whole animation.
func (c *Camera) ZoomTo(zoom float64, sx, sy float64, duration float32, easeFn ease.TweenFunc) {
	c.zoomTween = gween.New(float32(c.zoom), float32(clampZoom(zoom)), duration, easeFn)
	c.zoomDone = false
	c.zoomAnchorX = sx
	c.zoomAnchorY = sy
	c.zoomAnchored = true
}

// update advances scroll and zoom animations. Returns true if the camera
// moved, meaning a redraw is needed. Called from Engine.Update.
func (c *Camera) update(dt float32) bool {
	moved := false

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			c.PanX = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			c.PanY = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
		moved = true
	}

	if c.zoomTween != nil && !c.zoomDone {
		val, done := c.zoomTween.Update(dt)
		target := clampZoom(float64(val))
		if c.zoomAnchored {
			wx, wy := c.ScreenToWorld(c.zoomAnchorX, c.zoomAnchorY)
			c.zoom = target
			c.PanX = c.zoomAnchorX - wx*c.zoom
			c.PanY = c.zoomAnchorY - wy*c.zoom
		} else {
			c.zoom = target
		}
		if done {
			c.zoomDone = true
			c.zoomTween = nil
		}
		moved = true
	}

	return moved
}
