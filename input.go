package tabletop

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	// dragDeadZone is the screen-pixel movement below which a press still
	// counts as a click rather than a drag.
	dragDeadZone = 4.0
	// wheelZoomStep is the zoom factor applied per wheel notch.
	wheelZoomStep = 1.1
)

// gesturePhase is the interaction state machine:
//
//	idle -> pending -> dragging -> idle
//	idle -> panning -> idle
//
// pending is a press that has not yet committed to click or drag.
type gesturePhase uint8

const (
	gestureIdle gesturePhase = iota
	gesturePending
	gestureDragging
	gesturePanning
)

// pointerState tracks the in-flight gesture.
type pointerState struct {
	phase    gesturePhase
	pressed  bool // injected-input button state
	startSX  float64
	startSY  float64
	tokenID  string
	movable  bool
	grabDX   float64 // world offset from pointer to the grabbed token's origin
	grabDY   float64
	panBaseX float64 // camera pan at gesture start
	panBaseY float64
}

// processPointer advances the gesture state machine with one pointer sample.
// Every move inside a gesture mutates only local shadow state and requests a
// redraw; the external store hears about the gesture exactly once, when it
// ends.
func (e *Engine) processPointer(sx, sy float64, pressed bool) {
	p := &e.pointer

	switch p.phase {
	case gestureIdle:
		if !pressed {
			return
		}
		p.startSX, p.startSY = sx, sy
		wx, wy := e.cam.ScreenToWorld(sx, sy)
		id := Pick(wx, wy, e.frameTokens())
		if id != "" {
			tok, _ := e.tokenByID(id)
			p.phase = gesturePending
			p.tokenID = id
			p.movable = tok.Movable
			p.grabDX = wx - tok.X
			p.grabDY = wy - tok.Y
			return
		}
		p.phase = gesturePanning
		p.panBaseX = e.cam.PanX
		p.panBaseY = e.cam.PanY

	case gesturePending:
		if !pressed {
			// Click: release over the same token it was pressed on.
			wx, wy := e.cam.ScreenToWorld(sx, sy)
			if Pick(wx, wy, e.frameTokens()) == p.tokenID {
				if tok, ok := e.tokenByID(p.tokenID); ok {
					e.emitClick(TokenClick{ID: p.tokenID, Token: tok, WorldX: wx, WorldY: wy})
				}
			}
			p.phase = gestureIdle
			return
		}
		if math.Hypot(sx-p.startSX, sy-p.startSY) <= dragDeadZone {
			return
		}
		if p.movable {
			p.phase = gestureDragging
			e.dragTo(sx, sy)
			return
		}
		// Press on an immovable token escalates to a board pan.
		p.phase = gesturePanning
		p.panBaseX = e.cam.PanX - (sx - p.startSX)
		p.panBaseY = e.cam.PanY - (sy - p.startSY)
		e.panTo(sx, sy)

	case gestureDragging:
		if pressed {
			e.dragTo(sx, sy)
			return
		}
		e.finishGesture()

	case gesturePanning:
		if pressed {
			e.panTo(sx, sy)
			return
		}
		e.finishGesture()
	}
}

// dragTo moves the drag shadow so the grab point stays under the pointer.
func (e *Engine) dragTo(sx, sy float64) {
	wx, wy := e.cam.ScreenToWorld(sx, sy)
	e.shadow = shadowState{
		active: true,
		id:     e.pointer.tokenID,
		x:      wx - e.pointer.grabDX,
		y:      wy - e.pointer.grabDY,
	}
	e.requestRedraw()
}

// panTo offsets the camera from its gesture-start position.
func (e *Engine) panTo(sx, sy float64) {
	e.cam.PanX = e.pointer.panBaseX + (sx - e.pointer.startSX)
	e.cam.PanY = e.pointer.panBaseY + (sy - e.pointer.startSY)
	e.requestRedraw()
}

// finishGesture commits whatever shadow state exists and returns to idle.
// Used on release and on pointer-leave: leaving mid-gesture finalizes, it
// does not discard.
func (e *Engine) finishGesture() {
	p := &e.pointer
	switch p.phase {
	case gestureDragging:
		e.emitMove(TokenMove{ID: p.tokenID, X: e.shadow.x, Y: e.shadow.y})
	case gesturePanning:
		e.emitCamera(e.cam.State())
	}
	p.phase = gestureIdle
	p.tokenID = ""
}

// wheel applies one wheel event as an anchored zoom at the cursor. Each
// event commits immediately; there is no shadow phase for wheel zoom.
func (e *Engine) wheel(sx, sy, dy float64) {
	if dy == 0 || !isFinite(dy) {
		return
	}
	e.cam.ZoomAt(math.Pow(wheelZoomStep, dy), sx, sy)
	e.requestRedraw()
	e.emitCamera(e.cam.State())
}

// PointerLeave finalizes any in-flight gesture, as if the pointer had been
// released at its last position.
func (e *Engine) PointerLeave() {
	e.pointer.pressed = false
	e.finishGesture()
}

// readPointer polls ebiten mouse state. Called from Update when input
// polling is enabled.
func (e *Engine) readPointer() {
	mx, my := ebiten.CursorPosition()
	e.processPointer(float64(mx), float64(my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	if _, dy := ebiten.Wheel(); dy != 0 {
		e.wheel(float64(mx), float64(my), dy)
	}
}

// --- Injected input ---
//
// Inject* drive the gesture machine without a real mouse, for tests and
// scripted hosts. They go through the same state machine as polled input.

// InjectPress simulates a pointer press at screen coordinates (x, y).
func (e *Engine) InjectPress(x, y float64) {
	e.pointer.pressed = true
	e.processPointer(x, y, true)
}

// InjectMove simulates pointer movement with the current button state.
func (e *Engine) InjectMove(x, y float64) {
	e.processPointer(x, y, e.pointer.pressed)
}

// InjectRelease simulates a pointer release at (x, y).
func (e *Engine) InjectRelease(x, y float64) {
	e.pointer.pressed = false
	e.processPointer(x, y, false)
}

// InjectClick simulates a press and release at the same point.
func (e *Engine) InjectClick(x, y float64) {
	e.InjectPress(x, y)
	e.InjectRelease(x, y)
}

// InjectDrag simulates a press at (fromX, fromY), a series of moves, and a
// release at (toX, toY). steps is the number of intermediate moves (minimum 1).
func (e *Engine) InjectDrag(fromX, fromY, toX, toY float64, steps int) {
	if steps < 1 {
		steps = 1
	}
	e.InjectPress(fromX, fromY)
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		e.InjectMove(fromX+(toX-fromX)*f, fromY+(toY-fromY)*f)
	}
	e.InjectRelease(toX, toY)
}

// InjectWheel simulates a wheel event of dy notches at (x, y).
func (e *Engine) InjectWheel(x, y, dy float64) {
	e.wheel(x, y, dy)
}
