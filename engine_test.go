package tabletop

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestSetSnapshotRequestsRedraw(t *testing.T) {
	e := testEngine()
	var redraws int
	e.OnRedrawNeeded(func() { redraws++ })

	e.SetSnapshot(baseSnapshot())
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
	if !e.NeedsRedraw() {
		t.Error("NeedsRedraw = false after snapshot change")
	}
}

func TestSetSnapshotAppliesCamera(t *testing.T) {
	e := testEngine()
	snap := baseSnapshot()
	snap.Camera = CameraState{PanX: 10, PanY: 20, Zoom: 2}
	e.SetSnapshot(snap)

	if e.cam.PanX != 10 || e.cam.PanY != 20 || e.cam.Zoom() != 2 {
		t.Errorf("camera = %+v, want snapshot camera", e.cam.State())
	}
}

func TestSnapshotCameraYieldsToActivePan(t *testing.T) {
	e, _ := gestureEngine(t)

	e.InjectPress(500, 500)
	e.InjectMove(550, 500) // panning, pan = 50

	snap := baseSnapshot()
	snap.Camera = CameraState{Zoom: 1}
	e.SetSnapshot(snap)

	// The optimistic pan survives until the gesture commits.
	if !approxEqual(e.cam.PanX, 50, epsilon) {
		t.Errorf("PanX = %f, want 50 (gesture wins mid-pan)", e.cam.PanX)
	}
	e.InjectRelease(550, 500)
}

func TestResizeRules(t *testing.T) {
	e := NewEngine()
	e.Resize(800, 600, 2)
	if w, h := e.PhysicalSize(); w != 1600 || h != 1200 {
		t.Errorf("physical = %dx%d, want 1600x1200", w, h)
	}
	if e.logicalW != 800 || e.dpr != 2 {
		t.Errorf("logical = %f dpr = %f", e.logicalW, e.dpr)
	}

	// A collapsed container is ignored; the engine waits for a real size.
	e.Resize(0, 600, 2)
	e.Resize(800, -1, 2)
	if w, h := e.PhysicalSize(); w != 1600 || h != 1200 {
		t.Errorf("zero-size resize changed surface to %dx%d", w, h)
	}

	// A bogus DPR falls back to 1.
	e.Resize(400, 300, 0)
	if w, h := e.PhysicalSize(); w != 400 || h != 300 {
		t.Errorf("physical = %dx%d, want 400x300", w, h)
	}
}

func TestResizeRequestsRedraw(t *testing.T) {
	e := NewEngine()
	var redraws int
	e.OnRedrawNeeded(func() { redraws++ })
	e.Resize(100, 100, 1)
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
	e.Resize(0, 0, 1)
	if redraws != 1 {
		t.Errorf("redraws = %d after ignored resize, want 1", redraws)
	}
}

func TestPickScreenComposesCamera(t *testing.T) {
	e := testEngine()
	e.SetSnapshot(baseSnapshot(rectToken("a", 100, 100, 50, 50, 0)))
	e.cam.SetState(CameraState{PanX: -100, PanY: 0, Zoom: 2})

	// World (125,125) -> screen (125*2-100, 125*2) = (150, 250).
	if got := e.PickScreen(150, 250); got != "a" {
		t.Errorf("PickScreen = %q, want \"a\"", got)
	}
	if got := e.PickScreen(0, 0); got != "" {
		t.Errorf("PickScreen(0,0) = %q, want none", got)
	}
}

func TestMultipleEnginesAreIsolated(t *testing.T) {
	a := testEngine()
	b := testEngine()

	a.cam.SetZoom(5)
	a.SetSnapshot(baseSnapshot(rectToken("x", 0, 0, 10, 10, 0)))

	if b.cam.Zoom() != 1 {
		t.Errorf("engine b zoom = %f, want 1 (no shared state)", b.cam.Zoom())
	}
	if b.snap != nil {
		t.Error("engine b inherited engine a's snapshot")
	}
	if _, ok := b.cache.Entry("anything"); ok {
		t.Error("engine b cache not empty")
	}
}

func TestUpdateAdvancesCameraAnimation(t *testing.T) {
	e := testEngine()
	var redraws int
	e.OnRedrawNeeded(func() { redraws++ })

	e.cam.ScrollTo(100, 0, 1.0, ease.Linear)
	e.Update(0.5)
	if redraws == 0 {
		t.Error("camera animation did not request a redraw")
	}
	if e.cam.PanX == 0 {
		t.Error("camera animation did not advance")
	}
}

func TestCacheSurfaceForwarding(t *testing.T) {
	e := testEngine()
	e.RequestLoad("ok-x", "k")
	e.cache.wait()
	e.cache.Drain()
	entry, ok := e.CacheEntry("k")
	if !ok || entry.Status != CacheLoaded {
		t.Errorf("entry = %+v (ok=%v), want loaded", entry, ok)
	}
}
