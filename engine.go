package tabletop

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// TokenClick reports a press-and-release on a token without dragging. The
// Token field is a copy; hosts that mutate it must write the change back
// through their own store.
type TokenClick struct {
	ID             string
	Token          Token
	WorldX, WorldY float64
}

// TokenMove reports the final position of a completed drag gesture. Exactly
// one TokenMove is emitted per gesture, on pointer-up or pointer-leave.
type TokenMove struct {
	ID   string
	X, Y float64
}

// Engine renders and picks against one drawing surface. It owns the camera,
// the image cache, gesture state, and observer lists; the authoritative
// scene lives outside and is handed in as Snapshots. Construct one Engine
// per surface; instances share nothing.
type Engine struct {
	cam   *Camera
	cache *ImageCache
	theme *Theme
	snap  *Snapshot

	watcher *ImageWatcher
	fonts   map[string]*text.GoTextFaceSource

	redrawFns  []func()
	messageFns []func(string)
	clickFns   []func(TokenClick)
	moveFns    []func(TokenMove)
	cameraFns  []func(CameraState)

	// Surface geometry: logical (CSS-pixel) size, device pixel ratio, and
	// the derived physical backing-store size.
	logicalW, logicalH   float64
	physicalW, physicalH int
	dpr                  float64

	pointer pointerState
	shadow  shadowState

	ops         []drawOp
	stats       frameStats
	needsRedraw bool
	debug       bool
	pollInput   bool
}

// shadowState is the optimistic copy of a dragged token's position, shown
// until the external store round-trips a new snapshot.
type shadowState struct {
	active bool
	id     string
	x, y   float64
}

const defaultOpCap = 256

// NewEngine creates an engine with a default theme, an empty image cache,
// and a camera at the origin. The engine polls ebiten input during Update;
// call SetInputEnabled(false) to drive it purely via Inject* calls.
func NewEngine() *Engine {
	e := &Engine{
		cam:       NewCamera(),
		theme:     DefaultTheme(),
		fonts:     make(map[string]*text.GoTextFaceSource),
		dpr:       1,
		ops:       make([]drawOp, 0, defaultOpCap),
		pollInput: true,
	}
	e.cache = NewImageCache(e.requestRedraw, e.emitMessage)
	return e
}

// Camera returns the engine's camera.
func (e *Engine) Camera() *Camera {
	return e.cam
}

// Cache returns the engine's image cache.
func (e *Engine) Cache() *ImageCache {
	return e.cache
}

// SetTheme replaces the render theme and requests a redraw.
func (e *Engine) SetTheme(t *Theme) {
	if t != nil {
		e.theme = t
		e.requestRedraw()
	}
}

// RegisterFont makes a font source available to token labels under the
// given family name.
func (e *Engine) RegisterFont(family string, src *text.GoTextFaceSource) {
	e.fonts[family] = src
}

// SetDebugMode enables per-frame compile/submit stats on stderr.
func (e *Engine) SetDebugMode(enabled bool) {
	e.debug = enabled
}

// SetInputEnabled controls whether Update polls ebiten mouse state.
// Injected input works either way.
func (e *Engine) SetInputEnabled(enabled bool) {
	e.pollInput = enabled
}

// --- Observers ---

// OnRedrawNeeded registers a callback fired whenever engine state changed in
// a way that warrants a redraw: resize, image completion, gesture step,
// camera animation, snapshot change. Callbacks run on the game-loop thread.
func (e *Engine) OnRedrawNeeded(fn func()) {
	e.redrawFns = append(e.redrawFns, fn)
}

// OnUserMessage registers a callback for human-readable notifications
// (currently only image load failures).
func (e *Engine) OnUserMessage(fn func(string)) {
	e.messageFns = append(e.messageFns, fn)
}

// OnTokenClick registers a callback for token click gestures. This is the
// boundary where a host attaches per-token script behavior.
func (e *Engine) OnTokenClick(fn func(TokenClick)) {
	e.clickFns = append(e.clickFns, fn)
}

// OnTokenMoved registers a callback fired once per completed drag with the
// token's final position. The host is expected to write it to its store.
func (e *Engine) OnTokenMoved(fn func(TokenMove)) {
	e.moveFns = append(e.moveFns, fn)
}

// OnCameraChanged registers a callback fired when a pan gesture ends or the
// zoom changes, with the camera state the host should persist.
func (e *Engine) OnCameraChanged(fn func(CameraState)) {
	e.cameraFns = append(e.cameraFns, fn)
}

func (e *Engine) requestRedraw() {
	e.needsRedraw = true
	for _, fn := range e.redrawFns {
		fn()
	}
}

func (e *Engine) emitMessage(msg string) {
	for _, fn := range e.messageFns {
		fn(msg)
	}
}

func (e *Engine) emitClick(c TokenClick) {
	for _, fn := range e.clickFns {
		fn(c)
	}
}

func (e *Engine) emitMove(m TokenMove) {
	for _, fn := range e.moveFns {
		fn(m)
	}
}

func (e *Engine) emitCamera(st CameraState) {
	for _, fn := range e.cameraFns {
		fn(st)
	}
}

// NeedsRedraw reports whether state changed since the last Draw. Hosts with
// a demand-driven loop can skip frames when this is false.
func (e *Engine) NeedsRedraw() bool {
	return e.needsRedraw
}

// --- Snapshot ---

// SetSnapshot installs a new authoritative scene view. The snapshot is
// validated and deep-copied at this boundary, so the picker and renderer
// never re-check what validation already repaired. The snapshot's camera is
// applied unless a pan gesture is mid-flight (the optimistic camera wins
// until the gesture commits). A previously committed drag shadow is dropped,
// since the store has now answered.
func (e *Engine) SetSnapshot(snap *Snapshot) {
	if snap == nil {
		e.snap = nil
		e.requestRedraw()
		return
	}
	e.snap = snap.normalize()
	if e.pointer.phase != gesturePanning {
		e.cam.SetState(e.snap.Camera)
	}
	e.shadow = shadowState{}
	e.requestRedraw()
}

// tokenByID returns a copy of a token from the current snapshot.
func (e *Engine) tokenByID(id string) (Token, bool) {
	if e.snap == nil {
		return Token{}, false
	}
	for i := range e.snap.Tokens {
		if e.snap.Tokens[i].ID == id {
			return e.snap.Tokens[i], true
		}
	}
	return Token{}, false
}

// frameTokens returns the tokens to draw and pick this frame, with the
// drag shadow position overriding the snapshot for the dragged token.
func (e *Engine) frameTokens() []Token {
	if e.snap == nil {
		return nil
	}
	if !e.shadow.active {
		return e.snap.Tokens
	}
	tokens := make([]Token, len(e.snap.Tokens))
	copy(tokens, e.snap.Tokens)
	for i := range tokens {
		if tokens[i].ID == e.shadow.id {
			tokens[i].X = e.shadow.x
			tokens[i].Y = e.shadow.y
			break
		}
	}
	return tokens
}

// PickScreen picks the topmost token under a screen-space point.
func (e *Engine) PickScreen(sx, sy float64) string {
	wx, wy := e.cam.ScreenToWorld(sx, sy)
	return Pick(wx, wy, e.frameTokens())
}

// --- Image cache surface ---

// RequestLoad forwards to the image cache's Load contract.
func (e *Engine) RequestLoad(src, key string) {
	e.cache.Load(src, key)
}

// CacheEntry returns the cache entry for key, if any.
func (e *Engine) CacheEntry(key string) (CacheEntry, bool) {
	return e.cache.Entry(key)
}

// WatchImages starts (or replaces) a filesystem watcher over the given
// directories. A change to an image file whose path is a cache key drops
// the entry and reloads it, so on-disk edits show up without a restart.
func (e *Engine) WatchImages(dirs ...string) error {
	if e.watcher != nil {
		_ = e.watcher.Close()
	}
	w, err := NewImageWatcher(dirs...)
	if err != nil {
		return err
	}
	e.watcher = w
	return nil
}

// Close releases background resources (currently the file watcher).
func (e *Engine) Close() error {
	if e.watcher != nil {
		err := e.watcher.Close()
		e.watcher = nil
		return err
	}
	return nil
}

// --- Surface geometry ---

// Resize records a new logical surface size and device pixel ratio. The
// physical backing store becomes logical x dpr; all draw coordinates stay
// in logical units. A zero or negative size is ignored so a collapsed
// container cannot divide the transform by zero.
func (e *Engine) Resize(logicalW, logicalH, dpr float64) {
	if logicalW <= 0 || logicalH <= 0 {
		return
	}
	if dpr <= 0 {
		dpr = 1
	}
	e.logicalW = logicalW
	e.logicalH = logicalH
	e.dpr = dpr
	e.physicalW = int(math.Round(logicalW * dpr))
	e.physicalH = int(math.Round(logicalH * dpr))
	e.requestRedraw()
}

// PhysicalSize returns the backing-store size in device pixels, for hosts
// implementing ebiten.Game.Layout.
func (e *Engine) PhysicalSize() (int, int) {
	return e.physicalW, e.physicalH
}

// --- Frame loop ---

// Update advances one tick: drains image-load completions and file-watch
// events, steps camera animations, and (unless disabled) polls pointer and
// wheel input. dt is the tick duration in seconds.
func (e *Engine) Update(dt float64) {
	if e.watcher != nil {
		for {
			path, ok := e.watcher.TryNext()
			if !ok {
				break
			}
			e.cache.Reload(path)
		}
	}
	e.cache.Drain()
	if e.cam.update(float32(dt)) {
		e.requestRedraw()
	}
	if e.pollInput {
		e.readPointer()
	}
}

// Draw compiles the current snapshot into an op list and submits it to dst.
// Draw is idempotent with respect to held state: drawing twice without an
// intervening change produces the same frame.
func (e *Engine) Draw(dst *ebiten.Image) {
	var t0 time.Time
	if e.debug {
		t0 = time.Now()
	}
	ops := e.compileFrame()
	var compileTime time.Duration
	if e.debug {
		compileTime = time.Since(t0)
		t0 = time.Now()
	}
	e.submit(dst, ops)
	if e.debug {
		e.debugLog(compileTime, time.Since(t0))
	}
	e.needsRedraw = false
}

// Render installs a snapshot and draws it in one call.
func (e *Engine) Render(snap *Snapshot, dst *ebiten.Image) {
	e.SetSnapshot(snap)
	e.Draw(dst)
}
