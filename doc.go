// Package tabletop is the rendering and spatial-interaction engine for a 2D
// board editor built on [Ebitengine]: pannable/zoomable boards of shaped
// tokens with rotation-aware picking and asynchronously cached images.
//
// The engine is a library. A host owns the drawing surface and the
// authoritative scene data; the engine owns the camera, the image cache, and
// in-flight gestures. Data flows one way per frame:
//
//	Snapshot (tokens, camera, background, board, selection)
//	    -> Engine.Draw -> pixels
//
// and pointer input flows back out as committed gestures:
//
//	press/move/release -> drag, pan, zoom, click
//	    -> OnTokenMoved / OnCameraChanged / OnTokenClick
//
// During a gesture the engine renders from local optimistic state and tells
// the host exactly once, when the gesture ends; the host's next Snapshot is
// the authoritative answer.
//
// # Quick start
//
//	engine := tabletop.NewEngine()
//	engine.Resize(800, 600, ebiten.Monitor().DeviceScaleFactor())
//	engine.SetSnapshot(&tabletop.Snapshot{
//		Board:  tabletop.Board{Width: 1000, Height: 800},
//		Tokens: []tabletop.Token{{ID: "t1", X: 100, Y: 100, Width: 50, Height: 50, Movable: true}},
//	})
//
// Then drive it from an [ebiten.Game]:
//
//	func (g *Game) Update() error        { g.engine.Update(1.0 / float64(ebiten.TPS())); return nil }
//	func (g *Game) Draw(s *ebiten.Image) { g.engine.Draw(s) }
//
// # Picking
//
// [Pick] is a pure function from a world-space point and a token slice to
// the topmost token id. It never panics: malformed points or tokens degrade
// to "no match" or "skip this token". [Engine.PickScreen] composes it with
// the camera transform.
//
// # Images
//
// Token and background images are fetched at most once per cache key
// through [ImageCache], which never blocks a frame: the renderer draws
// placeholders until a load completes and a failure indicator after one
// fails. Load failures surface through [Engine.OnUserMessage]; everything
// else degrades silently. [Engine.WatchImages] reloads local images when
// they change on disk.
//
// Errors inside the engine never propagate to the caller as panics; the
// design goal is that one malformed token never takes down the frame.
//
// [Ebitengine]: https://ebitengine.org
package tabletop
