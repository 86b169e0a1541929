package tabletop

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// CacheStatus is the lifecycle state of one image cache entry.
type CacheStatus uint8

const (
	CacheLoading CacheStatus = iota // fetch in flight; draw a placeholder
	CacheLoaded                     // Image is ready
	CacheError                      // fetch failed; Image is nil, no automatic retry
)

// CacheEntry is the displayable state for one cache key. An entry is created
// in CacheLoading and transitions exactly once to CacheLoaded or CacheError.
type CacheEntry struct {
	Image  *ebiten.Image
	Status CacheStatus
}

// FetchFunc resolves an image source (URL or local path) to decoded pixels.
// It runs on a background goroutine and must not touch engine state.
type FetchFunc func(src string) (image.Image, error)

// loadResult is a completed fetch waiting to be applied on the game loop.
type loadResult struct {
	key string
	src string
	img image.Image
	err error
}

// ImageCache loads external images at most once per cache key and reports
// completions through redraw and user-message callbacks.
//
// Fetches run on goroutines, but entry state only changes inside Load and
// Drain, which the owning Engine calls from its single game-loop thread; the
// mutex exists solely to hand results across from fetch goroutines.
type ImageCache struct {
	mu       sync.Mutex
	entries  map[string]*CacheEntry
	sources  map[string]string // key -> src, for explicit reloads
	done     []loadResult
	inflight sync.WaitGroup

	fetch   FetchFunc
	redraw  func()
	message func(string)
}

// NewImageCache creates a cache using the default fetcher (HTTP for
// http(s):// sources, the filesystem otherwise). The redraw and message
// callbacks may be nil.
func NewImageCache(redraw func(), message func(string)) *ImageCache {
	return &ImageCache{
		entries: make(map[string]*CacheEntry),
		sources: make(map[string]string),
		fetch:   FetchImage,
		redraw:  redraw,
		message: message,
	}
}

// SetFetchFunc replaces the fetcher. Tests use this to avoid real I/O.
func (c *ImageCache) SetFetchFunc(fn FetchFunc) {
	c.mu.Lock()
	c.fetch = fn
	c.mu.Unlock()
}

// Entry returns the cache entry for key, if any. The returned entry is a
// copy; mutating it does not affect the cache.
func (c *ImageCache) Entry(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	return *e, true
}

// Load requests the image at src under the given cache key.
//
//   - src == "": any existing entry for key is removed; if one existed the
//     redraw signal fires (a token or background just lost its image).
//   - entry already loaded: the redraw signal fires and nothing is fetched
//     (idempotent confirmation).
//   - entry loading: no-op; the in-flight fetch will notify on completion.
//     N concurrent Loads for one key produce at most one fetch.
//   - entry errored or absent: a fresh loading entry is created and a fetch
//     starts. Errored entries are never retried implicitly; reaching here
//     requires this explicit call.
func (c *ImageCache) Load(src, key string) {
	c.mu.Lock()
	if src == "" {
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			delete(c.sources, key)
			c.mu.Unlock()
			c.signalRedraw()
			return
		}
		c.mu.Unlock()
		return
	}
	if e, ok := c.entries[key]; ok {
		switch e.Status {
		case CacheLoaded:
			c.mu.Unlock()
			c.signalRedraw()
			return
		case CacheLoading:
			c.mu.Unlock()
			return
		}
	}
	c.entries[key] = &CacheEntry{Status: CacheLoading}
	c.sources[key] = src
	fetch := c.fetch
	c.mu.Unlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		img, err := fetch(src)
		c.mu.Lock()
		c.done = append(c.done, loadResult{key: key, src: src, img: img, err: err})
		c.mu.Unlock()
	}()
}

// Request starts a load only if no entry exists for key. The renderer uses
// this each frame so an errored entry stays errored instead of hammering a
// dead URL.
func (c *ImageCache) Request(src, key string) {
	c.mu.Lock()
	_, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		c.Load(src, key)
	}
}

// Reload drops the entry for key (if any) and starts a fresh load from its
// recorded source. Used by the file watcher when an on-disk image changes.
func (c *ImageCache) Reload(key string) {
	c.mu.Lock()
	src, ok := c.sources[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if ok {
		c.Load(src, key)
	}
}

// Drain applies completed fetches: each pending result transitions its entry
// to loaded or errored and fires the redraw signal; failures additionally
// emit one user-visible message. Results for keys that were removed or
// re-pointed while the fetch was in flight are dropped. Called from
// Engine.Update on the game-loop thread.
func (c *ImageCache) Drain() {
	c.mu.Lock()
	results := c.done
	c.done = nil
	c.mu.Unlock()

	for _, r := range results {
		c.mu.Lock()
		e, ok := c.entries[r.key]
		stale := !ok || e.Status != CacheLoading || c.sources[r.key] != r.src
		if !stale {
			if r.err != nil {
				e.Status = CacheError
				e.Image = nil
			} else {
				e.Status = CacheLoaded
				e.Image = ebiten.NewImageFromImage(r.img)
			}
		}
		c.mu.Unlock()
		if stale {
			continue
		}
		if r.err != nil {
			c.signalMessage(fmt.Sprintf("failed to load image %s: %v", truncate(r.src, 120), r.err))
		}
		c.signalRedraw()
	}
}

// wait blocks until all in-flight fetches have produced results. Test helper.
func (c *ImageCache) wait() {
	c.inflight.Wait()
}

func (c *ImageCache) signalRedraw() {
	if c.redraw != nil {
		c.redraw()
	}
}

func (c *ImageCache) signalMessage(msg string) {
	if c.message != nil {
		c.message(msg)
	}
}

// truncate shortens s to at most n bytes for user-facing messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// httpClient bounds image fetches so a dead host cannot pin a goroutine.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// FetchImage is the default FetchFunc: http(s) sources are fetched over
// HTTP, anything else is read from the filesystem.
func FetchImage(src string) (image.Image, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := httpClient.Get(src)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("http status %s", resp.Status)
		}
		img, _, err := image.Decode(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return img, nil
	}

	b, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
