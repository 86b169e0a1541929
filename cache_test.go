package tabletop

import (
	"errors"
	"image"
	"strings"
	"sync/atomic"
	"testing"
)

// countingFetch returns a FetchFunc that counts calls and can be told to
// fail. gate, when non-nil, blocks fetches until closed.
func countingFetch(count *atomic.Int32, fail bool, gate chan struct{}) FetchFunc {
	return func(src string) (image.Image, error) {
		count.Add(1)
		if gate != nil {
			<-gate
		}
		if fail {
			return nil, errors.New("fetch failed")
		}
		return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
	}
}

func TestLoadDeduplicatesInflight(t *testing.T) {
	var redraws int
	c := NewImageCache(func() { redraws++ }, nil)
	var fetches atomic.Int32
	gate := make(chan struct{})
	c.SetFetchFunc(countingFetch(&fetches, false, gate))

	c.Load("url", "key")
	c.Load("url", "key")
	c.Load("url", "key")

	if got := fetches.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1 (dedup while loading)", got)
	}
	if entry, ok := c.Entry("key"); !ok || entry.Status != CacheLoading {
		t.Fatalf("entry = %+v (ok=%v), want loading", entry, ok)
	}

	close(gate)
	c.wait()
	c.Drain()

	entry, ok := c.Entry("key")
	if !ok || entry.Status != CacheLoaded || entry.Image == nil {
		t.Fatalf("entry = %+v (ok=%v), want loaded with image", entry, ok)
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1 (one completion)", redraws)
	}
}

func TestLoadOnLoadedEntryConfirmsWithoutFetch(t *testing.T) {
	var redraws int
	c := NewImageCache(func() { redraws++ }, nil)
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, false, nil))

	c.Load("url", "key")
	c.wait()
	c.Drain()
	redraws = 0

	c.Load("url", "key")
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 (no refetch of loaded entry)", got)
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1 (idempotent confirmation)", redraws)
	}
}

func TestLoadFailureSetsErrorAndNotifies(t *testing.T) {
	var redraws int
	var messages []string
	c := NewImageCache(func() { redraws++ }, func(m string) { messages = append(messages, m) })
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, true, nil))

	c.Load("http://example.com/bad.png", "key")
	c.wait()
	c.Drain()

	entry, ok := c.Entry("key")
	if !ok || entry.Status != CacheError || entry.Image != nil {
		t.Fatalf("entry = %+v (ok=%v), want error with nil image", entry, ok)
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
	if len(messages) != 1 || !strings.Contains(messages[0], "bad.png") {
		t.Errorf("messages = %v, want one mentioning the URL", messages)
	}
}

func TestFailureMessageTruncatesLongURL(t *testing.T) {
	var messages []string
	c := NewImageCache(nil, func(m string) { messages = append(messages, m) })
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, true, nil))

	long := "http://example.com/" + strings.Repeat("x", 500)
	c.Load(long, "key")
	c.wait()
	c.Drain()

	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	if strings.Contains(messages[0], long) {
		t.Errorf("message contains the full %d-char URL", len(long))
	}
}

func TestEmptySourceRemovesEntry(t *testing.T) {
	var redraws int
	c := NewImageCache(func() { redraws++ }, nil)
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, false, nil))

	c.Load("url", "key")
	c.wait()
	c.Drain()
	redraws = 0

	c.Load("", "key")
	if _, ok := c.Entry("key"); ok {
		t.Error("entry still present after removal")
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1 (removal invalidates the frame)", redraws)
	}

	// Removing a nonexistent key is silent.
	c.Load("", "other")
	if redraws != 1 {
		t.Errorf("redraws = %d after no-op removal, want 1", redraws)
	}
}

func TestExplicitLoadRetriesFailedKey(t *testing.T) {
	c := NewImageCache(nil, nil)
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, true, nil))

	c.Load("url", "key")
	c.wait()
	c.Drain()
	if entry, _ := c.Entry("key"); entry.Status != CacheError {
		t.Fatalf("status = %v, want error", entry.Status)
	}

	// A fresh explicit Load is the retry path: new loading entry, new fetch.
	c.SetFetchFunc(countingFetch(&fetches, false, nil))
	c.Load("url", "key")
	if got := fetches.Load(); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
	if entry, _ := c.Entry("key"); entry.Status != CacheLoading {
		t.Fatalf("status = %v, want loading (not stuck in error)", entry.Status)
	}
	c.wait()
	c.Drain()
	if entry, _ := c.Entry("key"); entry.Status != CacheLoaded {
		t.Errorf("status = %v, want loaded", entry.Status)
	}
}

func TestSupersededCompletionIgnored(t *testing.T) {
	var redraws int
	c := NewImageCache(func() { redraws++ }, nil)
	var fetches atomic.Int32
	gate := make(chan struct{})
	c.SetFetchFunc(countingFetch(&fetches, false, gate))

	c.Load("url", "key")
	// The key is removed while the fetch is still in flight.
	c.Load("", "key")
	redraws = 0

	close(gate)
	c.wait()
	c.Drain()

	if _, ok := c.Entry("key"); ok {
		t.Error("stale completion resurrected a removed entry")
	}
	if redraws != 0 {
		t.Errorf("redraws = %d, want 0 for a dropped completion", redraws)
	}
}

func TestRequestOnlyLoadsAbsentKeys(t *testing.T) {
	c := NewImageCache(nil, nil)
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, true, nil))

	c.Request("url", "key")
	c.wait()
	c.Drain()
	c.Request("url", "key") // errored entry: renderer must not retry
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestReloadDropsAndRefetches(t *testing.T) {
	c := NewImageCache(nil, nil)
	var fetches atomic.Int32
	c.SetFetchFunc(countingFetch(&fetches, false, nil))

	c.Load("path/token.png", "path/token.png")
	c.wait()
	c.Drain()

	c.Reload("path/token.png")
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2 after reload", got)
	}
	c.wait()
	c.Drain()
	if entry, _ := c.Entry("path/token.png"); entry.Status != CacheLoaded {
		t.Errorf("status = %v, want loaded", entry.Status)
	}

	// Reloading an unknown key is a no-op.
	c.Reload("never-seen")
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetches = %d after unknown reload, want 2", got)
	}
}
