package tabletop

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ImageWatcher reports changes to image files under a set of directories so
// the engine can reload cache entries backed by local paths. Events are
// debounced: editors often emit several writes per save.
type ImageWatcher struct {
	watcher *fsnotify.Watcher
	events  chan string
	closeCh chan struct{}
	once    sync.Once
}

// NewImageWatcher watches the given directories for image file changes.
func NewImageWatcher(dirs ...string) (*ImageWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	iw := &ImageWatcher{
		watcher: w,
		events:  make(chan string, 16),
		closeCh: make(chan struct{}),
	}
	go iw.run()
	return iw, nil
}

// TryNext returns the next changed image path without blocking.
func (w *ImageWatcher) TryNext() (string, bool) {
	select {
	case path, ok := <-w.events:
		return path, ok
	default:
		return "", false
	}
}

// Close stops the watcher.
func (w *ImageWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *ImageWatcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isImageFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now
			select {
			case w.events <- event.Name:
			case <-w.closeCh:
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return true
	}
	return false
}
