// Package watcher subscribes to OS filesystem notifications and feeds
// debounced registration events into an eventqueue.Queue.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/eventqueue"
)

// defaultIgnorePatterns are always applied in addition to any
// configured IGNORE_PATTERNS.
var defaultIgnorePatterns = []string{
	"*.tmp", "*.partial", ".DS_Store", "Thumbs.db", "@eaDir/*", "#recycle/*",
}

// renameWindow bounds how long a removed/renamed source path is
// remembered as a candidate rename origin for a subsequent Create with
// the same basename.
const renameWindow = 2 * time.Second

// Watcher recursively watches a set of source roots and translates raw
// fsnotify events into debounced eventqueue.Event values.
type Watcher struct {
	roots          []string
	ignorePatterns []string
	queue          *eventqueue.Queue
	fsw            *fsnotify.Watcher

	mu              sync.Mutex
	rememberedMoves map[string]renameOrigin // basename -> vanished source
}

// renameOrigin records a recently-vanished path that might be the source
// half of a rename, pending a matching Create on the destination.
type renameOrigin struct {
	vanishedAt time.Time
	wasIgnored bool
}

// New creates a Watcher over roots, pushing debounced events into queue.
func New(roots []string, ignorePatterns []string, queue *eventqueue.Queue) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		roots:           roots,
		ignorePatterns:  append(append([]string{}, defaultIgnorePatterns...), ignorePatterns...),
		queue:           queue,
		fsw:             fsw,
		rememberedMoves: make(map[string]renameOrigin),
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			logger.Warn("watcher failed to subscribe to source root", logger.Path(root), logger.Err(err))
		}
	}

	return w, nil
}

// addRecursive registers a watch on dir and every subdirectory beneath it,
// skipping hidden and ignored directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort: skip unreadable subtrees
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHiddenOrSystemDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Warn("watcher failed to add directory watch", logger.Path(path), logger.Err(err))
		}
		return nil
	})
}

func isHiddenOrSystemDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "@eaDir", "#recycle", ".SynologyWorkingDirectory":
		return true
	}
	return false
}

// Run consumes raw fsnotify events until ctx is cancelled, translating
// each into a debounced Event pushed onto the queue.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleRawEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", logger.Err(err))
		}
	}
}

// Close releases the underlying OS watch handles.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handleRawEvent(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !isHiddenOrSystemDir(filepath.Base(ev.Name)) {
				if err := w.fsw.Add(ev.Name); err != nil {
					logger.Warn("watcher failed to add new directory watch", logger.Path(ev.Name), logger.Err(err))
				}
			}
			return
		}
	}

	// Directory events for anything else (Remove/Write/Rename on a dir we
	// can no longer stat) are dropped.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.handleMovedOrRemoved(ev)
		return
	}

	destIgnored := w.ignored(ev.Name)

	// Transient targets: gone by the time we look.
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return
	}

	kind := eventqueue.KindModified
	if ev.Has(fsnotify.Create) {
		kind = eventqueue.KindCreated

		if origin, ok := w.consumeRememberedMove(filepath.Base(ev.Name)); ok {
			switch {
			case origin.wasIgnored && destIgnored:
				// Both ends ignored: drop entirely.
				return
			case origin.wasIgnored && !destIgnored:
				// Source ignored, destination not: rewritten as created
				// on the destination.
				kind = eventqueue.KindCreated
			default:
				kind = eventqueue.KindMoved
			}
		}
	}

	if destIgnored && kind != eventqueue.KindMoved {
		return
	}

	out := eventqueue.Event{Path: ev.Name, Kind: kind, Timestamp: time.Now()}
	if kind == eventqueue.KindMoved {
		out.DestPath = ev.Name
	}
	w.queue.Add(out)
}

// consumeRememberedMove reports whether a same-basename source recently
// vanished within renameWindow, consuming the entry if so.
func (w *Watcher) consumeRememberedMove(base string) (renameOrigin, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	origin, ok := w.rememberedMoves[base]
	if !ok {
		return renameOrigin{}, false
	}
	delete(w.rememberedMoves, base)
	if time.Since(origin.vanishedAt) > renameWindow {
		return renameOrigin{}, false
	}
	return origin, true
}

// handleMovedOrRemoved implements the rename-detection rewrite rules:
// fsnotify reports a rename as Rename on the source path
// followed by Create on the destination. We remember the source path for
// a short window so the eventual destination Create can be rewritten as a
// "moved" event instead of an ordinary "created". A true delete (no
// matching destination ever arrives) is picked up by the Reconciler's
// soft-delete sweep instead, since watcher-side delivery of deletions is
// best-effort.
func (w *Watcher) handleMovedOrRemoved(ev fsnotify.Event) {
	if _, err := os.Stat(ev.Name); err == nil {
		return
	}

	origin := renameOrigin{vanishedAt: time.Now(), wasIgnored: w.ignored(ev.Name)}

	w.mu.Lock()
	w.rememberedMoves[filepath.Base(ev.Name)] = origin
	w.mu.Unlock()
}

// ignored reports whether path matches an ignore pattern (basename or
// full path) or has a '.'-prefixed path component.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}

	for _, pat := range w.ignorePatterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
	}
	return false
}
