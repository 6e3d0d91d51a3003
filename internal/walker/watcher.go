package walker

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cortexindex/indexd/internal/ignore"
)

// DebounceInterval is the quiet period the watcher waits for after the
// last observed event before notifying the coordinator, matching the
// component design's 300ms default (the teacher's file_watcher.go uses
// 500ms for its own, broader-scoped use case).
const DebounceInterval = 300 * time.Millisecond

// BurstThreshold is the number of distinct paths accumulated in one
// debounce window above which the watcher gives up tracking individual
// paths and asks the coordinator to resync via a full walk instead.
const BurstThreshold = 500

// Event is delivered to a Watcher's callback after the debounce window
// elapses.
type Event struct {
	// Changed holds project-relative paths that were created, modified,
	// removed, or renamed. Resync is false.
	Changed []string
	// Resync is true when the watcher observed more distinct paths in
	// one debounce window than BurstThreshold; Changed is empty and the
	// coordinator should fall back to a full Walk + hash-store diff.
	Resync bool
}

// Watcher watches a project root for filesystem changes, debounces them,
// and reports them through a callback. Pause/Resume suspend notifications
// without losing the events that occur while paused.
type Watcher struct {
	root     string
	matcher  *ignore.Matcher
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu          sync.Mutex
	accumulated map[string]struct{}
	overloaded  bool
	paused      bool
	timer       *time.Timer

	callback func(Event)
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher over root using the default debounce window. Call
// Start to begin watching.
func New(root string, matcher *ignore.Matcher) (*Watcher, error) {
	return NewWithDebounce(root, matcher, DebounceInterval)
}

// NewWithDebounce is New with an explicit debounce window, for projects
// whose settings override the package default. debounce <= 0 falls back to
// DebounceInterval.
func NewWithDebounce(root string, matcher *ignore.Matcher, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DebounceInterval
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:        root,
		matcher:     matcher,
		fsw:         fsw,
		debounce:    debounce,
		accumulated: make(map[string]struct{}),
		done:        make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	rel, err := filepath.Rel(w.root, dir)
	if err == nil && rel != "." && w.matcher.Match(filepath.ToSlash(rel)) {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	entries, err := readDirNames(dir)
	if err != nil {
		return err
	}
	for _, sub := range entries {
		_ = w.addTree(sub)
	}
	return nil
}

// Start launches the event loop. callback is invoked from a background
// goroutine after each debounce window with the accumulated event.
func (w *Watcher) Start(ctx context.Context, callback func(Event)) {
	w.callback = callback
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.loop(ctx)
}

// Stop halts the watcher and releases the underlying fsnotify handle.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		} else {
			close(w.done)
		}
		err = w.fsw.Close()
	})
	return err
}

// Pause stops event delivery; changes keep accumulating until Resume.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Resume re-enables event delivery. If changes accumulated while paused,
// they are delivered immediately.
func (w *Watcher) Resume() {
	w.mu.Lock()
	w.paused = false
	ev, ok := w.drainLocked()
	w.mu.Unlock()
	if ok && w.callback != nil {
		w.callback(ev)
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if isDir(ev.Name) {
					_ = w.addTree(ev.Name)
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if w.matcher.Match(rel) {
				continue
			}

			w.mu.Lock()
			if _, seen := w.accumulated[rel]; !seen && len(w.accumulated) >= BurstThreshold {
				w.overloaded = true
			} else {
				w.accumulated[rel] = struct{}{}
			}
			w.mu.Unlock()
			w.resetTimer(fire)

		case <-fire:
			w.mu.Lock()
			paused := w.paused
			ev, ok := w.drainLocked()
			w.mu.Unlock()
			if !paused && ok && w.callback != nil {
				w.callback(ev)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("walker: watch error: %v", err)
		}
	}
}

// drainLocked must be called with w.mu held. It returns the accumulated
// event (possibly a resync) and clears accumulation state, or ok=false
// if nothing accumulated.
func (w *Watcher) drainLocked() (Event, bool) {
	if w.overloaded {
		w.overloaded = false
		w.accumulated = make(map[string]struct{})
		return Event{Resync: true}, true
	}
	if len(w.accumulated) == 0 {
		return Event{}, false
	}
	changed := make([]string, 0, len(w.accumulated))
	for p := range w.accumulated {
		changed = append(changed, p)
	}
	w.accumulated = make(map[string]struct{})
	return Event{Changed: changed}, true
}

func (w *Watcher) resetTimer(fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
