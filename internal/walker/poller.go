package walker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cortexindex/indexd/internal/ignore"
)

// DefaultPollInterval is how often a Poller re-stats the tree when no
// per-root override is configured.
const DefaultPollInterval = 200 * time.Millisecond

// Notifier produces debounced Events for a watched root. Watcher and
// Poller both implement it so the coordinator can select whichever fits
// a project's filesystem (fsnotify is unavailable on some network
// mounts, and some operators disable it deliberately).
type Notifier interface {
	Start(ctx context.Context, callback func(Event))
	Stop() error
}

// Poller is a polling-based Notifier: it re-stats every non-ignored file
// under root on a fixed interval instead of relying on fsnotify. Slower
// and coarser than Watcher, but works anywhere a plain stat call does.
type Poller struct {
	root     string
	matcher  *ignore.Matcher
	interval time.Duration

	mu    sync.Mutex
	known map[string]time.Time

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller builds a Poller over root. interval <= 0 uses
// DefaultPollInterval.
func NewPoller(root string, matcher *ignore.Matcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		root:     root,
		matcher:  matcher,
		interval: interval,
		known:    make(map[string]time.Time),
		done:     make(chan struct{}),
	}
}

// Start launches the poll loop. The first tick seeds p's known-state map
// without firing callback, matching Watcher's behavior of not reporting
// the files it discovers on initial Add.
func (p *Poller) Start(ctx context.Context, callback func(Event)) {
	p.scan()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.loop(ctx, callback)
}

func (p *Poller) loop(ctx context.Context, callback func(Event)) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ev, ok := p.scan(); ok && callback != nil {
				callback(ev)
			}
		}
	}
}

// scan re-stats the tree, diffs against the previous scan's modtimes,
// and reports changed (added, modified, or deleted) relative paths. A
// changed-set larger than BurstThreshold collapses to a resync, the same
// backpressure rule Watcher applies to a debounce-window burst.
func (p *Poller) scan() (Event, bool) {
	current := make(map[string]time.Time)

	_ = filepath.Walk(p.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(p.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if p.matcher.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if p.matcher.Match(rel) {
			return nil
		}
		current[rel] = info.ModTime()
		return nil
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	var changed []string
	for rel, mt := range current {
		if prev, ok := p.known[rel]; !ok || !prev.Equal(mt) {
			changed = append(changed, rel)
		}
	}
	for rel := range p.known {
		if _, ok := current[rel]; !ok {
			changed = append(changed, rel)
		}
	}
	p.known = current

	if len(changed) == 0 {
		return Event{}, false
	}
	if len(changed) > BurstThreshold {
		return Event{Resync: true}, true
	}
	return Event{Changed: changed}, true
}

// Stop halts the poll loop.
func (p *Poller) Stop() error {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
			<-p.done
		} else {
			close(p.done)
		}
	})
	return nil
}
