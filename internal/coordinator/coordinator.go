// Package coordinator implements the IndexCoordinator (C7): the
// component that owns a project's indexing lifecycle end to end,
// wiring the registry, hash store, ignore matcher, walker/watcher,
// embedder pool, and vector/graph store adapters into one coherent
// pipeline per project.
//
// The per-project job bookkeeping — one isIndexing guard, one progress
// broadcaster, start/stop lifecycle — is grounded on
// internal/indexer/daemon/actor.go's Actor, generalized from "one Actor
// goroutine per registered project" to "one job entry per project under
// the coordinator's map", and from a protobuf IndexProgress (whose
// gen/indexer/v1 package isn't present anywhere in this pack) to a plain
// ProgressEvent struct.
package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cortexindex/indexd/internal/chunk"
	"github.com/cortexindex/indexd/internal/embedpool"
	"github.com/cortexindex/indexd/internal/graphextract"
	"github.com/cortexindex/indexd/internal/graphstore"
	"github.com/cortexindex/indexd/internal/hashstore"
	"github.com/cortexindex/indexd/internal/ignore"
	"github.com/cortexindex/indexd/internal/registry"
	"github.com/cortexindex/indexd/internal/vectorstore"
	"github.com/cortexindex/indexd/internal/walker"
)

// Config tunes the coordinator's concurrency and defaults.
type Config struct {
	// BaseDir is the coordinator's state directory; the CLI passes the
	// global cache base directory (~/.indexd/cache by default).
	// Each project's hash store lives at BaseDir/cache/<projectID>/hashes.db.
	BaseDir string
	// DefaultEmbedder names the embedpool provider used when a project's
	// Settings don't override it.
	DefaultEmbedder string
	// FileWorkers bounds how many files one project's indexing run
	// processes concurrently.
	FileWorkers int
	// MaxConcurrentProjects bounds how many projects can index at once
	// across the whole coordinator.
	MaxConcurrentProjects int64
	Chunk                 chunk.Config
	// WatchPoll selects the stat-interval Poller over the default
	// fsnotify-backed Watcher for StartWatch, for roots where kernel
	// filesystem notifications are unavailable or undesired (e.g. some
	// network mounts).
	WatchPoll bool
	// PollInterval tunes the Poller when WatchPoll is set. Zero uses
	// walker.DefaultPollInterval.
	PollInterval time.Duration
}

// DefaultConfig matches the concurrency defaults from the component
// design: 3 file workers per project, 10 concurrent projects.
func DefaultConfig(baseDir, defaultEmbedder string) Config {
	return Config{
		BaseDir:               baseDir,
		DefaultEmbedder:       defaultEmbedder,
		FileWorkers:           3,
		MaxConcurrentProjects: 10,
		Chunk:                 chunk.DefaultConfig(),
	}
}

// Coordinator is the IndexCoordinator.
type Coordinator struct {
	cfg     Config
	reg     *registry.Registry
	embed   *embedpool.Pool
	vector  vectorstore.Store
	graph   *graphstore.SessionPool
	extract *graphextract.Registry

	projectSem *semaphore.Weighted

	jobsMu sync.Mutex
	jobs   map[string]*job

	hashMu     sync.Mutex
	hashStores map[string]*hashstore.Store

	watchMu  sync.Mutex
	watchers map[string]*watch
}

// watch is one project's live file-watching bookkeeping: the matcher and
// walker.Notifier pair that StartWatch sets up, plus the cancel func that
// tears the notifier's event loop down.
type watch struct {
	matcher *ignore.Matcher
	n       walker.Notifier
	cancel  context.CancelFunc
}

// New wires a Coordinator from its already-constructed dependencies.
func New(cfg Config, reg *registry.Registry, embed *embedpool.Pool, vector vectorstore.Store, graph *graphstore.SessionPool, extract *graphextract.Registry) *Coordinator {
	if cfg.FileWorkers < 1 {
		cfg.FileWorkers = 1
	}
	if cfg.MaxConcurrentProjects < 1 {
		cfg.MaxConcurrentProjects = 1
	}
	return &Coordinator{
		cfg:        cfg,
		reg:        reg,
		embed:      embed,
		vector:     vector,
		graph:      graph,
		extract:    extract,
		projectSem: semaphore.NewWeighted(cfg.MaxConcurrentProjects),
		jobs:       make(map[string]*job),
		hashStores: make(map[string]*hashstore.Store),
		watchers:   make(map[string]*watch),
	}
}

// job is one project's live indexing bookkeeping.
type job struct {
	isIndexing atomic.Bool
	cancel     atomic.Pointer[context.CancelFunc]
	// rerun holds a queued StartIndex(allowReindex=true) request made
	// while this job was already indexing; the run loop picks it up and
	// starts a fresh pass the moment the in-flight one drains.
	rerun atomic.Pointer[IndexOptions]

	mu    sync.RWMutex
	state ProjectState

	subsMu sync.RWMutex
	subs   map[string]chan ProgressEvent
}

func (c *Coordinator) jobFor(id string) *job {
	c.jobsMu.Lock()
	defer c.jobsMu.Unlock()
	j, ok := c.jobs[id]
	if !ok {
		j = &job{subs: make(map[string]chan ProgressEvent)}
		c.jobs[id] = j
	}
	return j
}

// AddProject registers root and returns its durable record.
func (c *Coordinator) AddProject(root string) (*registry.Project, error) {
	p, err := c.reg.Register(root)
	if err != nil {
		return nil, newErr(KindInvalid, ScopeRegistry, "register project", err)
	}
	return p, nil
}

// RemoveProject tears down every store namespaced by id and forgets it.
func (c *Coordinator) RemoveProject(ctx context.Context, id string) error {
	if _, ok := c.reg.Get(id); !ok {
		return newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", id), nil)
	}

	if err := c.StopIndex(id); err != nil {
		return err
	}
	c.StopWatch(id)

	if err := c.vector.DropCollection(ctx, id); err != nil {
		return newErr(KindInternal, ScopeVectorStore, "drop collection", err)
	}
	if err := c.graph.With(ctx, func(s graphstore.Store) error { return s.DropSpace(ctx, id) }); err != nil {
		return newErr(KindInternal, ScopeGraphStore, "drop space", err)
	}

	c.hashMu.Lock()
	if hs, ok := c.hashStores[id]; ok {
		hs.Close()
		delete(c.hashStores, id)
	}
	c.hashMu.Unlock()
	os.RemoveAll(filepath.Join(c.cfg.BaseDir, "cache", id))

	if err := c.reg.Unregister(id); err != nil {
		return newErr(KindInternal, ScopeRegistry, "unregister", err)
	}

	c.jobsMu.Lock()
	delete(c.jobs, id)
	c.jobsMu.Unlock()
	return nil
}

// UpdateSettings overwrites id's per-project overrides (embedder name,
// batch size, debounce/poll interval). Changes take effect on the next
// StartIndex or StartWatch call; an in-flight run or live watch keeps
// using whatever it already started with.
func (c *Coordinator) UpdateSettings(id string, s Settings) (*registry.Project, error) {
	if err := c.reg.SetSettings(id, s); err != nil {
		return nil, newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", id), err)
	}
	p, _ := c.reg.Get(id)
	return p, nil
}

// ListProjects returns every registered project's durable record.
func (c *Coordinator) ListProjects() []*registry.Project {
	return c.reg.List()
}

// Status returns the live state of id, falling back to the registry's
// durable record when no indexing run has happened this process.
func (c *Coordinator) Status(id string) (ProjectState, error) {
	p, ok := c.reg.Get(id)
	if !ok {
		return ProjectState{}, newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", id), nil)
	}
	j := c.jobFor(id)
	j.mu.RLock()
	state := j.state
	j.mu.RUnlock()
	state.Project = *p
	return state, nil
}

// SubscribeProgress registers a buffered channel that receives every
// ProgressEvent published for id until Unsubscribe is called, mirroring
// the teacher's Actor.SubscribeProgress/UnsubscribeProgress pair.
func (c *Coordinator) SubscribeProgress(id, subscriberID string) <-chan ProgressEvent {
	j := c.jobFor(id)
	j.subsMu.Lock()
	defer j.subsMu.Unlock()
	ch := make(chan ProgressEvent, 10)
	j.subs[subscriberID] = ch
	return ch
}

// UnsubscribeProgress removes and closes subscriberID's channel.
func (c *Coordinator) UnsubscribeProgress(id, subscriberID string) {
	j := c.jobFor(id)
	j.subsMu.Lock()
	defer j.subsMu.Unlock()
	if ch, ok := j.subs[subscriberID]; ok {
		close(ch)
		delete(j.subs, subscriberID)
	}
}

func (j *job) publish(id string) {
	j.mu.RLock()
	state := j.state
	j.mu.RUnlock()

	j.subsMu.RLock()
	defer j.subsMu.RUnlock()
	event := ProgressEvent{ProjectID: id, State: state}
	for _, ch := range j.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (j *job) setState(mutate func(*ProjectState)) {
	j.mu.Lock()
	mutate(&j.state)
	j.mu.Unlock()
}

func (j *job) snapshot() ProjectState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// StartIndex launches one indexing run for id in the background and
// returns immediately; use SubscribeProgress or Status to observe it.
// Calling StartIndex while a run is already in progress for the same
// project is a conflict, unless opts.AllowReindex is set, in which case
// the request is queued and starts a fresh enumerating pass the moment
// the in-flight run drains.
func (c *Coordinator) StartIndex(ctx context.Context, id string, opts IndexOptions) error {
	project, ok := c.reg.Get(id)
	if !ok {
		return newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", id), nil)
	}

	j := c.jobFor(id)
	if !j.isIndexing.CompareAndSwap(false, true) {
		if opts.AllowReindex {
			j.rerun.Store(&opts)
			return nil
		}
		return newErr(KindConflict, ScopeCoordinator, "already indexing", nil)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cancelFn := cancel
	j.cancel.Store(&cancelFn)

	go func() {
		defer j.isIndexing.Store(false)
		defer cancel()

		if err := c.projectSem.Acquire(runCtx, 1); err != nil {
			c.finishWithError(j, id, err)
			return
		}
		defer c.projectSem.Release(1)

		current := opts
		for {
			c.reg.SetState(id, registry.StateIndexing, nil)
			if err := c.runIndex(runCtx, j, project, current); err != nil {
				c.finishWithError(j, id, err)
				return
			}

			failed := j.snapshot().FailedFiles
			now := time.Now().UTC()
			if failed > 0 {
				lastErr := fmt.Sprintf("%d file(s) failed to index", failed)
				c.reg.MarkPartial(id, now, lastErr)
				j.setState(func(s *ProjectState) {
					s.Phase = PhasePartial
					s.LastError = lastErr
				})
			} else {
				c.reg.MarkIndexed(id, now)
				j.setState(func(s *ProjectState) {
					s.Phase = PhaseComplete
					s.LastError = ""
				})
			}
			j.publish(id)

			queued := j.rerun.Swap(nil)
			if queued == nil {
				return
			}
			current = *queued
		}
	}()

	return nil
}

func (c *Coordinator) finishWithError(j *job, id string, err error) {
	c.reg.SetState(id, registry.StateError, err)
	j.setState(func(s *ProjectState) {
		s.Phase = PhaseError
		s.LastError = err.Error()
	})
	j.publish(id)
}

// StopIndex requests cooperative cancellation of id's in-flight run, if
// any. It is a no-op if nothing is running.
func (c *Coordinator) StopIndex(id string) error {
	j := c.jobFor(id)
	if cancelPtr := j.cancel.Load(); cancelPtr != nil {
		(*cancelPtr)()
	}
	return nil
}

// StartWatch begins watching id's project root for filesystem changes.
// Debounced events trigger the same incremental indexing run StartIndex
// would (the hash store diff already scopes the work to what actually
// changed); a burst that overflows the watcher's accumulation bound
// instead requests a resync, which is just that same run with nothing
// pre-filtered. It is an error to call StartWatch twice for one project
// without an intervening StopWatch.
func (c *Coordinator) StartWatch(id string) error {
	project, ok := c.reg.Get(id)
	if !ok {
		return newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", id), nil)
	}

	c.watchMu.Lock()
	if _, exists := c.watchers[id]; exists {
		c.watchMu.Unlock()
		return newErr(KindConflict, ScopeCoordinator, "already watching", nil)
	}
	c.watchMu.Unlock()

	matcher, err := ignore.New(project.RootPath)
	if err != nil {
		return newErr(KindInvalid, ScopeIgnore, "build ignore matcher", err)
	}
	if err := matcher.WatchReload(); err != nil {
		matcher.Close()
		return newErr(KindInternal, ScopeIgnore, "watch ignore rules", err)
	}

	var notifier walker.Notifier
	if c.cfg.WatchPoll {
		interval := c.cfg.PollInterval
		if project.Settings.DebounceInterval > 0 {
			interval = project.Settings.DebounceInterval
		}
		notifier = walker.NewPoller(project.RootPath, matcher, interval)
	} else {
		debounce := walker.DebounceInterval
		if project.Settings.DebounceInterval > 0 {
			debounce = project.Settings.DebounceInterval
		}
		w, err := walker.NewWithDebounce(project.RootPath, matcher, debounce)
		if err != nil {
			matcher.Close()
			return newErr(KindInternal, ScopeWalker, "start watcher", err)
		}
		notifier = w
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.watchMu.Lock()
	c.watchers[id] = &watch{matcher: matcher, n: notifier, cancel: cancel}
	c.watchMu.Unlock()

	notifier.Start(ctx, func(ev walker.Event) { c.onWatchEvent(id, ev) })
	return nil
}

// StopWatch tears down id's file watcher, if one is running. It is a
// no-op if the project isn't being watched.
func (c *Coordinator) StopWatch(id string) error {
	c.watchMu.Lock()
	wt, ok := c.watchers[id]
	if ok {
		delete(c.watchers, id)
	}
	c.watchMu.Unlock()
	if !ok {
		return nil
	}
	wt.cancel()
	err := wt.n.Stop()
	wt.matcher.Close()
	return err
}

// onWatchEvent runs a debounced watcher event's fallout: a fresh
// incremental indexing run. An event that arrives while a run is already
// in flight queues one rerun (AllowReindex), so a change the current run
// read too early is picked up by the next pass rather than lost.
func (c *Coordinator) onWatchEvent(id string, ev walker.Event) {
	if err := c.StartIndex(context.Background(), id, IndexOptions{AllowReindex: true}); err != nil {
		if coordErr, ok := err.(*Error); !ok || coordErr.Kind != KindConflict {
			log.Printf("coordinator: watch-triggered index of %s: %v", id, err)
		}
	}
}

func (c *Coordinator) hashStoreFor(id string) (*hashstore.Store, error) {
	c.hashMu.Lock()
	defer c.hashMu.Unlock()
	if hs, ok := c.hashStores[id]; ok {
		return hs, nil
	}
	dir := filepath.Join(c.cfg.BaseDir, "cache", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("coordinator: create cache dir: %w", err)
	}
	hs, err := hashstore.Open(filepath.Join(dir, "hashes.db"))
	if err != nil {
		return nil, err
	}
	c.hashStores[id] = hs
	return hs, nil
}

func (c *Coordinator) runIndex(ctx context.Context, j *job, project *registry.Project, opts IndexOptions) error {
	j.setState(func(s *ProjectState) { s.Phase = PhaseWalking; s.FilesDone = 0; s.FailedFiles = 0; s.ChunksIndexed = 0 })
	j.publish(project.ID)

	matcher, err := ignore.New(project.RootPath)
	if err != nil {
		return newErr(KindInvalid, ScopeIgnore, "build ignore matcher", err)
	}
	defer matcher.Close()

	fileCh, walkErrCh := walker.Walk(ctx, project.RootPath, matcher)
	candidates := make(map[string]hashstore.Candidate)
	for f := range fileCh {
		candidates[f.RelPath] = hashstore.Candidate{Path: f.RelPath, Size: f.Size, ModTime: f.ModTime}
	}
	if err := <-walkErrCh; err != nil {
		return newErr(KindInternal, ScopeWalker, "walk project tree", err)
	}

	j.setState(func(s *ProjectState) { s.Phase = PhaseDiffing })
	j.publish(project.ID)

	candidateList := make([]hashstore.Candidate, 0, len(candidates))
	for _, c := range candidates {
		candidateList = append(candidateList, c)
	}

	hs, err := c.hashStoreFor(project.ID)
	if err != nil {
		return newErr(KindInternal, ScopeHashStore, "open hash store", err)
	}

	diff, err := hs.Diff(ctx, candidateList, func(path string) (string, error) {
		return hashstore.HashFile(filepath.Join(project.RootPath, path))
	})
	if err != nil {
		return newErr(KindInternal, ScopeHashStore, "diff", err)
	}

	changed := append(append([]string{}, diff.Added...), diff.Modified...)
	j.setState(func(s *ProjectState) {
		s.Phase = PhaseIndexing
		s.FilesTotal = len(changed) + len(diff.Deleted)
	})
	j.publish(project.ID)

	embedderName := c.cfg.DefaultEmbedder
	if project.Settings.EmbedderName != "" {
		embedderName = project.Settings.EmbedderName
	}

	if !opts.GraphOnly {
		dims, err := c.embed.Dimensions(embedderName)
		if err != nil {
			return newErr(KindUnavailable, ScopeEmbedder, "resolve embedder dimensions", err)
		}
		if err := c.vector.EnsureCollection(ctx, project.ID, dims); err != nil {
			return newErr(KindInternal, ScopeVectorStore, "ensure collection", err)
		}
	}
	if !opts.VectorsOnly {
		if err := c.graph.With(ctx, func(s graphstore.Store) error { return s.EnsureSpace(ctx, project.ID) }); err != nil {
			return newErr(KindInternal, ScopeGraphStore, "ensure space", err)
		}
	}

	// A per-file failure must not abort the files still queued behind it:
	// errgroup cancels gctx on the first non-nil return, which would stop
	// the sem.Acquire loop below from ever dispatching the rest of
	// changed. So only a genuine upstream cancellation (StopIndex, or the
	// caller's own ctx expiring) is allowed to propagate through g.Wait;
	// a business failure on one file is recorded as a failed file and
	// swallowed so the run keeps going and drains as partial.
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(c.cfg.FileWorkers))
	for _, relPath := range changed {
		relPath := relPath
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			cand := candidates[relPath]
			err := c.processFile(gctx, project, relPath, cand, opts, embedderName)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				log.Printf("coordinator: index %s: file %s failed: %v", project.ID, relPath, err)
				j.setState(func(s *ProjectState) {
					s.FailedFiles++
					s.FilesDone++
					s.CurrentFile = relPath
					s.LastError = err.Error()
				})
				j.publish(project.ID)
				return nil
			}
			j.setState(func(s *ProjectState) {
				s.FilesDone++
				s.CurrentFile = relPath
			})
			j.publish(project.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, relPath := range diff.Deleted {
		if err := c.deleteFile(ctx, project.ID, relPath, opts); err != nil {
			return err
		}
		j.setState(func(s *ProjectState) { s.FilesDone++ })
		j.publish(project.ID)
	}

	for _, relPath := range diff.Unchanged {
		if cand, ok := candidates[relPath]; ok {
			hs.TouchModTime(ctx, relPath, cand.ModTime)
		}
	}

	return nil
}

// processFile embeds and extracts one changed file, committing its new
// hash only after both sub-pipelines (whichever the options call for)
// succeed. A failure in one after the other already committed triggers
// a compensating delete, per the dual-store consistency rule — no 2PC,
// just an idempotent cleanup of the side that got ahead.
func (c *Coordinator) processFile(ctx context.Context, project *registry.Project, relPath string, cand hashstore.Candidate, opts IndexOptions, embedderName string) error {
	content, err := os.ReadFile(filepath.Join(project.RootPath, relPath))
	if err != nil {
		return newErr(KindInternal, ScopeWalker, fmt.Sprintf("read %s", relPath), err)
	}

	var vectorCommitted bool

	if !opts.GraphOnly {
		// Delete before upsert: Upsert only replaces vectors whose ChunkID
		// exactly matches a record in this batch, so a shrinking edit would
		// otherwise leave the file's trailing old chunks stranded. Mirrors
		// graphstore.BoltStore.UpsertFile's removeFileLocked-then-write.
		c.vector.DeleteFile(ctx, project.ID, relPath)

		chunks := chunk.Split(relPath, string(content), c.cfg.Chunk)
		if len(chunks) > 0 {
			texts := make([]string, len(chunks))
			for i, ch := range chunks {
				texts[i] = ch.Text
			}
			vectors, err := c.embed.EmbedWithBatchSize(ctx, embedderName, texts, embedpool.ModePassage, project.Settings.MaxBatchSize, nil)
			if err != nil {
				return newErr(KindUnavailable, ScopeEmbedder, fmt.Sprintf("embed %s", relPath), err)
			}
			records := make([]vectorstore.Record, len(chunks))
			for i, ch := range chunks {
				records[i] = vectorstore.Record{
					ChunkID:   ch.ID,
					FilePath:  ch.FilePath,
					Text:      ch.Text,
					StartLine: ch.StartLine,
					EndLine:   ch.EndLine,
					Embedding: vectors[i],
				}
			}
			if err := c.vector.Upsert(ctx, project.ID, records); err != nil {
				return newErr(KindInternal, ScopeVectorStore, fmt.Sprintf("upsert %s", relPath), err)
			}
		}
		vectorCommitted = true
	}

	if !opts.VectorsOnly {
		result, err := c.extract.Extract(relPath, content)
		if err != nil {
			if vectorCommitted {
				c.vector.DeleteFile(ctx, project.ID, relPath)
			}
			return newErr(KindInvalid, ScopeGraphStore, fmt.Sprintf("extract %s", relPath), err)
		}
		err = c.graph.With(ctx, func(s graphstore.Store) error {
			return s.UpsertFile(ctx, project.ID, relPath, result.Nodes, result.Edges)
		})
		if err != nil {
			if vectorCommitted {
				c.vector.DeleteFile(ctx, project.ID, relPath)
			}
			return newErr(KindInternal, ScopeGraphStore, fmt.Sprintf("upsert file %s", relPath), err)
		}
	}

	hs, err := c.hashStoreFor(project.ID)
	if err != nil {
		return newErr(KindInternal, ScopeHashStore, "open hash store", err)
	}
	if err := hs.Upsert(ctx, hashstore.Record{
		Path:      relPath,
		Hash:      hashBytes(content),
		Size:      cand.Size,
		ModTime:   cand.ModTime,
		IndexedAt: time.Now().UTC(),
	}); err != nil {
		return newErr(KindInternal, ScopeHashStore, fmt.Sprintf("record %s", relPath), err)
	}
	return nil
}

func (c *Coordinator) deleteFile(ctx context.Context, projectID, relPath string, opts IndexOptions) error {
	if !opts.GraphOnly {
		if err := c.vector.DeleteFile(ctx, projectID, relPath); err != nil {
			return newErr(KindInternal, ScopeVectorStore, fmt.Sprintf("delete %s", relPath), err)
		}
	}
	if !opts.VectorsOnly {
		err := c.graph.With(ctx, func(s graphstore.Store) error { return s.DeleteFile(ctx, projectID, relPath) })
		if err != nil {
			return newErr(KindInternal, ScopeGraphStore, fmt.Sprintf("delete %s", relPath), err)
		}
	}
	hs, err := c.hashStoreFor(projectID)
	if err != nil {
		return newErr(KindInternal, ScopeHashStore, "open hash store", err)
	}
	if err := hs.Delete(ctx, relPath); err != nil {
		return newErr(KindInternal, ScopeHashStore, fmt.Sprintf("forget %s", relPath), err)
	}
	return nil
}

// ListEmbedders returns the name of every embedder registered with the pool.
func (c *Coordinator) ListEmbedders() []string {
	return c.embed.Names()
}

// Search embeds query with the project's embedder (its settings override,
// if any, since that's what its vectors were indexed with) and returns the
// closest matching chunks, dropping anything below opts.MinScore.
func (c *Coordinator) Search(ctx context.Context, projectID, query string, opts SearchOptions) ([]SearchResult, error) {
	project, ok := c.reg.Get(projectID)
	if !ok {
		return nil, newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", projectID), nil)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	embedderName := c.cfg.DefaultEmbedder
	if project.Settings.EmbedderName != "" {
		embedderName = project.Settings.EmbedderName
	}
	vectors, err := c.embed.Embed(ctx, embedderName, []string{query}, embedpool.ModeQuery, nil)
	if err != nil {
		return nil, newErr(KindUnavailable, ScopeEmbedder, "embed query", err)
	}

	matches, err := c.vector.Search(ctx, projectID, vectors[0], limit)
	if err != nil {
		return nil, newErr(KindInternal, ScopeVectorStore, "search", err)
	}

	if opts.MinScore <= 0 {
		return matches, nil
	}
	filtered := matches[:0]
	for _, m := range matches {
		if 1-m.Distance >= opts.MinScore {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// RelatedTo walks the project's graph from nodeID out to maxDepth hops.
func (c *Coordinator) RelatedTo(ctx context.Context, projectID, nodeID string, maxDepth int) ([]RelatedResult, error) {
	if _, ok := c.reg.Get(projectID); !ok {
		return nil, newErr(KindNotFound, ScopeRegistry, fmt.Sprintf("project %s", projectID), nil)
	}
	if maxDepth <= 0 {
		maxDepth = 2
	}

	var results []RelatedResult
	err := c.graph.With(ctx, func(s graphstore.Store) error {
		neighbors, err := s.RelatedTo(ctx, projectID, nodeID, maxDepth)
		if err != nil {
			return err
		}
		results = neighbors
		return nil
	})
	if err != nil {
		return nil, newErr(KindInternal, ScopeGraphStore, fmt.Sprintf("related to %s", nodeID), err)
	}
	return results, nil
}

func hashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Close releases every per-project hash store handle and the shared
// embedder pool, vector store, and graph session pool. It does not
// remove any persisted state.
func (c *Coordinator) Close() error {
	c.watchMu.Lock()
	ids := make([]string, 0, len(c.watchers))
	for id := range c.watchers {
		ids = append(ids, id)
	}
	c.watchMu.Unlock()
	for _, id := range ids {
		c.StopWatch(id)
	}

	c.hashMu.Lock()
	for _, hs := range c.hashStores {
		hs.Close()
	}
	c.hashMu.Unlock()

	var firstErr error
	if err := c.embed.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.vector.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.graph.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
