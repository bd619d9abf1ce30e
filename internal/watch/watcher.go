// Package watch re-ingests the loaded record file whenever it changes on
// disk. A reload that fails validation is reported but never replaces the
// record the caller is showing.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"taxreview/internal/ingest"
	"taxreview/internal/logging"
	"taxreview/internal/taxrecord"
)

// Reload is the outcome of one re-ingestion. Exactly one of Record or Err
// is set.
type Reload struct {
	Path   string
	Record *taxrecord.Record
	Err    error
}

// LoadFunc ingests a file. Tests replace it; the default is ingest.LoadFile.
type LoadFunc func(path string) (*taxrecord.Record, error)

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Reloads       int
	Failures      int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// Watcher watches one record file. It watches the parent directory so that
// editors which save by rename are still seen.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	dir         string
	load        LoadFunc
	pending     time.Time // zero when nothing is waiting
	debounceDur time.Duration
	tick        time.Duration
	out         chan Reload
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must be quiet before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDur = d }
}

// WithLoader overrides the ingestion function.
func WithLoader(fn LoadFunc) Option {
	return func(w *Watcher) { w.load = fn }
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:     fw,
		path:        abs,
		dir:         filepath.Dir(abs),
		load:        ingest.LoadFile,
		debounceDur: 300 * time.Millisecond,
		tick:        50 * time.Millisecond,
		out:         make(chan Reload, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Reloads delivers reload outcomes. If the consumer falls behind only the
// newest outcome is kept.
func (w *Watcher) Reloads() <-chan Reload { return w.out }

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Unlock()
		return err
	}
	w.running = true
	w.mu.Unlock()

	logging.Watch("watching %s", w.path)
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit. It is safe to
// call Stop on a watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.WatchDebug("stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	case event.Op&fsnotify.Remove != 0:
		// Nothing to load; a later create brings it back.
		logging.WatchDebug("%s removed", w.path)
		return
	default:
		return
	}
	logging.WatchDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.pending = time.Now()
	w.stats.Events++
	w.stats.LastEventTime = w.pending
	w.stats.LastEventType = eventType
	w.mu.Unlock()
}

// processPending reloads once the file has been quiet for debounceDur.
func (w *Watcher) processPending() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	rec, err := w.load(w.path)
	r := Reload{Path: w.path, Record: rec, Err: err}

	w.mu.Lock()
	if err != nil {
		r.Record = nil
		w.stats.Failures++
	} else {
		w.stats.Reloads++
	}
	w.mu.Unlock()

	if err != nil {
		logging.Get(logging.CategoryWatch).Warn("reload of %s rejected: %v", w.path, err)
	} else {
		logging.Watch("reloaded %s", w.path)
		logging.Audit().Log(logging.AuditEvent{
			EventType: logging.AuditRecordReloaded,
			Category:  logging.CategoryWatch,
			Target:    w.path,
			Success:   true,
		})
	}
	w.publish(r)
}

// publish delivers r, dropping a stale undelivered outcome if needed.
func (w *Watcher) publish(r Reload) {
	for {
		select {
		case w.out <- r:
			return
		default:
		}
		select {
		case <-w.out:
		default:
		}
	}
}
