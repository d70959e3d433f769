// Package engine ties the rule store, analyzer, and reload supervisor
// together behind one façade.
//
// The active snapshot sits behind a single atomic reference. Analyses
// capture the reference once at call start and complete against it even if
// a reload publishes a newer snapshot mid-flight. Explicit reloads, watcher
// events, and timer polls all funnel through the same load-and-swap routine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tomat0w0/bid-anti-corruption/pkg/analysis"
	"github.com/tomat0w0/bid-anti-corruption/pkg/log"
	"github.com/tomat0w0/bid-anti-corruption/pkg/postcheck"
	"github.com/tomat0w0/bid-anti-corruption/pkg/ruleset"
)

// ErrNoSnapshot is returned by [Engine.Analyze] before any rule source has
// been accepted.
var ErrNoSnapshot = errors.New("no rule set loaded")

// ReloadResult is the outcome of one load-and-swap attempt.
type ReloadResult struct {
	// Version is the version of the snapshot in force after the attempt.
	Version uint64 `json:"version"`
	// Accepted reports whether a new snapshot was published.
	Accepted bool `json:"accepted"`
	// NoChange reports that the source checksum matched the active
	// snapshot, so publication was skipped.
	NoChange bool `json:"no_change"`
	// Errors lists the violations of a rejected load.
	Errors []error `json:"-"`
}

// Engine owns the active rule set snapshot and runs analyses against it.
// It is safe for concurrent use; the hot analysis path takes no locks.
type Engine struct {
	loader   *ruleset.Loader
	analyzer *analysis.Analyzer
	watcher  *fsnotify.Watcher

	snapshot atomic.Pointer[ruleset.Snapshot]
	analyses atomic.Uint64
	findings atomic.Uint64

	mu        sync.Mutex
	listeners []chan<- Event

	pollInterval time.Duration
	closeOnce    sync.Once
	done         chan struct{}
}

// Opt is a functional option for configuring an [Engine].
type Opt func(*Engine)

// WithLoader sets a custom rule set loader.
func WithLoader(l *ruleset.Loader) Opt {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithAnalyzer sets a custom analyzer.
func WithAnalyzer(a *analysis.Analyzer) Opt {
	return func(e *Engine) {
		e.analyzer = a
	}
}

// WithPollInterval enables timer-driven polls of the watched rule source.
// Zero disables polling.
func WithPollInterval(d time.Duration) Opt {
	return func(e *Engine) {
		e.pollInterval = d
	}
}

// New creates an [Engine]. No snapshot is active until the first accepted
// load.
func New(opts ...Opt) (*Engine, error) {
	loader, err := ruleset.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	e := &Engine{
		loader:   loader,
		analyzer: analysis.New(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// LoadOrReload parses the source and atomically swaps the active snapshot
// on success. A rejected load keeps the previous snapshot in force; a
// checksum no-op skips publication. The attempt is broadcast to
// subscribers either way.
func (e *Engine) LoadOrReload(ctx context.Context, data []byte) ReloadResult {
	snap, err := e.loader.Load(data)

	var result ReloadResult

	switch {
	case errors.Is(err, ruleset.ErrNoChange):
		result = ReloadResult{Version: e.version(), NoChange: true}

	case err != nil:
		result = ReloadResult{Version: e.version(), Errors: flatten(err)}

	default:
		e.snapshot.Store(snap)
		result = ReloadResult{Version: snap.Version(), Accepted: true}
	}

	logger := log.WithContext(ctx)

	switch {
	case result.Accepted:
		logger.InfoContext(ctx, "rule set published",
			slog.Uint64("version", result.Version),
			slog.Int("rules", e.Stats().RuleCount),
		)

	case result.NoChange:
		logger.DebugContext(ctx, "rule source unchanged",
			slog.Uint64("version", result.Version),
		)

	default:
		logger.ErrorContext(ctx, "rule set rejected",
			slog.Uint64("active_version", result.Version),
			slog.Int("violations", len(result.Errors)),
		)
	}

	e.broadcast(NewEventReload(result))

	return result
}

// LoadFile loads a rule source from disk through the same load-and-swap
// routine.
func (e *Engine) LoadFile(ctx context.Context, path string) (ReloadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReloadResult{Version: e.version()}, fmt.Errorf("read rule source: %w", err)
	}

	return e.LoadOrReload(ctx, data), nil
}

// Analyze runs the active snapshot against the document text. It captures
// the snapshot reference once, so an in-flight analysis is unaffected by
// concurrent reloads.
func (e *Engine) Analyze(ctx context.Context, text string, docCtx postcheck.Context) (*analysis.Report, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	report := e.analyzer.Analyze(ctx, snap, text, docCtx)

	e.analyses.Add(1)
	e.findings.Add(uint64(len(report.Findings)))

	return report, nil
}

// Snapshot returns the active snapshot, or nil before the first accepted
// load.
func (e *Engine) Snapshot() *ruleset.Snapshot {
	return e.snapshot.Load()
}

// Stats returns the active snapshot's rule statistics, or zero statistics
// before the first accepted load.
func (e *Engine) Stats() ruleset.Stats {
	snap := e.snapshot.Load()
	if snap == nil {
		return ruleset.Stats{}
	}

	return snap.Stats()
}

// AnalysisCount returns the number of completed analyses.
func (e *Engine) AnalysisCount() uint64 {
	return e.analyses.Load()
}

// FindingCount returns the total number of findings emitted.
func (e *Engine) FindingCount() uint64 {
	return e.findings.Load()
}

// Subscribe registers a channel to receive reload and watch events. The
// channel must be serviced; broadcasts block on full channels.
func (e *Engine) Subscribe(ch chan<- Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners = append(e.listeners, ch)
}

func (e *Engine) broadcast(evt Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.listeners {
		ch <- evt
	}
}

// Watch reloads the rule source whenever it changes on disk, and on a timer
// poll when one is configured. It blocks until ctx is canceled or the
// engine is closed. Outcomes are delivered via [Engine.Subscribe].
func (e *Engine) Watch(ctx context.Context, path string) error {
	if e.watcher == nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create fsnotify watcher: %w", err)
		}

		e.watcher = watcher
	}

	// Watch the directory: editors typically replace the file, which drops
	// a watch on the file itself.
	dir := filepath.Dir(path)

	err := e.watcher.Add(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var poll <-chan time.Time

	if e.pollInterval > 0 {
		ticker := time.NewTicker(e.pollInterval)
		defer ticker.Stop()

		poll = ticker.C
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-e.done:
			return nil

		case evt, ok := <-e.watcher.Events:
			if !ok {
				return nil
			}

			if evt.Has(fsnotify.Chmod) {
				continue
			}

			name, err := filepath.Abs(evt.Name)
			if err != nil || name != abs {
				continue
			}

			e.reloadFromDisk(ctx, path)

		case <-poll:
			e.reloadFromDisk(ctx, path)

		case err, ok := <-e.watcher.Errors:
			if !ok {
				return nil
			}

			e.broadcast(NewEventWatchError(err))
		}
	}
}

func (e *Engine) reloadFromDisk(ctx context.Context, path string) {
	_, err := e.LoadFile(ctx, path)
	if err != nil {
		log.WithContext(ctx).ErrorContext(ctx, "reload rule source",
			slog.String("path", path),
			slog.Any("error", err),
		)
		e.broadcast(NewEventWatchError(err))
	}
}

// Close stops the watcher and unblocks any [Engine.Watch] call.
func (e *Engine) Close() error {
	var err error

	e.closeOnce.Do(func() {
		close(e.done)

		if e.watcher != nil {
			err = e.watcher.Close()
		}
	})

	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}

func (e *Engine) version() uint64 {
	snap := e.snapshot.Load()
	if snap == nil {
		return 0
	}

	return snap.Version()
}

func flatten(err error) []error {
	var loadErr *ruleset.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Errs
	}

	return []error{err}
}
