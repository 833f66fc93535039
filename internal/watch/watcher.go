// Package watch imports files dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay unchanged before it is imported.
const DefaultSettle = 500 * time.Millisecond

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Ingester runs one extraction.
type Ingester interface {
	Ingest(ctx context.Context, req engine.IngestRequest) (*engine.IngestResult, error)
}

// Resolver picks the extractor for a file name, or nil to skip it.
type Resolver func(name string) extract.Extractor

// Config configures a Watcher.
type Config struct {
	Dir         string
	CompanyID   string
	InitiatorID string
	Settle      time.Duration
}

// Watcher ingests every supported file written to Dir. Imported files move
// to Dir/processed, files whose job could not be created move to Dir/failed.
type Watcher struct {
	ingester Ingester
	resolve  Resolver
	logger   *slog.Logger
	pending  map[string]*time.Timer
	ready    chan string
	done     chan struct{}
	cfg      Config
	mu       sync.Mutex
	stopOnce sync.Once
}

// New creates a Watcher.
func New(ingester Ingester, resolve Resolver, cfg Config) *Watcher {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return &Watcher{
		ingester: ingester,
		resolve:  resolve,
		cfg:      cfg,
		logger:   slog.Default().With("component", "watch", "dir", cfg.Dir),
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 64),
		done:     make(chan struct{}),
	}
}

// Run imports files already in the directory, then watches it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopOnce.Do(func() { close(w.done) })

	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(w.cfg.Dir, sub), 0o750); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Dir, err)
	}

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.cfg.Dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.schedule(filepath.Join(w.cfg.Dir, entry.Name()))
		}
	}

	w.logger.Info("Watching directory")
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		case path := <-w.ready:
			if err := w.HandleFile(ctx, path); err != nil {
				w.logger.Error("Failed to import file", "file", path, "error", err)
			}
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.cfg.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.cfg.Settle, func() { w.fire(path) })
}

// fire hands a settled path to Run. It gives up once Run has returned.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case w.ready <- path:
	case <-w.done:
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// HandleFile imports one file. Unsupported files are left in place.
func (w *Watcher) HandleFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil
	}

	name := filepath.Base(path)
	extractor := w.resolve(name)
	if extractor == nil {
		w.logger.Debug("Skipping unsupported file", "file", name)
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the watched directory
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := w.ingester.Ingest(ctx, engine.IngestRequest{
		Extractor:   extractor,
		Input:       extract.Input{Files: []extract.File{{Name: name, Data: data}}},
		Source:      model.SourceWatchedDir,
		CompanyID:   w.cfg.CompanyID,
		InitiatorID: w.cfg.InitiatorID,
	})
	if err != nil {
		if moveErr := w.move(path, failedDir); moveErr != nil {
			w.logger.Warn("Failed to move file", "file", name, "error", moveErr)
		}
		return err
	}

	w.logger.Info("Imported file",
		"file", name,
		"job_id", result.Job.ID,
		"status", result.Job.Status,
		"records", len(result.Preview))
	return w.move(path, processedDir)
}

// move renames path into sub, prefixing a timestamp when the name is taken.
func (w *Watcher) move(path, sub string) error {
	target := filepath.Join(w.cfg.Dir, sub, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(w.cfg.Dir, sub, time.Now().UTC().Format("20060102T150405")+"-"+filepath.Base(path))
	}
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("failed to move %s: %w", path, err)
	}
	return nil
}
