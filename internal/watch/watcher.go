package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"cmdetect/internal/batch"
	"cmdetect/internal/config"
	"cmdetect/internal/fileutil"
	"cmdetect/internal/logging"
	"cmdetect/internal/report"
)

// ErrLocked is returned when another process already watches the directory.
var ErrLocked = errors.New("directory is already being watched")

// Processor runs detection on one input.
type Processor interface {
	Process(ctx context.Context, in batch.Input) batch.Outcome
}

// Options controls which files are picked up and where results go.
type Options struct {
	Pattern  string
	Suffix   string
	Settle   time.Duration
	LockPath string
	// Media treats matching files as recordings instead of logs.
	Media bool
}

// OptionsFromConfig builds Options for dir from the [watch] section.
func OptionsFromConfig(cfg *config.Config, dir string) Options {
	return Options{
		Pattern:  cfg.Watch.Pattern,
		Suffix:   cfg.Watch.Suffix,
		Settle:   cfg.WatchSettle(),
		LockPath: cfg.LockPath(dir),
	}
}

// Watcher monitors one directory.
type Watcher struct {
	dir       string
	opts      Options
	processor Processor
	logger    *slog.Logger
	lock      *flock.Flock

	mu      sync.Mutex
	pending map[string]*pendingFile
	settled chan string
	done    chan struct{}
}

type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New validates dir and constructs a Watcher.
func New(dir string, opts Options, processor Processor, logger *slog.Logger) (*Watcher, error) {
	if processor == nil {
		return nil, errors.New("watch: processor is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory %s: not a directory", dir)
	}
	if _, err := filepath.Match(opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("watch pattern %q: %w", opts.Pattern, err)
	}
	if strings.TrimSpace(opts.Suffix) == "" {
		return nil, errors.New("watch: result suffix is required")
	}
	if opts.LockPath == "" {
		opts.LockPath = filepath.Join(dir, ".cmdetect.lock")
	}
	return &Watcher{
		dir:       dir,
		opts:      opts,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "watch"),
		lock:      flock.New(opts.LockPath),
		pending:   make(map[string]*pendingFile),
		settled:   make(chan string, 64),
		done:      make(chan struct{}),
	}, nil
}

// Run watches until ctx is cancelled. Files already present without an
// up-to-date result are processed first.
func (w *Watcher) Run(ctx context.Context) error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, w.opts.LockPath)
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	defer w.stopTimers()

	w.logger.Info("watching directory",
		logging.String("dir", w.dir),
		logging.String("pattern", w.opts.Pattern),
		logging.Duration("settle", w.opts.Settle),
	)
	w.scanExisting()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", logging.Error(err))
		case path := <-w.settled:
			w.process(ctx, path)
		}
	}
}

// Matches reports whether name is a file the watcher should process.
func (w *Watcher) Matches(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, w.opts.Suffix) {
		return false
	}
	ok, err := filepath.Match(w.opts.Pattern, base)
	return err == nil && ok
}

// ResultPath returns where the document for source is written.
func (w *Watcher) ResultPath(source string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + w.opts.Suffix
}

func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("initial scan failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !w.Matches(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.upToDate(path) {
			continue
		}
		w.startSettling(path)
	}
}

func (w *Watcher) upToDate(source string) bool {
	src, err := os.Stat(source)
	if err != nil {
		return false
	}
	dst, err := os.Stat(w.ResultPath(source))
	if err != nil {
		return false
	}
	return !dst.ModTime().Before(src.ModTime())
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.Matches(event.Name) {
		return
	}
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancelPending(event.Name)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.startSettling(event.Name)
	}
}

func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		delete(w.pending, path)
		return
	}
	pending := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	pending.timer = time.AfterFunc(w.opts.Settle, func() { w.checkSettled(path) })
	w.pending[path] = pending
}

func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	pending, exists := w.pending[path]
	if !exists {
		w.mu.Unlock()
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}
	if info.Size() != pending.size || !info.ModTime().Equal(pending.modTime) {
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.opts.Settle, func() { w.checkSettled(path) })
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case w.settled <- path:
	case <-w.done:
	}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopTimers() {
	close(w.done)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, pending := range w.pending {
		pending.timer.Stop()
	}
	clear(w.pending)
}

func (w *Watcher) process(ctx context.Context, path string) {
	out := w.processor.Process(ctx, batch.Classify(path, w.opts.Media))
	if out.Err != nil {
		logging.WarnWithContext(w.logger, "watched file failed", "watch_process_failed",
			"no result written for this file",
			logging.String("path", path), logging.Error(out.Err))
		return
	}
	target := w.ResultPath(path)
	err := fileutil.WriteAtomic(target, 0o644, func(wr io.Writer) error {
		return report.Write(wr, report.FormatJSON, out.Document)
	})
	if err != nil {
		w.logger.Error("write result failed", logging.String("path", target), logging.Error(err))
		return
	}
	w.logger.Info("result written",
		logging.String("path", target),
		logging.Int("cm_blocks", len(out.Document.Blocks)),
	)
}
