package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/scrollshot/internal/logging"
)

const (
	// DefaultPrefix marks every temp file the tracker creates. Sweeping
	// identifies files by this prefix alone.
	DefaultPrefix = "scrollshot-"

	// DefaultTTL is how long a temp file may live before it is swept.
	DefaultTTL = 24 * time.Hour
)

// Tracker owns the temp files created for persisted screenshots.
//
// Register, Unregister and Sweep are serialized by one mutex so a sweep never
// races with a file being added or removed.
type Tracker struct {
	mu     sync.Mutex
	dir    string
	prefix string
	files  map[string]time.Time
	now    func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source used for file ages.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker for dir. An empty dir means os.TempDir and an
// empty prefix means DefaultPrefix.
func NewTracker(dir, prefix string, opts ...TrackerOption) *Tracker {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	t := &Tracker{
		dir:    dir,
		prefix: prefix,
		files:  make(map[string]time.Time),
		now:    time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Dir returns the directory the tracker writes to and sweeps.
func (t *Tracker) Dir() string { return t.dir }

// Prefix returns the file name prefix.
func (t *Tracker) Prefix() string { return t.prefix }

// Register starts tracking path.
func (t *Tracker) Register(path string) {
	t.mu.Lock()
	t.files[path] = t.now()
	t.mu.Unlock()
}

// Unregister stops tracking path without touching the file.
func (t *Tracker) Unregister(path string) {
	t.mu.Lock()
	delete(t.files, path)
	t.mu.Unlock()
}

// Tracked returns the tracked paths in sorted order.
func (t *Tracker) Tracked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.files))
	for p := range t.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Create writes data to a new prefixed file named after the current time in
// milliseconds and registers it. ext includes the leading dot.
func (t *Tracker) Create(ext string, data []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(t.dir, 0o750); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTempFile, err)
	}

	base := t.prefix + strconv.FormatInt(t.now().UnixMilli(), 10)
	for attempt := 0; ; attempt++ {
		name := base + ext
		if attempt > 0 {
			name = base + "-" + strconv.Itoa(attempt) + ext
		}
		path := filepath.Join(t.dir, name)

		// #nosec G304 -- name is built from the fixed prefix and a timestamp
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) && attempt < 100 {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrTempFile, err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("%w: %w", ErrTempFile, err)
		}
		t.files[path] = t.now()
		return path, nil
	}
}

// Remove deletes a tracked file immediately. A missing file is not an error.
func (t *Tracker) Remove(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	delete(t.files, path)
	return nil
}

// SweepReport describes one sweep.
type SweepReport struct {
	Removed []string         // files deleted by this sweep
	Missing int              // tracked files that were already gone
	Failed  map[string]error // files that could not be deleted, retried next sweep
}

// Err joins the per-file failures, or returns nil.
func (r SweepReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	paths := make([]string, 0, len(r.Failed))
	for p := range r.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	errs := make([]error, 0, len(paths))
	for _, p := range paths {
		errs = append(errs, fmt.Errorf("%s: %w", p, r.Failed[p]))
	}
	return fmt.Errorf("%w: %w", ErrSweep, errors.Join(errs...))
}

// Sweep deletes tracked files and prefixed files in the directory that are
// older than ttl. Tracked files age from registration, untracked ones from
// their modification time. A ttl <= 0 means DefaultTTL.
func (t *Tracker) Sweep(ttl time.Duration) SweepReport {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	report := SweepReport{Failed: make(map[string]error)}

	for path, created := range t.files {
		if now.Sub(created) < ttl {
			continue
		}
		t.removeLocked(path, &report)
	}

	entries, err := os.ReadDir(t.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			report.Failed[t.dir] = err
		}
		t.logSweep(report)
		return report
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), t.prefix) {
			continue
		}
		path := filepath.Join(t.dir, e.Name())
		if _, tracked := t.files[path]; tracked {
			continue
		}
		if _, failed := report.Failed[path]; failed {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Vanished between ReadDir and Info: already clean.
			continue
		}
		if now.Sub(info.ModTime()) < ttl {
			continue
		}
		t.removeLocked(path, &report)
	}

	t.logSweep(report)
	return report
}

func (t *Tracker) removeLocked(path string, report *SweepReport) {
	err := os.Remove(path)
	switch {
	case err == nil:
		report.Removed = append(report.Removed, path)
		delete(t.files, path)
	case errors.Is(err, fs.ErrNotExist):
		report.Missing++
		delete(t.files, path)
	default:
		report.Failed[path] = err
	}
}

func (t *Tracker) logSweep(r SweepReport) {
	log := logging.Logger()
	if len(r.Removed) > 0 || r.Missing > 0 {
		log.Debug("persist: swept temp files", "dir", t.dir, "removed", len(r.Removed), "missing", r.Missing)
	}
	for path, err := range r.Failed {
		log.Warn("persist: sweep failed", "path", path, "err", err)
	}
}

// Run sweeps every interval until ctx is done. A panic inside a sweep is
// logged and the loop keeps going.
func (t *Tracker) Run(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.safeSweep(ttl)
		}
	}
}

// Start runs Run in a goroutine and returns a function that stops it and
// waits for it to exit.
func (t *Tracker) Start(ctx context.Context, interval, ttl time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.Run(ctx, interval, ttl)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (t *Tracker) safeSweep(ttl time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("persist: panic in sweep", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	t.Sweep(ttl)
}
