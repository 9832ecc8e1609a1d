// Command scrollshot stitches a captured sequence of scrolling screenshots
// and puts the result on the clipboard.
//
// Usage:
//
//	scrollshot -manifest capture.yaml [-config scrollshot.yaml] [-out page.png] [-mode dual]
//	scrollshot -sweep [-config scrollshot.yaml]
//	scrollshot -sweep-watch [-config scrollshot.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/scrollshot"
	"github.com/gogpu/scrollshot/diag"
	"github.com/gogpu/scrollshot/internal/config"
	"github.com/gogpu/scrollshot/persist"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("scrollshot: %v", err)
	}
}

// run executes the command with args and writes its summary to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("scrollshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML configuration file")
		manifest   = fs.String("manifest", "", "YAML capture manifest")
		out        = fs.String("out", "", "also write the result to this file")
		mode       = fs.String("mode", "", "persistence mode: image or dual (overrides config)")
		clipboard  = fs.String("clipboard", "", "clipboard backend: system, memory or none (overrides config)")
		sweep      = fs.Bool("sweep", false, "delete expired temp files and exit")
		sweepWatch = fs.Bool("sweep-watch", false, "sweep expired temp files periodically until interrupted")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	scrollshot.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}
	if *mode != "" {
		cfg.Persist.Mode = *mode
	}
	if *clipboard != "" {
		cfg.Persist.Clipboard = *clipboard
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tracker := persist.NewTracker(cfg.Persist.TempDir, cfg.Persist.Prefix)
	p := message.NewPrinter(language.English)

	switch {
	case *sweepWatch:
		p.Fprintf(stdout, "sweeping %s every %v\n", tracker.Dir(), cfg.Persist.SweepInterval)
		tracker.Run(ctx, cfg.Persist.SweepInterval, cfg.Persist.TTL)
		return nil
	case *sweep:
		report := tracker.Sweep(cfg.Persist.TTL)
		p.Fprintf(stdout, "removed %d expired files from %s\n", len(report.Removed), tracker.Dir())
		return report.Err()
	case *manifest == "":
		fs.Usage()
		return errors.New("-manifest is required")
	}

	m, err := config.LoadManifest(*manifest)
	if err != nil {
		return err
	}
	req, err := m.Request(nil)
	if err != nil {
		return err
	}

	sink, err := newSink(cfg, tracker)
	if err != nil {
		return err
	}
	rec, closeRec, err := newRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeRec()

	s, err := newStitcher(cfg, sink, rec)
	if err != nil {
		return err
	}
	result, err := s.Stitch(ctx, req)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, result.Image, 0o644); err != nil { //nolint:gosec // output is user-provided intentionally
			return fmt.Errorf("write %s: %w", *out, err)
		}
	}
	printSummary(p, stdout, len(req.Segments), result, *out)
	return nil
}

// newSink builds the persistence sink for the configured clipboard backend.
func newSink(cfg *config.Config, tracker *persist.Tracker) (*persist.Sink, error) {
	mode, err := persist.ParseMode(cfg.Persist.Mode)
	if err != nil {
		return nil, err
	}

	var (
		images persist.ImageClipboard
		files  persist.PlatformClipboardFileWriter
	)
	switch cfg.Persist.Clipboard {
	case "system":
		sys := persist.NewSystemClipboard(persist.WithCommandTimeout(cfg.Persist.CommandTimeout))
		images = sys
		files = persist.NewFileWriter(runtime.GOOS, persist.ExecRunner, sys)
	case "memory":
		mem := &persist.MemoryClipboard{}
		images, files = mem, mem
	case "none":
		images, files = persist.Discard{}, persist.Discard{}
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", cfg.Persist.Clipboard)
	}

	return persist.NewSink(
		persist.WithMode(mode),
		persist.WithImageClipboard(images),
		persist.WithFileWriter(files),
		persist.WithTracker(tracker),
		persist.WithTTL(cfg.Persist.TTL),
	), nil
}

// newRecorder opens the SQLite recorder when configured, or keeps records in
// memory.
func newRecorder(cfg *config.Config) (diag.Recorder, func(), error) {
	if cfg.Diagnostics.SQLitePath == "" {
		return diag.NewMemory(cfg.Diagnostics.MemoryRecords), func() {}, nil
	}
	db, err := diag.OpenSQLite(cfg.Diagnostics.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

func newStitcher(cfg *config.Config, sink *persist.Sink, rec diag.Recorder) (*scrollshot.Stitcher, error) {
	interp, ok := scrollshot.ParseInterpolation(cfg.Stitch.Interpolation)
	if !ok {
		return nil, fmt.Errorf("unknown interpolation %q", cfg.Stitch.Interpolation)
	}
	strategy, ok := scrollshot.ParseStrategy(cfg.Stitch.Strategy)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", cfg.Stitch.Strategy)
	}
	return scrollshot.NewStitcher(
		scrollshot.WithBatchSize(cfg.Stitch.BatchSize),
		scrollshot.WithDirectLimits(cfg.Stitch.DirectMaxSegments, cfg.Stitch.DirectMaxHeight),
		scrollshot.WithScrollbarWidth(*cfg.Stitch.ScrollbarWidth),
		scrollshot.WithCompositeTimeout(cfg.Stitch.CompositeTimeout),
		scrollshot.WithInterpolation(interp),
		scrollshot.WithStrategy(strategy),
		scrollshot.WithSink(sink),
		scrollshot.WithRecorder(rec),
	), nil
}

func printSummary(p *message.Printer, w io.Writer, segments int, out *scrollshot.Output, path string) {
	if out.Fallback {
		p.Fprintf(w, "fallback: delivered the first segment (%v)\n", out.Cause)
	} else {
		p.Fprintf(w, "stitched %d segments (%s, %d layers)\n", segments, out.Strategy, len(out.Layers))
	}
	p.Fprintf(w, "image: %d x %d px %s, %d bytes\n", out.Width, out.Height, out.Format, len(out.Image))

	if r := out.Persistence; r != nil {
		switch {
		case r.FilePath != "" && !r.ImageOnly:
			p.Fprintf(w, "clipboard: image and file %s\n", r.FilePath)
		case r.Success:
			p.Fprintf(w, "clipboard: image only\n")
		default:
			p.Fprintf(w, "clipboard: nothing written\n")
		}
	}
	if path != "" {
		p.Fprintf(w, "wrote %s\n", path)
	}
	for _, warn := range out.Warnings {
		p.Fprintf(w, "warning: %s\n", warn)
	}
}
