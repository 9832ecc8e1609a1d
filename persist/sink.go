package persist

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	img "github.com/gogpu/scrollshot/internal/image"
	"github.com/gogpu/scrollshot/internal/logging"
)

// Mode selects which destinations a Sink writes.
type Mode uint8

const (
	// ModeImage writes the image clipboard only.
	ModeImage Mode = iota

	// ModeDual writes the image clipboard, a temp file, and registers the
	// temp file on the platform clipboard.
	ModeDual
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeImage:
		return "image"
	case ModeDual:
		return "dual"
	default:
		return "unknown"
	}
}

// ParseMode parses "image" or "dual".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "image", "":
		return ModeImage, nil
	case "dual", "file":
		return ModeDual, nil
	default:
		return ModeImage, fmt.Errorf("persist: unknown mode %q", s)
	}
}

// State is a step of the persistence state machine.
type State uint8

// States in the order a successful ModeDual run visits them. Any state may
// move straight to StateDone.
const (
	StateIdle State = iota
	StateEncoding
	StateWritingClipboardImage
	StateWritingTempFile
	StateRegisteringFile
	StateDone
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateEncoding:
		return "Encoding"
	case StateWritingClipboardImage:
		return "WritingClipboardImage"
	case StateWritingTempFile:
		return "WritingTempFile"
	case StateRegisteringFile:
		return "RegisteringFileOnPlatformClipboard"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Payload is an encoded image ready to persist. An empty Format is detected
// from the data.
type Payload struct {
	Data   []byte
	Format string
}

// Result describes what was actually written.
type Result struct {
	Success   bool
	FilePath  string
	Warning   string
	ImageOnly bool    // no file reference made it onto the clipboard
	SweepErr  error   // stale temp files the opportunistic sweep could not delete
	States    []State // states visited, ending with StateDone
}

// AddWarning appends a warning, separating multiple warnings with "; ".
func (r *Result) AddWarning(w string) {
	if w == "" {
		return
	}
	if r.Warning == "" {
		r.Warning = w
		return
	}
	r.Warning += "; " + w
}

// Sink persists encoded images.
type Sink struct {
	mode      Mode
	clipboard ImageClipboard
	files     PlatformClipboardFileWriter
	tracker   *Tracker
	ttl       time.Duration
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithMode sets the persistence mode.
func WithMode(m Mode) SinkOption {
	return func(s *Sink) { s.mode = m }
}

// WithImageClipboard sets the image clipboard.
func WithImageClipboard(c ImageClipboard) SinkOption {
	return func(s *Sink) { s.clipboard = c }
}

// WithFileWriter sets the platform file clipboard writer.
func WithFileWriter(w PlatformClipboardFileWriter) SinkOption {
	return func(s *Sink) { s.files = w }
}

// WithTracker sets the temp file tracker.
func WithTracker(t *Tracker) SinkOption {
	return func(s *Sink) { s.tracker = t }
}

// WithTTL sets the temp file lifetime used by the opportunistic sweep.
func WithTTL(ttl time.Duration) SinkOption {
	return func(s *Sink) { s.ttl = ttl }
}

// NewSink creates a sink. By default it writes the system image clipboard
// only; temp files go to os.TempDir with DefaultPrefix.
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{
		mode: ModeImage,
		ttl:  DefaultTTL,
	}
	for _, o := range opts {
		o(s)
	}
	if s.tracker == nil {
		s.tracker = NewTracker("", DefaultPrefix)
	}
	if s.clipboard == nil {
		s.clipboard = NewSystemClipboard()
	}
	if s.files == nil {
		text, _ := s.clipboard.(TextClipboard)
		s.files = NewFileWriter(runtime.GOOS, ExecRunner, text)
	}
	return s
}

// Mode returns the sink's mode.
func (s *Sink) Mode() Mode { return s.mode }

// Tracker returns the sink's temp file tracker.
func (s *Sink) Tracker() *Tracker { return s.tracker }

// persistRun carries the state of one Persist call.
type persistRun struct {
	payload Payload
	result  Result
	imageOK bool
	err     error
}

// Persist writes p to the configured destinations.
//
// The image clipboard write comes first. In ModeImage its failure fails the
// call. In ModeDual it becomes a warning and the temp file still gets
// written. Temp file and file clipboard failures never fail the call; they
// downgrade the result to image-only with a warning.
func (s *Sink) Persist(ctx context.Context, p Payload) (Result, error) {
	run := &persistRun{payload: p}
	state := StateIdle
	for state != StateDone {
		run.result.States = append(run.result.States, state)
		state = s.step(ctx, state, run)
	}
	run.result.States = append(run.result.States, StateDone)

	run.result.Success = run.err == nil && (run.imageOK || run.result.FilePath != "")
	if run.result.FilePath == "" {
		run.result.ImageOnly = true
	}

	logging.Logger().Info("persist: done",
		"mode", s.mode.String(),
		"success", run.result.Success,
		"file", run.result.FilePath,
		"warning", run.result.Warning)

	if run.err != nil {
		return run.result, run.err
	}
	if !run.result.Success {
		return run.result, ErrClipboardImage
	}
	return run.result, nil
}

// step executes one state and returns the next.
func (s *Sink) step(ctx context.Context, state State, run *persistRun) State {
	log := logging.Logger()
	log.Debug("persist: state", "state", state.String())

	switch state {
	case StateIdle:
		return StateEncoding

	case StateEncoding:
		if len(run.payload.Data) == 0 {
			run.err = ErrNoPayload
			return StateDone
		}
		if run.payload.Format == "" {
			_, format, err := img.DecodeConfig(run.payload.Data)
			if err != nil {
				run.err = fmt.Errorf("persist: detect format: %w", err)
				return StateDone
			}
			run.payload.Format = format
		}
		return StateWritingClipboardImage

	case StateWritingClipboardImage:
		if err := s.clipboard.WriteImage(ctx, run.payload.Data, run.payload.Format); err != nil {
			log.Warn("persist: image clipboard write failed", "err", err)
			if s.mode == ModeImage {
				run.err = fmt.Errorf("%w: %w", ErrClipboardImage, err)
				return StateDone
			}
			run.result.AddWarning("image clipboard unavailable: " + err.Error())
			return StateWritingTempFile
		}
		run.imageOK = true
		if s.mode == ModeImage {
			return StateDone
		}
		return StateWritingTempFile

	case StateWritingTempFile:
		if report := s.tracker.Sweep(s.ttl); report.Err() != nil {
			log.Warn("persist: opportunistic sweep incomplete", "err", report.Err())
			run.result.SweepErr = report.Err()
		}
		path, err := s.tracker.Create(img.Extension(run.payload.Format), run.payload.Data)
		if err != nil {
			log.Warn("persist: temp file write failed", "err", err)
			run.result.AddWarning("temp file not written: " + err.Error())
			run.result.ImageOnly = true
			return StateDone
		}
		run.result.FilePath = path
		return StateRegisteringFile

	case StateRegisteringFile:
		if err := s.files.WriteFile(ctx, run.result.FilePath); err != nil {
			werr := fmt.Errorf("%w: %w", ErrClipboardRegistration, err)
			log.Warn("persist: file clipboard registration failed", "path", run.result.FilePath, "err", err)
			run.result.AddWarning("saved as image only: " + werr.Error())
			run.result.ImageOnly = true
		}
		return StateDone

	default:
		run.err = errors.New("persist: invalid state " + state.String())
		return StateDone
	}
}
