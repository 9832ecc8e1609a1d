package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	img "github.com/gogpu/scrollshot/internal/image"
)

// defaultCommandTimeout bounds every clipboard shell-out.
const defaultCommandTimeout = 10 * time.Second

// errNoClipboardTool is returned when neither wl-copy nor xclip is installed.
var errNoClipboardTool = errors.New("persist: no clipboard tool found (install wl-clipboard or xclip)")

// SystemClipboard talks to the operating system clipboard through the
// platform's command line tools.
type SystemClipboard struct {
	goos     string
	run      Runner
	lookPath func(string) (string, error)
	getenv   func(string) string
	timeout  time.Duration
	staging  *Tracker
}

// ClipboardOption configures a SystemClipboard.
type ClipboardOption func(*SystemClipboard)

// WithGOOS overrides the target platform. Mostly useful in tests.
func WithGOOS(goos string) ClipboardOption {
	return func(c *SystemClipboard) { c.goos = goos }
}

// WithRunner replaces the command runner.
func WithRunner(run Runner) ClipboardOption {
	return func(c *SystemClipboard) { c.run = run }
}

// WithLookPath replaces exec.LookPath for tool detection.
func WithLookPath(lookPath func(string) (string, error)) ClipboardOption {
	return func(c *SystemClipboard) { c.lookPath = lookPath }
}

// WithGetenv replaces os.Getenv for display server detection.
func WithGetenv(getenv func(string) string) ClipboardOption {
	return func(c *SystemClipboard) { c.getenv = getenv }
}

// WithCommandTimeout bounds each shell-out.
func WithCommandTimeout(d time.Duration) ClipboardOption {
	return func(c *SystemClipboard) { c.timeout = d }
}

// WithStaging sets the tracker used for the staging files macOS and Windows
// need to load an image onto the clipboard.
func WithStaging(t *Tracker) ClipboardOption {
	return func(c *SystemClipboard) { c.staging = t }
}

// NewSystemClipboard creates a clipboard for the running platform.
func NewSystemClipboard(opts ...ClipboardOption) *SystemClipboard {
	c := &SystemClipboard{
		goos:     runtime.GOOS,
		run:      ExecRunner,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		timeout:  defaultCommandTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.staging == nil {
		c.staging = NewTracker("", DefaultPrefix+"clip-")
	}
	return c
}

// WriteImage implements ImageClipboard.
func (c *SystemClipboard) WriteImage(ctx context.Context, data []byte, format string) error {
	if len(data) == 0 {
		return ErrNoPayload
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch c.goos {
	case "darwin", "windows":
		return c.writeStagedImage(ctx, data, format)
	default:
		name, args, err := c.unixImageCommand(img.MIMEType(format))
		if err != nil {
			return err
		}
		_, err = c.run(ctx, data, name, args...)
		return err
	}
}

// writeStagedImage writes data to a staging file and loads it from there,
// since osascript and PowerShell cannot read image bytes from stdin.
func (c *SystemClipboard) writeStagedImage(ctx context.Context, data []byte, format string) error {
	path, err := c.staging.Create(img.Extension(format), data)
	if err != nil {
		return err
	}
	defer func() { _ = c.staging.Remove(path) }()

	if err := ValidatePath(path); err != nil {
		return err
	}

	if c.goos == "darwin" {
		script := fmt.Sprintf("set the clipboard to (read (POSIX file %s) as %s)",
			quoteAppleScript(path), appleScriptImageClass(format))
		_, err = c.run(ctx, nil, "osascript", "-e", script)
		return err
	}

	script := "Add-Type -AssemblyName System.Windows.Forms; Add-Type -AssemblyName System.Drawing; " +
		"$img = [System.Drawing.Image]::FromFile(" + quotePowerShell(path) + "); " +
		"[System.Windows.Forms.Clipboard]::SetImage($img); $img.Dispose()"
	_, err = c.run(ctx, nil, "powershell", "-NoProfile", "-STA", "-Command", script)
	return err
}

// WriteText implements TextClipboard.
func (c *SystemClipboard) WriteText(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var err error
	switch c.goos {
	case "darwin":
		_, err = c.run(ctx, []byte(text), "pbcopy")
	case "windows":
		_, err = c.run(ctx, nil, "powershell", "-NoProfile", "-Command", "Set-Clipboard -Value "+quotePowerShell(text))
	default:
		name, args, lerr := c.unixTextCommand()
		if lerr != nil {
			return lerr
		}
		_, err = c.run(ctx, []byte(text), name, args...)
	}
	return err
}

// unixImageCommand picks wl-copy under Wayland and xclip otherwise.
func (c *SystemClipboard) unixImageCommand(mime string) (string, []string, error) {
	if c.getenv("WAYLAND_DISPLAY") != "" {
		if _, err := c.lookPath("wl-copy"); err == nil {
			return "wl-copy", []string{"--type", mime}, nil
		}
	}
	if _, err := c.lookPath("xclip"); err == nil {
		return "xclip", []string{"-selection", "clipboard", "-t", mime, "-i"}, nil
	}
	return "", nil, errNoClipboardTool
}

func (c *SystemClipboard) unixTextCommand() (string, []string, error) {
	if c.getenv("WAYLAND_DISPLAY") != "" {
		if _, err := c.lookPath("wl-copy"); err == nil {
			return "wl-copy", nil, nil
		}
	}
	if _, err := c.lookPath("xclip"); err == nil {
		return "xclip", []string{"-selection", "clipboard", "-i"}, nil
	}
	return "", nil, errNoClipboardTool
}

// appleScriptImageClass maps an encoding to the pasteboard class osascript reads it as.
func appleScriptImageClass(format string) string {
	switch format {
	case img.EncodingJPEG:
		return "JPEG picture"
	case img.EncodingTIFF:
		return "TIFF picture"
	default:
		return "«class PNGf»"
	}
}

// NewFileWriter returns the PlatformClipboardFileWriter for goos. Platforms
// without a file clipboard get the absolute path as plain text instead.
func NewFileWriter(goos string, run Runner, text TextClipboard) PlatformClipboardFileWriter {
	switch goos {
	case "darwin":
		return &darwinFileWriter{run: run, timeout: defaultCommandTimeout}
	case "windows":
		return &windowsFileWriter{run: run, timeout: defaultCommandTimeout}
	default:
		return &TextPathWriter{Text: text}
	}
}

// darwinFileWriter puts a POSIX file reference on the macOS pasteboard.
type darwinFileWriter struct {
	run     Runner
	timeout time.Duration
}

func (w *darwinFileWriter) WriteFile(ctx context.Context, path string) error {
	abs, err := safeAbs(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	_, err = w.run(ctx, nil, "osascript", "-e", "set the clipboard to POSIX file "+quoteAppleScript(abs))
	return err
}

// windowsFileWriter puts a file drop list on the Windows clipboard.
type windowsFileWriter struct {
	run     Runner
	timeout time.Duration
}

func (w *windowsFileWriter) WriteFile(ctx context.Context, path string) error {
	abs, err := safeAbs(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	script := "Add-Type -AssemblyName System.Windows.Forms; " +
		"$files = New-Object System.Collections.Specialized.StringCollection; " +
		"[void]$files.Add(" + quotePowerShell(abs) + "); " +
		"[System.Windows.Forms.Clipboard]::SetFileDropList($files)"
	_, err = w.run(ctx, nil, "powershell", "-NoProfile", "-STA", "-Command", script)
	return err
}

// TextPathWriter registers a file by writing its absolute path as clipboard
// text. It is the degraded substitute on platforms without a file clipboard.
type TextPathWriter struct {
	Text TextClipboard
}

// WriteFile implements PlatformClipboardFileWriter.
func (w *TextPathWriter) WriteFile(ctx context.Context, path string) error {
	if w.Text == nil {
		return errors.New("persist: no text clipboard")
	}
	abs, err := safeAbs(path)
	if err != nil {
		return err
	}
	return w.Text.WriteText(ctx, abs)
}

func safeAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}
