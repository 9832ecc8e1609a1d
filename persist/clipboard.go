package persist

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ImageClipboard puts encoded image bytes on the system image clipboard.
type ImageClipboard interface {
	WriteImage(ctx context.Context, data []byte, format string) error
}

// TextClipboard puts plain text on the system clipboard.
type TextClipboard interface {
	WriteText(ctx context.Context, text string) error
}

// PlatformClipboardFileWriter registers a file on the platform clipboard so
// file-aware targets (Finder, Explorer, chat clients) paste the file itself.
type PlatformClipboardFileWriter interface {
	WriteFile(ctx context.Context, path string) error
}

// Runner executes an external command with optional stdin and returns its
// combined output.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- callers pass fixed tools and sanitized arguments
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// MemoryClipboard is an in-process clipboard. It implements ImageClipboard,
// TextClipboard and PlatformClipboardFileWriter, which makes it useful for
// headless runs and tests. Setting one of the Err fields makes the matching
// write fail.
type MemoryClipboard struct {
	mu sync.Mutex

	ImageErr error
	TextErr  error
	FileErr  error

	image  []byte
	format string
	text   string
	files  []string
	writes int
}

// WriteImage implements ImageClipboard.
func (m *MemoryClipboard) WriteImage(_ context.Context, data []byte, format string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ImageErr != nil {
		return m.ImageErr
	}
	m.image = append(m.image[:0], data...)
	m.format = format
	m.writes++
	return nil
}

// WriteText implements TextClipboard.
func (m *MemoryClipboard) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TextErr != nil {
		return m.TextErr
	}
	m.text = text
	m.writes++
	return nil
}

// WriteFile implements PlatformClipboardFileWriter.
func (m *MemoryClipboard) WriteFile(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FileErr != nil {
		return m.FileErr
	}
	m.files = append(m.files[:0], path)
	m.writes++
	return nil
}

// Image returns the last image written and its format.
func (m *MemoryClipboard) Image() ([]byte, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.image), m.format
}

// Text returns the last text written.
func (m *MemoryClipboard) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Files returns the files last registered.
func (m *MemoryClipboard) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.files...)
}

// Writes returns the number of successful writes of any kind.
func (m *MemoryClipboard) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Discard accepts and drops every write.
type Discard struct{}

// WriteImage implements ImageClipboard.
func (Discard) WriteImage(context.Context, []byte, string) error { return nil }

// WriteText implements TextClipboard.
func (Discard) WriteText(context.Context, string) error { return nil }

// WriteFile implements PlatformClipboardFileWriter.
func (Discard) WriteFile(context.Context, string) error { return nil }
