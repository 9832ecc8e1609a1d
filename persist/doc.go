// Package persist writes stitched screenshots to their destinations.
//
// A Sink always puts the encoded image on the system image clipboard. In
// ModeDual it also writes a temp file and registers that file on the platform
// clipboard so the result pastes into file-aware targets too. Platform
// integration is hidden behind the ImageClipboard, TextClipboard and
// PlatformClipboardFileWriter interfaces; the system implementations shell
// out to osascript (macOS), PowerShell (Windows) and wl-copy or xclip
// (everything else).
//
// Temp files carry a fixed name prefix and a millisecond timestamp. A Tracker
// owns the set of files it created and removes them, together with any other
// prefixed file in its directory, once they outlive a TTL.
package persist

import "errors"

// Errors reported by persistence steps.
var (
	// ErrNoPayload is returned when there are no bytes to persist.
	ErrNoPayload = errors.New("persist: empty payload")

	// ErrClipboardImage is returned when the image clipboard write fails.
	ErrClipboardImage = errors.New("persist: image clipboard write failed")

	// ErrClipboardRegistration is reported when the file could not be
	// registered on the platform clipboard.
	ErrClipboardRegistration = errors.New("persist: file clipboard registration failed")

	// ErrTempFile is reported when the temp file could not be written.
	ErrTempFile = errors.New("persist: temp file write failed")

	// ErrSweep is reported when a stale temp file could not be deleted.
	ErrSweep = errors.New("persist: sweep failed")

	// ErrUnsafePath is returned for paths that cannot be passed to a shell-out.
	ErrUnsafePath = errors.New("persist: unsafe path")
)
