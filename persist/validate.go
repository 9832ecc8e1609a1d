package persist

import (
	"fmt"
	"strings"
)

// ValidatePath rejects paths that could break the structure of an
// AppleScript or PowerShell snippet.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrUnsafePath)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: contains null byte", ErrUnsafePath)
	}
	if strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("%w: contains newline characters", ErrUnsafePath)
	}
	if strings.Contains(path, "`") {
		return fmt.Errorf("%w: contains backtick characters", ErrUnsafePath)
	}
	return nil
}

// quoteAppleScript escapes s for use inside an AppleScript string literal.
func quoteAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// quotePowerShell escapes s for use inside a single-quoted PowerShell string.
func quotePowerShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
