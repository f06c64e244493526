package stowgate

import (
	"strings"
	"unicode/utf8"
)

// MaxFileNameBytes is the provider's limit on an object name, in UTF-8 bytes.
const MaxFileNameBytes = 1024

// IsValidFileName validates that name can be used as an object name in an upload.
// It checks that the name:
//   - is not empty and at most MaxFileNameBytes bytes
//   - is valid UTF-8
//   - does not start or end with "/"
//   - does not contain "//" (empty segments)
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Unlike local paths, spaces and "." segments are allowed.
func IsValidFileName(name string) bool {
	if name == "" || len(name) > MaxFileNameBytes {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}

	if strings.Contains(name, "//") {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}
