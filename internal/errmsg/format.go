// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by pipeline stage.
const (
	// Startup
	OpConfigLoad     Op = "load configuration"
	OpConfigValidate Op = "validate configuration"
	OpLibraryScan    Op = "scan folder"

	// Identification
	OpProbeFile         Op = "fingerprint file"
	OpLookupFingerprint Op = "look up fingerprint"
	OpSearchMetadata    Op = "search metadata"
	OpResolveCandidate  Op = "resolve candidate"

	// Tagging
	OpReadTags     Op = "read file tags"
	OpFetchArtwork Op = "fetch cover art"
	OpWriteTags    Op = "write file tags"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
