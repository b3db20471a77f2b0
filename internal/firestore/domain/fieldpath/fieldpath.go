// Package fieldpath parses and validates Firestore's dot-notation nested
// field paths (e.g. "customer.address.city"). Adapted from the teacher's
// model.FieldPath, trimmed to the segment-splitting and validation rules the
// query engine and commit transforms actually need; the richer
// Parent/Child/IsNested navigation helpers the teacher exposed were never
// exercised by anything in this emulator and were dropped rather than kept
// unused.
package fieldpath

import (
	"strings"

	"firestore-emulator/internal/shared/apperrors"
)

// NameField is Firestore's reserved path for a document's own resource name.
const NameField = "__name__"

const maxDepth = 100

// Segments splits a dot-separated field path into its components. "__name__"
// is returned as a single segment since it is never a real nested path.
// Empty segments (a leading/trailing/doubled dot) make the path invalid.
func Segments(path string) ([]string, error) {
	if path == "" {
		return nil, apperrors.InvalidArgument("field path cannot be empty", nil)
	}
	if path == NameField {
		return []string{NameField}, nil
	}
	segments := strings.Split(path, ".")
	if len(segments) > maxDepth {
		return nil, apperrors.InvalidArgument("field path exceeds maximum nesting depth", nil)
	}
	for _, seg := range segments {
		if seg == "" {
			return nil, apperrors.InvalidArgument("field path has an empty segment: "+path, nil)
		}
	}
	return segments, nil
}

// MustSegments is Segments without the error return, for call sites (the
// query engine's hot filter/order path) that already operate on field paths
// the server itself generated and trust to be well-formed; a malformed path
// simply matches nothing rather than panicking.
func MustSegments(path string) []string {
	segments, err := Segments(path)
	if err != nil {
		return strings.Split(path, ".")
	}
	return segments
}
