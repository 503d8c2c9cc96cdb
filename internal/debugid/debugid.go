// Package debugid generates opaque correlation tokens used in log records.
package debugid

import (
	"strings"

	"github.com/google/uuid"
)

// Len is the length of every generated token.
const Len = 12

// New returns a random alphanumeric token of [Len] characters.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:Len]
}
