package debugid

import (
	"regexp"
	"testing"
)

func TestNew(t *testing.T) {
	alnum := regexp.MustCompile(`^[a-z0-9]+$`)

	seen := make(map[string]struct{})
	for range 100 {
		id := New()
		if len(id) != Len {
			t.Fatalf("exp len %d, got %d (%q)", Len, len(id), id)
		}
		if !alnum.MatchString(id) {
			t.Fatalf("exp alphanumeric token, got %q", id)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate token %q", id)
		}
		seen[id] = struct{}{}
	}
}
