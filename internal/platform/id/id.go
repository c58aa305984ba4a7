package id

import (
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID yields random (v4) UUID strings.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Short returns the first segment of a generated id, used as a suffix for
// human-readable identifiers.
func Short(gen Generator) string {
	raw := gen.New()
	if idx := strings.IndexByte(raw, '-'); idx > 0 {
		return raw[:idx]
	}
	if len(raw) > 8 {
		return raw[:8]
	}
	return raw
}
