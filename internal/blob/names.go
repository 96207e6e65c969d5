package blob

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// NameGenerator produces blob names.
type NameGenerator interface {
	// Name returns a fresh name ending in "."+suffix, or the bare
	// identifier when suffix is empty. suffix must already be normalized.
	Name(suffix string) string
}

// UUIDNames generates 32 hex character names from random (version 4)
// UUIDs. It keeps no state, so concurrent callers never contend; the
// 122 random bits make collisions negligible without checking the store.
type UUIDNames struct{}

// Name implements NameGenerator.
func (UUIDNames) Name(suffix string) string {
	id := uuid.New()
	return withSuffix(hex.EncodeToString(id[:]), suffix)
}

// FixedNames returns predetermined identifiers in order, for tests.
//
// Panics once all names have been used.
type FixedNames struct {
	mu    sync.Mutex
	names []string
	idx   int
}

// NewFixedNames creates a generator that hands out ids in order.
func NewFixedNames(ids ...string) *FixedNames {
	return &FixedNames{names: ids}
}

// Name implements NameGenerator.
func (g *FixedNames) Name(suffix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.names) {
		panic("FixedNames: all names exhausted")
	}
	id := g.names[g.idx]
	g.idx++
	return withSuffix(id, suffix)
}

func withSuffix(id, suffix string) string {
	if suffix == "" {
		return id
	}
	return id + "." + suffix
}

// maxSuffixLen bounds caller-declared extensions.
const maxSuffixLen = 16

// ErrInvalidSuffix is returned by NormalizeSuffix for unusable extensions.
var ErrInvalidSuffix = errors.New("invalid file suffix")

// NormalizeSuffix turns a caller-declared extension into the form used in
// blob names: compatibility-normalized, without a leading dot, lowercase,
// ASCII letters and digits only.
func NormalizeSuffix(suffix string) (string, error) {
	s := norm.NFKC.String(strings.TrimSpace(suffix))
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	if len(s) > maxSuffixLen {
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidSuffix, suffix, maxSuffixLen)
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidSuffix, suffix)
		}
	}
	return s, nil
}
