package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

// Resolver maps a bearer credential to the session it authenticates.
type Resolver interface {
	// Resolve returns the session for token and whether the token is known.
	Resolve(token string) (Session, bool)
}

// ErrDuplicateToken is returned by NewStaticResolver when a token repeats.
var ErrDuplicateToken = errors.New("duplicate session token")

// Grant binds one static token to a user.
type Grant struct {
	Token     string
	UserID    int64
	Privilege Privilege
}

// StaticResolver resolves a fixed set of tokens. It is immutable after
// construction and safe for concurrent use.
type StaticResolver struct {
	grants []Grant
}

// NewStaticResolver builds a resolver over grants. Empty and duplicate
// tokens are rejected.
func NewStaticResolver(grants ...Grant) (*StaticResolver, error) {
	seen := make(map[string]bool, len(grants))
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if g.Token == "" {
			return nil, fmt.Errorf("static resolver: empty token for user %d", g.UserID)
		}
		if seen[g.Token] {
			return nil, fmt.Errorf("static resolver: user %d: %w", g.UserID, ErrDuplicateToken)
		}
		seen[g.Token] = true
		out = append(out, g)
	}
	return &StaticResolver{grants: out}, nil
}

// Resolve implements Resolver. Every grant is compared in constant time.
func (r *StaticResolver) Resolve(token string) (Session, bool) {
	if r == nil || token == "" {
		return Anonymous(), false
	}
	var found *Grant
	for i := range r.grants {
		if subtle.ConstantTimeCompare([]byte(r.grants[i].Token), []byte(token)) == 1 {
			found = &r.grants[i]
		}
	}
	if found == nil {
		return Anonymous(), false
	}
	return LoggedInAs(found.UserID, found.Privilege), true
}

// Len returns the number of grants.
func (r *StaticResolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.grants)
}
