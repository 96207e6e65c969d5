// Package session describes the per-connection authentication state that the
// transport layer hands to the procedure core.
//
// A Session is a plain value. The transport owns it for the lifetime of its
// connection; the dispatcher and handlers only read it.
package session

import (
	"fmt"
	"strings"
)

// Privilege is the minimum authentication tier a procedure requires.
// Values are ordered: a higher value grants everything a lower one does.
type Privilege int

const (
	// PrivilegePublic procedures may be called by anyone, logged in or not.
	PrivilegePublic Privilege = iota

	// PrivilegeLogged procedures require an authenticated user.
	PrivilegeLogged

	// PrivilegeAdmin procedures require an authenticated administrator.
	PrivilegeAdmin
)

var privilegeNames = map[Privilege]string{
	PrivilegePublic: "public",
	PrivilegeLogged: "logged",
	PrivilegeAdmin:  "admin",
}

// String returns the lowercase name used in config files and listings.
func (p Privilege) String() string {
	if name, ok := privilegeNames[p]; ok {
		return name
	}
	return fmt.Sprintf("privilege(%d)", int(p))
}

// ParsePrivilege parses "public", "logged" or "admin" (case-insensitive).
func ParsePrivilege(s string) (Privilege, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, name := range privilegeNames {
		if name == want {
			return p, nil
		}
	}
	return PrivilegePublic, fmt.Errorf("unknown privilege %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Privilege) MarshalText() ([]byte, error) {
	if _, ok := privilegeNames[p]; !ok {
		return nil, fmt.Errorf("unknown privilege %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Privilege) UnmarshalText(text []byte) error {
	parsed, err := ParsePrivilege(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Session is the authentication state of one connection.
//
// UserID is meaningful only when LoggedIn is true. Privilege is the tier the
// transport granted the user; an anonymous session always has PrivilegePublic.
type Session struct {
	UserID    int64
	LoggedIn  bool
	Privilege Privilege
}

// Anonymous returns the session of a caller that has not logged in.
func Anonymous() Session {
	return Session{Privilege: PrivilegePublic}
}

// LoggedInAs returns a logged-in session for userID with the given tier.
// A tier below PrivilegeLogged is raised to PrivilegeLogged.
func LoggedInAs(userID int64, privilege Privilege) Session {
	if privilege < PrivilegeLogged {
		privilege = PrivilegeLogged
	}
	return Session{UserID: userID, LoggedIn: true, Privilege: privilege}
}

// Allows reports whether this session may invoke a procedure that requires
// min. Public procedures are always allowed; anything above public requires
// a logged-in session whose privilege reaches min.
func (s Session) Allows(min Privilege) bool {
	if min <= PrivilegePublic {
		return true
	}
	if !s.LoggedIn {
		return false
	}
	return s.Privilege >= min
}

// IsAdmin reports whether the session carries administrator privilege.
func (s Session) IsAdmin() bool {
	return s.LoggedIn && s.Privilege >= PrivilegeAdmin
}
