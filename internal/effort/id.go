// Package effort owns the canonical state document for a multi-phase effort.
// It is the only package that mutates the document; workers and reviewers
// communicate through the signal log and never write here directly.
package effort

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SessionID identifies a session within an effort using the hierarchical
// "phase.session" scheme, e.g. "2.1" or "4.2b". The optional lowercase
// suffix disambiguates sessions inserted between existing ones.
type SessionID string

// sessionIDRegex captures phase number, session number, and optional suffix.
// Numbering is 1-based with no leading zeros so every id has one spelling.
var sessionIDRegex = regexp.MustCompile(`^([1-9][0-9]*)\.([1-9][0-9]*)([a-z]*)$`)

// effortIDRegex validates effort identifiers: slug form, starting with an
// alphanumeric, safe to use as a directory name.
var effortIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ParseSessionID validates raw and returns it as a SessionID.
func ParseSessionID(raw string) (SessionID, error) {
	if !sessionIDRegex.MatchString(raw) {
		return "", fmt.Errorf("invalid session id %q: expected phase.session form like 2.1 or 4.2b", raw)
	}
	return SessionID(raw), nil
}

// Valid reports whether the id is well-formed.
func (id SessionID) Valid() bool {
	return sessionIDRegex.MatchString(string(id))
}

// String returns the raw id.
func (id SessionID) String() string {
	return string(id)
}

// parts splits the id into phase number, session number, and suffix.
// ok is false for malformed ids.
func (id SessionID) parts() (phase, number int, suffix string, ok bool) {
	m := sessionIDRegex.FindStringSubmatch(string(id))
	if m == nil {
		return 0, 0, "", false
	}
	phase, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, "", false
	}
	number, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, "", false
	}
	return phase, number, m[3], true
}

// Phase returns the phase number, or 0 for a malformed id.
func (id SessionID) Phase() int {
	phase, _, _, _ := id.parts()
	return phase
}

// Number returns the session number within its phase, or 0 for a malformed id.
func (id SessionID) Number() int {
	_, number, _, _ := id.parts()
	return number
}

// Suffix returns the trailing disambiguator, if any.
func (id SessionID) Suffix() string {
	_, _, suffix, _ := id.parts()
	return suffix
}

// Compare orders two session ids: by phase, then session number, then
// suffix. Malformed ids sort after well-formed ones, then lexically, so
// sorting is still total.
func (id SessionID) Compare(other SessionID) int {
	ap, an, as, aok := id.parts()
	bp, bn, bs, bok := other.parts()

	if !aok || !bok {
		if aok != bok {
			if aok {
				return -1
			}
			return 1
		}
		return strings.Compare(string(id), string(other))
	}

	if ap != bp {
		if ap < bp {
			return -1
		}
		return 1
	}
	if an != bn {
		if an < bn {
			return -1
		}
		return 1
	}
	return strings.Compare(as, bs)
}

// Less reports whether id orders before other.
func (id SessionID) Less(other SessionID) bool {
	return id.Compare(other) < 0
}

// SortSessionIDs sorts ids in place into phase/session/suffix order.
func SortSessionIDs(ids []SessionID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
}

// ValidateEffortID checks that an effort identifier is usable as a
// directory name.
func ValidateEffortID(id string) error {
	if id == "" {
		return fmt.Errorf("effort id cannot be empty")
	}
	if !effortIDRegex.MatchString(id) {
		return fmt.Errorf("invalid effort id %q: use letters, digits, dots, hyphens and underscores", id)
	}
	return nil
}
