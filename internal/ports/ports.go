// Package ports provides port set types and the parsing of port
// specifications into concrete scan targets. A specification is either an
// explicit comma-separated list ("22,80,443") or an inclusive range
// ("1-1024"); the well-known set comes from the services package. Parsing is
// pure and performs no I/O; malformed input surfaces before any network
// activity.
package ports

import (
	"sort"
	"strconv"
	"strings"

	"github.com/veriscan/veriscan/internal/errors"
)

const (
	// MinPort is the lowest valid TCP port.
	MinPort = 1
	// MaxPort is the highest valid TCP port.
	MaxPort = 65535
)

// Port is a TCP port number in [1, 65535].
type Port uint16

// String returns the decimal representation of the port.
func (p Port) String() string {
	return strconv.Itoa(int(p))
}

// Set is a deduplicated collection of ports. Insertion order is irrelevant;
// Sorted provides the ascending order used for reporting.
type Set map[Port]struct{}

// NewSet creates a set from the given ports.
func NewSet(ports ...Port) Set {
	s := make(Set, len(ports))
	for _, p := range ports {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts a port into the set.
func (s Set) Add(p Port) {
	s[p] = struct{}{}
}

// Contains reports whether the set holds the given port.
func (s Set) Contains(p Port) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of ports in the set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the ports in ascending order.
func (s Set) Sorted() []Port {
	out := make([]Port, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Intersect returns the ports present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for p := range s {
		if other.Contains(p) {
			out.Add(p)
		}
	}
	return out
}

// Difference returns the ports present in s but not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for p := range s {
		if !other.Contains(p) {
			out.Add(p)
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same ports.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for p := range s {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Join renders the sorted ports as a separator-joined string, e.g. for
// handing the exact scanned set to the reference scanner.
func (s Set) Join(sep string) string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}

// ParseList parses an explicit comma-separated port list. Every token must
// be an integer in [1, 65535]; duplicates collapse into the set.
func ParseList(spec string) (Set, error) {
	tokens := strings.Split(spec, ",")
	set := make(Set, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		p, err := parsePort(token)
		if err != nil {
			return nil, err
		}
		set.Add(p)
	}
	return set, nil
}

// ParseRange parses an inclusive "low-high" range and expands it. The range
// is rejected when either bound is malformed or out of range, or when low
// exceeds high.
func ParseRange(spec string) (Set, error) {
	lowStr, highStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, errors.ErrInvalidRange(spec, "Range must be of the form low-high")
	}

	low, err := strconv.Atoi(strings.TrimSpace(lowStr))
	if err != nil {
		return nil, errors.ErrInvalidRange(spec, "Range bounds must be integers")
	}
	high, err := strconv.Atoi(strings.TrimSpace(highStr))
	if err != nil {
		return nil, errors.ErrInvalidRange(spec, "Range bounds must be integers")
	}
	if low < MinPort || low > MaxPort || high < MinPort || high > MaxPort {
		return nil, errors.ErrInvalidRange(spec, "Range bounds must be between 1 and 65535")
	}
	if low > high {
		return nil, errors.ErrInvalidRange(spec, "Low bound exceeds high bound")
	}

	set := make(Set, high-low+1)
	for p := low; p <= high; p++ {
		set.Add(Port(p))
	}
	return set, nil
}

// parsePort parses a single token through int first so values past 65535
// are rejected instead of wrapping.
func parsePort(token string) (Port, error) {
	if token == "" {
		return 0, errors.ErrInvalidPort(token)
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, errors.ErrInvalidPort(token)
	}
	if n < MinPort || n > MaxPort {
		return 0, errors.ErrInvalidPort(token)
	}
	return Port(n), nil
}
