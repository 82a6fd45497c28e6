// Package filter identifies and applies the compression filters that frame a
// container stream.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned when a filter name or value is not recognized.
var ErrUnknown = errors.New("unknown compression filter")

// Filter identifies the compression algorithm wrapped around the archive stream.
type Filter uint8

const (
	None Filter = iota
	Gzip
	Bzip2
	Xz
	Zstd
	Lz4
)

// names is the single mapping between filters and their string form.
var names = [...]string{
	None:  "none",
	Gzip:  "gzip",
	Bzip2: "bzip2",
	Xz:    "xz",
	Zstd:  "zstd",
	Lz4:   "lz4",
}

// String returns the human-readable name of the filter.
func (f Filter) String() string {
	if int(f) < len(names) {
		return names[f]
	}
	return fmt.Sprintf("unknown(%d)", uint8(f))
}

// Parse returns the filter named by s. Matching is case-insensitive.
func Parse(s string) (Filter, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for f, name := range names {
		if name == token {
			return Filter(f), nil //nolint:gosec // bounded by len(names)
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// All returns every supported filter in declaration order.
func All() []Filter {
	out := make([]Filter, len(names))
	for i := range names {
		out[i] = Filter(i) //nolint:gosec // bounded by len(names)
	}
	return out
}
