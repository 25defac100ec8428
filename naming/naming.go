// Package naming derives collision-free output names for captures.
//
// A base name is built from the identity of the test that takes the
// capture. Requesting the same base name again within one [Namer] yields
// numbered variants:
//
//	n := naming.NewNamer()
//	n.Name("X") // "X"
//	n.Name("X") // "X_2"
//	n.Name("X") // "X_3"
//
// The package-level functions share one process-wide Namer.
package naming

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/ggshot"
)

// Identity names the test taking a capture.
type Identity struct {
	Package string // e.g. "com.example.settings" or "example.com/app/settings"
	Class   string // test type or file, e.g. "HeaderTest"
	Method  string // test function, e.g. "TestDarkMode"
}

// Strategy selects how an Identity becomes a base name.
type Strategy int

const (
	// PackageClassMethod joins all parts with dots: "pkg.Class.Method".
	PackageClassMethod Strategy = iota

	// ClassMethod drops the package: "Class.Method".
	ClassMethod

	// Escaped joins all parts with underscores and replaces every character
	// that is not a letter, digit, '-' or '_': "pkg_Class_Method".
	Escaped
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case PackageClassMethod:
		return "package_class_method"
	case ClassMethod:
		return "class_method"
	case Escaped:
		return "escaped"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range []Strategy{PackageClassMethod, ClassMethod, Escaped} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: naming: unknown strategy %q", ggshot.ErrInvalidArgument, s)
}

// Base returns the base name of id. Empty parts are skipped.
func (s Strategy) Base(id Identity) string {
	switch s {
	case ClassMethod:
		return join(".", id.Class, id.Method)
	case Escaped:
		return escape(join("_", id.Package, id.Class, id.Method))
	default:
		return join(".", id.Package, id.Class, id.Method)
	}
}

func join(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func escape(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// Namer hands out unique names. The zero value is not usable; call
// NewNamer.
//
// A Namer is safe for concurrent use.
type Namer struct {
	mu     sync.Mutex
	counts map[string]int
	issued map[string]struct{}
}

// NewNamer returns an empty Namer.
func NewNamer() *Namer {
	return &Namer{
		counts: make(map[string]int),
		issued: make(map[string]struct{}),
	}
}

// Name returns base the first time it is requested and base_2, base_3, ...
// afterwards. A candidate that was already handed out, for instance
// because "X_2" was requested directly, is skipped.
func (n *Namer) Name(base string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.counts[base]
	for {
		i++
		name := base
		if i > 1 {
			name = base + "_" + strconv.Itoa(i)
		}
		if _, taken := n.issued[name]; taken {
			continue
		}
		n.counts[base] = i
		n.issued[name] = struct{}{}
		if i > 1 {
			ggshot.Logger().Debug("naming: duplicate base name", "base", base, "name", name)
		}
		return name
	}
}

// NameFor returns Name(s.Base(id)).
func (n *Namer) NameFor(s Strategy, id Identity) string {
	return n.Name(s.Base(id))
}

// Path returns dir/Name(base)+ext.
func (n *Namer) Path(dir, base, ext string) string {
	return filepath.Join(dir, n.Name(base)+ext)
}

// Reset forgets every name handed out so far.
func (n *Namer) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.counts)
	clear(n.issued)
}

// Len returns the number of names handed out since the last Reset.
func (n *Namer) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.issued)
}

var defaultNamer = NewNamer()

// Default returns the process-wide Namer used by the package-level
// functions.
func Default() *Namer { return defaultNamer }

// Name calls Default().Name.
func Name(base string) string { return defaultNamer.Name(base) }

// Reset calls Default().Reset. Call it between independent test runs in
// one process.
func Reset() { defaultNamer.Reset() }
