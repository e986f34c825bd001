// Package deps tracks what generated code needs at build time: module
// dependencies with versions for the manifest, and per-file import paths
// with alias resolution. Recording is idempotent and order-independent;
// everything read back out is sorted.
package deps

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Type separates standard-library imports from module requirements.
type Type int

const (
	TypeStandard Type = iota
	TypeModule
)

func (t Type) String() string {
	if t == TypeModule {
		return "module"
	}
	return "standard"
}

// Dependency is one build-time requirement of generated code. Standard
// entries carry only an import path. Module entries add the module source
// and minimum version, plus any modules they drag in transitively.
type Dependency struct {
	Type       Type
	Source     string // module path, "" for the standard library
	ImportPath string
	Alias      string // preferred package alias, "" derives from the path
	Version    string // minimum module version, "" for the standard library
	Parents    []Dependency
}

// EffectiveAlias returns the alias to bind this import to, deriving the
// canonical default from the last path segment when none was requested.
// Major-version suffixes ("/v3") are skipped when deriving.
func (d Dependency) EffectiveAlias() string {
	if d.Alias != "" {
		return d.Alias
	}
	return DeriveAlias(d.ImportPath)
}

// DeriveAlias computes the canonical default alias for an import path.
func DeriveAlias(importPath string) string {
	segments := strings.Split(importPath, "/")
	last := segments[len(segments)-1]
	if len(segments) > 1 && isMajorSuffix(last) {
		last = segments[len(segments)-2]
	}
	// Hyphens and dots do not survive into identifiers.
	last = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return -1
		}
		return r
	}, last)
	return last
}

func isMajorSuffix(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Compare orders dependencies by (Type, Source, ImportPath).
func Compare(a, b Dependency) int {
	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return strings.Compare(a.ImportPath, b.ImportPath)
}

// MaxVersion picks the winner when one dependency is recorded at two
// versions: the higher semantic version. Strings that do not parse as
// semver lose to ones that do; two unparseable versions compare lexically.
// The rule is total, so merge results never depend on recording order.
func MaxVersion(a, b string) string {
	if a == b {
		return a
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if va.LessThan(vb) {
			return b
		}
		return a
	case errA == nil:
		return a
	case errB == nil:
		return b
	default:
		if a < b {
			return b
		}
		return a
	}
}
