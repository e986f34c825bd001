package deps

import (
	"sort"
	"strconv"
)

// ImportEntry is one import line of a generated file.
type ImportEntry struct {
	Path     string
	Alias    string // alias actually bound, always non-empty
	Explicit bool   // alias was requested rather than derived
	Standard bool
}

// NeedsAlias reports whether the import line must spell the alias out.
func (e ImportEntry) NeedsAlias() bool {
	return e.Alias != DeriveAlias(e.Path)
}

// ImportContainer collects the imports of one generated file and settles
// aliases deterministically: the first registration of a path fixes its
// alias for the rest of the file (explicit beats derived at that moment),
// and an alias already bound to a different path gets a numeric suffix.
// Registration order is deterministic, so the outcome is too.
type ImportContainer struct {
	byPath  map[string]*ImportEntry
	byAlias map[string]string // alias -> path holding it
	order   []string
}

// NewImportContainer returns an empty container.
func NewImportContainer() *ImportContainer {
	return &ImportContainer{
		byPath:  make(map[string]*ImportEntry),
		byAlias: make(map[string]string),
	}
}

// AddImport registers a path and returns the alias code must reference it
// by. Re-registering a path returns its already-settled alias regardless of
// the alias argument; emitted references stay consistent with the import
// block that way.
func (c *ImportContainer) AddImport(path, alias string, standard bool) string {
	if entry, ok := c.byPath[path]; ok {
		return entry.Alias
	}

	explicit := alias != ""
	if !explicit {
		alias = DeriveAlias(path)
	}
	effective := alias
	for n := 2; ; n++ {
		holder, taken := c.byAlias[effective]
		if !taken || holder == path {
			break
		}
		effective = alias + strconv.Itoa(n)
	}

	entry := &ImportEntry{
		Path:     path,
		Alias:    effective,
		Explicit: explicit,
		Standard: standard,
	}
	c.byPath[path] = entry
	c.byAlias[effective] = path
	c.order = append(c.order, path)
	return effective
}

// AddDependency registers a dependency's import path.
func (c *ImportContainer) AddDependency(d Dependency) string {
	return c.AddImport(d.ImportPath, d.Alias, d.Type == TypeStandard)
}

// Merge copies every entry of other into c, preserving other's aliases
// where the path is new. Used when lookahead-rendered fragments commit.
func (c *ImportContainer) Merge(other *ImportContainer) {
	for _, path := range other.order {
		entry := other.byPath[path]
		aliasArg := ""
		if entry.Explicit {
			aliasArg = entry.Alias
		}
		c.AddImport(path, aliasArg, entry.Standard)
	}
}

// Len returns the number of distinct imports.
func (c *ImportContainer) Len() int { return len(c.byPath) }

// Entries returns the import lines grouped the gofmt way: standard library
// first, then everything else, each block sorted by path.
func (c *ImportContainer) Entries() []ImportEntry {
	out := make([]ImportEntry, 0, len(c.byPath))
	for _, entry := range c.byPath {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Standard != out[j].Standard {
			return out[i].Standard
		}
		return out[i].Path < out[j].Path
	})
	return out
}
