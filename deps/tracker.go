package deps

import (
	"sort"
)

// Tracker accumulates dependencies across a generation run. One tracker
// backs the whole run; every file writer records into it.
type Tracker struct {
	recorded []Dependency
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddDependency records a dependency. Duplicates and version conflicts are
// resolved at read time.
func (t *Tracker) AddDependency(d Dependency) {
	t.recorded = append(t.recorded, d)
}

// Merge absorbs everything recorded in other. Used when a forked writer's
// speculative output is committed.
func (t *Tracker) Merge(other *Tracker) {
	if other == nil {
		return
	}
	t.recorded = append(t.recorded, other.recorded...)
}

// All returns the flattened dependency set: every recorded dependency plus
// its transitive parents, deduplicated by import path with versions merged
// per MaxVersion, sorted by Compare. Parent chains may cycle; the active
// set terminates the walk without losing any entry.
func (t *Tracker) All() []Dependency {
	merged := make(map[string]Dependency)

	var flatten func(d Dependency, active map[string]bool)
	flatten = func(d Dependency, active map[string]bool) {
		key := d.ImportPath
		if existing, ok := merged[key]; ok {
			existing.Version = MaxVersion(existing.Version, d.Version)
			if existing.Alias == "" {
				existing.Alias = d.Alias
			}
			merged[key] = existing
		} else {
			stored := d
			stored.Parents = nil
			merged[key] = stored
		}
		if active[key] {
			return
		}
		active[key] = true
		for _, parent := range d.Parents {
			flatten(parent, active)
		}
		delete(active, key)
	}
	for _, d := range t.recorded {
		flatten(d, make(map[string]bool))
	}

	out := make([]Dependency, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return Compare(out[i], out[j]) < 0 })
	return out
}

// Modules reduces All to one entry per module source with versions merged,
// sorted by source. This is the require list of the manifest.
func (t *Tracker) Modules() []Dependency {
	bySource := make(map[string]Dependency)
	for _, d := range t.All() {
		if d.Type != TypeModule || d.Source == "" {
			continue
		}
		if existing, ok := bySource[d.Source]; ok {
			existing.Version = MaxVersion(existing.Version, d.Version)
			bySource[d.Source] = existing
		} else {
			d.ImportPath = d.Source
			bySource[d.Source] = d
		}
	}

	out := make([]Dependency, 0, len(bySource))
	for _, d := range bySource {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
