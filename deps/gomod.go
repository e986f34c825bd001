package deps

import (
	"golang.org/x/mod/modfile"

	"github.com/teranos/wiregen/errors"
)

// WriteGoMod renders the generated module's go.mod: module path, go
// directive, and one require line per module dependency. The input slice
// comes from Tracker.Modules, already merged and sorted.
func WriteGoMod(modulePath, goDirective string, modules []Dependency) ([]byte, error) {
	if modulePath == "" {
		return nil, errors.New("module path must not be empty")
	}

	f := new(modfile.File)
	if err := f.AddModuleStmt(modulePath); err != nil {
		return nil, errors.Wrap(err, "module statement")
	}
	if err := f.AddGoStmt(goDirective); err != nil {
		return nil, errors.Wrap(err, "go directive")
	}
	for _, d := range modules {
		if d.Source == modulePath {
			// Self-references happen when a generated package imports a
			// sibling; they never become require lines.
			continue
		}
		if err := f.AddRequire(d.Source, d.Version); err != nil {
			return nil, errors.Wrapf(err, "require %s", d.Source)
		}
	}

	out, err := f.Format()
	if err != nil {
		return nil, errors.Wrap(err, "formatting go.mod")
	}
	return out, nil
}
