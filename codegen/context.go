package codegen

import (
	"sort"

	"go.uber.org/multierr"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/render"
	"github.com/teranos/wiregen/symbol"
)

// Context carries everything generators need for one service's run. One
// Context maps to one generation unit: a single package of emitted files
// sharing a Delegator and dependency tracker.
type Context struct {
	RunID    string
	Model    *model.Model
	Settings Settings
	Service  *model.Shape
	Symbols  symbol.Provider
	Files    *Delegator
	Protocol ProtocolGenerator

	// Plugins holds client wiring contributed by integrations, in
	// integration order.
	Plugins []ClientPlugin

	Validation *model.ValidationIndex
	Usage      *model.UsageIndex
	Mode       model.MemberMode

	Aggregates *Aggregates
}

// Aggregates is cross-cutting state the shape walk accumulates for the
// aggregation phase.
type Aggregates struct {
	// Unions lists every union symbol in walk order. The unknown-variant
	// fallback emitted during aggregation must satisfy each one.
	Unions []symbol.Symbol
}

// Delegator hands out one GoWriter per emitted file and finalizes them
// together. All writers share a tracker, so the manifest sees every
// dependency any file recorded.
type Delegator struct {
	pkg       string
	namespace string
	tracker   *deps.Tracker
	writers   map[string]*render.GoWriter
}

// NewDelegator builds a delegator for a generated package.
func NewDelegator(pkg, namespace string) *Delegator {
	return &Delegator{
		pkg:       pkg,
		namespace: namespace,
		tracker:   deps.NewTracker(),
		writers:   make(map[string]*render.GoWriter),
	}
}

// File returns the writer for name, creating it on first use.
func (d *Delegator) File(name string) *render.GoWriter {
	if w, ok := d.writers[name]; ok {
		return w
	}
	w := render.NewGoWriter(d.pkg, d.namespace, d.tracker)
	d.writers[name] = w
	return w
}

// UseFileWriter runs fn against the named file's writer.
func (d *Delegator) UseFileWriter(name string, fn render.Writable) error {
	return fn(d.File(name))
}

// Filenames returns every opened file sorted, so iteration over the unit
// is deterministic.
func (d *Delegator) Filenames() []string {
	names := make([]string, 0, len(d.writers))
	for name := range d.writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tracker returns the unit-wide dependency tracker.
func (d *Delegator) Tracker() *deps.Tracker {
	return d.tracker
}

// Finalize renders every non-empty file. Failures across files accumulate
// rather than masking each other; any failure means no output at all, so
// reporting every broken file in one pass saves rerun cycles.
func (d *Delegator) Finalize() (map[string][]byte, error) {
	out := make(map[string][]byte, len(d.writers))
	var errs error
	for _, name := range d.Filenames() {
		w := d.writers[name]
		if w.Empty() {
			continue
		}
		content, err := w.Finalize()
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "file %s", name))
			continue
		}
		out[name] = content
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}
