package render

import (
	"strconv"
	"strings"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
)

const generatedHeader = "// Code generated by wiregen. DO NOT EDIT."

// GoWriter renders one Go source file. It expands templates into the
// embedded CodeWriter while registering every referenced import in its
// ImportContainer and every module requirement in the run-wide Tracker, so
// Finalize can assemble a file whose import block matches its body.
type GoWriter struct {
	*CodeWriter
	pkg       string
	namespace string
	pkgDoc    string
	imports   *deps.ImportContainer
	tracker   *deps.Tracker
}

// NewGoWriter builds a writer for a file in package pkg at import path
// namespace. Symbols defined in the same namespace render unqualified.
// All writers of a run share one tracker.
func NewGoWriter(pkg, namespace string, tracker *deps.Tracker) *GoWriter {
	if tracker == nil {
		tracker = deps.NewTracker()
	}
	return &GoWriter{
		CodeWriter: NewCodeWriter(),
		pkg:        pkg,
		namespace:  namespace,
		imports:    deps.NewImportContainer(),
		tracker:    tracker,
	}
}

// Pkg returns the package name of the file being written.
func (w *GoWriter) Pkg() string { return w.pkg }

// Imports exposes the file's import container.
func (w *GoWriter) Imports() *deps.ImportContainer { return w.imports }

// Tracker exposes the run-wide dependency tracker.
func (w *GoWriter) Tracker() *deps.Tracker { return w.tracker }

// Empty reports whether finalizing the writer would produce nothing
// beyond the package clause.
func (w *GoWriter) Empty() bool {
	return w.Len() == 0 && w.imports.Len() == 0 && w.pkgDoc == ""
}

// Use records a dependency in the tracker and its import in the file,
// returning the alias code must reference it by.
func (w *GoWriter) Use(d deps.Dependency) string {
	w.tracker.AddDependency(d)
	return w.imports.AddDependency(d)
}

// AddImport registers an import without a tracked dependency and returns
// its effective alias. Pass an empty alias to derive one from the path.
func (w *GoWriter) AddImport(path, alias string) string {
	return w.imports.AddImport(path, alias, isStandardPath(path))
}

// Write expands the template and ends the line. A failed expansion both
// returns and sticks, so callers may check per call or defer to Err.
func (w *GoWriter) Write(template string, args ...any) error {
	if w.err != nil {
		return w.err
	}
	if err := w.expand(template, args); err != nil {
		w.fail(err)
		return err
	}
	w.WriteNewline()
	return nil
}

// WriteInline expands the template without ending the line.
func (w *GoWriter) WriteInline(template string, args ...any) error {
	if w.err != nil {
		return w.err
	}
	if err := w.expand(template, args); err != nil {
		w.fail(err)
		return err
	}
	return nil
}

// P is Write for linear generator bodies: failures stick silently and
// surface at Finalize.
func (w *GoWriter) P(template string, args ...any) {
	_ = w.Write(template, args...)
}

// WriteDocs emits text as a comment block wrapped near 80 columns. Blank
// lines in the input separate paragraphs.
func (w *GoWriter) WriteDocs(text string) {
	for _, line := range wrapComment(text, 77) {
		if line == "" {
			w.writeText("//")
		} else {
			w.writeText("// " + line)
		}
		w.WriteNewline()
	}
}

// WriteDeprecated emits the conventional deprecation marker paragraph.
func (w *GoWriter) WriteDeprecated(message string) {
	if message == "" {
		message = "deprecated."
	}
	w.writeText("//")
	w.WriteNewline()
	w.WriteDocs("Deprecated: " + message)
}

// PackageDoc sets the package comment emitted above the package clause.
func (w *GoWriter) PackageDoc(text string) {
	w.pkgDoc = text
}

// Fork returns a writer with the same package identity and indent but a
// fresh buffer, import container, and tracker. Nothing rendered into the
// fork is visible until Merge commits it.
func (w *GoWriter) Fork() *GoWriter {
	f := NewGoWriter(w.pkg, w.namespace, deps.NewTracker())
	f.indent = w.indent
	return f
}

// Merge commits a fork: its text, imports, and tracked dependencies all
// land in w. Merging at a line boundary keeps indentation coherent.
func (w *GoWriter) Merge(f *GoWriter) {
	if f == nil || f.Len() == 0 {
		w.mergeBookkeeping(f)
		return
	}
	w.buf.WriteString(f.buf.String())
	w.atLineStart = f.atLineStart
	w.mergeBookkeeping(f)
}

func (w *GoWriter) mergeBookkeeping(f *GoWriter) {
	if f == nil {
		return
	}
	if f.err != nil {
		w.fail(f.err)
	}
	w.imports.Merge(f.imports)
	w.tracker.Merge(f.tracker)
}

// Peek renders fn into a discarded fork and returns the text. No imports,
// dependencies, or buffer content leak into w.
func (w *GoWriter) Peek(fn Writable) (string, error) {
	f := w.Fork()
	if err := fn(f); err != nil {
		return "", err
	}
	if err := f.Err(); err != nil {
		return "", err
	}
	return f.String(), nil
}

// Finalize assembles the complete file: generated-code header, package
// clause, grouped imports, body. It fails if writer state is unbalanced,
// which would mean some fragment pushed without popping.
func (w *GoWriter) Finalize() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if len(w.states) != 0 {
		return nil, errors.Wrapf(errors.ErrRender, "%d writer state(s) left pushed at finalize", len(w.states))
	}
	if w.indent != 0 {
		return nil, errors.Wrapf(errors.ErrRender, "indent level %d left open at finalize", w.indent)
	}

	var out strings.Builder
	out.WriteString(generatedHeader)
	out.WriteString("\n\n")

	if w.pkgDoc != "" {
		for _, line := range wrapComment(w.pkgDoc, 77) {
			if line == "" {
				out.WriteString("//\n")
			} else {
				out.WriteString("// " + line + "\n")
			}
		}
	}
	out.WriteString("package ")
	out.WriteString(w.pkg)
	out.WriteString("\n")

	if entries := w.imports.Entries(); len(entries) > 0 {
		out.WriteString("\nimport (\n")
		prevStandard := entries[0].Standard
		for _, e := range entries {
			if prevStandard && !e.Standard {
				out.WriteString("\n")
			}
			prevStandard = e.Standard
			out.WriteString("\t")
			if e.NeedsAlias() {
				out.WriteString(e.Alias)
				out.WriteString(" ")
			}
			out.WriteString(strconv.Quote(e.Path))
			out.WriteString("\n")
		}
		out.WriteString(")\n")
	}

	if body := w.String(); body != "" {
		out.WriteString("\n")
		out.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			out.WriteString("\n")
		}
	}
	return []byte(out.String()), nil
}

// isStandardPath reports whether an import path belongs to the standard
// library: its first segment carries no dot.
func isStandardPath(path string) bool {
	first := path
	if i := strings.IndexByte(path, '/'); i >= 0 {
		first = path[:i]
	}
	return !strings.Contains(first, ".")
}

func wrapComment(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				out = append(out, line)
				line = word
				continue
			}
			line += " " + word
		}
		out = append(out, line)
	}
	return out
}
