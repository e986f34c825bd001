package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/render"
	"github.com/teranos/wiregen/symbol"
)

const testNS = "example.com/gen/weather"

func newWriter() *render.GoWriter {
	return render.NewGoWriter("weather", testNS, deps.NewTracker())
}

func stringSym() symbol.Symbol {
	return symbol.Symbol{Name: "string", Kind: symbol.Scalar{}}
}

func timeSym() symbol.Symbol {
	return symbol.Symbol{
		Name:      "Time",
		Namespace: "time",
		Kind:      symbol.Scalar{},
		Deps:      []deps.Dependency{deps.StdTime},
	}
}

func recordSym(name string) symbol.Symbol {
	return symbol.Symbol{
		Name:      name,
		Namespace: testNS,
		Pointable: true,
		Kind:      symbol.Record{},
	}
}

func TestWriteLiteralAndString(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.Write("const $L = $S", "greeting", "hello"))
	assert.Equal(t, "const greeting = \"hello\"\n", w.String())
}

func TestWriteEscapedMarker(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.Write("cost: $$$L", "5"))
	assert.Equal(t, "cost: $5\n", w.String())
}

func TestWriteNamedArguments(t *testing.T) {
	w := newWriter()
	err := w.Write("func $name:L() $ret:T { return $name:S }",
		render.KV("name", "Greet"),
		render.KV("ret", stringSym()))
	require.NoError(t, err)
	assert.Equal(t, "func Greet() string { return \"Greet\" }\n", w.String())
}

func TestWriteMissingNamedArgument(t *testing.T) {
	w := newWriter()
	err := w.Write("value $missing:L here")
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.Contains(t, err.Error(), `missing named argument "missing"`)
	assert.Contains(t, err.Error(), "value $missing:L here")
}

func TestWritePositionalOverrun(t *testing.T) {
	w := newWriter()
	err := w.Write("$L and $L", "one")
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.Contains(t, err.Error(), "needs argument 2 but only 1 supplied")
}

func TestWriteUnknownPlaceholder(t *testing.T) {
	w := newWriter()

	err := w.Write("broken $Thing here", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown placeholder "$Thing"`)

	err = newWriter().Write("trailing $")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling placeholder marker")
}

func TestWriteUnusedArguments(t *testing.T) {
	w := newWriter()
	err := w.Write("plain text", "extra", render.KV("key", 1), render.KV("other", 2))
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.Contains(t, err.Error(), "unused arguments")
	assert.Contains(t, err.Error(), "1 positional")
	assert.Contains(t, err.Error(), `"key"`)
	assert.Contains(t, err.Error(), `"other"`)
}

func TestTypeRefRegistersImport(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.Write("var ts $T", timeSym()))
	assert.Equal(t, "var ts time.Time\n", w.String())

	entries := w.Imports().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "time", entries[0].Path)
	assert.True(t, entries[0].Standard)

	all := w.Tracker().All()
	require.Len(t, all, 1)
	assert.Equal(t, "time", all[0].ImportPath)
}

func TestTypeRefSameNamespaceUnqualified(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.Write("out := $T{}", recordSym("Forecast")))
	assert.Equal(t, "out := Forecast{}\n", w.String())
	assert.Zero(t, w.Imports().Len())
}

func TestPointerQualifiedForm(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.WriteInline("$P", recordSym("Forecast")))
	assert.Equal(t, "*Forecast", w.String())

	enum := symbol.Symbol{Name: "StormCategory", Namespace: testNS, Kind: symbol.Enum{}}
	w = newWriter()
	require.NoError(t, w.WriteInline("$P", enum))
	assert.Equal(t, "StormCategory", w.String(), "non-pointable symbols ignore the pointer qualifier")
}

func TestCollectionAndMapRender(t *testing.T) {
	elem := recordSym("StormDetails")
	list := symbol.Symbol{Kind: symbol.Collection{Elem: &elem}}

	w := newWriter()
	require.NoError(t, w.WriteInline("$T", list))
	assert.Equal(t, "[]*StormDetails", w.String())

	key := stringSym()
	value := symbol.Symbol{Name: "float64", Kind: symbol.Scalar{}}
	m := symbol.Symbol{Kind: symbol.MapKind{Key: &key, Value: &value}}

	w = newWriter()
	require.NoError(t, w.WriteInline("$T", m))
	assert.Equal(t, "map[string]float64", w.String())
}

func TestSparseCollectionRender(t *testing.T) {
	elem := symbol.Symbol{Name: "string", Kind: symbol.Scalar{}, Pointable: true}
	list := symbol.Symbol{Kind: symbol.Collection{Elem: &elem}}

	w := newWriter()
	require.NoError(t, w.WriteInline("$T", list))
	assert.Equal(t, "[]*string", w.String())
}

func TestDependencyPlaceholder(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.Write("client wiring$D", deps.RuntimeHTTP()))
	assert.Equal(t, "client wiring\n", w.String(), "$D emits no text")
	assert.Zero(t, w.Imports().Len(), "$D registers no import")

	modules := w.Tracker().Modules()
	require.Len(t, modules, 2, "transitive parent flattens into the manifest")
	assert.Equal(t, "github.com/teranos/wirerpc", modules[0].Source)
	assert.Equal(t, "github.com/teranos/wirerpc-http", modules[1].Source)
}

func TestWritableScopedState(t *testing.T) {
	block := render.Writable(func(inner *render.GoWriter) error {
		inner.Indent()
		return inner.Write("probe()")
	})

	w := newWriter()
	require.NoError(t, w.Write("if ok {\n$W}", block))
	assert.Equal(t, "if ok {\n\tprobe()\n}\n", w.String())
}

func TestJoinSkipsEmptyParts(t *testing.T) {
	part := func(text string) render.Writable {
		return func(w *render.GoWriter) error { return w.WriteInline(text) }
	}

	w := newWriter()
	require.NoError(t, w.WriteInline("$W", render.Join(", ", part("a"), render.Noop(), part("b"))))
	assert.Equal(t, "a, b", w.String())
}

func TestForEach(t *testing.T) {
	w := newWriter()
	items := []string{"north", "south"}
	err := w.WriteInline("$W", render.ForEach(items, func(w *render.GoWriter, item string) error {
		return w.Write("region($S)", item)
	}))
	require.NoError(t, err)
	assert.Equal(t, "region(\"north\")\nregion(\"south\")\n", w.String())
}

func TestPeekLeaksNothing(t *testing.T) {
	w := newWriter()
	text, err := w.Peek(func(f *render.GoWriter) error {
		f.Use(deps.RuntimeJSON())
		return f.Write("probe $T", timeSym())
	})
	require.NoError(t, err)
	assert.Contains(t, text, "probe time.Time")

	assert.Zero(t, w.Len())
	assert.Zero(t, w.Imports().Len())
	assert.Empty(t, w.Tracker().All())
}

func TestForkMergeCommits(t *testing.T) {
	w := newWriter()
	require.NoError(t, w.Write("before()"))

	f := w.Fork()
	f.Use(deps.Runtime())
	require.NoError(t, f.Write("merged()"))
	w.Merge(f)

	assert.Equal(t, "before()\nmerged()\n", w.String())
	assert.Equal(t, 1, w.Imports().Len())

	modules := w.Tracker().Modules()
	require.Len(t, modules, 1)
	assert.Equal(t, "github.com/teranos/wirerpc", modules[0].Source)
}

func TestFinalizeAssemblesFile(t *testing.T) {
	w := newWriter()
	w.Use(deps.RuntimeMiddleware())
	w.AddImport("context", "")
	require.NoError(t, w.Write("func run(ctx context.Context) {}"))

	out, err := w.Finalize()
	require.NoError(t, err)
	text := string(out)

	want := "// Code generated by wiregen. DO NOT EDIT.\n" +
		"\n" +
		"package weather\n" +
		"\n" +
		"import (\n" +
		"\t\"context\"\n" +
		"\n" +
		"\t\"github.com/teranos/wirerpc/middleware\"\n" +
		")\n" +
		"\n" +
		"func run(ctx context.Context) {}\n"
	assert.Equal(t, want, text)
}

func TestFinalizeSpellsNonDefaultAlias(t *testing.T) {
	w := newWriter()
	w.Use(deps.RuntimeJSON())
	require.NoError(t, w.Write("var _ = wirejson.Marshal"))

	out, err := w.Finalize()
	require.NoError(t, err)
	assert.Contains(t, string(out), "wirejson \"github.com/teranos/wirerpc/encoding/json\"")
}

func TestFinalizePackageDoc(t *testing.T) {
	w := newWriter()
	w.PackageDoc("Package weather is a generated client.")

	out, err := w.Finalize()
	require.NoError(t, err)
	assert.Contains(t, string(out),
		"// Package weather is a generated client.\npackage weather\n")
}

func TestFinalizeUnbalancedState(t *testing.T) {
	w := newWriter()
	w.PushState()
	_, err := w.Finalize()
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.Contains(t, err.Error(), "left pushed")

	w = newWriter()
	w.Indent()
	_, err = w.Finalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indent level 1 left open")
}

func TestDedentBelowZeroSticks(t *testing.T) {
	w := newWriter()
	w.Dedent()
	require.Error(t, w.Err())
	assert.True(t, errors.IsRenderError(w.Err()))

	// Later writes are no-ops and Finalize surfaces the recorded error.
	w.P("unreachable()")
	_, err := w.Finalize()
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
}

func TestIndentAppliesAtLineStarts(t *testing.T) {
	w := newWriter()
	w.P("func f() {")
	w.Indent()
	w.P("a := 1")
	w.P("return a")
	w.Dedent()
	w.P("}")
	require.NoError(t, w.Err())
	assert.Equal(t, "func f() {\n\ta := 1\n\treturn a\n}\n", w.String())
}

func TestWriteDocsWraps(t *testing.T) {
	w := newWriter()
	long := strings.Repeat("forecast ", 30)
	w.WriteDocs(long)

	for _, line := range strings.Split(strings.TrimSuffix(w.String(), "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "// "), "line %q", line)
		assert.LessOrEqual(t, len(line), 80)
	}
}

func TestWriteDocsParagraphs(t *testing.T) {
	w := newWriter()
	w.WriteDocs("First paragraph.\n\nSecond paragraph.")
	assert.Equal(t, "// First paragraph.\n//\n// Second paragraph.\n", w.String())
}

func TestWriteDeprecated(t *testing.T) {
	w := newWriter()
	w.WriteDeprecated("use GetForecastV2 instead.")
	assert.Equal(t, "//\n// Deprecated: use GetForecastV2 instead.\n", w.String())
}

func TestAliasSuffixOnConflict(t *testing.T) {
	w := newWriter()
	first := w.AddImport("github.com/a/codec", "")
	second := w.AddImport("github.com/b/codec", "")
	assert.Equal(t, "codec", first)
	assert.Equal(t, "codec2", second)
}
