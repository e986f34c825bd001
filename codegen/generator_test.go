package codegen

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
)

type stubProtocol struct{}

func (stubProtocol) ID() string                          { return model.ProtocolTraitPrefix + "httpJson" }
func (stubProtocol) GenerateSerializers(*Context) error   { return nil }
func (stubProtocol) GenerateDeserializers(*Context) error { return nil }
func (stubProtocol) GenerateTransport(*Context) error     { return nil }

func testRegistries(t *testing.T) (*IntegrationRegistry, *ProtocolRegistry) {
	t.Helper()
	protocols := NewProtocolRegistry()
	require.NoError(t, protocols.Register(stubProtocol{}))
	return NewIntegrationRegistry("1.0.0"), protocols
}

func decodeModel(t *testing.T, doc string) *model.Model {
	t.Helper()
	m, err := model.Decode([]byte(doc), model.FormatJSON)
	require.NoError(t, err)
	return m
}

func TestRunWritesCompleteUnit(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")
	g.UseRegistries(testRegistries(t))

	settings := fixtureSettings()
	settings.LanguageDirective = "1.22"

	results, err := g.Run(decodeModel(t, weatherDoc), settings)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, model.ShapeID("example.weather#Weather"), res.Service)
	assert.Equal(t, "weather", res.Package)
	assert.Equal(t, "out", res.OutputDir)
	assert.Equal(t, []string{
		"api_client.go",
		"api_op_GetForecast.go",
		"api_op_PutAlert.go",
		"doc.go",
		"enums.go",
		"errors.go",
		"go.mod",
		"go_module_metadata.go",
		"types.go",
		"validators.go",
	}, res.Files)

	client, err := afero.ReadFile(fs, "out/api_client.go")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(client), "// Code generated by wiregen. DO NOT EDIT."))
	assert.Contains(t, string(client), `const ServiceID = "Weather"`)

	manifest, err := afero.ReadFile(fs, "out/go.mod")
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "module example.com/gen/weather")
	assert.Contains(t, string(manifest), "go 1.22")
	assert.Contains(t, string(manifest), "github.com/teranos/wirerpc v1.4.0")
	assert.Contains(t, string(manifest), "github.com/teranos/wirerpc-http v1.2.0")

	metadata, err := afero.ReadFile(fs, "out/go_module_metadata.go")
	require.NoError(t, err)
	assert.Contains(t, string(metadata), `const goModuleVersion = "0.0.1"`)

	// Window is referenced by a member, a list, and a map; it is emitted
	// exactly once.
	types, err := afero.ReadFile(fs, "out/types.go")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(types), "type Window struct {"))
	assert.Contains(t, string(types), "type UnknownUnionMember struct {")
}

func TestRunDeterministic(t *testing.T) {
	runOnce := func() map[string]string {
		fs := afero.NewMemMapFs()
		g := NewGenerator(fs, "out")
		g.UseRegistries(testRegistries(t))

		results, err := g.Run(decodeModel(t, weatherDoc), fixtureSettings())
		require.NoError(t, err)
		require.Len(t, results, 1)

		out := make(map[string]string, len(results[0].Files))
		for _, name := range results[0].Files {
			content, err := afero.ReadFile(fs, filepath.Join("out", name))
			require.NoError(t, err)
			out[name] = string(content)
		}
		return out
	}

	assert.Equal(t, runOnce(), runOnce())
}

const multiServiceDoc = `{
	"model": "1.0",
	"shapes": {
		"example.multi#Alpha": {
			"type": "service",
			"version": "1",
			"traits": {"wiregen.protocols#httpJson": {}}
		},
		"example.multi#Beta": {
			"type": "service",
			"version": "1",
			"traits": {"wiregen.protocols#httpJson": {}}
		}
	}
}`

func TestRunMultiServiceSubdirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")
	g.UseRegistries(testRegistries(t))

	settings := DefaultSettings()
	settings.ModuleName = "example.com/multi"
	settings.GenerateModuleManifest = true

	results, err := g.Run(decodeModel(t, multiServiceDoc), settings)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, model.ShapeID("example.multi#Alpha"), results[0].Service)
	assert.Equal(t, "alpha", results[0].Package)
	assert.Equal(t, filepath.Join("out", "alpha"), results[0].OutputDir)
	assert.Equal(t, model.ShapeID("example.multi#Beta"), results[1].Service)
	assert.Equal(t, filepath.Join("out", "beta"), results[1].OutputDir)

	alphaMod, err := afero.ReadFile(fs, "out/alpha/go.mod")
	require.NoError(t, err)
	assert.Contains(t, string(alphaMod), "module example.com/multi/alpha")

	_, err = afero.ReadFile(fs, "out/beta/api_client.go")
	require.NoError(t, err)
}

func TestRunServiceFilterEnv(t *testing.T) {
	t.Setenv(ServiceFilterEnv, "example.multi#Beta")

	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")
	g.UseRegistries(testRegistries(t))

	settings := DefaultSettings()
	settings.ModuleName = "example.com/multi"

	results, err := g.Run(decodeModel(t, multiServiceDoc), settings)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// A single surviving service emits directly into the output dir under
	// the configured module name.
	assert.Equal(t, model.ShapeID("example.multi#Beta"), results[0].Service)
	assert.Equal(t, "multi", results[0].Package)
	assert.Equal(t, "out", results[0].OutputDir)
}

func TestRunNomatchingServices(t *testing.T) {
	t.Setenv(ServiceFilterEnv, "example.elsewhere#")

	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")
	g.UseRegistries(testRegistries(t))

	settings := DefaultSettings()
	settings.ModuleName = "example.com/multi"

	_, err := g.Run(decodeModel(t, multiServiceDoc), settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching service")
}

const grpcOnlyDoc = `{
	"model": "1.0",
	"shapes": {
		"example.grpc#Streamer": {
			"type": "service",
			"version": "1",
			"traits": {"wiregen.protocols#grpc": {}}
		}
	}
}`

func TestRunUnresolvableProtocol(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")
	g.UseRegistries(testRegistries(t))

	settings := DefaultSettings()
	settings.ModuleName = "example.com/streamer"
	settings.ProtocolFallback = ""

	_, err := g.Run(decodeModel(t, grpcOnlyDoc), settings)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedProtocolError(err))
	assert.Contains(t, err.Error(), "wiregen.protocols#grpc")

	// Nothing may reach the filesystem on a failed run.
	exists, err := afero.DirExists(fs, "out")
	require.NoError(t, err)
	assert.False(t, exists)
}

type grpcProtocol struct{ stubProtocol }

func (grpcProtocol) ID() string { return model.ProtocolTraitPrefix + "grpc" }

const splitProtocolDoc = `{
	"model": "1.0",
	"shapes": {
		"example.multi#Alpha": {
			"type": "service",
			"version": "1",
			"traits": {"wiregen.protocols#httpJson": {}}
		},
		"example.multi#Beta": {
			"type": "service",
			"version": "1",
			"traits": {"wiregen.protocols#grpc": {}}
		}
	}
}`

func TestRunContinuesPastFailedService(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")

	protocols := NewProtocolRegistry()
	require.NoError(t, protocols.Register(grpcProtocol{}))
	g.UseRegistries(NewIntegrationRegistry("1.0.0"), protocols)

	settings := DefaultSettings()
	settings.ModuleName = "example.com/multi"
	settings.ProtocolFallback = ""

	// Alpha has no registered protocol and no fallback; Beta still
	// generates into its own subdirectory.
	results, err := g.Run(decodeModel(t, splitProtocolDoc), settings)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedProtocolError(err))
	assert.Contains(t, err.Error(), "service example.multi#Alpha")

	require.Len(t, results, 1)
	assert.Equal(t, model.ShapeID("example.multi#Beta"), results[0].Service)

	exists, err := afero.DirExists(fs, "out/beta")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.DirExists(fs, "out/alpha")
	require.NoError(t, err)
	assert.False(t, exists)
}

type stampIntegration struct {
	NopIntegration
	preprocessed int
}

func (s *stampIntegration) Name() string { return "stamp" }

func (s *stampIntegration) Preprocess(*model.Model, Settings) error {
	s.preprocessed++
	return nil
}

func (s *stampIntegration) Finish(ctx *Context) error {
	w := ctx.Files.File("stamp.go")
	w.P("const generatorStamp = $S", ctx.Settings.ModuleName)
	return w.Err()
}

func TestRunIntegrationHooks(t *testing.T) {
	integrations, protocols := testRegistries(t)
	stamp := &stampIntegration{}
	require.NoError(t, integrations.Register(stamp))

	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")
	g.UseRegistries(integrations, protocols)

	results, err := g.Run(decodeModel(t, weatherDoc), fixtureSettings())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, stamp.preprocessed)
	assert.Contains(t, results[0].Files, "stamp.go")

	content, err := afero.ReadFile(fs, "out/stamp.go")
	require.NoError(t, err)
	assert.Contains(t, string(content), `const generatorStamp = "example.com/gen/weather"`)
}

type testIntegration struct {
	NopIntegration
	name       string
	priority   byte
	constraint string
}

func (i testIntegration) Name() string              { return i.name }
func (i testIntegration) Priority() byte            { return i.priority }
func (i testIntegration) VersionConstraint() string { return i.constraint }

func TestIntegrationRegistryOrdering(t *testing.T) {
	r := NewIntegrationRegistry("1.2.3")
	require.NoError(t, r.Register(testIntegration{name: "c", priority: 10}))
	require.NoError(t, r.Register(testIntegration{name: "a", priority: 200}))
	require.NoError(t, r.Register(testIntegration{name: "b", priority: 10}))

	var names []string
	for _, i := range r.All() {
		names = append(names, i.Name())
	}
	// Equal priorities keep registration order: c before b.
	assert.Equal(t, []string{"c", "b", "a"}, names)
}

type protocolIntegration struct {
	NopIntegration
}

func (protocolIntegration) Name() string { return "protocol-contrib" }
func (protocolIntegration) ProtocolGenerators() []ProtocolGenerator {
	return []ProtocolGenerator{stubProtocol{}}
}

func TestRunIntegrationContributedProtocol(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := NewGenerator(fs, "out")

	// The registry starts empty; the integration supplies the generator.
	integrations := NewIntegrationRegistry("1.0.0")
	require.NoError(t, integrations.Register(protocolIntegration{}))
	g.UseRegistries(integrations, NewProtocolRegistry())

	results, err := g.Run(decodeModel(t, weatherDoc), fixtureSettings())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.ShapeID("example.weather#Weather"), results[0].Service)
}

func TestIntegrationRegistryVersionConstraint(t *testing.T) {
	r := NewIntegrationRegistry("1.2.3")
	require.NoError(t, r.Register(testIntegration{name: "compatible", constraint: ">= 1.0.0 < 2.0.0"}))

	err := r.Register(testIntegration{name: "future", constraint: ">= 2.0.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires wiregen >= 2.0.0, but running 1.2.3")
}

func TestIntegrationRegistryDuplicate(t *testing.T) {
	r := NewIntegrationRegistry("1.2.3")
	require.NoError(t, r.Register(testIntegration{name: "dup"}))

	err := r.Register(testIntegration{name: "dup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func protocolService(t *testing.T, traits ...string) *model.Shape {
	t.Helper()
	svc := &model.Shape{ID: "example.proto#Svc", Type: model.ShapeTypeService}
	for _, name := range traits {
		require.NoError(t, svc.Traits.Set(name, struct{}{}))
	}
	return svc
}

func TestProtocolRegistryResolveModeled(t *testing.T) {
	r := NewProtocolRegistry()
	require.NoError(t, r.Register(stubProtocol{}))

	svc := protocolService(t, model.ProtocolTraitPrefix+"httpJson")
	p, err := r.Resolve(svc, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, stubProtocol{}.ID(), p.ID())
}

func TestProtocolRegistryResolveFallback(t *testing.T) {
	r := NewProtocolRegistry()
	require.NoError(t, r.Register(stubProtocol{}))

	svc := protocolService(t, model.ProtocolTraitPrefix+"grpc")
	p, err := r.Resolve(svc, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, stubProtocol{}.ID(), p.ID())
}

func TestProtocolRegistryResolveFatal(t *testing.T) {
	r := NewProtocolRegistry()
	require.NoError(t, r.Register(stubProtocol{}))

	settings := DefaultSettings()
	settings.ProtocolFallback = ""

	svc := protocolService(t, model.ProtocolTraitPrefix+"grpc")
	_, err := r.Resolve(svc, settings)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedProtocolError(err))
	assert.Contains(t, err.Error(), "wiregen.protocols#grpc")
	assert.Contains(t, err.Error(), "wiregen.protocols#httpJson")
}

func TestProtocolRegistryDuplicate(t *testing.T) {
	r := NewProtocolRegistry()
	require.NoError(t, r.Register(stubProtocol{}))
	require.Error(t, r.Register(stubProtocol{}))
}

func TestDelegatorSharesTracker(t *testing.T) {
	d := NewDelegator("weather", "example.com/gen/weather")
	d.File("a.go").Use(deps.Runtime())
	d.File("b.go").Use(deps.RuntimeHTTP())

	modules := d.Tracker().Modules()
	require.Len(t, modules, 2)
	assert.Equal(t, "github.com/teranos/wirerpc", modules[0].Source)
	assert.Equal(t, "github.com/teranos/wirerpc-http", modules[1].Source)
}

func TestDelegatorReturnsSameWriter(t *testing.T) {
	d := NewDelegator("weather", "example.com/gen/weather")
	assert.Same(t, d.File("types.go"), d.File("types.go"))
}

func TestDelegatorFinalizeAccumulates(t *testing.T) {
	d := NewDelegator("weather", "example.com/gen/weather")
	d.File("a.go").P("const A = 1")

	b := d.File("b.go")
	b.Indent()
	b.P("const B = 2")

	c := d.File("c.go")
	c.PushState()
	c.P("const C = 3")

	out, err := d.Finalize()
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "file b.go")
	assert.Contains(t, err.Error(), "file c.go")
}

func TestDelegatorFinalizeSkipsEmpty(t *testing.T) {
	d := NewDelegator("weather", "example.com/gen/weather")
	d.File("used.go").P("const A = 1")
	d.File("untouched.go")

	out, err := d.Finalize()
	require.NoError(t, err)
	assert.Contains(t, out, "used.go")
	assert.NotContains(t, out, "untouched.go")
}

func TestUnitSettings(t *testing.T) {
	base := fixtureSettings()
	svc := &model.Shape{ID: "example.weather#Weather", Type: model.ShapeTypeService}

	single := unitSettings(base, svc, false)
	assert.Equal(t, base.ModuleName, single.ModuleName)
	assert.Equal(t, svc.ID, single.Service)

	multi := unitSettings(base, svc, true)
	assert.Equal(t, "example.com/gen/weather/weather", multi.ModuleName)
	assert.Equal(t, "weather", multi.PackageName())
}
