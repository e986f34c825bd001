package codegen

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/logger"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/model/transform"
	"github.com/teranos/wiregen/symbol"
)

// Phase names a stage of the run state machine. Phases advance strictly
// forward; any failure before Flush aborts the run with nothing written,
// so output on disk is always a complete unit.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhasePreprocess      Phase = "preprocess"
	PhaseResolveProtocol Phase = "resolveProtocol"
	PhaseWalkShapes      Phase = "walkShapes"
	PhaseAggregate       Phase = "aggregate"
	PhaseFlush           Phase = "flush"
	PhaseWriteManifest   Phase = "writeManifest"
)

// ServiceFilterEnv narrows which services generate when no service
// setting is present: comma-separated shape id prefixes. Empty or unset
// keeps every service.
const ServiceFilterEnv = "WIREGEN_SERVICES"

const defaultGoDirective = "1.21"

// Result summarizes one generated unit.
type Result struct {
	Service   model.ShapeID
	Package   string
	OutputDir string
	Files     []string
	Duration  time.Duration
}

// Generator drives generation runs end to end. One Generator serves many
// runs; per-run state lives in the Context.
type Generator struct {
	fs           afero.Fs
	outputDir    string
	integrations *IntegrationRegistry
	protocols    *ProtocolRegistry
}

// NewGenerator builds a generator writing under outputDir on fs, using
// the process-wide integration and protocol registries. Check mode passes
// a memory filesystem here to stage a comparison run.
func NewGenerator(fs afero.Fs, outputDir string) *Generator {
	return &Generator{
		fs:           fs,
		outputDir:    outputDir,
		integrations: DefaultIntegrations(),
		protocols:    DefaultProtocols(),
	}
}

// UseRegistries swaps the registries, keeping runs independent of
// process-global registration.
func (g *Generator) UseRegistries(integrations *IntegrationRegistry, protocols *ProtocolRegistry) {
	g.integrations = integrations
	g.protocols = protocols
}

// Run generates every selected service of the model. The model is cloned
// before preprocessing, so callers may reuse it across runs.
func (g *Generator) Run(m *model.Model, settings Settings) ([]Result, error) {
	runID := uuid.NewString()
	g.phase(runID, PhaseInit, "module", settings.ModuleName)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	mode, err := settings.MemberMode()
	if err != nil {
		return nil, err
	}

	g.phase(runID, PhasePreprocess)
	integrations := g.integrations.All()
	for _, integ := range integrations {
		for _, pg := range integ.ProtocolGenerators() {
			if _, ok := g.protocols.Get(pg.ID()); ok {
				continue
			}
			if err := g.protocols.Register(pg); err != nil {
				return nil, errors.Wrapf(err, "integration %s protocol %s", integ.Name(), pg.ID())
			}
		}
	}
	work := m.Clone()
	for _, integ := range integrations {
		if err := integ.Preprocess(work, settings); err != nil {
			return nil, errors.Wrapf(err, "integration %s preprocess", integ.Name())
		}
	}
	work, err = transform.Apply(work, transform.Default())
	if err != nil {
		return nil, err
	}

	services, err := selectServices(work, settings)
	if err != nil {
		return nil, err
	}

	multi := len(services) > 1
	results := make([]Result, 0, len(services))
	var failed error
	for _, svc := range services {
		res, err := g.runUnit(runID, work, settings, svc, mode, multi, integrations)
		if err != nil {
			err = errors.Wrapf(err, "service %s", svc.ID)
			// Codegen and model errors mean the pipeline itself is broken;
			// no later unit can be trusted. Anything else is scoped to the
			// one service, so the remaining units still generate.
			if errors.IsCodegenError(err) || errors.IsInvalidModelError(err) {
				return nil, err
			}
			failed = multierr.Append(failed, err)
			continue
		}
		results = append(results, res)
	}
	if failed != nil {
		return results, failed
	}
	return results, nil
}

// runUnit takes one service through protocol resolution, the shape walk,
// aggregation, flush, and the manifest.
func (g *Generator) runUnit(
	runID string, m *model.Model, base Settings, svc *model.Shape,
	mode model.MemberMode, multi bool, integrations []Integration,
) (Result, error) {
	start := time.Now()
	unit := unitSettings(base, svc, multi)
	pkg := unit.PackageName()

	g.phase(runID, PhaseResolveProtocol, "service", svc.ID)
	proto, err := g.protocols.Resolve(svc, unit)
	if err != nil {
		return Result{}, err
	}

	var provider symbol.Provider = symbol.NewResolver(m, unit.ModuleName)
	var plugins []ClientPlugin
	for _, integ := range integrations {
		provider = integ.DecorateSymbols(provider)
		plugins = append(plugins, integ.ClientPlugins()...)
	}

	ctx := &Context{
		RunID:      runID,
		Model:      m,
		Settings:   unit,
		Service:    svc,
		Symbols:    provider,
		Files:      NewDelegator(pkg, unit.ModuleName),
		Protocol:   proto,
		Plugins:    plugins,
		Validation: model.NewValidationIndex(m),
		Usage:      model.NewUsageIndex(m),
		Mode:       mode,
		Aggregates: &Aggregates{},
	}

	g.phase(runID, PhaseWalkShapes, "service", svc.ID)
	if err := walkShapes(ctx); err != nil {
		return Result{}, err
	}

	g.phase(runID, PhaseAggregate, "service", svc.ID)
	if err := aggregate(ctx); err != nil {
		return Result{}, err
	}
	for _, integ := range integrations {
		if err := integ.Finish(ctx); err != nil {
			return Result{}, errors.Wrapf(err, "integration %s finish", integ.Name())
		}
	}

	g.phase(runID, PhaseFlush, "service", svc.ID)
	files, err := ctx.Files.Finalize()
	if err != nil {
		return Result{}, err
	}
	for name, src := range files {
		formatted, err := formatSource(unit, name, src)
		if err != nil {
			return Result{}, errors.Wrapf(err, "formatting %s", name)
		}
		files[name] = formatted
	}

	if unit.GenerateModuleManifest {
		g.phase(runID, PhaseWriteManifest, "service", svc.ID)
		modules := ctx.Files.Tracker().Modules()
		directive := deps.GoDirective(goDirective(unit), modules)
		manifest, err := deps.WriteGoMod(unit.ModuleName, directive, modules)
		if err != nil {
			return Result{}, err
		}
		files["go.mod"] = manifest
	}

	outDir := g.outputDir
	if multi {
		outDir = filepath.Join(g.outputDir, pkg)
	}
	if err := g.commit(outDir, files); err != nil {
		return Result{}, err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	res := Result{
		Service:   svc.ID,
		Package:   pkg,
		OutputDir: outDir,
		Files:     names,
		Duration:  time.Since(start),
	}
	logger.Infow("generated service client",
		"run_id", runID,
		"service", svc.ID,
		"package", pkg,
		"files", len(names),
		"duration", res.Duration,
	)
	return res, nil
}

// walkShapes dispatches a generator per closure shape. Each shape is
// visited at most once no matter how many members reference it.
func walkShapes(ctx *Context) error {
	ids, err := ctx.Model.ServiceClosure(ctx.Service.ID)
	if err != nil {
		return err
	}
	seen := make(map[model.ShapeID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		shape, ok := ctx.Model.Shape(id)
		if !ok {
			return errors.NewCodegenError(string(id), "closure references unknown shape")
		}
		if shape.ID.Namespace() == model.PreludeNamespace {
			continue
		}
		if err := dispatch(ctx, shape); err != nil {
			return err
		}
	}
	return nil
}

func dispatch(ctx *Context, shape *model.Shape) error {
	switch shape.Type {
	case model.ShapeTypeService:
		return generateClient(ctx, shape)
	case model.ShapeTypeOperation:
		return generateOperation(ctx, shape)
	case model.ShapeTypeStructure:
		return generateStructure(ctx, shape)
	case model.ShapeTypeUnion:
		return generateUnion(ctx, shape)
	case model.ShapeTypeEnum, model.ShapeTypeIntEnum:
		return generateEnum(ctx, shape)
	default:
		// Simple and aggregate shapes surface through the symbols of the
		// members targeting them; they emit no declarations of their own.
		return nil
	}
}

// aggregate emits the cross-cutting artifacts the walk only collected
// state for.
func aggregate(ctx *Context) error {
	if err := generateUnknownUnionMember(ctx); err != nil {
		return err
	}
	if err := generateValidators(ctx); err != nil {
		return err
	}
	if err := ctx.Protocol.GenerateSerializers(ctx); err != nil {
		return errors.Wrapf(err, "protocol %s serializers", ctx.Protocol.ID())
	}
	if err := ctx.Protocol.GenerateDeserializers(ctx); err != nil {
		return errors.Wrapf(err, "protocol %s deserializers", ctx.Protocol.ID())
	}
	if err := ctx.Protocol.GenerateTransport(ctx); err != nil {
		return errors.Wrapf(err, "protocol %s transport", ctx.Protocol.ID())
	}
	if err := generateDoc(ctx); err != nil {
		return err
	}
	return generateModuleMetadata(ctx)
}

// commit writes the finished unit. Everything is rendered and formatted
// before the first write, so a failure here is an IO problem rather than
// a half-generated unit.
func (g *Generator) commit(dir string, files map[string][]byte) error {
	if err := g.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := afero.WriteFile(g.fs, path, files[name], 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

func (g *Generator) phase(runID string, p Phase, kv ...interface{}) {
	args := append([]interface{}{"run_id", runID, "phase", p}, kv...)
	logger.Debugw("generation phase", args...)
}

// selectServices picks which services this run generates: the configured
// service if set, otherwise every service passing the environment filter.
func selectServices(m *model.Model, settings Settings) ([]*model.Shape, error) {
	if settings.Service != "" {
		svc, err := m.ExpectShape(settings.Service, model.ShapeTypeService)
		if err != nil {
			return nil, err
		}
		return []*model.Shape{svc}, nil
	}

	services := m.Services()
	if prefixes := serviceFilter(); len(prefixes) > 0 {
		kept := services[:0]
		for _, svc := range services {
			for _, prefix := range prefixes {
				if strings.HasPrefix(string(svc.ID), prefix) {
					kept = append(kept, svc)
					break
				}
			}
		}
		services = kept
	}
	if len(services) == 0 {
		return nil, errors.New("model contains no matching service shapes")
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

func serviceFilter() []string {
	raw := os.Getenv(ServiceFilterEnv)
	if raw == "" {
		return nil
	}
	var prefixes []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// unitSettings narrows run settings to one service. Multi-service runs
// nest each unit under a module subpath named for the service so the
// emitted packages cannot collide.
func unitSettings(base Settings, svc *model.Shape, multi bool) Settings {
	s := base
	s.Service = svc.ID
	if multi {
		s.ModuleName = base.ModuleName + "/" + sanitizePackage(svc.ID.Name())
	}
	return s
}

func goDirective(s Settings) string {
	if s.LanguageDirective != "" {
		return s.LanguageDirective
	}
	return defaultGoDirective
}
