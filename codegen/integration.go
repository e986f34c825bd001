package codegen

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/symbol"
	"github.com/teranos/wiregen/version"
)

// Integration extends a generation run. Implementations hook model
// preprocessing, symbol decoration, protocol registration, client wiring,
// and post-walk file generation without touching the orchestrator.
type Integration interface {
	Name() string

	// Priority orders integrations; lower runs earlier, ties keep
	// registration order.
	Priority() byte

	// VersionConstraint is a semver range the running wiregen must satisfy
	// for the integration to load. Empty accepts any version.
	VersionConstraint() string

	// Preprocess may rewrite the model before symbol resolution.
	Preprocess(m *model.Model, settings Settings) error

	// DecorateSymbols may wrap the symbol provider.
	DecorateSymbols(p symbol.Provider) symbol.Provider

	// ProtocolGenerators contributes protocol generators. Ids already held
	// by the run's registry are skipped, so re-running is safe.
	ProtocolGenerators() []ProtocolGenerator

	// ClientPlugins contributes client-level codegen: Options config
	// fields, middleware registrars applied to every operation stack, and
	// auth schemes offered to the resolver.
	ClientPlugins() []ClientPlugin

	// Finish runs after the shape walk and before flush; additional files
	// go through ctx.Files.
	Finish(ctx *Context) error
}

// ConfigField is an Options struct field a client plugin adds to the
// generated client.
type ConfigField struct {
	Name string
	Type symbol.Symbol
	Docs string
}

// AuthSchemeDef names an auth scheme a client plugin makes available to
// the generated scheme resolver.
type AuthSchemeDef struct {
	ID string
}

// ClientPlugin carries one integration's client wiring. Middleware
// registrars are function symbols with the signature
// func(*middleware.Stack, Options) error, invoked for every operation.
type ClientPlugin struct {
	ConfigFields         []ConfigField
	MiddlewareRegistrars []symbol.Symbol
	AuthSchemes          []AuthSchemeDef
}

// NopIntegration is an embeddable base supplying neutral hook behavior.
// Embedders override Name and whichever hooks they need.
type NopIntegration struct{}

func (NopIntegration) Priority() byte            { return 128 }
func (NopIntegration) VersionConstraint() string { return "" }

func (NopIntegration) Preprocess(*model.Model, Settings) error { return nil }

func (NopIntegration) DecorateSymbols(p symbol.Provider) symbol.Provider { return p }

func (NopIntegration) ProtocolGenerators() []ProtocolGenerator { return nil }

func (NopIntegration) ClientPlugins() []ClientPlugin { return nil }

func (NopIntegration) Finish(*Context) error { return nil }

// IntegrationRegistry manages registered integrations for one wiregen
// version.
type IntegrationRegistry struct {
	mu           sync.RWMutex
	version      string
	integrations []Integration
	registered   map[string]struct{}
}

// NewIntegrationRegistry builds a registry validating constraints against
// wiregenVersion.
func NewIntegrationRegistry(wiregenVersion string) *IntegrationRegistry {
	return &IntegrationRegistry{
		version:    wiregenVersion,
		registered: make(map[string]struct{}),
	}
}

// Register adds an integration. Name conflicts and unsatisfied version
// constraints fail registration.
func (r *IntegrationRegistry) Register(i Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := i.Name()
	if name == "" {
		return errors.New("integration has no name")
	}
	if _, exists := r.registered[name]; exists {
		return errors.Newf("integration already registered: %s", name)
	}
	if err := r.validateConstraint(i.VersionConstraint()); err != nil {
		return errors.Wrapf(err, "integration %s", name)
	}

	r.registered[name] = struct{}{}
	r.integrations = append(r.integrations, i)
	return nil
}

// All returns registered integrations ordered by priority byte. Equal
// priorities stay in registration order. The order is the run order.
func (r *IntegrationRegistry) All() []Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Integration, len(r.integrations))
	copy(out, r.integrations)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Priority() < out[b].Priority()
	})
	return out
}

// Names returns registered integration names sorted.
func (r *IntegrationRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.integrations))
	for _, i := range r.integrations {
		names = append(names, i.Name())
	}
	sort.Strings(names)
	return names
}

func (r *IntegrationRegistry) validateConstraint(constraint string) error {
	if constraint == "" {
		return nil
	}
	ver, err := semver.NewVersion(r.version)
	if err != nil {
		return errors.Wrapf(err, "invalid wiregen version %s", r.version)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", constraint)
	}
	if !c.Check(ver) {
		return errors.Newf("requires wiregen %s, but running %s", constraint, r.version)
	}
	return nil
}

var (
	defaultIntegrationsOnce sync.Once
	defaultIntegrations     *IntegrationRegistry
)

// DefaultIntegrations returns the process-wide registry, validating
// against the running binary's version.
func DefaultIntegrations() *IntegrationRegistry {
	defaultIntegrationsOnce.Do(func() {
		defaultIntegrations = NewIntegrationRegistry(version.Semver())
	})
	return defaultIntegrations
}

// RegisterIntegration registers into the process-wide registry.
func RegisterIntegration(i Integration) error {
	return DefaultIntegrations().Register(i)
}
