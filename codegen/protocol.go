package codegen

import (
	"sort"
	"strings"
	"sync"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/logger"
	"github.com/teranos/wiregen/model"
)

// ProtocolGenerator emits everything tied to a wire protocol: operation
// serializers and deserializers, and the transport wiring the client binds
// them with. The orchestrator stays protocol-agnostic.
type ProtocolGenerator interface {
	// ID is the protocol trait shape id, e.g. "wiregen.protocols#httpJson".
	ID() string

	GenerateSerializers(ctx *Context) error
	GenerateDeserializers(ctx *Context) error

	// GenerateTransport emits request building, endpoint resolution, and
	// auth scheme wiring for the client.
	GenerateTransport(ctx *Context) error
}

// ProtocolRegistry maps protocol trait ids to generators.
type ProtocolRegistry struct {
	mu        sync.RWMutex
	protocols map[string]ProtocolGenerator
}

// NewProtocolRegistry returns an empty registry.
func NewProtocolRegistry() *ProtocolRegistry {
	return &ProtocolRegistry{protocols: make(map[string]ProtocolGenerator)}
}

// Register adds a protocol generator; duplicate ids fail.
func (r *ProtocolRegistry) Register(p ProtocolGenerator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ID()
	if id == "" {
		return errors.New("protocol generator has no id")
	}
	if _, exists := r.protocols[id]; exists {
		return errors.Newf("protocol already registered: %s", id)
	}
	r.protocols[id] = p
	return nil
}

// Get looks a protocol up by trait id.
func (r *ProtocolRegistry) Get(id string) (ProtocolGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.protocols[id]
	return p, ok
}

// IDs returns registered protocol ids sorted.
func (r *ProtocolRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.protocols))
	for id := range r.protocols {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve picks the generator for a service: the first modeled protocol
// with a registered generator wins, in sorted trait order. When nothing
// modeled is registered the configured fallback applies with a warning;
// with the fallback disabled resolution is fatal and names both sides of
// the mismatch.
func (r *ProtocolRegistry) Resolve(service *model.Shape, settings Settings) (ProtocolGenerator, error) {
	modeled := service.Traits.Protocols()
	for _, id := range modeled {
		if p, ok := r.Get(id); ok {
			return p, nil
		}
	}

	if settings.ProtocolFallback != "" {
		fallbackID := model.ProtocolTraitPrefix + settings.ProtocolFallback
		if p, ok := r.Get(fallbackID); ok {
			logger.Warnw("no modeled protocol is registered, falling back",
				"service", string(service.ID),
				"modeled", modeled,
				"fallback", fallbackID)
			return p, nil
		}
	}

	return nil, errors.Wrapf(errors.ErrUnsupportedProtocol,
		"service %s models [%s], registered protocols are [%s]",
		service.ID, strings.Join(modeled, ", "), strings.Join(r.IDs(), ", "))
}

var (
	defaultProtocolsOnce sync.Once
	defaultProtocols     *ProtocolRegistry
)

// DefaultProtocols returns the process-wide protocol registry.
func DefaultProtocols() *ProtocolRegistry {
	defaultProtocolsOnce.Do(func() {
		defaultProtocols = NewProtocolRegistry()
	})
	return defaultProtocols
}

// RegisterProtocol registers into the process-wide registry.
func RegisterProtocol(p ProtocolGenerator) error {
	return DefaultProtocols().Register(p)
}
