package model

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/teranos/wiregen/errors"
)

// Trait names understood by the generator. Traits are an open vocabulary;
// unknown names load fine and simply have no generator-side effect.
const (
	TraitRequired      = "required"
	TraitDefault       = "default"
	TraitDocumentation = "documentation"
	TraitDeprecated    = "deprecated"
	TraitStreaming     = "streaming"
	TraitSparse        = "sparse"
	TraitUniqueItems   = "uniqueItems"
	TraitEnumValue     = "enumValue"
	TraitError         = "error"
	TraitAuth          = "auth"
	TraitHTTP          = "http"
	TraitHTTPLabel     = "httpLabel"
	TraitHTTPQuery     = "httpQuery"
	TraitHTTPHeader    = "httpHeader"
	TraitHTTPPayload   = "httpPayload"
	TraitEndpointRules = "endpointRuleSet"

	// TraitSynthetic marks shapes the preprocessor created (operation
	// input/output wrappers). They live in SyntheticNamespace.
	TraitSynthetic = "synthetic"
)

// ProtocolTraitPrefix namespaces protocol declarations on service shapes.
// A service declaring {"wiregen.protocols#httpJson": {}} speaks that protocol.
const ProtocolTraitPrefix = "wiregen.protocols#"

// SyntheticNamespace holds generated operation IO wrappers.
const SyntheticNamespace = "wiregen.synthetic"

// TraitSet is the open annotation bag attached to shapes and members. Values
// are kept raw; typed accessors decode on demand.
type TraitSet map[string]json.RawMessage

// Clone copies the set. Raw values are shared; they are never mutated.
func (ts TraitSet) Clone() TraitSet {
	if ts == nil {
		return nil
	}
	c := make(TraitSet, len(ts))
	for k, v := range ts {
		c[k] = v
	}
	return c
}

// Has reports trait presence regardless of value.
func (ts TraitSet) Has(name string) bool {
	_, ok := ts[name]
	return ok
}

// Get decodes the trait value into out.
func (ts TraitSet) Get(name string, out interface{}) error {
	raw, ok := ts[name]
	if !ok {
		return errors.Newf("trait %q not present", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decoding trait %q", name)
	}
	return nil
}

// Set stores a trait value, allocating the map if needed. Used by the loader
// and transforms only.
func (ts *TraitSet) Set(name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding trait %q", name)
	}
	if *ts == nil {
		*ts = make(TraitSet)
	}
	(*ts)[name] = raw
	return nil
}

// Required reports the required trait.
func (ts TraitSet) Required() bool { return ts.Has(TraitRequired) }

// HasDefault reports whether a default value is modeled.
func (ts TraitSet) HasDefault() bool { return ts.Has(TraitDefault) }

// DefaultValue returns the raw default value.
func (ts TraitSet) DefaultValue() (json.RawMessage, bool) {
	raw, ok := ts[TraitDefault]
	return raw, ok
}

// Streaming reports the streaming trait.
func (ts TraitSet) Streaming() bool { return ts.Has(TraitStreaming) }

// Sparse reports the sparse trait (collections admitting null elements).
func (ts TraitSet) Sparse() bool { return ts.Has(TraitSparse) }

// UniqueItems reports set semantics on a list shape.
func (ts TraitSet) UniqueItems() bool { return ts.Has(TraitUniqueItems) }

// Synthetic reports whether the preprocessor created this shape.
func (ts TraitSet) Synthetic() bool { return ts.Has(TraitSynthetic) }

// Documentation returns the doc string.
func (ts TraitSet) Documentation() (string, bool) {
	var s string
	if err := ts.Get(TraitDocumentation, &s); err != nil {
		return "", false
	}
	return s, true
}

// DeprecatedTrait carries the deprecation annotation.
type DeprecatedTrait struct {
	Message string `json:"message"`
	Since   string `json:"since"`
}

// Deprecated returns the deprecation annotation if present.
func (ts TraitSet) Deprecated() (DeprecatedTrait, bool) {
	var d DeprecatedTrait
	if !ts.Has(TraitDeprecated) {
		return d, false
	}
	// The trait may be a bare marker ({}), a string, or the full form.
	raw := ts[TraitDeprecated]
	if err := json.Unmarshal(raw, &d); err != nil {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			d.Message = msg
		}
	}
	return d, true
}

// EnumStringValue returns the wire value of an enum member, defaulting to the
// member name when the trait is absent.
func (ts TraitSet) EnumStringValue(memberName string) string {
	var s string
	if err := ts.Get(TraitEnumValue, &s); err != nil {
		return memberName
	}
	return s
}

// EnumIntValue returns the wire value of an intEnum member.
func (ts TraitSet) EnumIntValue() (int64, bool) {
	var n int64
	if err := ts.Get(TraitEnumValue, &n); err != nil {
		return 0, false
	}
	return n, true
}

// ErrorFault returns "client" or "server" for error structures.
func (ts TraitSet) ErrorFault() (string, bool) {
	var s string
	if err := ts.Get(TraitError, &s); err != nil {
		return "", false
	}
	return s, true
}

// HTTPTrait is the operation-level HTTP binding.
type HTTPTrait struct {
	Method string `json:"method"`
	URI    string `json:"uri"`
	Code   int    `json:"code"`
}

// HTTP returns the operation HTTP binding if modeled.
func (ts TraitSet) HTTP() (HTTPTrait, bool) {
	var h HTTPTrait
	if err := ts.Get(TraitHTTP, &h); err != nil {
		return h, false
	}
	if h.Code == 0 {
		h.Code = 200
	}
	return h, true
}

// HTTPLabel reports URI-label binding on a member.
func (ts TraitSet) HTTPLabel() bool { return ts.Has(TraitHTTPLabel) }

// HTTPQuery returns the query parameter name bound to a member.
func (ts TraitSet) HTTPQuery() (string, bool) {
	var s string
	if err := ts.Get(TraitHTTPQuery, &s); err != nil {
		return "", false
	}
	return s, true
}

// HTTPHeader returns the header name bound to a member.
func (ts TraitSet) HTTPHeader() (string, bool) {
	var s string
	if err := ts.Get(TraitHTTPHeader, &s); err != nil {
		return "", false
	}
	return s, true
}

// HTTPPayload reports whole-body binding on a member.
func (ts TraitSet) HTTPPayload() bool { return ts.Has(TraitHTTPPayload) }

// AuthSchemes returns the service's declared auth scheme ids in preference
// order. Absent trait means anonymous access.
func (ts TraitSet) AuthSchemes() []string {
	var schemes []string
	if err := ts.Get(TraitAuth, &schemes); err != nil {
		return nil
	}
	return schemes
}

// Protocols returns the protocol trait ids declared on a service, sorted.
func (ts TraitSet) Protocols() []string {
	var out []string
	for name := range ts {
		if strings.HasPrefix(name, ProtocolTraitPrefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// HasEndpointRules reports whether the service models endpoint resolution
// rules. The rule content itself is opaque to the core generator.
func (ts TraitSet) HasEndpointRules() bool { return ts.Has(TraitEndpointRules) }
