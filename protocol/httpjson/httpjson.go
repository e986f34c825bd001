// Package httpjson generates the HTTP+JSON protocol binding: operation
// serializer and deserializer middleware, document codec functions for every
// shape the service exchanges, and the endpoint and auth scheme wiring the
// generated client resolves at construction time.
//
// Importing the package registers the generator for the
// "wiregen.protocols#httpJson" trait in the process-wide protocol registry.
package httpjson

import (
	"strconv"

	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
)

const protocolID = model.ProtocolTraitPrefix + "httpJson"

// Generator implements codegen.ProtocolGenerator for the HTTP+JSON binding.
// Requests carry a JSON document body; members bound with httpLabel,
// httpQuery, and httpHeader traits move into the request line and headers,
// and an httpPayload member replaces the document body entirely.
type Generator struct{}

// ID returns the protocol trait id this generator serves.
func (Generator) ID() string { return protocolID }

func init() {
	if err := codegen.RegisterProtocol(Generator{}); err != nil {
		panic(err)
	}
}

// httpBinding returns the operation's http trait, defaulting to POST at the
// root when the model leaves it off.
func httpBinding(op *model.Shape) model.HTTPTrait {
	if h, ok := op.Traits.HTTP(); ok {
		return h
	}
	return model.HTTPTrait{Method: "POST", URI: "/", Code: 200}
}

// bindingSplit partitions an input structure's members by request location.
// Streaming members that are not the payload are dropped entirely; they
// travel out of band.
type bindingSplit struct {
	labels  []model.Member
	queries []model.Member
	headers []model.Member
	payload *model.Member
	body    []model.Member
}

func (b bindingSplit) hasRestBindings() bool {
	return len(b.labels)+len(b.queries)+len(b.headers) > 0
}

func splitBindings(m *model.Model, input *model.Shape) (bindingSplit, error) {
	var split bindingSplit
	for i, member := range input.Members {
		if member.Traits.HTTPLabel() {
			split.labels = append(split.labels, member)
			continue
		}
		if _, ok := member.Traits.HTTPQuery(); ok {
			split.queries = append(split.queries, member)
			continue
		}
		if _, ok := member.Traits.HTTPHeader(); ok {
			split.headers = append(split.headers, member)
			continue
		}
		if member.Traits.HTTPPayload() {
			if split.payload != nil {
				return split, errors.NewCodegenError(string(input.ID),
					"members %q and %q both claim the http payload",
					split.payload.Name, member.Name)
			}
			split.payload = &input.Members[i]
			continue
		}
		if streamedMember(m, member) {
			continue
		}
		split.body = append(split.body, member)
	}
	if split.payload != nil && len(split.body) > 0 {
		return split, errors.NewCodegenError(string(input.ID),
			"member %q claims the http payload but %d other members bind to the body",
			split.payload.Name, len(split.body))
	}
	return split, nil
}

func streamedMember(m *model.Model, member model.Member) bool {
	if member.Traits.Streaming() {
		return true
	}
	target, ok := m.Shape(member.Target)
	return ok && target.Traits.Streaming()
}

// documentTargets returns the closure shapes needing a document codec
// function under the given usage predicate, in sorted id order. Synthetic
// operation wrappers are excluded; they get dedicated op-document
// functions.
func documentTargets(ctx *codegen.Context, used func(model.ShapeID) bool) ([]*model.Shape, error) {
	closure, err := ctx.Model.ServiceClosure(ctx.Service.ID)
	if err != nil {
		return nil, err
	}
	var targets []*model.Shape
	for _, id := range closure {
		shape, ok := ctx.Model.Shape(id)
		if !ok {
			continue
		}
		switch shape.Type {
		case model.ShapeTypeStructure, model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
		default:
			continue
		}
		if id.Namespace() == model.SyntheticNamespace {
			continue
		}
		if !used(id) {
			continue
		}
		targets = append(targets, shape)
	}
	return targets, nil
}

func docSerializerName(shape *model.Shape) string {
	if shape.ID.Namespace() == model.SyntheticNamespace {
		return "serializeOpDocument" + util.ExportName(shape.ID.Name())
	}
	return "serializeDocument" + util.ExportName(shape.ID.Name())
}

func docDeserializerName(shape *model.Shape) string {
	if shape.ID.Namespace() == model.SyntheticNamespace {
		return "deserializeOpDocument" + util.ExportName(shape.ID.Name())
	}
	return "deserializeDocument" + util.ExportName(shape.ID.Name())
}

// wireName is the JSON key a member travels under. Members serialize under
// their modeled name; no rename trait is supported on this protocol.
func wireName(member model.Member) string {
	return member.Name
}

// quoted renders a Go string literal for embedding inside a larger emitted
// expression, where $S cannot reach.
func quoted(s string) string {
	return strconv.Quote(s)
}

func targetShape(m *model.Model, container *model.Shape, member model.Member) (*model.Shape, error) {
	target, ok := m.Shape(member.Target)
	if !ok {
		return nil, errors.NewCodegenError(string(container.ID),
			"member %q targets missing shape %s", member.Name, member.Target)
	}
	return target, nil
}
