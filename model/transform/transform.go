// Package transform holds the preprocessing passes that run between model
// load and shape walking. Each pass takes a model and returns a new one; the
// input is never mutated.
package transform

import (
	"sort"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/logger"
	"github.com/teranos/wiregen/model"
)

// Transform is one preprocessing pass.
type Transform struct {
	Name string
	Fn   func(*model.Model) (*model.Model, error)
}

// Default returns the standard pass list in execution order. Mixins flatten
// first so synthesized IO wrappers clone fully-resolved structures; error
// propagation runs last so it sees every operation.
func Default() []Transform {
	return []Transform{
		{Name: "flattenMixins", Fn: FlattenMixins},
		{Name: "synthesizeOperationIO", Fn: SynthesizeOperationIO},
		{Name: "propagateServiceErrors", Fn: PropagateServiceErrors},
	}
}

// Apply runs the passes in order.
func Apply(m *model.Model, passes []Transform) (*model.Model, error) {
	for _, pass := range passes {
		next, err := pass.Fn(m)
		if err != nil {
			return nil, errors.Wrapf(err, "transform %s", pass.Name)
		}
		logger.Debugw("applied model transform", "transform", pass.Name, "shapes", next.Len())
		m = next
	}
	return m, nil
}

// FlattenMixins copies mixin members and traits into every shape that
// references them and clears the mixin links. Local definitions win over
// mixin-provided ones. Mixin cycles are errors.
func FlattenMixins(m *model.Model) (*model.Model, error) {
	out := m.Clone()

	var resolve func(id model.ShapeID, active map[model.ShapeID]bool) (*model.Shape, error)
	resolved := make(map[model.ShapeID]bool)

	resolve = func(id model.ShapeID, active map[model.ShapeID]bool) (*model.Shape, error) {
		s, ok := out.Shape(id)
		if !ok {
			return nil, errors.NewInvalidModelError("mixin %q not in model", id)
		}
		if resolved[id] || len(s.Mixins) == 0 {
			resolved[id] = true
			return s, nil
		}
		if active[id] {
			return nil, errors.NewInvalidModelError("mixin cycle through %q", id)
		}
		active[id] = true
		defer delete(active, id)

		for _, mixinID := range s.Mixins {
			mixin, err := resolve(mixinID, active)
			if err != nil {
				return nil, err
			}
			for _, member := range mixin.Members {
				if _, exists := s.Member(member.Name); exists {
					continue
				}
				s.Members = append(s.Members, model.Member{
					Name:   member.Name,
					Target: member.Target,
					Traits: member.Traits.Clone(),
				})
			}
			for name, value := range mixin.Traits {
				if !s.Traits.Has(name) {
					if s.Traits == nil {
						s.Traits = make(model.TraitSet)
					}
					s.Traits[name] = value
				}
			}
		}
		s.Mixins = nil
		sortShapeMembers(s)
		resolved[id] = true
		return s, nil
	}

	for _, id := range out.ShapeIDs() {
		if _, err := resolve(id, make(map[model.ShapeID]bool)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SynthesizeOperationIO gives every operation a dedicated input and output
// structure in the synthetic namespace. Referenced structures are cloned and
// renamed; missing references become empty wrappers. Cloning keeps shared
// structures usable elsewhere in the model while operation IO gets stable
// identity and always-pointer classification.
func SynthesizeOperationIO(m *model.Model) (*model.Model, error) {
	out := m.Clone()

	for _, op := range out.ShapesOfType(model.ShapeTypeOperation) {
		opName := op.ID.Name()

		input, err := synthesizeWrapper(out, op.Input, opName+"Input")
		if err != nil {
			return nil, err
		}
		output, err := synthesizeWrapper(out, op.Output, opName+"Output")
		if err != nil {
			return nil, err
		}
		op.Input = input
		op.Output = output
		out.ReplaceShape(op)
	}
	return out, nil
}

func synthesizeWrapper(m *model.Model, ref model.ShapeID, name string) (model.ShapeID, error) {
	id := model.ShapeID(model.SyntheticNamespace + "#" + name)

	wrapper := &model.Shape{ID: id, Type: model.ShapeTypeStructure}
	if ref != "" {
		src, err := m.ExpectShape(ref, model.ShapeTypeStructure)
		if err != nil {
			return "", err
		}
		wrapper = src.Clone()
		wrapper.ID = id
	}
	if err := wrapper.Traits.Set(model.TraitSynthetic, map[string]string{"origin": string(ref)}); err != nil {
		return "", err
	}
	if _, ok := m.Shape(id); ok {
		// Two operations whose names collide in the synthetic namespace is
		// a modeling error.
		return "", errors.NewInvalidModelError("synthetic wrapper %q already exists", id)
	}
	if err := m.AddShape(wrapper); err != nil {
		return "", err
	}
	return id, nil
}

// PropagateServiceErrors appends each service's common errors to all its
// operations, deduplicated, keeping operation-local errors first and the
// appended ones sorted.
func PropagateServiceErrors(m *model.Model) (*model.Model, error) {
	out := m.Clone()

	for _, service := range out.Services() {
		common := commonErrors(service)
		if len(common) == 0 {
			continue
		}
		ops, err := out.OperationsOf(service)
		if err != nil {
			return nil, err
		}
		for _, op := range ops {
			existing := make(map[model.ShapeID]bool, len(op.Errors))
			for _, eid := range op.Errors {
				existing[eid] = true
			}
			for _, eid := range common {
				if !existing[eid] {
					op.Errors = append(op.Errors, eid)
					existing[eid] = true
				}
			}
			out.ReplaceShape(op)
		}
	}
	return out, nil
}

// commonErrors reads the service-level error list. Service shapes reuse the
// operation Errors field for their common error declarations.
func commonErrors(service *model.Shape) []model.ShapeID {
	out := append([]model.ShapeID(nil), service.Errors...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortShapeMembers(s *model.Shape) {
	sort.Slice(s.Members, func(i, j int) bool {
		return s.Members[i].Name < s.Members[j].Name
	})
}
