package model

import (
	"sort"

	"github.com/teranos/wiregen/errors"
)

// Model is the loaded shape graph. Lookup is by id; every iteration order
// exposed here is sorted so downstream output is reproducible.
type Model struct {
	shapes map[ShapeID]*Shape
}

// NewModel builds a model from a shape list. Duplicate ids are rejected.
func NewModel(shapes []*Shape) (*Model, error) {
	m := &Model{shapes: make(map[ShapeID]*Shape, len(shapes))}
	for _, s := range shapes {
		if err := m.AddShape(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddShape inserts a shape, failing on duplicate ids.
func (m *Model) AddShape(s *Shape) error {
	if err := s.ID.Validate(); err != nil {
		return err
	}
	if s.ID.Member() != "" {
		return errors.NewInvalidModelError("shape id %q declares a member; members belong to their container", s.ID)
	}
	if _, exists := m.shapes[s.ID]; exists {
		return errors.NewInvalidModelError("duplicate shape id %q", s.ID)
	}
	m.shapes[s.ID] = s
	return nil
}

// ReplaceShape overwrites an existing shape. Transforms only.
func (m *Model) ReplaceShape(s *Shape) {
	m.shapes[s.ID] = s
}

// Len returns the shape count.
func (m *Model) Len() int { return len(m.shapes) }

// Shape looks up a shape by id. Member ids resolve to their container.
func (m *Model) Shape(id ShapeID) (*Shape, bool) {
	s, ok := m.shapes[id.WithoutMember()]
	return s, ok
}

// ExpectShape returns the shape with the given id and type, or a codegen
// invariant error naming what went wrong.
func (m *Model) ExpectShape(id ShapeID, t ShapeType) (*Shape, error) {
	s, ok := m.Shape(id)
	if !ok {
		return nil, errors.NewCodegenError(string(id), "shape not in model")
	}
	if s.Type != t {
		return nil, errors.NewCodegenError(string(id), "expected %s, found %s", t, s.Type)
	}
	return s, nil
}

// ShapeIDs returns every shape id, sorted.
func (m *Model) ShapeIDs() []ShapeID {
	ids := make([]ShapeID, 0, len(m.shapes))
	for id := range m.shapes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ShapesOfType returns all shapes of one type, sorted by id.
func (m *Model) ShapesOfType(t ShapeType) []*Shape {
	var out []*Shape
	for _, id := range m.ShapeIDs() {
		if s := m.shapes[id]; s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// Services returns every service shape, sorted by id.
func (m *Model) Services() []*Shape {
	return m.ShapesOfType(ShapeTypeService)
}

// OperationsOf returns the operations bound to a service, including
// operations reached through its resources, deduplicated and sorted.
func (m *Model) OperationsOf(service *Shape) ([]*Shape, error) {
	seen := make(map[ShapeID]bool)
	var ids []ShapeID

	add := func(id ShapeID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range service.Operations {
		add(id)
	}
	for _, rid := range service.Resources {
		res, ok := m.Shape(rid)
		if !ok {
			return nil, errors.NewCodegenError(string(rid), "resource bound to %s not in model", service.ID)
		}
		for _, id := range res.Operations {
			add(id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ops := make([]*Shape, 0, len(ids))
	for _, id := range ids {
		op, err := m.ExpectShape(id, ShapeTypeOperation)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ServiceClosure returns the ids of every shape reachable from the service,
// sorted. Traversal follows operation bindings, IO and error references, and
// aggregate member targets; cycles terminate on the visited set.
func (m *Model) ServiceClosure(serviceID ShapeID) ([]ShapeID, error) {
	service, err := m.ExpectShape(serviceID, ShapeTypeService)
	if err != nil {
		return nil, err
	}

	visited := make(map[ShapeID]bool)
	var visit func(id ShapeID) error
	visit = func(id ShapeID) error {
		id = id.WithoutMember()
		if id == "" || visited[id] {
			return nil
		}
		s, ok := m.Shape(id)
		if !ok {
			return errors.NewCodegenError(string(id), "referenced shape not in model")
		}
		visited[id] = true

		for _, member := range s.Members {
			if err := visit(member.Target); err != nil {
				return err
			}
		}
		if err := visit(s.Input); err != nil {
			return err
		}
		if err := visit(s.Output); err != nil {
			return err
		}
		for _, eid := range s.Errors {
			if err := visit(eid); err != nil {
				return err
			}
		}
		for _, oid := range s.Operations {
			if err := visit(oid); err != nil {
				return err
			}
		}
		for _, rid := range s.Resources {
			if err := visit(rid); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(service.ID); err != nil {
		return nil, err
	}

	ids := make([]ShapeID, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Clone deep-copies the model for transforms.
func (m *Model) Clone() *Model {
	c := &Model{shapes: make(map[ShapeID]*Shape, len(m.shapes))}
	for id, s := range m.shapes {
		c.shapes[id] = s.Clone()
	}
	return c
}
