package model

// MemberMode selects how strictly required members are treated. It mirrors
// the requiredMemberMode setting; representation is identical in both modes,
// strict mode additionally makes generated validators reject zero-valued
// required string members.
type MemberMode int

const (
	MemberModeNillable MemberMode = iota
	MemberModeStrict
)

func (m MemberMode) String() string {
	if m == MemberModeStrict {
		return "strict"
	}
	return "nillable"
}

// NullableIndex answers whether a member admits absence. A member is
// nullable unless it is required or carries a modeled default: either trait
// guarantees a value is always present, so the generated field holds it
// directly instead of through a pointer.
type NullableIndex struct {
	m *Model
}

// NewNullableIndex builds the index for a model.
func NewNullableIndex(m *Model) *NullableIndex {
	return &NullableIndex{m: m}
}

// IsMemberNullable reports whether the member may be absent at runtime.
func (ni *NullableIndex) IsMemberNullable(member Member) bool {
	if member.Traits.Required() {
		return false
	}
	if member.Traits.HasDefault() {
		return false
	}
	return true
}

// IsElementNullable reports whether elements of a collection admit null.
// Only sparse collections do.
func (ni *NullableIndex) IsElementNullable(collection *Shape) bool {
	return collection.Traits.Sparse()
}

// ValidationIndex answers which shapes need generated validators: anything
// in an operation-input closure that has a required member, an enum-typed
// member, or transitively contains such a shape.
type ValidationIndex struct {
	m     *Model
	cache map[ShapeID]bool
}

// NewValidationIndex builds the index for a model.
func NewValidationIndex(m *Model) *ValidationIndex {
	return &ValidationIndex{m: m, cache: make(map[ShapeID]bool)}
}

// RequiresValidation reports whether a validator function must exist for the
// shape. Recursive shapes terminate on the in-progress marker: a cycle with
// no validation-relevant member on any participant needs no validator.
func (vi *ValidationIndex) RequiresValidation(id ShapeID) bool {
	id = id.WithoutMember()
	if result, ok := vi.cache[id]; ok {
		return result
	}
	// Mark in progress so cycles resolve to false unless some other member
	// proves otherwise.
	vi.cache[id] = false

	s, ok := vi.m.Shape(id)
	if !ok {
		return false
	}

	result := false
	switch s.Type {
	case ShapeTypeStructure, ShapeTypeUnion:
		for _, member := range s.Members {
			if s.Type == ShapeTypeStructure && member.Traits.Required() {
				result = true
				break
			}
			if target, ok := vi.m.Shape(member.Target); ok {
				if target.Type == ShapeTypeEnum || target.Type == ShapeTypeIntEnum {
					continue
				}
			}
			if vi.RequiresValidation(member.Target) {
				result = true
				break
			}
		}
	case ShapeTypeList:
		if member, ok := s.ListMember(); ok {
			result = vi.RequiresValidation(member.Target)
		}
	case ShapeTypeMap:
		if value, ok := s.MapValue(); ok {
			result = vi.RequiresValidation(value.Target)
		}
	}

	vi.cache[id] = result
	return result
}

// UsageIndex records how shapes are reached from operations: through inputs,
// outputs, or error structures. Serializer and validator generation only
// applies to input-reachable shapes, deserialization to output and error
// reachable ones.
type UsageIndex struct {
	inputs  map[ShapeID]bool
	outputs map[ShapeID]bool
	errors  map[ShapeID]bool
}

// NewUsageIndex walks every operation in the model once.
func NewUsageIndex(m *Model) *UsageIndex {
	ui := &UsageIndex{
		inputs:  make(map[ShapeID]bool),
		outputs: make(map[ShapeID]bool),
		errors:  make(map[ShapeID]bool),
	}
	for _, op := range m.ShapesOfType(ShapeTypeOperation) {
		ui.mark(m, op.Input, ui.inputs)
		ui.mark(m, op.Output, ui.outputs)
		for _, eid := range op.Errors {
			ui.mark(m, eid, ui.errors)
		}
	}
	return ui
}

func (ui *UsageIndex) mark(m *Model, id ShapeID, set map[ShapeID]bool) {
	id = id.WithoutMember()
	if id == "" || set[id] {
		return
	}
	s, ok := m.Shape(id)
	if !ok {
		return
	}
	set[id] = true
	for _, member := range s.Members {
		ui.mark(m, member.Target, set)
	}
}

// UsedAsInput reports input-closure membership.
func (ui *UsageIndex) UsedAsInput(id ShapeID) bool { return ui.inputs[id.WithoutMember()] }

// UsedAsOutput reports output-closure membership.
func (ui *UsageIndex) UsedAsOutput(id ShapeID) bool { return ui.outputs[id.WithoutMember()] }

// UsedAsError reports error-closure membership.
func (ui *UsageIndex) UsedAsError(id ShapeID) bool { return ui.errors[id.WithoutMember()] }
