// Package model holds the service shape graph that drives generation.
//
// A model is a set of shapes keyed by absolute id ("namespace#Name"). Shapes
// carry an open trait bag and, depending on their type, structural links:
// members for aggregates, input/output/errors for operations, operation
// bindings for services. The graph is immutable once loaded; preprocessing
// transforms produce modified clones.
package model

import (
	"strings"

	"github.com/teranos/wiregen/errors"
)

// ShapeID is an absolute shape identifier of the form "namespace#Name".
// Member references append "$memberName".
type ShapeID string

// Namespace returns the part before '#', or "" when absent.
func (id ShapeID) Namespace() string {
	if i := strings.IndexByte(string(id), '#'); i >= 0 {
		return string(id)[:i]
	}
	return ""
}

// Name returns the shape name between '#' and any '$'.
func (id ShapeID) Name() string {
	s := string(id)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '$'); i >= 0 {
		s = s[:i]
	}
	return s
}

// Member returns the member part after '$', or "" for plain shape ids.
func (id ShapeID) Member() string {
	if i := strings.IndexByte(string(id), '$'); i >= 0 {
		return string(id)[i+1:]
	}
	return ""
}

// WithoutMember strips any member part.
func (id ShapeID) WithoutMember() ShapeID {
	if i := strings.IndexByte(string(id), '$'); i >= 0 {
		return id[:i]
	}
	return id
}

// WithMember returns the member reference id for name.
func (id ShapeID) WithMember(name string) ShapeID {
	return id.WithoutMember() + ShapeID("$"+name)
}

// Validate checks the id is absolute and structurally sound.
func (id ShapeID) Validate() error {
	s := string(id)
	hash := strings.IndexByte(s, '#')
	if hash <= 0 || hash == len(s)-1 {
		return errors.NewInvalidModelError("shape id %q must be of the form namespace#Name", s)
	}
	if strings.Count(s, "#") > 1 {
		return errors.NewInvalidModelError("shape id %q has more than one '#'", s)
	}
	if dollar := strings.IndexByte(s, '$'); dollar >= 0 && dollar == len(s)-1 {
		return errors.NewInvalidModelError("shape id %q has an empty member part", s)
	}
	return nil
}

// ShapeType enumerates every kind of shape a model may contain. The set is
// closed: loaders reject anything not named here and generators switch
// exhaustively over it.
type ShapeType int

const (
	ShapeTypeNone ShapeType = iota
	ShapeTypeBoolean
	ShapeTypeByte
	ShapeTypeShort
	ShapeTypeInteger
	ShapeTypeLong
	ShapeTypeFloat
	ShapeTypeDouble
	ShapeTypeBigInteger
	ShapeTypeBigDecimal
	ShapeTypeString
	ShapeTypeEnum
	ShapeTypeIntEnum
	ShapeTypeBlob
	ShapeTypeTimestamp
	ShapeTypeDocument
	ShapeTypeList
	ShapeTypeMap
	ShapeTypeStructure
	ShapeTypeUnion
	ShapeTypeService
	ShapeTypeOperation
	ShapeTypeResource
)

var namesShapeType = map[ShapeType]string{
	ShapeTypeBoolean:    "boolean",
	ShapeTypeByte:       "byte",
	ShapeTypeShort:      "short",
	ShapeTypeInteger:    "integer",
	ShapeTypeLong:       "long",
	ShapeTypeFloat:      "float",
	ShapeTypeDouble:     "double",
	ShapeTypeBigInteger: "bigInteger",
	ShapeTypeBigDecimal: "bigDecimal",
	ShapeTypeString:     "string",
	ShapeTypeEnum:       "enum",
	ShapeTypeIntEnum:    "intEnum",
	ShapeTypeBlob:       "blob",
	ShapeTypeTimestamp:  "timestamp",
	ShapeTypeDocument:   "document",
	ShapeTypeList:       "list",
	ShapeTypeMap:        "map",
	ShapeTypeStructure:  "structure",
	ShapeTypeUnion:      "union",
	ShapeTypeService:    "service",
	ShapeTypeOperation:  "operation",
	ShapeTypeResource:   "resource",
}

func (t ShapeType) String() string {
	if name, ok := namesShapeType[t]; ok {
		return name
	}
	return "unknown"
}

// ParseShapeType maps a document type name to its ShapeType. "set" loads as
// list; callers mark uniqueness with the uniqueItems trait.
func ParseShapeType(name string) (ShapeType, error) {
	if name == "set" {
		return ShapeTypeList, nil
	}
	for t, n := range namesShapeType {
		if n == name {
			return t, nil
		}
	}
	return ShapeTypeNone, errors.NewInvalidModelError("unknown shape type %q", name)
}

// IsNumeric reports whether the type is a fixed-width numeric scalar.
func (t ShapeType) IsNumeric() bool {
	switch t {
	case ShapeTypeByte, ShapeTypeShort, ShapeTypeInteger, ShapeTypeLong,
		ShapeTypeFloat, ShapeTypeDouble:
		return true
	}
	return false
}

// IsSimple reports whether the type carries no member links.
func (t ShapeType) IsSimple() bool {
	switch t {
	case ShapeTypeList, ShapeTypeMap, ShapeTypeStructure, ShapeTypeUnion,
		ShapeTypeService, ShapeTypeOperation, ShapeTypeResource, ShapeTypeNone:
		return false
	}
	return true
}

// IsAggregate reports whether the type collects member shapes.
func (t ShapeType) IsAggregate() bool {
	switch t {
	case ShapeTypeList, ShapeTypeMap, ShapeTypeStructure, ShapeTypeUnion:
		return true
	}
	return false
}

// Member is a named edge from an aggregate shape to its target. Lists store a
// single member named "member"; maps store "key" and "value".
type Member struct {
	Name   string
	Target ShapeID
	Traits TraitSet
}

// Shape is one node of the graph. Only the fields matching Type are
// populated; everything else stays zero.
type Shape struct {
	ID     ShapeID
	Type   ShapeType
	Traits TraitSet

	// Aggregates. Sorted by member name at load so iteration is stable.
	Members []Member

	// Operations.
	Input  ShapeID
	Output ShapeID
	Errors []ShapeID

	// Services and resources.
	Version    string
	Operations []ShapeID
	Resources  []ShapeID

	// Mixin links, cleared by the flattening transform.
	Mixins []ShapeID
}

// Member looks up a member by name.
func (s *Shape) Member(name string) (*Member, bool) {
	for i := range s.Members {
		if s.Members[i].Name == name {
			return &s.Members[i], true
		}
	}
	return nil, false
}

// MemberNames returns member names in stored (sorted) order.
func (s *Shape) MemberNames() []string {
	names := make([]string, len(s.Members))
	for i, m := range s.Members {
		names[i] = m.Name
	}
	return names
}

// ListMember returns the element member of a list shape.
func (s *Shape) ListMember() (*Member, bool) {
	if s.Type != ShapeTypeList {
		return nil, false
	}
	return s.Member("member")
}

// MapKey returns the key member of a map shape.
func (s *Shape) MapKey() (*Member, bool) {
	if s.Type != ShapeTypeMap {
		return nil, false
	}
	return s.Member("key")
}

// MapValue returns the value member of a map shape.
func (s *Shape) MapValue() (*Member, bool) {
	if s.Type != ShapeTypeMap {
		return nil, false
	}
	return s.Member("value")
}

// Clone deep-copies the shape so transforms can edit without aliasing.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Traits = s.Traits.Clone()
	c.Members = make([]Member, len(s.Members))
	for i, m := range s.Members {
		c.Members[i] = Member{Name: m.Name, Target: m.Target, Traits: m.Traits.Clone()}
	}
	c.Errors = append([]ShapeID(nil), s.Errors...)
	c.Operations = append([]ShapeID(nil), s.Operations...)
	c.Resources = append([]ShapeID(nil), s.Resources...)
	c.Mixins = append([]ShapeID(nil), s.Mixins...)
	return &c
}

