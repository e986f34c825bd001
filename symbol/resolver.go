package symbol

import (
	"strings"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
)

// Provider resolves shapes and members to symbols. The concrete Resolver
// satisfies it; integrations may wrap it to decorate resolution.
type Provider interface {
	ShapeSymbol(shape *model.Shape) (Symbol, error)
	MemberSymbol(container *model.Shape, member model.Member) (Symbol, error)
}

// DecorateFunc wraps a Provider with additional behavior.
type DecorateFunc func(Provider) Provider

// Resolver is the canonical Provider. Resolution is memoized per shape and
// deterministic, so repeated runs over the same model agree byte for byte.
type Resolver struct {
	model    *model.Model
	nullable *model.NullableIndex
	pkg      string // import path of the generated package
	cache    map[model.ShapeID]Symbol
	active   map[model.ShapeID]bool
}

// NewResolver builds a resolver emitting symbols into the package at
// pkgPath.
func NewResolver(m *model.Model, pkgPath string) *Resolver {
	return &Resolver{
		model:    m,
		nullable: model.NewNullableIndex(m),
		pkg:      pkgPath,
		cache:    make(map[model.ShapeID]Symbol),
		active:   make(map[model.ShapeID]bool),
	}
}

// ShapeSymbol resolves a shape to its symbol. Aggregate shapes resolve
// their element targets recursively; a list or map reaching itself without
// an intervening structure has no expressible Go type and fails.
func (r *Resolver) ShapeSymbol(shape *model.Shape) (Symbol, error) {
	if shape == nil {
		return Symbol{}, errors.Wrap(errors.ErrCodegen, "resolve nil shape")
	}
	if sym, ok := r.cache[shape.ID]; ok {
		return sym, nil
	}
	if r.active[shape.ID] {
		return Symbol{}, errors.NewCodegenError(string(shape.ID), "unbounded recursive aggregate")
	}
	r.active[shape.ID] = true
	sym, err := r.resolve(shape)
	delete(r.active, shape.ID)
	if err != nil {
		return Symbol{}, err
	}
	r.cache[shape.ID] = sym
	return sym, nil
}

// MemberSymbol resolves a member to the symbol of its target, adjusted for
// the member's own traits and nullability. Scalar targets take their
// pointer classification from the member, not the shape.
func (r *Resolver) MemberSymbol(container *model.Shape, member model.Member) (Symbol, error) {
	target, err := r.target(container, member)
	if err != nil {
		return Symbol{}, err
	}
	switch target.Type {
	case model.ShapeTypeOperation, model.ShapeTypeService, model.ShapeTypeResource:
		return Symbol{}, errors.NewCodegenError(string(container.ID),
			"member %q targets %s shape %s", member.Name, target.Type, target.ID)
	}
	if streamed(member, target) {
		return streamSymbol(), nil
	}
	sym, err := r.ShapeSymbol(target)
	if err != nil {
		return Symbol{}, err
	}
	if _, ok := sym.Kind.(Scalar); ok {
		sym.Pointable = r.nullable.IsMemberNullable(member)
	}
	return sym, nil
}

func (r *Resolver) resolve(shape *model.Shape) (Symbol, error) {
	switch shape.Type {
	case model.ShapeTypeService:
		// Clients are held and passed by pointer.
		return Symbol{
			Name:      "Client",
			Namespace: r.pkg,
			DefFile:   "api_client.go",
			Pointable: true,
			Kind:      Service{},
		}, nil

	case model.ShapeTypeOperation:
		name := util.ExportName(shape.ID.Name())
		return Symbol{
			Name:      name,
			Namespace: r.pkg,
			DefFile:   "api_op_" + name + ".go",
			Kind:      Operation{},
		}, nil

	case model.ShapeTypeResource:
		return Symbol{}, errors.NewCodegenError(string(shape.ID), "resource shapes have no Go type")

	case model.ShapeTypeStructure:
		// Structures are always pointer-passed; a value-typed member
		// referencing a recursive structure would have no finite size.
		return Symbol{
			Name:      util.ExportName(shape.ID.Name()),
			Namespace: r.pkg,
			DefFile:   structureFile(shape),
			Pointable: true,
			Kind:      Record{},
		}, nil

	case model.ShapeTypeUnion:
		return Symbol{
			Name:      util.ExportName(shape.ID.Name()),
			Namespace: r.pkg,
			DefFile:   "types.go",
			Kind:      Variant{},
		}, nil

	case model.ShapeTypeEnum, model.ShapeTypeIntEnum:
		return Symbol{
			Name:      util.ExportName(shape.ID.Name()),
			Namespace: r.pkg,
			DefFile:   "enums.go",
			Kind:      Enum{Int: shape.Type == model.ShapeTypeIntEnum},
		}, nil

	case model.ShapeTypeList:
		member, ok := shape.ListMember()
		if !ok {
			return Symbol{}, errors.NewCodegenError(string(shape.ID), "list without member")
		}
		elem, err := r.elementSymbol(shape, *member)
		if err != nil {
			return Symbol{}, err
		}
		return Symbol{Kind: Collection{Elem: &elem}}, nil

	case model.ShapeTypeMap:
		key, okKey := shape.MapKey()
		value, okValue := shape.MapValue()
		if !okKey || !okValue {
			return Symbol{}, errors.NewCodegenError(string(shape.ID), "map without key or value")
		}
		keySym, err := r.keySymbol(shape, *key)
		if err != nil {
			return Symbol{}, err
		}
		valSym, err := r.elementSymbol(shape, *value)
		if err != nil {
			return Symbol{}, err
		}
		return Symbol{Kind: MapKind{Key: &keySym, Value: &valSym}}, nil

	case model.ShapeTypeBlob:
		if shape.Traits.Streaming() {
			return streamSymbol(), nil
		}
		return Symbol{Name: "[]byte", Kind: Blob{}}, nil

	case model.ShapeTypeDocument:
		return Symbol{
			Name:      "Document",
			Namespace: deps.RuntimeDocument().ImportPath,
			Kind:      Document{},
			Deps:      []deps.Dependency{deps.RuntimeDocument()},
		}, nil

	case model.ShapeTypeBigInteger:
		return bigSymbol("Int"), nil
	case model.ShapeTypeBigDecimal:
		return bigSymbol("Float"), nil

	case model.ShapeTypeTimestamp:
		return Symbol{
			Name:      "Time",
			Namespace: "time",
			Kind:      Scalar{},
			Deps:      []deps.Dependency{deps.StdTime},
		}, nil

	case model.ShapeTypeBoolean:
		return scalarSymbol("bool"), nil
	case model.ShapeTypeByte:
		return scalarSymbol("int8"), nil
	case model.ShapeTypeShort:
		return scalarSymbol("int16"), nil
	case model.ShapeTypeInteger:
		return scalarSymbol("int32"), nil
	case model.ShapeTypeLong:
		return scalarSymbol("int64"), nil
	case model.ShapeTypeFloat:
		return scalarSymbol("float32"), nil
	case model.ShapeTypeDouble:
		return scalarSymbol("float64"), nil
	case model.ShapeTypeString:
		return scalarSymbol("string"), nil
	}
	return Symbol{}, errors.NewCodegenError(string(shape.ID), "no Go mapping for shape type %s", shape.Type)
}

// elementSymbol resolves a collection element or map value. Sparse
// collections promote scalar elements to pointers so null entries survive.
func (r *Resolver) elementSymbol(container *model.Shape, member model.Member) (Symbol, error) {
	target, err := r.target(container, member)
	if err != nil {
		return Symbol{}, err
	}
	if streamed(member, target) {
		return Symbol{}, errors.NewCodegenError(string(container.ID), "streaming payload inside aggregate")
	}
	sym, err := r.ShapeSymbol(target)
	if err != nil {
		return Symbol{}, err
	}
	if _, ok := sym.Kind.(Scalar); ok {
		sym.Pointable = r.nullable.IsElementNullable(container)
	}
	return sym, nil
}

func (r *Resolver) keySymbol(container *model.Shape, member model.Member) (Symbol, error) {
	target, err := r.target(container, member)
	if err != nil {
		return Symbol{}, err
	}
	switch target.Type {
	case model.ShapeTypeString, model.ShapeTypeEnum:
	default:
		return Symbol{}, errors.NewCodegenError(string(container.ID), "map key must be string-backed, got %s", target.Type)
	}
	return r.ShapeSymbol(target)
}

func (r *Resolver) target(container *model.Shape, member model.Member) (*model.Shape, error) {
	target, ok := r.model.Shape(member.Target)
	if !ok {
		return nil, errors.NewCodegenError(string(container.ID),
			"member %q targets missing shape %s", member.Name, member.Target)
	}
	return target, nil
}

func streamed(member model.Member, target *model.Shape) bool {
	if target.Type != model.ShapeTypeBlob {
		return false
	}
	return member.Traits.Streaming() || target.Traits.Streaming()
}

func streamSymbol() Symbol {
	return Symbol{
		Name:      "Reader",
		Namespace: deps.RuntimeStream().ImportPath,
		Kind:      Stream{},
		Deps:      []deps.Dependency{deps.RuntimeStream()},
	}
}

func bigSymbol(name string) Symbol {
	return Symbol{
		Name:      name,
		Namespace: "math/big",
		Pointable: true,
		Kind:      Big{},
		Deps:      []deps.Dependency{deps.StdBig},
	}
}

func scalarSymbol(name string) Symbol {
	return Symbol{Name: name, Kind: Scalar{}}
}

func structureFile(shape *model.Shape) string {
	if shape.ID.Namespace() == model.SyntheticNamespace {
		return "api_op_" + operationBaseName(shape.ID.Name()) + ".go"
	}
	if shape.Traits.Has(model.TraitError) {
		return "errors.go"
	}
	return "types.go"
}

// operationBaseName strips the Input or Output suffix a synthesized wrapper
// carries, recovering the operation's file stem.
func operationBaseName(name string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(name, "Input"), "Output")
	if base == "" {
		base = name
	}
	return util.ExportName(base)
}
