package httpjson

import (
	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/render"
	"github.com/teranos/wiregen/symbol"
)

const serializersFile = "serializers.go"

// GenerateSerializers emits one serializer middleware per operation into
// serializers.go, followed by the binding and document functions those
// middlewares call. Document functions cover every shape reachable from an
// operation input.
func (g Generator) GenerateSerializers(ctx *codegen.Context) error {
	ops, err := ctx.Model.OperationsOf(ctx.Service)
	if err != nil {
		return err
	}
	w := ctx.Files.File(serializersFile)

	for _, op := range ops {
		if err := serializeOpMiddleware(ctx, w, op); err != nil {
			return err
		}
	}
	for _, op := range ops {
		if err := serializeOpHelpers(ctx, w, op); err != nil {
			return err
		}
	}

	targets, err := documentTargets(ctx, ctx.Usage.UsedAsInput)
	if err != nil {
		return err
	}
	for _, shape := range targets {
		if err := serializeDocumentFunc(ctx, w, shape); err != nil {
			return err
		}
	}
	return w.Err()
}

func serializeOpMiddleware(ctx *codegen.Context, w *render.GoWriter, op *model.Shape) error {
	opName := util.ExportName(op.ID.Name())
	input, ok := ctx.Model.Shape(op.Input)
	if !ok {
		return errors.NewCodegenError(string(op.ID), "operation input %s not in model", op.Input)
	}
	inputSym, err := ctx.Symbols.ShapeSymbol(input)
	if err != nil {
		return err
	}
	split, err := splitBindings(ctx.Model, input)
	if err != nil {
		return err
	}
	binding := httpBinding(op)

	runtime := w.Use(deps.Runtime())
	mw := w.Use(deps.RuntimeMiddleware())
	transport := w.Use(deps.RuntimeHTTP())
	w.AddImport("context", "")
	w.AddImport("fmt", "")

	w.P("type serializeOp$L struct{}", opName)
	w.P("")
	w.P("func (*serializeOp$L) ID() string {", opName)
	w.Indent()
	w.P("return $S", "OperationSerializer")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (m *serializeOp$L) HandleSerialize(ctx context.Context, in $L.SerializeInput, next $L.SerializeHandler) (", opName, mw, mw)
	w.Indent()
	w.P("out $L.SerializeOutput, metadata $L.Metadata, err error,", mw, mw)
	w.Dedent()
	w.P(") {")
	w.Indent()
	w.P("request, ok := in.Request.(*$L.Request)", transport)
	w.P("if !ok {")
	w.Indent()
	w.P("return out, metadata, &$L.SerializationError{Err: fmt.Errorf($S, in.Request)}", runtime, "unknown transport type %T")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("input, ok := in.Parameters.($P)", inputSym)
	w.P("if !ok {")
	w.Indent()
	w.P("return out, metadata, &$L.SerializationError{Err: fmt.Errorf($S, in.Parameters)}", runtime, "unknown input parameters type %T")
	w.Dedent()
	w.P("}")
	if !split.hasRestBindings() && len(split.body) == 0 && split.payload == nil {
		w.P("_ = input")
	}
	w.P("")
	w.P("request.Method = $S", binding.Method)
	w.P("request.URL.Path = $L.JoinPath(request.URL.Path, $S)", transport, binding.URI)

	if split.hasRestBindings() {
		w.P("")
		w.P("restEncoder := $L.NewBindingEncoder(request)", transport)
		w.P("if err := serializeOpHTTPBindings$L(input, restEncoder); err != nil {", util.ExportName(input.ID.Name()))
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.P("if err := restEncoder.Encode(); err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
	}

	if len(split.body) > 0 {
		jsonAlias := w.Use(deps.RuntimeJSON())
		w.AddImport("bytes", "")
		w.P("")
		w.P("request.Header.Set($S, $S)", "Content-Type", "application/json")
		w.P("jsonEncoder := $L.NewEncoder()", jsonAlias)
		w.P("if err := $L(input, jsonEncoder.Value); err != nil {", docSerializerName(input))
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.P("if request, err = request.SetBody(bytes.NewReader(jsonEncoder.Bytes())); err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
	}

	if split.payload != nil {
		if err := serializePayload(ctx, w, input, *split.payload, runtime); err != nil {
			return err
		}
	}

	w.P("")
	w.P("in.Request = request")
	w.P("return next.HandleSerialize(ctx, in)")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// serializePayload binds one member as the whole request body.
func serializePayload(ctx *codegen.Context, w *render.GoWriter, input *model.Shape, member model.Member, runtime string) error {
	field := util.ExportName(member.Name)
	target, err := targetShape(ctx.Model, input, member)
	if err != nil {
		return err
	}
	sym, err := ctx.Symbols.MemberSymbol(input, member)
	if err != nil {
		return err
	}

	if _, ok := sym.Kind.(symbol.Stream); ok {
		w.P("")
		w.P("request.Header.Set($S, $S)", "Content-Type", "application/octet-stream")
		w.P("if input.$L != nil {", field)
		w.Indent()
		w.P("if request, err = request.SetBody(input.$L); err != nil {", field)
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.Dedent()
		w.P("}")
		return w.Err()
	}

	switch target.Type {
	case model.ShapeTypeBlob:
		w.AddImport("bytes", "")
		w.P("")
		w.P("request.Header.Set($S, $S)", "Content-Type", "application/octet-stream")
		w.P("if input.$L != nil {", field)
		w.Indent()
		w.P("if request, err = request.SetBody(bytes.NewReader(input.$L)); err != nil {", field)
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.Dedent()
		w.P("}")

	case model.ShapeTypeString:
		w.AddImport("strings", "")
		w.P("")
		w.P("request.Header.Set($S, $S)", "Content-Type", "text/plain")
		if sym.Pointable {
			w.P("if input.$L != nil {", field)
			w.Indent()
			w.P("if request, err = request.SetBody(strings.NewReader(*input.$L)); err != nil {", field)
			w.Indent()
			w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
			w.Dedent()
			w.P("}")
			w.Dedent()
			w.P("}")
		} else {
			w.P("if request, err = request.SetBody(strings.NewReader(input.$L)); err != nil {", field)
			w.Indent()
			w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
			w.Dedent()
			w.P("}")
		}

	case model.ShapeTypeStructure, model.ShapeTypeUnion:
		jsonAlias := w.Use(deps.RuntimeJSON())
		w.AddImport("bytes", "")
		w.P("")
		w.P("request.Header.Set($S, $S)", "Content-Type", "application/json")
		w.P("jsonEncoder := $L.NewEncoder()", jsonAlias)
		if target.Type == model.ShapeTypeStructure && !member.Traits.Required() {
			w.P("if input.$L != nil {", field)
			w.Indent()
			w.P("if err := $L(input.$L, jsonEncoder.Value); err != nil {", docSerializerName(target), field)
			w.Indent()
			w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
			w.Dedent()
			w.P("}")
			w.Dedent()
			w.P("}")
		} else {
			w.P("if err := $L(input.$L, jsonEncoder.Value); err != nil {", docSerializerName(target), field)
			w.Indent()
			w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
			w.Dedent()
			w.P("}")
		}
		w.P("if request, err = request.SetBody(bytes.NewReader(jsonEncoder.Bytes())); err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.SerializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")

	default:
		return errors.NewCodegenError(string(input.ID),
			"member %q: http payload of type %s is not supported", member.Name, target.Type)
	}
	return w.Err()
}

// serializeOpHelpers emits the binding and body-document functions for one
// operation, after every middleware so the file reads top-down.
func serializeOpHelpers(ctx *codegen.Context, w *render.GoWriter, op *model.Shape) error {
	input, ok := ctx.Model.Shape(op.Input)
	if !ok {
		return errors.NewCodegenError(string(op.ID), "operation input %s not in model", op.Input)
	}
	split, err := splitBindings(ctx.Model, input)
	if err != nil {
		return err
	}
	if split.hasRestBindings() {
		if err := serializeBindingsFunc(ctx, w, input, split); err != nil {
			return err
		}
	}
	if len(split.body) > 0 {
		if err := serializeStructFunc(ctx, w, input, split.body); err != nil {
			return err
		}
	}
	return nil
}

func serializeBindingsFunc(ctx *codegen.Context, w *render.GoWriter, input *model.Shape, split bindingSplit) error {
	inputSym, err := ctx.Symbols.ShapeSymbol(input)
	if err != nil {
		return err
	}
	transport := w.Use(deps.RuntimeHTTP())
	w.AddImport("fmt", "")

	w.P("func serializeOpHTTPBindings$L(v $P, encoder *$L.BindingEncoder) error {", util.ExportName(input.ID.Name()), inputSym, transport)
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return fmt.Errorf($S, v)", "unsupported serialization of nil %T")
	w.Dedent()
	w.P("}")

	for _, member := range split.labels {
		if err := serializeLabelMember(ctx, w, input, member); err != nil {
			return err
		}
	}
	for _, member := range split.queries {
		if err := serializeParamMember(ctx, w, input, member, false); err != nil {
			return err
		}
	}
	for _, member := range split.headers {
		if err := serializeParamMember(ctx, w, input, member, true); err != nil {
			return err
		}
	}

	w.P("")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// serializeLabelMember fills one URI label. An absent or empty label value
// cannot produce a valid request path, so it fails serialization.
func serializeLabelMember(ctx *codegen.Context, w *render.GoWriter, input *model.Shape, member model.Member) error {
	field := util.ExportName(member.Name)
	target, err := targetShape(ctx.Model, input, member)
	if err != nil {
		return err
	}
	sym, err := ctx.Symbols.MemberSymbol(input, member)
	if err != nil {
		return err
	}

	expr := "v." + field
	w.P("")
	if sym.Pointable {
		w.P("if v.$L == nil {", field)
		w.Indent()
		w.P("return fmt.Errorf($S)", "input member "+member.Name+" must not be empty")
		w.Dedent()
		w.P("}")
		expr = "*v." + field
	} else if isStringBacked(target) {
		w.P("if len(v.$L) == 0 {", field)
		w.Indent()
		w.P("return fmt.Errorf($S)", "input member "+member.Name+" must not be empty")
		w.Dedent()
		w.P("}")
	}
	call, err := bindingWrite(input, target, expr)
	if err != nil {
		return err
	}
	w.P("if err := encoder.SetURI($S)$L; err != nil {", wireName(member), call)
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	return w.Err()
}

// serializeParamMember fills one query parameter or header. Optional
// members are guarded by their absence check; list-valued query members
// append one parameter per element.
func serializeParamMember(ctx *codegen.Context, w *render.GoWriter, input *model.Shape, member model.Member, header bool) error {
	field := util.ExportName(member.Name)
	target, err := targetShape(ctx.Model, input, member)
	if err != nil {
		return err
	}
	sym, err := ctx.Symbols.MemberSymbol(input, member)
	if err != nil {
		return err
	}

	name := member.Name
	setter := "SetQuery"
	if header {
		if h, ok := member.Traits.HTTPHeader(); ok {
			name = h
		}
		setter = "SetHeader"
	} else if q, ok := member.Traits.HTTPQuery(); ok {
		name = q
	}

	if target.Type == model.ShapeTypeList && !header {
		return serializeQueryList(ctx, w, input, member, target, name)
	}

	expr := "v." + field
	guarded := false
	w.P("")
	switch {
	case sym.Pointable:
		w.P("if v.$L != nil {", field)
		expr = "*v." + field
		guarded = true
	case !member.Traits.Required() && target.Type == model.ShapeTypeEnum:
		w.P("if len(v.$L) > 0 {", field)
		guarded = true
	case !member.Traits.Required() && target.Type == model.ShapeTypeIntEnum:
		w.P("if v.$L != 0 {", field)
		guarded = true
	}
	if guarded {
		w.Indent()
	}
	call, err := bindingWrite(input, target, expr)
	if err != nil {
		return err
	}
	w.P("encoder.$L($S)$L", setter, name, call)
	if guarded {
		w.Dedent()
		w.P("}")
	}
	return w.Err()
}

func serializeQueryList(ctx *codegen.Context, w *render.GoWriter, input *model.Shape, member model.Member, list *model.Shape, name string) error {
	field := util.ExportName(member.Name)
	elem, ok := list.ListMember()
	if !ok {
		return errors.NewCodegenError(string(list.ID), "list shape has no member")
	}
	elemTarget, err := targetShape(ctx.Model, list, *elem)
	if err != nil {
		return err
	}
	listSym, err := ctx.Symbols.ShapeSymbol(list)
	if err != nil {
		return err
	}
	collection, ok := listSym.Kind.(symbol.Collection)
	if !ok {
		return errors.NewCodegenError(string(list.ID), "list shape resolved to %T", listSym.Kind)
	}

	expr := "v." + field + "[i]"
	w.P("")
	w.P("for i := range v.$L {", field)
	w.Indent()
	if collection.Elem.Pointable {
		w.P("if v.$L[i] == nil {", field)
		w.Indent()
		w.P("continue")
		w.Dedent()
		w.P("}")
		expr = "*v." + field + "[i]"
	}
	call, err := bindingWrite(input, elemTarget, expr)
	if err != nil {
		return err
	}
	w.P("encoder.AddQuery($S)$L", name, call)
	w.Dedent()
	w.P("}")
	return w.Err()
}

// bindingWrite renders the typed write call a BindingEncoder value takes,
// as a literal suffix like ".String(v.CityId)".
func bindingWrite(container, target *model.Shape, expr string) (string, error) {
	switch target.Type {
	case model.ShapeTypeString:
		return ".String(" + expr + ")", nil
	case model.ShapeTypeEnum:
		return ".String(string(" + expr + "))", nil
	case model.ShapeTypeBoolean:
		return ".Boolean(" + expr + ")", nil
	case model.ShapeTypeByte, model.ShapeTypeShort, model.ShapeTypeIntEnum:
		return ".Integer(int32(" + expr + "))", nil
	case model.ShapeTypeInteger:
		return ".Integer(" + expr + ")", nil
	case model.ShapeTypeLong:
		return ".Long(" + expr + ")", nil
	case model.ShapeTypeFloat:
		return ".Float(" + expr + ")", nil
	case model.ShapeTypeDouble:
		return ".Double(" + expr + ")", nil
	case model.ShapeTypeTimestamp:
		return ".Time(" + expr + ")", nil
	case model.ShapeTypeBigInteger, model.ShapeTypeBigDecimal:
		return ".String(" + expr + ".String())", nil
	}
	return "", errors.NewCodegenError(string(container.ID),
		"http binding of type %s is not supported", target.Type)
}

func isStringBacked(target *model.Shape) bool {
	return target.Type == model.ShapeTypeString || target.Type == model.ShapeTypeEnum
}

func serializeDocumentFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	switch shape.Type {
	case model.ShapeTypeStructure:
		return serializeStructFunc(ctx, w, shape, shape.Members)
	case model.ShapeTypeUnion:
		return serializeUnionFunc(ctx, w, shape)
	case model.ShapeTypeList:
		return serializeListFunc(ctx, w, shape)
	case model.ShapeTypeMap:
		return serializeMapFunc(ctx, w, shape)
	}
	return nil
}

// serializeStructFunc emits the document serializer for a structure. For
// synthetic operation inputs only the body members are passed in; bound
// members already left through the request line.
func serializeStructFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape, members []model.Member) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	jsonAlias := w.Use(deps.RuntimeJSON())

	w.P("func $L(v $P, value $L.Value) error {", docSerializerName(shape), sym, jsonAlias)
	w.Indent()
	w.P("object := value.Object()")
	w.P("defer object.Close()")
	for _, member := range members {
		if streamedMember(ctx.Model, member) {
			continue
		}
		if err := serializeStructMember(ctx, w, shape, member, jsonAlias); err != nil {
			return err
		}
	}
	w.P("")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func serializeStructMember(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape, member model.Member, jsonAlias string) error {
	field := util.ExportName(member.Name)
	target, err := targetShape(ctx.Model, shape, member)
	if err != nil {
		return err
	}
	sym, err := ctx.Symbols.MemberSymbol(shape, member)
	if err != nil {
		return err
	}

	// Required members write unconditionally; the validation middleware
	// vouches for their presence. Everything else is guarded by the
	// absence check its representation supports.
	expr := "v." + field
	guarded := false
	w.P("")
	switch {
	case member.Traits.Required():
	case isNilGuarded(sym):
		w.P("if v.$L != nil {", field)
		guarded = true
		if scalarPointer(sym) {
			expr = "*v." + field
		}
	case target.Type == model.ShapeTypeEnum:
		w.P("if len(v.$L) > 0 {", field)
		guarded = true
	case target.Type == model.ShapeTypeIntEnum:
		w.P("if v.$L != 0 {", field)
		guarded = true
	}
	if guarded {
		w.Indent()
	}

	dst := "object.Key(" + quoted(wireName(member)) + ")"
	if err := emitValueWrite(ctx, w, target, expr, dst, jsonAlias); err != nil {
		return err
	}

	if guarded {
		w.Dedent()
		w.P("}")
	}
	return w.Err()
}

func serializeUnionFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	jsonAlias := w.Use(deps.RuntimeJSON())
	w.AddImport("fmt", "")

	w.P("func $L(v $T, value $L.Value) error {", docSerializerName(shape), sym, jsonAlias)
	w.Indent()
	w.P("object := value.Object()")
	w.P("defer object.Close()")
	w.P("")
	w.P("switch uv := v.(type) {")
	for _, member := range shape.Members {
		target, err := targetShape(ctx.Model, shape, member)
		if err != nil {
			return err
		}
		variant := sym.Name + "Member" + util.ExportName(member.Name)
		w.P("case *$L:", variant)
		w.Indent()
		w.P("av := object.Key($S)", wireName(member))
		expr := "uv.Value"
		if target.Type == model.ShapeTypeStructure {
			expr = "&uv.Value"
		}
		if err := emitValueWrite(ctx, w, target, expr, "av", jsonAlias); err != nil {
			return err
		}
		w.Dedent()
	}
	w.P("default:")
	w.Indent()
	w.P("return fmt.Errorf($S, uv, v)", "attempted to serialize unknown member type %T for union %T")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func serializeListFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	collection, ok := sym.Kind.(symbol.Collection)
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "list shape resolved to %T", sym.Kind)
	}
	elem, ok := shape.ListMember()
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "list shape has no member")
	}
	elemTarget, err := targetShape(ctx.Model, shape, *elem)
	if err != nil {
		return err
	}
	jsonAlias := w.Use(deps.RuntimeJSON())

	w.P("func $L(v $T, value $L.Value) error {", docSerializerName(shape), sym, jsonAlias)
	w.Indent()
	w.P("array := value.Array()")
	w.P("defer array.Close()")
	w.P("")
	w.P("for i := range v {")
	w.Indent()
	w.P("av := array.Value()")
	expr := "v[i]"
	if shape.Traits.Sparse() && isNilGuarded(*collection.Elem) {
		w.P("if v[i] == nil {")
		w.Indent()
		w.P("av.Null()")
		w.P("continue")
		w.Dedent()
		w.P("}")
		if scalarPointer(*collection.Elem) {
			expr = "*v[i]"
		}
	}
	if err := emitValueWrite(ctx, w, elemTarget, expr, "av", jsonAlias); err != nil {
		return err
	}
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func serializeMapFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	kind, ok := sym.Kind.(symbol.MapKind)
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "map shape resolved to %T", sym.Kind)
	}
	valueMember, ok := shape.MapValue()
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "map shape has no value member")
	}
	valueTarget, err := targetShape(ctx.Model, shape, *valueMember)
	if err != nil {
		return err
	}
	keyMember, ok := shape.MapKey()
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "map shape has no key member")
	}
	keyTarget, err := targetShape(ctx.Model, shape, *keyMember)
	if err != nil {
		return err
	}
	jsonAlias := w.Use(deps.RuntimeJSON())

	keyExpr := "key"
	if keyTarget.Type == model.ShapeTypeEnum {
		keyExpr = "string(key)"
	}

	w.P("func $L(v $T, value $L.Value) error {", docSerializerName(shape), sym, jsonAlias)
	w.Indent()
	w.P("object := value.Object()")
	w.P("defer object.Close()")
	w.P("")
	w.P("for key := range v {")
	w.Indent()
	w.P("om := object.Key($L)", keyExpr)
	expr := "v[key]"
	if shape.Traits.Sparse() && isNilGuarded(*kind.Value) {
		w.P("if v[key] == nil {")
		w.Indent()
		w.P("om.Null()")
		w.P("continue")
		w.Dedent()
		w.P("}")
		if scalarPointer(*kind.Value) {
			expr = "*v[key]"
		}
	}
	if err := emitValueWrite(ctx, w, valueTarget, expr, "om", jsonAlias); err != nil {
		return err
	}
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// emitValueWrite writes one value of the target's type to the json value
// held by dst. Aggregates delegate to their document serializer; expr is
// already a pointer for structure targets.
func emitValueWrite(ctx *codegen.Context, w *render.GoWriter, target *model.Shape, expr, dst, jsonAlias string) error {
	switch target.Type {
	case model.ShapeTypeString:
		w.P("$L.String($L)", dst, expr)
	case model.ShapeTypeEnum:
		w.P("$L.String(string($L))", dst, expr)
	case model.ShapeTypeBoolean:
		w.P("$L.Boolean($L)", dst, expr)
	case model.ShapeTypeByte:
		w.P("$L.Byte($L)", dst, expr)
	case model.ShapeTypeShort:
		w.P("$L.Short($L)", dst, expr)
	case model.ShapeTypeInteger:
		w.P("$L.Integer($L)", dst, expr)
	case model.ShapeTypeIntEnum:
		w.P("$L.Integer(int32($L))", dst, expr)
	case model.ShapeTypeLong:
		w.P("$L.Long($L)", dst, expr)
	case model.ShapeTypeFloat:
		w.P("$L.Float($L)", dst, expr)
	case model.ShapeTypeDouble:
		w.P("$L.Double($L)", dst, expr)
	case model.ShapeTypeBigInteger:
		w.P("$L.BigInteger($L)", dst, expr)
	case model.ShapeTypeBigDecimal:
		w.P("$L.BigDecimal($L)", dst, expr)
	case model.ShapeTypeBlob:
		w.P("$L.Base64EncodeBytes($L)", dst, expr)
	case model.ShapeTypeTimestamp:
		w.P("$L.String($L.FormatTime($L))", dst, jsonAlias, expr)
	case model.ShapeTypeDocument:
		w.P("if err := $L.MarshalJSONValue($L); err != nil {", expr, dst)
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
	case model.ShapeTypeStructure, model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
		w.P("if err := $L($L, $L); err != nil {", docSerializerName(target), expr, dst)
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
	default:
		return errors.NewCodegenError(string(target.ID),
			"no JSON serialization for shape type %s", target.Type)
	}
	return w.Err()
}

// isNilGuarded reports whether the member's Go representation is
// nil-comparable, so absence checks compare against nil.
func isNilGuarded(sym symbol.Symbol) bool {
	if sym.Pointable {
		return true
	}
	switch sym.Kind.(type) {
	case symbol.Collection, symbol.MapKind, symbol.Variant, symbol.Blob, symbol.Stream, symbol.Document, symbol.Big:
		return true
	}
	return false
}

// scalarPointer reports whether reading the member requires a deref.
func scalarPointer(sym symbol.Symbol) bool {
	_, scalar := sym.Kind.(symbol.Scalar)
	return scalar && sym.Pointable
}
