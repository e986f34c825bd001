package httpjson

import (
	"sort"

	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/render"
	"github.com/teranos/wiregen/symbol"
)

const deserializersFile = "deserializers.go"

// GenerateDeserializers emits one deserializer middleware and error
// dispatcher per operation into deserializers.go, plus document functions
// for every shape reachable from an output or error.
func (g Generator) GenerateDeserializers(ctx *codegen.Context) error {
	ops, err := ctx.Model.OperationsOf(ctx.Service)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}
	w := ctx.Files.File(deserializersFile)

	deserializeSharedHelpers(ctx, w)
	for _, op := range ops {
		if err := deserializeOpMiddleware(ctx, w, op); err != nil {
			return err
		}
	}
	for _, op := range ops {
		if err := deserializeOpErrorFunc(ctx, w, op); err != nil {
			return err
		}
	}

	errorShapes, err := collectErrorShapes(ctx, ops)
	if err != nil {
		return err
	}
	for _, shape := range errorShapes {
		if err := deserializeErrorFunc(ctx, w, shape); err != nil {
			return err
		}
	}

	for _, op := range ops {
		if err := deserializeOpDocumentFunc(ctx, w, op); err != nil {
			return err
		}
	}

	targets, err := documentTargets(ctx, func(id model.ShapeID) bool {
		return ctx.Usage.UsedAsOutput(id) || ctx.Usage.UsedAsError(id)
	})
	if err != nil {
		return err
	}
	for _, shape := range targets {
		if err := deserializeDocumentFunc(ctx, w, shape); err != nil {
			return err
		}
	}
	return w.Err()
}

func deserializeSharedHelpers(ctx *codegen.Context, w *render.GoWriter) {
	runtime := w.Use(deps.Runtime())

	w.P("// errorTypeHeader carries the modeled error code when the body omits it.")
	w.P("const errorTypeHeader = $S", "X-Wirerpc-Error-Type")
	w.P("")
	w.P("// faultForStatus classifies responses whose error shape is not modeled.")
	w.P("func faultForStatus(status int) $L.ErrorFault {", runtime)
	w.Indent()
	w.P("if status >= 500 {")
	w.Indent()
	w.P("return $L.FaultServer", runtime)
	w.Dedent()
	w.P("}")
	w.P("return $L.FaultClient", runtime)
	w.Dedent()
	w.P("}")
	w.P("")
}

func deserializeOpMiddleware(ctx *codegen.Context, w *render.GoWriter, op *model.Shape) error {
	opName := util.ExportName(op.ID.Name())
	output, ok := ctx.Model.Shape(op.Output)
	if !ok {
		return errors.NewCodegenError(string(op.ID), "operation output %s not in model", op.Output)
	}
	outputSym, err := ctx.Symbols.ShapeSymbol(output)
	if err != nil {
		return err
	}
	body, payload := outputBody(ctx.Model, output)

	runtime := w.Use(deps.Runtime())
	mw := w.Use(deps.RuntimeMiddleware())
	transport := w.Use(deps.RuntimeHTTP())
	w.AddImport("context", "")
	w.AddImport("fmt", "")

	w.P("type deserializeOp$L struct{}", opName)
	w.P("")
	w.P("func (*deserializeOp$L) ID() string {", opName)
	w.Indent()
	w.P("return $S", "OperationDeserializer")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (m *deserializeOp$L) HandleDeserialize(ctx context.Context, in $L.DeserializeInput, next $L.DeserializeHandler) (", opName, mw, mw)
	w.Indent()
	w.P("out $L.DeserializeOutput, metadata $L.Metadata, err error,", mw, mw)
	w.Dedent()
	w.P(") {")
	w.Indent()
	w.P("out, metadata, err = next.HandleDeserialize(ctx, in)")
	w.P("if err != nil {")
	w.Indent()
	w.P("return out, metadata, err")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("response, ok := out.RawResponse.(*$L.Response)", transport)
	w.P("if !ok {")
	w.Indent()
	w.P("return out, metadata, &$L.DeserializationError{Err: fmt.Errorf($S, out.RawResponse)}", runtime, "unknown transport type %T")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("if response.StatusCode < 200 || response.StatusCode >= 300 {")
	w.Indent()
	w.P("return out, metadata, deserializeOpError$L(response)", opName)
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("output := &$T{}", outputSym)
	w.P("out.Result = output")

	switch {
	case payload != nil:
		if err := deserializePayload(ctx, w, output, *payload, runtime); err != nil {
			return err
		}
	case len(body) > 0:
		jsonAlias := w.Use(deps.RuntimeJSON())
		w.P("")
		w.P("shape, err := $L.DecodeValue(response.Body)", jsonAlias)
		w.P("if err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.P("if err := $L(&output, shape); err != nil {", docDeserializerName(output))
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
	default:
		w.AddImport("io", "")
		w.P("")
		w.P("if _, err = io.Copy(io.Discard, response.Body); err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: fmt.Errorf($S, err)}", runtime, "discarding response body, %w")
		w.Dedent()
		w.P("}")
	}

	w.P("")
	w.P("return out, metadata, nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// deserializePayload binds the whole response body to one member.
func deserializePayload(ctx *codegen.Context, w *render.GoWriter, output *model.Shape, member model.Member, runtime string) error {
	field := util.ExportName(member.Name)
	target, err := targetShape(ctx.Model, output, member)
	if err != nil {
		return err
	}
	sym, err := ctx.Symbols.MemberSymbol(output, member)
	if err != nil {
		return err
	}

	if _, ok := sym.Kind.(symbol.Stream); ok {
		streamAlias := w.Use(deps.RuntimeStream())
		w.P("")
		w.P("output.$L = $L.NewReader(response.Body)", field, streamAlias)
		return w.Err()
	}

	switch target.Type {
	case model.ShapeTypeBlob:
		w.AddImport("io", "")
		w.P("")
		w.P("payload, err := io.ReadAll(response.Body)")
		w.P("if err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.P("output.$L = payload", field)

	case model.ShapeTypeString:
		ptrAlias := w.Use(deps.RuntimePtr())
		w.AddImport("io", "")
		w.P("")
		w.P("payload, err := io.ReadAll(response.Body)")
		w.P("if err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		if sym.Pointable {
			w.P("output.$L = $L.String(string(payload))", field, ptrAlias)
		} else {
			w.P("output.$L = string(payload)", field)
		}

	case model.ShapeTypeStructure, model.ShapeTypeUnion:
		jsonAlias := w.Use(deps.RuntimeJSON())
		w.P("")
		w.P("shape, err := $L.DecodeValue(response.Body)", jsonAlias)
		w.P("if err != nil {")
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")
		w.P("if err := $L(&output.$L, shape); err != nil {", docDeserializerName(target), field)
		w.Indent()
		w.P("return out, metadata, &$L.DeserializationError{Err: err}", runtime)
		w.Dedent()
		w.P("}")

	default:
		return errors.NewCodegenError(string(output.ID),
			"member %q: http payload of type %s is not supported", member.Name, target.Type)
	}
	return w.Err()
}

func deserializeOpErrorFunc(ctx *codegen.Context, w *render.GoWriter, op *model.Shape) error {
	opName := util.ExportName(op.ID.Name())
	errShapes, err := opErrorShapes(ctx, op)
	if err != nil {
		return err
	}

	runtime := w.Use(deps.Runtime())
	transport := w.Use(deps.RuntimeHTTP())
	jsonAlias := w.Use(deps.RuntimeJSON())

	w.P("func deserializeOpError$L(response *$L.Response) error {", opName, transport)
	w.Indent()
	w.P("shape, err := $L.DecodeValue(response.Body)", jsonAlias)
	w.P("if err != nil {")
	w.Indent()
	w.P("return &$L.DeserializationError{Err: err}", runtime)
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("errorCode := response.Header.Get(errorTypeHeader)")
	w.P("if len(errorCode) == 0 {")
	w.Indent()
	w.P("errorCode = $L.ErrorCode(shape)", jsonAlias)
	w.Dedent()
	w.P("}")
	w.P("")
	if len(errShapes) > 0 {
		w.AddImport("strings", "")
		w.P("switch {")
		for _, errShape := range errShapes {
			name := util.ExportName(errShape.ID.Name())
			w.P("case strings.EqualFold(errorCode, $S):", errShape.ID.Name())
			w.Indent()
			w.P("return deserializeError$L(response, shape)", name)
			w.Dedent()
		}
		w.P("default:")
		w.Indent()
		w.P("return &$L.GenericAPIError{", runtime)
		w.Indent()
		w.P("Code:  errorCode,")
		w.P("Fault: faultForStatus(response.StatusCode),")
		w.Dedent()
		w.P("}")
		w.Dedent()
		w.P("}")
	} else {
		w.P("return &$L.GenericAPIError{", runtime)
		w.Indent()
		w.P("Code:  errorCode,")
		w.P("Fault: faultForStatus(response.StatusCode),")
		w.Dedent()
		w.P("}")
	}
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func deserializeErrorFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	runtime := w.Use(deps.Runtime())
	transport := w.Use(deps.RuntimeHTTP())

	w.P("func deserializeError$L(response *$L.Response, shape interface{}) error {", sym.Name, transport)
	w.Indent()
	w.P("output := &$T{}", sym)
	w.P("if err := $L(&output, shape); err != nil {", docDeserializerName(shape))
	w.Indent()
	w.P("return &$L.DeserializationError{Err: err}", runtime)
	w.Dedent()
	w.P("}")
	w.P("return output")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// deserializeOpDocumentFunc emits the body-document decoder for one
// operation's output wrapper, when it has body members at all.
func deserializeOpDocumentFunc(ctx *codegen.Context, w *render.GoWriter, op *model.Shape) error {
	output, ok := ctx.Model.Shape(op.Output)
	if !ok {
		return errors.NewCodegenError(string(op.ID), "operation output %s not in model", op.Output)
	}
	body, payload := outputBody(ctx.Model, output)
	if payload != nil || len(body) == 0 {
		return nil
	}
	return deserializeStructFunc(ctx, w, output, body)
}

func deserializeDocumentFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	switch shape.Type {
	case model.ShapeTypeStructure:
		return deserializeStructFunc(ctx, w, shape, shape.Members)
	case model.ShapeTypeUnion:
		return deserializeUnionFunc(ctx, w, shape)
	case model.ShapeTypeList:
		return deserializeListFunc(ctx, w, shape)
	case model.ShapeTypeMap:
		return deserializeMapFunc(ctx, w, shape)
	}
	return nil
}

func deserializeStructFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape, members []model.Member) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	w.AddImport("fmt", "")

	decoded := make([]model.Member, 0, len(members))
	for _, member := range members {
		if !streamedMember(ctx.Model, member) {
			decoded = append(decoded, member)
		}
	}

	w.P("func $L(v *$P, value interface{}) error {", docDeserializerName(shape), sym)
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return fmt.Errorf($S, v)", "unexpected nil of type %T")
	w.Dedent()
	w.P("}")
	w.P("if value == nil {")
	w.Indent()
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("shape, ok := value.(map[string]interface{})")
	w.P("if !ok {")
	w.Indent()
	w.P("return fmt.Errorf($S, value)", "unexpected JSON type %v")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("var sv $P", sym)
	w.P("if *v == nil {")
	w.Indent()
	w.P("sv = &$T{}", sym)
	w.Dedent()
	w.P("} else {")
	w.Indent()
	w.P("sv = *v")
	w.Dedent()
	w.P("}")
	w.P("")
	if len(decoded) == 0 {
		w.P("_ = shape")
	} else {
		w.P("for key, value := range shape {")
		w.Indent()
		w.P("switch key {")
		for _, member := range decoded {
			w.P("case $S:", wireName(member))
			w.Indent()
			if err := deserializeStructMember(ctx, w, shape, member); err != nil {
				return err
			}
			w.Dedent()
		}
		w.P("}")
		w.Dedent()
		w.P("}")
	}
	w.P("*v = sv")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func deserializeStructMember(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape, member model.Member) error {
	field := util.ExportName(member.Name)
	target, err := targetShape(ctx.Model, shape, member)
	if err != nil {
		return err
	}
	sym, err := ctx.Symbols.MemberSymbol(shape, member)
	if err != nil {
		return err
	}

	switch target.Type {
	case model.ShapeTypeStructure, model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
		w.P("if err := $L(&sv.$L, value); err != nil {", docDeserializerName(target), field)
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		return w.Err()

	case model.ShapeTypeDocument:
		docAlias := w.Use(deps.RuntimeDocument())
		w.P("sv.$L = $L.NewDocument(value)", field, docAlias)
		return w.Err()
	}

	return emitScalarAssign(ctx, w, target, "sv."+field, sym.Pointable, true)
}

func deserializeUnionFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	w.AddImport("fmt", "")

	w.P("func $L(v *$T, value interface{}) error {", docDeserializerName(shape), sym)
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return fmt.Errorf($S, v)", "unexpected nil of type %T")
	w.Dedent()
	w.P("}")
	w.P("if value == nil {")
	w.Indent()
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("shape, ok := value.(map[string]interface{})")
	w.P("if !ok {")
	w.Indent()
	w.P("return fmt.Errorf($S, value)", "unexpected JSON type %v")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("var uv $T", sym)
	w.P("loop:")
	w.P("for key, value := range shape {")
	w.Indent()
	w.P("if value == nil {")
	w.Indent()
	w.P("continue")
	w.Dedent()
	w.P("}")
	w.P("switch key {")
	for _, member := range shape.Members {
		target, err := targetShape(ctx.Model, shape, member)
		if err != nil {
			return err
		}
		targetSym, err := ctx.Symbols.ShapeSymbol(target)
		if err != nil {
			return err
		}
		variant := sym.Name + "Member" + util.ExportName(member.Name)
		w.P("case $S:", wireName(member))
		w.Indent()
		switch target.Type {
		case model.ShapeTypeStructure:
			w.P("var mv $P", targetSym)
			w.P("if err := $L(&mv, value); err != nil {", docDeserializerName(target))
			w.Indent()
			w.P("return err")
			w.Dedent()
			w.P("}")
			w.P("uv = &$L{Value: *mv}", variant)
		case model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
			w.P("var mv $T", targetSym)
			w.P("if err := $L(&mv, value); err != nil {", docDeserializerName(target))
			w.Indent()
			w.P("return err")
			w.Dedent()
			w.P("}")
			w.P("uv = &$L{Value: mv}", variant)
		case model.ShapeTypeDocument:
			docAlias := w.Use(deps.RuntimeDocument())
			w.P("uv = &$L{Value: $L.NewDocument(value)}", variant, docAlias)
		default:
			w.P("var mv $T", targetSym)
			if err := emitScalarAssign(ctx, w, target, "mv", false, false); err != nil {
				return err
			}
			w.P("uv = &$L{Value: mv}", variant)
		}
		w.P("break loop")
		w.Dedent()
	}
	w.P("default:")
	w.Indent()
	w.AddImport("encoding/json", "")
	w.P("raw, err := json.Marshal(value)")
	w.P("if err != nil {")
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	w.P("uv = &UnknownUnionMember{Tag: key, Value: raw}")
	w.P("break loop")
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	w.P("*v = uv")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func deserializeListFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
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
	w.AddImport("fmt", "")

	w.P("func $L(v *$T, value interface{}) error {", docDeserializerName(shape), sym)
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return fmt.Errorf($S, v)", "unexpected nil of type %T")
	w.Dedent()
	w.P("}")
	w.P("if value == nil {")
	w.Indent()
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("shape, ok := value.([]interface{})")
	w.P("if !ok {")
	w.Indent()
	w.P("return fmt.Errorf($S, value)", "unexpected JSON type %v")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("var cv $T", sym)
	w.P("if *v == nil {")
	w.Indent()
	w.P("cv = $T{}", sym)
	w.Dedent()
	w.P("} else {")
	w.Indent()
	w.P("cv = *v")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("for _, value := range shape {")
	w.Indent()
	if err := emitElementDecode(ctx, w, elemTarget, *collection.Elem, "col"); err != nil {
		return err
	}
	w.P("cv = append(cv, col)")
	w.Dedent()
	w.P("}")
	w.P("*v = cv")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func deserializeMapFunc(ctx *codegen.Context, w *render.GoWriter, shape *model.Shape) error {
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
	w.AddImport("fmt", "")

	keyExpr := "key"
	if keyTarget.Type == model.ShapeTypeEnum {
		keySym, err := ctx.Symbols.ShapeSymbol(keyTarget)
		if err != nil {
			return err
		}
		keyExpr = keySym.Name + "(key)"
	}

	w.P("func $L(v *$T, value interface{}) error {", docDeserializerName(shape), sym)
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return fmt.Errorf($S, v)", "unexpected nil of type %T")
	w.Dedent()
	w.P("}")
	w.P("if value == nil {")
	w.Indent()
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("shape, ok := value.(map[string]interface{})")
	w.P("if !ok {")
	w.Indent()
	w.P("return fmt.Errorf($S, value)", "unexpected JSON type %v")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("var mv $T", sym)
	w.P("if *v == nil {")
	w.Indent()
	w.P("mv = $T{}", sym)
	w.Dedent()
	w.P("} else {")
	w.Indent()
	w.P("mv = *v")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("for key, value := range shape {")
	w.Indent()
	if err := emitElementDecode(ctx, w, valueTarget, *kind.Value, "parsedVal"); err != nil {
		return err
	}
	w.P("mv[$L] = parsedVal", keyExpr)
	w.Dedent()
	w.P("}")
	w.P("*v = mv")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// emitElementDecode declares varName with the element's type and decodes
// one collection element or map value into it. Nil JSON entries leave the
// zero value, which for sparse collections is a nil element.
func emitElementDecode(ctx *codegen.Context, w *render.GoWriter, target *model.Shape, elemSym symbol.Symbol, varName string) error {
	switch target.Type {
	case model.ShapeTypeStructure:
		w.P("var $L $P", varName, elemSym)
		w.P("if err := $L(&$L, value); err != nil {", docDeserializerName(target), varName)
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		return w.Err()

	case model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
		w.P("var $L $T", varName, elemSym)
		w.P("if err := $L(&$L, value); err != nil {", docDeserializerName(target), varName)
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		return w.Err()

	case model.ShapeTypeDocument:
		docAlias := w.Use(deps.RuntimeDocument())
		w.P("var $L $T", varName, elemSym)
		w.P("$L = $L.NewDocument(value)", varName, docAlias)
		return w.Err()
	}

	w.P("var $L $P", varName, elemSym)
	return emitScalarAssign(ctx, w, target, varName, elemSym.Pointable, true)
}

// emitScalarAssign decodes one simple-typed JSON value into assign. When
// pointable the assignment goes through the runtime ptr helpers. checkNil
// wraps the decode in a nil guard; union variants skip it because their
// loop already filtered nil values.
func emitScalarAssign(ctx *codegen.Context, w *render.GoWriter, target *model.Shape, assign string, pointable, checkNil bool) error {
	jsonAlias := w.Use(deps.RuntimeJSON())
	ptrAlias := ""
	if pointable {
		ptrAlias = w.Use(deps.RuntimePtr())
	}
	w.AddImport("fmt", "")

	if checkNil {
		w.P("if value != nil {")
		w.Indent()
	}

	name := target.ID.Name()
	wrap := func(expr string) string {
		return expr
	}
	if pointable {
		wrap = func(expr string) string {
			helper, ok := ptrHelper(target.Type)
			if !ok {
				return expr
			}
			return ptrAlias + "." + helper + "(" + expr + ")"
		}
	}

	switch target.Type {
	case model.ShapeTypeString:
		w.P("jtv, ok := value.(string)")
		emitTypeMismatch(w, name, "string")
		w.P("$L = $L", assign, wrap("jtv"))

	case model.ShapeTypeEnum:
		targetSym, err := ctx.Symbols.ShapeSymbol(target)
		if err != nil {
			return err
		}
		w.P("jtv, ok := value.(string)")
		emitTypeMismatch(w, name, "string")
		w.P("$L = $L(jtv)", assign, targetSym.Name)

	case model.ShapeTypeBoolean:
		w.P("jtv, ok := value.(bool)")
		emitTypeMismatch(w, name, "bool")
		w.P("$L = $L", assign, wrap("jtv"))

	case model.ShapeTypeByte, model.ShapeTypeShort, model.ShapeTypeInteger, model.ShapeTypeLong:
		w.P("jtv, ok := value.($L.Number)", jsonAlias)
		emitTypeMismatch(w, name, "a JSON number")
		w.P("i64, err := jtv.Int64()")
		w.P("if err != nil {")
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		w.P("$L = $L", assign, wrap(intConversion(target.Type)))

	case model.ShapeTypeIntEnum:
		targetSym, err := ctx.Symbols.ShapeSymbol(target)
		if err != nil {
			return err
		}
		w.P("jtv, ok := value.($L.Number)", jsonAlias)
		emitTypeMismatch(w, name, "a JSON number")
		w.P("i64, err := jtv.Int64()")
		w.P("if err != nil {")
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		w.P("$L = $L(i64)", assign, targetSym.Name)

	case model.ShapeTypeFloat:
		w.P("jtv, ok := value.($L.Number)", jsonAlias)
		emitTypeMismatch(w, name, "a JSON number")
		w.P("f64, err := jtv.Float64()")
		w.P("if err != nil {")
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		w.P("$L = $L", assign, wrap("float32(f64)"))

	case model.ShapeTypeDouble:
		w.P("jtv, ok := value.($L.Number)", jsonAlias)
		emitTypeMismatch(w, name, "a JSON number")
		w.P("f64, err := jtv.Float64()")
		w.P("if err != nil {")
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		w.P("$L = $L", assign, wrap("f64"))

	case model.ShapeTypeTimestamp:
		w.P("jtv, ok := value.(string)")
		emitTypeMismatch(w, name, "string")
		w.P("t, err := $L.ParseTime(jtv)", jsonAlias)
		w.P("if err != nil {")
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
		w.P("$L = $L", assign, wrap("t"))

	case model.ShapeTypeBlob:
		w.AddImport("encoding/base64", "")
		w.P("jtv, ok := value.(string)")
		emitTypeMismatch(w, name, "string")
		w.P("dv, err := base64.StdEncoding.DecodeString(jtv)")
		w.P("if err != nil {")
		w.Indent()
		w.P("return fmt.Errorf($S, err)", "failed to base64 decode "+name+", %w")
		w.Dedent()
		w.P("}")
		w.P("$L = dv", assign)

	case model.ShapeTypeBigInteger:
		w.AddImport("math/big", "")
		w.P("jtv, ok := value.($L.Number)", jsonAlias)
		emitTypeMismatch(w, name, "a JSON number")
		w.P("bv, ok := new(big.Int).SetString(jtv.String(), 10)")
		w.P("if !ok {")
		w.Indent()
		w.P("return fmt.Errorf($S, jtv.String())", "invalid big integer %q")
		w.Dedent()
		w.P("}")
		w.P("$L = bv", assign)

	case model.ShapeTypeBigDecimal:
		w.AddImport("math/big", "")
		w.P("jtv, ok := value.($L.Number)", jsonAlias)
		emitTypeMismatch(w, name, "a JSON number")
		w.P("bv, ok := new(big.Float).SetString(jtv.String())")
		w.P("if !ok {")
		w.Indent()
		w.P("return fmt.Errorf($S, jtv.String())", "invalid big decimal %q")
		w.Dedent()
		w.P("}")
		w.P("$L = bv", assign)

	default:
		return errors.NewCodegenError(string(target.ID),
			"no JSON deserialization for shape type %s", target.Type)
	}

	if checkNil {
		w.Dedent()
		w.P("}")
	}
	return w.Err()
}

func emitTypeMismatch(w *render.GoWriter, shapeName, wanted string) {
	w.P("if !ok {")
	w.Indent()
	w.P("return fmt.Errorf($S, value)", "expected "+shapeName+" to be "+wanted+", got %T instead")
	w.Dedent()
	w.P("}")
}

func intConversion(t model.ShapeType) string {
	switch t {
	case model.ShapeTypeByte:
		return "int8(i64)"
	case model.ShapeTypeShort:
		return "int16(i64)"
	case model.ShapeTypeInteger:
		return "int32(i64)"
	}
	return "i64"
}

// ptrHelper names the runtime ptr constructor for a simple type.
func ptrHelper(t model.ShapeType) (string, bool) {
	switch t {
	case model.ShapeTypeString:
		return "String", true
	case model.ShapeTypeBoolean:
		return "Bool", true
	case model.ShapeTypeByte:
		return "Int8", true
	case model.ShapeTypeShort:
		return "Int16", true
	case model.ShapeTypeInteger:
		return "Int32", true
	case model.ShapeTypeLong:
		return "Int64", true
	case model.ShapeTypeFloat:
		return "Float32", true
	case model.ShapeTypeDouble:
		return "Float64", true
	case model.ShapeTypeTimestamp:
		return "Time", true
	}
	return "", false
}

// outputBody partitions an output structure into decoded body members and
// the payload member, if any. Binding traits other than httpPayload have no
// meaning on responses here and fall through to the body.
func outputBody(m *model.Model, output *model.Shape) ([]model.Member, *model.Member) {
	var body []model.Member
	var payload *model.Member
	for i, member := range output.Members {
		if member.Traits.HTTPPayload() {
			payload = &output.Members[i]
			continue
		}
		if streamedMember(m, member) {
			continue
		}
		body = append(body, member)
	}
	return body, payload
}

func opErrorShapes(ctx *codegen.Context, op *model.Shape) ([]*model.Shape, error) {
	shapes := make([]*model.Shape, 0, len(op.Errors))
	for _, id := range op.Errors {
		shape, ok := ctx.Model.Shape(id)
		if !ok {
			return nil, errors.NewCodegenError(string(op.ID), "error shape %s not in model", id)
		}
		shapes = append(shapes, shape)
	}
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].ID < shapes[j].ID })
	return shapes, nil
}

func collectErrorShapes(ctx *codegen.Context, ops []*model.Shape) ([]*model.Shape, error) {
	seen := make(map[model.ShapeID]bool)
	var out []*model.Shape
	for _, op := range ops {
		shapes, err := opErrorShapes(ctx, op)
		if err != nil {
			return nil, err
		}
		for _, shape := range shapes {
			if seen[shape.ID] {
				continue
			}
			seen[shape.ID] = true
			out = append(out, shape)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
