package codegen

import (
	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/render"
	"github.com/teranos/wiregen/symbol"
)

const validatorsFile = "validators.go"

// generateValidators emits the whole validation surface for the unit: one
// initialize-phase middleware and top-level validator per operation whose
// input needs checks, plus shared per-shape validators for everything
// reachable from those inputs. Violations accumulate into one
// InvalidParamsError instead of failing on the first, with [i], [key], and
// member-name path segments locating each problem.
func generateValidators(ctx *Context) error {
	ops, err := ctx.Model.OperationsOf(ctx.Service)
	if err != nil {
		return err
	}

	w := ctx.Files.File(validatorsFile)
	for _, op := range ops {
		input, ok := ctx.Model.Shape(op.Input)
		if !ok || !ctx.Validation.RequiresValidation(input.ID) {
			continue
		}
		if err := generateOpValidationMiddleware(ctx, w, op, input); err != nil {
			return err
		}
	}

	for _, op := range ops {
		input, ok := ctx.Model.Shape(op.Input)
		if !ok || !ctx.Validation.RequiresValidation(input.ID) {
			continue
		}
		if err := generateOpInputValidator(ctx, w, op, input); err != nil {
			return err
		}
	}

	for _, shape := range collectValidationTargets(ctx) {
		if err := generateShapeValidator(ctx, w, shape); err != nil {
			return err
		}
	}
	return w.Err()
}

// collectValidationTargets returns the non-synthetic input-reachable
// shapes that need their own validator, in sorted id order.
func collectValidationTargets(ctx *Context) []*model.Shape {
	var targets []*model.Shape
	for _, id := range ctx.Model.ShapeIDs() {
		shape, ok := ctx.Model.Shape(id)
		if !ok {
			continue
		}
		switch shape.Type {
		case model.ShapeTypeStructure, model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
		default:
			continue
		}
		if shape.ID.Namespace() == model.SyntheticNamespace {
			continue
		}
		if !ctx.Usage.UsedAsInput(shape.ID) || !ctx.Validation.RequiresValidation(shape.ID) {
			continue
		}
		targets = append(targets, shape)
	}
	return targets
}

func generateOpValidationMiddleware(ctx *Context, w *render.GoWriter, op, input *model.Shape) error {
	opName := util.ExportName(op.ID.Name())
	inputSym, err := ctx.Symbols.ShapeSymbol(input)
	if err != nil {
		return err
	}
	mw := w.Use(deps.RuntimeMiddleware())
	w.AddImport("context", "")
	w.AddImport("fmt", "")

	w.P("type validateOp$L struct{}", opName)
	w.P("")
	w.P("func (*validateOp$L) ID() string {", opName)
	w.Indent()
	w.P("return $S", "OperationInputValidation")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (m *validateOp$L) HandleInitialize(ctx context.Context, in $L.InitializeInput, next $L.InitializeHandler) (", opName, mw, mw)
	w.Indent()
	w.P("out $L.InitializeOutput, metadata $L.Metadata, err error,", mw, mw)
	w.Dedent()
	w.P(") {")
	w.Indent()
	w.P("input, ok := in.Parameters.($P)", inputSym)
	w.P("if !ok {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S, in.Parameters)", "unknown input parameters type %T")
	w.Dedent()
	w.P("}")
	w.P("if err := validateOp$op:LInput(input); err != nil {", render.KV("op", opName))
	w.Indent()
	w.P("return out, metadata, err")
	w.Dedent()
	w.P("}")
	w.P("return next.HandleInitialize(ctx, in)")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func addOp$op:LValidationMiddleware(stack *$L.Stack) error {", render.KV("op", opName), mw)
	w.Indent()
	w.P("return stack.Initialize.Add(&validateOp$L{}, $L.After)", opName, mw)
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func generateOpInputValidator(ctx *Context, w *render.GoWriter, op, input *model.Shape) error {
	opName := util.ExportName(op.ID.Name())
	inputSym, err := ctx.Symbols.ShapeSymbol(input)
	if err != nil {
		return err
	}

	w.P("func validateOp$op:LInput(v $P) error {", render.KV("op", opName), inputSym)
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return nil")
	w.Dedent()
	w.P("}")
	if err := emitParamAccumulator(ctx, w, input, opName+"Input"); err != nil {
		return err
	}
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func generateShapeValidator(ctx *Context, w *render.GoWriter, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}

	name := validatorName(shape)
	if shape.Type == model.ShapeTypeStructure {
		w.P("func $L(v $P) error {", name, sym)
	} else {
		w.P("func $L(v $T) error {", name, sym)
	}
	w.Indent()
	w.P("if v == nil {")
	w.Indent()
	w.P("return nil")
	w.Dedent()
	w.P("}")
	if err := emitParamAccumulator(ctx, w, shape, shape.ID.Name()); err != nil {
		return err
	}
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// emitParamAccumulator writes the accumulator body shared by every
// validator: declare the error collector, run per-member checks, return
// the collection or nil.
func emitParamAccumulator(ctx *Context, w *render.GoWriter, shape *model.Shape, context string) error {
	runtime := w.Use(deps.Runtime())
	w.P("invalidParams := $L.InvalidParamsError{Context: $S}", runtime, context)

	var err error
	switch shape.Type {
	case model.ShapeTypeStructure:
		err = emitStructureChecks(ctx, w, shape, runtime)
	case model.ShapeTypeUnion:
		err = emitUnionChecks(ctx, w, shape, runtime)
	case model.ShapeTypeList:
		err = emitListChecks(ctx, w, shape, runtime)
	case model.ShapeTypeMap:
		err = emitMapChecks(ctx, w, shape, runtime)
	default:
		err = errors.NewCodegenError(string(shape.ID), "no validator body for shape type %s", shape.Type)
	}
	if err != nil {
		return err
	}

	w.P("if invalidParams.Len() > 0 {")
	w.Indent()
	w.P("return invalidParams")
	w.Dedent()
	w.P("}")
	w.P("return nil")
	return w.Err()
}

func emitStructureChecks(ctx *Context, w *render.GoWriter, shape *model.Shape, runtime string) error {
	for _, member := range orderedFields(shape) {
		if err := emitMemberCheck(ctx, w, shape, member, runtime); err != nil {
			return err
		}
	}
	return nil
}

func emitMemberCheck(ctx *Context, w *render.GoWriter, shape *model.Shape, member model.Member, runtime string) error {
	fieldSym, err := ctx.Symbols.MemberSymbol(shape, member)
	if err != nil {
		return err
	}
	target, ok := ctx.Model.Shape(member.Target)
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "member %q targets missing shape", member.Name)
	}

	field := util.ExportName(member.Name)
	required := member.Traits.Required()
	nested := nestedValidator(ctx, target)
	nilComparable := isNilComparable(fieldSym)

	switch {
	case required && nilComparable && nested != "":
		w.P("if v.$L == nil {", field)
		w.Indent()
		w.P("invalidParams.AddError($L.NewErrParamRequired($S))", runtime, field)
		w.Dedent()
		w.P("} else if err := $L(v.$L); err != nil {", nested, field)
		w.Indent()
		w.P("invalidParams.AddNested($S, err.($L.InvalidParamsError))", field, runtime)
		w.Dedent()
		w.P("}")

	case required && nilComparable:
		w.P("if v.$L == nil {", field)
		w.Indent()
		w.P("invalidParams.AddError($L.NewErrParamRequired($S))", runtime, field)
		w.Dedent()
		w.P("}")

	case required && ctx.Mode == model.MemberModeStrict && isStringKind(fieldSym):
		// Value-typed required strings have no distinct absent state; in
		// strict mode emptiness is treated as absence.
		w.P("if len(v.$L) == 0 {", field)
		w.Indent()
		w.P("invalidParams.AddError($L.NewErrParamRequired($S))", runtime, field)
		w.Dedent()
		w.P("}")

	case !required && nested != "" && nilComparable:
		w.P("if v.$L != nil {", field)
		w.Indent()
		w.P("if err := $L(v.$L); err != nil {", nested, field)
		w.Indent()
		w.P("invalidParams.AddNested($S, err.($L.InvalidParamsError))", field, runtime)
		w.Dedent()
		w.P("}")
		w.Dedent()
		w.P("}")
	}
	return w.Err()
}

func emitUnionChecks(ctx *Context, w *render.GoWriter, shape *model.Shape, runtime string) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}

	var cases []model.Member
	for _, member := range shape.Members {
		target, ok := ctx.Model.Shape(member.Target)
		if ok && nestedValidator(ctx, target) != "" {
			cases = append(cases, member)
		}
	}
	if len(cases) == 0 {
		return nil
	}

	w.P("switch uv := v.(type) {")
	for _, member := range cases {
		target, _ := ctx.Model.Shape(member.Target)
		variant := sym.Name + "Member" + util.ExportName(member.Name)
		arg := "uv.Value"
		if target.Type == model.ShapeTypeStructure {
			arg = "&uv.Value"
		}
		w.P("case *$L:", variant)
		w.Indent()
		w.P("if err := $L($L); err != nil {", nestedValidator(ctx, target), arg)
		w.Indent()
		w.P("invalidParams.AddNested($S, err.($L.InvalidParamsError))", "["+member.Name+"]", runtime)
		w.Dedent()
		w.P("}")
		w.Dedent()
	}
	w.P("}")
	return w.Err()
}

func emitListChecks(ctx *Context, w *render.GoWriter, shape *model.Shape, runtime string) error {
	member, ok := shape.ListMember()
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "list without member")
	}
	target, ok := ctx.Model.Shape(member.Target)
	if !ok || nestedValidator(ctx, target) == "" {
		return nil
	}
	w.AddImport("fmt", "")

	w.P("for i := range v {")
	w.Indent()
	w.P("if err := $L(v[i]); err != nil {", nestedValidator(ctx, target))
	w.Indent()
	w.P("invalidParams.AddNested(fmt.Sprintf($S, i), err.($L.InvalidParamsError))", "[%d]", runtime)
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	return w.Err()
}

func emitMapChecks(ctx *Context, w *render.GoWriter, shape *model.Shape, runtime string) error {
	value, ok := shape.MapValue()
	if !ok {
		return errors.NewCodegenError(string(shape.ID), "map without value")
	}
	target, ok := ctx.Model.Shape(value.Target)
	if !ok || nestedValidator(ctx, target) == "" {
		return nil
	}
	w.AddImport("fmt", "")

	w.P("for key := range v {")
	w.Indent()
	w.P("if err := $L(v[key]); err != nil {", nestedValidator(ctx, target))
	w.Indent()
	w.P("invalidParams.AddNested(fmt.Sprintf($S, key), err.($L.InvalidParamsError))", "[%q]", runtime)
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	return w.Err()
}

// nestedValidator names the validator function for a member target, or ""
// when the target needs none.
func nestedValidator(ctx *Context, target *model.Shape) string {
	switch target.Type {
	case model.ShapeTypeStructure, model.ShapeTypeUnion, model.ShapeTypeList, model.ShapeTypeMap:
	default:
		return ""
	}
	if !ctx.Validation.RequiresValidation(target.ID) {
		return ""
	}
	return validatorName(target)
}

func validatorName(shape *model.Shape) string {
	return "validate" + util.ExportName(shape.ID.Name())
}

// isNilComparable reports whether the field's Go representation has a nil
// state: pointers, slices, maps, and interfaces do; value scalars and
// enums do not.
func isNilComparable(sym symbol.Symbol) bool {
	if sym.Pointable {
		return true
	}
	switch sym.Kind.(type) {
	case symbol.Collection, symbol.MapKind, symbol.Record, symbol.Variant,
		symbol.Blob, symbol.Stream, symbol.Document, symbol.Big:
		return true
	}
	return false
}

func isStringKind(sym symbol.Symbol) bool {
	if kind, ok := sym.Kind.(symbol.Enum); ok {
		return !kind.Int
	}
	if _, ok := sym.Kind.(symbol.Scalar); ok {
		return sym.Name == "string"
	}
	return false
}
