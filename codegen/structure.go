package codegen

import (
	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/render"
	"github.com/teranos/wiregen/symbol"
)

// orderedFields returns members in emission order: required first, then
// optional, each group alphabetical. Members arrive sorted on the shape,
// so a stable partition is enough.
func orderedFields(shape *model.Shape) []model.Member {
	ordered := make([]model.Member, 0, len(shape.Members))
	for _, m := range shape.Members {
		if m.Traits.Required() {
			ordered = append(ordered, m)
		}
	}
	for _, m := range shape.Members {
		if !m.Traits.Required() {
			ordered = append(ordered, m)
		}
	}
	return ordered
}

// generateStructure emits the struct declaration for a structure shape,
// and for error shapes the runtime error interface methods.
func generateStructure(ctx *Context, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	w := ctx.Files.File(sym.DefFile)

	if docs, ok := shape.Traits.Documentation(); ok {
		w.WriteDocs(docs)
	}
	if dep, ok := shape.Traits.Deprecated(); ok {
		w.WriteDeprecated(dep.Message)
	}

	w.P("type $L struct {", sym.Name)
	w.Indent()
	for i, member := range orderedFields(shape) {
		if i > 0 {
			w.P("")
		}
		if docs, ok := member.Traits.Documentation(); ok {
			w.WriteDocs(docs)
		}
		if member.Traits.Required() {
			w.P("// This member is required.")
		}
		if dep, ok := member.Traits.Deprecated(); ok {
			w.WriteDeprecated(dep.Message)
		}
		fieldSym, err := ctx.Symbols.MemberSymbol(shape, member)
		if err != nil {
			return err
		}
		w.P("$L $P", util.ExportName(member.Name), fieldSym)
	}
	if isSyntheticOutput(shape) {
		mw := w.Use(deps.RuntimeMiddleware())
		if len(shape.Members) > 0 {
			w.P("")
		}
		w.P("// Metadata pertaining to the operation's result.")
		w.P("ResultMetadata $L.Metadata", mw)
	}
	w.Dedent()
	w.P("}")
	w.P("")

	if shape.Traits.Has(model.TraitError) {
		if err := generateErrorMethods(ctx, w, shape, sym); err != nil {
			return err
		}
	}
	return w.Err()
}

// generateErrorMethods satisfies the runtime's APIError contract for a
// modeled error structure.
func generateErrorMethods(ctx *Context, w *render.GoWriter, shape *model.Shape, sym symbol.Symbol) error {
	runtime := w.Use(deps.Runtime())
	w.AddImport("fmt", "")

	w.P("func (e $P) Error() string {", sym)
	w.Indent()
	w.P("return fmt.Sprintf($S, e.ErrorCode(), e.ErrorMessage())", "%s: %s")
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("func (e $P) ErrorMessage() string {", sym)
	w.Indent()
	if member, ok := messageMember(shape); ok {
		fieldSym, err := ctx.Symbols.MemberSymbol(shape, *member)
		if err != nil {
			return err
		}
		field := util.ExportName(member.Name)
		if fieldSym.Pointable {
			w.P("if e.$L == nil {", field)
			w.Indent()
			w.P("return \"\"")
			w.Dedent()
			w.P("}")
			w.P("return *e.$L", field)
		} else {
			w.P("return e.$L", field)
		}
	} else {
		w.P("return \"\"")
	}
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("func (e $P) ErrorCode() string {", sym)
	w.Indent()
	w.P("return $S", shape.ID.Name())
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("func (e $P) ErrorFault() $L.ErrorFault {", sym, runtime)
	w.Indent()
	w.P("return $L.$L", runtime, faultConstant(shape))
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// messageMember finds the conventional human-readable message member.
func messageMember(shape *model.Shape) (*model.Member, bool) {
	for _, name := range []string{"message", "Message"} {
		if member, ok := shape.Member(name); ok {
			return member, true
		}
	}
	return nil, false
}

func faultConstant(shape *model.Shape) string {
	fault, _ := shape.Traits.ErrorFault()
	switch fault {
	case "client":
		return "FaultClient"
	case "server":
		return "FaultServer"
	}
	return "FaultUnknown"
}
