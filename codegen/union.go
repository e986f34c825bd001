package codegen

import (
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
)

// generateUnion emits the union interface and one wrapper struct per
// variant. The union is a closed interface; only generated wrappers and
// the unit-wide UnknownUnionMember satisfy it.
func generateUnion(ctx *Context, shape *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(shape)
	if err != nil {
		return err
	}
	w := ctx.Files.File(sym.DefFile)

	if docs, ok := shape.Traits.Documentation(); ok {
		w.WriteDocs(docs)
	}
	w.P("type $L interface {", sym.Name)
	w.Indent()
	w.P("is$L()", sym.Name)
	w.Dedent()
	w.P("}")
	w.P("")

	for _, member := range shape.Members {
		variantName := sym.Name + "Member" + util.ExportName(member.Name)
		memberSym, err := ctx.Symbols.MemberSymbol(shape, member)
		if err != nil {
			return err
		}
		if docs, ok := member.Traits.Documentation(); ok {
			w.WriteDocs(docs)
		}
		w.P("type $L struct {", variantName)
		w.Indent()
		w.P("Value $T", memberSym)
		w.Dedent()
		w.P("}")
		w.P("")
		w.P("func (*$L) is$L() {}", variantName, sym.Name)
		w.P("")
	}

	ctx.Aggregates.Unions = append(ctx.Aggregates.Unions, sym)
	return w.Err()
}

// generateUnknownUnionMember emits the single unknown-variant fallback for
// the whole generation unit, satisfying every union interface the walk
// produced. Runs in the aggregation phase so the union list is complete.
func generateUnknownUnionMember(ctx *Context) error {
	if len(ctx.Aggregates.Unions) == 0 {
		return nil
	}
	w := ctx.Files.File("types.go")

	w.WriteDocs("UnknownUnionMember is returned when a union member's wire tag is not known to this build of the client. Tag holds the unrecognized tag and Value the raw bytes of the member.")
	w.P("type UnknownUnionMember struct {")
	w.Indent()
	w.P("Tag string")
	w.P("Value []byte")
	w.Dedent()
	w.P("}")
	w.P("")
	for _, union := range ctx.Aggregates.Unions {
		w.P("func (*UnknownUnionMember) is$L() {}", union.Name)
	}
	w.P("")
	return w.Err()
}
