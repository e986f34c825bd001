package codegen

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
)

var enumTitler = cases.Title(language.English)

// enumConstName turns an enum member name into the exported constant
// suffix: SCREAMING_SNAKE and kebab forms both flatten to CamelCase.
func enumConstName(memberName string) string {
	parts := strings.FieldsFunc(memberName, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ':' || r == ' '
	})
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(enumTitler.String(strings.ToLower(part)))
	}
	return b.String()
}

// generateEnum emits the enum type, its constant block, and a Values
// method listing every known value. Members are already sorted on the
// shape, so the constant order is stable across runs.
func generateEnum(ctx *Context, shape *model.Shape) error {
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

	intBased := shape.Type == model.ShapeTypeIntEnum
	if intBased {
		w.P("type $L int32", sym.Name)
	} else {
		w.P("type $L string", sym.Name)
	}
	w.P("")

	values := make([]string, 0, len(shape.Members))
	w.P("// Enum values for $L", sym.Name)
	w.P("const (")
	w.Indent()
	for _, member := range shape.Members {
		value, err := enumMemberValue(shape, member, intBased)
		if err != nil {
			return err
		}
		values = append(values, value)
		w.P("$L$L $L = $L", sym.Name, enumConstName(member.Name), sym.Name, value)
	}
	w.Dedent()
	w.P(")")
	w.P("")

	w.P("// Values returns all known values for $L. Note that this can be expanded", sym.Name)
	w.P("// in the future, and so it is only as up to date as the client.")
	w.P("func ($L) Values() []$L {", sym.Name, sym.Name)
	w.Indent()
	w.P("return []$L{", sym.Name)
	w.Indent()
	for _, value := range values {
		w.P("$L,", value)
	}
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

func enumMemberValue(shape *model.Shape, member model.Member, intBased bool) (string, error) {
	if intBased {
		value, ok := member.Traits.EnumIntValue()
		if !ok {
			return "", errors.NewCodegenError(string(shape.ID),
				"int enum member %q has no enumValue trait", member.Name)
		}
		return strconv.FormatInt(value, 10), nil
	}
	return strconv.Quote(member.Traits.EnumStringValue(member.Name)), nil
}
