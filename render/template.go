package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/symbol"
)

// Placeholders take a single trailing format rune. $L writes the literal
// text of the argument, $S a quoted Go string, $T the argument symbol as a
// value type, $P the symbol with its pointer qualifier, $D records the
// argument as a dependency without emitting text, and $W runs a Writable.
// $$ escapes the marker. The named form $key:FMT draws from a KV argument
// instead of the positional list.
const formatRunes = "LSTPDW"

// Arg is a named template argument. See KV.
type Arg struct {
	Name  string
	Value any
}

// KV builds a named argument for the $name:FMT placeholder form.
func KV(name string, value any) Arg {
	return Arg{Name: name, Value: value}
}

func isFormatRune(c byte) bool {
	return strings.IndexByte(formatRunes, c) >= 0
}

func isIdentPart(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// expand walks the template once, copying literal text and applying each
// placeholder as it is reached. Any malformed placeholder, missing named
// key, exhausted positional list, or argument left unused fails the whole
// expansion; a template that renders at all renders completely.
func (w *GoWriter) expand(template string, args []any) error {
	var positional []any
	named := make(map[string]any)
	for _, a := range args {
		if kv, ok := a.(Arg); ok {
			named[kv.Name] = kv.Value
		} else {
			positional = append(positional, a)
		}
	}
	usedNamed := make(map[string]bool, len(named))
	posIndex := 0

	flushFrom := 0
	i := 0
	for i < len(template) {
		if template[i] != '$' {
			i++
			continue
		}
		w.writeText(template[flushFrom:i])

		rest := template[i+1:]
		if rest == "" {
			return errors.WrapRender(errors.Wrap(errors.ErrRender, "dangling placeholder marker"), template)
		}
		if rest[0] == '$' {
			w.writeText("$")
			i += 2
			flushFrom = i
			continue
		}

		identLen := 0
		for identLen < len(rest) && isIdentPart(rest[identLen]) {
			identLen++
		}

		switch {
		case identLen > 0 && identLen+1 < len(rest) && rest[identLen] == ':' && isFormatRune(rest[identLen+1]):
			name := rest[:identLen]
			value, ok := named[name]
			if !ok {
				return errors.WrapRender(
					errors.Wrapf(errors.ErrRender, "missing named argument %q", name), template)
			}
			usedNamed[name] = true
			if err := w.applyFormat(rest[identLen+1], value); err != nil {
				return errors.WrapRender(err, template)
			}
			i += 1 + identLen + 2

		case identLen == 1 && isFormatRune(rest[0]):
			if posIndex >= len(positional) {
				return errors.WrapRender(
					errors.Wrapf(errors.ErrRender, "placeholder $%c needs argument %d but only %d supplied",
						rest[0], posIndex+1, len(positional)), template)
			}
			value := positional[posIndex]
			posIndex++
			if err := w.applyFormat(rest[0], value); err != nil {
				return errors.WrapRender(err, template)
			}
			i += 2

		default:
			return errors.WrapRender(
				errors.Wrapf(errors.ErrRender, "unknown placeholder %q", "$"+placeholderPreview(rest)), template)
		}
		flushFrom = i
	}
	w.writeText(template[flushFrom:])

	if posIndex < len(positional) || len(usedNamed) < len(named) {
		return errors.WrapRender(unusedArgsError(len(positional)-posIndex, named, usedNamed), template)
	}
	return nil
}

func (w *GoWriter) applyFormat(format byte, value any) error {
	switch format {
	case 'L':
		if sym, ok := toSymbol(value); ok {
			return w.writeTypeRef(sym, false)
		}
		w.writeText(literalText(value))
	case 'S':
		w.writeText(strconv.Quote(literalText(value)))
	case 'T':
		sym, err := needSymbol(value, 'T')
		if err != nil {
			return err
		}
		return w.writeTypeRef(sym, false)
	case 'P':
		sym, err := needSymbol(value, 'P')
		if err != nil {
			return err
		}
		return w.writeTypeRef(sym, true)
	case 'D':
		switch v := value.(type) {
		case deps.Dependency:
			w.tracker.AddDependency(v)
		case symbol.Symbol:
			w.recordSymbolDeps(v)
		case *symbol.Symbol:
			if v != nil {
				w.recordSymbolDeps(*v)
			}
		default:
			return errors.Wrapf(errors.ErrRender, "placeholder $D needs a dependency or symbol, got %T", value)
		}
	case 'W':
		switch v := value.(type) {
		case Writable:
			return w.withScopedState(func() error { return v(w) })
		case func(*GoWriter) error:
			return w.withScopedState(func() error { return v(w) })
		case string:
			w.writeText(v)
		default:
			return errors.Wrapf(errors.ErrRender, "placeholder $W needs a Writable, got %T", value)
		}
	default:
		return errors.Wrapf(errors.ErrRender, "unknown format rune %c", format)
	}
	return nil
}

// writeTypeRef emits a symbol as a Go type reference, registering imports
// and dependencies as a side effect. pointer requests the pointer-qualified
// form, which only pointable symbols take.
func (w *GoWriter) writeTypeRef(sym symbol.Symbol, pointer bool) error {
	text, err := w.typeRef(sym, pointer)
	if err != nil {
		return err
	}
	w.writeText(text)
	return nil
}

func (w *GoWriter) typeRef(sym symbol.Symbol, pointer bool) (string, error) {
	for _, d := range sym.Deps {
		w.tracker.AddDependency(d)
	}
	for _, ref := range sym.Refs {
		w.recordSymbolDeps(ref)
	}

	switch k := sym.Kind.(type) {
	case symbol.Collection:
		if k.Elem == nil {
			return "", errors.Wrap(errors.ErrRender, "collection symbol without element")
		}
		elem, err := w.typeRef(*k.Elem, k.Elem.Pointable)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case symbol.MapKind:
		if k.Key == nil || k.Value == nil {
			return "", errors.Wrap(errors.ErrRender, "map symbol without key or value")
		}
		key, err := w.typeRef(*k.Key, false)
		if err != nil {
			return "", err
		}
		value, err := w.typeRef(*k.Value, k.Value.Pointable)
		if err != nil {
			return "", err
		}
		return "map[" + key + "]" + value, nil
	}

	if sym.Name == "" {
		return "", errors.Wrap(errors.ErrRender, "symbol without a name")
	}
	name := sym.Name
	if sym.Namespace != "" && sym.Namespace != w.namespace {
		alias := w.imports.AddImport(sym.Namespace, sym.Alias, isStandardPath(sym.Namespace))
		name = alias + "." + sym.Name
	}
	if pointer && sym.Pointable {
		name = "*" + name
	}
	return name, nil
}

func (w *GoWriter) recordSymbolDeps(sym symbol.Symbol) {
	for _, d := range sym.Deps {
		w.tracker.AddDependency(d)
	}
	for _, ref := range sym.Refs {
		w.recordSymbolDeps(ref)
	}
	switch k := sym.Kind.(type) {
	case symbol.Collection:
		if k.Elem != nil {
			w.recordSymbolDeps(*k.Elem)
		}
	case symbol.MapKind:
		if k.Key != nil {
			w.recordSymbolDeps(*k.Key)
		}
		if k.Value != nil {
			w.recordSymbolDeps(*k.Value)
		}
	}
}

func toSymbol(value any) (symbol.Symbol, bool) {
	switch v := value.(type) {
	case symbol.Symbol:
		return v, true
	case *symbol.Symbol:
		if v != nil {
			return *v, true
		}
	}
	return symbol.Symbol{}, false
}

func needSymbol(value any, format byte) (symbol.Symbol, error) {
	sym, ok := toSymbol(value)
	if !ok {
		return symbol.Symbol{}, errors.Wrapf(errors.ErrRender,
			"placeholder $%c needs a symbol, got %T", format, value)
	}
	return sym, nil
}

func literalText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}

func placeholderPreview(rest string) string {
	end := 0
	for end < len(rest) && end < 12 && (isIdentPart(rest[end]) || rest[end] == ':') {
		end++
	}
	if end == 0 {
		end = 1
	}
	return rest[:end]
}

func unusedArgsError(positionalLeft int, named map[string]any, usedNamed map[string]bool) error {
	var parts []string
	if positionalLeft > 0 {
		parts = append(parts, fmt.Sprintf("%d positional", positionalLeft))
	}
	var names []string
	for name := range named {
		if !usedNamed[name] {
			names = append(names, strconv.Quote(name))
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		parts = append(parts, "named "+strings.Join(names, ", "))
	}
	return errors.Wrapf(errors.ErrRender, "unused arguments: %s", strings.Join(parts, "; "))
}
