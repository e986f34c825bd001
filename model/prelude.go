package model

// PreludeNamespace holds the built-in scalar shapes every model may target
// without declaring them.
const PreludeNamespace = "wiregen.api"

var preludeTypes = map[string]ShapeType{
	"Boolean":    ShapeTypeBoolean,
	"Byte":       ShapeTypeByte,
	"Short":      ShapeTypeShort,
	"Integer":    ShapeTypeInteger,
	"Long":       ShapeTypeLong,
	"Float":      ShapeTypeFloat,
	"Double":     ShapeTypeDouble,
	"BigInteger": ShapeTypeBigInteger,
	"BigDecimal": ShapeTypeBigDecimal,
	"String":     ShapeTypeString,
	"Blob":       ShapeTypeBlob,
	"Timestamp":  ShapeTypeTimestamp,
	"Document":   ShapeTypeDocument,
}

// preludeShapes materializes the built-in shapes for a fresh model.
func preludeShapes() []*Shape {
	out := make([]*Shape, 0, len(preludeTypes))
	for name, t := range preludeTypes {
		out = append(out, &Shape{
			ID:   ShapeID(PreludeNamespace + "#" + name),
			Type: t,
		})
	}
	return out
}

// IsPrelude reports whether the id lives in the built-in namespace.
func IsPrelude(id ShapeID) bool {
	return id.Namespace() == PreludeNamespace
}
