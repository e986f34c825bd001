// Package symbol maps model shapes onto Go type descriptors. A Symbol says
// what a shape is called in generated code, where it lives, whether code
// passes it by pointer, and which imports and module dependencies come with
// it. Pointer classification is the load-bearing part; see Resolver.
package symbol

import (
	"fmt"

	"github.com/teranos/wiregen/deps"
)

// Symbol describes one resolvable type in generated output.
type Symbol struct {
	Name      string // type name, or the full token for builtins ("int32", "[]byte")
	Namespace string // import path of the defining package, "" for universe types
	Alias     string // preferred alias when importing Namespace
	DefFile   string // relative file the declaration is emitted into, "" if none
	Pointable bool   // callers hold this by pointer
	Kind      Kind
	Refs      []Symbol          // symbols that must accompany this one
	Deps      []deps.Dependency // build-time requirements of referencing code
}

// Equal compares identity: name and namespace.
func (s Symbol) Equal(o Symbol) bool {
	return s.Name == o.Name && s.Namespace == o.Namespace
}

// String renders a diagnostic form, not valid Go.
func (s Symbol) String() string {
	if s.Namespace == "" {
		return s.Name
	}
	return fmt.Sprintf("%s.%s", s.Namespace, s.Name)
}

// Kind is the closed classification generators pattern-match on. Every
// variant is a struct so matches can destructure element symbols directly.
type Kind interface {
	kind()
}

// Scalar is a universe value type: bool, the sized numbers, string,
// time.Time.
type Scalar struct{}

// Big is an arbitrary-precision number, held by pointer always.
type Big struct{}

// Blob is an opaque byte payload ([]byte).
type Blob struct{}

// Stream is a streaming payload exposed through the runtime reader
// interface rather than materialized bytes.
type Stream struct{}

// Document is the open-content document type.
type Document struct{}

// Collection is a slice type; Elem carries the element symbol with its own
// pointer classification.
type Collection struct {
	Elem *Symbol
}

// MapKind is a string-keyed map; Value carries the value symbol.
type MapKind struct {
	Key   *Symbol
	Value *Symbol
}

// Record is a generated struct type.
type Record struct{}

// Variant is a generated union interface.
type Variant struct{}

// Enum is a generated enum; Int distinguishes int-backed from string-backed.
type Enum struct {
	Int bool
}

// Service is the generated client.
type Service struct{}

// Operation is a callable operation; it renders as a client method, never a
// type reference.
type Operation struct{}

func (Scalar) kind()     {}
func (Big) kind()        {}
func (Blob) kind()       {}
func (Stream) kind()     {}
func (Document) kind()   {}
func (Collection) kind() {}
func (MapKind) kind()    {}
func (Record) kind()     {}
func (Variant) kind()    {}
func (Enum) kind()       {}
func (Service) kind()    {}
func (Operation) kind()  {}
