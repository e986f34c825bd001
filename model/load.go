package model

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/wiregen/errors"
)

// Format selects the document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the encoding from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return FormatJSON, errors.NewInvalidModelError("unsupported model file extension %q", filepath.Ext(path))
	}
}

// Load reads and decodes a model document from disk.
func Load(path string) (*Model, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model %s", path)
	}
	m, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "loading model %s", path)
	}
	return m, nil
}

// Decode parses a model document. YAML input is normalized to JSON first so
// both encodings share one decode path.
func Decode(data []byte, format Format) (*Model, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}
	return decodeJSON(data)
}

type shapeRef struct {
	Target string `json:"target"`
}

type documentMember struct {
	Target string                     `json:"target"`
	Traits map[string]json.RawMessage `json:"traits"`
}

type documentShape struct {
	Type       string                     `json:"type"`
	Members    map[string]documentMember  `json:"members"`
	Member     *documentMember            `json:"member"`
	Key        *documentMember            `json:"key"`
	Value      *documentMember            `json:"value"`
	Input      *shapeRef                  `json:"input"`
	Output     *shapeRef                  `json:"output"`
	Errors     []shapeRef                 `json:"errors"`
	Operations []shapeRef                 `json:"operations"`
	Resources  []shapeRef                 `json:"resources"`
	Version    string                     `json:"version"`
	Mixins     []shapeRef                 `json:"mixins"`
	Traits     map[string]json.RawMessage `json:"traits"`
}

// shapeDocMap decodes the "shapes" object token by token so duplicate shape
// ids are caught instead of silently last-writer-winning.
type shapeDocMap map[string]documentShape

func (sm *shapeDocMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.NewInvalidModelError("shapes must be an object")
	}

	out := make(map[string]documentShape)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		if _, dup := out[key]; dup {
			return errors.NewInvalidModelError("duplicate shape id %q", key)
		}
		var ds documentShape
		if err := dec.Decode(&ds); err != nil {
			return errors.Wrapf(err, "decoding shape %q", key)
		}
		out[key] = ds
	}
	*sm = out
	return nil
}

type document struct {
	Model  string      `json:"model"`
	Shapes shapeDocMap `json:"shapes"`
}

func decodeJSON(data []byte) (*Model, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		if errors.IsInvalidModelError(err) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	if len(doc.Shapes) == 0 {
		return nil, errors.NewInvalidModelError("document declares no shapes")
	}
	return buildModel(doc)
}

func buildModel(doc document) (*Model, error) {
	m := &Model{shapes: make(map[ShapeID]*Shape)}
	for _, s := range preludeShapes() {
		if err := m.AddShape(s); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(doc.Shapes))
	for id := range doc.Shapes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, rawID := range ids {
		shape, err := buildShape(ShapeID(rawID), doc.Shapes[rawID])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := m.AddShape(shape); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := validateReferences(m); err != nil {
		return nil, err
	}
	return m, nil
}

func buildShape(id ShapeID, ds documentShape) (*Shape, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	switch id.Namespace() {
	case PreludeNamespace, SyntheticNamespace:
		return nil, errors.NewInvalidModelError("namespace %q is reserved (shape %q)", id.Namespace(), id)
	}
	t, err := ParseShapeType(ds.Type)
	if err != nil {
		return nil, errors.Wrapf(err, "shape %q", id)
	}

	s := &Shape{
		ID:      id,
		Type:    t,
		Traits:  TraitSet(ds.Traits),
		Version: ds.Version,
	}
	if ds.Type == "set" {
		if s.Traits == nil {
			s.Traits = make(TraitSet)
		}
		s.Traits[TraitUniqueItems] = json.RawMessage("{}")
	}

	addMember := func(name string, dm *documentMember) error {
		if dm == nil || dm.Target == "" {
			return errors.NewInvalidModelError("shape %q is missing its %q member", id, name)
		}
		s.Members = append(s.Members, Member{
			Name:   name,
			Target: ShapeID(dm.Target),
			Traits: TraitSet(dm.Traits),
		})
		return nil
	}

	switch t {
	case ShapeTypeList:
		if err := addMember("member", ds.Member); err != nil {
			return nil, err
		}
	case ShapeTypeMap:
		if err := addMember("key", ds.Key); err != nil {
			return nil, err
		}
		if err := addMember("value", ds.Value); err != nil {
			return nil, err
		}
	case ShapeTypeStructure, ShapeTypeUnion, ShapeTypeEnum, ShapeTypeIntEnum:
		names := make([]string, 0, len(ds.Members))
		for name := range ds.Members {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			dm := ds.Members[name]
			if dm.Target == "" && (t == ShapeTypeEnum || t == ShapeTypeIntEnum) {
				// Enum members only exist for their name and enumValue
				// trait; the target is implicit.
				dm.Target = PreludeNamespace + "#String"
			}
			if err := addMember(name, &dm); err != nil {
				return nil, err
			}
		}
		if t == ShapeTypeUnion && len(s.Members) == 0 {
			return nil, errors.NewInvalidModelError("union %q has no variants", id)
		}
		if (t == ShapeTypeEnum || t == ShapeTypeIntEnum) && len(s.Members) == 0 {
			return nil, errors.NewInvalidModelError("enum %q has no members", id)
		}
	case ShapeTypeOperation:
		if ds.Input != nil {
			s.Input = ShapeID(ds.Input.Target)
		}
		if ds.Output != nil {
			s.Output = ShapeID(ds.Output.Target)
		}
		for _, ref := range ds.Errors {
			s.Errors = append(s.Errors, ShapeID(ref.Target))
		}
	case ShapeTypeService, ShapeTypeResource:
		for _, ref := range ds.Operations {
			s.Operations = append(s.Operations, ShapeID(ref.Target))
		}
		for _, ref := range ds.Resources {
			s.Resources = append(s.Resources, ShapeID(ref.Target))
		}
		// Services may declare common errors applied to every operation.
		for _, ref := range ds.Errors {
			s.Errors = append(s.Errors, ShapeID(ref.Target))
		}
	}

	for _, ref := range ds.Mixins {
		s.Mixins = append(s.Mixins, ShapeID(ref.Target))
	}
	return s, nil
}

// validateReferences checks that every edge in the graph lands on a declared
// shape and that operation IO references are structures. All failures are
// reported together.
func validateReferences(m *Model) error {
	var errs []error
	check := func(from ShapeID, to ShapeID, what string) *Shape {
		if to == "" {
			return nil
		}
		target, ok := m.Shape(to)
		if !ok {
			errs = append(errs, errors.NewInvalidModelError("shape %q: %s target %q not in model", from, what, to))
			return nil
		}
		return target
	}

	for _, id := range m.ShapeIDs() {
		s := m.shapes[id]
		for _, member := range s.Members {
			check(id, member.Target, "member "+member.Name)
		}
		if in := check(id, s.Input, "input"); in != nil && in.Type != ShapeTypeStructure {
			errs = append(errs, errors.NewInvalidModelError("shape %q: input %q must be a structure, found %s", id, s.Input, in.Type))
		}
		if out := check(id, s.Output, "output"); out != nil && out.Type != ShapeTypeStructure {
			errs = append(errs, errors.NewInvalidModelError("shape %q: output %q must be a structure, found %s", id, s.Output, out.Type))
		}
		for _, eid := range s.Errors {
			check(id, eid, "error")
		}
		for _, oid := range s.Operations {
			if op := check(id, oid, "operation"); op != nil && op.Type != ShapeTypeOperation {
				errs = append(errs, errors.NewInvalidModelError("shape %q: binding %q must be an operation, found %s", id, oid, op.Type))
			}
		}
		for _, rid := range s.Resources {
			if res := check(id, rid, "resource"); res != nil && res.Type != ShapeTypeResource {
				errs = append(errs, errors.NewInvalidModelError("shape %q: binding %q must be a resource, found %s", id, rid, res.Type))
			}
		}
		for _, mid := range s.Mixins {
			check(id, mid, "mixin")
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// yamlToJSON re-encodes a YAML document as JSON, rejecting duplicate mapping
// keys anywhere in the tree.
func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	if err := checkDuplicateKeys(&root); err != nil {
		return nil, err
	}
	var generic interface{}
	if err := root.Decode(&generic); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidModel, err.Error())
	}
	return out, nil
}

func checkDuplicateKeys(n *yaml.Node) error {
	if n.Kind == yaml.MappingNode {
		seen := make(map[string]bool)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if seen[key] {
				return errors.NewInvalidModelError("duplicate key %q at line %d", key, n.Content[i].Line)
			}
			seen[key] = true
		}
	}
	for _, child := range n.Content {
		if err := checkDuplicateKeys(child); err != nil {
			return err
		}
	}
	return nil
}
