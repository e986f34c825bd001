package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/model/transform"
)

func decode(t *testing.T, doc string) *model.Model {
	t.Helper()
	m, err := model.Decode([]byte(doc), model.FormatJSON)
	require.NoError(t, err)
	return m
}

func TestFlattenMixins(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#Timestamps": {"type": "structure", "members": {
	    "createdAt": {"target": "wiregen.api#Timestamp"},
	    "updatedAt": {"target": "wiregen.api#Timestamp"}
	  }, "traits": {"documentation": "Audit fields."}},
	  "a#City": {"type": "structure", "mixins": [{"target": "a#Timestamps"}], "members": {
	    "name": {"target": "wiregen.api#String"},
	    "updatedAt": {"target": "wiregen.api#String"}
	  }, "traits": {"documentation": "A city."}}
	}}`)

	out, err := transform.FlattenMixins(m)
	require.NoError(t, err)

	city, ok := out.Shape("a#City")
	require.True(t, ok)
	assert.Empty(t, city.Mixins, "mixin links are cleared")
	assert.Equal(t, []string{"createdAt", "name", "updatedAt"}, city.MemberNames())

	// Local definitions beat mixin-provided ones.
	updated, _ := city.Member("updatedAt")
	assert.Equal(t, model.ShapeID("wiregen.api#String"), updated.Target)

	docStr, _ := city.Traits.Documentation()
	assert.Equal(t, "A city.", docStr, "local traits win")

	// The input model is untouched.
	orig, _ := m.Shape("a#City")
	assert.Len(t, orig.Mixins, 1)
}

func TestFlattenMixinsTransitive(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#Base": {"type": "structure", "members": {"id": {"target": "wiregen.api#String"}}},
	  "a#Mid": {"type": "structure", "mixins": [{"target": "a#Base"}], "members": {"mid": {"target": "wiregen.api#String"}}},
	  "a#Leaf": {"type": "structure", "mixins": [{"target": "a#Mid"}], "members": {"leaf": {"target": "wiregen.api#String"}}}
	}}`)

	out, err := transform.FlattenMixins(m)
	require.NoError(t, err)

	leaf, _ := out.Shape("a#Leaf")
	assert.Equal(t, []string{"id", "leaf", "mid"}, leaf.MemberNames())
}

func TestFlattenMixinsCycle(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#One": {"type": "structure", "mixins": [{"target": "a#Two"}]},
	  "a#Two": {"type": "structure", "mixins": [{"target": "a#One"}]}
	}}`)

	_, err := transform.FlattenMixins(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixin cycle")
}

func TestSynthesizeOperationIO(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#GetCity": {"type": "operation", "input": {"target": "a#CityQuery"}},
	  "a#CityQuery": {"type": "structure", "members": {
	    "name": {"target": "wiregen.api#String", "traits": {"required": {}}}
	  }}
	}}`)

	out, err := transform.SynthesizeOperationIO(m)
	require.NoError(t, err)

	op, _ := out.Shape("a#GetCity")
	assert.Equal(t, model.ShapeID("wiregen.synthetic#GetCityInput"), op.Input)
	assert.Equal(t, model.ShapeID("wiregen.synthetic#GetCityOutput"), op.Output)

	input, ok := out.Shape("wiregen.synthetic#GetCityInput")
	require.True(t, ok)
	assert.True(t, input.Traits.Synthetic())
	assert.Equal(t, []string{"name"}, input.MemberNames(), "members are cloned from the referenced structure")

	output, ok := out.Shape("wiregen.synthetic#GetCityOutput")
	require.True(t, ok)
	assert.Empty(t, output.Members, "absent output becomes an empty wrapper")

	// The referenced structure survives under its own id.
	orig, ok := out.Shape("a#CityQuery")
	require.True(t, ok)
	assert.False(t, orig.Traits.Synthetic())
}

func TestSynthesizeOperationIOCollision(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#Get": {"type": "operation"},
	  "b#Get": {"type": "operation"}
	}}`)

	_, err := transform.SynthesizeOperationIO(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiregen.synthetic#GetInput")
}

func TestPropagateServiceErrors(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#Svc": {"type": "service",
	    "operations": [{"target": "a#One"}, {"target": "a#Two"}],
	    "errors": [{"target": "a#Throttled"}, {"target": "a#AccessDenied"}]},
	  "a#One": {"type": "operation", "errors": [{"target": "a#Throttled"}]},
	  "a#Two": {"type": "operation"},
	  "a#Throttled": {"type": "structure", "traits": {"error": "server"}},
	  "a#AccessDenied": {"type": "structure", "traits": {"error": "client"}}
	}}`)

	out, err := transform.PropagateServiceErrors(m)
	require.NoError(t, err)

	one, _ := out.Shape("a#One")
	assert.Equal(t, []model.ShapeID{"a#Throttled", "a#AccessDenied"}, one.Errors,
		"local errors stay first; common ones append once")

	two, _ := out.Shape("a#Two")
	assert.Equal(t, []model.ShapeID{"a#AccessDenied", "a#Throttled"}, two.Errors,
		"appended common errors are sorted")
}

func TestApplyRunsInOrder(t *testing.T) {
	m := decode(t, `{"shapes": {
	  "a#Svc": {"type": "service", "operations": [{"target": "a#Get"}]},
	  "a#Get": {"type": "operation", "input": {"target": "a#Query"}},
	  "a#Query": {"type": "structure", "mixins": [{"target": "a#Paged"}], "members": {
	    "name": {"target": "wiregen.api#String"}
	  }},
	  "a#Paged": {"type": "structure", "members": {"pageSize": {"target": "wiregen.api#Integer"}}}
	}}`)

	out, err := transform.Apply(m, transform.Default())
	require.NoError(t, err)

	// Mixins flattened before IO synthesis, so the wrapper has the mixin
	// member too.
	input, ok := out.Shape("wiregen.synthetic#GetInput")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "pageSize"}, input.MemberNames())
}
