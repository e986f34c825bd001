package httpjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/model/transform"
	"github.com/teranos/wiregen/symbol"
)

const relayDoc = `{
	"model": "1.0",
	"shapes": {
		"example.relay#Relay": {
			"type": "service",
			"version": "2025-02-02",
			"operations": [
				{"target": "example.relay#PublishEvent"},
				{"target": "example.relay#FetchArchive"}
			],
			"traits": {"wiregen.protocols#httpJson": {}}
		},
		"example.relay#PublishEvent": {
			"type": "operation",
			"input": {"target": "example.relay#PublishEventRequest"},
			"output": {"target": "example.relay#PublishEventResult"},
			"errors": [{"target": "example.relay#QuotaError"}],
			"traits": {"http": {"method": "POST", "uri": "/channels/{channel}/events", "code": 201}}
		},
		"example.relay#FetchArchive": {
			"type": "operation",
			"input": {"target": "example.relay#FetchArchiveRequest"},
			"output": {"target": "example.relay#FetchArchiveResult"},
			"traits": {"http": {"method": "GET", "uri": "/archive"}}
		},
		"example.relay#PublishEventRequest": {
			"type": "structure",
			"members": {
				"channel": {"target": "wiregen.api#String", "traits": {"required": {}, "httpLabel": {}}},
				"attempts": {"target": "wiregen.api#Integer", "traits": {"required": {}}},
				"dryRun": {"target": "wiregen.api#Boolean", "traits": {"httpQuery": "dryRun"}},
				"kinds": {"target": "example.relay#KindList", "traits": {"httpQuery": "kind"}},
				"traceId": {"target": "wiregen.api#String", "traits": {"httpHeader": "x-trace-id"}},
				"note": {"target": "wiregen.api#String"},
				"tags": {"target": "example.relay#TagList"},
				"signal": {"target": "example.relay#Signal"},
				"detail": {"target": "example.relay#Detail"},
				"frames": {"target": "example.relay#FrameStream"}
			}
		},
		"example.relay#PublishEventResult": {
			"type": "structure",
			"members": {
				"eventId": {"target": "wiregen.api#String"},
				"detail": {"target": "example.relay#Detail"},
				"signal": {"target": "example.relay#Signal"}
			}
		},
		"example.relay#FetchArchiveRequest": {
			"type": "structure"
		},
		"example.relay#FetchArchiveResult": {
			"type": "structure",
			"members": {
				"payload": {"target": "example.relay#FrameStream", "traits": {"httpPayload": {}}}
			}
		},
		"example.relay#KindList": {
			"type": "list",
			"member": {"target": "wiregen.api#String"}
		},
		"example.relay#TagList": {
			"type": "list",
			"member": {"target": "wiregen.api#String"},
			"traits": {"sparse": {}}
		},
		"example.relay#FrameStream": {
			"type": "blob",
			"traits": {"streaming": {}}
		},
		"example.relay#Detail": {
			"type": "structure",
			"members": {
				"body": {"target": "wiregen.api#String"}
			}
		},
		"example.relay#Signal": {
			"type": "union",
			"members": {
				"text": {"target": "wiregen.api#String"},
				"detail": {"target": "example.relay#Detail"}
			}
		},
		"example.relay#QuotaError": {
			"type": "structure",
			"members": {
				"message": {"target": "wiregen.api#String"},
				"retryAfter": {"target": "wiregen.api#Integer"}
			},
			"traits": {"error": "client"}
		}
	}
}`

// relayContext builds a generation context for the relay fixture the way
// the orchestrator does before handing it to a protocol generator.
func relayContext(t *testing.T) *codegen.Context {
	t.Helper()
	return protocolContext(t, relayDoc, "example.relay#Relay", "example.com/gen/relay")
}

func protocolContext(t *testing.T, doc string, service model.ShapeID, moduleName string) *codegen.Context {
	t.Helper()
	m, err := model.Decode([]byte(doc), model.FormatJSON)
	require.NoError(t, err)
	m, err = transform.Apply(m, transform.Default())
	require.NoError(t, err)

	settings := codegen.DefaultSettings()
	settings.Service = service
	settings.ModuleName = moduleName

	svc, err := m.ExpectShape(settings.Service, model.ShapeTypeService)
	require.NoError(t, err)
	mode, err := settings.MemberMode()
	require.NoError(t, err)

	return &codegen.Context{
		RunID:      "test-run",
		Model:      m,
		Settings:   settings,
		Service:    svc,
		Symbols:    symbol.NewResolver(m, settings.ModuleName),
		Files:      codegen.NewDelegator(settings.PackageName(), settings.ModuleName),
		Validation: model.NewValidationIndex(m),
		Usage:      model.NewUsageIndex(m),
		Mode:       mode,
		Aggregates: &codegen.Aggregates{},
		Protocol:   Generator{},
	}
}

// fileText finalizes the unit and returns one emitted file unformatted.
func fileText(t *testing.T, ctx *codegen.Context, name string) string {
	t.Helper()
	files, err := ctx.Files.Finalize()
	require.NoError(t, err)
	content, ok := files[name]
	require.True(t, ok, "file %s not emitted, have %v", name, ctx.Files.Filenames())
	return string(content)
}

func memberNames(members []model.Member) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

func TestGeneratorRegistersByDefault(t *testing.T) {
	g, ok := codegen.DefaultProtocols().Get("wiregen.protocols#httpJson")
	require.True(t, ok)
	assert.Equal(t, "wiregen.protocols#httpJson", g.ID())
}

func TestSplitBindings(t *testing.T) {
	ctx := relayContext(t)
	input, ok := ctx.Model.Shape("wiregen.synthetic#PublishEventInput")
	require.True(t, ok)

	split, err := splitBindings(ctx.Model, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"channel"}, memberNames(split.labels))
	assert.Equal(t, []string{"dryRun", "kinds"}, memberNames(split.queries))
	assert.Equal(t, []string{"traceId"}, memberNames(split.headers))
	assert.Nil(t, split.payload)
	// Streaming frames travel out of band and bind nowhere.
	assert.Equal(t, []string{"attempts", "detail", "note", "signal", "tags"}, memberNames(split.body))
	assert.True(t, split.hasRestBindings())
}

func TestSplitBindingsPayload(t *testing.T) {
	ctx := relayContext(t)
	output, ok := ctx.Model.Shape("wiregen.synthetic#FetchArchiveOutput")
	require.True(t, ok)

	split, err := splitBindings(ctx.Model, output)
	require.NoError(t, err)
	require.NotNil(t, split.payload)
	assert.Equal(t, "payload", split.payload.Name)
	assert.Empty(t, split.body)
	assert.False(t, split.hasRestBindings())
}

func TestSplitBindingsPayloadConflicts(t *testing.T) {
	ctx := relayContext(t)

	dup := &model.Shape{ID: "example.relay#Dup", Type: model.ShapeTypeStructure, Members: []model.Member{
		{Name: "first", Target: "wiregen.api#Blob"},
		{Name: "second", Target: "wiregen.api#Blob"},
	}}
	require.NoError(t, dup.Members[0].Traits.Set(model.TraitHTTPPayload, struct{}{}))
	require.NoError(t, dup.Members[1].Traits.Set(model.TraitHTTPPayload, struct{}{}))
	_, err := splitBindings(ctx.Model, dup)
	assert.ErrorContains(t, err, `members "first" and "second" both claim the http payload`)

	mixed := &model.Shape{ID: "example.relay#Mixed", Type: model.ShapeTypeStructure, Members: []model.Member{
		{Name: "blob", Target: "wiregen.api#Blob"},
		{Name: "note", Target: "wiregen.api#String"},
	}}
	require.NoError(t, mixed.Members[0].Traits.Set(model.TraitHTTPPayload, struct{}{}))
	_, err = splitBindings(ctx.Model, mixed)
	assert.ErrorContains(t, err, `member "blob" claims the http payload but 1 other members bind to the body`)
}

func TestHTTPBindingDefault(t *testing.T) {
	op := &model.Shape{ID: "example.relay#Bare", Type: model.ShapeTypeOperation}
	h := httpBinding(op)
	assert.Equal(t, "POST", h.Method)
	assert.Equal(t, "/", h.URI)
	assert.Equal(t, 200, h.Code)

	ctx := relayContext(t)
	publish, ok := ctx.Model.Shape("example.relay#PublishEvent")
	require.True(t, ok)
	h = httpBinding(publish)
	assert.Equal(t, "POST", h.Method)
	assert.Equal(t, "/channels/{channel}/events", h.URI)
	assert.Equal(t, 201, h.Code)
}

func TestDocumentTargetNames(t *testing.T) {
	ctx := relayContext(t)

	input, ok := ctx.Model.Shape("wiregen.synthetic#PublishEventInput")
	require.True(t, ok)
	assert.Equal(t, "serializeOpDocumentPublishEventInput", docSerializerName(input))
	assert.Equal(t, "deserializeOpDocumentPublishEventInput", docDeserializerName(input))

	detail, ok := ctx.Model.Shape("example.relay#Detail")
	require.True(t, ok)
	assert.Equal(t, "serializeDocumentDetail", docSerializerName(detail))
	assert.Equal(t, "deserializeDocumentDetail", docDeserializerName(detail))
}
