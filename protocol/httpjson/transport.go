package httpjson

import (
	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/logger"
	"github.com/teranos/wiregen/render"
)

const (
	endpointsFile = "endpoints.go"
	authFile      = "auth.go"
)

// GenerateTransport emits the endpoint resolution and auth scheme scaffolding
// the client constructor and operation stacks wire in.
func (g Generator) GenerateTransport(ctx *codegen.Context) error {
	if !ctx.Service.Traits.HasEndpointRules() {
		logger.Warnw("no modeled endpoint rules, resolution requires an endpoint override",
			"run_id", ctx.RunID,
			"service", string(ctx.Service.ID))
	}
	if err := generateEndpoints(ctx); err != nil {
		return err
	}
	return generateAuth(ctx)
}

func generateEndpoints(ctx *codegen.Context) error {
	w := ctx.Files.File(endpointsFile)
	runtime := w.Use(deps.Runtime())
	mw := w.Use(deps.RuntimeMiddleware())
	transport := w.Use(deps.RuntimeHTTP())
	w.AddImport("context", "")
	w.AddImport("fmt", "")
	w.AddImport("net/url", "")

	w.P("// EndpointParameters carries the inputs to endpoint resolution.")
	w.P("type EndpointParameters struct {")
	w.Indent()
	w.P("// Endpoint overrides all modeled rules when set.")
	w.P("Endpoint *string")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("// EndpointResolver resolves the base endpoint a request is sent to.")
	w.P("type EndpointResolver interface {")
	w.Indent()
	w.P("ResolveEndpoint(ctx context.Context, params EndpointParameters) ($L.Endpoint, error)", runtime)
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("type defaultEndpointResolver struct{}")
	w.P("")
	w.P("func (defaultEndpointResolver) ResolveEndpoint(ctx context.Context, params EndpointParameters) ($L.Endpoint, error) {", runtime)
	w.Indent()
	w.P("if params.Endpoint != nil {")
	w.Indent()
	w.P("u, err := url.Parse(*params.Endpoint)")
	w.P("if err != nil {")
	w.Indent()
	w.P("return $L.Endpoint{}, fmt.Errorf($S, err)", runtime, "parsing endpoint override, %w")
	w.Dedent()
	w.P("}")
	w.P("return $L.Endpoint{URI: *u}, nil", runtime)
	w.Dedent()
	w.P("}")
	w.P("return $L.Endpoint{}, fmt.Errorf($S, ServiceID)", runtime, "no endpoint rules are modeled for %s, set Options.BaseEndpoint")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func resolveEndpointResolver(o *Options) {")
	w.Indent()
	w.P("if o.EndpointResolver != nil {")
	w.Indent()
	w.P("return")
	w.Dedent()
	w.P("}")
	w.P("o.EndpointResolver = defaultEndpointResolver{}")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("type resolveEndpointMiddleware struct {")
	w.Indent()
	w.P("options Options")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (*resolveEndpointMiddleware) ID() string {")
	w.Indent()
	w.P("return $S", "ResolveEndpoint")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (m *resolveEndpointMiddleware) HandleSerialize(ctx context.Context, in $L.SerializeInput, next $L.SerializeHandler) (", mw, mw)
	w.Indent()
	w.P("out $L.SerializeOutput, metadata $L.Metadata, err error,", mw, mw)
	w.Dedent()
	w.P(") {")
	w.Indent()
	w.P("request, ok := in.Request.(*$L.Request)", transport)
	w.P("if !ok {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S, in.Request)", "unknown transport type %T")
	w.Dedent()
	w.P("}")
	w.P("if m.options.EndpointResolver == nil {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S)", "expected endpoint resolver to not be nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("params := EndpointParameters{Endpoint: m.options.BaseEndpoint}")
	w.P("endpoint, err := m.options.EndpointResolver.ResolveEndpoint(ctx, params)")
	w.P("if err != nil {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S, err)", "failed to resolve service endpoint, %w")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("request.URL.Scheme = endpoint.URI.Scheme")
	w.P("request.URL.Host = endpoint.URI.Host")
	w.P("request.URL.Path = $L.JoinPath(endpoint.URI.Path, request.URL.Path)", transport)
	w.P("return next.HandleSerialize(ctx, in)")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func addResolveEndpointMiddleware(stack *$L.Stack, options Options) error {", mw)
	w.Indent()
	w.P("return stack.Serialize.Insert(&resolveEndpointMiddleware{options: options}, $S, $L.Before)", "OperationSerializer", mw)
	w.Dedent()
	w.P("}")
	return w.Err()
}

func generateAuth(ctx *codegen.Context) error {
	w := ctx.Files.File(authFile)
	mw := w.Use(deps.RuntimeMiddleware())
	authAlias := w.Use(deps.RuntimeAuth())
	w.AddImport("context", "")
	w.AddImport("fmt", "")

	w.P("// AuthResolverParameters carries the inputs to auth scheme resolution.")
	w.P("type AuthResolverParameters struct {")
	w.Indent()
	w.P("// Operation is the name of the API call being made.")
	w.P("Operation string")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("// AuthSchemeResolver selects the auth schemes a request may use, in")
	w.P("// preference order.")
	w.P("type AuthSchemeResolver interface {")
	w.Indent()
	w.P("ResolveAuthSchemes(ctx context.Context, params AuthResolverParameters) ([]$L.Option, error)", authAlias)
	w.Dedent()
	w.P("}")
	w.P("")
	if err := writeSupportedSchemes(ctx, w, authAlias); err != nil {
		return err
	}
	w.P("")
	w.P("type defaultAuthSchemeResolver struct{}")
	w.P("")
	w.P("func (defaultAuthSchemeResolver) ResolveAuthSchemes(ctx context.Context, params AuthResolverParameters) ([]$L.Option, error) {", authAlias)
	w.Indent()
	w.P("options := make([]$L.Option, 0, len(supportedAuthSchemes))", authAlias)
	w.P("for _, id := range supportedAuthSchemes {")
	w.Indent()
	w.P("options = append(options, $L.Option{SchemeID: id})", authAlias)
	w.Dedent()
	w.P("}")
	w.P("return options, nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func resolveAuthSchemeResolver(o *Options) {")
	w.Indent()
	w.P("if o.AuthSchemeResolver != nil {")
	w.Indent()
	w.P("return")
	w.Dedent()
	w.P("}")
	w.P("o.AuthSchemeResolver = defaultAuthSchemeResolver{}")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("type authSchemeMiddleware struct {")
	w.Indent()
	w.P("options   Options")
	w.P("operation string")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (*authSchemeMiddleware) ID() string {")
	w.Indent()
	w.P("return $S", "ResolveAuthScheme")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func (m *authSchemeMiddleware) HandleFinalize(ctx context.Context, in $L.FinalizeInput, next $L.FinalizeHandler) (", mw, mw)
	w.Indent()
	w.P("out $L.FinalizeOutput, metadata $L.Metadata, err error,", mw, mw)
	w.Dedent()
	w.P(") {")
	w.Indent()
	w.P("if m.options.AuthSchemeResolver == nil {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S)", "expected auth scheme resolver to not be nil")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("params := AuthResolverParameters{Operation: m.operation}")
	w.P("options, err := m.options.AuthSchemeResolver.ResolveAuthSchemes(ctx, params)")
	w.P("if err != nil {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S, err)", "failed to resolve auth schemes, %w")
	w.Dedent()
	w.P("}")
	w.P("if len(options) == 0 {")
	w.Indent()
	w.P("return out, metadata, fmt.Errorf($S, m.operation)", "no auth scheme resolved for operation %s")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("ctx = $L.SetSelectedScheme(ctx, options[0])", authAlias)
	w.P("return next.HandleFinalize(ctx, in)")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("func addAuthSchemeMiddleware(stack *$L.Stack, options Options) error {", mw)
	w.Indent()
	w.P("return stack.Finalize.Add(&authSchemeMiddleware{options: options, operation: stack.ID()}, $L.Before)", mw)
	w.Dedent()
	w.P("}")
	return w.Err()
}

// writeSupportedSchemes emits the modeled scheme ids plus any plugin
// contributions, falling back to the anonymous scheme when neither names
// one. Modeled schemes keep their preference order; plugin schemes follow.
func writeSupportedSchemes(ctx *codegen.Context, w *render.GoWriter, authAlias string) error {
	schemes := ctx.Service.Traits.AuthSchemes()
	seen := make(map[string]bool, len(schemes))
	for _, id := range schemes {
		seen[id] = true
	}
	for _, plugin := range ctx.Plugins {
		for _, def := range plugin.AuthSchemes {
			if seen[def.ID] {
				continue
			}
			seen[def.ID] = true
			schemes = append(schemes, def.ID)
		}
	}

	w.P("// supportedAuthSchemes lists the schemes the service models, in")
	w.P("// preference order.")
	if len(schemes) == 0 {
		w.P("var supportedAuthSchemes = []string{$L.SchemeIDAnonymous}", authAlias)
		return w.Err()
	}
	w.P("var supportedAuthSchemes = []string{")
	w.Indent()
	for _, id := range schemes {
		w.P("$S,", id)
	}
	w.Dedent()
	w.P("}")
	return w.Err()
}
