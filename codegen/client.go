package codegen

import (
	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/internal/util"
	"github.com/teranos/wiregen/model"
)

// generateClient emits the service client: ServiceID, the Client struct,
// Options with functional-option construction, and the invokeOperation
// plumbing every generated method funnels through. Endpoint and auth
// resolver types referenced here are emitted by the protocol's transport
// generator.
func generateClient(ctx *Context, service *model.Shape) error {
	sym, err := ctx.Symbols.ShapeSymbol(service)
	if err != nil {
		return err
	}
	w := ctx.Files.File(sym.DefFile)
	runtime := w.Use(deps.Runtime())
	mw := w.Use(deps.RuntimeMiddleware())
	transport := w.Use(deps.RuntimeHTTP())
	w.AddImport("context", "")

	serviceName := util.ExportName(service.ID.Name())

	w.P("// ServiceID identifies the $L service.", serviceName)
	w.P("const ServiceID = $S", serviceName)
	w.P("")

	if docs, ok := service.Traits.Documentation(); ok {
		w.WriteDocs(docs)
	} else {
		w.P("// Client provides the API client to make operations call for $L.", serviceName)
	}
	w.P("type Client struct {")
	w.Indent()
	w.P("options Options")
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("// New returns an initialized Client. Functional options further configure")
	w.P("// the client after the defaults resolve.")
	w.P("func New(options Options, optFns ...func(*Options)) *Client {")
	w.Indent()
	w.P("options = options.Copy()")
	w.P("resolveHTTPClient(&options)")
	w.P("resolveEndpointResolver(&options)")
	w.P("resolveAuthSchemeResolver(&options)")
	w.P("")
	w.P("for _, fn := range optFns {")
	w.Indent()
	w.P("fn(&options)")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("return &Client{options: options}")
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("// Options configures the client.")
	w.P("type Options struct {")
	w.Indent()
	w.P("// APIOptions attaches custom middleware to every operation stack.")
	w.P("APIOptions []func(*$L.Stack) error", mw)
	w.P("")
	w.P("// BaseEndpoint is an explicit endpoint URL. When set it wins over")
	w.P("// modeled endpoint rules.")
	w.P("BaseEndpoint *string")
	w.P("")
	w.P("// HTTPClient executes built requests. Defaults to the runtime's")
	w.P("// buildable client.")
	w.P("HTTPClient $L.Client", transport)
	w.P("")
	w.P("// EndpointResolver resolves the service endpoint per operation.")
	w.P("EndpointResolver EndpointResolver")
	w.P("")
	w.P("// AuthSchemeResolver selects the authentication scheme per operation.")
	w.P("AuthSchemeResolver AuthSchemeResolver")
	for _, plugin := range ctx.Plugins {
		for _, field := range plugin.ConfigFields {
			w.P("")
			if field.Docs != "" {
				w.WriteDocs(field.Docs)
			}
			w.P("$L $P", field.Name, field.Type)
		}
	}
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("// Copy returns a deep copy safe to mutate per operation.")
	w.P("func (o Options) Copy() Options {")
	w.Indent()
	w.P("to := o")
	w.P("to.APIOptions = make([]func(*$L.Stack) error, len(o.APIOptions))", mw)
	w.P("copy(to.APIOptions, o.APIOptions)")
	w.P("return to")
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("func resolveHTTPClient(o *Options) {")
	w.Indent()
	w.P("if o.HTTPClient != nil {")
	w.Indent()
	w.P("return")
	w.Dedent()
	w.P("}")
	w.P("o.HTTPClient = $L.NewBuildableClient()", transport)
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("func (c *Client) invokeOperation(")
	w.Indent()
	w.P("ctx context.Context, opID string, params interface{}, optFns []func(*Options),")
	w.P("stackFns ...func(*$L.Stack, Options) error,", mw)
	w.Dedent()
	w.P(") (interface{}, $L.Metadata, error) {", mw)
	w.Indent()
	w.P("stack := $L.NewStack(opID, $L.NewStackRequest)", mw, transport)
	w.P("options := c.options.Copy()")
	w.P("for _, fn := range optFns {")
	w.Indent()
	w.P("fn(&options)")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("for _, fn := range stackFns {")
	w.Indent()
	w.P("if err := fn(stack, options); err != nil {")
	w.Indent()
	w.P("return nil, $L.Metadata{}, err", mw)
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	w.P("")
	for _, plugin := range ctx.Plugins {
		for _, registrar := range plugin.MiddlewareRegistrars {
			w.P("if err := $T(stack, options); err != nil {", registrar)
			w.Indent()
			w.P("return nil, $L.Metadata{}, err", mw)
			w.Dedent()
			w.P("}")
		}
	}
	w.P("for _, fn := range options.APIOptions {")
	w.Indent()
	w.P("if err := fn(stack); err != nil {")
	w.Indent()
	w.P("return nil, $L.Metadata{}, err", mw)
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("handler := $L.DecorateHandler($L.NewClientHandler(options.HTTPClient), stack)", mw, transport)
	w.P("result, metadata, err := handler.Handle(ctx, params)")
	w.P("if err != nil {")
	w.Indent()
	w.P("err = &$L.OperationError{", runtime)
	w.Indent()
	w.P("ServiceID:     ServiceID,")
	w.P("OperationName: opID,")
	w.P("Err:           err,")
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	w.P("return result, metadata, err")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// generateDoc emits the package documentation file.
func generateDoc(ctx *Context) error {
	w := ctx.Files.File("doc.go")
	desc := ctx.Settings.ModuleDescription
	if desc == "" {
		desc = ctx.Settings.ModuleName + " client"
	}
	w.PackageDoc(desc)
	return w.Err()
}

// generateModuleMetadata stamps the configured module version into the
// unit.
func generateModuleMetadata(ctx *Context) error {
	w := ctx.Files.File("go_module_metadata.go")
	w.P("// goModuleVersion is the tagged release for this module.")
	w.P("const goModuleVersion = $S", ctx.Settings.ModuleVersion)
	return w.Err()
}
