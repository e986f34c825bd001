package codegen

import (
	"strings"

	"github.com/teranos/wiregen/deps"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
	"github.com/teranos/wiregen/render"
)

// generateOperation emits the client method and the middleware assembly
// for one operation. The operation's input and output structs land in the
// same file when the walk reaches their synthesized shapes.
func generateOperation(ctx *Context, op *model.Shape) error {
	opSym, err := ctx.Symbols.ShapeSymbol(op)
	if err != nil {
		return err
	}
	input, ok := ctx.Model.Shape(op.Input)
	if !ok {
		return errors.NewCodegenError(string(op.ID), "operation input %s not in model", op.Input)
	}
	output, ok := ctx.Model.Shape(op.Output)
	if !ok {
		return errors.NewCodegenError(string(op.ID), "operation output %s not in model", op.Output)
	}
	inputSym, err := ctx.Symbols.ShapeSymbol(input)
	if err != nil {
		return err
	}
	outputSym, err := ctx.Symbols.ShapeSymbol(output)
	if err != nil {
		return err
	}

	w := ctx.Files.File(opSym.DefFile)
	mw := w.Use(deps.RuntimeMiddleware())
	w.AddImport("context", "")

	name := opSym.Name
	if docs, ok := op.Traits.Documentation(); ok {
		w.WriteDocs(docs)
	} else {
		w.P("// $L invokes the $L operation.", name, name)
	}
	if dep, ok := op.Traits.Deprecated(); ok {
		w.WriteDeprecated(dep.Message)
	}
	w.P("func (c *Client) $L(ctx context.Context, params $P, optFns ...func(*Options)) ($P, error) {", name, inputSym, outputSym)
	w.Indent()
	w.P("if params == nil {")
	w.Indent()
	w.P("params = &$T{}", inputSym)
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("result, metadata, err := c.invokeOperation(ctx, $S, params, optFns, c.addOperation$op:LMiddlewares)", name, render.KV("op", name))
	w.P("if err != nil {")
	w.Indent()
	w.P("return nil, err")
	w.Dedent()
	w.P("}")
	w.P("")
	w.P("out := result.($P)", outputSym)
	w.P("out.ResultMetadata = metadata")
	w.P("return out, nil")
	w.Dedent()
	w.P("}")
	w.P("")

	w.P("func (c *Client) addOperation$op:LMiddlewares(stack *$L.Stack, options Options) error {", render.KV("op", name), mw)
	w.Indent()
	w.P("if err := stack.Serialize.Add(&serializeOp$L{}, $L.After); err != nil {", name, mw)
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	w.P("if err := stack.Deserialize.Add(&deserializeOp$L{}, $L.After); err != nil {", name, mw)
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	w.P("if err := addResolveEndpointMiddleware(stack, options); err != nil {")
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	if ctx.Validation.RequiresValidation(input.ID) {
		w.P("if err := addOp$op:LValidationMiddleware(stack); err != nil {", render.KV("op", name))
		w.Indent()
		w.P("return err")
		w.Dedent()
		w.P("}")
	}
	w.P("if err := addAuthSchemeMiddleware(stack, options); err != nil {")
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	w.P("for _, fn := range options.APIOptions {")
	w.Indent()
	w.P("if err := fn(stack); err != nil {")
	w.Indent()
	w.P("return err")
	w.Dedent()
	w.P("}")
	w.Dedent()
	w.P("}")
	w.P("return nil")
	w.Dedent()
	w.P("}")
	w.P("")
	return w.Err()
}

// isSyntheticOutput reports whether a shape is a synthesized operation
// output wrapper, which carries the result metadata field.
func isSyntheticOutput(shape *model.Shape) bool {
	return shape.ID.Namespace() == model.SyntheticNamespace &&
		strings.HasSuffix(shape.ID.Name(), "Output")
}
