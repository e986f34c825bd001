// Package errors provides error handling for wiregen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrUnsupportedProtocol) {
//	    // handle unresolvable protocol
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll
	Join       = crdb.Join
)

// Assertions and panics
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Common sentinel errors for use across wiregen.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrCodegen indicates the generator reached a state the shape model
	// should have made impossible (unmapped shape type, dangling target, a
	// shape dispatched twice). These are programmer errors, not user errors.
	ErrCodegen = New("codegen invariant violated")

	// ErrUnsupportedProtocol indicates no registered protocol generator
	// matches any protocol the service declares
	ErrUnsupportedProtocol = New("unsupported protocol")

	// ErrMissingSetting indicates a required generation setting is absent
	ErrMissingSetting = New("missing required setting")

	// ErrRender indicates template expansion failed (unbound placeholder,
	// mistyped argument, malformed specifier)
	ErrRender = New("render failed")

	// ErrInvalidModel indicates the shape-model document is malformed
	// (duplicate ids, dangling member targets, unknown shape types)
	ErrInvalidModel = New("invalid model")

	// ErrStaleOutput indicates generated output on disk no longer matches a
	// fresh generation run
	ErrStaleOutput = New("generated output is stale")
)

// IsCodegenError checks if an error is or wraps ErrCodegen
func IsCodegenError(err error) bool {
	return err != nil && Is(err, ErrCodegen)
}

// IsUnsupportedProtocolError checks if an error is or wraps ErrUnsupportedProtocol
func IsUnsupportedProtocolError(err error) bool {
	return err != nil && Is(err, ErrUnsupportedProtocol)
}

// IsInvalidModelError checks if an error is or wraps ErrInvalidModel
func IsInvalidModelError(err error) bool {
	return err != nil && Is(err, ErrInvalidModel)
}

// IsRenderError checks if an error is or wraps ErrRender
func IsRenderError(err error) bool {
	return err != nil && Is(err, ErrRender)
}

// IsMissingSettingError checks if an error is or wraps ErrMissingSetting
func IsMissingSettingError(err error) bool {
	return err != nil && Is(err, ErrMissingSetting)
}

// NewCodegenError creates a codegen invariant error tagged with the shape
// that triggered it. The shape id is part of the message so it survives
// wrapping and reaches the operator verbatim.
func NewCodegenError(shapeID string, format string, args ...interface{}) error {
	return Wrapf(ErrCodegen, "shape %s: %s", shapeID, Newf(format, args...).Error())
}

// NewInvalidModelError creates a model-validation error with a formatted message
func NewInvalidModelError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidModel, Newf(format, args...).Error())
}

// NewMissingSettingError reports an absent required setting by key
func NewMissingSettingError(key string) error {
	return Wrapf(ErrMissingSetting, "%q", key)
}

// WrapRender wraps a template failure with the template text that failed
func WrapRender(err error, template string) error {
	return Wrapf(err, "template %q", template)
}
