// Package codegen orchestrates a generation run: it preprocesses the model,
// resolves the protocol, walks the service closure dispatching shape
// generators, aggregates cross-cutting artifacts, and flushes everything
// atomically. Protocol packages plug in through ProtocolGenerator,
// extensions through Integration.
package codegen

import (
	"strings"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
)

// Settings configure one generation run. They come from the wiregen config
// file; config.Load warns on keys outside KnownSettingKeys.
type Settings struct {
	// Service selects the service shape to generate. Empty means every
	// service in the model, subject to the WIREGEN_SERVICES filter.
	Service model.ShapeID `mapstructure:"service"`

	// ModuleName is the Go module path of the generated client.
	ModuleName string `mapstructure:"moduleName"`

	// ModuleDescription lands in the generated package documentation.
	ModuleDescription string `mapstructure:"moduleDescription"`

	// ModuleVersion is stamped into the generated metadata file.
	ModuleVersion string `mapstructure:"moduleVersion"`

	// GenerateModuleManifest controls whether a go.mod is emitted.
	GenerateModuleManifest bool `mapstructure:"generateModuleManifest"`

	// LanguageDirective floors the go directive of the emitted manifest.
	LanguageDirective string `mapstructure:"languageDirective"`

	// RequiredMemberMode is "nillable" (default) or "strict".
	RequiredMemberMode string `mapstructure:"requiredMemberMode"`

	// ProtocolFallback names the protocol used when the service models none
	// that is registered. Empty disables the fallback, making an unresolved
	// protocol fatal.
	ProtocolFallback string `mapstructure:"protocolFallback"`

	// FormatCommand optionally overrides the built-in source formatter with
	// an external command, parsed shell-style. The file path is appended.
	FormatCommand string `mapstructure:"formatCommand"`
}

// KnownSettingKeys lists every recognized config key. config.Load warns
// about anything else rather than failing, so typos surface without
// blocking older configs on newer binaries.
func KnownSettingKeys() []string {
	return []string{
		"service",
		"moduleName",
		"moduleDescription",
		"moduleVersion",
		"generateModuleManifest",
		"languageDirective",
		"requiredMemberMode",
		"protocolFallback",
		"formatCommand",
	}
}

// DefaultSettings returns the baseline applied before config merging.
// Manifest emission is opt-in; generated code dropped into an existing
// module must not ship a second go.mod.
func DefaultSettings() Settings {
	return Settings{
		ModuleVersion:    "0.0.1",
		ProtocolFallback: "httpJson",
	}
}

// Validate checks the settings a run cannot proceed without.
func (s Settings) Validate() error {
	if s.ModuleName == "" {
		return errors.NewMissingSettingError("moduleName")
	}
	if s.Service != "" {
		if err := s.Service.Validate(); err != nil {
			return errors.Wrapf(err, "service setting")
		}
	}
	if _, err := s.MemberMode(); err != nil {
		return err
	}
	return nil
}

// MemberMode parses the requiredMemberMode setting.
func (s Settings) MemberMode() (model.MemberMode, error) {
	switch s.RequiredMemberMode {
	case "", "nillable":
		return model.MemberModeNillable, nil
	case "strict":
		return model.MemberModeStrict, nil
	}
	return 0, errors.Newf("requiredMemberMode must be %q or %q, got %q",
		"nillable", "strict", s.RequiredMemberMode)
}

// PackageName derives the generated package name from the module path:
// the last path segment with characters Go identifiers cannot carry
// stripped.
func (s Settings) PackageName() string {
	name := s.ModuleName
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return sanitizePackage(name)
}

// sanitizePackage lowercases name and strips everything a Go package
// identifier cannot carry. An empty result falls back to "client".
func sanitizePackage(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && b.Len() > 0:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "client"
	}
	return b.String()
}
