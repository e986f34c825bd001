package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
)

func TestSettingsValidate(t *testing.T) {
	valid := DefaultSettings()
	valid.ModuleName = "example.com/gen/weather"
	require.NoError(t, valid.Validate())

	missing := DefaultSettings()
	err := missing.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsMissingSettingError(err))
	assert.Contains(t, err.Error(), "moduleName")

	badService := valid
	badService.Service = "NoNamespace"
	err = badService.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service setting")

	badMode := valid
	badMode.RequiredMemberMode = "lenient"
	require.Error(t, badMode.Validate())
}

func TestSettingsMemberMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    model.MemberMode
		wantErr bool
	}{
		{raw: "", want: model.MemberModeNillable},
		{raw: "nillable", want: model.MemberModeNillable},
		{raw: "strict", want: model.MemberModeStrict},
		{raw: "lenient", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("mode_"+tt.raw, func(t *testing.T) {
			s := Settings{RequiredMemberMode: tt.raw}
			mode, err := s.MemberMode()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "requiredMemberMode")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestSettingsPackageName(t *testing.T) {
	tests := []struct {
		module string
		want   string
	}{
		{module: "example.com/gen/weather", want: "weather"},
		{module: "example.com/gen/Weather-API", want: "weatherapi"},
		{module: "single", want: "single"},
		{module: "example.com/svc/99luftballons", want: "luftballons"},
		{module: "example.com/gen/---", want: "client"},
		{module: "", want: "client"},
	}
	for _, tt := range tests {
		s := Settings{ModuleName: tt.module}
		assert.Equal(t, tt.want, s.PackageName(), "module %q", tt.module)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.False(t, s.GenerateModuleManifest)
	assert.Equal(t, "0.0.1", s.ModuleVersion)
	assert.Equal(t, "httpJson", s.ProtocolFallback)
	assert.Empty(t, s.RequiredMemberMode)
}

func TestKnownSettingKeys(t *testing.T) {
	keys := KnownSettingKeys()
	assert.Contains(t, keys, "moduleName")
	assert.Contains(t, keys, "requiredMemberMode")
	assert.Contains(t, keys, "formatCommand")
	assert.Len(t, keys, 9)
}
