package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chanceOfRain", "ChanceOfRain"},
		{"chance_of_rain", "ChanceOfRain"},
		{"chance-of-rain", "ChanceOfRain"},
		{"city", "City"},
		{"City", "City"},
		{"HTTPStatus", "HTTPStatus"},
		{"2fa", "Value2fa"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportName(tt.in))
		})
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "type_", SafeName("type"))
	assert.Equal(t, "range_", SafeName("range"))
	assert.Equal(t, "forecast", SafeName("forecast"))
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "getForecast", LowerFirst("GetForecast"))
	assert.Equal(t, "", LowerFirst(""))
}

func TestDeref(t *testing.T) {
	assert.Equal(t, 7, Deref(Ptr(7), 0))
	assert.Equal(t, "fallback", Deref[string](nil, "fallback"))
}
