package spell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	want := Record{
		Name:        "Flux Interruption",
		Type:        "Error",
		Description: "Unable to analyze magical signature due to network interference.",
		EnergyLevel: "0",
		ColorHex:    "#FF0000",
	}
	assert.Equal(t, want, Fallback())
	assert.True(t, Fallback().IsFallback())
	assert.NoError(t, Fallback().Validate())
}

func TestValidColorHex(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#FF0000", true},
		{"#00ff66", true},
		{"#a1B2c3", true},
		{"FF0000", false},
		{"#FFF", false},
		{"#GG0000", false},
		{"#FF00001", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidColorHex(tt.in), tt.in)
	}
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"name":"Aegis","type":"Defensive","description":"A wall of light.","energyLevel":"8,900 kWh","colorHex":"#00FFCC"}`))
	require.NoError(t, err)
	assert.Equal(t, "Aegis", rec.Name)
	assert.Equal(t, "#00FFCC", rec.ColorHex)
}

func TestParseRecord_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"empty", "  ", ErrEmptyResponse},
		{"bad color", `{"name":"a","type":"b","description":"c","energyLevel":"1","colorHex":"red"}`, ErrInvalidColor},
		{"missing name", `{"type":"b","description":"c","energyLevel":"1","colorHex":"#000000"}`, ErrIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord([]byte(tt.in))
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := ParseRecord([]byte("{not json"))
	assert.Error(t, err)
}
