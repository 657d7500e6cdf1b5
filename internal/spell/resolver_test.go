package spell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/exoform/internal/plugin"
)

var aegis = Record{
	Name:        "Aegis of the Digital Void",
	Type:        "Defensive",
	Description: "A lattice of light.",
	EnergyLevel: "3,000 kWh",
	ColorHex:    "#00FFCC",
}

func TestResolver_Success(t *testing.T) {
	var gotLabel string
	var gotSeconds float64
	r := NewResolver(AnalyzerFunc(func(ctx context.Context, label string, seconds float64) (Record, error) {
		gotLabel, gotSeconds = label, seconds
		return aegis, nil
	}), 0, nil)

	assert.Equal(t, aegis, r.Resolve(context.Background(), DefaultLabel, 3.0))
	assert.Equal(t, DefaultLabel, gotLabel)
	assert.Equal(t, 3.0, gotSeconds)
}

func TestResolver_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		analyzer Analyzer
	}{
		{"nil analyzer", nil},
		{"error", AnalyzerFunc(func(context.Context, string, float64) (Record, error) {
			return Record{}, errors.New("network down")
		})},
		{"panic", AnalyzerFunc(func(context.Context, string, float64) (Record, error) {
			panic("boom")
		})},
		{"invalid color", AnalyzerFunc(func(context.Context, string, float64) (Record, error) {
			r := aegis
			r.ColorHex = "cyan"
			return r, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.analyzer, 0, nil)
			assert.Equal(t, Fallback(), r.Resolve(context.Background(), DefaultLabel, 3.0))
		})
	}
}

func TestResolver_Timeout(t *testing.T) {
	r := NewResolver(AnalyzerFunc(func(ctx context.Context, _ string, _ float64) (Record, error) {
		<-ctx.Done()
		return Record{}, ctx.Err()
	}), 20*time.Millisecond, nil)

	start := time.Now()
	assert.Equal(t, Fallback(), r.Resolve(context.Background(), DefaultLabel, 3.0))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPrompt(t *testing.T) {
	p := Prompt(DefaultLabel, 3.04)
	assert.Contains(t, p, `"Mystic Shield Formation"`)
	assert.Contains(t, p, "3.0 seconds")
}

func TestPluginAnalyzer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	oracleDir := filepath.Join(dir, "oracle")
	require.NoError(t, os.MkdirAll(oracleDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(oracleDir, "plugin.json"),
		[]byte(`{"name":"oracle","version":"1.0.0","executable":"run.sh","actions":["analyze"]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(oracleDir, "run.sh"),
		[]byte("#!/bin/sh\nread input\necho '{\"success\":true,\"data\":{\"name\":\"Aegis\",\"type\":\"Defensive\",\"description\":\"d\",\"energyLevel\":\"9\",\"colorHex\":\"#00FF66\"}}'\n"), 0755))

	manager := plugin.NewManager(dir)
	require.NoError(t, manager.Discover())

	a, err := NewPluginAnalyzer(manager, plugin.NewExecutor(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "plugin:oracle", a.Name())

	rec, err := a.Analyze(context.Background(), DefaultLabel, 3.0)
	require.NoError(t, err)
	assert.Equal(t, "Aegis", rec.Name)
	assert.Equal(t, "#00FF66", rec.ColorHex)
}

func TestNewPluginAnalyzer_NoPlugin(t *testing.T) {
	manager := plugin.NewManager(t.TempDir())
	require.NoError(t, manager.Discover())

	_, err := NewPluginAnalyzer(manager, plugin.NewExecutor(time.Second))
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
}

func TestNewGenAIAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewGenAIAnalyzer(context.Background(), "", "")
	assert.Error(t, err)
}
