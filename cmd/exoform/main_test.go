package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/", viewerURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000/", viewerURL("127.0.0.1:9000"))
}

func TestFindWebDir(t *testing.T) {
	dir := t.TempDir()
	web := filepath.Join(dir, "site")
	require.NoError(t, os.Mkdir(web, 0755))

	assert.Equal(t, web, findWebDir(web))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "exoform "+version)
}

func TestConfigCommand_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	writePath = path
	t.Cleanup(func() { writePath = "" })

	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "sk-from-env")

	require.NoError(t, configCmd.RunE(configCmd, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tick_fps: 60")
	assert.NotContains(t, string(data), "sk-from-env")
}
