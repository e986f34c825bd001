package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/errors"
)

const pingDoc = `{
	"model": "1.0",
	"shapes": {
		"example.ping#Ping": {
			"type": "service",
			"version": "2024-01-01",
			"operations": [{"target": "example.ping#SendPing"}],
			"traits": {"wiregen.protocols#httpJson": {}}
		},
		"example.ping#SendPing": {
			"type": "operation",
			"input": {"target": "example.ping#PingRequest"},
			"traits": {"http": {"method": "POST", "uri": "/ping"}}
		},
		"example.ping#PingRequest": {
			"type": "structure",
			"members": {
				"note": {"target": "wiregen.api#String"}
			}
		}
	}
}`

const pingConfig = `moduleName = "example.com/pingclient"
service = "example.ping#Ping"
generateModuleManifest = true
`

func TestGenerateCheck_Integration(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "ping.json")
	configPath := filepath.Join(dir, "wiregen.toml")
	outputDir := filepath.Join(dir, "gen")
	require.NoError(t, os.WriteFile(modelPath, []byte(pingDoc), 0o644))
	require.NoError(t, os.WriteFile(configPath, []byte(pingConfig), 0o644))

	generateModel, generateConfig, generateOutput = modelPath, configPath, outputDir
	require.NoError(t, generateOnce(false))

	clientPath := filepath.Join(outputDir, "api_client.go")
	src, err := os.ReadFile(clientPath)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package pingclient")

	manifest, err := os.ReadFile(filepath.Join(outputDir, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "module example.com/pingclient")

	// A fresh run produced it, so check sees it as current.
	checkModel, checkConfig, checkOutput = modelPath, configPath, outputDir
	require.NoError(t, runCheck(CheckCmd, nil))

	// Any drift flips check to the stale error.
	require.NoError(t, os.WriteFile(clientPath, append(src, '\n'), 0o644))
	err = runCheck(CheckCmd, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStaleOutput))

	// Deleting a generated file counts as drift too.
	require.NoError(t, os.Remove(clientPath))
	err = runCheck(CheckCmd, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStaleOutput))
}
