package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, "wiregen.toml", `
service = "example.weather#Weather"
moduleName = "example.com/gen/weather"
languageDirective = "1.22"
requiredMemberMode = "strict"
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, model.ShapeID("example.weather#Weather"), s.Service)
	assert.Equal(t, "example.com/gen/weather", s.ModuleName)
	assert.Equal(t, "1.22", s.LanguageDirective)
	assert.Equal(t, "strict", s.RequiredMemberMode)

	// Defaults fill whatever the file leaves out.
	assert.False(t, s.GenerateModuleManifest)
	assert.Equal(t, "0.0.1", s.ModuleVersion)
	assert.Equal(t, "httpJson", s.ProtocolFallback)
}

func TestLoadUnknownKeyTolerated(t *testing.T) {
	path := writeConfig(t, "wiregen.toml", `
moduleName = "example.com/gen/weather"
frobnicate = true
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/gen/weather", s.ModuleName)
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, "wiregen.toml", `
service = "example.weather#Weather"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsMissingSettingError(err))

	path = writeConfig(t, "wiregen.toml", `
moduleName = "example.com/gen/weather"
requiredMemberMode = "lenient"
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requiredMemberMode")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WIREGEN_MODULEVERSION", "2.0.0")
	path := writeConfig(t, "wiregen.toml", `
moduleName = "example.com/gen/weather"
moduleVersion = "1.0.0"
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", s.ModuleVersion)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("WIREGEN_MODULENAME", "example.com/gen/envonly")
	t.Setenv("WIREGEN_SERVICE", "example.weather#Weather")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "example.com/gen/envonly", s.ModuleName)
	assert.Equal(t, model.ShapeID("example.weather#Weather"), s.Service)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	_, ok := Discover(dir)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiregen.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiregen.yaml"), []byte(""), 0o644))

	path, ok := Discover(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "wiregen.yaml"), path)
}

func TestWatcherDebounce(t *testing.T) {
	path := writeConfig(t, "wiregen.toml", "")

	var mu sync.Mutex
	fired := 0
	w, err := NewWatcher([]string{path}, func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Stop()
	w.period = 20 * time.Millisecond

	// A burst of schedules collapses into one callback.
	w.scheduleReload()
	w.scheduleReload()
	w.scheduleReload()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, fired)
	mu.Unlock()
}

func TestWatcherMissingPath(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "gone.toml")}, func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}
