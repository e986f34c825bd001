// Package config loads generation settings from a wiregen config file, the
// environment, and built-in defaults, in that precedence order from highest
// to lowest. It also provides the file watcher behind watch mode.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/logger"
)

// EnvPrefix namespaces the environment variables the loader reads, so
// `moduleName` binds to WIREGEN_MODULENAME.
const EnvPrefix = "WIREGEN"

// fileCandidates are the config file names Discover probes, in order.
var fileCandidates = []string{
	"wiregen.toml",
	"wiregen.yaml",
	"wiregen.yml",
	"wiregen.json",
}

// Load reads settings from path. An empty path discovers a config file in
// the working directory; running without any file is fine as long as the
// environment and defaults satisfy validation.
func Load(path string) (codegen.Settings, error) {
	v := newViper()

	if path == "" {
		if found, ok := Discover("."); ok {
			path = found
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return codegen.Settings{}, errors.Wrapf(err, "reading config %s", path)
		}
		warnUnknownKeys(path)
	}

	var s codegen.Settings
	if err := v.Unmarshal(&s); err != nil {
		return codegen.Settings{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := s.Validate(); err != nil {
		return codegen.Settings{}, err
	}
	return s, nil
}

// Discover probes dir for a config file, preferring toml over yaml over
// json.
func Discover(dir string) (string, bool) {
	for _, name := range fileCandidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	SetDefaults(v)
	return v
}

// SetDefaults seeds v with the baseline settings so a sparse config file
// still unmarshals into a runnable configuration.
func SetDefaults(v *viper.Viper) {
	d := codegen.DefaultSettings()
	v.SetDefault("generateModuleManifest", d.GenerateModuleManifest)
	v.SetDefault("moduleVersion", d.ModuleVersion)
	v.SetDefault("protocolFallback", d.ProtocolFallback)
}

// bindEnvKeys binds every recognized setting to its WIREGEN_ variable.
// Automatic env alone only covers keys viper already knows about, so keys
// absent from both defaults and the file would miss their override.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range codegen.KnownSettingKeys() {
		v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key))
	}
}

// warnUnknownKeys re-reads the file without defaults so only the keys the
// user actually wrote are inspected. Unknown keys warn instead of failing;
// an old binary reading a newer config should still run.
func warnUnknownKeys(path string) {
	raw := viper.New()
	raw.SetConfigFile(path)
	if err := raw.ReadInConfig(); err != nil {
		return
	}
	for _, key := range raw.AllKeys() {
		if !knownKey(key) {
			logger.Warnw("unrecognized setting in config file",
				"key", key,
				"file", path)
		}
	}
}

// knownKey compares case-insensitively; viper lowercases file keys.
func knownKey(key string) bool {
	for _, known := range codegen.KnownSettingKeys() {
		if strings.EqualFold(key, known) {
			return true
		}
	}
	return false
}
