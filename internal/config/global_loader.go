package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoadGlobalConfig loads global configuration from ~/.indexd/config.yml.
// Returns default values if the file doesn't exist (not an error).
// Environment variables override file values (INDEXD_* prefix).
func LoadGlobalConfig() (*GlobalConfig, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	baseDir := filepath.Join(home, ".indexd")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(baseDir)

	v.SetEnvPrefix("INDEXD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindGlobalEnvVars(v)
	setGlobalDefaults(v, baseDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &GlobalConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func bindGlobalEnvVars(v *viper.Viper) {
	v.BindEnv("daemon.socket_path")
	v.BindEnv("daemon.startup_timeout")
	v.BindEnv("cache.base_dir")
	v.BindEnv("default_embedder")
}

func setGlobalDefaults(v *viper.Viper, baseDir string) {
	v.SetDefault("daemon.socket_path", filepath.Join(baseDir, "indexd.sock"))
	v.SetDefault("daemon.startup_timeout", 30)
	v.SetDefault("cache.base_dir", filepath.Join(baseDir, "cache"))
	v.SetDefault("default_embedder", "local")
}
