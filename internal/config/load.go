package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	bodhi "github.com/navana-tech/bodhi-go"
)

// EnvURL overrides connection.url.
const EnvURL = "BODHI_URL"

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "bodhi", "config.toml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields DefaultConfig. Credentials and the endpoint are
// then overridden from the environment.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	config := DefaultConfig()
	meta, err := toml.DecodeFile(path, config)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	default:
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %q in config file %s", undecoded[0].String(), path)
		}
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(bodhi.EnvAPIKey); v != "" {
		c.Connection.APIKey = v
	}
	if v := os.Getenv(bodhi.EnvCustomerID); v != "" {
		c.Connection.CustomerID = v
	}
	if v := os.Getenv(EnvURL); v != "" {
		c.Connection.URL = v
	}
}
