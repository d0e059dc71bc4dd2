package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load resolves the configuration and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve merges, later sources winning: defaults, the optional config file,
// .env files and GHE_* environment variables. It does not validate.
func Resolve(path string) (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrConfiguration.WithCause(err).WithContext("path", path)
	}
	expanded := expandEnv(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return ErrConfiguration.WithCause(fmt.Errorf("decode toml: %w", err)).WithContext("path", path)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return ErrConfiguration.WithCause(fmt.Errorf("decode yaml: %w", err)).WithContext("path", path)
		}
	default:
		return ErrConfiguration.WithContext("path", path).WithContext("reason", "unsupported config file extension")
	}
	return nil
}

// expandEnv replaces ${VAR} references to set variables. A bare $, $VAR and
// ${VAR} for an unset variable are kept literally, so values such as tokens
// may contain dollar signs.
func expandEnv(data string) string {
	var b strings.Builder
	for {
		start := strings.Index(data, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(data[start:], '}')
		if end < 0 {
			break
		}
		end += start
		b.WriteString(data[:start])
		name := data[start+2 : end]
		if v, ok := os.LookupEnv(name); ok && isEnvName(name) {
			b.WriteString(v)
		} else {
			b.WriteString(data[start : end+1])
		}
		data = data[end+1:]
	}
	b.WriteString(data)
	return b.String()
}

func isEnvName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Write stores cfg as YAML at path. An existing file is only replaced when
// force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ErrConfiguration.WithContext("path", path).WithContext("reason", "file exists (use --force to overwrite)")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ErrConfiguration.WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ErrConfiguration.WithCause(err).WithContext("path", path)
	}
	return nil
}
