// Package uvconfig reads and writes the project-local uv.toml.
package uvconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml"
)

const (
	// FileName is the name of the configuration file inside the install root.
	FileName = "uv.toml"
	// CacheDirName is the uv cache directory inside the install root.
	CacheDirName = "uvcache"
)

// Config is the uv configuration written by bootstrap.
// Field order is the order keys appear in the file.
type Config struct {
	Package  bool   `toml:"package"`
	CacheDir string `toml:"cache-dir"`
}

// ForLocalDir returns the configuration for an install root.
// localDir should be absolute so uv resolves the cache the same from any cwd.
func ForLocalDir(localDir string) Config {
	return Config{
		Package:  false,
		CacheDir: filepath.Join(localDir, CacheDirName),
	}
}

// Path returns the uv.toml path inside localDir.
func Path(localDir string) string {
	return filepath.Join(localDir, FileName)
}

// Marshal encodes cfg with keys in declaration order.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).Order(toml.OrderPreserve)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

// Write writes cfg to path, replacing any previous file.
func Write(path string, cfg Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Read loads a uv.toml.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
