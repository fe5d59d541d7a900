package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default_config.toml
var defaultConfig string

// WriteDefault writes the example config to the specified path,
// presetting tv_root when roots are given. Creates parent directories
// if needed.
func WriteDefault(path string, roots ...string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	content := defaultConfig
	if len(roots) > 0 {
		quoted := make([]string, len(roots))
		for i, root := range roots {
			quoted[i] = strconv.Quote(root)
		}
		content = strings.Replace(content,
			`tv_root = ["/path/to/tv"]`,
			"tv_root = ["+strings.Join(quoted, ", ")+"]", 1)
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Write serializes the config to TOML and writes it to the specified path.
func (c *Config) Write(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
