// Package config loads YAML configuration files. Values support
// ${VAR} environment expansion, and targets implementing Validator are
// checked after decoding.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by config targets that check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment variables in its content,
// and decodes the YAML into target. A missing file surfaces as
// os.ErrNotExist through the wrapped error so callers can fall back to
// defaults.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config: validate %s: %w", filename, err)
		}
	}
	return nil
}
