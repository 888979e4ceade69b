package params

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadFile reads a TOML preset file. Keys missing from the file keep their value from base.
func LoadFile(path string, base Params) (Params, error) {
	p := base

	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return base, fmt.Errorf("error reading preset %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("unknown keys in preset %s: %v", path, undecoded)
	}

	if err := p.Validate(); err != nil {
		return base, fmt.Errorf("invalid preset %s: %w", path, err)
	}

	return p, nil
}
