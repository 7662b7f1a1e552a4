package pattern

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMatcherFileNotFound is returned when the matcher file does not exist.
var ErrMatcherFileNotFound = errors.New("matcher file not found")

// File is the YAML shape of a custom matcher file.
//
// Example:
//
//	version: "site-2024.1"
//	matchers:
//	  - name: registry_labeled_de
//	    field: registry_path
//	    pattern: '(?mi)^registrierungspfad\s*:\s*([^\r\n]+)$'
//	    group: 1
type File struct {
	// Version labels the custom matcher set. When set, it is appended to
	// the library version so reports can name the exact matcher inventory.
	Version string `yaml:"version"`

	// Matchers lists the custom matchers in priority order.
	Matchers []Spec `yaml:"matchers"`
}

// Load returns the built-in library extended with the matchers from the
// given YAML file. Custom matchers take precedence over built-ins for
// their fields (see Library.Extend).
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided matcher file path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMatcherFileNotFound, path)
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse matcher file %s: %w", path, err)
	}

	lib, err := Default().Extend(f.Matchers...)
	if err != nil {
		return nil, fmt.Errorf("matcher file %s: %w", path, err)
	}
	if f.Version != "" {
		lib.version = LibraryVersion + "+" + f.Version
	}
	return lib, nil
}
