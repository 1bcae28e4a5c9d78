package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of the service manifest file.
type Loader struct {
	filePath string
}

// NewLoader creates a new manifest loader.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the manifest. Loading the same unchanged file twice
// yields an equal result. Callers are expected to fall back to
// DefaultCatalog() on error; a broken manifest must never take the proxy down.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse manifest yaml: %w", err)
	}

	return f, nil
}
