package param

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
)

// LoadFile reads a flat JSON document of parameter values and applies every
// entry to the store with Set, so change callbacks fire for each one. The
// filesystem is abstracted so tests can run against an in-memory FS.
//
// The document shape is a single object: {"publish_rate_hz": 2, "greeting": "hello"}.
func (s *Store) LoadFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}

	var doc map[string]Value
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}

	for name, value := range doc {
		s.Set(name, value)
	}

	slog.Info("Loaded parameters from file", "scope", s.scope, "path", path, "count", len(doc))
	return nil
}
