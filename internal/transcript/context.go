package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"redub/internal/dubbing"
	"redub/internal/fileutil"
	"redub/internal/services"
)

// SaveContext writes pc as indented JSON, replacing path atomically.
func SaveContext(path string, pc *dubbing.PipelineContext) error {
	if pc == nil {
		return services.Wrap(services.ErrValidation, "transcript", "save context", "context is nil", nil)
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pc)
	})
}

// LoadContext reads a context written by SaveContext. Unknown fields are
// rejected so a hand-edited file with a typo fails loudly.
func LoadContext(path string) (*dubbing.PipelineContext, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "transcript", "load context", path, err)
		}
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	var pc dubbing.PipelineContext
	if err := dec.Decode(&pc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "load context", path, fmt.Errorf("decode: %w", err))
	}
	return &pc, nil
}
