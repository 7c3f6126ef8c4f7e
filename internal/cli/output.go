package cli

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// writeYAML encodes v as a YAML document to w.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
