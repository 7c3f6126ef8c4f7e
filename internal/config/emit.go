package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal renders the workspace configuration in the given format.
func Marshal(ws *Workspace, format Format) ([]byte, error) {
	if ws == nil {
		return nil, fmt.Errorf("workspace config is nil")
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(ws); err != nil {
			_ = enc.Close()
			return nil, fmt.Errorf("encode workspace config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("finalize workspace config: %w", err)
		}
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ws); err != nil {
			return nil, fmt.Errorf("encode workspace config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported workspace config format %q", format)
	}
	return buf.Bytes(), nil
}
