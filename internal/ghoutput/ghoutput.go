// Package ghoutput publishes command results as GitHub Actions step outputs.
package ghoutput

import (
	"fmt"
	"os"
	"strings"
)

// EnvOutputPath names the variable GitHub Actions sets to the step output file.
const EnvOutputPath = "GITHUB_OUTPUT"

const delimiterBase = "MESHGEN_OUTPUT_EOF"

// Output is a single named step output.
type Output struct {
	Name  string
	Value string
}

// Path returns the step output file, empty outside GitHub Actions.
func Path() string {
	return strings.TrimSpace(os.Getenv(EnvOutputPath))
}

// Write appends outputs to the file at path in the given order. Multi-line values use the
// delimiter form. An empty path or an empty list is a no-op.
func Write(path string, outputs []Output) error {
	if path == "" || len(outputs) == 0 {
		return nil
	}

	var buf strings.Builder
	for _, out := range outputs {
		name := strings.TrimSpace(out.Name)
		if name == "" {
			continue
		}
		if !strings.ContainsAny(out.Value, "\r\n") {
			fmt.Fprintf(&buf, "%s=%s\n", name, out.Value)
			continue
		}
		delim := delimiter(out.Value)
		fmt.Fprintf(&buf, "%s<<%s\n%s\n%s\n", name, delim, strings.TrimRight(out.Value, "\r\n"), delim)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open step output file: %w", err)
	}
	if _, err := f.WriteString(buf.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write step outputs: %w", err)
	}
	return f.Close()
}

// delimiter picks a heredoc delimiter that does not occur in value.
func delimiter(value string) string {
	delim := delimiterBase
	for i := 1; strings.Contains(value, delim); i++ {
		delim = fmt.Sprintf("%s_%d", delimiterBase, i)
	}
	return delim
}
