package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from MESHGEN_* env vars.
type baseEnv struct {
	// Dir is the workspace directory from MESHGEN_DIR.
	Dir string `env:"MESHGEN_DIR"`
	// LogLevel is the logging level from MESHGEN_LOG_LEVEL.
	LogLevel string `env:"MESHGEN_LOG_LEVEL"`
}

// generateEnv captures MESHGEN_* inputs for the generate command.
type generateEnv struct {
	// Plan is the plan file path from MESHGEN_PLAN.
	Plan string `env:"MESHGEN_PLAN"`
	// EntryPoint is the entry-point service from MESHGEN_ENTRYPOINT.
	EntryPoint string `env:"MESHGEN_ENTRYPOINT"`
	// Port is the server port from MESHGEN_PORT.
	Port int `env:"MESHGEN_PORT"`
	// TypeScript toggles static typing from MESHGEN_TYPESCRIPT.
	TypeScript bool `env:"MESHGEN_TYPESCRIPT"`
	// Vars is a k=v,k2=v2 list from MESHGEN_VARS.
	Vars string `env:"MESHGEN_VARS"`
	// VarFile is a YAML/ENV path from MESHGEN_VAR_FILE.
	VarFile string `env:"MESHGEN_VAR_FILE"`
}

// parseEnv fills target from MESHGEN_* env vars via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}
