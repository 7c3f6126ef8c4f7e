// Package hooks runs the shell steps services declare as post-install actions.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/codex-k8s/meshgen/internal/env"
	"github.com/codex-k8s/meshgen/internal/logging"
)

// Step describes a single hook execution step.
type Step struct {
	// Name is the identifier used in logs.
	Name string `yaml:"name,omitempty"`
	// Run is the shell command to execute.
	Run string `yaml:"run"`
	// ContinueOnError skips failures when set.
	ContinueOnError bool `yaml:"continueOnError,omitempty"`
	// Timeout is a duration string for the step execution (e.g. "30s").
	Timeout string `yaml:"timeout,omitempty"`
}

// Executor runs hook steps through a shell, forwarding output to the logger.
type Executor struct {
	logger *slog.Logger
	shell  string
}

// NewExecutor constructs a new Executor that runs steps with /bin/sh.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logging.OrDiscard(logger), shell: "/bin/sh"}
}

// Run executes steps sequentially inside dir with extra appended to the process environment.
// The first failing step aborts the remaining ones unless it sets ContinueOnError.
func (e *Executor) Run(ctx context.Context, dir string, extra env.Vars, steps []Step) error {
	for i, step := range steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		if strings.TrimSpace(step.Run) == "" {
			e.logger.Debug("skip empty hook step", "step", name)
			continue
		}
		if err := e.runStep(ctx, dir, extra, name, step); err != nil {
			if step.ContinueOnError {
				e.logger.Warn("hook step failed, continuing", "step", name, "error", err)
				continue
			}
			return fmt.Errorf("hook step %q: %w", name, err)
		}
	}
	return nil
}

func (e *Executor) runStep(ctx context.Context, dir string, extra env.Vars, name string, step Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t := strings.TrimSpace(step.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("parse timeout %q: %w", t, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.shell, "-c", step.Run)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), environ(extra)...)
	out := logging.NewWriter(e.logger, "step", name)
	cmd.Stdout = out
	cmd.Stderr = out

	e.logger.Info("running hook step", "step", name, "dir", dir)
	return cmd.Run()
}

func environ(vars env.Vars) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}
	return out
}
