package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/meshgen/internal/config"
	"github.com/codex-k8s/meshgen/internal/engine"
	"github.com/codex-k8s/meshgen/internal/env"
	"github.com/codex-k8s/meshgen/internal/ghoutput"
	"github.com/codex-k8s/meshgen/internal/service"
)

// generateFlags holds the flag values of the generate command.
type generateFlags struct {
	plan       string
	services   []string
	entryPoint string
	port       int
	typescript bool
	name       string
	logLevel   string
}

// newGenerateCommand creates the "generate" subcommand that composes services into the workspace.
func newGenerateCommand(opts *Options) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose services into the workspace, regenerating an existing one in place",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			if err := applyGenerateEnv(cmd, &flags); err != nil {
				return err
			}

			inlineVars, varFiles, err := parseInlineVarsAndFiles(cmd)
			if err != nil {
				return err
			}

			dir, err := filepath.Abs(opts.Dir)
			if err != nil {
				return fmt.Errorf("resolve workspace directory %q: %w", opts.Dir, err)
			}

			plan := &config.Plan{}
			if flags.plan != "" {
				plan, _, err = config.LoadPlan(flags.plan, config.LoadOptions{
					WorkspaceDir: dir,
					UserVars:     inlineVars,
					VarFiles:     varFiles,
				})
				if err != nil {
					return err
				}
			}
			if err := mergePlanFlags(cmd, plan, flags, dir); err != nil {
				return err
			}

			callerVars := env.FromOS()
			for _, path := range varFiles {
				vars, err := env.LoadVarFile(path)
				if err != nil {
					return fmt.Errorf("load var file %q: %w", path, err)
				}
				callerVars = env.Merge(callerVars, vars)
			}
			callerVars = env.Merge(callerVars, inlineVars)

			eng, err := engine.New(engine.Options{
				TargetDirectory: dir,
				Name:            plan.Name,
				Port:            plan.Port,
				LogLevel:        plan.LogLevel,
				StaticTyping:    plan.StaticTyping,
				AutoloadExclude: plan.Exclude,
				Env:             callerVars,
				Logger:          logger,
			})
			if err != nil {
				return err
			}

			if err := registerServices(eng, plan, logger); err != nil {
				return err
			}
			if plan.EntryPoint != "" {
				if err := eng.SetEntryPoint(plan.EntryPoint); err != nil {
					return err
				}
			}

			res, err := eng.Run(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("workspace generated",
				"dir", res.TargetDirectory,
				"entrypoint", res.EntryPoint,
				"config", res.ConfigFile,
				"regenerated", res.Regenerated,
				"services", len(eng.ServiceNames()),
			)

			port, _ := res.Env.Get(config.EnvPort)
			return ghoutput.Write(ghoutput.Path(), []ghoutput.Output{
				{Name: "dir", Value: res.TargetDirectory},
				{Name: "entrypoint", Value: res.EntryPoint},
				{Name: "config_file", Value: res.ConfigFile},
				{Name: "port", Value: port},
				{Name: "regenerated", Value: strconv.FormatBool(res.Regenerated)},
				{Name: "services", Value: strings.Join(eng.ServiceNames(), "\n")},
			})
		},
	}

	cmd.Flags().StringVar(&flags.plan, "plan", "", "Path to a meshgen plan file (YAML, Go-templated)")
	cmd.Flags().StringArrayVarP(&flags.services, "service", "s", nil, "Service to compose as name[=k=v,k2=v2]; repeatable, empty name is synthesized")
	cmd.Flags().StringVarP(&flags.entryPoint, "entrypoint", "e", "", "Entry-point service name")
	cmd.Flags().IntVarP(&flags.port, "port", "p", engine.DefaultPort, "Server port for fresh workspaces")
	cmd.Flags().BoolVar(&flags.typescript, "typescript", false, "Enable static typing for every service")
	cmd.Flags().StringVar(&flags.name, "name", "", "Workspace name used in the README (defaults to the directory name)")
	cmd.Flags().StringVar(&flags.logLevel, "server-log-level", engine.DefaultLogLevel, "Server log level written to .env")
	addVarsFlags(cmd)

	return cmd
}

// applyGenerateEnv fills flags that were not set on the command line from MESHGEN_* env vars.
func applyGenerateEnv(cmd *cobra.Command, flags *generateFlags) error {
	var envCfg generateEnv
	if err := parseEnv(&envCfg); err != nil {
		return err
	}
	if !cmd.Flags().Changed("plan") && envPresent("MESHGEN_PLAN") {
		flags.plan = envCfg.Plan
	}
	if !cmd.Flags().Changed("entrypoint") && envPresent("MESHGEN_ENTRYPOINT") {
		flags.entryPoint = envCfg.EntryPoint
	}
	if !cmd.Flags().Changed("port") && envPresent("MESHGEN_PORT") {
		_ = cmd.Flags().Set("port", fmt.Sprint(envCfg.Port))
	}
	if !cmd.Flags().Changed("typescript") && envPresent("MESHGEN_TYPESCRIPT") {
		_ = cmd.Flags().Set("typescript", fmt.Sprint(envCfg.TypeScript))
	}
	if !cmd.Flags().Changed("vars") && envPresent("MESHGEN_VARS") {
		_ = cmd.Flags().Set("vars", envCfg.Vars)
	}
	if !cmd.Flags().Changed("var-file") && envPresent("MESHGEN_VAR_FILE") {
		_ = cmd.Flags().Set("var-file", envCfg.VarFile)
	}
	return nil
}

// mergePlanFlags applies explicitly set flags on top of the plan and appends --service entries.
func mergePlanFlags(cmd *cobra.Command, plan *config.Plan, flags generateFlags, dir string) error {
	if cmd.Flags().Changed("name") || plan.Name == "" {
		plan.Name = flags.name
	}
	if plan.Name == "" {
		plan.Name = filepath.Base(dir)
	}
	if flags.entryPoint != "" {
		plan.EntryPoint = flags.entryPoint
	}
	if cmd.Flags().Changed("port") || plan.Port == 0 {
		plan.Port = flags.port
	}
	if cmd.Flags().Changed("server-log-level") || plan.LogLevel == "" {
		plan.LogLevel = flags.logLevel
	}
	if cmd.Flags().Changed("typescript") {
		plan.StaticTyping = flags.typescript
	}
	for _, value := range flags.services {
		name, vars, err := parseServiceFlag(value)
		if err != nil {
			return err
		}
		plan.Services = append(plan.Services, config.PlanService{Name: name, Env: vars})
	}
	return nil
}

// registerServices adds the plan services followed by the --service flag entries.
func registerServices(eng *engine.Engine, plan *config.Plan, logger *slog.Logger) error {
	for _, ps := range plan.Services {
		svc := service.New(service.Options{
			Env:          ps.Env,
			Dependencies: ps.Dependencies,
			PostInstall:  ps.PostInstall,
			Logger:       logger,
		})
		name, err := eng.AddService(svc, ps.Name)
		if err != nil {
			return err
		}
		logger.Debug("service added", "service", name)
	}
	return nil
}

// parseServiceFlag splits a name[=k=v,k2=v2] --service value.
func parseServiceFlag(value string) (string, *env.Ordered, error) {
	name, rest, found := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !found {
		return name, &env.Ordered{}, nil
	}
	vars, err := env.ParseInlineOrdered(rest)
	if err != nil {
		return "", nil, fmt.Errorf("service %q: %w", name, err)
	}
	return name, vars, nil
}
