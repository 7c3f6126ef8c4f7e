package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/meshgen/internal/config"
	"github.com/codex-k8s/meshgen/internal/engine"
	"github.com/codex-k8s/meshgen/internal/env"
)

// inspectReport is the YAML document printed by the inspect command.
type inspectReport struct {
	Found      bool       `yaml:"found"`
	Dir        string     `yaml:"dir"`
	ConfigFile string     `yaml:"configFile,omitempty"`
	Format     string     `yaml:"format,omitempty"`
	EntryPoint string     `yaml:"entrypoint,omitempty"`
	Port       string     `yaml:"port,omitempty"`
	Exclude    []string   `yaml:"exclude,omitempty"`
	Services   []string   `yaml:"services,omitempty"`
	Env        *yaml.Node `yaml:"env,omitempty"`
}

// newInspectCommand creates the "inspect" subcommand that prints what a regeneration would keep.
func newInspectCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the state recovered from an existing workspace configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			dir, err := filepath.Abs(opts.Dir)
			if err != nil {
				return err
			}
			eng, err := engine.New(engine.Options{
				TargetDirectory: dir,
				Env:             env.FromOS(),
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			rec, err := eng.Probe()
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), buildInspectReport(dir, rec))
		},
	}
	return cmd
}

func buildInspectReport(dir string, rec *config.Recovered) inspectReport {
	report := inspectReport{Dir: dir}
	if rec == nil {
		return report
	}
	report.Found = true
	report.ConfigFile = filepath.Base(rec.Path)
	report.Format = string(rec.Format)
	report.EntryPoint = rec.EntryPoint
	report.Port = rec.Port
	if rec.Workspace != nil {
		report.Exclude = rec.Workspace.Autoload.Exclude
		for _, svc := range rec.Workspace.Services {
			report.Services = append(report.Services, svc.ID)
		}
	}
	report.Env = orderedNode(rec.Env)
	return report
}

// orderedNode renders an ordered mapping as a YAML mapping node, keeping key order.
func orderedNode(vars *env.Ordered) *yaml.Node {
	if vars.Len() == 0 {
		return nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range vars.Keys() {
		value, _ := vars.Get(key)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
	}
	return node
}
