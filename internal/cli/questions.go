package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codex-k8s/meshgen/internal/engine"
	"github.com/codex-k8s/meshgen/internal/env"
)

// newQuestionsCommand creates the "questions" subcommand that prints the interactive question contract.
func newQuestionsCommand(opts *Options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the questions an interactive front end should ask before generating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := filepath.Abs(opts.Dir)
			if err != nil {
				return err
			}
			eng, err := engine.New(engine.Options{
				TargetDirectory: dir,
				Port:            port,
				Env:             env.FromOS(),
				Logger:          LoggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}
			questions, err := eng.Questions()
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), questions)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", engine.DefaultPort, "Default offered for the port question")
	return cmd
}
