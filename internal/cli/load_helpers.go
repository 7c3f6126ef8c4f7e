package cli

import (
	"github.com/spf13/cobra"

	"github.com/codex-k8s/meshgen/internal/env"
)

func parseInlineVarsAndFiles(cmd *cobra.Command) (env.Vars, []string, error) {
	inlineVars, err := env.ParseInlineVars(cmd.Flag("vars").Value.String())
	if err != nil {
		return nil, nil, err
	}

	varFile := cmd.Flag("var-file").Value.String()
	var varFiles []string
	if varFile != "" {
		varFiles = append(varFiles, varFile)
	}
	return inlineVars, varFiles, nil
}

func addVarsFlags(cmd *cobra.Command) {
	cmd.Flags().String("vars", "", "Additional variables in k=v,k2=v2 format")
	cmd.Flags().String("var-file", "", "Path to YAML/ENV file with additional variables")
}
