package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bibsift/bibsift/internal/config"
)

// NewValidateCommand creates the validate command, which loads the
// configuration, checks it against the schema, and compiles every
// filter spec without running anything.
func NewValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the bibsift configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			_, err = config.Compile(cfg)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Configuration is valid (%d output sets)\n", len(cfg.Outputs))

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (default: .bibsift.yaml in CWD or $HOME)")

	return cmd
}
