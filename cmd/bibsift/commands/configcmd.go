package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bibsift/bibsift/internal/config"
)

// templateFileMode is the permission mode for a written template config.
const templateFileMode = 0o644

// ErrConfigExists is returned when config init would overwrite an
// existing file.
var ErrConfigExists = errors.New("config file already exists")

// configTemplate is the starter configuration written by config init.
const configTemplate = `# bibsift configuration
base_path: out
log_path: ""
log_every: 10000
max_per_file: 0
default_format: marc
default_limit: 100000
outputs:
  - name: online
    format: json
    limit: 1000
    filters:
      - type: char_position
        tags: "008"
        range: [23]
        value: "o"
        op: eq
  - name: has_isbn_or_issn
    filters:
      - type: any_of
        filters:
          - type: field_exists
            tags: "020"
          - type: field_exists
            tags: "022"
`

// NewConfigCommand creates the config command group: init writes a
// starter config file, show prints the effective configuration after
// file, environment, and default merging.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bibsift configuration",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := os.Stat(path)
			if err == nil {
				return fmt.Errorf("%w: %s", ErrConfigExists, path)
			}

			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			writeErr := os.WriteFile(path, []byte(configTemplate), templateFileMode)
			if writeErr != nil {
				return fmt.Errorf("write %s: %w", path, writeErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", ".bibsift.yaml", "Destination path")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			rendered, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("render config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(rendered)

			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (default: .bibsift.yaml in CWD or $HOME)")

	return cmd
}
