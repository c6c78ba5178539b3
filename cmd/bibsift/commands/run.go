// Package commands implements CLI command handlers for bibsift.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bibsift/bibsift/internal/config"
	"github.com/bibsift/bibsift/pkg/marc"
	"github.com/bibsift/bibsift/pkg/sift"
)

// jobExecutor runs a compiled sift job over a record source. It is a
// seam for command tests.
type jobExecutor func(cfg sift.Config, src marc.Source) (map[string]*sift.BatchWriter, error)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	configPath string
	basePath   string
	logPath    string
	logEvery   int
	maxPerFile int
	silent     bool
	noColor    bool

	exec jobExecutor
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(executeJob)
}

func newRunCommandWithDeps(exec jobExecutor) *cobra.Command {
	rc := &RunCommand{exec: exec, logEvery: -1, maxPerFile: -1}

	cmd := &cobra.Command{
		Use:   "run [flags] FILE...",
		Short: "Sift MARC input files into the configured output sets",
		Long: "Run one pass over the given MARC files (binary or MARC-in-JSON),\n" +
			"routing each record to every configured output set it matches.",
		Args: cobra.MinimumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file path (default: .bibsift.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&rc.basePath, "out", "o", "", "Base output directory (overrides config)")
	cmd.Flags().StringVar(&rc.logPath, "log", "", "Progress log file (overrides config; default stdout)")
	cmd.Flags().IntVar(&rc.logEvery, "log-every", -1, "Progress interval in records (overrides config; 0 disables periodic reporting)")
	cmd.Flags().IntVar(&rc.maxPerFile, "max-per-file", -1, "Max records per output file (overrides config; 0 = unlimited)")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Disable periodic progress reporting")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored status output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyOverrides(cfg)

	jobCfg, err := config.Compile(cfg)
	if err != nil {
		return err
	}

	src := marc.NewFileSource(args...)
	defer src.Close()

	writers, err := rc.exec(jobCfg, src)
	if err != nil {
		return err
	}

	rc.printSummary(cmd.ErrOrStderr(), cfg, writers)

	return nil
}

func (rc *RunCommand) applyOverrides(cfg *config.Config) {
	if rc.basePath != "" {
		cfg.BasePath = rc.basePath
	}

	if rc.logPath != "" {
		cfg.LogPath = rc.logPath
	}

	if rc.logEvery >= 0 {
		cfg.LogEvery = rc.logEvery
	}

	if rc.silent {
		if rc.logEvery > 0 {
			slog.Default().Warn("silent disables periodic reporting", "log_every", rc.logEvery)
		}

		cfg.LogEvery = 0
	}

	if rc.maxPerFile >= 0 {
		cfg.MaxPerFile = rc.maxPerFile
	}
}

// printSummary renders the per-output result table to the status
// stream. The job's own progress log keeps its plain line format; this
// is CLI presentation only.
func (rc *RunCommand) printSummary(w io.Writer, cfg *config.Config, writers map[string]*sift.BatchWriter) {
	green := color.New(color.FgGreen)
	if rc.noColor {
		green.DisableColor()
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"Output", "Records", "Files", "Bytes"})

	var totalRecords int

	// Config order, not map order.
	for _, out := range cfg.Outputs {
		writer, ok := writers[out.Name]
		if !ok {
			continue
		}

		totalRecords += writer.Written()

		tbl.AppendRow(table.Row{
			out.Name,
			humanize.Comma(int64(writer.Written())),
			writer.FileCount(),
			humanize.Bytes(uint64(writer.Bytes())),
		})
	}

	tbl.Render()
	green.Fprintf(w, "Sifted %s records into %d output sets under %s\n",
		humanize.Comma(int64(totalRecords)), len(cfg.Outputs), cfg.BasePath)
}

func executeJob(cfg sift.Config, src marc.Source) (map[string]*sift.BatchWriter, error) {
	job, err := sift.NewJob(cfg)
	if err != nil {
		return nil, err
	}

	writers, err := job.Run(src)
	if err != nil {
		return nil, fmt.Errorf("run job: %w", err)
	}

	return writers, nil
}
