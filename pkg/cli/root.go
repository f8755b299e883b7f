package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nuxleus/directhost/pkg/cli/internal/output"
	"github.com/nuxleus/directhost/pkg/config"
	"github.com/nuxleus/directhost/pkg/logging"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	jsonOutput bool
	logLevel   string
	noColor    bool

	out    io.Writer
	errOut io.Writer
}

// loadConfig resolves the host configuration from defaults, --config and
// the environment. --log-level overrides the configured level.
func (o *globalOptions) loadConfig() (*config.HostConfig, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

// logger writes to stderr so stdout stays parseable with --json.
func (o *globalOptions) logger(cfg *config.HostConfig) *slog.Logger {
	return logging.FromStrings(cfg.LogLevel, cfg.LogFormat, o.errOut)
}

// printResult outputs a single command result.
//
// When --json is active, ONLY the JSON encoding of data is written to
// stdout. textFn is called only in text mode.
func (o *globalOptions) printResult(data any, textFn func(w io.Writer)) error {
	if o.jsonOutput {
		return output.JSON(o.out, data)
	}
	textFn(o.out)
	return nil
}

// NewRootCommand builds the directhost command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &globalOptions{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "directhost",
		Short: "directhost runs services in-process without a server",
		Long: `directhost dispatches requests to services through an in-process host.
Routes come from fixture files and the built-in demo item service; nothing
listens on a socket.

Configuration can be provided via --config, DIRECTHOST_* environment
variables, or flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor || opts.jsonOutput {
				output.DisableColor()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Host configuration file (YAML or JSON)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output command results in JSON format")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newExecCommand(opts),
		newRoutesCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
