// Package root contains the root command for the application
package root

import (
	"fmt"
	"sync"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/container"
	"fjacquet/freelog/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to every command
type CommonFlags struct {
	ConfigFile  string
	LogLevel    string
	LogFormat   string
	NativeLevel string
	Sink        string
	Output      string
	Compress    bool
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.Discard()

	// AppContainer holds the dependencies wired for the running command
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "freelog",
		Short: "A CLI tool to write and replay FreeLAN native log entries.",
		Long: `freelog drives the FreeLAN native logging bridge. It writes structured
log entries through the native entry ABI and delivers the decoded events to a
configurable sink (logrus, CSV, JSON lines or YAML).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return Teardown()
		},
	}

	// SharedFlags holds the values of the persistent flags
	SharedFlags = CommonFlags{}

	initOnce sync.Once
)

// Init initializes the root command and all flags
func Init() {
	initOnce.Do(func() {
		flags := Cmd.PersistentFlags()
		flags.StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default $HOME/.freelog/config.yaml)")
		flags.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
		flags.StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text, json)")
		flags.StringVar(&SharedFlags.NativeLevel, "native-level", "", "Minimum severity dispatched by the native logger")
		flags.StringVarP(&SharedFlags.Sink, "sink", "s", "", "Event sink (logrus, csv, jsonl, yaml, none)")
		flags.StringVarP(&SharedFlags.Output, "output", "o", "", "Sink output file (default stdout)")
		flags.BoolVar(&SharedFlags.Compress, "compress", false, "Gzip the jsonl sink output")
	})
}

// Setup loads the configuration, applies the flags set on cmd and wires the
// application container.
func Setup(cmd *cobra.Command) error {
	if _, err := config.LoadEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	AppContainer, err = container.NewContainerWithOptions(cfg, container.Options{
		Stdout:    cmd.OutOrStdout(),
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	Log = AppContainer.GetLogger()
	return nil
}

// Teardown closes the container created by Setup.
func Teardown() error {
	if AppContainer == nil {
		return nil
	}
	err := AppContainer.Close()
	AppContainer = nil
	Log = logging.Discard()
	return err
}

// applyFlags overrides cfg with the persistent flags that were set
// explicitly, then validates the result.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = SharedFlags.LogFormat
	}
	if flags.Changed("native-level") {
		cfg.Native.Level = SharedFlags.NativeLevel
	}
	if flags.Changed("sink") {
		cfg.Sink.Type = SharedFlags.Sink
	}
	if flags.Changed("output") {
		cfg.Sink.Path = SharedFlags.Output
	}
	if flags.Changed("compress") {
		cfg.Sink.Compress = SharedFlags.Compress
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
