// Package emit handles writing a single log entry from the command line
package emit

import (
	"errors"
	"fmt"
	"time"

	"fjacquet/freelog/cmd/root"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/internal/replay"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/spf13/cobra"
)

// Options are the values of the emit flags.
type Options struct {
	Level     string
	Domain    string
	Code      string
	Timestamp string
	Payload   string
	File      string
	Line      uint32
}

var flags Options

// Cmd represents the emit command
var Cmd = &cobra.Command{
	Use:   "emit",
	Short: "Write one log entry through the native logger",
	Long: `Write one log entry through the native logger. The payload is a JSON
object; numbers with a fraction or an exponent are sent as floats, other
numbers as integers.`,
	Example: `  freelog emit --code peer_lost --level warning --payload '{"host":"10.0.0.1","port":12000}'`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if root.AppContainer == nil {
			return errors.New("application container is not initialized")
		}
		return Emit(root.AppContainer.GetBridge(), flags, root.AppContainer.GetConfig().Bridge.Domain, time.Now, root.Log)
	},
}

func init() {
	Cmd.Flags().StringVarP(&flags.Level, "level", "l", "information", "Severity (trace, debug, information, important, warning, error, fatal)")
	Cmd.Flags().StringVarP(&flags.Domain, "domain", "d", "", "Log domain (default bridge.domain)")
	Cmd.Flags().StringVarP(&flags.Code, "code", "c", "", "Log code (required)")
	Cmd.Flags().StringVarP(&flags.Timestamp, "timestamp", "t", "", "RFC 3339 timestamp (default now)")
	Cmd.Flags().StringVarP(&flags.Payload, "payload", "p", "", "Payload as a JSON object")
	Cmd.Flags().StringVarP(&flags.File, "file", "f", "", "Source file")
	Cmd.Flags().Uint32Var(&flags.Line, "line", 0, "Source line (ignored without --file)")
	_ = Cmd.MarkFlagRequired("code")
}

// Emit writes the entry described by opts through bridge. defaultDomain is
// used when opts.Domain is empty.
func Emit(bridge *logbridge.Bridge, opts Options, defaultDomain string, now func() time.Time, log logging.Logger) error {
	if log == nil {
		log = logging.Discard()
	}

	level, err := logbridge.ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	ts := now()
	if opts.Timestamp != "" {
		if ts, err = time.Parse(time.RFC3339Nano, opts.Timestamp); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	domain := opts.Domain
	if domain == "" {
		domain = defaultDomain
	}

	var payload *logbridge.Payload
	if opts.Payload != "" {
		if payload, err = replay.ParsePayload([]byte(opts.Payload)); err != nil {
			return err
		}
	}

	var loc *logbridge.Location
	if opts.File != "" {
		loc = &logbridge.Location{File: opts.File, Line: opts.Line}
	}

	handled, err := bridge.Emit(level, ts, domain, opts.Code, payload, loc)
	if err != nil {
		return fmt.Errorf("log entry rejected: %w", err)
	}

	fields := []logging.Field{
		{Key: logging.FieldDomain, Value: domain},
		{Key: logging.FieldCode, Value: opts.Code},
		{Key: logging.FieldLevel, Value: level.String()},
	}
	if !handled {
		log.Warn("Log entry was not handled (filtered by the native level or rejected by the sink)", fields...)
		return nil
	}
	log.Debug("Log entry handled", fields...)
	return nil
}
