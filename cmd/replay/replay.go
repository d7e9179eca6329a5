// Package replay handles replaying JSON-lines log requests from the command line
package replay

import (
	"context"
	"errors"
	"io"
	"time"

	"fjacquet/freelog/cmd/root"
	"fjacquet/freelog/internal/logging"
	logreplay "fjacquet/freelog/internal/replay"
	"fjacquet/freelog/pkg/logbridge"

	"github.com/spf13/cobra"
)

var strict bool

// Cmd represents the replay command
var Cmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Replay JSON-lines log requests through the native logger",
	Long: `Replay reads one JSON log request per line from file (default stdin,
".gz" files are decompressed) and writes each one through the native logger.
The output of the jsonl sink is valid input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if root.AppContainer == nil {
			return errors.New("application container is not initialized")
		}
		input := "-"
		if len(args) == 1 {
			input = args[0]
		}

		var r io.ReadCloser
		if input == "-" {
			r = io.NopCloser(cmd.InOrStdin())
		} else {
			var err error
			if r, err = logreplay.Open(input); err != nil {
				return err
			}
		}
		defer func() {
			if err := r.Close(); err != nil {
				root.Log.WithError(err).Warn("Failed to close replay input")
			}
		}()

		log := root.Log.WithField(logging.FieldInputFile, input)
		_, err := Replay(cmd.Context(), r, root.AppContainer.GetBridge(), root.AppContainer.GetConfig().Bridge.Domain, log)
		return err
	},
}

func init() {
	Cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first invalid request")
}

// Replay runs every request read from r through bridge and logs a summary.
func Replay(ctx context.Context, r io.Reader, bridge *logbridge.Bridge, domain string, log logging.Logger) (logreplay.Summary, error) {
	summary, err := logreplay.Run(ctx, r, bridge, logreplay.Options{
		Domain: domain,
		Strict: strict,
		Now:    time.Now,
		Logger: log,
	})
	log.Info("Replay completed",
		logging.Field{Key: "read", Value: summary.Read},
		logging.Field{Key: "emitted", Value: summary.Emitted},
		logging.Field{Key: "handled", Value: summary.Handled},
		logging.Field{Key: "invalid", Value: summary.Invalid},
		logging.Field{Key: "violations", Value: summary.Violations})
	return summary, err
}
