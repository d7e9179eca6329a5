package replay

import (
	"context"
	"strings"
	"testing"

	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/internal/sink"
	"fjacquet/freelog/pkg/logbridge"
	"fjacquet/freelog/pkg/native"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Metadata(t *testing.T) {
	assert.Equal(t, "replay [file]", Cmd.Use)
	assert.NotNil(t, Cmd.RunE)
	assert.NotNil(t, Cmd.Flags().Lookup("strict"))
	assert.Error(t, Cmd.Args(Cmd, []string{"a", "b"}))
}

func TestReplay(t *testing.T) {
	engine := native.NewEngine()
	engine.SetLogLevel(native.LevelTrace)
	bridge := logbridge.NewBridge(engine, nil)
	rec := sink.NewRecorder()
	bridge.SetHandler(rec)
	logger := logging.NewMockLogger()

	input := "{\"code\":\"one\"}\nnot json\n{\"code\":\"two\",\"domain\":\"tun\"}\n"
	summary, err := Replay(context.Background(), strings.NewReader(input), bridge, "vpn", logger)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Read)
	assert.Equal(t, 2, summary.Handled)
	assert.Equal(t, 1, summary.Invalid)

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "vpn", events[0].Domain)
	assert.Equal(t, "tun", events[1].Domain)

	assert.True(t, logger.HasEntry("INFO", "Replay completed"))
}
