package logbridge

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHook_ForwardsEntries(t *testing.T) {
	b, _, _ := newTestBridge(t)
	rec := &recorder{result: true}
	b.SetHandler(rec)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(NewHook(b, "app"))

	logger.WithFields(logrus.Fields{"peer": "10.0.0.2", "retries": 3}).Warn("peer_unreachable")

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, LevelWarning, ev.Level)
	assert.Equal(t, "app", ev.Domain)
	assert.Equal(t, "peer_unreachable", ev.Code)
	assert.Equal(t, map[string]any{"peer": "10.0.0.2", "retries": int64(3)}, ev.Payload.Map())
	assert.Nil(t, ev.Source)
}

func TestHook_Caller(t *testing.T) {
	b, _, _ := newTestBridge(t)
	rec := &recorder{result: true}
	b.SetHandler(rec)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetReportCaller(true)
	logger.AddHook(NewHook(b, "app"))

	logger.Error("with_caller")

	require.Len(t, rec.events, 1)
	require.NotNil(t, rec.events[0].Source)
	assert.Contains(t, rec.events[0].File(), "hook_test.go")
	assert.NotZero(t, rec.events[0].Line())
}

func TestHook_Levels(t *testing.T) {
	b, _, _ := newTestBridge(t)
	assert.Equal(t, logrus.AllLevels, NewHook(b, "app").Levels())
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, NewHook(b, "app", logrus.ErrorLevel).Levels())
}

func TestHook_ContractViolation(t *testing.T) {
	b, _, _ := newTestBridge(t)
	rec := &recorder{result: true}
	b.SetHandler(rec)

	hook := NewHook(b, "app")
	entry := logrus.NewEntry(logrus.New()).WithField("bad", []int{1})
	entry.Message = "x"
	entry.Level = logrus.InfoLevel

	err := hook.Fire(entry)
	require.Error(t, err)
	assert.True(t, IsContractViolation(err))
	require.Len(t, rec.events, 1)
	assert.Equal(t, 0, rec.events[0].Payload.Len())
}
