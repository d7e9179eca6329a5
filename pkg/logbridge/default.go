package logbridge

import (
	"sync"
	"time"

	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/pkg/native"
)

var (
	defaultBridge     *Bridge
	defaultBridgeOnce sync.Once
)

// Default returns the process-wide bridge bound to native.Default. The engine
// holds a single callback, so SetLoggingHandler replaces any callback other
// code registered on native.Default.
func Default() *Bridge {
	defaultBridgeOnce.Do(func() {
		defaultBridge = NewBridge(native.Default(), logging.NewLogrusAdapter("warn", "text"))
	})
	return defaultBridge
}

// SetLoggingHandler installs h on the default bridge. A nil h uninstalls it.
func SetLoggingHandler(h Handler) {
	Default().SetHandler(h)
}

// Log emits an entry through the default bridge.
func Log(level Level, ts time.Time, domain, code string, payload *Payload, loc *Location) (bool, error) {
	return Default().Emit(level, ts, domain, code, payload, loc)
}
