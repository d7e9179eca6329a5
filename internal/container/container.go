// Package container provides dependency injection for the freelog application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"
	"io"

	"fjacquet/freelog/internal/config"
	"fjacquet/freelog/internal/logging"
	"fjacquet/freelog/internal/sink"
	"fjacquet/freelog/pkg/logbridge"
	"fjacquet/freelog/pkg/native"
)

// Options override dependencies NewContainer would otherwise create.
type Options struct {
	// Library is the native logging library. Defaults to a new native.Engine,
	// so the container never shares the engine behind logbridge.Default.
	Library native.Library
	// Stdout receives sink output when no sink path is configured.
	Stdout io.Writer
	// LogOutput receives the application's own log. Defaults to stderr.
	LogOutput io.Writer
}

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger  logging.Logger
	config  *config.Config
	library native.Library
	bridge  *logbridge.Bridge
	sink    sink.Sink
}

// NewContainer creates and wires all application dependencies with default
// options.
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithOptions(cfg, Options{})
}

// NewContainerWithOptions creates and wires all application dependencies:
// logger, native library filter, bridge and sink. The sink is installed as
// the bridge's handler.
func NewContainerWithOptions(cfg *config.Config, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapterFromLogger(logging.NewLogrus(cfg.Log.Level, cfg.Log.Format, opts.LogOutput))

	lib := opts.Library
	if lib == nil {
		lib = native.NewEngine()
	}
	lib.SetLogLevel(cfg.NativeLevel().Native())

	bridge := logbridge.NewBridge(lib, logger)

	s, err := sink.New(sink.Options{
		Type:     cfg.Sink.Type,
		Path:     cfg.Sink.Path,
		Compress: cfg.Sink.Compress,
		Stdout:   opts.Stdout,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating sink: %w", err)
	}
	bridge.SetHandler(s)

	logger.Debug("Container initialized successfully",
		logging.Field{Key: logging.FieldSink, Value: s.Name()},
		logging.Field{Key: logging.FieldLevel, Value: cfg.NativeLevel().String()})

	return &Container{
		logger:  logger,
		config:  cfg,
		library: lib,
		bridge:  bridge,
		sink:    s,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLibrary returns the native library the bridge drives.
func (c *Container) GetLibrary() native.Library {
	return c.library
}

// GetBridge returns the bridge with the configured sink installed.
func (c *Container) GetBridge() *logbridge.Bridge {
	return c.bridge
}

// GetSink returns the configured sink.
func (c *Container) GetSink() sink.Sink {
	return c.sink
}

// NewHook returns a logrus hook that forwards entries through the bridge
// under the configured domain.
func (c *Container) NewHook() *logbridge.Hook {
	return logbridge.NewHook(c.bridge, c.config.Bridge.Domain)
}

// Close uninstalls the sink from the bridge and closes it.
func (c *Container) Close() error {
	c.bridge.SetHandler(nil)
	if err := c.sink.Close(); err != nil {
		return fmt.Errorf("error closing sink: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
