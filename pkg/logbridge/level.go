package logbridge

import (
	"fmt"
	"strings"

	"fjacquet/freelog/pkg/native"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a log event, ordered from least to most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInformation
	LevelImportant
	LevelWarning
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelTrace:       "trace",
	LevelDebug:       "debug",
	LevelInformation: "information",
	LevelImportant:   "important",
	LevelWarning:     "warning",
	LevelError:       "error",
	LevelFatal:       "fatal",
}

var nativeLevels = [...]native.Level{
	LevelTrace:       native.LevelTrace,
	LevelDebug:       native.LevelDebug,
	LevelInformation: native.LevelInformation,
	LevelImportant:   native.LevelImportant,
	LevelWarning:     native.LevelWarning,
	LevelError:       native.LevelError,
	LevelFatal:       native.LevelFatal,
}

// Levels returns every level from most to least severe.
func Levels() []Level {
	return []Level{LevelFatal, LevelError, LevelWarning, LevelImportant, LevelInformation, LevelDebug, LevelTrace}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelFatal
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Native returns the fixed native code of l.
func (l Level) Native() native.Level {
	if !l.Valid() {
		return native.LevelTrace
	}
	return nativeLevels[l]
}

// ParseLevel parses a level name. "info" and "warn" are accepted as aliases.
func ParseLevel(s string) (Level, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	switch want {
	case "info":
		return LevelInformation, nil
	case "warn":
		return LevelWarning, nil
	}
	for l, name := range levelNames {
		if want == name {
			return Level(l), nil
		}
	}
	return LevelTrace, fmt.Errorf("unknown log level %q", s)
}

// LevelFromNative converts a native code to a Level. Codes that are not
// defined snap to the nearest defined level, ties going to the more severe
// one; exact reports whether code was a defined code.
func LevelFromNative(code native.Level) (level Level, exact bool) {
	for l, n := range nativeLevels {
		if n == code {
			return Level(l), true
		}
	}
	switch {
	case code <= native.LevelTrace:
		return LevelTrace, false
	case code >= native.LevelFatal:
		return LevelFatal, false
	}
	step := native.LevelDebug - native.LevelTrace
	idx := int((code-native.LevelTrace+step/2)/step)
	return Level(idx), false
}

// Logrus maps l onto the closest logrus level. Important has no logrus
// counterpart and maps to info.
func (l Level) Logrus() logrus.Level {
	switch l {
	case LevelFatal:
		return logrus.FatalLevel
	case LevelError:
		return logrus.ErrorLevel
	case LevelWarning:
		return logrus.WarnLevel
	case LevelImportant, LevelInformation:
		return logrus.InfoLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// LevelFromLogrus maps a logrus level onto a Level. Panic maps to fatal.
func LevelFromLogrus(l logrus.Level) Level {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel:
		return LevelFatal
	case logrus.ErrorLevel:
		return LevelError
	case logrus.WarnLevel:
		return LevelWarning
	case logrus.InfoLevel:
		return LevelInformation
	case logrus.DebugLevel:
		return LevelDebug
	default:
		return LevelTrace
	}
}
