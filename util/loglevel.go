package util

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// UnmarshalYAML implements custom YAML unmarshaling for LogLevel, accepting
// either a name (debug/info/warn/error) or a raw integer.
func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		switch strings.ToLower(s) {
		case "debug":
			*l = LogLevelDebug
		case "info":
			*l = LogLevelInfo
		case "warn", "warning":
			*l = LogLevelWarn
		case "error":
			*l = LogLevelError
		default:
			*l = LogLevelInfo
		}
		return nil
	}

	var i int
	if err := value.Decode(&i); err != nil {
		return fmt.Errorf("log_level must be a string (debug/info/warn/error) or integer (0-3)")
	}
	*l = LogLevel(i)
	return nil
}

func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
