// Package logger provides leveled logging for DittoBox.
//
// Logging is a purely observational concern: no component communicates
// failures through the logger. Errors always travel through typed return
// values; the logger only records them.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel = LevelInfo
	logger       = stdlog.New(os.Stdout, "", 0)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SetLevel sets the minimum level that will be emitted.
// Unknown values leave the current level unchanged.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetOutput redirects log output. The default is stdout.
func SetOutput(w io.Writer) {
	logger = stdlog.New(w, "", 0)
}

// Configure applies a logging configuration in one call: level plus an
// output destination ("stdout", "stderr", or a file path).
func Configure(level, output string) error {
	SetLevel(level)

	switch output {
	case "", "stdout":
		SetOutput(os.Stdout)
	case "stderr":
		SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %q: %w", output, err)
		}
		SetOutput(f)
	}

	return nil
}

func log(level Level, format string, v ...any) {
	if level < currentLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	message := fmt.Sprintf(format, v...)
	logger.Println(prefix + message)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
