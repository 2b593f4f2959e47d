package config

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/pecunia/internal/logging"
)

// Logger is the global zerolog logger instance.
//
//nolint:gochecknoglobals // Logger is intentionally global for application-wide structured logging
var Logger zerolog.Logger

// logFileHandle tracks the current log file for cleanup.
//
//nolint:gochecknoglobals // Tracks the global logger's file handle for proper cleanup
var logFileHandle *os.File

// logMu protects concurrent access to logFileHandle and Logger.
//
//nolint:gochecknoglobals // Guards the global logger state
var logMu sync.RWMutex

// InitLogger initializes the package-level Logger with the given level, writing to stderr
// and, when logToFile is true, also to the configured log file (default
// ~/.pecunia/pecunia.log). An unparsable level means info.
func InitLogger(level string, logToFile bool) error {
	logMu.Lock()
	defer logMu.Unlock()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{consoleWriter()}

	closeLogFileLocked()

	if logToFile {
		if logDirErr := EnsureLogDir(); logDirErr != nil {
			return logDirErr
		}

		logPath := GetGlobalConfig().Logging.File
		if logPath == "" {
			logPath = defaultLogPath()
		}

		logFile, fileErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if fileErr != nil {
			return fileErr
		}
		logFileHandle = logFile
		writers = append(writers, logFile)
	}

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return nil
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

func defaultLogPath() string {
	return ConfigDir() + string(os.PathSeparator) + "pecunia.log"
}

// SetLogLevel sets the global Logger's level. An unparsable level means info.
func SetLogLevel(level string) {
	logMu.Lock()
	defer logMu.Unlock()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	Logger = Logger.Level(lvl)
}

// CloseLogFile closes the current log file handle, if any, and resets the Logger
// to console-only output.
func CloseLogFile() {
	logMu.Lock()
	defer logMu.Unlock()
	closeLogFileLocked()
}

// closeLogFileLocked closes the log file and resets the logger. Must be called with logMu held.
func closeLogFileLocked() {
	if logFileHandle == nil {
		return
	}
	_ = logFileHandle.Close()
	logFileHandle = nil

	Logger = zerolog.New(consoleWriter()).
		Level(Logger.GetLevel()).
		With().
		Timestamp().
		Logger()
}

// GetLogger returns the global logger instance.
func GetLogger() zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return Logger
}

//nolint:gochecknoinits // the global logger must exist before configuration is loaded
func init() {
	Logger = zerolog.New(consoleWriter()).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

// ToLoggingConfig converts LoggingConfig to logging.Config. A configured file switches the
// output to that file; otherwise logs go to stderr.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = outputTypeFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// GetLoggingConfig returns a copy of the global configuration's logging section.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
