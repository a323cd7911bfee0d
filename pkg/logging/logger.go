package logging

import (
	"bytes"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger is a wrapper around the log.Logger from the charmbracelet/log package.
type Logger struct {
	*log.Logger
	Buffer *bytes.Buffer
}

var (
	logger *Logger
	once   sync.Once
	mu     sync.RWMutex
)

// CreateLogger sets up the logger. It must be called before using the logger.
func CreateLogger() {
	once.Do(func() {
		baseLogger := log.New(os.Stderr)

		if os.Getenv("DEBUG") == "1" {
			baseLogger = log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				Prefix:          "intake",
			})

			baseLogger.SetLevel(log.DebugLevel)
		} else {
			baseLogger.SetReportTimestamp(true)
			baseLogger.SetLevel(log.InfoLevel)
		}

		mu.Lock()
		logger = &Logger{Logger: baseLogger}
		mu.Unlock()
	})
}

// NewTestLogger returns a debug-level logger that writes into an in-memory buffer.
func NewTestLogger() *Logger {
	buf := new(bytes.Buffer)
	baseLogger := log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
	return &Logger{Logger: baseLogger, Buffer: buf}
}

// GetOutput returns everything written to a test logger.
func (l *Logger) GetOutput() string {
	if l.Buffer == nil {
		return ""
	}
	return l.Buffer.String()
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...), Buffer: l.Buffer}
}

// BaseLogger returns the underlying *log.Logger.
func (l *Logger) BaseLogger() *log.Logger {
	return l.Logger
}

// Debug logs debug messages if debug logging is enabled.
func Debug(msg interface{}, keyvals ...interface{}) {
	GetLogger().Debug(msg, keyvals...)
}

// Info logs informational messages.
func Info(msg interface{}, keyvals ...interface{}) {
	GetLogger().Info(msg, keyvals...)
}

// Warn logs warning messages.
func Warn(msg interface{}, keyvals ...interface{}) {
	GetLogger().Warn(msg, keyvals...)
}

// Error logs error messages.
func Error(msg interface{}, keyvals ...interface{}) {
	GetLogger().Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(msg interface{}, keyvals ...interface{}) {
	GetLogger().Fatal(msg, keyvals...)
}

// GetLogger returns the Logger instance.
func GetLogger() *Logger {
	CreateLogger()
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetTestLogger swaps the package logger, typically for a NewTestLogger.
func SetTestLogger(l *Logger) {
	CreateLogger()
	mu.Lock()
	logger = l
	mu.Unlock()
}

// ResetForTest clears the package logger so the next call re-creates it.
func ResetForTest() {
	mu.Lock()
	logger = nil
	once = sync.Once{}
	mu.Unlock()
}
