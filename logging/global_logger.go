package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lower-case level name
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LoggerInterface is the subset of Logger used by components that accept an injected logger
type LoggerInterface interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Logger provides leveled logging functionality
type Logger struct {
	mu     sync.RWMutex
	level  LogLevel
	logger *log.Logger
	closer io.Closer
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// NewLogger creates a logger writing to logFile; an empty path writes to stderr
func NewLogger(levelStr string, logFile string) (*Logger, error) {
	if logFile == "" {
		return NewLoggerWithWriter(levelStr, os.Stderr), nil
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	l := NewLoggerWithWriter(levelStr, file)
	l.closer = file
	return l, nil
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(levelStr string, w io.Writer) *Logger {
	return &Logger{
		level:  ParseLogLevel(levelStr),
		logger: log.New(w, "", log.LstdFlags|log.Lshortfile),
	}
}

// ParseLogLevel parses a log level string, defaulting to info
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel changes the minimum level at runtime
func (l *Logger) SetLevel(levelStr string) {
	l.mu.Lock()
	l.level = ParseLogLevel(levelStr)
	l.mu.Unlock()
}

// SetOutput redirects subsequent log lines to w
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// Level returns the current level
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) enabled(level LogLevel) bool {
	return l.Level() <= level
}

// output skips this frame and the exported wrapper so Lshortfile points at the caller
func (l *Logger) output(depth int, tag, msg string) {
	_ = l.logger.Output(depth+2, tag+" "+msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	if l.enabled(LevelDebug) {
		l.output(1, "[DEBUG]", msg)
	}
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(1, "[DEBUG]", fmt.Sprintf(format, args...))
	}
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	if l.enabled(LevelInfo) {
		l.output(1, "[INFO]", msg)
	}
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(1, "[INFO]", fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	if l.enabled(LevelWarn) {
		l.output(1, "[WARN]", msg)
	}
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.output(1, "[WARN]", fmt.Sprintf(format, args...))
	}
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	if l.enabled(LevelError) {
		l.output(1, "[ERROR]", msg)
	}
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.output(1, "[ERROR]", fmt.Sprintf(format, args...))
	}
}

// Close releases the underlying log file, if any
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// InitGlobalLogger initializes the global logger instance
func InitGlobalLogger(logLevel, logFile string) error {
	var initErr error
	loggerOnce.Do(func() {
		l, err := NewLogger(logLevel, logFile)
		if err != nil {
			initErr = err
			globalLogger = NewLoggerWithWriter(logLevel, os.Stderr)
			return
		}
		globalLogger = l
	})
	return initErr
}

// SetGlobalLogger replaces the global logger; used by tests and the TUI
func SetGlobalLogger(l *Logger) {
	loggerOnce.Do(func() {})
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance, or nil before initialization
func GetGlobalLogger() *Logger {
	return globalLogger
}

// Global convenience functions for logging
func LogInfo(msg string) {
	if globalLogger != nil {
		globalLogger.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.enabled(LevelInfo) {
		globalLogger.output(1, "[INFO]", fmt.Sprintf(format, args...))
	}
}

func LogDebug(msg string) {
	if globalLogger != nil {
		globalLogger.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.enabled(LevelDebug) {
		globalLogger.output(1, "[DEBUG]", fmt.Sprintf(format, args...))
	}
}

func LogWarn(msg string) {
	if globalLogger != nil {
		globalLogger.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.enabled(LevelWarn) {
		globalLogger.output(1, "[WARN]", fmt.Sprintf(format, args...))
	}
}

func LogError(msg string) {
	if globalLogger != nil {
		globalLogger.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.enabled(LevelError) {
		globalLogger.output(1, "[ERROR]", fmt.Sprintf(format, args...))
	}
}
