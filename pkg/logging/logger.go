package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level controls which messages a Logger writes.
type Level int

const (
	// LevelQuiet writes only warnings and errors
	LevelQuiet Level = iota
	// LevelNormal adds informational messages (default)
	LevelNormal
	// LevelDebug writes everything, including per-element browser activity
	LevelDebug
)

// ParseLevel converts a verbosity name into a Level.
// Unknown or empty names map to LevelNormal.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "quiet":
		return LevelQuiet
	case "debug", "verbose":
		return LevelDebug
	default:
		return LevelNormal
	}
}

// String returns the verbosity name of the level.
func (l Level) String() string {
	switch l {
	case LevelQuiet:
		return "quiet"
	case LevelDebug:
		return "debug"
	default:
		return "normal"
	}
}

// Logger provides structured logging for rymscraper components.
// File loggers write to a session-specific file in ~/.rymscraper/logs/
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	level     Level
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".rymscraper", "logs")
		}

		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.rymscraper/logs/<session-id>-rymscraper.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-rymscraper.log", sessID))

	// Append mode: every component of a run shares the same file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
		level:     LevelDebug,
	}, nil
}

// NewWriterLogger creates a logger that writes to w instead of a session file.
func NewWriterLogger(component string, w io.Writer, level Level) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    log.New(w, "", 0),
		level:     level,
	}
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    logger,
		level:     LevelNormal,
	}
	l.Warnf("failed to initialize file logging: %v", err)
	l.Warnf("falling back to stderr logging")
	return l
}

// SetLevel changes the minimum level written by the logger.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// formatLogEntry creates a structured log entry with timestamp, component, and level
func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(minLevel Level, tag, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level < minLevel {
		return
	}
	l.logger.Println(l.formatLogEntry(tag, fmt.Sprintf(format, v...)))
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.write(LevelNormal, "INFO", format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelNormal, "INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelQuiet, "WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelQuiet, "ERROR", format, v...)
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for writer loggers
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
