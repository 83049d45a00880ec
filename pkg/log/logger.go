package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents logging verbosity
type Level int

const (
	ErrorLevel Level = iota
	InfoLevel
	DebugLevel
	TraceLevel
)

var levelNames = map[Level]string{
	ErrorLevel: "ERROR",
	InfoLevel:  "INFO",
	DebugLevel: "DEBUG",
	TraceLevel: "TRACE",
}

func (l Level) String() string {
	return levelNames[l]
}

// Logger provides leveled logging with an optional log file. Console output
// goes to a single writer so the report on stdout stays clean.
type Logger struct {
	level      Level
	logDir     string
	logFile    *os.File
	mu         sync.Mutex
	console    io.Writer
	fileLogger *log.Logger
}

// New creates a new logger writing console output to w
func New(level Level, logDir string, w io.Writer) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	l := &Logger{
		level:   level,
		logDir:  logDir,
		console: w,
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}

		logPath := filepath.Join(logDir, fmt.Sprintf("lcov-summary-%s.log", time.Now().Format("20060102-150405")))
		f, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.logFile = f
		l.fileLogger = log.New(f, "", log.LstdFlags)
	}

	return l, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return &Logger{level: ErrorLevel, console: io.Discard}
}

// LogFile returns the path of the log file, if any
func (l *Logger) LogFile() string {
	if l.logFile == nil {
		return ""
	}
	return l.logFile.Name()
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level > l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.fileLogger != nil {
		l.fileLogger.Printf("%s: %s", levelNames[level], msg)
	}

	if level == ErrorLevel {
		fmt.Fprintf(l.console, "❌ %s\n", msg)
	} else {
		fmt.Fprintf(l.console, "%s\n", msg)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ErrorLevel, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(TraceLevel, format, args...)
}

// Warning logs a warning message. Shown at info verbosity and above.
func (l *Logger) Warning(format string, args ...interface{}) {
	if l.level < InfoLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.fileLogger != nil {
		l.fileLogger.Printf("[WARNING] %s", msg)
	}

	fmt.Fprintf(l.console, "⚠️  %s\n", msg)
}

// ParseLevel parses a string into a log level
func ParseLevel(s string) (Level, error) {
	switch s {
	case "error":
		return ErrorLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	case "trace":
		return TraceLevel, nil
	default:
		return InfoLevel, fmt.Errorf("invalid log level: %s (valid: error, info, debug, trace)", s)
	}
}
