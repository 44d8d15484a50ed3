package events

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/TheMichaelB/sealshare/internal/config"
)

// LogLevel represents logging severity.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Field names whose values never reach the output.
var redactedFields = map[string]bool{
	"password":  true,
	"key":       true,
	"content":   true,
	"plaintext": true,
	"fragment":  true,
}

const redacted = "[REDACTED]"

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	format   string
	output   io.Writer
	color    bool
	fields   map[string]interface{}
	hostname string
}

// NewLogger creates a logger from config.
func NewLogger(cfg *config.LogConfig) (*Logger, error) {
	level := parseLevel(cfg.Level)

	// Stdout carries command output; logs go to stderr
	var output io.Writer = os.Stderr
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
	}

	hostname, _ := os.Hostname()

	return &Logger{
		level:    level,
		format:   cfg.Format,
		output:   output,
		color:    cfg.Color && cfg.File == "",
		fields:   make(map[string]interface{}),
		hostname: hostname,
	}, nil
}

// NewTestLogger creates a logger for testing.
func NewTestLogger(level LogLevel, format string, output io.Writer) *Logger {
	return &Logger{
		level:    level,
		format:   format,
		output:   output,
		fields:   make(map[string]interface{}),
		hostname: "test-host",
	}
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return NewTestLogger(ErrorLevel+1, "text", io.Discard)
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		if redactedFields[strings.ToLower(k)] {
			v = redacted
		}
		newFields[k] = v
	}

	return &Logger{
		level:    l.level,
		format:   l.format,
		output:   l.output,
		color:    l.color,
		fields:   newFields,
		hostname: l.hostname,
	}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) {
	l.log(DebugLevel, msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string) {
	l.log(InfoLevel, msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string) {
	l.log(WarnLevel, msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string) {
	l.log(ErrorLevel, msg)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

// log writes a log entry.
func (l *Logger) log(level LogLevel, msg string) {
	if level < l.level || l.output == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.buildEntry(level, msg)

	if l.format == "json" {
		l.writeJSON(entry)
	} else {
		l.writeText(entry)
	}
}

// buildEntry creates a log entry.
func (l *Logger) buildEntry(level LogLevel, msg string) map[string]interface{} {
	// Get caller info
	_, file, line, _ := runtime.Caller(3)
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}

	entry := map[string]interface{}{
		"time":     time.Now().UTC().Format(time.RFC3339Nano),
		"level":    levelString(level),
		"msg":      msg,
		"hostname": l.hostname,
		"caller":   fmt.Sprintf("%s:%d", file, line),
	}

	// Add custom fields
	for k, v := range l.fields {
		entry[k] = v
	}

	return entry
}

// writeJSON outputs JSON format.
func (l *Logger) writeJSON(entry map[string]interface{}) {
	for k, v := range entry {
		if err, ok := v.(error); ok {
			entry[k] = err.Error()
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, `{"level":"error","msg":"marshal log entry: %s"}`+"\n", escapeJSON(err.Error()))
		return
	}
	_, _ = l.output.Write(append(data, '\n'))
}

// writeText outputs human-readable format.
func (l *Logger) writeText(entry map[string]interface{}) {
	levelStr := strings.ToUpper(entry["level"].(string))
	label := "[" + levelStr + "]"

	if l.color {
		switch levelStr {
		case "DEBUG":
			label = color.CyanString(label)
		case "INFO":
			label = color.GreenString(label)
		case "WARN":
			label = color.YellowString(label)
		case "ERROR":
			label = color.RedString(label)
		}
	}

	// Format: TIME [LEVEL] Message key=value key=value
	fmt.Fprintf(l.output, "%s %s %s", entry["time"], label, entry["msg"])

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if k == "time" || k == "level" || k == "msg" || k == "hostname" || k == "caller" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(l.output, " %s=%v", k, entry[k])
	}

	fmt.Fprintln(l.output)
}

// Helper functions

func parseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func levelString(l LogLevel) string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
