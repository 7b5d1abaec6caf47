package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu           sync.Mutex
	terminal     io.Writer
	logFile      *os.File
	colorEnabled bool
	minLevel     LogLevel
}

// NewLogger writes colored lines to stdout and JSON lines to
// $LOG_DIR/reservation-service-<date>.log (LOG_DIR defaults to logs).
func NewLogger() *Logger {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}
	return NewLoggerInDir(dir)
}

func NewLoggerInDir(dir string) *Logger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	logFileName := filepath.Join(dir, fmt.Sprintf("reservation-service-%s.log", timestamp))

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}

	l := &Logger{
		terminal:     os.Stdout,
		logFile:      logFile,
		colorEnabled: os.Getenv("NO_COLOR") == "",
		minLevel:     ParseLevel(os.Getenv("LOG_LEVEL")),
	}

	l.Info("LOGGER", "Logging system initialized")
	l.Info("LOGGER", fmt.Sprintf("Log file: %s", logFileName))

	return l
}

// NewWriterLogger skips the log file; used by tools and tests.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{terminal: w, minLevel: DEBUG}
}

func NewNopLogger() *Logger {
	return NewWriterLogger(io.Discard)
}

// ParseLevel maps a LOG_LEVEL value to a level, defaulting to INFO.
func ParseLevel(v string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "DEBUG":
		return DEBUG
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l *Logger) log(level LogLevel, category, message string) {
	if level < l.minLevel {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     styleFor(level).name,
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.terminal, l.formatTerminalOutput(level, entry))

	if l.logFile != nil {
		line, _ := json.Marshal(entry)
		l.logFile.Write(append(line, '\n'))
	}
}

type levelStyle struct {
	name     string
	level    *color.Color
	category *color.Color
}

var levelStyles = map[LogLevel]levelStyle{
	DEBUG: {"DEBUG", color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	INFO:  {"INFO", color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	WARN:  {"WARN", color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	ERROR: {"ERROR", color.New(color.FgRed), color.New(color.FgRed, color.Bold)},
	FATAL: {"FATAL", color.New(color.FgRed), color.New(color.FgRed, color.Bold)},
}

var (
	timeColor = color.New(color.FgBlue)
	fileColor = color.New(color.FgMagenta)
)

func styleFor(level LogLevel) levelStyle {
	if st, ok := levelStyles[level]; ok {
		return st
	}
	return levelStyles[INFO]
}

func (l *Logger) formatTerminalOutput(level LogLevel, entry LogEntry) string {
	clock := entry.Timestamp[11:19]
	where := ""
	if entry.File != "" && entry.Line > 0 {
		where = fmt.Sprintf(" (%s:%d)", entry.File, entry.Line)
	}

	if !l.colorEnabled {
		return fmt.Sprintf("%s %-5s [%-11s] %s%s\n", clock, entry.Level, entry.Category, entry.Message, where)
	}

	st := styleFor(level)
	if where != "" {
		where = fileColor.Sprint(where)
	}
	return fmt.Sprintf("%s %s %s %s%s\n",
		timeColor.Sprint(clock),
		st.level.Sprintf("%-5s", entry.Level),
		st.category.Sprintf("[%-11s]", entry.Category),
		entry.Message,
		where,
	)
}

func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

// Fatal logs, flushes the log file and exits.
func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	l.Close()
	os.Exit(1)
}

func (l *Logger) LogReservation(action, reservationID, message string) {
	l.Info("RESERVATION", fmt.Sprintf("[%s] %s - %s", action, reservationID, message))
}

func (l *Logger) LogSettings(action string, venueID int64, message string) {
	l.Info("SETTINGS", fmt.Sprintf("[%s] venue=%d - %s", action, venueID, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogEvent(action, topic, message string) {
	l.Info("EVENTS", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	l.mu.Lock()
	f := l.logFile
	l.logFile = nil
	l.mu.Unlock()
	if f != nil {
		f.Close()
	}
}
