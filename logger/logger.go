package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

type logger struct {
	mu     sync.Mutex
	once   sync.Once
	writer io.Writer
	closer io.Closer
	level  slog.Level
}

type logMessage struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"additional_info,omitempty"`
}

var logInstance = &logger{level: slog.LevelInfo}

// defaultDirectory is FOUNDRY_LOGS_DIR, or storage/logs under the working
// directory.
func defaultDirectory() (string, error) {
	if dir := os.Getenv("FOUNDRY_LOGS_DIR"); dir != "" {
		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, "storage", "logs"), nil
}

func (l *logger) init() {
	l.once.Do(func() {
		l.mu.Lock()
		configured := l.writer != nil
		l.mu.Unlock()
		if configured {
			return
		}

		dir, err := defaultDirectory()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return
		}
		if err := l.SetDirectory(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		}
	})
}

func (l *logger) log(level slog.Level, msg string, data map[string]any) {
	l.init()

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.writer == nil {
		return
	}

	logData, err := json.Marshal(logMessage{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Data:      data,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error marshaling log message:", err)
		return
	}

	if _, err := l.writer.Write(append(logData, '\n')); err != nil {
		return
	}
}

// SetDirectory writes daily rotated files app.YYYY-MM-DD.log into dir, with
// app.log linking to the current one.
func (l *logger) SetDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	rotator, err := rotatelogs.New(
		filepath.Join(dir, "app.%Y-%m-%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, "app.log")),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize rotatelogs: %w", err)
	}

	return l.setWriter(rotator, rotator)
}

func (l *logger) setWriter(w io.Writer, c io.Closer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer != nil {
		if err := l.closer.Close(); err != nil {
			return err
		}
	}

	l.writer = w
	l.closer = c
	return nil
}

func (l *logger) SetLevel(level slog.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = level
}

func SetLevel(level slog.Level) {
	logInstance.SetLevel(level)
}

func SetDirectory(dir string) error {
	return logInstance.SetDirectory(dir)
}

// SetOutput sends log lines to w instead of the rotating files.
func SetOutput(w io.Writer) {
	logInstance.once.Do(func() {})
	_ = logInstance.setWriter(w, nil)
}

// ReinitializeForTesting moves the log files under projectRoot/storage/logs.
func ReinitializeForTesting(projectRoot string) error {
	logInstance.once.Do(func() {})
	return logInstance.SetDirectory(filepath.Join(projectRoot, "storage", "logs"))
}

func Debug(msg string, data ...map[string]any) {
	var logData map[string]any
	if len(data) > 0 {
		logData = data[0]
	}
	logInstance.log(slog.LevelDebug, msg, logData)
}

func Info(msg string, data ...map[string]any) {
	var logData map[string]any
	if len(data) > 0 {
		logData = data[0]
	}
	logInstance.log(slog.LevelInfo, msg, logData)
}

func Warn(msg string, data ...map[string]any) {
	var logData map[string]any
	if len(data) > 0 {
		logData = data[0]
	}
	logInstance.log(slog.LevelWarn, msg, logData)
}

func Error(msg string, data ...map[string]any) {
	var logData map[string]any
	if len(data) > 0 {
		logData = data[0]
	}
	logInstance.log(slog.LevelError, msg, logData)
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
