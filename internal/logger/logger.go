// Package logger writes leveled, timestamped lines to a log file and, for
// Info and above, echoes them to the terminal so CLI runs stay observable
// without tailing the file.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

type Logger struct {
	mu     sync.Mutex
	file   *os.File
	level  Level
	stdout bool
}

func New(filePath string, level Level, includeStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{file: f, level: level, stdout: includeStdout}, nil
}

func (l *Logger) log(lvl Level, format string, v ...any) {
	if lvl < l.level {
		return
	}

	line := fmt.Sprintf("%s [%s] %s",
		time.Now().Format("2006-01-02 15:04:05"), levelNames[lvl], fmt.Sprintf(format, v...))

	l.mu.Lock()
	fmt.Fprintln(l.file, line)
	l.mu.Unlock()

	// Debug stays out of the terminal so it cannot mangle the \r-rewritten
	// progress lines the transfer commands print.
	if l.stdout && lvl >= LevelInfo {
		fmt.Printf("\n%s", line)
	}
}

func ParseLevel(lvl string) Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, f, v...) }

// Fatal logs, flushes the file and exits.
func (l *Logger) Fatal(f string, v ...any) {
	l.log(LevelFatal, f, v...)
	l.Close()
	os.Exit(1)
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Write lets the logger stand in as an io.Writer sink for libraries that
// expect one, such as echo's request logger. Trailing newlines are dropped
// since log lines are newline-delimited already.
func (l *Logger) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.Info("%s", msg)
	}
	return len(p), nil
}
