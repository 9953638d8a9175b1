// Package logbook persists session activity to a plain text file under the
// annotation root's .agentlens/logs directory, so annotators can see what
// a session did after the terminal closes. The TUI tails it into its
// status panel.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/agentlens/internal/config"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook appends timestamped entries to the session log file.
type Logbook struct {
	path string
	mu   sync.Mutex
}

// New creates a logbook writing to the given path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	return &Logbook{path: path}, nil
}

// ForRoot creates the logbook for an annotation root.
func ForRoot(cfg *config.Config) (*Logbook, error) {
	return New(filepath.Join(cfg.LogsDir(), "session.log"))
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry. Logging never interrupts a session, so
// write failures are swallowed. Empty messages are dropped and embedded
// newlines flattened, keeping the file strictly one entry per line for
// Tail.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	message = strings.ReplaceAll(message, "\n", " ")
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = fmt.Fprintf(file, "%s %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339), level, message)
}

// Tail returns up to maxLines of the most recent entries. When levels are
// given, only entries at those levels count; the status panel narrows to
// warnings and errors with this while a submission error is on screen.
func (l *Logbook) Tail(maxLines int, levels ...Level) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var recent []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !matchesLevel(line, levels) {
			continue
		}
		recent = append(recent, line)
		if len(recent) > maxLines {
			recent = recent[1:]
		}
	}
	return recent
}

// matchesLevel reports whether an entry's level field is in the wanted
// set. An empty set matches every entry.
func matchesLevel(line string, levels []Level) bool {
	if len(levels) == 0 {
		return true
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	for _, lv := range levels {
		if fields[1] == string(lv) {
			return true
		}
	}
	return false
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
