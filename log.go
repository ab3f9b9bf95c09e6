package smelt

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel is the severity threshold for engine tracing.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a level name, defaulting to warn.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "INFO":
		return LevelInfo
	case "DEBUG":
		return LevelDebug
	default:
		return LevelWarn
	}
}

// Logger is the tracing hook the engine calls during validation. With
// returns a child logger whose fields are appended to every line.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(fields map[string]any) Logger
}

// textLogger writes single-line text records:
// [LEVEL] <ts> <msg> key1=val1 key2=val2 ...
// Field keys are sorted so output is deterministic.
type textLogger struct {
	out    io.Writer
	level  LogLevel
	fields map[string]any

	// mu serializes writes; children share the parent's lock.
	mu *sync.Mutex
}

// NewLogger creates a text logger writing at the given level. A nil
// writer means os.Stderr.
func NewLogger(level LogLevel, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &textLogger{out: w, level: level, mu: &sync.Mutex{}}
}

func (l *textLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &textLogger{out: l.out, level: l.level, fields: merged, mu: l.mu}
}

func (l *textLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *textLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *textLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *textLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *textLogger) logf(level LogLevel, format string, args ...any) {
	if level > l.level {
		return
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
	b.WriteByte(' ')
	fmt.Fprintf(&b, format, args...)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(fieldValue(l.fields[k]))
		}
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

// fieldValue quotes string values containing whitespace so records stay
// splittable on spaces.
func fieldValue(v any) string {
	if s, ok := v.(string); ok {
		if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' }) >= 0 {
			return strconv.Quote(s)
		}
		return s
	}
	return fmt.Sprint(v)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)      {}
func (noopLogger) Infof(string, ...any)       {}
func (noopLogger) Warnf(string, ...any)       {}
func (noopLogger) Errorf(string, ...any)      {}
func (noopLogger) With(map[string]any) Logger { return noopLogger{} }

func newNoopLogger() Logger { return noopLogger{} }

// valuePreview returns a compact one-line sketch of an input value for
// trace records. Depth-bounded: trace subjects include cyclic inputs,
// which must never reach an unbounded formatter.
func valuePreview(v any, maxDepth int) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		if len(t) > 24 {
			return fmt.Sprintf("%q+%d", t[:24], len(t)-24)
		}
		return fmt.Sprintf("%q", t)
	case map[string]any:
		if maxDepth <= 0 {
			return fmt.Sprintf("map{~%d keys}", len(t))
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "map{" + truncateList(keys, 5) + "}"
	case []any:
		if len(t) == 0 {
			return "seq[0]"
		}
		if maxDepth <= 0 {
			return fmt.Sprintf("seq[%d]", len(t))
		}
		return fmt.Sprintf("seq[%d, head=%s]", len(t), valuePreview(t[0], maxDepth-1))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateList joins items with "," and appends +N if truncated.
func truncateList(items []string, max int) string {
	if max <= 0 || len(items) <= max {
		return strings.Join(items, ",")
	}
	return strings.Join(items[:max], ",") + fmt.Sprintf(",+%d", len(items)-max)
}
