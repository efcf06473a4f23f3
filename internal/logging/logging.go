package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// Format selects the log encoding.
type Format string

const (
	// FormatText is the human-readable console format.
	FormatText Format = "text"
	// FormatJSON is one JSON object per line.
	FormatJSON Format = "json"
)

// Formats returns the accepted --log-format values.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON)}
}

// Config holds the configuration for creating a new logger.
type Config struct {
	Level slog.Level
	// Format defaults to FormatText when empty or unknown.
	Format Format
	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// New creates a logger from cfg.
func New(cfg Config) *slog.Logger {
	return slog.New(NewFormatHandler(cfg))
}

// NewFormatHandler returns the handler New would use for cfg. Both formats
// mask secrets and name LevelTrace "TRACE".
func NewFormatHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       cfg.Level,
			ReplaceAttr: replaceJSONAttr,
		})
	}
	return NewHandler(out, &slog.HandlerOptions{Level: cfg.Level})
}

// replaceJSONAttr applies the console handler's level naming and masking
// to JSON output.
func replaceJSONAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, levelName(level))
		}
		return a
	}
	if ShouldMask(a.Key) && a.Value.Kind() != slog.KindGroup {
		return slog.String(a.Key, MaskValue(a.Value.Resolve().String()))
	}
	return a
}

// OpenFile opens path for appending and returns a JSON handler writing to
// it. The caller closes the returned file when logging is done.
func OpenFile(path string, level slog.Level) (slog.Handler, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file %s", path)
	}
	return NewFormatHandler(Config{Level: level, Format: FormatJSON, Output: f}), f, nil
}

// NewDiscard creates a logger that drops everything. Packages use it as the
// default until a caller passes a real logger.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testWriter sends each log line to t.Log.
type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ForTest creates a Trace-level logger that writes through t.Log, so output
// only shows up for failed tests or with -v.
func ForTest(t testing.TB) *slog.Logger {
	t.Helper()
	return New(Config{Level: LevelTrace, Output: &testWriter{t: t}})
}
