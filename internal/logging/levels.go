package logging

import "log/slog"

// LevelTrace is more verbose than Debug. It is used for per-line detail
// such as every directive appended to a settings file.
const LevelTrace = slog.LevelDebug - 4

// LevelFromVerbosity maps the count of -v flags to a log level.
//
//	0 (or less) -> Warn
//	1           -> Info
//	2           -> Debug
//	3+          -> Trace
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}
