package application

import "log/slog"

// ResolveLogger returns the provided logger or the process default so call
// sites never have to nil-check.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
