package application

import "log/slog"

// ModuleName is the value of the "module" log attribute for this service.
const ModuleName = "election/election-ledger"

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
