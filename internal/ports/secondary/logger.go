package secondary

// Logger defines the secondary port for structured-ish logging.
// Printf-style; implementations decide formatting and destination.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}
