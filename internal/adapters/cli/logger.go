package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/warden/internal/ports/secondary"
)

// ColorLogger implements secondary.Logger with a colorized level
// prefix per line.
type ColorLogger struct {
	out     io.Writer
	verbose bool

	debugPrefix string
	infoPrefix  string
	errorPrefix string
}

var _ secondary.Logger = (*ColorLogger)(nil)

// NewColorLogger creates a logger writing to out. Debug lines are only
// emitted when verbose is set.
func NewColorLogger(out io.Writer, verbose bool) *ColorLogger {
	return &ColorLogger{
		out:         out,
		verbose:     verbose,
		debugPrefix: color.New(color.FgCyan).Sprint("DEBUG"),
		infoPrefix:  color.New(color.FgGreen).Sprint("INFO "),
		errorPrefix: color.New(color.FgRed).Sprint("ERROR"),
	}
}

// Debug logs a debug line when verbose logging is enabled.
func (l *ColorLogger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.write(l.debugPrefix, format, args...)
}

// Info logs an informational line.
func (l *ColorLogger) Info(format string, args ...any) {
	l.write(l.infoPrefix, format, args...)
}

// Error logs an error line.
func (l *ColorLogger) Error(format string, args ...any) {
	l.write(l.errorPrefix, format, args...)
}

func (l *ColorLogger) write(prefix, format string, args ...any) {
	fmt.Fprintf(l.out, "%s %s %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		prefix,
		fmt.Sprintf(format, args...),
	)
}
