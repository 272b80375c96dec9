// Package diag is vralloc's stderr diagnostics layer: a thin,
// verbosity-gated wrapper over fmt.Fprintf(os.Stderr, ...), the same
// plain-stdlib idiom the teacher's CLI tools use in place of a structured
// logging library (no logrus/zap/zerolog/slog import exists anywhere in the
// teacher or the rest of the retrieval pack).
package diag

import (
	"fmt"
	"os"
)

// Logger gates diagnostic output on a verbosity flag threaded in from the
// command line (cobra's --verbose/-v).
type Logger struct {
	verbose bool
}

// New returns a Logger that only emits output when verbose is true.
func New(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

// Printf writes a diagnostic line to os.Stderr if the logger is verbose.
// format should not include a trailing newline; Printf adds one.
func (l *Logger) Printf(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
