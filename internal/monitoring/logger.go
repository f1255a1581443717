// Package monitoring holds the diagnostic logger shared by the evaluation
// packages. Evaluation progress goes through Logf; a skipped cell or a
// rejected cache snapshot goes through Warnf. Schema migration output is
// bridged into the same logger.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf reports a non-fatal degradation, e.g. a skipped evaluation cell.
func Warnf(format string, v ...interface{}) {
	Logf("WARNING: "+format, v...)
}
