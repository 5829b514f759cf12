package types

import (
	"log"
	"os"
)

/*
Logger is how the cache reports things that are not errors to the caller.

Misuse (unknown keys, duplicate definitions, refetches dropped because
one is already in flight) and swallowed storage faults are diagnosed
here instead of being surfaced through the public API.
*/
type Logger interface {

	// Warnf reports recoverable misuse or degradation.
	Warnf(format string, args ...any)

	// Errorf reports genuine faults (failed fetches, storage I/O errors).
	Errorf(format string, args ...any)
}

/*
NopLogger is a "do nothing" implementation of Logger.

We don't want to force every user of the cache to wire up logging, and
we don't want nil checks at every call site, so the core and every
backend fall back to this when no logger is configured.
*/
type NopLogger struct{}

func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// stdLogger writes through the standard library logger.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes prefixed lines to stderr.
func NewStdLogger() Logger {
	return &stdLogger{l: log.New(os.Stderr, "endpoint-cache ", log.LstdFlags)}
}

func (s *stdLogger) Warnf(format string, args ...any) {
	s.l.Printf("WARN  "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...any) {
	s.l.Printf("ERROR "+format, args...)
}

// OrNop returns l, or NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
