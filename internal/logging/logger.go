// Package logging provides the printf-style Logger used across the module
// and its logrus backing.
package logging

// Logger is the capability components log through.
type Logger interface {
	Log(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Log(string, ...any) {}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// prefixLogger wraps a logger with a fixed tag.
type prefixLogger struct {
	prefix string
	base   Logger
}

func (p *prefixLogger) Log(format string, args ...any) {
	p.base.Log("[%s] "+format, append([]any{p.prefix}, args...)...)
}

// WithPrefix tags every line written through the returned logger.
func WithPrefix(base Logger, prefix string) Logger {
	return &prefixLogger{prefix: prefix, base: OrNop(base)}
}
