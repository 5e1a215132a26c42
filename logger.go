package rn2xx3

// Logger is an optional sink for diagnostic traces of encoded commands and
// parsed replies. *logrus.Logger satisfies it. When Config.Logger is nil the
// driver stays silent.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
