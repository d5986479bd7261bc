package core

// Logger is any service that can report diagnostics.
// Implementations may inspect args for an account.Account to attach the
// acting principal to a report.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
