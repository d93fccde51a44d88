package core

// Logger is any leveled logger. Extra args carry context objects; implementations
// decide how to render them (the rollbar service attaches session identities to
// reports, the console service prints them as structured fields).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
