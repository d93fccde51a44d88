package logsvc

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/virtualcampus/campus/core"
)

// ConsoleLogger writes structured logs to a writer. It is the development
// logger; deployed environments layer Rollbar on top.
type ConsoleLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(conf *core.Config) *ConsoleLogger {
	var out io.Writer = os.Stderr
	if conf.Debug {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	zl := zerolog.New(out).With().
		Timestamp().
		Str("app", conf.AppName).
		Logger()
	return &ConsoleLogger{zl: zl}
}

func NewTestLogger(out io.Writer) *ConsoleLogger {
	return &ConsoleLogger{zl: zerolog.New(out)}
}

// expected args: error | map[string]interface{} | anything printable
func (l ConsoleLogger) log(evt *zerolog.Event, msg string, args []interface{}) {
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			evt = evt.Err(a)
		case map[string]interface{}:
			evt = evt.Fields(a)
		default:
			evt = evt.Interface("detail", a)
		}
	}
	evt.Msg(msg)
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(l.zl.Debug(), msg, args) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { l.log(l.zl.Info(), msg, args) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(l.zl.Warn(), msg, args) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { l.log(l.zl.Error(), msg, args) }
func (l ConsoleLogger) Fatal(msg string, args ...interface{}) { l.log(l.zl.Fatal(), msg, args) }
