package piv

import "github.com/rs/zerolog"

// Logger hides the actual logging backend from the driver, the same way
// the teacher's example/shared.LogI hides it from the CLI examples. The
// package never calls a concrete logging library directly; it only ever
// holds one of these.
type Logger interface {
	VerboseMsg(message string)
	VerboseMsgf(format string, args ...interface{})
	InfoMsg(message string)
	InfoMsgf(format string, args ...interface{})
	DebugMsg(message string)
	DebugMsgf(format string, args ...interface{})
	IsDebugEnabled() bool
	ErrorMsg(err error, message string)
	ErrorMsgf(err error, format string, args ...interface{})
}

// NopLogger discards everything. It is the default for a Token that
// wasn't given a Logger via WithLogger.
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) VerboseMsg(string)                       {}
func (NopLogger) VerboseMsgf(string, ...interface{})      {}
func (NopLogger) InfoMsg(string)                          {}
func (NopLogger) InfoMsgf(string, ...interface{})         {}
func (NopLogger) DebugMsg(string)                         {}
func (NopLogger) DebugMsgf(string, ...interface{})        {}
func (NopLogger) IsDebugEnabled() bool                     { return false }
func (NopLogger) ErrorMsg(error, string)                   {}
func (NopLogger) ErrorMsgf(error, string, ...interface{}) {}

// nopLogger normalizes a nil Logger to NopLogger, mirroring the teacher's
// shared.Nop helper.
func nopLogger(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// ZerologLogger adapts a zerolog.Logger to the Logger interface. Verbose
// maps to Trace, Debug/Info/Error map directly.
type ZerologLogger struct {
	Log zerolog.Logger
}

var _ Logger = ZerologLogger{}

func (z ZerologLogger) VerboseMsg(message string) { z.Log.Trace().Msg(message) }
func (z ZerologLogger) VerboseMsgf(format string, args ...interface{}) {
	z.Log.Trace().Msgf(format, args...)
}
func (z ZerologLogger) InfoMsg(message string) { z.Log.Info().Msg(message) }
func (z ZerologLogger) InfoMsgf(format string, args ...interface{}) {
	z.Log.Info().Msgf(format, args...)
}
func (z ZerologLogger) DebugMsg(message string) { z.Log.Debug().Msg(message) }
func (z ZerologLogger) DebugMsgf(format string, args ...interface{}) {
	z.Log.Debug().Msgf(format, args...)
}
func (z ZerologLogger) IsDebugEnabled() bool {
	return z.Log.GetLevel() <= zerolog.DebugLevel
}
func (z ZerologLogger) ErrorMsg(err error, message string) { z.Log.Error().Err(err).Msg(message) }
func (z ZerologLogger) ErrorMsgf(err error, format string, args ...interface{}) {
	z.Log.Error().Err(err).Msgf(format, args...)
}
