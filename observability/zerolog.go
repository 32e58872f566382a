package observability

import (
	"io"

	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerolog returns a Logger writing structured JSON lines to w.
func NewZerolog(w io.Writer) Logger {
	return &zerologLogger{l: zerolog.New(w).With().Timestamp().Logger()}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(l zerolog.Logger) Logger { return &zerologLogger{l: l} }

func (z *zerologLogger) Debug(msg string, fields ...Field) { emit(z.l.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...Field)  { emit(z.l.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...Field)  { emit(z.l.Warn(), msg, fields) }
func (z *zerologLogger) Error(msg string, fields ...Field) { emit(z.l.Error(), msg, fields) }

func (z *zerologLogger) With(fields ...Field) Logger {
	c := z.l.With()
	for _, f := range fields {
		c = c.Interface(f.Key(), f.Value())
	}
	return &zerologLogger{l: c.Logger()}
}

func emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		if err, ok := f.Value().(error); ok {
			e = e.AnErr(f.Key(), err)
			continue
		}
		e = e.Interface(f.Key(), f.Value())
	}
	e.Msg(msg)
}
