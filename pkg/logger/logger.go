// Package logger is a thin wrapper around logrus' standard logger.
//
// It is designed to be imported as `log`, so adt-lib and the applications
// embedding it share a single logging backend configured once (typically via
// adt-lib/pkg/bootstrap).
package logger

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
)

type Fields = log.Fields
type Entry = log.Entry
type Logger = log.Logger
type Level = log.Level

const (
	ErrorLevel = log.ErrorLevel
	WarnLevel  = log.WarnLevel
	InfoLevel  = log.InfoLevel
	DebugLevel = log.DebugLevel
)

func StandardLogger() *Logger         { return log.StandardLogger() }
func SetLevel(level Level)            { log.SetLevel(level) }
func IsLevelEnabled(level Level) bool { return log.IsLevelEnabled(level) }

func WithField(key string, value any) *Entry { return log.WithField(key, value) }
func WithFields(fields Fields) *Entry        { return log.WithFields(fields) }
func WithError(err error) *Entry             { return log.WithError(err) }

// WithTrace binds ctx and adds "trace_id" when OpenTelemetry span context is present.
func WithTrace(ctx context.Context) *Entry {
	return traceEntry(log.NewEntry(log.StandardLogger()), ctx)
}

// EntryWithTrace is WithTrace for a caller-supplied base entry.
func EntryWithTrace(base *Entry, ctx context.Context) *Entry {
	if base == nil {
		base = log.NewEntry(log.StandardLogger())
	}
	return traceEntry(base, ctx)
}

func traceEntry(e *Entry, ctx context.Context) *Entry {
	if ctx == nil {
		return e
	}
	e = e.WithContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e = e.WithField("trace_id", sc.TraceID().String())
	}
	return e
}

// WithRequest adds the fields identifying one ADT request.
func WithRequest(e *Entry, method, path, requestID string) *Entry {
	if e == nil {
		e = log.NewEntry(log.StandardLogger())
	}
	return e.WithFields(Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
}

// WithServerError attaches err and, for classified server errors, its
// namespace and kind.
func WithServerError(e *Entry, err error) *Entry {
	if e == nil {
		e = log.NewEntry(log.StandardLogger())
	}
	e = e.WithError(err)
	var se adt.ServerError
	if errors.As(err, &se) {
		d := se.Describe()
		e = e.WithFields(Fields{"namespace": d.Namespace, "kind": d.Kind})
	}
	return e
}

func Debug(args ...any) { log.Debug(args...) }
func Info(args ...any)  { log.Info(args...) }
func Warn(args ...any)  { log.Warn(args...) }
func Error(args ...any) { log.Error(args...) }
func Fatal(args ...any) { log.Fatal(args...) }

func Debugf(format string, args ...any) { log.Debugf(format, args...) }
func Infof(format string, args ...any)  { log.Infof(format, args...) }
func Warnf(format string, args ...any)  { log.Warnf(format, args...) }
func Errorf(format string, args ...any) { log.Errorf(format, args...) }
func Fatalf(format string, args ...any) { log.Fatalf(format, args...) }
