// Package health builds errors that carry structured zap fields, and logs them in one step.
package health

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type HealthErr struct {
	Message string
	wrapped error
	fields  []zap.Field
}

// Error satisfies the error interface. All aspects will be serialized to the string: msg, fields, and wrapped error.
func (e *HealthErr) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.fields) > 0 {
		b.WriteString("[")
		writeFields(&b, e.fields)
		b.WriteString("]")
	}

	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}

	return b.String()
}

func (e *HealthErr) Unwrap() error {
	return e.wrapped
}

// NewErr returns a new error (unlogged).
// NOTE: to wrap an error, use Wrap.
func NewErr(msg string, fields ...zap.Field) error {
	return &HealthErr{Message: msg, fields: fields}
}

// Wrap returns a new error that wraps `wrapped`.
func Wrap(msg string, wrapped error, fields ...zap.Field) error {
	if wrapped == nil {
		wrapped = errors.New("nil wrapped error. WARNING: you should not call Wrap with a nil error")
	}
	return &HealthErr{Message: msg, wrapped: wrapped, fields: fields}
}

// LogNewErr creates a new error with msg and fields, logs it, and returns it.
func LogNewErr(logger *zap.Logger, msg string, fields ...zap.Field) error {
	return LogErr(logger, NewErr(msg, fields...))
}

// LogWrappedErr wraps `wrapped` with msg and fields, logs it, and returns it.
func LogWrappedErr(logger *zap.Logger, msg string, wrapped error, fields ...zap.Field) error {
	return LogErr(logger, Wrap(msg, wrapped, fields...))
}

// LogErr logs err to logger (if it's not nil) and returns the error. It enables the pattern of logging and returning an error in one line:
//
//	return health.LogErr(logger, errors.New("myerr"))
//	// or...
//	return health.LogErr(logger, health.NewErr("myerr", zap.String("k", v)), zap.Int("other", 3))
//
// A HealthErr logs its own fields first, then a "via" field with the wrapped error, then fields.
func LogErr(logger *zap.Logger, err error, fields ...zap.Field) error {
	if logger == nil || err == nil {
		return err
	}

	h, isHealthErr := err.(*HealthErr)
	if !isHealthErr {
		logger.Error(err.Error(), fields...)
		return err
	}

	all := make([]zap.Field, 0, len(h.fields)+len(fields)+1)
	all = append(all, h.fields...)
	if h.wrapped != nil {
		all = append(all, zap.String("via", h.wrapped.Error()))
	}
	all = append(all, fields...)

	logger.Error(h.Message, all...)
	return err
}

// writeFields writes fields to b in key=value format separated by spaces. Ex: `num=3 str="hi there"`.
func writeFields(b *strings.Builder, fields []zap.Field) {
	first := true
	for _, f := range fields {
		enc := zapcore.NewMapObjectEncoder()
		f.AddTo(enc)

		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(quoteIfNeeded(fmt.Sprint(enc.Fields[k])))
		}
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r == ' ' || r == '=' || r == '"' || !strconv.IsPrint(r) {
			return strconv.Quote(s)
		}
	}
	return s
}
