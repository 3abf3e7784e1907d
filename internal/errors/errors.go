// Package errors is the one import for error values below the delivery layer:
// sentinels come from the standard library, annotations from pkg/errors so
// wrapped failures keep a stack trace for the logs.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

// New creates a sentinel. No stack is recorded.
func New(text string) error {
	return stderrors.New(text)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

func WithStack(err error) error {
	return pkgerrors.WithStack(err)
}

func Errorf(format string, args ...any) error {
	return pkgerrors.Errorf(format, args...)
}
