package runtime

import (
	"errors"
	"fmt"
	"strings"

	"ng/interpreter-go/pkg/ast"
)

// ErrorClass categorizes runtime failures.
type ErrorClass string

const (
	ClassIllegalType    ErrorClass = "IllegalType"
	ClassRuntime        ErrorClass = "RuntimeError"
	ClassNotImplemented ErrorClass = "NotImplemented"
	ClassAssertion      ErrorClass = "Assertion"
)

// Sentinels matched with errors.Is.
var (
	ErrIllegalType    = errors.New("illegal type")
	ErrRuntime        = errors.New("runtime error")
	ErrNotImplemented = errors.New("not implemented")
	ErrAssertion      = errors.New("assertion failed")
)

// Error is a failure raised while evaluating NG code.
type Error struct {
	Class   ErrorClass
	Message string
	Span    ast.Span
	Module  string
	// Cause is the underlying failure, such as a loader error behind an import.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Class))
	if e.Module != "" || !e.Span.IsZero() {
		b.WriteString(" (")
		if e.Module != "" {
			b.WriteString(e.Module)
			if !e.Span.IsZero() {
				b.WriteString(":")
			}
		}
		b.WriteString(e.Span.String())
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.sentinel(), e.Cause}
	}
	return []error{e.sentinel()}
}

func (e *Error) sentinel() error {
	switch e.Class {
	case ClassIllegalType:
		return ErrIllegalType
	case ClassNotImplemented:
		return ErrNotImplemented
	case ClassAssertion:
		return ErrAssertion
	default:
		return ErrRuntime
	}
}

func newError(class ErrorClass, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

func IllegalTypef(format string, args ...any) error {
	return newError(ClassIllegalType, format, args...)
}

func RuntimeErrorf(format string, args ...any) error {
	return newError(ClassRuntime, format, args...)
}

// WrapRuntimeError is RuntimeErrorf keeping cause reachable through errors.Is
// and errors.As.
func WrapRuntimeError(cause error, format string, args ...any) error {
	e := newError(ClassRuntime, format, args...)
	e.Cause = cause
	return e
}

func NotImplementedf(format string, args ...any) error {
	return newError(ClassNotImplemented, format, args...)
}

func AssertionErrorf(format string, args ...any) error {
	return newError(ClassAssertion, format, args...)
}

// Locate fills in the source position of err when it does not carry one yet.
func Locate(err error, span ast.Span) error {
	var rtErr *Error
	if errors.As(err, &rtErr) && rtErr.Span.IsZero() {
		rtErr.Span = span
	}
	return err
}

// InModule records the module a failure originated from when it is still unset.
func InModule(err error, module string) error {
	var rtErr *Error
	if errors.As(err, &rtErr) && rtErr.Module == "" {
		rtErr.Module = module
	}
	return err
}
