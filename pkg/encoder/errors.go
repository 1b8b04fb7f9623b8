package encoder

import (
	"errors"
	"fmt"
)

// Code is the outcome of an encode call.
type Code int

const (
	CodeOK                 Code = 0
	CodeGeneral            Code = -1000
	CodeCodecInitFailed    Code = -999
	CodeCodecDestroyFailed Code = -998
	CodeFrameEncodeFailed  Code = -997
)

// String returns the string representation of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeGeneral:
		return "general error"
	case CodeCodecInitFailed:
		return "codec init error"
	case CodeCodecDestroyFailed:
		return "codec destroy error"
	case CodeFrameEncodeFailed:
		return "frame encode error"
	default:
		return "unknown error"
	}
}

// Error is a failed encode step. Op names the step, Err is the engine's
// cause when there is one.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := "encoder: " + e.Code.String()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Op)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so the
// package sentinels match any error of their class.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Op == "" && t.Err == nil
}

var (
	// ErrGeneral matches resource failures such as an output buffer that cannot grow.
	ErrGeneral = &Error{Code: CodeGeneral}

	// ErrCodecInit matches failures to create or configure an encoder instance.
	ErrCodecInit = &Error{Code: CodeCodecInitFailed}

	// ErrCodecDestroy matches failures to release an encoder instance.
	ErrCodecDestroy = &Error{Code: CodeCodecDestroyFailed}

	// ErrFrameEncode matches failures to feed a frame to the encoder.
	ErrFrameEncode = &Error{Code: CodeFrameEncodeFailed}
)

// CodeOf returns the code of the first *Error in err's tree, CodeOK for a
// nil error and CodeGeneral for errors from elsewhere.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneral
}

func newError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}
