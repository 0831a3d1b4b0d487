// Package errorx attaches registered business codes to errors.
//
// A Coder describes one code: its HTTP status and the external message.
// Handlers wrap failures with WrapC and the response writer turns them back
// into {code, message} bodies with ParseCoder.
package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Coder describes a registered error code.
type Coder interface {
	Code() int
	HTTPStatus() int
	String() string
	Reference() string
}

// ErrUnknown is the code reported for errors that carry no registered code.
const ErrUnknown = 1

var (
	codesMu sync.RWMutex
	codes   = map[int]Coder{}

	unknownCoder Coder = defaultCoder{code: ErrUnknown, http: http.StatusInternalServerError, msg: "An internal server error occurred"}
)

func init() {
	codes[ErrUnknown] = unknownCoder
}

type defaultCoder struct {
	code int
	http int
	msg  string
}

func (c defaultCoder) Code() int         { return c.code }
func (c defaultCoder) HTTPStatus() int   { return c.http }
func (c defaultCoder) String() string    { return c.msg }
func (c defaultCoder) Reference() string { return "" }

// Register adds or replaces a coder. Code ErrUnknown is reserved.
func Register(c Coder) error {
	if c.Code() == ErrUnknown {
		return fmt.Errorf("code %d is reserved", ErrUnknown)
	}
	codesMu.Lock()
	codes[c.Code()] = c
	codesMu.Unlock()
	return nil
}

// MustRegister adds a coder and panics when the code is taken.
func MustRegister(c Coder) {
	if c.Code() == ErrUnknown {
		panic(fmt.Sprintf("code %d is reserved", ErrUnknown))
	}
	codesMu.Lock()
	defer codesMu.Unlock()
	if _, ok := codes[c.Code()]; ok {
		panic(fmt.Sprintf("code %d already registered", c.Code()))
	}
	codes[c.Code()] = c
}

type withCode struct {
	err   error
	cause error
	code  int
}

func (w *withCode) Error() string {
	if w.cause == nil {
		return w.err.Error()
	}
	return fmt.Sprintf("%s: %v", w.err, w.cause)
}

func (w *withCode) Unwrap() error { return w.cause }

// WithCode returns a new coded error.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{err: fmt.Errorf(format, args...), code: code}
}

// WrapC wraps err with a code and a message. A nil err yields nil.
func WrapC(err error, code int, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{err: fmt.Errorf(format, args...), cause: err, code: code}
}

// ParseCoder returns the coder attached to err, or the unknown coder.
func ParseCoder(err error) Coder {
	if err == nil {
		return nil
	}
	var wc *withCode
	if errors.As(err, &wc) {
		codesMu.RLock()
		defer codesMu.RUnlock()
		if c, ok := codes[wc.code]; ok {
			return c
		}
	}
	return unknownCoder
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code int) bool {
	var wc *withCode
	for errors.As(err, &wc) {
		if wc.code == code {
			return true
		}
		err = wc.cause
	}
	return false
}
