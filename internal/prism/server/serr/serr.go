// Package serr holds common error objects used across prismd's HTTP API.
// Its Error type can be created with one or more cause errors; errors.Is on
// an Error checks both the Error's own identity and every cause, so
// handlers can check for a single sentinel regardless of how deep the
// actual failure came from, grounded on server/serr.
package serr

import "errors"

var (
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")
	ErrPermissions    = errors.New("you don't have permission to do that")
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrDB             = errors.New("an error occurred with the store")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
	ErrGrammarCycle   = errors.New("grammar state update would introduce a block-merge cycle")
)

// Error is a typed error holding a message plus zero or more cause errors.
// errors.Is on an Error checking against any of its causes returns true,
// so callers don't need to manually type-assert to find the underlying
// sentinel.
type Error struct {
	msg   string
	cause []error
}

func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}
	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && len(e.cause) == len(errTarget.cause) {
			allEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allEqual = false
					break
				}
			}
			if allEqual {
				return true
			}
		}
	}
	for i := range e.cause {
		if e.cause[i] == target {
			return true
		}
	}
	return false
}

// WrapDB wraps err as a cause and adds ErrDB as a second cause, for
// bubbling up a store-layer failure while still being able to distinguish
// it from other kinds of failure with errors.Is(err, serr.ErrDB).
func WrapDB(msg string, err error) Error {
	return Error{msg: msg, cause: []error{err, ErrDB}}
}

// New creates an Error with the given message and optional causes.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}
