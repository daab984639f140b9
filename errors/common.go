package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Base struct {
	// Msg contains user friendly error.
	Msg       string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func newBasef(format string, args ...any) Base {
	return Base{
		Msg:       fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	}
}

// AlreadyLockedError holds fields for a lock held by a live owner.
// This is an expected condition: the caller decides whether to retry
// or surface "resource in use" semantics upward.
type AlreadyLockedError struct {
	Base
	// Item is the contended resource path.
	Item any `json:"item,omitempty"`
	// Holder is the owner token read from the existing evidence, when known.
	Holder string `json:"holder,omitempty"`
}

// AlreadyLocked is a helper function to return an AlreadyLockedError.
// In format argument Item can be specified with ${} specifier
// for example:
//   - errors.AlreadyLocked("resource ${/tmp/r} is in use")
//   - errors.AlreadyLocked("resource ${%s} is in use", path)
//
// the value of Item in AlreadyLockedError will be set to the path.
func AlreadyLocked(format string, args ...any) *AlreadyLockedError {
	format, item := parse(format, args...)

	return &AlreadyLockedError{
		Item: item,
		Base: newBasef(format, args...),
	}
}

// IsAlreadyLocked checks if err is an already locked error.
func IsAlreadyLocked(err error) bool {
	return errors.Is(err, &AlreadyLockedError{})
}

// AsAlreadyLocked return err as AlreadyLockedError or nil if it is not
// successfull.
func AsAlreadyLocked(err error) (aerr *AlreadyLockedError, b bool) {
	if errors.As(err, &aerr) {
		return aerr, true
	}

	return nil, false
}

// Error interface method.
func (e *AlreadyLockedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Item != nil {
		return fmt.Sprintf("%v is locked by another process", e.Item)
	}
	return "resource is locked by another process"
}

func (e *AlreadyLockedError) ErrorDetails() string {
	if e.Holder == "" {
		return e.Error()
	}
	return e.Error() + "\n\n\theld by: " + e.Holder
}

func (e *AlreadyLockedError) SetHolder(token string) *AlreadyLockedError {
	e.Holder = token
	return e
}

// Is checks if err is AlreadyLockedError.
func (e *AlreadyLockedError) Is(t error) bool {
	_, ok := t.(*AlreadyLockedError)
	return ok
}

// LockLostError holds fields for a previously held lock whose on-disk
// evidence was reclaimed or corrupted. Fatal to the current hold: the
// caller must treat its critical section as compromised.
type LockLostError struct {
	Base
	Item any `json:"item,omitempty"`
}

// LockLost is a helper function to return a LockLostError.
// In format argument Item can be specified with ${} specifier,
// see AlreadyLocked for examples.
func LockLost(format string, args ...any) *LockLostError {
	format, item := parse(format, args...)
	return &LockLostError{
		Item: item,
		Base: newBasef(format, args...),
	}
}

// IsLockLost checks if err is a lock lost error.
func IsLockLost(err error) bool {
	return errors.Is(err, &LockLostError{})
}

// AsLockLost return err as LockLostError or nil if it is not
// successfull.
func AsLockLost(err error) (lerr *LockLostError, b bool) {
	if errors.As(err, &lerr) {
		return lerr, true
	}

	return nil, false
}

// Error interface method.
func (e *LockLostError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Item != nil {
		return fmt.Sprintf("lock on %v was lost", e.Item)
	}
	return "lock was lost"
}

func (e *LockLostError) ErrorDetails() string {
	return e.Error()
}

func (e *LockLostError) Is(err error) bool {
	_, ok := err.(*LockLostError)
	return ok
}

// IOError wraps an underlying filesystem failure. May be transient;
// the caller decides retry policy.
type IOError struct {
	Base
	Err error `json:"-"`
}

// IO is a helper function to return an IOError.
func IO(err error, format string, args ...any) *IOError {
	return &IOError{
		Base: newBasef(format, args...),
		Err:  err,
	}
}

// IsIO checks if err is an IO error.
func IsIO(err error) bool {
	return errors.Is(err, &IOError{})
}

func AsIO(err error) (ierr *IOError, b bool) {
	if errors.As(err, &ierr) {
		return ierr, true
	}

	return nil, false
}

func (e *IOError) Error() string {
	if e.Msg != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s", e.Msg, e.Err)
		}
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("filesystem operation failed: %s", e.Err)
	}
	return "filesystem operation failed"
}

func (e *IOError) ErrorDetails() string {
	sb := strings.Builder{}
	sb.WriteString(e.Error())

	if e.Err != nil {
		sb.WriteString("\n\nCaused by:\n")
		sb.WriteString("\t" + e.Err.Error())
	}

	return sb.String()
}

// Unwrap exposes the causal error so callers can match os and syscall
// sentinels with errors.Is.
func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(err error) bool {
	_, ok := err.(*IOError)
	return ok
}

type MarshalableErrors []error

func (me MarshalableErrors) MarshalJSON() ([]byte, error) {
	data := []byte("[")
	for i, err := range me {
		if i != 0 {
			data = append(data, ',')
		}
		errstr := strings.ReplaceAll(err.Error(), "\n", " or ")
		j, err := json.Marshal(errstr)
		if err != nil {
			return nil, err
		}

		data = append(data, j...)
	}
	data = append(data, ']')

	return data, nil
}

// ConfigurationError aggregates configuration violations. It should be
// caught at startup, not per-call.
type ConfigurationError struct {
	Base
	Errors MarshalableErrors `json:"errors,omitempty"`
}

// Configuration is a helper function to return a ConfigurationError.
func Configuration(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Base: newBasef(format, args...),
	}
}

// IsConfiguration checks if err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, &ConfigurationError{})
}

func AsConfiguration(err error) (cerr *ConfigurationError, b bool) {
	if errors.As(err, &cerr) {
		return cerr, true
	}

	return nil, false
}

func (e *ConfigurationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "configuration error"
}

func (e *ConfigurationError) ErrorDetails() string {
	sb := strings.Builder{}
	sb.WriteString(e.Error())
	sb.WriteString("\n\n")

	for _, err := range e.Errors {
		sb.WriteString("\t - " + err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

func (e *ConfigurationError) AsError() error {
	if e == nil || (len(e.Errors) == 0 && e.Msg == "") {
		return nil
	}
	return e
}

func (e *ConfigurationError) AddError(err error) *ConfigurationError {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
	return e
}

func (e *ConfigurationError) Is(err error) bool {
	_, ok := err.(*ConfigurationError)
	return ok
}

func (e *ConfigurationError) Check(ok bool, err error) {
	if !ok {
		_ = e.AddError(err)
	}
}

func Details(err error) error {
	switch e := err.(type) {
	case interface{ ErrorDetails() string }:
		return errors.New(e.ErrorDetails())
	default:
		return errors.New(err.Error())
	}
}
