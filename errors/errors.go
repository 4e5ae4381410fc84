package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"

	"go.vocdoni.io/dvote/log"
)

// Error is returned by the API handlers. It carries a unique code and the
// HTTP status to reply with.
type Error struct {
	Err        error  // Original error
	Code       int    // Error code
	HTTPstatus int    // HTTP status code to return
	LogLevel   string // Log level for 4xx responses (defaults to "debug")
	Data       any    // Optional data to include in the error response
}

// MarshalJSON returns a JSON containing Err.Error(), Code and Data. Field
// HTTPstatus is ignored.
//
// Example output: {"error":"active subscription already exists","code":40901}
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(
		struct {
			Error string `json:"error"`
			Code  int    `json:"code"`
			Data  any    `json:"data,omitempty"`
		}{
			Error: e.Err.Error(),
			Code:  e.Code,
			Data:  e.Data,
		})
}

// Error returns the message of the wrapped error.
func (e Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error with the same code, so that
// errors.Is(err, ErrStripeError) holds for any error derived from it.
func (e Error) Is(target error) bool {
	var other Error
	if !stderrors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Write serializes the error as JSON, writes it with the error HTTP status and
// logs it. 5xx responses are always logged at error level, the rest only when
// debug logging is enabled.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}

	pc, file, line, _ := runtime.Caller(1)
	caller := runtime.FuncForPC(pc).Name()

	switch {
	case e.HTTPstatus >= 500:
		log.Errorw(e.Err, fmt.Sprintf("API error response [%d]: %s (code: %d, caller: %s, file: %s:%d)",
			e.HTTPstatus, e.Error(), e.Code, caller, file, line))
	case log.Level() == log.LogLevelDebug:
		errMsg := fmt.Sprintf("API error response [%d]: %s (code: %d, caller: %s)",
			e.HTTPstatus, e.Error(), e.Code, caller)
		switch e.LogLevel {
		case "info":
			log.Infow(errMsg)
		case "warn":
			log.Warnw(errMsg)
		default:
			log.Debugw(errMsg)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(msg); err != nil {
		log.Warnw("failed to write API error response", "error", err)
	}
}

// with returns a copy of e with err as the wrapped error.
func (e Error) with(err error) Error {
	e.Err = err
	return e
}

// Withf returns a copy of Error with the Sprintf formatted string appended at the end of e.Err
func (e Error) Withf(format string, args ...any) Error {
	return e.with(fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)))
}

// With returns a copy of Error with the string appended at the end of e.Err
func (e Error) With(s string) Error {
	return e.with(fmt.Errorf("%w: %v", e.Err, s))
}

// WithErr returns a copy of Error with err appended at the end of e.Err. Both
// errors stay reachable through errors.Is and errors.As.
func (e Error) WithErr(err error) Error {
	return e.with(fmt.Errorf("%w: %w", e.Err, err))
}

// WithLogLevel returns a copy of Error with the specified log level
func (e Error) WithLogLevel(level string) Error {
	e.LogLevel = level
	return e
}

// WithData returns a copy of Error that includes data in the response body.
func (e Error) WithData(data any) Error {
	e.Data = data
	return e
}
