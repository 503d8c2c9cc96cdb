package compiler

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every [ConfigurationError].
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a malformed descriptor or a call that does not
// match its descriptor. It is returned before any hook or network activity.
type ConfigurationError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%v: function %q: %s", ErrConfiguration, e.Name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func configErr(name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Name: name, Reason: fmt.Sprintf(format, args...)}
}
