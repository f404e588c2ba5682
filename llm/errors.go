package llm

import (
	"errors"
)

// Error types for classifying generation failures.

// ConfigurationError represents a missing credential or endpoint URL.
// It is fatal for the affected provider only; the orchestrator treats it
// like a transport failure for fallback purposes.
type ConfigurationError struct {
	err error
}

func (e *ConfigurationError) Error() string {
	return e.err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.err
}

// NewConfigurationError wraps an error as a provider configuration problem.
func NewConfigurationError(err error) error {
	return &ConfigurationError{err: err}
}

// TransportError represents a failed call to a provider: non-success HTTP
// status, network failure, timeout, or a response missing completion content.
type TransportError struct {
	err error
}

func (e *TransportError) Error() string {
	return e.err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.err
}

// NewTransportError wraps an error as a transport failure.
func NewTransportError(err error) error {
	return &TransportError{err: err}
}

// ParseError represents model output that could not be coerced into the
// expected structured shape after all repair attempts.
type ParseError struct {
	err error
}

func (e *ParseError) Error() string {
	return e.err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// NewParseError wraps an error as a parse failure.
func NewParseError(err error) error {
	return &ParseError{err: err}
}

// IsConfiguration returns true if the error is a provider configuration problem.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsTransport returns true if the error is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParse returns true if the error is a parse failure.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
