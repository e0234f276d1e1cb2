package domain

import (
	"fmt"
	"strings"
)

// DecodeError reports image bytes that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unable to read image %s", e.Path)
	}
	return fmt.Sprintf("unable to read image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExternalToolError reports a delegated command that exited non-zero or produced no output.
// Diagnostic carries the captured stderr, falling back to stdout and then a generic message.
type ExternalToolError struct {
	Command    string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (e *ExternalToolError) Error() string {
	return e.Diagnostic
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// CapabilityUnavailableError reports a requested capability without any usable resolution path.
type CapabilityUnavailableError struct {
	Capability Capability
	Missing    []string
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: configure %s", e.Capability, strings.Join(e.Missing, " or "))
}

// ValidationError reports a malformed request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
