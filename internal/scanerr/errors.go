// Package scanerr defines the error taxonomy of the setup scanner and maps it to process exit codes.
package scanerr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies scanner errors.
type Kind string

// Error kinds. The first three are fatal to a run; the rest are per-candidate.
const (
	KindInvalidConfiguration Kind = "InvalidConfiguration"
	KindDataSourceTimeout    Kind = "DataSourceTimeout"
	KindDataSourceFailure    Kind = "DataSourceFailure"
	KindUnresolvableTarget   Kind = "UnresolvableTarget"
	KindInvalidTarget        Kind = "InvalidTarget"
	KindInvalidCandidate     Kind = "InvalidCandidate"
)

// Process exit codes
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitInvalidConfiguration = 2
	ExitDataSourceTimeout    = 3
	ExitDataSourceFailure    = 4
	ExitOverwriteDeclined    = 5
)

// ErrOverwriteDeclined is returned when an interactive caller refuses to replace an existing report.
var ErrOverwriteDeclined = errors.New("existing report not overwritten")

// ConfigError represents invalid run configuration. It is always fatal.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("'%s' %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("invalid configuration: %s", msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// DataSourceError represents a failure to obtain candidates. It is always fatal.
type DataSourceError struct {
	Source  string
	Message string
	Timeout bool
	Cause   error
}

func (e *DataSourceError) Error() string {
	prefix := "data source failure"
	if e.Timeout {
		prefix = "data source timeout"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", prefix, e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", prefix, e.Source, e.Message)
}

func (e *DataSourceError) Unwrap() error {
	return e.Cause
}

// Kind reports whether the error is a timeout or a general failure.
func (e *DataSourceError) Kind() Kind {
	if e.Timeout {
		return KindDataSourceTimeout
	}
	return KindDataSourceFailure
}

// TargetError represents a per-candidate failure. The candidate is excluded
// from the result and listed in the report; the run continues.
type TargetError struct {
	CandidateID string
	Kind        Kind
	Message     string
	Cause       error
}

func (e *TargetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for %s: %s: %v", e.Kind, e.CandidateID, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s for %s: %s", e.Kind, e.CandidateID, e.Message)
}

func (e *TargetError) Unwrap() error {
	return e.Cause
}

// Reason returns the message with its cause, without the kind and ID prefix.
func (e *TargetError) Reason() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unresolvable builds an UnresolvableTarget error for a candidate.
func Unresolvable(id, format string, args ...any) *TargetError {
	return &TargetError{CandidateID: id, Kind: KindUnresolvableTarget, Message: fmt.Sprintf(format, args...)}
}

// InvalidTarget builds an InvalidTarget error for a candidate.
func InvalidTarget(id, format string, args ...any) *TargetError {
	return &TargetError{CandidateID: id, Kind: KindInvalidTarget, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err should abort a run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var targetErr *TargetError
	return !errors.As(err, &targetErr)
}

// ExitCode maps an error returned by a run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitInvalidConfiguration
	}

	var sourceErr *DataSourceError
	if errors.As(err, &sourceErr) {
		if sourceErr.Timeout {
			return ExitDataSourceTimeout
		}
		return ExitDataSourceFailure
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitDataSourceTimeout
	}

	if errors.Is(err, ErrOverwriteDeclined) {
		return ExitOverwriteDeclined
	}

	return ExitFailure
}
