package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic checking.
var (
	ErrParseFailure     = errors.New("parse failure")
	ErrConflictingEdit  = errors.New("conflicting edit")
	ErrNonConvergence   = errors.New("autocorrection did not converge")
	ErrConfiguration    = errors.New("invalid configuration")
	ErrCorrectionSyntax = errors.New("correction produced unparsable source")
	ErrCopFailure       = errors.New("cop failed")
	ErrWriteRace        = errors.New("file changed on disk during operation")
)

// ErrorCode provides a machine-readable error type for JSON output.
type ErrorCode string

const (
	ECNone             ErrorCode = ""
	ECParse            ErrorCode = "ERR_PARSE"
	ECConflict         ErrorCode = "ERR_CONFLICT"
	ECNonConvergence   ErrorCode = "ERR_NON_CONVERGENCE"
	ECConfigError      ErrorCode = "ERR_CONFIG"
	ECCorrectionSyntax ErrorCode = "ERR_CORRECTION_SYNTAX"
	ECCopFailure       ErrorCode = "ERR_COP"
	ECWriteRace        ErrorCode = "ERR_WRITE_RACE"
	ECReadError        ErrorCode = "ERR_READ_FILE"
	ECWriteError       ErrorCode = "ERR_WRITE_FILE"
	ECCanceled         ErrorCode = "ERR_CANCELED"
	ECUnknown          ErrorCode = "ERR_UNKNOWN"
)

// ReadError marks a failure to read an input file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError marks a failure to commit a corrected file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ParseError locates the first syntax error tree-sitter reported.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Snippet string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s:%d:%d: syntax error", e.File, e.Line, e.Column)
	if e.Snippet != "" {
		msg += " near " + fmt.Sprintf("%q", e.Snippet)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return ErrParseFailure }

// ConfigError names the offending key path, e.g. "Style/SingleLineBlockParams.Methods[1]".
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// NewConfigError builds a ConfigError from a key path and a formatted reason.
func NewConfigError(path []string, format string, args ...any) *ConfigError {
	return &ConfigError{Path: strings.Join(path, "."), Reason: fmt.Sprintf(format, args...)}
}

// CodeOf maps an error to its machine-readable code.
func CodeOf(err error) ErrorCode {
	var (
		readErr  *ReadError
		writeErr *WriteError
	)
	switch {
	case err == nil:
		return ECNone
	case errors.Is(err, ErrCorrectionSyntax):
		return ECCorrectionSyntax
	case errors.Is(err, ErrParseFailure):
		return ECParse
	case errors.Is(err, ErrConflictingEdit):
		return ECConflict
	case errors.Is(err, ErrNonConvergence):
		return ECNonConvergence
	case errors.Is(err, ErrConfiguration):
		return ECConfigError
	case errors.Is(err, ErrCopFailure):
		return ECCopFailure
	case errors.Is(err, ErrWriteRace):
		return ECWriteRace
	case errors.As(err, &readErr):
		return ECReadError
	case errors.As(err, &writeErr):
		return ECWriteError
	case isCanceled(err):
		return ECCanceled
	default:
		return ECUnknown
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
