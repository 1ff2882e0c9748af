package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindExternal   Kind = "external_service"
)

// Stages for external-service failures, so a caller can retry a single level.
const (
	StageEmbedding = "embedding"
	StageOutline   = "outline"
	StageWeek      = "week"
	StageDay       = "day"
	StageResources = "resources"
)

// Error is the error type surfaced across module boundaries.
type Error struct {
	Kind    Kind
	Stage   string // set for external-service failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Stage, e.Message, e.Err)
		}
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Stage, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing role, outline, week or day.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed caller input or malformed model output.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// External reports an upstream provider failure after retries are exhausted.
func External(stage string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindExternal, Stage: stage, Message: fmt.Sprintf(format, args...), Err: err}
}

func IsNotFound(err error) bool   { return hasKind(err, KindNotFound) }
func IsValidation(err error) bool { return hasKind(err, KindValidation) }
func IsExternal(err error) bool   { return hasKind(err, KindExternal) }

// StageOf returns the failure stage, or "" when err carries none.
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
