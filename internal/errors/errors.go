package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidBirthSpec indicates a malformed or out-of-range birth specification
	InvalidBirthSpec ErrorCode = "INVALID_BIRTH_SPEC"
	// InvalidPillar indicates a stem/branch pair that is not in the cycle
	InvalidPillar ErrorCode = "INVALID_PILLAR"
	// InvalidRange indicates a reverse-search year range that is empty or too wide
	InvalidRange ErrorCode = "INVALID_RANGE"
	// InvalidSelection indicates an overlay selection outside the chart's luck pillars
	InvalidSelection ErrorCode = "INVALID_SELECTION"
	// LunarConversionFailed indicates the lunar date could not be converted
	LunarConversionFailed ErrorCode = "LUNAR_CONVERSION_FAILED"
	// CaseNotFound indicates a saved case id doesn't exist
	CaseNotFound ErrorCode = "CASE_NOT_FOUND"
	// JobNotFound indicates a job id doesn't exist
	JobNotFound ErrorCode = "JOB_NOT_FOUND"
	// JobNotCancellable indicates a cancel request for a finished job
	JobNotCancellable ErrorCode = "JOB_NOT_CANCELLABLE"
	// InvalidRequest indicates a malformed HTTP body or query parameter
	InvalidRequest ErrorCode = "INVALID_REQUEST"
	// CityNotFound indicates a city is missing from the longitude catalog
	CityNotFound ErrorCode = "CITY_NOT_FOUND"
	// StorageError indicates the database failed
	StorageError ErrorCode = "STORAGE_ERROR"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditInput suggests correcting the request
	EditInput FixActionType = "edit-input"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// BaziError represents an error with code, message, and suggestions
type BaziError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a BaziError with the predefined fixes for its code
func New(code ErrorCode, message string, cause error) *BaziError {
	return &BaziError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *BaziError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *BaziError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BaziError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *BaziError) WithDetails(details interface{}) *BaziError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first BaziError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var be *BaziError
	if errors.As(err, &be) {
		return be.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var be *BaziError
	return errors.As(err, &be) && be.Code == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InvalidBirthSpec: {
		{
			Type:        EditInput,
			Description: "Use a date like 1990-05-15, a time like 08:30, and gender male or female",
		},
	},
	InvalidPillar: {
		{
			Type:        EditInput,
			Description: "Pillars are one stem and one branch of the same polarity, e.g. 甲子",
		},
	},
	CaseNotFound: {
		{
			Type:        RunCommand,
			Command:     "bazi cases list",
			Safe:        true,
			Description: "List saved cases",
		},
	},
	JobNotFound: {
		{
			Type:        RunCommand,
			Command:     "bazi jobs list",
			Safe:        true,
			Description: "List background jobs",
		},
	},
	CityNotFound: {
		{
			Type:        RunCommand,
			Command:     "bazi cities",
			Safe:        true,
			Description: "List known cities and longitudes",
		},
	},
	StorageError: {
		{
			Type:        RunCommand,
			Command:     "bazi config init",
			Safe:        true,
			Description: "Check the configured data directory",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
