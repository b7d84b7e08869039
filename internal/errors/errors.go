package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// TargetMissing indicates the rename target does not exist on disk
	TargetMissing ErrorCode = "TARGET_MISSING"
	// NameCollision indicates the new name collides with an existing entity
	NameCollision ErrorCode = "NAME_COLLISION"
	// ScopeInvalid indicates an unrecognized scope name
	ScopeInvalid ErrorCode = "SCOPE_INVALID"
	// StaleContent indicates a file changed between planning and applying
	StaleContent ErrorCode = "STALE_CONTENT"
	// ParseFailure indicates a file could not be parsed
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// AliasUnresolved indicates an alias specifier resolved to no existing file
	AliasUnresolved ErrorCode = "ALIAS_UNRESOLVED"
	// ManifestMalformed indicates a manifest could not be confidently parsed
	ManifestMalformed ErrorCode = "MANIFEST_MALFORMED"
	// PlanNotFound indicates a journaled plan id does not exist
	PlanNotFound ErrorCode = "PLAN_NOT_FOUND"
	// PlanIncomplete indicates a plan produced by a cancelled scan
	PlanIncomplete ErrorCode = "PLAN_INCOMPLETE"
	// VerifyTimeout indicates the reference verifier exceeded its deadline
	VerifyTimeout ErrorCode = "VERIFY_TIMEOUT"
	// IndexMissing indicates the SCIP index file was not found
	IndexMissing ErrorCode = "INDEX_MISSING"
	// IOFailure indicates an unexpected filesystem error
	IOFailure ErrorCode = "IO_FAILURE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// RemapError represents an engine error with code, message, and suggestions
type RemapError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewRemapError creates a new RemapError
func NewRemapError(code ErrorCode, message string, cause error) *RemapError {
	return &RemapError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *RemapError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RemapError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RemapError) WithDetails(details interface{}) *RemapError {
	e.Details = details
	return e
}

// CodeOf returns the ErrorCode carried by err, or InternalError for
// errors that are not RemapErrors.
func CodeOf(err error) ErrorCode {
	if re, ok := err.(*RemapError); ok {
		return re.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StaleContent: {
		{
			Type:        RunCommand,
			Command:     "remap plan ${old_path} ${new_path}",
			Safe:        true,
			Description: "Re-plan against the current file contents",
		},
	},
	PlanNotFound: {
		{
			Type:        RunCommand,
			Command:     "remap plans",
			Safe:        true,
			Description: "List journaled plans and their ids",
		},
	},
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "scip-go --output=.scip/index.scip ./...",
			Safe:        true,
			Description: "Generate a SCIP index for reference verification",
		},
	},
	ManifestMalformed: {
		{
			Type:        RunCommand,
			Command:     "remap scan ${old_path} ${new_path}",
			Safe:        true,
			Description: "Inspect candidate references without writing",
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
