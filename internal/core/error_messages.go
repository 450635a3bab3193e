// Package core provides the export service.
//
// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Skipped rows in an export report carry the code of the
// error that rejected them, and failed targets carry the code of the error
// that aborted them.
//
// Error codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A row with this key already exists
//	        Patterns: "duplicate key", "duplicate entry", "unique constraint failed"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced row does not exist
//	        Patterns: "foreign key constraint"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused", "no such host"
//
//	DB005 - Connection lost: Database connection was interrupted
//	        Patterns: "connection reset", "broken pipe", "bad connection", "invalid connection"
//
//	DB006 - Timeout: Statement timed out
//	        Patterns: "timeout", "deadline exceeded"
//
//	DB007 - Busy: Database was busy with conflicting operations
//	        Patterns: "deadlock", "database is locked"
//
//	DB008 - Missing value: A required column is empty
//	        Patterns: "not-null", "not null constraint", "cannot be null"
//
//	DB009 - Value too long: A value does not fit its column
//	        Patterns: "too long"
//
//	DB010 - Out of range: A number does not fit its column
//	        Patterns: "out of range"
//
//	DB011 - Wrong type: A value does not match its column type
//	        Patterns: "invalid input syntax", "incorrect integer value", "incorrect double value"
//
//	DB012 - Access denied: Database rejected the credentials
//	        Patterns: "password authentication failed", "access denied"
//
//	DB013 - Unknown database: The configured database does not exist
//	        Patterns: "unknown database"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing column: Input lacks a column the pipeline needs
//	         Patterns: "missing column"
//
//	VAL002 - Invalid source: Dataset lacks its key columns
//	         Patterns: "invalid export source"
//
//	VAL003 - Invalid request: Request body is not a valid export request
//	         Patterns: "invalid request body"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found
//	          Patterns: "no such file or directory", "cannot find the file"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Patterns: "parse error", "wrong number of fields"
//
//	FILE003 - No header: CSV has no header row
//	          Patterns: "no header row"
//
//	FILE004 - Permission denied: File cannot be read or written
//	          Patterns: "permission denied"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Table exists: Target table exists and mode is fail
//	         Patterns: "already exists"
//
//	EXP002 - Target locked: Another export is writing the same target
//	         Patterns: "locked by another export"
//
//	EXP003 - System busy: Too many exports in progress
//	         Patterns: "too many exports"
//
//	EXP004 - Run not found: No export run with this ID
//	         Patterns: "export run not found"
//
//	EXP005 - Unknown target: Target name is not configured
//	         Patterns: "unknown export target"
//
//	EXP006 - Cancelled: Export was cancelled
//	         Patterns: "context canceled"
//
//	EXP007 - Unknown mode: Mode is not replace, append or fail
//	         Patterns: "unknown export mode"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Check the application logs for the original error
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters:
//   - More specific patterns come before general ones
//   - Multiple patterns can map to the same error code
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003, DB008-DB011)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A row with this key already exists",
			Action:  "Remove the duplicate from the input or export in replace mode",
			Code:    "DB001",
		},
	},
	{
		pattern: "duplicate entry",
		msg: UserMessage{
			Message: "A row with this key already exists",
			Action:  "Remove the duplicate from the input or export in replace mode",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint failed",
		msg: UserMessage{
			Message: "A row with this key already exists",
			Action:  "Remove the duplicate from the input or export in replace mode",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check the input for duplicate values",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Check the input for duplicate values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced row does not exist",
			Action:  "Ensure the author and work tables contain the referenced keys",
			Code:    "DB003",
		},
	},
	{
		pattern: "not-null",
		msg: UserMessage{
			Message: "A required value is empty",
			Action:  "Fill the key columns in the input",
			Code:    "DB008",
		},
	},
	{
		pattern: "not null constraint",
		msg: UserMessage{
			Message: "A required value is empty",
			Action:  "Fill the key columns in the input",
			Code:    "DB008",
		},
	},
	{
		pattern: "cannot be null",
		msg: UserMessage{
			Message: "A required value is empty",
			Action:  "Fill the key columns in the input",
			Code:    "DB008",
		},
	},
	{
		pattern: "too long",
		msg: UserMessage{
			Message: "A value does not fit its column",
			Action:  "Shorten the value or export to a target with wider text columns",
			Code:    "DB009",
		},
	},
	{
		pattern: "out of range",
		msg: UserMessage{
			Message: "A number does not fit its column",
			Action:  "Check the input for oversized numbers",
			Code:    "DB010",
		},
	},
	{
		pattern: "invalid input syntax",
		msg: UserMessage{
			Message: "A value does not match its column type",
			Action:  "Check the column for mixed text and numbers",
			Code:    "DB011",
		},
	},
	{
		pattern: "incorrect integer value",
		msg: UserMessage{
			Message: "A value does not match its column type",
			Action:  "Check the column for mixed text and numbers",
			Code:    "DB011",
		},
	},
	{
		pattern: "incorrect double value",
		msg: UserMessage{
			Message: "A value does not match its column type",
			Action:  "Check the column for mixed text and numbers",
			Code:    "DB011",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007, DB012-DB013)
	// =========================================================================
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "Database rejected the credentials",
			Action:  "Check the user and password settings",
			Code:    "DB012",
		},
	},
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "Database rejected the credentials",
			Action:  "Check the user and password settings",
			Code:    "DB012",
		},
	},
	{
		pattern: "unknown database",
		msg: UserMessage{
			Message: "The configured database does not exist",
			Action:  "Create the database or fix the database name",
			Code:    "DB013",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check that the database is running and reachable",
			Code:    "DB004",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check the database host setting",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "broken pipe",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "bad connection",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "invalid connection",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Statement timed out",
			Action:  "Raise EXPORT_STATEMENT_TIMEOUT or lower the batch sizes",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Statement timed out",
			Action:  "Raise EXPORT_STATEMENT_TIMEOUT or lower the batch sizes",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Close other writers and try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "missing column",
		msg: UserMessage{
			Message: "Input lacks a column the export needs",
			Action:  "Check the CSV headers against the configured column names",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid export source",
		msg: UserMessage{
			Message: "Dataset lacks its key columns",
			Action:  "Check the configured key column names",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Request body is not a valid export request",
			Action:  "Send JSON with optional \"targets\" and \"mode\" fields",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "no such file or directory",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the configured input path",
			Code:    "FILE001",
		},
	},
	{
		pattern: "cannot find the file",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the configured input path",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with quoted fields closed",
			Code:    "FILE002",
		},
	},
	{
		pattern: "wrong number of fields",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure every row has as many fields as the header",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "CSV file has no header row",
			Action:  "Add a header row naming the columns",
			Code:    "FILE003",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "File cannot be read or written",
			Action:  "Check the file permissions",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Export Errors (EXP001-EXP007)
	// =========================================================================
	{
		pattern: "locked by another export",
		msg: UserMessage{
			Message: "Another export is writing the same target",
			Action:  "Wait for the other export to finish",
			Code:    "EXP002",
		},
	},
	{
		pattern: "already exists",
		msg: UserMessage{
			Message: "Target table already exists",
			Action:  "Export in replace or append mode, or drop the tables",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many exports",
		msg: UserMessage{
			Message: "System is busy with other exports",
			Action:  "Please wait a moment and try again",
			Code:    "EXP003",
		},
	},
	{
		pattern: "export run not found",
		msg: UserMessage{
			Message: "Export run not found",
			Action:  "Check the run ID",
			Code:    "EXP004",
		},
	},
	{
		pattern: "unknown export target",
		msg: UserMessage{
			Message: "Unknown export target",
			Action:  "Use sqlite, postgres, mysql or script",
			Code:    "EXP005",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Export was cancelled",
			Action:  "Start a new export when ready",
			Code:    "EXP006",
		},
	},
	{
		pattern: "unknown export mode",
		msg: UserMessage{
			Message: "Unknown export mode",
			Action:  "Use replace, append or fail",
			Code:    "EXP007",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the application logs for the original error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("UNIQUE constraint failed: works.id_work")
//	msg := MapError(err)
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// ErrorCode returns the support code for err, or "" for nil. It is the
// classifier handed to exporters for skipped rows.
func ErrorCode(err error) string {
	return MapError(err).Code
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
