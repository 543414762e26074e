package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users quote the code; operators find the technical cause in the
// logs under the same request id.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - File rejected: The CSV did not pass validation, nothing was saved
//	IMP002 - Save failed: The catch data could not be saved
//	         Storage failures are always reported with this code; the cause
//	         is logged, never shown.
//	IMP003 - System busy: Too many imports in progress
//	         Patterns: "too many imports"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid id: _id is not an integer          Patterns: "invalid number"
//	VAL002 - Required field: A required value is empty  Patterns: "required field"
//	VAL003 - Missing column: Header lacks a column      Patterns: "missing required column"
//	VAL004 - Short row: A row has fewer fields          Patterns: "column not found"
//	VAL005 - Invalid enum: Value not in allowed list    Patterns: "invalid enum"
//	VAL006 - Invalid email                              Patterns: "invalid email"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large      Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV         Patterns: "invalid csv"
//	FILE004 - No file             Patterns: "no file provided"
//	FILE005 - Empty file          Patterns: "empty file"
//
// # User Errors (USR001-USR099)
//
//	USR001 - User not found       Patterns: "user not found"
//
// # Database Errors (DB001-DB099)
//
// Used for non-import operations (reports, user admin):
//
//	DB003 - Foreign key           Patterns: "foreign key"
//	DB004 - Connection refused    Patterns: "connection refused"
//	DB006 - Timeout               Patterns: "timeout", "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests   Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	importRejectedMessage = UserMessage{
		Message: "The CSV file was rejected and nothing was saved",
		Action:  "Check the file against the import template and try again",
		Code:    "IMP001",
	}
	importStorageMessage = UserMessage{
		Message: "The catch data could not be saved",
		Action:  "Please try again later or contact support",
		Code:    "IMP002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Import (IMP003)
	// =========================================================================
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP003",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no catch rows",
			Action:  "Please upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL006)
	// =========================================================================
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "A catch id is not a whole number",
			Action:  "Check the _id column for text or decimals",
			Code:    "VAL001",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required fields have values",
			Code:    "VAL002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Download the import template and match its headers",
			Code:    "VAL003",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "A row has fewer fields than the header",
			Action:  "Check for missing commas in the reported lines",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid email",
		msg: UserMessage{
			Message: "Email address is not valid",
			Action:  "Enter an address such as name@example.com",
			Code:    "VAL006",
		},
	},
	{
		pattern: "invalid input",
		msg: UserMessage{
			Message: "Some fields are invalid",
			Action:  "Correct the highlighted fields and try again",
			Code:    "VAL007",
		},
	},

	// =========================================================================
	// Users (USR001)
	// =========================================================================
	{
		pattern: "user not found",
		msg: UserMessage{
			Message: "User not found",
			Action:  "Refresh the user list and try again",
			Code:    "USR001",
		},
	},

	// =========================================================================
	// Database Errors (DB003-DB006)
	// =========================================================================
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Refresh the page and pick an existing beach",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Import storage failures always map to IMP002 so no store detail leaks.
// Import validation failures map by their first problem, falling back to
// IMP001. Anything else is matched against errorPatterns.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ie *ImportError
	if errors.As(err, &ie) {
		if ie.Kind == KindStorage {
			return importStorageMessage
		}
		if msg, ok := matchPattern(ie.Err); ok {
			return msg
		}
		return importRejectedMessage
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// Error() returns the user message, Unwrap() the technical error.
type UserError struct {
	Technical error
	User      UserMessage
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
