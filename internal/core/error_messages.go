package core

// # Error Codes Reference
//
// Every error that leaves the service boundary is mapped to a stable code
// that clients can switch on and users can quote to support.
//
// # Table Errors (TBL001)
//
//	TBL001 - Invalid table: the sheet name is empty or not a known table
//	         Action: Use one of the table names returned by getAll
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid parameters: a required parameter is missing or malformed
//	         Action: Check the request parameters
//	VAL002 - Invalid date: a date is not in YYYY-MM-DD form
//	         Action: Send dates as YYYY-MM-DD
//	VAL003 - Unknown action: the action name is not recognized
//	         Action: Check the action name
//	VAL004 - Read-only transport: a write action was sent with GET
//	         Action: Send write actions with POST
//
// # Not Found (NF001)
//
//	NF001 - Not found: no row has the given identifier
//	        Action: Refresh and try again
//
// # Lock Errors (LCK001)
//
//	LCK001 - Lock timeout: another request held the store for too long
//	         Action: Please try again in a few moments
//
// # Workflow Errors (WF001)
//
//	WF001 - Invalid transition: the request is not in a state that allows this
//	        Action: Refresh to see the current status
//
// # Request Errors (REQ001-REQ002, RATE001)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// original error.

import (
	"context"
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

// sentinelMessages are checked with errors.Is, in order.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrInvalidTable, UserMessage{
		Message: "Invalid sheet name",
		Action:  "Use one of the table names returned by getAll",
		Code:    "TBL001",
	}},
	{ErrNotFound, UserMessage{
		Message: "Record not found",
		Action:  "Refresh and try again",
		Code:    "NF001",
	}},
	{ErrLockTimeout, UserMessage{
		Message: "The store is busy with another request",
		Action:  "Please try again in a few moments",
		Code:    "LCK001",
	}},
	{ErrInvalidTransition, UserMessage{
		Message: "This request cannot change to that status",
		Action:  "Refresh to see the current status",
		Code:    "WF001",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Please try again",
		Code:    "REQ002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns refine validation errors by message text (case-insensitive,
// first match wins). Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format",
			Action:  "Send dates as YYYY-MM-DD",
			Code:    "VAL002",
		},
	},
	{
		pattern: "unknown action",
		msg: UserMessage{
			Message: "Unknown action",
			Action:  "Check the action name",
			Code:    "VAL003",
		},
	},
	{
		pattern: "requires post",
		msg: UserMessage{
			Message: "This action changes data and must be sent with POST",
			Action:  "Send write actions with POST",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid parameters",
		msg: UserMessage{
			Message: "Invalid parameters",
			Action:  "Check the request parameters",
			Code:    "VAL001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. Sentinel errors are
// matched first, then message patterns; anything else maps to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
