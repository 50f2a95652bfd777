// Package awserr defines the structured error type reported for failed AWS
// API calls and failed batch entries.
package awserr

import (
	"fmt"
)

// APIError describes an error reported by AWS. For a failed HTTP call Status
// holds the HTTP status code and Reason the status reason phrase. For a
// per-entry batch failure Status is zero and Code/Reason carry the AWS error
// code and message reported for that entry.
type APIError struct {
	// Status is the HTTP status code, or 0 for batch entry errors.
	Status int
	// Code is the AWS error code (e.g. "ReceiptHandleIsInvalid"), set for
	// batch entry errors only.
	Code string
	// Reason is the HTTP reason phrase or the AWS-reported error message.
	Reason string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("awsquery: %s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("awsquery: %d: %s", e.Status, e.Reason)
}

// New creates an APIError for a failed HTTP call.
func New(status int, reason string) *APIError {
	return &APIError{Status: status, Reason: reason}
}

// NewEntry creates an APIError for a failed batch entry.
func NewEntry(code, message string) *APIError {
	return &APIError{Code: code, Reason: message}
}
