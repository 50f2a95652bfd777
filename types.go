package awsquery

import (
	"context"
	"errors"

	"github.com/angelcam/go-aws-query/pkg/awserr"
)

// APIError is the structured error reported by AWS for a failed call or a
// failed batch entry. Alias of awserr.APIError so callers can match it with
// errors.As without importing the leaf package.
type APIError = awserr.APIError

// Context keys for message metadata
type contextKey string

const (
	// ContextKeyQueueName is the context key for the queue name
	ContextKeyQueueName contextKey = "awsquery.queue_name"
	// ContextKeyMessageID is the context key for the message ID
	ContextKeyMessageID contextKey = "awsquery.message_id"
	// ContextKeyTraceID is the context key for the trace ID
	ContextKeyTraceID contextKey = "awsquery.trace_id"
)

// QueueNameFromContext returns the queue name from the context.
// Returns empty string if not set.
func QueueNameFromContext(ctx context.Context) string {
	if v := ctx.Value(ContextKeyQueueName); v != nil {
		return v.(string)
	}
	return ""
}

// MessageIDFromContext returns the message ID from the context.
// Returns empty string if not set.
func MessageIDFromContext(ctx context.Context) string {
	if v := ctx.Value(ContextKeyMessageID); v != nil {
		return v.(string)
	}
	return ""
}

// TraceIDFromContext returns the trace ID from the context.
// Returns empty string if not set.
func TraceIDFromContext(ctx context.Context) string {
	if v := ctx.Value(ContextKeyTraceID); v != nil {
		return v.(string)
	}
	return ""
}

// Handler is a function that handles messages received by the consumer loop.
// The context carries message metadata accessible via helper functions:
//   - QueueNameFromContext(ctx) - the queue the message was received from
//   - MessageIDFromContext(ctx) - the SQS message ID
//   - TraceIDFromContext(ctx) - a per-message trace ID
//
// Return nil for success; the message is then deleted from the queue. Return
// an error to leave the message for redelivery.
type Handler func(ctx context.Context, msg ReceivedMessage) error

// ReceivedMessage represents a message received from SQS.
type ReceivedMessage struct {
	// MessageID is the unique message identifier
	MessageID string
	// Body is the raw message body
	Body string
	// BodyMD5 is the MD5 digest AWS computed over the body
	BodyMD5 string
	// ReceiptHandle is used to delete or modify the message
	ReceiptHandle string
	// Attributes contains the message system attributes
	Attributes map[string]string
}

// BatchDeleteEntry is one slot of a batch delete result. The result slice is
// positionally aligned with the input receipt handles: slot k reports on
// handle k, Err is nil on success and an *APIError when AWS rejected that
// entry.
type BatchDeleteEntry struct {
	ReceiptHandle string
	Err           error
}

// MessageAttribute is an SNS message attribute. DataType is required
// ("String", "Number" or "Binary"); exactly one of StringValue/BinaryValue
// should be set, BinaryValue carrying base64-encoded data.
type MessageAttribute struct {
	DataType    string
	StringValue string
	BinaryValue string
}

// Common errors
var (
	// ErrCredentialsRequired is returned when no AWS key pair is configured
	ErrCredentialsRequired = errors.New("awsquery: AWS credentials are required - use WithCredentials() option")

	// ErrRegionRequired is returned when no AWS region is configured
	ErrRegionRequired = errors.New("awsquery: AWS region is required - use WithRegion() option")

	// ErrAccountIDRequired is returned when SQS operations are attempted
	// without an account ID (needed to build queue URLs)
	ErrAccountIDRequired = errors.New("awsquery: AWS account ID is required for SQS - use WithAccountID() option")

	// ErrInvalidMessageStructure is returned before any network call when
	// Publish is given a MessageStructure other than "json"
	ErrInvalidMessageStructure = errors.New(`awsquery: MessageStructure must be absent or "json"`)
)
