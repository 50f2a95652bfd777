package awsquery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/angelcam/go-aws-query/internal/metrics"
	"github.com/angelcam/go-aws-query/internal/query"
	"github.com/angelcam/go-aws-query/internal/xmltree"
	"github.com/angelcam/go-aws-query/pkg/awserr"
)

const (
	sqsVersion = "2012-11-05"

	// maxBatchEntries is the SQS per-request limit for batch operations.
	maxBatchEntries = 10
)

// SQSClient provides the SQS queue operations. Obtain one from Client.SQS().
type SQSClient struct {
	invoker   *query.Invoker
	region    string
	accountID string
	endpoint  string
	logger    zerolog.Logger
	metrics   metrics.Provider
}

// QueueURL returns the URL of the named queue in the client's region and
// account.
func (s *SQSClient) QueueURL(queueName string) string {
	if s.endpoint != "" {
		return strings.TrimSuffix(s.endpoint, "/") + "/" + s.accountID + "/" + queueName
	}
	return "https://sqs." + s.region + ".amazonaws.com/" + s.accountID + "/" + queueName
}

// SendMessage sends a message body to the named queue and returns the
// AWS-assigned message ID.
func (s *SQSClient) SendMessage(ctx context.Context, queueName, body string, opts ...SendOption) (string, error) {
	so := &sendOptions{}
	for _, opt := range opts {
		opt(so)
	}

	params := map[string]string{
		"Action":      "SendMessage",
		"MessageBody": body,
		"Version":     sqsVersion,
	}
	if so.delaySeconds != nil {
		params["DelaySeconds"] = strconv.Itoa(*so.delaySeconds)
	}

	doc, err := s.invoker.Invoke(ctx, s.QueueURL(queueName), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "SendMessageResult", "MessageId")
}

// ReceiveMessages polls the named queue once, requesting all message system
// attributes. An empty result yields an empty slice, not an error.
func (s *SQSClient) ReceiveMessages(ctx context.Context, queueName string, opts ...ReceiveOption) ([]ReceivedMessage, error) {
	ro := &receiveOptions{}
	for _, opt := range opts {
		opt(ro)
	}

	params := map[string]string{
		"Action":        "ReceiveMessage",
		"AttributeName": "All",
		"Version":       sqsVersion,
	}
	if ro.maxMessages != nil {
		params["MaxNumberOfMessages"] = strconv.Itoa(*ro.maxMessages)
	}
	if ro.visibilityTimeout != nil {
		params["VisibilityTimeout"] = strconv.Itoa(*ro.visibilityTimeout)
	}
	if ro.waitTimeSeconds != nil {
		params["WaitTimeSeconds"] = strconv.Itoa(*ro.waitTimeSeconds)
	}

	doc, err := s.invoker.Invoke(ctx, s.QueueURL(queueName), params)
	if err != nil {
		return nil, err
	}

	messages := []ReceivedMessage{}
	result := doc.Find("ReceiveMessageResult")
	if result == nil {
		return messages, nil
	}
	for _, elem := range result.Each("Message") {
		messages = append(messages, decodeReceivedMessage(elem))
	}
	return messages, nil
}

func decodeReceivedMessage(elem *xmltree.Node) ReceivedMessage {
	msg := ReceivedMessage{
		MessageID:     elem.TextAt("MessageId"),
		Body:          elem.TextAt("Body"),
		BodyMD5:       elem.TextAt("MD5OfBody"),
		ReceiptHandle: elem.TextAt("ReceiptHandle"),
		Attributes:    make(map[string]string),
	}
	for _, attr := range elem.Each("Attribute") {
		msg.Attributes[attr.TextAt("Name")] = attr.TextAt("Value")
	}
	return msg
}

// DeleteMessage deletes a single message by receipt handle and returns the
// request ID.
func (s *SQSClient) DeleteMessage(ctx context.Context, queueName, receiptHandle string) (string, error) {
	params := map[string]string{
		"Action":        "DeleteMessage",
		"ReceiptHandle": receiptHandle,
		"Version":       sqsVersion,
	}

	doc, err := s.invoker.Invoke(ctx, s.QueueURL(queueName), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "ResponseMetadata", "RequestId")
}

// DeleteMessages deletes the given receipt handles in sequential
// DeleteMessageBatch chunks of at most ten entries, preserving input order.
// The returned slice always has one slot per input handle: slot k reports on
// receiptHandles[k], with a nil Err on success and the AWS-reported
// *APIError for entries AWS rejected.
//
// If a chunk request fails outright the error is returned together with the
// results accumulated so far; earlier chunks have already been applied on
// the server (batch delete is not transactional).
func (s *SQSClient) DeleteMessages(ctx context.Context, queueName string, receiptHandles []string) ([]BatchDeleteEntry, error) {
	results := make([]BatchDeleteEntry, len(receiptHandles))
	for i, handle := range receiptHandles {
		results[i].ReceiptHandle = handle
	}

	queueURL := s.QueueURL(queueName)
	for start := 0; start < len(receiptHandles); start += maxBatchEntries {
		end := start + maxBatchEntries
		if end > len(receiptHandles) {
			end = len(receiptHandles)
		}
		chunk := receiptHandles[start:end]

		params := map[string]string{
			"Action":  "DeleteMessageBatch",
			"Version": sqsVersion,
		}
		for i, handle := range chunk {
			prefix := "DeleteMessageBatchRequestEntry." + strconv.Itoa(i+1)
			params[prefix+".Id"] = strconv.Itoa(i + 1)
			params[prefix+".ReceiptHandle"] = handle
		}

		doc, err := s.invoker.Invoke(ctx, queueURL, params)
		if err != nil {
			return results, fmt.Errorf("awsquery: delete batch chunk at offset %d: %w", start, err)
		}

		result := doc.Find("DeleteMessageBatchResult")
		if result == nil {
			continue
		}
		for _, entry := range result.Each("BatchResultErrorEntry") {
			id, err := strconv.Atoi(entry.TextAt("Id"))
			if err != nil || id < 1 || id > len(chunk) {
				s.logger.Warn().
					Str("queue", queueName).
					Str("entry_id", entry.TextAt("Id")).
					Msg("Skipping batch error entry with unknown id")
				continue
			}
			// Entry ids are the 1-based positions within the chunk.
			results[start+id-1].Err = awserr.NewEntry(entry.TextAt("Code"), entry.TextAt("Message"))
		}
	}

	return results, nil
}

// ChangeMessageVisibility changes the visibility timeout of a received
// message and returns the request ID.
func (s *SQSClient) ChangeMessageVisibility(ctx context.Context, queueName, receiptHandle string, timeoutSeconds int) (string, error) {
	params := map[string]string{
		"Action":            "ChangeMessageVisibility",
		"ReceiptHandle":     receiptHandle,
		"VisibilityTimeout": strconv.Itoa(timeoutSeconds),
		"Version":           sqsVersion,
	}

	doc, err := s.invoker.Invoke(ctx, s.QueueURL(queueName), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "ResponseMetadata", "RequestId")
}

// QueueDepth returns the approximate number of messages in the queue.
func (s *SQSClient) QueueDepth(ctx context.Context, queueName string) (int64, error) {
	params := map[string]string{
		"Action":          "GetQueueAttributes",
		"AttributeName.1": "ApproximateNumberOfMessages",
		"Version":         sqsVersion,
	}

	doc, err := s.invoker.Invoke(ctx, s.QueueURL(queueName), params)
	if err != nil {
		return 0, err
	}

	result := doc.Find("GetQueueAttributesResult")
	if result == nil {
		return 0, fmt.Errorf("awsquery: response missing GetQueueAttributesResult")
	}
	for _, attr := range result.Each("Attribute") {
		if attr.TextAt("Name") != "ApproximateNumberOfMessages" {
			continue
		}
		depth, err := strconv.ParseInt(attr.TextAt("Value"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("awsquery: invalid queue depth value %q: %w", attr.TextAt("Value"), err)
		}
		s.metrics.SetQueueDepth(queueName, float64(depth))
		return depth, nil
	}
	return 0, fmt.Errorf("awsquery: response missing ApproximateNumberOfMessages attribute")
}

// requiredText extracts the text at path, failing when the element is
// missing or empty.
func requiredText(doc *xmltree.Node, path ...string) (string, error) {
	text := doc.TextAt(path...)
	if text == "" {
		return "", fmt.Errorf("awsquery: response missing %s", strings.Join(path, "."))
	}
	return text, nil
}
