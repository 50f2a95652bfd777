package awsquery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/angelcam/go-aws-query/internal/query"
)

const snsVersion = "2010-03-31"

// SNSClient provides the SNS topic operations. Obtain one from Client.SNS().
type SNSClient struct {
	invoker  *query.Invoker
	region   string
	endpoint string
	logger   zerolog.Logger
}

func (s *SNSClient) baseURL() string {
	if s.endpoint != "" {
		return strings.TrimSuffix(s.endpoint, "/") + "/"
	}
	return "https://sns." + s.region + ".amazonaws.com/"
}

// Subscribe subscribes an endpoint to a topic and returns the subscription
// ARN (or "pending confirmation" when the endpoint must confirm first).
func (s *SNSClient) Subscribe(ctx context.Context, topicArn, protocol, endpoint string) (string, error) {
	params := map[string]string{
		"Action":   "Subscribe",
		"TopicArn": topicArn,
		"Protocol": protocol,
		"Endpoint": endpoint,
		"Version":  snsVersion,
	}

	doc, err := s.invoker.Invoke(ctx, s.baseURL(), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "SubscribeResult", "SubscriptionArn")
}

// ConfirmSubscription confirms a pending subscription with the token
// delivered to the endpoint and returns the subscription ARN.
func (s *SNSClient) ConfirmSubscription(ctx context.Context, topicArn, token string, opts ...ConfirmOption) (string, error) {
	co := &confirmOptions{}
	for _, opt := range opts {
		opt(co)
	}

	params := map[string]string{
		"Action":   "ConfirmSubscription",
		"TopicArn": topicArn,
		"Token":    token,
		"Version":  snsVersion,
	}
	if co.authenticateOnUnsubscribe != nil {
		params["AuthenticateOnUnsubscribe"] = strconv.FormatBool(*co.authenticateOnUnsubscribe)
	}

	doc, err := s.invoker.Invoke(ctx, s.baseURL(), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "ConfirmSubscriptionResult", "SubscriptionArn")
}

// Unsubscribe removes a subscription and returns the request ID.
func (s *SNSClient) Unsubscribe(ctx context.Context, subscriptionArn string) (string, error) {
	params := map[string]string{
		"Action":          "Unsubscribe",
		"SubscriptionArn": subscriptionArn,
		"Version":         snsVersion,
	}

	doc, err := s.invoker.Invoke(ctx, s.baseURL(), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "ResponseMetadata", "RequestId")
}

// Publish publishes a message to a topic and returns the message ID. Publish
// to an endpoint ARN instead with WithTargetArn (passing an empty topicArn);
// exactly one of the two must be set, which is the caller's responsibility.
//
// With WithMessageStructure("json") the message must already be the
// serialized per-protocol JSON mapping; any MessageStructure value other
// than "json" fails before any network call.
func (s *SNSClient) Publish(ctx context.Context, topicArn, message string, opts ...PublishOption) (string, error) {
	po := &publishOptions{}
	for _, opt := range opts {
		opt(po)
	}

	if po.messageStructure != "" && po.messageStructure != "json" {
		return "", fmt.Errorf("%w, got %q", ErrInvalidMessageStructure, po.messageStructure)
	}

	params := map[string]string{
		"Action":  "Publish",
		"Message": message,
		"Version": snsVersion,
	}
	if po.subject != "" {
		params["Subject"] = po.subject
	}
	if po.messageStructure != "" {
		params["MessageStructure"] = po.messageStructure
	}
	if topicArn != "" {
		params["TopicArn"] = topicArn
	}
	if po.targetArn != "" {
		params["TargetArn"] = po.targetArn
	}
	for k, v := range attributeParams(po.attributes) {
		params[k] = v
	}

	doc, err := s.invoker.Invoke(ctx, s.baseURL(), params)
	if err != nil {
		return "", err
	}
	return requiredText(doc, "PublishResult", "MessageId")
}

// PublishJSON serializes the per-protocol message mapping (e.g.
// {"default": "...", "sqs": "..."}) and publishes it with
// MessageStructure=json.
func (s *SNSClient) PublishJSON(ctx context.Context, topicArn string, messages map[string]string, opts ...PublishOption) (string, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("awsquery: serialize message mapping: %w", err)
	}
	opts = append(opts, WithMessageStructure("json"))
	return s.Publish(ctx, topicArn, string(payload), opts...)
}

// attributeParams flattens message attributes into the indexed
// MessageAttributes.entry.<n>.* wire parameters. Indices are assigned in
// sorted attribute-name order so requests are deterministic.
func attributeParams(attributes map[string]MessageAttribute) map[string]string {
	if len(attributes) == 0 {
		return nil
	}

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make(map[string]string, len(names)*3)
	for i, name := range names {
		attr := attributes[name]
		prefix := "MessageAttributes.entry." + strconv.Itoa(i+1)
		params[prefix+".Name"] = name
		if attr.DataType != "" {
			params[prefix+".Value.DataType"] = attr.DataType
		}
		if attr.StringValue != "" {
			params[prefix+".Value.StringValue"] = attr.StringValue
		}
		if attr.BinaryValue != "" {
			params[prefix+".Value.BinaryValue"] = attr.BinaryValue
		}
	}
	return params
}
