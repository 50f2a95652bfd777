package awsquery

import (
	"context"
	"errors"
	"testing"
)

const publishResponse = `<PublishResponse>
  <PublishResult>
    <MessageId>94f20ce6-13c5-43a0-9a9e-ca52d816e90b</MessageId>
  </PublishResult>
  <ResponseMetadata>
    <RequestId>f187a3c1-376f-11df-8963-01868b7c937a</RequestId>
  </ResponseMetadata>
</PublishResponse>`

const subscribeResponse = `<SubscribeResponse>
  <SubscribeResult>
    <SubscriptionArn>arn:aws:sns:us-east-1:123456789012:events:c7fe3a54-ab0e-4ec2-88e0-db410a0f2bee</SubscriptionArn>
  </SubscribeResult>
  <ResponseMetadata>
    <RequestId>a169c740-3766-11df-8963-01868b7c937a</RequestId>
  </ResponseMetadata>
</SubscribeResponse>`

const topicArn = "arn:aws:sns:us-east-1:123456789012:events"

func newTestSNS(t *testing.T, transport *fakeTransport, opts ...Option) *SNSClient {
	t.Helper()
	return newTestClient(t, transport, opts...).SNS()
}

func TestSubscribe(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: subscribeResponse}}}
	sns := newTestSNS(t, transport)

	arn, err := sns.Subscribe(context.Background(), topicArn, "https", "https://example.com/hook")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if arn != "arn:aws:sns:us-east-1:123456789012:events:c7fe3a54-ab0e-4ec2-88e0-db410a0f2bee" {
		t.Errorf("unexpected subscription ARN '%s'", arn)
	}

	params := queryParams(t, transport, 0)
	if params["Action"] != "Subscribe" {
		t.Errorf("expected Action 'Subscribe', got '%s'", params["Action"])
	}
	if params["TopicArn"] != topicArn {
		t.Errorf("expected TopicArn '%s', got '%s'", topicArn, params["TopicArn"])
	}
	if params["Protocol"] != "https" {
		t.Errorf("expected Protocol 'https', got '%s'", params["Protocol"])
	}
	if params["Endpoint"] != "https://example.com/hook" {
		t.Errorf("expected Endpoint 'https://example.com/hook', got '%s'", params["Endpoint"])
	}
	if params["Version"] != "2010-03-31" {
		t.Errorf("expected Version '2010-03-31', got '%s'", params["Version"])
	}

	if host := transport.requests[0].URL.Host; host != "sns.us-east-1.amazonaws.com" {
		t.Errorf("expected SNS host, got '%s'", host)
	}
}

func TestConfirmSubscription(t *testing.T) {
	body := `<ConfirmSubscriptionResponse>
  <ConfirmSubscriptionResult>
    <SubscriptionArn>arn:aws:sns:us-east-1:123456789012:events:c7fe3a54-ab0e-4ec2-88e0-db410a0f2bee</SubscriptionArn>
  </ConfirmSubscriptionResult>
  <ResponseMetadata>
    <RequestId>7a50221f-3774-11df-a9b7-05d48da6f042</RequestId>
  </ResponseMetadata>
</ConfirmSubscriptionResponse>`

	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: body}}}
	sns := newTestSNS(t, transport)

	arn, err := sns.ConfirmSubscription(context.Background(), topicArn, "51b2ff3edb475b7d91550e0ab6edf0c1",
		WithAuthenticateOnUnsubscribe(true),
	)
	if err != nil {
		t.Fatalf("ConfirmSubscription failed: %v", err)
	}
	if arn == "" {
		t.Error("expected a subscription ARN")
	}

	params := queryParams(t, transport, 0)
	if params["Action"] != "ConfirmSubscription" {
		t.Errorf("expected Action 'ConfirmSubscription', got '%s'", params["Action"])
	}
	if params["Token"] != "51b2ff3edb475b7d91550e0ab6edf0c1" {
		t.Errorf("unexpected Token '%s'", params["Token"])
	}
	if params["AuthenticateOnUnsubscribe"] != "true" {
		t.Errorf("expected AuthenticateOnUnsubscribe 'true', got '%s'", params["AuthenticateOnUnsubscribe"])
	}
}

func TestConfirmSubscriptionDefaultFlag(t *testing.T) {
	body := `<ConfirmSubscriptionResponse>
  <ConfirmSubscriptionResult>
    <SubscriptionArn>arn:aws:sns:us-east-1:123456789012:events:c7fe3a54-ab0e-4ec2-88e0-db410a0f2bee</SubscriptionArn>
  </ConfirmSubscriptionResult>
  <ResponseMetadata>
    <RequestId>7a50221f-3774-11df-a9b7-05d48da6f042</RequestId>
  </ResponseMetadata>
</ConfirmSubscriptionResponse>`

	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: body}}}
	sns := newTestSNS(t, transport)

	if _, err := sns.ConfirmSubscription(context.Background(), topicArn, "token"); err != nil {
		t.Fatalf("ConfirmSubscription failed: %v", err)
	}

	params := queryParams(t, transport, 0)
	if _, ok := params["AuthenticateOnUnsubscribe"]; ok {
		t.Error("expected no AuthenticateOnUnsubscribe without the option")
	}
}

func TestUnsubscribe(t *testing.T) {
	body := `<UnsubscribeResponse>
  <ResponseMetadata>
    <RequestId>18e0ac39-3776-11df-84c0-b93cc1666b84</RequestId>
  </ResponseMetadata>
</UnsubscribeResponse>`

	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: body}}}
	sns := newTestSNS(t, transport)

	requestID, err := sns.Unsubscribe(context.Background(), topicArn+":c7fe3a54-ab0e-4ec2-88e0-db410a0f2bee")
	if err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if requestID != "18e0ac39-3776-11df-84c0-b93cc1666b84" {
		t.Errorf("unexpected request ID '%s'", requestID)
	}

	params := queryParams(t, transport, 0)
	if params["Action"] != "Unsubscribe" {
		t.Errorf("expected Action 'Unsubscribe', got '%s'", params["Action"])
	}
}

func TestPublish(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: publishResponse}}}
	sns := newTestSNS(t, transport)

	messageID, err := sns.Publish(context.Background(), topicArn, "hello", WithSubject("greeting"))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if messageID != "94f20ce6-13c5-43a0-9a9e-ca52d816e90b" {
		t.Errorf("unexpected message ID '%s'", messageID)
	}

	params := queryParams(t, transport, 0)
	if params["Action"] != "Publish" {
		t.Errorf("expected Action 'Publish', got '%s'", params["Action"])
	}
	if params["Message"] != "hello" {
		t.Errorf("expected Message 'hello', got '%s'", params["Message"])
	}
	if params["Subject"] != "greeting" {
		t.Errorf("expected Subject 'greeting', got '%s'", params["Subject"])
	}
	if params["TopicArn"] != topicArn {
		t.Errorf("expected TopicArn '%s', got '%s'", topicArn, params["TopicArn"])
	}
	if _, ok := params["MessageStructure"]; ok {
		t.Error("expected no MessageStructure without the option")
	}
}

func TestPublishToTargetArn(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: publishResponse}}}
	sns := newTestSNS(t, transport)

	endpointArn := "arn:aws:sns:us-east-1:123456789012:endpoint/GCM/app/abcd1234"
	if _, err := sns.Publish(context.Background(), "", "hello", WithTargetArn(endpointArn)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	params := queryParams(t, transport, 0)
	if params["TargetArn"] != endpointArn {
		t.Errorf("expected TargetArn '%s', got '%s'", endpointArn, params["TargetArn"])
	}
	if _, ok := params["TopicArn"]; ok {
		t.Error("expected no TopicArn when publishing to a target ARN")
	}
}

func TestPublishInvalidMessageStructure(t *testing.T) {
	transport := &fakeTransport{}
	sns := newTestSNS(t, transport)

	_, err := sns.Publish(context.Background(), topicArn, "hello", WithMessageStructure("xml"))
	if !errors.Is(err, ErrInvalidMessageStructure) {
		t.Fatalf("expected ErrInvalidMessageStructure, got %v", err)
	}
	// Validation must fail before any request is made
	if len(transport.requests) != 0 {
		t.Errorf("expected no requests, got %d", len(transport.requests))
	}
}

func TestPublishJSON(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: publishResponse}}}
	sns := newTestSNS(t, transport)

	messageID, err := sns.PublishJSON(context.Background(), topicArn, map[string]string{"default": "hi"})
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}
	if messageID != "94f20ce6-13c5-43a0-9a9e-ca52d816e90b" {
		t.Errorf("unexpected message ID '%s'", messageID)
	}

	params := queryParams(t, transport, 0)
	if params["Message"] != `{"default":"hi"}` {
		t.Errorf("expected serialized mapping, got '%s'", params["Message"])
	}
	if params["MessageStructure"] != "json" {
		t.Errorf("expected MessageStructure 'json', got '%s'", params["MessageStructure"])
	}
}

func TestPublishMessageAttributes(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: publishResponse}}}
	sns := newTestSNS(t, transport)

	attrs := map[string]MessageAttribute{
		"event_type": {DataType: "String", StringValue: "OrderCreated"},
		"binary":     {DataType: "Binary", BinaryValue: "aGVsbG8="},
	}
	if _, err := sns.Publish(context.Background(), topicArn, "hello", WithMessageAttributes(attrs)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Entries are indexed in sorted attribute-name order
	params := queryParams(t, transport, 0)
	if params["MessageAttributes.entry.1.Name"] != "binary" {
		t.Errorf("expected entry 1 'binary', got '%s'", params["MessageAttributes.entry.1.Name"])
	}
	if params["MessageAttributes.entry.1.Value.DataType"] != "Binary" {
		t.Errorf("expected entry 1 DataType 'Binary', got '%s'", params["MessageAttributes.entry.1.Value.DataType"])
	}
	if params["MessageAttributes.entry.1.Value.BinaryValue"] != "aGVsbG8=" {
		t.Errorf("expected entry 1 BinaryValue 'aGVsbG8=', got '%s'", params["MessageAttributes.entry.1.Value.BinaryValue"])
	}
	if params["MessageAttributes.entry.2.Name"] != "event_type" {
		t.Errorf("expected entry 2 'event_type', got '%s'", params["MessageAttributes.entry.2.Name"])
	}
	if params["MessageAttributes.entry.2.Value.StringValue"] != "OrderCreated" {
		t.Errorf("expected entry 2 StringValue 'OrderCreated', got '%s'", params["MessageAttributes.entry.2.Value.StringValue"])
	}
}

func TestSNSEndpointOverride(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: publishResponse}}}
	sns := newTestSNS(t, transport, WithEndpoint("http://localhost:4566"))

	if _, err := sns.Publish(context.Background(), topicArn, "hello"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if host := transport.requests[0].URL.Host; host != "localhost:4566" {
		t.Errorf("expected host 'localhost:4566', got '%s'", host)
	}
}
