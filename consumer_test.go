package awsquery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

const consumerReceiveResponse = `<ReceiveMessageResponse>
  <ReceiveMessageResult>
    <Message>
      <MessageId>msg-1</MessageId>
      <ReceiptHandle>handle-1</ReceiptHandle>
      <MD5OfBody>900150983cd24fb0d6963f7d28e17f72</MD5OfBody>
      <Body>abc</Body>
    </Message>
  </ReceiveMessageResult>
  <ResponseMetadata>
    <RequestId>b6633655-283d-45b4-aee4-4e84e0ae6afa</RequestId>
  </ResponseMetadata>
</ReceiveMessageResponse>`

func TestStartConsumerHandlesAndDeletes(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: consumerReceiveResponse},
		{status: 200, body: batchDeleteResponse("")},
	}}
	client := newTestClient(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled ReceivedMessage
	var queueName, traceID string
	handler := func(ctx context.Context, msg ReceivedMessage) error {
		handled = msg
		queueName = QueueNameFromContext(ctx)
		traceID = TraceIDFromContext(ctx)
		// Stop the loop once the first message is through
		cancel()
		return nil
	}

	err := client.StartConsumer(ctx, "order-events", handler)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if handled.MessageID != "msg-1" {
		t.Errorf("expected handled message 'msg-1', got '%s'", handled.MessageID)
	}
	if queueName != "order-events" {
		t.Errorf("expected queue name 'order-events' in context, got '%s'", queueName)
	}
	if traceID == "" {
		t.Error("expected a trace ID in context")
	}

	// One receive, one batch delete for the handled message
	if len(transport.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(transport.requests))
	}
	del := queryParams(t, transport, 1)
	if del["Action"] != "DeleteMessageBatch" {
		t.Errorf("expected Action 'DeleteMessageBatch', got '%s'", del["Action"])
	}
	if del["DeleteMessageBatchRequestEntry.1.ReceiptHandle"] != "handle-1" {
		t.Errorf("expected handle-1 to be deleted, got '%s'",
			del["DeleteMessageBatchRequestEntry.1.ReceiptHandle"])
	}
}

func TestStartConsumerLeavesFailedMessages(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: consumerReceiveResponse},
	}}
	client := newTestClient(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context, msg ReceivedMessage) error {
		cancel()
		return errors.New("handler failed")
	}

	if err := client.StartConsumer(ctx, "order-events", handler); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// Failed messages must not be deleted
	for _, req := range transport.requests {
		if req.URL.Query().Get("Action") == "DeleteMessageBatch" {
			t.Error("expected no delete for a failed message")
		}
	}
}

func TestStartConsumerBacksOffOnReceiveErrors(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	client := newTestClient(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var receiveErrors int32
	onError := func(err error) {
		if atomic.AddInt32(&receiveErrors, 1) >= 3 {
			cancel()
		}
	}

	err := client.StartConsumer(ctx, "order-events", func(ctx context.Context, msg ReceivedMessage) error {
		t.Error("handler must not run without messages")
		return nil
	},
		WithOnError(onError),
		WithErrorBackoff(time.Millisecond, 5*time.Millisecond, 2.0),
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if n := atomic.LoadInt32(&receiveErrors); n < 3 {
		t.Errorf("expected at least 3 receive errors, got %d", n)
	}
}

func TestStartConsumerRequiresAccountID(t *testing.T) {
	client, err := New(
		WithCredentials("key", "secret"),
		WithRegion("us-east-1"),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	err = client.StartConsumer(context.Background(), "order-events", func(ctx context.Context, msg ReceivedMessage) error {
		return nil
	})
	if !errors.Is(err, ErrAccountIDRequired) {
		t.Errorf("expected ErrAccountIDRequired, got %v", err)
	}
}

func TestStartMultiConsumerRequiresQueues(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})

	err := client.StartMultiConsumer(context.Background(), nil, func(ctx context.Context, msg ReceivedMessage) error {
		return nil
	})
	if err == nil {
		t.Error("expected an error for an empty queue list")
	}
}

func TestSleepBackoffGrowth(t *testing.T) {
	cfg := errorBackoffConfig{
		initialDelay: time.Millisecond,
		maxDelay:     4 * time.Millisecond,
		multiplier:   2.0,
	}

	// Third consecutive error doubles twice: 1ms -> 2ms -> 4ms
	start := time.Now()
	if err := sleepBackoff(context.Background(), cfg, 3); err != nil {
		t.Fatalf("sleepBackoff failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 4*time.Millisecond {
		t.Errorf("expected at least 4ms of backoff, got %v", elapsed)
	}

	// Cancelled context aborts the wait
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepBackoff(ctx, cfg, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
