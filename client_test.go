package awsquery

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fakeResponse is one canned HTTP exchange served by fakeTransport.
type fakeResponse struct {
	status int
	body   string
}

// fakeTransport serves canned responses in order, repeating the last one,
// and records every request it sees.
type fakeTransport struct {
	responses []fakeResponse
	err       error
	requests  []*http.Request
}

func (t *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	t.requests = append(t.requests, req)
	if t.err != nil {
		return nil, t.err
	}

	resp := fakeResponse{status: http.StatusOK, body: "<Empty/>"}
	if len(t.responses) > 0 {
		resp = t.responses[0]
		if len(t.responses) > 1 {
			t.responses = t.responses[1:]
		}
	}
	return &http.Response{
		StatusCode: resp.status,
		Status:     fmt.Sprintf("%d %s", resp.status, http.StatusText(resp.status)),
		Body:       io.NopCloser(strings.NewReader(resp.body)),
	}, nil
}

func newTestClient(t *testing.T, transport *fakeTransport, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{
		WithCredentials("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"),
		WithRegion("us-east-1"),
		WithAccountID("123456789012"),
		WithHTTPClient(transport),
		WithLogger(zerolog.Nop()),
	}, opts...)

	client, err := New(opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return client
}

// queryParams decodes the query string of the i-th recorded request.
func queryParams(t *testing.T, transport *fakeTransport, i int) map[string]string {
	t.Helper()

	if i >= len(transport.requests) {
		t.Fatalf("expected at least %d requests, got %d", i+1, len(transport.requests))
	}
	params := make(map[string]string)
	for key, values := range transport.requests[i].URL.Query() {
		params[key] = values[0]
	}
	return params
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(WithRegion("us-east-1"))
	if !errors.Is(err, ErrCredentialsRequired) {
		t.Errorf("expected ErrCredentialsRequired, got %v", err)
	}
}

func TestNewRequiresRegion(t *testing.T) {
	_, err := New(
		WithCredentials("key", "secret"),
		WithRegion(""),
	)
	if !errors.Is(err, ErrRegionRequired) {
		t.Errorf("expected ErrRegionRequired, got %v", err)
	}
}

func TestSQSRequiresAccountID(t *testing.T) {
	client, err := New(
		WithCredentials("key", "secret"),
		WithRegion("us-east-1"),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := client.SQS(); !errors.Is(err, ErrAccountIDRequired) {
		t.Errorf("expected ErrAccountIDRequired, got %v", err)
	}

	// SNS does not embed the account in its URLs
	if client.SNS() == nil {
		t.Error("expected SNS client without account ID")
	}
}

func TestClientReturnsSameServiceClients(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})

	sqs1, err := client.SQS()
	if err != nil {
		t.Fatalf("SQS() failed: %v", err)
	}
	sqs2, _ := client.SQS()
	if sqs1 != sqs2 {
		t.Error("expected SQS() to return the same client")
	}

	if client.SNS() != client.SNS() {
		t.Error("expected SNS() to return the same client")
	}
}

func TestPrometheusDisabledByDefault(t *testing.T) {
	client := newTestClient(t, &fakeTransport{})

	if client.PrometheusEnabled() {
		t.Error("expected Prometheus metrics to be disabled by default")
	}
	if client.PrometheusHandler() != nil {
		t.Error("expected nil Prometheus handler when disabled")
	}
}
