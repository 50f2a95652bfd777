// Package query implements the generic AWS query-protocol invoker: it signs
// GET requests with SigV4 query parameters, sends them through an injected
// HTTP transport and parses the XML response body into a tree.
package query

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelcam/go-aws-query/internal/sigv4"
	"github.com/angelcam/go-aws-query/internal/xmltree"
	"github.com/angelcam/go-aws-query/pkg/awserr"
)

// HTTPClient is the transport contract. *http.Client satisfies it; tests
// substitute a stub. Retries, pooling, TLS and timeouts are the transport's
// concern.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives per-request metrics. Outcome is one of "success",
// "api_error" or "transport_error".
type Recorder interface {
	IncRequests(service, action, outcome string)
	ObserveRequestDuration(service, action string, seconds float64)
}

type noopRecorder struct{}

func (noopRecorder) IncRequests(service, action, outcome string) {}

func (noopRecorder) ObserveRequestDuration(service, action string, sec float64) {}

// Credentials holds the static AWS key pair used for signing. Immutable for
// the lifetime of an Invoker.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Invoker signs and issues query-protocol GET requests for one service in
// one region. It keeps no mutable state between calls, so a single Invoker
// is safe for concurrent use.
type Invoker struct {
	httpClient HTTPClient
	creds      Credentials
	region     string
	service    string
	logger     zerolog.Logger
	metrics    Recorder
	now        func() time.Time
}

// NewInvoker creates an invoker for the given service (e.g. "sqs", "sns",
// "monitoring"). A nil metrics recorder disables recording.
func NewInvoker(httpClient HTTPClient, creds Credentials, region, service string, logger zerolog.Logger, metrics Recorder) *Invoker {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Invoker{
		httpClient: httpClient,
		creds:      creds,
		region:     region,
		service:    service,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// SetNow overrides the clock used for request timestamps. Test hook.
func (inv *Invoker) SetNow(now func() time.Time) {
	inv.now = now
}

// Region returns the region the invoker signs for.
func (inv *Invoker) Region() string {
	return inv.region
}

// Invoke signs the given business parameters, issues the GET request against
// baseURL and returns the parsed response document. A non-2xx status yields
// an *awserr.APIError built from the status code and reason phrase; the XML
// error body is not parsed. Transport failures surface unwrapped.
//
// The parameter map is copied before the SigV4 parameters are merged in, so
// callers can reuse their maps freely. Callers must not supply the reserved
// X-Amz-* parameter names.
func (inv *Invoker) Invoke(ctx context.Context, baseURL string, params map[string]string) (*xmltree.Node, error) {
	action := params["Action"]
	start := inv.now().UTC()
	amzDate := start.Format("20060102T150405Z")
	date := start.Format("20060102")

	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("query: invalid base URL %q: %w", baseURL, err)
	}

	scope := sigv4.CredentialScope(date, inv.region, inv.service)

	signed := make(map[string]string, len(params)+4)
	for k, v := range params {
		signed[k] = v
	}
	signed["X-Amz-Algorithm"] = sigv4.Algorithm
	signed["X-Amz-Credential"] = inv.creds.AccessKeyID + "/" + scope
	signed["X-Amz-Date"] = amzDate
	signed["X-Amz-SignedHeaders"] = sigv4.SignedHeaders

	canonicalQuery := sigv4.CanonicalQueryString(signed)
	canonical := sigv4.CanonicalRequest(http.MethodGet, target.EscapedPath(), canonicalQuery, target.Host)
	stringToSign := sigv4.StringToSign(amzDate, scope, canonical)

	key := sigv4.DeriveKey(inv.creds.SecretAccessKey, date, inv.region, inv.service)
	signature := hex.EncodeToString(sigv4.HMACSHA256(key, stringToSign))

	requestURL := baseURL + "?" + canonicalQuery + "&X-Amz-Signature=" + signature

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("query: build request: %w", err)
	}

	resp, err := inv.httpClient.Do(req)
	elapsed := inv.now().UTC().Sub(start)
	inv.metrics.ObserveRequestDuration(inv.service, action, elapsed.Seconds())
	if err != nil {
		inv.metrics.IncRequests(inv.service, action, "transport_error")
		inv.logger.Error().
			Str("service", inv.service).
			Str("action", action).
			Err(err).
			Msg("Request transport failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		inv.metrics.IncRequests(inv.service, action, "transport_error")
		return nil, fmt.Errorf("query: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		inv.metrics.IncRequests(inv.service, action, "api_error")
		reason := reasonPhrase(resp)
		inv.logger.Warn().
			Str("service", inv.service).
			Str("action", action).
			Int("status", resp.StatusCode).
			Str("reason", reason).
			Msg("Request rejected")
		return nil, awserr.New(resp.StatusCode, reason)
	}

	doc, err := xmltree.Parse(body)
	if err != nil {
		inv.metrics.IncRequests(inv.service, action, "api_error")
		return nil, fmt.Errorf("query: parse response: %w", err)
	}

	inv.metrics.IncRequests(inv.service, action, "success")
	inv.logger.Debug().
		Str("service", inv.service).
		Str("action", action).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Msg("Request completed")

	return doc, nil
}

// reasonPhrase extracts the textual reason from the response status line,
// falling back to the standard text for the code.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
