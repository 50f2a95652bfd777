package metrics

// NoopProvider is a no-operation metrics provider that does nothing.
// Used when metrics are disabled or as a fallback.
type NoopProvider struct{}

// NewNoopProvider creates a new no-operation metrics provider
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

var _ Provider = (*NoopProvider)(nil)

// Name returns the provider name
func (n *NoopProvider) Name() string {
	return string(ProviderTypeNoop)
}

// Enabled returns false as this provider does nothing
func (n *NoopProvider) Enabled() bool {
	return false
}

// IncRequests does nothing
func (n *NoopProvider) IncRequests(service, action, outcome string) {}

// ObserveRequestDuration does nothing
func (n *NoopProvider) ObserveRequestDuration(service, action string, seconds float64) {}

// IncMessagesConsumed does nothing
func (n *NoopProvider) IncMessagesConsumed(queue, status string) {}

// SetQueueDepth does nothing
func (n *NoopProvider) SetQueueDepth(queue string, depth float64) {}
