package payments

import (
	"context"
	"sync"
	"time"
)

// MockClient is a mock payment gateway client for testing
type MockClient struct {
	mu         sync.Mutex
	confirmErr error
	settled    map[string]*Receipt // idempotency key -> receipt
	calls      int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithConfirmError sets an error to return from ConfirmPayment
func WithConfirmError(err error) MockOption {
	return func(m *MockClient) {
		m.confirmErr = err
	}
}

// NewMockClient creates a mock payment client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		settled: make(map[string]*Receipt),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConfirmPayment implements Client. Repeated calls with the same
// idempotency key return the original receipt, matching gateway behavior.
func (m *MockClient) ConfirmPayment(ctx context.Context, charge Charge) (*Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	if receipt, ok := m.settled[charge.IdempotencyKey]; ok {
		return receipt, nil
	}

	receipt := &Receipt{
		TransactionID: "mock-txn-" + charge.IdempotencyKey,
		Amount:        charge.Amount,
		SettledAt:     time.Now(),
	}
	m.settled[charge.IdempotencyKey] = receipt
	return receipt, nil
}

// Calls returns how many times ConfirmPayment was invoked
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SetConfirmError changes the injected error after construction
func (m *MockClient) SetConfirmError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmErr = err
}
