package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// MockProvider is a mock gateway for testing.
// Simulates successful payment flows without calling a real gateway.
type MockProvider struct {
	// MethodName is returned by Name. Defaults to "mock".
	MethodName string

	// GetIdentifierFunc allows customizing identifier creation behavior
	GetIdentifierFunc func(ctx context.Context, params IdentifierParams) (*Identifier, error)

	// VerifyFunc allows customizing verification behavior
	VerifyFunc func(ctx context.Context, identifier string, amount int64) (*Verification, error)

	// Identifiers stores issued identifiers and their amounts
	Identifiers map[string]int64

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock gateway.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MethodName:  "mock",
		Identifiers: make(map[string]int64),
		CallLog:     []string{},
	}
}

func (m *MockProvider) Name() string {
	if m.MethodName == "" {
		return "mock"
	}
	return m.MethodName
}

func (m *MockProvider) GetIdentifier(ctx context.Context, params IdentifierParams) (*Identifier, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetIdentifier(%d)", params.Amount))

	if m.GetIdentifierFunc != nil {
		return m.GetIdentifierFunc(ctx, params)
	}

	// Default mock behavior: issue an identifier pointing at a fake pay page
	id := "A" + uuid.New().String()
	m.Identifiers[id] = params.Amount
	return &Identifier{Value: id, URL: "https://pay.example.com/" + id}, nil
}

func (m *MockProvider) ParseCallback(query url.Values) (*TransactionResponse, error) {
	m.CallLog = append(m.CallLog, "ParseCallback")

	authority := query.Get("Authority")
	if authority == "" {
		return nil, ErrInvalidCallback
	}
	status := StatusFailed
	if query.Get("Status") == StatusOK {
		status = StatusOK
	}
	return &TransactionResponse{Identifier: authority, Status: status}, nil
}

func (m *MockProvider) Verify(ctx context.Context, identifier string, amount int64) (*Verification, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("Verify(%s, %d)", identifier, amount))

	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, identifier, amount)
	}

	// Default mock behavior: verify when the amount matches the issued one
	if want, ok := m.Identifiers[identifier]; ok && want != amount {
		return nil, ErrAmountMismatch
	}
	return &Verification{TransactionCode: "T" + identifier}, nil
}

// Calls returns how many logged calls start with prefix.
func (m *MockProvider) Calls(prefix string) int {
	n := 0
	for _, c := range m.CallLog {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
