// Package gateway abstracts the payment gateways used by checkout and wallet
// top-ups. A Provider issues a payment identifier with a redirect URL, parses
// the gateway's callback and verifies the payment amount.
package gateway

import (
	"context"
	"net/url"
)

// Callback statuses reported by ParseCallback.
const (
	StatusOK     = "OK"
	StatusFailed = "NOK"
)

// Provider defines the interface for a payment gateway.
type Provider interface {
	// Name is the method key used in routes and stored on payment rows.
	Name() string

	// GetIdentifier registers a payment of Amount with the gateway and returns
	// the identifier (authority) together with the URL the payer is sent to.
	GetIdentifier(ctx context.Context, params IdentifierParams) (*Identifier, error)

	// ParseCallback extracts the identifier and status from the query string the
	// gateway redirects back with.
	ParseCallback(query url.Values) (*TransactionResponse, error)

	// Verify confirms with the gateway that identifier was paid for amount.
	Verify(ctx context.Context, identifier string, amount int64) (*Verification, error)
}

// IdentifierParams contains parameters for requesting a payment identifier.
type IdentifierParams struct {
	// Amount in toman.
	Amount int64

	// CallbackURL is where the gateway redirects the payer afterwards.
	CallbackURL string

	Description string
	Phone       string
	Email       string

	// Reference is an opaque id echoed back by gateways that support it.
	Reference string
}

// Identifier is a gateway-issued payment identifier.
type Identifier struct {
	Value string
	URL   string
}

// TransactionResponse is the parsed callback.
type TransactionResponse struct {
	Identifier string
	Status     string
}

// OK reports whether the payer completed the payment on the gateway side.
func (r *TransactionResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

// Verification is the outcome of a successful Verify call.
type Verification struct {
	// TransactionCode is the gateway's reference for the settled payment.
	TransactionCode string

	// AlreadyVerified is set when the gateway reports a repeat verification.
	AlreadyVerified bool

	// Payload is the raw gateway response kept for auditing.
	Payload []byte
}
