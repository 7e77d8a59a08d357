package gateway

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeProvider implements Provider with Stripe Checkout Sessions. The session
// id is the identifier; Stripe substitutes it into the success URL.
type StripeProvider struct {
	currency string

	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSession func(string, *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeProvider sets the package-level Stripe key and returns a provider
// charging in currency (e.g. "usd"). Amounts are passed through unchanged in
// the currency's smallest unit.
func NewStripeProvider(secretKey, currency string) *StripeProvider {
	stripe.Key = secretKey
	if currency == "" {
		currency = "usd"
	}
	return &StripeProvider{
		currency:   strings.ToLower(currency),
		newSession: checkoutsession.New,
		getSession: checkoutsession.Get,
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) GetIdentifier(ctx context.Context, params IdentifierParams) (*Identifier, error) {
	success := appendQuery(params.CallbackURL, "Status=OK&Authority={CHECKOUT_SESSION_ID}")
	cancel := appendQuery(params.CallbackURL, "Status=NOK")

	sp := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(params.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(success),
		CancelURL:  stripe.String(cancel),
	}
	if params.Email != "" {
		sp.CustomerEmail = stripe.String(params.Email)
	}
	if params.Reference != "" {
		sp.ClientReferenceID = stripe.String(params.Reference)
	}
	sp.Context = ctx

	session, err := p.newSession(sp)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	if session.ID == "" {
		return nil, ErrEmptyIdentifier
	}
	return &Identifier{Value: session.ID, URL: session.URL}, nil
}

// ParseCallback reads the query appended to the success or cancel URL. A
// canceled session carries no Authority; its rows are left to expire.
func (p *StripeProvider) ParseCallback(query url.Values) (*TransactionResponse, error) {
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

// Verify retrieves the session and requires it to be paid for exactly amount.
func (p *StripeProvider) Verify(ctx context.Context, identifier string, amount int64) (*Verification, error) {
	sp := &stripe.CheckoutSessionParams{}
	sp.Context = ctx
	sp.AddExpand("payment_intent")

	session, err := p.getSession(identifier, sp)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, &Error{Gateway: p.Name(), Message: "session not paid: " + string(session.PaymentStatus), OriginalError: ErrNotPaid}
	}
	if session.AmountTotal != amount {
		return nil, &Error{Gateway: p.Name(), Message: "amount mismatch", OriginalError: ErrAmountMismatch}
	}

	code := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		code = session.PaymentIntent.ID
	}
	return &Verification{TransactionCode: code}, nil
}

func wrapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &Error{
			Gateway:       "stripe",
			Message:       se.Msg,
			Payload:       []byte(se.Error()),
			OriginalError: err,
		}
	}
	return &Error{Gateway: "stripe", Message: "request failed", OriginalError: err}
}

func appendQuery(rawURL, query string) string {
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}
