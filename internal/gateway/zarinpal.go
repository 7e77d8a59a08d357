package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	zarinpalAPIHost     = "https://payment.zarinpal.com"
	zarinpalSandboxHost = "https://sandbox.zarinpal.com"

	zarinpalCodeSuccess         = 100
	zarinpalCodeAlreadyVerified = 101
)

// ZarinpalProvider implements Provider against the Zarinpal REST v4 API.
type ZarinpalProvider struct {
	merchantID string
	host       string
	client     *http.Client
}

// ZarinpalOption configures a ZarinpalProvider.
type ZarinpalOption func(*ZarinpalProvider)

// WithZarinpalHost overrides the API host. Used by tests.
func WithZarinpalHost(host string) ZarinpalOption {
	return func(p *ZarinpalProvider) { p.host = host }
}

func WithZarinpalHTTPClient(c *http.Client) ZarinpalOption {
	return func(p *ZarinpalProvider) { p.client = c }
}

func NewZarinpalProvider(merchantID string, sandbox bool, opts ...ZarinpalOption) *ZarinpalProvider {
	p := &ZarinpalProvider{
		merchantID: merchantID,
		host:       zarinpalAPIHost,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
	if sandbox {
		p.host = zarinpalSandboxHost
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ZarinpalProvider) Name() string { return "zarinpal" }

type zarinpalRequest struct {
	MerchantID  string            `json:"merchant_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	CallbackURL string            `json:"callback_url"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type zarinpalVerifyRequest struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

// zarinpalResponse mirrors the v4 envelope. data and errors are either an
// object or an empty array depending on the outcome.
type zarinpalResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type zarinpalData struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Authority string `json:"authority"`
	RefID     int64  `json:"ref_id"`
	CardPan   string `json:"card_pan"`
}

type zarinpalErrors struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p *ZarinpalProvider) GetIdentifier(ctx context.Context, params IdentifierParams) (*Identifier, error) {
	req := zarinpalRequest{
		MerchantID:  p.merchantID,
		Amount:      params.Amount,
		Currency:    "IRT",
		CallbackURL: params.CallbackURL,
		Description: params.Description,
	}
	if params.Phone != "" || params.Email != "" {
		req.Metadata = map[string]string{}
		if params.Phone != "" {
			req.Metadata["mobile"] = params.Phone
		}
		if params.Email != "" {
			req.Metadata["email"] = params.Email
		}
	}

	data, _, err := p.post(ctx, "/pg/v4/payment/request.json", req)
	if err != nil {
		return nil, err
	}
	if data.Authority == "" {
		return nil, ErrEmptyIdentifier
	}

	return &Identifier{
		Value: data.Authority,
		URL:   p.host + "/pg/StartPay/" + url.PathEscape(data.Authority),
	}, nil
}

// ParseCallback reads the Authority and Status query parameters.
func (p *ZarinpalProvider) ParseCallback(query url.Values) (*TransactionResponse, error) {
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

func (p *ZarinpalProvider) Verify(ctx context.Context, identifier string, amount int64) (*Verification, error) {
	data, raw, err := p.post(ctx, "/pg/v4/payment/verify.json", zarinpalVerifyRequest{
		MerchantID: p.merchantID,
		Amount:     amount,
		Authority:  identifier,
	})
	if err != nil {
		return nil, err
	}
	return &Verification{
		TransactionCode: strconv.FormatInt(data.RefID, 10),
		AlreadyVerified: data.Code == zarinpalCodeAlreadyVerified,
		Payload:         raw,
	}, nil
}

// post sends body and decodes the envelope. Any code other than 100 or 101
// is returned as an *Error carrying the raw payload.
func (p *ZarinpalProvider) post(ctx context.Context, path string, body any) (*zarinpalData, []byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("zarinpal: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(buf))
	if err != nil {
		return nil, nil, fmt.Errorf("zarinpal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, &Error{Gateway: p.Name(), Message: "request failed", OriginalError: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, &Error{Gateway: p.Name(), Message: "read response", OriginalError: err}
	}

	var env zarinpalResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, raw, &Error{Gateway: p.Name(), Message: "decode response", Payload: raw, OriginalError: err}
	}

	var data zarinpalData
	if isJSONObject(env.Data) {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, raw, &Error{Gateway: p.Name(), Message: "decode data", Payload: raw, OriginalError: err}
		}
	}
	if data.Code == zarinpalCodeSuccess || data.Code == zarinpalCodeAlreadyVerified {
		return &data, raw, nil
	}

	ge := &Error{Gateway: p.Name(), Code: data.Code, Message: data.Message, Payload: raw}
	if isJSONObject(env.Errors) {
		var e zarinpalErrors
		if json.Unmarshal(env.Errors, &e) == nil {
			ge.Code = e.Code
			ge.Message = e.Message
		}
	}
	if ge.Message == "" {
		ge.Message = fmt.Sprintf("unexpected response (http %d)", resp.StatusCode)
	}
	return nil, raw, ge
}

func isJSONObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
