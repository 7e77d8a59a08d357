package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/academy/internal/cookie"
	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/service"
)

// =============================================================================
// Mocks
// =============================================================================

type mockAccountService struct {
	service.AccountService

	signupFunc    func(ctx context.Context, params service.SignupParams) (*service.AuthResult, error)
	trackLinkFunc func(ctx context.Context, code string) (*service.MarketingLink, error)
	loggedOut     string
}

func (m *mockAccountService) Signup(ctx context.Context, params service.SignupParams) (*service.AuthResult, error) {
	return m.signupFunc(ctx, params)
}

func (m *mockAccountService) Logout(_ context.Context, token string) error {
	m.loggedOut = token
	return nil
}

func (m *mockAccountService) TrackLinkClick(ctx context.Context, code string) (*service.MarketingLink, error) {
	return m.trackLinkFunc(ctx, code)
}

type mockPricingService struct {
	service.PricingService

	checkCouponFunc func(ctx context.Context, code string, viewerID uuid.UUID) (*pricing.Discount, error)
	cartTotalCalls  int
}

func (m *mockPricingService) CartTotal(_ context.Context, courseIDs []uuid.UUID, _ string, _ uuid.UUID) (*pricing.Totals, error) {
	m.cartTotalCalls++
	return &pricing.Totals{TotalPrice: 1000 * int64(len(courseIDs)), PayablePrice: 1000 * int64(len(courseIDs))}, nil
}

func (m *mockPricingService) CheckCoupon(ctx context.Context, code string, viewerID uuid.UUID) (*pricing.Discount, error) {
	return m.checkCouponFunc(ctx, code, viewerID)
}

type mockCheckoutService struct {
	service.CheckoutService

	got service.InitiateParams
	err error
}

func (m *mockCheckoutService) Initiate(_ context.Context, params service.InitiateParams) (*service.InitiateResult, error) {
	m.got = params
	if m.err != nil {
		return nil, m.err
	}
	return &service.InitiateResult{URL: "https://pay.example/StartPay/A1", Authority: "A1"}, nil
}

type mockWalletService struct {
	service.WalletService

	got service.ChargeParams
}

func (m *mockWalletService) Charge(_ context.Context, params service.ChargeParams) (*service.ChargeResult, error) {
	m.got = params
	return &service.ChargeResult{URL: "https://pay.example/StartPay/W1", Authority: "W1"}, nil
}

type mockRoadmapService struct {
	service.RoadmapService

	finishFunc func(ctx context.Context, userID uuid.UUID) (*service.FinishRoadmapResult, error)
}

func (m *mockRoadmapService) FinishRoadmap(ctx context.Context, userID uuid.UUID) (*service.FinishRoadmapResult, error) {
	return m.finishFunc(ctx, userID)
}

func signedIn(r *http.Request) (*http.Request, *domain.User) {
	u := &domain.User{ID: uuid.New(), Name: "Reza", Phone: "09120000000", Role: domain.RoleUser}
	return r.WithContext(domain.NewContextWithUser(r.Context(), u)), u
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// =============================================================================
// Account
// =============================================================================

func newAccountHandler(svc service.AccountService) *AccountHandler {
	return NewAccountHandler(svc, AccountConfig{
		Cookies:      cookie.NewConfig("", true),
		MarketingTTL: 30 * 24 * time.Hour,
		FrontendURL:  "https://academy.example/",
	})
}

func TestAccountHandler_Signup(t *testing.T) {
	expires := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	var got service.SignupParams
	svc := &mockAccountService{signupFunc: func(_ context.Context, p service.SignupParams) (*service.AuthResult, error) {
		got = p
		return &service.AuthResult{
			User:      &domain.User{ID: uuid.New(), Name: p.Name, Phone: p.Phone, Role: domain.RoleUser},
			Token:     "tok",
			ExpiresAt: expires,
		}, nil
	}}

	req := httptest.NewRequest(http.MethodPost, "/signup",
		strings.NewReader(`{"name":"Reza","phone":"09120000000","password":"secret123"}`))
	req.AddCookie(&http.Cookie{Name: cookie.MarketingCookieName, Value: "MK1"})
	rec := httptest.NewRecorder()
	newAccountHandler(svc).Signup(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "MK1", got.MarketingCode)

	session := findCookie(rec, cookie.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, "tok", session.Value)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Reza", body["user"].(map[string]any)["name"])
	assert.NotContains(t, rec.Body.String(), "secret123")
}

func TestAccountHandler_SignupConflict(t *testing.T) {
	svc := &mockAccountService{signupFunc: func(context.Context, service.SignupParams) (*service.AuthResult, error) {
		return nil, service.ErrPhoneTaken
	}}

	rec := httptest.NewRecorder()
	newAccountHandler(svc).Signup(rec, httptest.NewRequest(http.MethodPost, "/signup",
		strings.NewReader(`{"name":"Reza","phone":"09120000000","password":"secret123"}`)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Nil(t, findCookie(rec, cookie.SessionCookieName))
}

func TestAccountHandler_Logout(t *testing.T) {
	svc := &mockAccountService{}
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	newAccountHandler(svc).Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "tok", svc.loggedOut)
	cleared := findCookie(rec, cookie.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestAccountHandler_MarketingLink(t *testing.T) {
	courseID := uuid.New()
	tests := []struct {
		name       string
		code       string
		link       *service.MarketingLink
		err        error
		wantTarget string
		wantCookie bool
	}{
		{
			name:       "general link",
			code:       "GEN",
			link:       &service.MarketingLink{MarketerID: uuid.New()},
			wantTarget: "https://academy.example/",
			wantCookie: true,
		},
		{
			name:       "course link",
			code:       "CRS",
			link:       &service.MarketingLink{MarketerID: uuid.New(), CourseID: courseID},
			wantTarget: "https://academy.example/courses/" + courseID.String(),
			wantCookie: true,
		},
		{
			name:       "unknown code",
			code:       "NOPE",
			err:        service.ErrMarketingLink.WithOp("account.track_link_click"),
			wantTarget: "https://academy.example/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{trackLinkFunc: func(_ context.Context, code string) (*service.MarketingLink, error) {
				assert.Equal(t, tt.code, code)
				return tt.link, tt.err
			}}
			mux := http.NewServeMux()
			mux.HandleFunc("GET /m/{code}", newAccountHandler(svc).MarketingLink)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/m/"+tt.code, nil))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.wantTarget, rec.Header().Get("Location"))

			ref := findCookie(rec, cookie.MarketingCookieName)
			if tt.wantCookie {
				require.NotNil(t, ref)
				assert.Equal(t, tt.code, ref.Value)
				assert.Equal(t, 30*24*60*60, ref.MaxAge)
			} else {
				assert.Nil(t, ref)
			}
		})
	}
}

// =============================================================================
// Catalog
// =============================================================================

func TestCatalogHandler_CartTotalMalformedBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		property string
	}{
		{"malformed course id", `{"courses":["x"]}`, "courses"},
		{"courses not a list", `{"courses":"x"}`, "courses"},
		{"truncated json", `{"courses":`, "body"},
		{"empty body", ``, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPricingService{}
			h := NewCatalogHandler(nil, svc)

			rec := httptest.NewRecorder()
			h.CartTotal(rec, httptest.NewRequest(http.MethodPost, "/cart-total", strings.NewReader(tt.body)))

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			var props []domain.PropertyErrors
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&props))
			require.Len(t, props, 1)
			assert.Equal(t, tt.property, props[0].Property)
			assert.NotEmpty(t, props[0].Errors)
			assert.Zero(t, svc.cartTotalCalls)
		})
	}
}

func TestCatalogHandler_CartTotal(t *testing.T) {
	svc := &mockPricingService{}
	h := NewCatalogHandler(nil, svc)

	rec := httptest.NewRecorder()
	h.CartTotal(rec, httptest.NewRequest(http.MethodPost, "/cart-total",
		strings.NewReader(`{"courses":["`+uuid.NewString()+`","`+uuid.NewString()+`"]}`)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, svc.cartTotalCalls)
}

func TestCatalogHandler_CheckCouponCode(t *testing.T) {
	end := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	svc := &mockPricingService{checkCouponFunc: func(_ context.Context, code string, _ uuid.UUID) (*pricing.Discount, error) {
		if code != "SPRING" {
			return nil, domain.NewValidationError("pricing.check_coupon", "code", "is not a valid coupon")
		}
		return &pricing.Discount{Code: code, Amount: 20, AmountType: domain.AmountPercent, EmmitTo: domain.ScopeAllCourses, EndDate: end}, nil
	}}
	h := NewCatalogHandler(nil, svc)

	rec := httptest.NewRecorder()
	h.CheckCouponCode(rec, httptest.NewRequest(http.MethodPost, "/check-coupon-code", strings.NewReader(`{"code":"SPRING"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"SPRING","amount":20,"amount_type":"percent","emmit_to":"allCourses","end_date":"2026-12-01T00:00:00Z"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.CheckCouponCode(rec, httptest.NewRequest(http.MethodPost, "/check-coupon-code", strings.NewReader(`{"code":"WINTER"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// =============================================================================
// Payments
// =============================================================================

func TestPaymentHandler_CoursePayment(t *testing.T) {
	checkout := &mockCheckoutService{}
	h := NewPaymentHandler(checkout, &mockWalletService{})
	courseID := uuid.New()

	req, user := signedIn(httptest.NewRequest(http.MethodPost, "/course-payment",
		strings.NewReader(`{"courses":["`+courseID.String()+`"],"coupon_code":"SPRING","method":"zarinpal"}`)))
	req.AddCookie(&http.Cookie{Name: cookie.MarketingCookieName, Value: "MK1"})
	rec := httptest.NewRecorder()
	h.CoursePayment(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, user, checkout.got.User)
	assert.Equal(t, []uuid.UUID{courseID}, checkout.got.CourseIDs)
	assert.Equal(t, "SPRING", checkout.got.CouponCode)
	assert.Equal(t, "MK1", checkout.got.MarketingCode)
	assert.Contains(t, rec.Body.String(), `"url":"https://pay.example/StartPay/A1"`)
}

func TestPaymentHandler_CoursePaymentErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"payments disabled", service.ErrPaymentsDisabled, http.StatusPaymentRequired},
		{"insufficient wallet", service.ErrInsufficientBalance, http.StatusPaymentRequired},
		{"gateway refused", service.ErrGatewayIdentifier, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPaymentHandler(&mockCheckoutService{err: tt.err}, &mockWalletService{})
			req, _ := signedIn(httptest.NewRequest(http.MethodPost, "/course-payment",
				strings.NewReader(`{"courses":["`+uuid.NewString()+`"],"method":"wallet"}`)))
			rec := httptest.NewRecorder()
			h.CoursePayment(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPaymentHandler_WalletPayment(t *testing.T) {
	wallet := &mockWalletService{}
	h := NewPaymentHandler(&mockCheckoutService{}, wallet)

	req, user := signedIn(httptest.NewRequest(http.MethodPost, "/wallet-payment",
		strings.NewReader(`{"amount":50000,"method":"zarinpal"}`)))
	rec := httptest.NewRecorder()
	h.WalletPayment(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, wallet.got.User.ID)
	assert.Equal(t, int64(50000), wallet.got.Amount)
	assert.JSONEq(t, `{"url":"https://pay.example/StartPay/W1","authority":"W1"}`, rec.Body.String())
}

// =============================================================================
// Roadmap
// =============================================================================

func TestRoadmapHandler_Finish(t *testing.T) {
	bundleID, courseID := uuid.New(), uuid.New()
	tests := []struct {
		name     string
		gift     *repository.Discount
		err      error
		status   int
		wantGift bool
	}{
		{
			name:     "with gift code",
			gift:     &repository.Discount{ID: uuid.New(), Amount: 30, AmountType: domain.AmountPercent, Type: domain.DiscountTypeCode},
			status:   http.StatusOK,
			wantGift: true,
		},
		{name: "without gift code", status: http.StatusOK},
		{name: "not last course", err: service.ErrNotLastCourse, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRoadmapService{finishFunc: func(_ context.Context, userID uuid.UUID) (*service.FinishRoadmapResult, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &service.FinishRoadmapResult{
					Roadmap: repository.UserRoadmap{
						ID: uuid.New(), UserID: userID, BundleID: bundleID, CurrentCourseID: courseID,
						FinishedCourses: []uuid.UUID{courseID}, Status: "finished",
					},
					GiftCode: tt.gift,
				}, nil
			}}

			req, _ := signedIn(httptest.NewRequest(http.MethodPost, "/user-roadmap/finish-roadmap", nil))
			rec := httptest.NewRecorder()
			NewRoadmapHandler(svc).Finish(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "finished", body["roadmap"].(map[string]any)["status"])
			_, hasGift := body["gift_code"]
			assert.Equal(t, tt.wantGift, hasGift)
		})
	}
}
