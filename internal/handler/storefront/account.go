package storefront

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/cookie"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/middleware"
	"github.com/dukerupert/academy/internal/service"
)

type AccountConfig struct {
	Cookies *cookie.Config

	// MarketingTTL is how long a followed marketing link is remembered.
	MarketingTTL time.Duration

	// FrontendURL is where marketing links land.
	FrontendURL string
}

// AccountHandler handles signup, login and the marketing link redirect.
type AccountHandler struct {
	accounts service.AccountService
	config   AccountConfig
}

func NewAccountHandler(accounts service.AccountService, config AccountConfig) *AccountHandler {
	return &AccountHandler{accounts: accounts, config: config}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type authResponse struct {
	User      handler.UserResponse `json:"user"`
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func (h *AccountHandler) startSession(w http.ResponseWriter, status int, result *service.AuthResult) {
	h.config.Cookies.SetSession(w, result.Token, result.ExpiresAt)
	handler.JSON(w, status, authResponse{
		User:      handler.NewUserResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// Signup handles POST /signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.accounts.Signup(r.Context(), service.SignupParams{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Password:      req.Password,
		MarketingCode: cookie.Get(r, cookie.MarketingCookieName),
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.startSession(w, http.StatusCreated, result)
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required,max=20"`
	Password string `json:"password" validate:"required,max=72"`
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.startSession(w, http.StatusOK, result)
}

// Logout handles POST /logout. It always clears the cookie.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.accounts.Logout(r.Context(), token); err != nil {
			middleware.GetLogger(r.Context()).Warn("failed to delete session", "error", err)
		}
	}
	h.config.Cookies.ClearSession(w)
	handler.NoContent(w)
}

// Me handles GET /me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	handler.OK(w, handler.NewUserResponse(handler.CurrentUser(r)))
}

// MyCourses handles GET /my-courses
func (h *AccountHandler) MyCourses(w http.ResponseWriter, r *http.Request) {
	owned, err := h.accounts.MyCourses(r.Context(), handler.CurrentUser(r).ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{
		"courses": handler.MapSlice(owned, handler.NewOwnedCourseResponse),
	})
}

// MarketingLink handles GET /m/{code}: counts the click, remembers the code
// and redirects to the front-end. Unknown codes redirect without the cookie.
func (h *AccountHandler) MarketingLink(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	target := strings.TrimSuffix(h.config.FrontendURL, "/") + "/"

	link, err := h.accounts.TrackLinkClick(r.Context(), code)
	switch {
	case errors.Is(err, service.ErrMarketingLink):
		middleware.GetLogger(r.Context()).Info("unknown marketing code", "code", code)
	case err != nil:
		middleware.GetLogger(r.Context()).Error("failed to track marketing link", "code", code, "error", err)
	default:
		h.config.Cookies.SetMarketingCode(w, code, h.config.MarketingTTL)
		if link.CourseID != uuid.Nil {
			target += "courses/" + url.PathEscape(link.CourseID.String())
		}
	}

	http.Redirect(w, r, target, http.StatusFound)
}
