package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/academy/internal/auth"
	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/telemetry"
)

// AccountService provides signup, login and session lookup, plus the
// marketing-link attribution that happens around signup.
type AccountService interface {
	Signup(ctx context.Context, params SignupParams) (*AuthResult, error)
	Login(ctx context.Context, phone, password string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a session token to the viewer.
	Authenticate(ctx context.Context, token string) (*domain.User, error)

	// TrackLinkClick resolves a marketing code and counts the click.
	TrackLinkClick(ctx context.Context, code string) (*MarketingLink, error)

	MyCourses(ctx context.Context, userID uuid.UUID) ([]OwnedCourse, error)
}

type SignupParams struct {
	Name          string
	Phone         string
	Email         string
	Password      string
	MarketingCode string
}

// AuthResult is a signed-in user and the session to put in the cookie.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// MarketingLink is a resolved marketing code. CourseID is set for
// course-specific links.
type MarketingLink struct {
	MarketerID uuid.UUID
	CourseID   uuid.UUID
}

type OwnedCourse struct {
	Course      repository.Course
	PaidAmount  int64
	Method      string
	PurchasedAt time.Time
}

type AccountConfig struct {
	SessionTTL time.Duration

	// MarketerRegistrationDays is how long a signup stays attributed to the
	// marketer whose link brought the user in.
	MarketerRegistrationDays int
}

type accountService struct {
	repo      repository.Querier
	hasher    *auth.Hasher
	analytics AnalyticsService
	config    AccountConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewAccountService(repo repository.Querier, hasher *auth.Hasher, analytics AnalyticsService, config AccountConfig, logger *slog.Logger) AccountService {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 30 * 24 * time.Hour
	}
	if config.MarketerRegistrationDays <= 0 {
		config.MarketerRegistrationDays = 30
	}
	return &accountService{
		repo:      repo,
		hasher:    hasher,
		analytics: analytics,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *accountService) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	const op = "account.signup"

	params.Name = strings.TrimSpace(params.Name)
	params.Phone = strings.TrimSpace(params.Phone)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	var verr error
	if params.Name == "" {
		verr = domain.AddFieldError(verr, "name", "is required")
	}
	if params.Phone == "" {
		verr = domain.AddFieldError(verr, "phone", "is required")
	}
	hash, err := s.hasher.Hash(params.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		verr = domain.AddFieldError(verr, "password", err.Error())
	} else if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}
	if verr != nil {
		return nil, verr
	}

	if _, err := s.repo.GetUserByPhone(ctx, params.Phone); err == nil {
		return nil, ErrPhoneTaken.WithOp(op)
	} else if !errors.Is(err, repository.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to check phone")
	}

	create := repository.CreateUserParams{
		Name:         params.Name,
		Phone:        params.Phone,
		Email:        pgText(params.Email),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	var marketerID uuid.UUID
	if params.MarketingCode != "" {
		link, err := s.resolveMarketingCode(ctx, params.MarketingCode)
		if err != nil && !errors.Is(err, ErrMarketingLink) {
			return nil, err
		}
		if link != nil {
			marketerID = link.MarketerID
			create.RegisteredWith = pgUUID(marketerID)
			create.RegisteredWithExpiresAt = pgTime(s.now().AddDate(0, 0, s.config.MarketerRegistrationDays))
		}
	}

	user, err := s.repo.CreateUser(ctx, create)
	if repository.IsUniqueViolation(err) {
		return nil, ErrPhoneTaken.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create user")
	}

	if err := s.analytics.Record(ctx, AnalyticEvent{InfoName: domain.InfoSignup, ForGroup: domain.GroupAdmin, Count: 1}); err != nil {
		s.logger.Warn("failed to record signup", "error", err)
	}
	if marketerID != uuid.Nil {
		if err := s.analytics.Record(ctx, AnalyticEvent{
			InfoName:   domain.InfoSignup,
			ForGroup:   domain.GroupMarketer,
			MarketerID: marketerID,
			Count:      1,
		}); err != nil {
			s.logger.Warn("failed to record marketer signup", "marketer_id", marketerID, "error", err)
		}
	}
	if telemetry.Business != nil {
		telemetry.Business.Signups.Inc()
	}
	s.logger.Info("user signed up", "user_id", user.ID, "marketer_id", marketerID)

	return s.startSession(ctx, op, user)
}

func (s *accountService) Login(ctx context.Context, phone, password string) (*AuthResult, error) {
	const op = "account.login"

	user, err := s.repo.GetUserByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, repository.ErrNoRows) {
		recordLogin("unknown_user")
		return nil, ErrInvalidCredentials.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load user")
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			recordLogin("bad_password")
			return nil, ErrInvalidCredentials.WithOp(op)
		}
		return nil, domain.Internal(err, op, "failed to verify password")
	}
	if user.Status != domain.StatusActive {
		recordLogin("disabled")
		return nil, ErrAccountDisabled.WithOp(op)
	}

	recordLogin("success")
	return s.startSession(ctx, op, user)
}

func (s *accountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, token); err != nil {
		return domain.Internal(err, "account.logout", "failed to delete session")
	}
	return nil
}

func (s *accountService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	const op = "account.authenticate"

	if token == "" {
		return nil, ErrSessionNotFound.WithOp(op)
	}
	user, err := s.repo.GetUserBySessionToken(ctx, token)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, ErrSessionNotFound.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load session")
	}
	if user.Status != domain.StatusActive {
		return nil, ErrAccountDisabled.WithOp(op)
	}
	return toDomainUser(user), nil
}

func (s *accountService) TrackLinkClick(ctx context.Context, code string) (*MarketingLink, error) {
	link, err := s.resolveMarketingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.analytics.Record(ctx, AnalyticEvent{
		InfoName:   domain.InfoLinkClick,
		ForGroup:   domain.GroupMarketer,
		MarketerID: link.MarketerID,
		Count:      1,
	}); err != nil {
		s.logger.Warn("failed to record link click", "marketer_id", link.MarketerID, "error", err)
	}
	if telemetry.Business != nil {
		telemetry.Business.LinkClicks.Inc()
	}
	return link, nil
}

func (s *accountService) MyCourses(ctx context.Context, userID uuid.UUID) ([]OwnedCourse, error) {
	const op = "account.my_courses"

	purchases, err := s.repo.ListPaidUserCourses(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load purchases")
	}
	if len(purchases) == 0 {
		return []OwnedCourse{}, nil
	}

	ids := make([]uuid.UUID, len(purchases))
	for i, p := range purchases {
		ids[i] = p.CourseID
	}
	courses, err := s.repo.ListCoursesByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load courses")
	}
	byID := make(map[uuid.UUID]repository.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	out := make([]OwnedCourse, 0, len(purchases))
	for _, p := range purchases {
		c, ok := byID[p.CourseID]
		if !ok {
			continue
		}
		out = append(out, OwnedCourse{Course: c, PaidAmount: p.PaidAmount, Method: p.Method, PurchasedAt: p.UpdatedAt})
	}
	return out, nil
}

// resolveMarketingCode matches a marketer's own code first, then a
// course-specific marketer link.
func (s *accountService) resolveMarketingCode(ctx context.Context, code string) (*MarketingLink, error) {
	const op = "account.resolve_marketing_code"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMarketingLink.WithOp(op)
	}

	marketer, err := s.repo.GetActiveMarketerByCode(ctx, code)
	if err == nil {
		return &MarketingLink{MarketerID: marketer.ID}, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return nil, domain.Internal(err, op, "failed to load marketer")
	}

	link, err := s.repo.GetActiveMarketerCourseByCode(ctx, code)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, ErrMarketingLink.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load marketer link")
	}
	return &MarketingLink{MarketerID: link.MarketerID, CourseID: link.CourseID}, nil
}

func (s *accountService) startSession(ctx context.Context, op string, user repository.User) (*AuthResult, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create session token")
	}
	session, err := s.repo.CreateSession(ctx, repository.CreateSessionParams{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.config.SessionTTL),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create session")
	}
	return &AuthResult{User: toDomainUser(user), Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

func toDomainUser(u repository.User) *domain.User {
	return &domain.User{
		ID:    u.ID,
		Name:  u.Name,
		Phone: u.Phone,
		Email: textOrEmpty(u.Email),
		Role:  u.Role,
	}
}

func textOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func recordLogin(result string) {
	if telemetry.Business != nil {
		telemetry.Business.Logins.WithLabelValues(result).Inc()
	}
}
