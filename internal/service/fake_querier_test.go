package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
)

type analyticKey struct {
	MarketerID uuid.UUID
	TeacherID  uuid.UUID
	InfoName   string
	ForGroup   string
	Type       string
	Date       time.Time
}

// fakeQuerier is an in-memory repository.Querier mirroring the SQL semantics
// the services rely on: conditional claims, atomic balance updates and
// analytic upserts.
type fakeQuerier struct {
	mu sync.Mutex

	users              map[uuid.UUID]repository.User
	sessions           map[string]repository.Session
	commissions        map[uuid.UUID]repository.Commission
	courses            map[uuid.UUID]repository.Course
	discounts          []repository.Discount
	bundles            map[uuid.UUID]repository.Bundle
	bundleCourses      map[uuid.UUID][]repository.BundleCourse
	userCourses        []repository.UserCourse
	walletTransactions []repository.WalletTransaction
	commissionPayments []repository.CommissionPayment
	marketerCourses    []repository.MarketerCourse
	analytics          map[analyticKey]int64
	roadmaps           []repository.UserRoadmap
	settings           map[string]string
	audits             []repository.CreateSettlementAuditParams

	// errs makes the named method fail.
	errs map[string]error

	// calls counts invocations per method.
	calls map[string]int
}

var _ repository.Querier = (*fakeQuerier)(nil)

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		users:         map[uuid.UUID]repository.User{},
		sessions:      map[string]repository.Session{},
		commissions:   map[uuid.UUID]repository.Commission{},
		courses:       map[uuid.UUID]repository.Course{},
		bundles:       map[uuid.UUID]repository.Bundle{},
		bundleCourses: map[uuid.UUID][]repository.BundleCourse{},
		analytics:     map[analyticKey]int64{},
		settings:      map[string]string{},
		errs:          map[string]error{},
		calls:         map[string]int{},
	}
}

func (f *fakeQuerier) enter(method string) error {
	f.mu.Lock()
	f.calls[method]++
	return f.errs[method]
}

func (f *fakeQuerier) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Seed helpers

func (f *fakeQuerier) addUser(u repository.User) repository.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if u.Status == "" {
		u.Status = domain.StatusActive
	}
	if u.Phone == "" {
		u.Phone = "0912" + u.ID.String()[:7]
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeQuerier) addCourse(c repository.Course) repository.Course {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = domain.StatusActive
	}
	if c.Title == "" {
		c.Title = "Course " + c.ID.String()[:4]
	}
	f.courses[c.ID] = c
	return c
}

func (f *fakeQuerier) addCommission(amount int64, amountType string) repository.Commission {
	c := repository.Commission{ID: uuid.New(), Amount: amount, AmountType: amountType}
	f.commissions[c.ID] = c
	return c
}

func (f *fakeQuerier) addDiscount(d repository.Discount) repository.Discount {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = domain.StatusActive
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().Add(time.Duration(len(f.discounts)) * time.Millisecond)
	}
	f.discounts = append(f.discounts, d)
	return d
}

func (f *fakeQuerier) addBundle(b repository.Bundle, courses ...repository.BundleCourse) repository.Bundle {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = domain.StatusActive
	}
	f.bundles[b.ID] = b
	for i := range courses {
		courses[i].BundleID = b.ID
		courses[i].Position = int32(i)
	}
	f.bundleCourses[b.ID] = courses
	return b
}

func (f *fakeQuerier) addOwnedCourse(userID, courseID uuid.UUID) {
	f.userCourses = append(f.userCourses, repository.UserCourse{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Status:    domain.PaymentOK,
		Authority: "seed-" + uuid.NewString(),
	})
}

func (f *fakeQuerier) rowsByAuthority(authority string) []repository.UserCourse {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.UserCourse
	for _, uc := range f.userCourses {
		if uc.Authority == authority {
			out = append(out, uc)
		}
	}
	return out
}

func (f *fakeQuerier) analyticCount(infoName, group, typ string, marketerID, teacherID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.analytics {
		if k.InfoName == infoName && k.ForGroup == group && k.Type == typ && k.MarketerID == marketerID && k.TeacherID == teacherID {
			n += v
		}
	}
	return n
}

// Users and sessions

func (f *fakeQuerier) CreateUser(_ context.Context, arg repository.CreateUserParams) (repository.User, error) {
	if err := f.enter("CreateUser"); err != nil {
		f.mu.Unlock()
		return repository.User{}, err
	}
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone == arg.Phone {
			return repository.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := repository.User{
		ID:                      uuid.New(),
		Name:                    arg.Name,
		Phone:                   arg.Phone,
		Email:                   arg.Email,
		PasswordHash:            arg.PasswordHash,
		Role:                    arg.Role,
		Status:                  domain.StatusActive,
		RegisteredWith:          arg.RegisteredWith,
		RegisteredWithExpiresAt: arg.RegisteredWithExpiresAt,
		CreatedAt:               time.Now(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeQuerier) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	if err := f.enter("GetUserByID"); err != nil {
		f.mu.Unlock()
		return repository.User{}, err
	}
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrNoRows
	}
	return u, nil
}

func (f *fakeQuerier) GetUserByPhone(_ context.Context, phone string) (repository.User, error) {
	if err := f.enter("GetUserByPhone"); err != nil {
		f.mu.Unlock()
		return repository.User{}, err
	}
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNoRows
}

func (f *fakeQuerier) GetActiveMarketerByCode(_ context.Context, code string) (repository.User, error) {
	if err := f.enter("GetActiveMarketerByCode"); err != nil {
		f.mu.Unlock()
		return repository.User{}, err
	}
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.MarketingCode.Valid && u.MarketingCode.String == code && u.Role == domain.RoleMarketer && u.Status == domain.StatusActive {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNoRows
}

func (f *fakeQuerier) CreateSession(_ context.Context, arg repository.CreateSessionParams) (repository.Session, error) {
	if err := f.enter("CreateSession"); err != nil {
		f.mu.Unlock()
		return repository.Session{}, err
	}
	defer f.mu.Unlock()
	s := repository.Session{Token: arg.Token, UserID: arg.UserID, ExpiresAt: arg.ExpiresAt, CreatedAt: time.Now()}
	f.sessions[s.Token] = s
	return s, nil
}

func (f *fakeQuerier) GetUserBySessionToken(_ context.Context, token string) (repository.User, error) {
	if err := f.enter("GetUserBySessionToken"); err != nil {
		f.mu.Unlock()
		return repository.User{}, err
	}
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return repository.User{}, repository.ErrNoRows
	}
	u, ok := f.users[s.UserID]
	if !ok || u.Status != domain.StatusActive {
		return repository.User{}, repository.ErrNoRows
	}
	return u, nil
}

func (f *fakeQuerier) DeleteSession(_ context.Context, token string) error {
	if err := f.enter("DeleteSession"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeQuerier) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	if err := f.enter("DeleteExpiredSessions"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	var n int64
	for token, s := range f.sessions {
		if s.ExpiresAt.Before(before) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

func (f *fakeQuerier) AddWalletBalance(_ context.Context, arg repository.BalanceChangeParams) (int64, error) {
	if err := f.enter("AddWalletBalance"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	u, ok := f.users[arg.UserID]
	if !ok {
		return 0, repository.ErrNoRows
	}
	u.WalletBalance += arg.Amount
	f.users[u.ID] = u
	return u.WalletBalance, nil
}

func (f *fakeQuerier) DebitWalletBalance(_ context.Context, arg repository.BalanceChangeParams) (int64, error) {
	if err := f.enter("DebitWalletBalance"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	u, ok := f.users[arg.UserID]
	if !ok {
		return 0, repository.ErrNoRows
	}
	if u.WalletBalance < arg.Amount {
		return 0, repository.ErrNoRows
	}
	u.WalletBalance -= arg.Amount
	f.users[u.ID] = u
	return u.WalletBalance, nil
}

func (f *fakeQuerier) AddCommissionBalance(_ context.Context, arg repository.BalanceChangeParams) (int64, error) {
	if err := f.enter("AddCommissionBalance"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	u, ok := f.users[arg.UserID]
	if !ok {
		return 0, repository.ErrNoRows
	}
	u.CommissionBalance += arg.Amount
	f.users[u.ID] = u
	return u.CommissionBalance, nil
}

func (f *fakeQuerier) WithdrawCommissionBalance(_ context.Context, arg repository.BalanceChangeParams) (repository.WithdrawCommissionBalanceRow, error) {
	if err := f.enter("WithdrawCommissionBalance"); err != nil {
		f.mu.Unlock()
		return repository.WithdrawCommissionBalanceRow{}, err
	}
	defer f.mu.Unlock()
	u, ok := f.users[arg.UserID]
	if !ok || u.CommissionBalance < arg.Amount {
		return repository.WithdrawCommissionBalanceRow{}, repository.ErrNoRows
	}
	before := u.CommissionBalance
	u.CommissionBalance -= arg.Amount
	f.users[u.ID] = u
	return repository.WithdrawCommissionBalanceRow{BalanceBefore: before, BalanceAfter: u.CommissionBalance}, nil
}

// Catalog

func (f *fakeQuerier) GetCourse(_ context.Context, id uuid.UUID) (repository.Course, error) {
	if err := f.enter("GetCourse"); err != nil {
		f.mu.Unlock()
		return repository.Course{}, err
	}
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return repository.Course{}, repository.ErrNoRows
	}
	return c, nil
}

func (f *fakeQuerier) ListCoursesByIDs(_ context.Context, ids []uuid.UUID) ([]repository.Course, error) {
	if err := f.enter("ListCoursesByIDs"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	var out []repository.Course
	for _, id := range ids {
		if c, ok := f.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeQuerier) ListActiveCourses(_ context.Context) ([]repository.Course, error) {
	if err := f.enter("ListActiveCourses"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	var out []repository.Course
	for _, c := range f.courses {
		if c.Status == domain.StatusActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeQuerier) IncrementCourseBuyCount(_ context.Context, id uuid.UUID) error {
	if err := f.enter("IncrementCourseBuyCount"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	c := f.courses[id]
	c.BuyCount++
	f.courses[id] = c
	return nil
}

func (f *fakeQuerier) IncrementCourseViewCount(_ context.Context, id uuid.UUID) error {
	if err := f.enter("IncrementCourseViewCount"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	c := f.courses[id]
	c.ViewCount++
	f.courses[id] = c
	return nil
}

func (f *fakeQuerier) GetCommission(_ context.Context, id uuid.UUID) (repository.Commission, error) {
	if err := f.enter("GetCommission"); err != nil {
		f.mu.Unlock()
		return repository.Commission{}, err
	}
	defer f.mu.Unlock()
	c, ok := f.commissions[id]
	if !ok {
		return repository.Commission{}, repository.ErrNoRows
	}
	return c, nil
}

// Discounts

func discountValid(d repository.Discount, now time.Time) bool {
	return d.Status == domain.StatusActive && !now.Before(d.StartDate) && now.Before(d.EndDate)
}

func (f *fakeQuerier) GetLatestScopedDiscount(_ context.Context, arg repository.GetLatestScopedDiscountParams) (repository.Discount, error) {
	if err := f.enter("GetLatestScopedDiscount"); err != nil {
		f.mu.Unlock()
		return repository.Discount{}, err
	}
	defer f.mu.Unlock()
	var best *repository.Discount
	for i := range f.discounts {
		d := f.discounts[i]
		if d.Type != arg.Type || d.EmmitTo != arg.EmmitTo || d.EmmitToID != arg.EmmitToID || !discountValid(d, arg.Now) {
			continue
		}
		if best == nil || d.CreatedAt.After(best.CreatedAt) {
			best = &f.discounts[i]
		}
	}
	if best == nil {
		return repository.Discount{}, repository.ErrNoRows
	}
	return *best, nil
}

func (f *fakeQuerier) GetActiveDiscountByCode(_ context.Context, arg repository.GetActiveDiscountByCodeParams) (repository.Discount, error) {
	if err := f.enter("GetActiveDiscountByCode"); err != nil {
		f.mu.Unlock()
		return repository.Discount{}, err
	}
	defer f.mu.Unlock()
	for i := len(f.discounts) - 1; i >= 0; i-- {
		d := f.discounts[i]
		if d.Type == domain.DiscountTypeCode && d.Code.Valid && d.Code.String == arg.Code && discountValid(d, arg.Now) {
			return d, nil
		}
	}
	return repository.Discount{}, repository.ErrNoRows
}

func (f *fakeQuerier) CreateDiscount(_ context.Context, arg repository.CreateDiscountParams) (repository.Discount, error) {
	if err := f.enter("CreateDiscount"); err != nil {
		f.mu.Unlock()
		return repository.Discount{}, err
	}
	defer f.mu.Unlock()
	d := repository.Discount{
		ID:         uuid.New(),
		Code:       arg.Code,
		Amount:     arg.Amount,
		AmountType: arg.AmountType,
		Type:       arg.Type,
		Status:     domain.StatusActive,
		StartDate:  arg.StartDate,
		EndDate:    arg.EndDate,
		EmmitTo:    arg.EmmitTo,
		EmmitToID:  arg.EmmitToID,
		SingleUse:  arg.SingleUse,
		CreatedAt:  time.Now(),
	}
	f.discounts = append(f.discounts, d)
	return d, nil
}

func (f *fakeQuerier) ListDiscounts(_ context.Context) ([]repository.Discount, error) {
	if err := f.enter("ListDiscounts"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	return append([]repository.Discount(nil), f.discounts...), nil
}

func (f *fakeQuerier) DeactivateDiscount(_ context.Context, id uuid.UUID) (int64, error) {
	if err := f.enter("DeactivateDiscount"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	for i := range f.discounts {
		if f.discounts[i].ID == id && f.discounts[i].Status == domain.StatusActive {
			f.discounts[i].Status = domain.StatusDeactive
			return 1, nil
		}
	}
	return 0, nil
}

// Bundles and roadmaps

func (f *fakeQuerier) GetBundle(_ context.Context, id uuid.UUID) (repository.Bundle, error) {
	if err := f.enter("GetBundle"); err != nil {
		f.mu.Unlock()
		return repository.Bundle{}, err
	}
	defer f.mu.Unlock()
	b, ok := f.bundles[id]
	if !ok {
		return repository.Bundle{}, repository.ErrNoRows
	}
	return b, nil
}

func (f *fakeQuerier) ListBundleCourses(_ context.Context, bundleID uuid.UUID) ([]repository.BundleCourse, error) {
	if err := f.enter("ListBundleCourses"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	return append([]repository.BundleCourse(nil), f.bundleCourses[bundleID]...), nil
}

func (f *fakeQuerier) GetActiveUserRoadmap(_ context.Context, userID uuid.UUID) (repository.UserRoadmap, error) {
	if err := f.enter("GetActiveUserRoadmap"); err != nil {
		f.mu.Unlock()
		return repository.UserRoadmap{}, err
	}
	defer f.mu.Unlock()
	for _, r := range f.roadmaps {
		if r.UserID == userID && r.Status == domain.RoadmapActive {
			return r, nil
		}
	}
	return repository.UserRoadmap{}, repository.ErrNoRows
}

func (f *fakeQuerier) HasFinishedRoadmap(_ context.Context, arg repository.UserBundleParams) (bool, error) {
	if err := f.enter("HasFinishedRoadmap"); err != nil {
		f.mu.Unlock()
		return false, err
	}
	defer f.mu.Unlock()
	for _, r := range f.roadmaps {
		if r.UserID == arg.UserID && r.BundleID == arg.BundleID && r.Status == domain.RoadmapFinished {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeQuerier) CreateUserRoadmap(_ context.Context, arg repository.CreateUserRoadmapParams) (repository.UserRoadmap, error) {
	if err := f.enter("CreateUserRoadmap"); err != nil {
		f.mu.Unlock()
		return repository.UserRoadmap{}, err
	}
	defer f.mu.Unlock()
	for _, r := range f.roadmaps {
		if r.UserID == arg.UserID && r.Status == domain.RoadmapActive {
			return repository.UserRoadmap{}, &pgconn.PgError{Code: "23505"}
		}
	}
	r := repository.UserRoadmap{
		ID:                     uuid.New(),
		UserID:                 arg.UserID,
		BundleID:               arg.BundleID,
		CurrentCourseID:        arg.CurrentCourseID,
		CurrentCourseStartDate: arg.CurrentCourseStartDate,
		FinishedCourses:        []uuid.UUID{},
		Status:                 domain.RoadmapActive,
		CreatedAt:              time.Now(),
	}
	f.roadmaps = append(f.roadmaps, r)
	return r, nil
}

func (f *fakeQuerier) StartRoadmapCourse(_ context.Context, arg repository.StartRoadmapCourseParams) (int64, error) {
	if err := f.enter("StartRoadmapCourse"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	for i := range f.roadmaps {
		r := &f.roadmaps[i]
		if r.UserID == arg.UserID && r.CurrentCourseID == arg.CourseID && r.Status == domain.RoadmapActive && !r.CurrentCourseStartDate.Valid {
			r.CurrentCourseStartDate = pgtype.Timestamptz{Time: arg.StartedAt, Valid: true}
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeQuerier) AdvanceUserRoadmap(_ context.Context, arg repository.AdvanceUserRoadmapParams) (repository.UserRoadmap, error) {
	if err := f.enter("AdvanceUserRoadmap"); err != nil {
		f.mu.Unlock()
		return repository.UserRoadmap{}, err
	}
	defer f.mu.Unlock()
	for i := range f.roadmaps {
		r := &f.roadmaps[i]
		if r.ID == arg.ID && r.CurrentCourseID == arg.FromCourseID && r.Status == domain.RoadmapActive {
			r.FinishedCourses = append(r.FinishedCourses, r.CurrentCourseID)
			r.CurrentCourseID = arg.NextCourseID
			r.CurrentCourseStartDate = arg.NextStartDate
			return *r, nil
		}
	}
	return repository.UserRoadmap{}, repository.ErrNoRows
}

func (f *fakeQuerier) FinishUserRoadmap(_ context.Context, arg repository.FinishUserRoadmapParams) (repository.UserRoadmap, error) {
	if err := f.enter("FinishUserRoadmap"); err != nil {
		f.mu.Unlock()
		return repository.UserRoadmap{}, err
	}
	defer f.mu.Unlock()
	for i := range f.roadmaps {
		r := &f.roadmaps[i]
		if r.ID == arg.ID && r.CurrentCourseID == arg.CourseID && r.Status == domain.RoadmapActive {
			r.FinishedCourses = append(r.FinishedCourses, r.CurrentCourseID)
			r.Status = domain.RoadmapFinished
			return *r, nil
		}
	}
	return repository.UserRoadmap{}, repository.ErrNoRows
}

func (f *fakeQuerier) CancelUserRoadmap(_ context.Context, userID uuid.UUID) (int64, error) {
	if err := f.enter("CancelUserRoadmap"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	var n int64
	for i := range f.roadmaps {
		if f.roadmaps[i].UserID == userID && f.roadmaps[i].Status == domain.RoadmapActive {
			f.roadmaps[i].Status = domain.RoadmapCanceled
			n++
		}
	}
	return n, nil
}

// Purchases

func (f *fakeQuerier) ListOwnedCourseIDs(_ context.Context, arg repository.ListOwnedCourseIDsParams) ([]uuid.UUID, error) {
	if err := f.enter("ListOwnedCourseIDs"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range arg.CourseIDs {
		want[id] = true
	}
	var out []uuid.UUID
	for _, uc := range f.userCourses {
		if uc.UserID == arg.UserID && uc.Status == domain.PaymentOK && want[uc.CourseID] {
			out = append(out, uc.CourseID)
			want[uc.CourseID] = false
		}
	}
	return out, nil
}

func (f *fakeQuerier) CreateUserCourses(_ context.Context, args []repository.CreateUserCourseParams) ([]repository.UserCourse, error) {
	if err := f.enter("CreateUserCourses"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	now := time.Now()
	out := make([]repository.UserCourse, 0, len(args))
	for _, a := range args {
		uc := repository.UserCourse{
			ID:                 uuid.New(),
			UserID:             a.UserID,
			CourseID:           a.CourseID,
			BundleID:           a.BundleID,
			CoursePrice:        a.CoursePrice,
			CoursePayablePrice: a.CoursePayablePrice,
			TotalPrice:         a.TotalPrice,
			Authority:          a.Authority,
			Method:             a.Method,
			CouponCode:         a.CouponCode,
			Status:             domain.PaymentWaiting,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		f.userCourses = append(f.userCourses, uc)
		out = append(out, uc)
	}
	return out, nil
}

func (f *fakeQuerier) ListUserCoursesByAuthority(_ context.Context, authority string) ([]repository.UserCourse, error) {
	if err := f.enter("ListUserCoursesByAuthority"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	var out []repository.UserCourse
	for _, uc := range f.userCourses {
		if uc.Authority == authority {
			out = append(out, uc)
		}
	}
	return out, nil
}

func (f *fakeQuerier) ListPaidUserCourses(_ context.Context, userID uuid.UUID) ([]repository.UserCourse, error) {
	if err := f.enter("ListPaidUserCourses"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	var out []repository.UserCourse
	for _, uc := range f.userCourses {
		if uc.UserID == userID && uc.Status == domain.PaymentOK {
			out = append(out, uc)
		}
	}
	return out, nil
}

func (f *fakeQuerier) ClaimUserCourse(_ context.Context, arg repository.ClaimUserCourseParams) (repository.UserCourse, error) {
	if err := f.enter("ClaimUserCourse"); err != nil {
		f.mu.Unlock()
		return repository.UserCourse{}, err
	}
	defer f.mu.Unlock()
	for i := range f.userCourses {
		uc := &f.userCourses[i]
		if uc.ID == arg.ID && uc.Status == domain.PaymentWaiting {
			uc.Status = domain.PaymentOK
			uc.MarketerID = arg.MarketerID
			uc.TeacherCut = arg.TeacherCut
			uc.MarketerCut = arg.MarketerCut
			uc.PaidAmount = arg.PaidAmount
			uc.TransactionCode = arg.TransactionCode
			uc.UpdatedAt = time.Now()
			return *uc, nil
		}
	}
	return repository.UserCourse{}, repository.ErrNoRows
}

func (f *fakeQuerier) FailUserCourses(_ context.Context, arg repository.FailPaymentParams) (int64, error) {
	if err := f.enter("FailUserCourses"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	var n int64
	for i := range f.userCourses {
		uc := &f.userCourses[i]
		if uc.Authority == arg.Authority && uc.Status == domain.PaymentWaiting {
			uc.Status = arg.Status
			uc.GatewayError = arg.GatewayError
			n++
		}
	}
	return n, nil
}

func (f *fakeQuerier) ExpireUserCourses(_ context.Context, before time.Time) (int64, error) {
	if err := f.enter("ExpireUserCourses"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	var n int64
	for i := range f.userCourses {
		uc := &f.userCourses[i]
		if uc.Status == domain.PaymentWaiting && uc.CreatedAt.Before(before) {
			uc.Status = domain.PaymentCancel
			n++
		}
	}
	return n, nil
}

// Wallet

func (f *fakeQuerier) CreateWalletTransaction(_ context.Context, arg repository.CreateWalletTransactionParams) (repository.WalletTransaction, error) {
	if err := f.enter("CreateWalletTransaction"); err != nil {
		f.mu.Unlock()
		return repository.WalletTransaction{}, err
	}
	defer f.mu.Unlock()
	tx := repository.WalletTransaction{
		ID:           uuid.New(),
		UserID:       arg.UserID,
		ChargeAmount: arg.ChargeAmount,
		Authority:    arg.Authority,
		Method:       arg.Method,
		Status:       domain.PaymentWaiting,
		CreatedAt:    time.Now(),
	}
	f.walletTransactions = append(f.walletTransactions, tx)
	return tx, nil
}

func (f *fakeQuerier) GetWalletTransactionByAuthority(_ context.Context, authority string) (repository.WalletTransaction, error) {
	if err := f.enter("GetWalletTransactionByAuthority"); err != nil {
		f.mu.Unlock()
		return repository.WalletTransaction{}, err
	}
	defer f.mu.Unlock()
	for _, tx := range f.walletTransactions {
		if tx.Authority == authority {
			return tx, nil
		}
	}
	return repository.WalletTransaction{}, repository.ErrNoRows
}

func (f *fakeQuerier) ClaimWalletTransaction(_ context.Context, arg repository.ClaimWalletTransactionParams) (repository.WalletTransaction, error) {
	if err := f.enter("ClaimWalletTransaction"); err != nil {
		f.mu.Unlock()
		return repository.WalletTransaction{}, err
	}
	defer f.mu.Unlock()
	for i := range f.walletTransactions {
		tx := &f.walletTransactions[i]
		if tx.ID == arg.ID && tx.Status == domain.PaymentWaiting {
			tx.Status = domain.PaymentOK
			tx.PaidAmount = arg.PaidAmount
			tx.TransactionCode = arg.TransactionCode
			return *tx, nil
		}
	}
	return repository.WalletTransaction{}, repository.ErrNoRows
}

func (f *fakeQuerier) FailWalletTransaction(_ context.Context, arg repository.FailPaymentParams) (int64, error) {
	if err := f.enter("FailWalletTransaction"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	for i := range f.walletTransactions {
		tx := &f.walletTransactions[i]
		if tx.Authority == arg.Authority && tx.Status == domain.PaymentWaiting {
			tx.Status = arg.Status
			tx.GatewayError = arg.GatewayError
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeQuerier) ExpireWalletTransactions(_ context.Context, before time.Time) (int64, error) {
	if err := f.enter("ExpireWalletTransactions"); err != nil {
		f.mu.Unlock()
		return 0, err
	}
	defer f.mu.Unlock()
	var n int64
	for i := range f.walletTransactions {
		tx := &f.walletTransactions[i]
		if tx.Status == domain.PaymentWaiting && tx.CreatedAt.Before(before) {
			tx.Status = domain.PaymentCancel
			n++
		}
	}
	return n, nil
}

// Marketing, commissions and analytics

func (f *fakeQuerier) GetActiveMarketerCourse(_ context.Context, arg repository.GetActiveMarketerCourseParams) (repository.MarketerCourse, error) {
	if err := f.enter("GetActiveMarketerCourse"); err != nil {
		f.mu.Unlock()
		return repository.MarketerCourse{}, err
	}
	defer f.mu.Unlock()
	for _, mc := range f.marketerCourses {
		if mc.MarketerID == arg.MarketerID && mc.CourseID == arg.CourseID && mc.Status == domain.StatusActive {
			return mc, nil
		}
	}
	return repository.MarketerCourse{}, repository.ErrNoRows
}

func (f *fakeQuerier) GetActiveMarketerCourseByCode(_ context.Context, code string) (repository.MarketerCourse, error) {
	if err := f.enter("GetActiveMarketerCourseByCode"); err != nil {
		f.mu.Unlock()
		return repository.MarketerCourse{}, err
	}
	defer f.mu.Unlock()
	for _, mc := range f.marketerCourses {
		if mc.Code == code && mc.Status == domain.StatusActive {
			return mc, nil
		}
	}
	return repository.MarketerCourse{}, repository.ErrNoRows
}

func (f *fakeQuerier) CreateCommissionPayment(_ context.Context, arg repository.CreateCommissionPaymentParams) (repository.CommissionPayment, error) {
	if err := f.enter("CreateCommissionPayment"); err != nil {
		f.mu.Unlock()
		return repository.CommissionPayment{}, err
	}
	defer f.mu.Unlock()
	p := repository.CommissionPayment{
		ID:            uuid.New(),
		UserID:        arg.UserID,
		BalanceBefore: arg.BalanceBefore,
		Amount:        arg.Amount,
		BalanceAfter:  arg.BalanceAfter,
		Description:   arg.Description,
		CreatedAt:     time.Now(),
	}
	f.commissionPayments = append(f.commissionPayments, p)
	return p, nil
}

func (f *fakeQuerier) ListCommissionPayments(_ context.Context, userID uuid.UUID) ([]repository.CommissionPayment, error) {
	if err := f.enter("ListCommissionPayments"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	var out []repository.CommissionPayment
	for _, p := range f.commissionPayments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeQuerier) IncrementAnalytic(_ context.Context, arg repository.IncrementAnalyticParams) error {
	if err := f.enter("IncrementAnalytic"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	f.analytics[analyticKey{
		MarketerID: arg.MarketerID,
		TeacherID:  arg.TeacherID,
		InfoName:   arg.InfoName,
		ForGroup:   arg.ForGroup,
		Type:       arg.Type,
		Date:       arg.Date,
	}] += arg.Count
	return nil
}

func (f *fakeQuerier) ListAnalytics(_ context.Context, arg repository.ListAnalyticsParams) ([]repository.Analytic, error) {
	if err := f.enter("ListAnalytics"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()
	var out []repository.Analytic
	for k, v := range f.analytics {
		if k.InfoName != arg.InfoName || k.ForGroup != arg.ForGroup || k.Type != arg.Type {
			continue
		}
		if k.Date.Before(arg.From) || k.Date.After(arg.To) {
			continue
		}
		if arg.OwnerID != nil && k.MarketerID != *arg.OwnerID && k.TeacherID != *arg.OwnerID {
			continue
		}
		out = append(out, repository.Analytic{
			MarketerID: k.MarketerID,
			TeacherID:  k.TeacherID,
			InfoName:   k.InfoName,
			ForGroup:   k.ForGroup,
			Type:       k.Type,
			Date:       k.Date,
			Count:      v,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Settings

func (f *fakeQuerier) GetSetting(_ context.Context, key string) (string, error) {
	if err := f.enter("GetSetting"); err != nil {
		f.mu.Unlock()
		return "", err
	}
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	if !ok {
		return "", repository.ErrNoRows
	}
	return v, nil
}

func (f *fakeQuerier) UpsertSetting(_ context.Context, arg repository.UpsertSettingParams) error {
	if err := f.enter("UpsertSetting"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	f.settings[arg.Key] = arg.Value
	return nil
}

func (f *fakeQuerier) CreateSettlementAudit(_ context.Context, arg repository.CreateSettlementAuditParams) error {
	if err := f.enter("CreateSettlementAudit"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()
	f.audits = append(f.audits, arg)
	return nil
}
