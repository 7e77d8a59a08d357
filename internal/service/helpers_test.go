package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/gateway"
	"github.com/dukerupert/academy/internal/repository"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time { return testNow }

// recordingNotifier keeps every notification for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	receipts []events.PurchaseSettled
	wallets  []events.WalletCharged
	roadmaps []events.RoadmapFinished
	gifts    []*email.RoadmapGiftEmail
}

func (n *recordingNotifier) PurchaseSettled(_ context.Context, _ email.PurchaseReceiptEmail, ev events.PurchaseSettled) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, ev)
}

func (n *recordingNotifier) WalletCharged(_ context.Context, _ email.WalletChargedEmail, ev events.WalletCharged) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.wallets = append(n.wallets, ev)
}

func (n *recordingNotifier) RoadmapFinished(_ context.Context, gift *email.RoadmapGiftEmail, ev events.RoadmapFinished) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roadmaps = append(n.roadmaps, ev)
	n.gifts = append(n.gifts, gift)
}

// checkoutFixture wires every service over one fake store.
type checkoutFixture struct {
	repo       *fakeQuerier
	mock       *gateway.MockProvider
	notifier   *recordingNotifier
	pricing    *pricingService
	commission *commissionService
	roadmaps   *roadmapService
	checkout   *checkoutService
	wallet     *walletService
}

func newCheckoutFixture() *checkoutFixture {
	repo := newFakeQuerier()
	mock := gateway.NewMockProvider()
	mock.MethodName = "zarinpal"
	registry := gateway.NewRegistry(mock, gateway.NewWalletProvider())
	notifier := &recordingNotifier{}
	logger := testLogger()

	analytics := NewAnalyticsService(repo, logger)
	p := NewPricingService(repo, logger).(*pricingService)
	p.now = fixedNow
	c := NewCommissionService(repo, analytics, logger).(*commissionService)
	c.now = fixedNow
	r := NewRoadmapService(repo, notifier, logger).(*roadmapService)
	r.now = fixedNow

	config := CheckoutConfig{CallbackBaseURL: "https://api.example.com/", ResultURL: "https://example.com/payment-result"}
	co := NewCheckoutService(repo, registry, p, c, analytics, r, notifier, config, logger).(*checkoutService)
	co.now = fixedNow
	w := NewWalletService(repo, registry, notifier, config, logger).(*walletService)
	w.now = fixedNow

	return &checkoutFixture{
		repo:       repo,
		mock:       mock,
		notifier:   notifier,
		pricing:    p,
		commission: c,
		roadmaps:   r,
		checkout:   co,
		wallet:     w,
	}
}

func (f *checkoutFixture) buyer(balance int64) *domain.User {
	u := f.repo.addUser(repository.User{
		Name:          "Buyer",
		Email:         pgText("buyer@example.com"),
		WalletBalance: balance,
	})
	return &domain.User{ID: u.ID, Name: u.Name, Phone: u.Phone, Role: u.Role}
}

func validWindow() (time.Time, time.Time) {
	return testNow.Add(-24 * time.Hour), testNow.Add(24 * time.Hour)
}
