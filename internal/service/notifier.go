package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/jobs"
	"github.com/dukerupert/academy/internal/worker"
)

// Notifier delivers post-settlement notifications. Delivery is best effort:
// implementations never fail the settlement.
type Notifier interface {
	PurchaseSettled(ctx context.Context, receipt email.PurchaseReceiptEmail, ev events.PurchaseSettled)
	WalletCharged(ctx context.Context, notice email.WalletChargedEmail, ev events.WalletCharged)
	RoadmapFinished(ctx context.Context, gift *email.RoadmapGiftEmail, ev events.RoadmapFinished)
}

// Enqueuer is implemented by *worker.Pool.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

type poolNotifier struct {
	pool      Enqueuer
	mailer    jobs.Mailer
	publisher events.Publisher
	logger    *slog.Logger
}

// NewPoolNotifier queues e-mails and events on the worker pool.
func NewPoolNotifier(pool Enqueuer, mailer jobs.Mailer, publisher events.Publisher, logger *slog.Logger) Notifier {
	return &poolNotifier{pool: pool, mailer: mailer, publisher: publisher, logger: logger}
}

func (n *poolNotifier) PurchaseSettled(_ context.Context, receipt email.PurchaseReceiptEmail, ev events.PurchaseSettled) {
	if receipt.Email != "" {
		n.enqueue(jobs.PurchaseReceipt(n.mailer, receipt))
	}
	n.enqueue(jobs.PublishEvent(n.publisher, events.SubjectPurchaseSettled, ev))
}

func (n *poolNotifier) WalletCharged(_ context.Context, notice email.WalletChargedEmail, ev events.WalletCharged) {
	if notice.Email != "" {
		n.enqueue(jobs.WalletCharged(n.mailer, notice))
	}
	n.enqueue(jobs.PublishEvent(n.publisher, events.SubjectWalletCharged, ev))
}

func (n *poolNotifier) RoadmapFinished(_ context.Context, gift *email.RoadmapGiftEmail, ev events.RoadmapFinished) {
	if gift != nil && gift.Email != "" {
		n.enqueue(jobs.RoadmapGift(n.mailer, *gift))
	}
	n.enqueue(jobs.PublishEvent(n.publisher, events.SubjectRoadmapFinished, ev))
}

func (n *poolNotifier) enqueue(job worker.Job) {
	if !n.pool.Enqueue(job) {
		n.logger.Warn("notification dropped", "job_type", job.Type)
	}
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

func (NoopNotifier) PurchaseSettled(context.Context, email.PurchaseReceiptEmail, events.PurchaseSettled) {
}

func (NoopNotifier) WalletCharged(context.Context, email.WalletChargedEmail, events.WalletCharged) {
}

func (NoopNotifier) RoadmapFinished(context.Context, *email.RoadmapGiftEmail, events.RoadmapFinished) {
}
