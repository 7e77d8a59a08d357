package jobs

import (
	"context"

	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/worker"
)

// Job types for best-effort notifications run on the worker pool.
const (
	JobTypePurchaseReceipt = "email:purchase_receipt"
	JobTypeWalletCharged   = "email:wallet_charged"
	JobTypeRoadmapGift     = "email:roadmap_gift"
	JobTypePublishEvent    = "event:publish"
)

// Mailer is implemented by *email.Service.
type Mailer interface {
	SendPurchaseReceipt(ctx context.Context, data email.PurchaseReceiptEmail) error
	SendWalletCharged(ctx context.Context, data email.WalletChargedEmail) error
	SendRoadmapGift(ctx context.Context, data email.RoadmapGiftEmail) error
}

func PurchaseReceipt(m Mailer, data email.PurchaseReceiptEmail) worker.Job {
	return worker.Job{
		Type: JobTypePurchaseReceipt,
		Run:  func(ctx context.Context) error { return m.SendPurchaseReceipt(ctx, data) },
	}
}

func WalletCharged(m Mailer, data email.WalletChargedEmail) worker.Job {
	return worker.Job{
		Type: JobTypeWalletCharged,
		Run:  func(ctx context.Context) error { return m.SendWalletCharged(ctx, data) },
	}
}

func RoadmapGift(m Mailer, data email.RoadmapGiftEmail) worker.Job {
	return worker.Job{
		Type: JobTypeRoadmapGift,
		Run:  func(ctx context.Context) error { return m.SendRoadmapGift(ctx, data) },
	}
}

// PublishEvent wraps a single event publish.
func PublishEvent(p events.Publisher, subject string, event any) worker.Job {
	return worker.Job{
		Type: JobTypePublishEvent,
		Run:  func(ctx context.Context) error { return p.Publish(ctx, subject, event) },
	}
}
