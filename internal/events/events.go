// Package events publishes domain events (settled purchases, wallet top-ups,
// finished roadmaps) to NATS for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event subjects, appended to the configured prefix.
const (
	SubjectPurchaseSettled = "purchase.settled"
	SubjectWalletCharged   = "wallet.charged"
	SubjectRoadmapFinished = "roadmap.finished"
)

type PurchaseSettled struct {
	Authority  string      `json:"authority"`
	UserID     uuid.UUID   `json:"user_id"`
	CourseIDs  []uuid.UUID `json:"course_ids"`
	TotalPrice int64       `json:"total_price"`
	Income     int64       `json:"income"`
	Method     string      `json:"method"`
	SettledAt  time.Time   `json:"settled_at"`
}

type WalletCharged struct {
	Authority  string    `json:"authority"`
	UserID     uuid.UUID `json:"user_id"`
	Amount     int64     `json:"amount"`
	NewBalance int64     `json:"new_balance"`
	Method     string    `json:"method"`
	ChargedAt  time.Time `json:"charged_at"`
}

type RoadmapFinished struct {
	RoadmapID  uuid.UUID `json:"roadmap_id"`
	UserID     uuid.UUID `json:"user_id"`
	BundleID   uuid.UUID `json:"bundle_id"`
	GiftCode   string    `json:"gift_code,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher sends an event payload to subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// NATSPublisher publishes JSON-encoded events on "<prefix>.<subject>".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to url. Reconnects are unlimited so a broker
// restart does not require restarting the API.
func NewNATSPublisher(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("academy-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if prefix == "" {
		prefix = "academy"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	msg := nats.NewMsg(p.prefix + "." + subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close drains pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher discards events. Used when NATS_URL is not set.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }
