package email

import "time"

// Template is implemented by every message payload.
type Template interface {
	Subject() string
	TemplateName() string
}

// PurchaseReceiptEmail is sent after a checkout settles.
type PurchaseReceiptEmail struct {
	Name            string
	Email           string
	Authority       string
	TransactionCode string
	PaidAt          time.Time
	Courses         []ReceiptLine
	TotalPrice      int64
	Method          string
}

type ReceiptLine struct {
	Title        string
	Price        int64
	PayablePrice int64
}

func (e PurchaseReceiptEmail) Subject() string {
	return "Your course purchase receipt"
}

func (e PurchaseReceiptEmail) TemplateName() string {
	return "purchase_receipt.html"
}

// WalletChargedEmail is sent after a wallet top-up settles.
type WalletChargedEmail struct {
	Name       string
	Email      string
	Amount     int64
	NewBalance int64
	ChargedAt  time.Time
}

func (e WalletChargedEmail) Subject() string {
	return "Your wallet has been charged"
}

func (e WalletChargedEmail) TemplateName() string {
	return "wallet_charged.html"
}

// RoadmapGiftEmail carries the gift code minted when a roadmap is finished.
type RoadmapGiftEmail struct {
	Name        string
	Email       string
	BundleTitle string
	Code        string
	Percent     int64
	ExpiresAt   time.Time
}

func (e RoadmapGiftEmail) Subject() string {
	return "Your roadmap gift code"
}

func (e RoadmapGiftEmail) TemplateName() string {
	return "roadmap_gift.html"
}
