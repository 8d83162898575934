package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MailMessage is the subset of an email the signal detector looks at.
type MailMessage struct {
	ID         string
	From       string
	Subject    string
	Snippet    string
	Body       string
	ReceivedAt time.Time
}

type SignalStatus string

const (
	SignalStatusNew       SignalStatus = "new"
	SignalStatusConfirmed SignalStatus = "confirmed"
	SignalStatusDismissed SignalStatus = "dismissed"
)

// DetectedSignal is a recurring-payment hint extracted from a mailbox.
type DetectedSignal struct {
	ID           string
	UserID       string
	ServiceName  string
	Amount       decimal.Decimal
	Currency     string
	BillingCycle BillingCycle
	Confidence   float64
	MessageID    string
	ReceivedAt   time.Time
	Status       SignalStatus
	CreatedAt    time.Time
}
