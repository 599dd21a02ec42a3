package domain

import (
	"math"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// EventChargeSuccess is the only webhook event the relay acts on.
const EventChargeSuccess = "charge.success"

// GatewayStatusSuccess is the transaction status the gateway reports for a settled charge.
const GatewayStatusSuccess = "success"

type OutcomeStatus string

const (
	OutcomeSuccess          OutcomeStatus = "success"
	OutcomeFailed           OutcomeStatus = "failed"
	OutcomeAlreadyProcessed OutcomeStatus = "already_processed"
)

// Outcome is the result of reconciling a transaction reference.
// Data is nil for OutcomeAlreadyProcessed.
type Outcome struct {
	Status    OutcomeStatus
	Reference string
	Data      json.RawMessage
}

// Settled reports whether the reference is known to be paid.
func (o Outcome) Settled() bool {
	return o.Status == OutcomeSuccess || o.Status == OutcomeAlreadyProcessed
}

type WebhookStatus string

const (
	WebhookRecorded WebhookStatus = "recorded"
	WebhookIgnored  WebhookStatus = "ignored"
)

const (
	IgnoreReasonUnhandledEvent   = "unhandled_event"
	IgnoreReasonAlreadyProcessed = "already_processed"
)

// WebhookOutcome is the result of recording a webhook delivery. Reason is only
// set for ignored deliveries and is never exposed to the sender.
type WebhookOutcome struct {
	Status    WebhookStatus
	Reference string
	Reason    string
}

var (
	minorUnitsPerMajor = decimal.NewFromInt(100)
	maxMinorUnits      = decimal.NewFromInt(math.MaxInt64)
)

// MinorUnits converts a major-unit amount to integer minor units, truncating
// any fraction below one minor unit. Amounts whose minor-unit value does not
// fit in an int64 return ErrInvalidAmount.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(minorUnitsPerMajor).Truncate(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(maxMinorUnits.Neg()) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// InitializeRequest is a checkout initialization in major currency units.
type InitializeRequest struct {
	Email  string
	Amount decimal.Decimal
}

// InitializeResult carries the gateway's raw authorization payload.
type InitializeResult struct {
	Payload json.RawMessage
}

// VerifyResult is the gateway's view of a transaction.
type VerifyResult struct {
	Status  string
	Payload json.RawMessage
}

// CallbackRequest holds the query parameters of a browser redirect.
type CallbackRequest struct {
	TrxRef    string
	Reference string
}

// CallbackResult is where the browser should be sent next.
type CallbackResult struct {
	RedirectURL string
	Outcome     Outcome
}
