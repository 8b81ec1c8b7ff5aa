package booking

import (
	"context"
	"fmt"

	"dsb/src/types"
)

// PaymentSession is what a gateway hands back when a checkout is opened.
// Redirect-style gateways populate RedirectURL; modal/SDK-style gateways only
// need the session id on the client.
type PaymentSession struct {
	SessionID   string               `json:"session_id"`
	RedirectURL string               `json:"redirect_url,omitempty"`
	Gateway     types.PaymentGateway `json:"gateway"`
}

type SessionRequest struct {
	BookingID     uint
	ReferenceID   string
	Amount        float64
	Currency      string
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// PaymentProvider abstracts the hosted payment gateway. The orchestrator
// never branches on which concrete gateway is behind it.
type PaymentProvider interface {
	Name() types.PaymentGateway
	CreateSession(ctx context.Context, req SessionRequest) (*PaymentSession, error)
}

// ProviderResult is the normalized shape of a gateway success/failure
// callback.
type ProviderResult struct {
	GatewayTransactionID string
	GatewayOrderID       string
	GatewaySignature     string
	PaidAmount           float64
	Method               string
	ClientIP             string
	UserAgent            string
}

// PaymentProviderError wraps any failure reported by a gateway. The booking
// it relates to is kept, marked pending/failed and retryable.
type PaymentProviderError struct {
	Gateway types.PaymentGateway
	Err     error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider %s: %s", e.Gateway, e.Err.Error())
}

func (e *PaymentProviderError) Unwrap() error {
	return e.Err
}
