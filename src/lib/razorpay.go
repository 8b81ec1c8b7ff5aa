package lib

import (
	"context"
	"fmt"
	"log"
	"os"

	"dsb/src/booking"
	"dsb/src/types"

	razorpay "github.com/razorpay/razorpay-go"
	razorpayUtils "github.com/razorpay/razorpay-go/utils"
)

var razorpayClient *razorpay.Client

func GetRazorpayClient() *razorpay.Client {
	if razorpayClient != nil {
		return razorpayClient
	}
	key := os.Getenv("RAZORPAY_KEY_ID")
	secret := os.Getenv("RAZORPAY_KEY_SECRET")
	rc := razorpay.NewClient(key, secret)
	razorpayClient = rc
	return rc
}

func NewRazorpayClient(c *razorpay.Client) {
	razorpayClient = c
}

// RazorpayProvider creates an order for the embedded checkout modal. The
// customer never leaves the site; the client opens the modal with the order
// id and posts the result back.
type RazorpayProvider struct{}

func (p *RazorpayProvider) Name() types.PaymentGateway {
	return types.GATEWAY_RAZORPAY
}

func (p *RazorpayProvider) CreateSession(_ context.Context, req booking.SessionRequest) (*booking.PaymentSession, error) {
	rc := GetRazorpayClient()
	data := map[string]any{
		"amount":   MinorUnits(req.Amount),
		"currency": req.Currency,
		"receipt":  req.ReferenceID,
		"notes": map[string]any{
			"booking_reference": req.ReferenceID,
			"customer_name":     req.CustomerName,
			"customer_phone":    req.CustomerPhone,
		},
	}
	order, err := rc.Order.Create(data, nil)
	if err != nil {
		return nil, err
	}
	orderID, ok := order["id"].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected order response: missing id")
	}
	return &booking.PaymentSession{
		SessionID: orderID,
		Gateway:   types.GATEWAY_RAZORPAY,
	}, nil
}

// VerifyRazorpaySignature checks the HMAC the checkout modal posts back after
// a payment. A callback with a bad signature is discarded before it gets
// anywhere near a booking.
func VerifyRazorpaySignature(orderID, paymentID, signature string) bool {
	secret := os.Getenv("RAZORPAY_KEY_SECRET")
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	ok := razorpayUtils.VerifyPaymentSignature(params, signature, secret)
	if !ok {
		log.Printf("Signature verification failed for order %s\n", orderID)
	}
	return ok
}
