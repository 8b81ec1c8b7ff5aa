package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"dsb/src/booking"
	"dsb/src/catalog"
	"dsb/src/lib"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
)

// paymentHandlers receives what the razorpay checkout modal posts back after
// the customer pays or abandons the payment.
func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/razorpay/callback", func(ctx *gin.Context) {
			var body struct {
				Reference         string `json:"reference" binding:"required,uuid"`
				RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
				RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
				RazorpaySignature string `json:"razorpay_signature" binding:"required"`
				Method            string `json:"method,omitempty"`
				Amount            int64  `json:"amount,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !lib.VerifyRazorpaySignature(body.RazorpayOrderID, body.RazorpayPaymentID, body.RazorpaySignature) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment signature"})
				return
			}

			orch := getOrchestrator()
			err := orch.Confirm(ctx, body.Reference, booking.ProviderResult{
				GatewayTransactionID: body.RazorpayPaymentID,
				GatewayOrderID:       body.RazorpayOrderID,
				GatewaySignature:     body.RazorpaySignature,
				PaidAmount:           float64(body.Amount) / 100,
				Method:               body.Method,
				ClientIP:             ctx.ClientIP(),
				UserAgent:            ctx.Request.UserAgent(),
			})
			if err != nil {
				confirmErrorResponse(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "confirmed"})
		}).
		POST("/payments/razorpay/failed", func(ctx *gin.Context) {
			var body struct {
				Reference string `json:"reference" binding:"required,uuid"`
				Code      string `json:"code,omitempty"`
				Reason    string `json:"reason,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orch := getOrchestrator()
			reason := body.Reason
			if reason == "" {
				reason = "payment failed"
			}
			err := orch.Fail(ctx, body.Reference, booking.ProviderResult{
				ClientIP:  ctx.ClientIP(),
				UserAgent: ctx.Request.UserAgent(),
			}, reason)
			if err != nil {
				confirmErrorResponse(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "failed"})
		})
	return g
}

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var session stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			paymentIntent := gjson.GetBytes(event.Data.Raw, "payment_intent").String()
			orch := getOrchestrator()
			err := orch.Confirm(ctx, session.ClientReferenceID, booking.ProviderResult{
				GatewayTransactionID: paymentIntent,
				GatewayOrderID:       session.ID,
				PaidAmount:           float64(session.AmountTotal) / 100,
				Method:               "card",
				ClientIP:             ctx.ClientIP(),
				UserAgent:            ctx.Request.UserAgent(),
			})
			if err != nil {
				log.Printf("[Stripe] Could not confirm booking %s: %s\n", session.ClientReferenceID, err.Error())
				// non-2xx makes Stripe redeliver; the confirm is idempotent
				ctx.Status(http.StatusInternalServerError)
				return
			}
		case "checkout.session.expired", "checkout.session.async_payment_failed":
			reference := gjson.GetBytes(event.Data.Raw, "client_reference_id").String()
			orch := getOrchestrator()
			if err := orch.Fail(ctx, reference, booking.ProviderResult{}, string(event.Type)); err != nil {
				log.Printf("[Stripe] Could not mark booking %s failed: %s\n", reference, err.Error())
			}
		default:
			log.Printf("[Stripe] Ignoring event type %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

func confirmErrorResponse(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrServiceNotFound):
		ctx.JSON(http.StatusConflict, gin.H{"error": "service is no longer available"})
	case errors.Is(err, catalog.ErrStoreUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}
