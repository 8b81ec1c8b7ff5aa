package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dsb/src/catalog"
	"dsb/src/config"
	"dsb/src/ledger"
	"dsb/src/models"
	"dsb/src/pricing"
	"dsb/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrUnknownGateway       = errors.New("unknown payment gateway")
	ErrBookingNotRefundable = errors.New("booking has no successful payment to refund")
	ErrRefundExceedsPayment = errors.New("refund amount exceeds the paid amount")
)

// FormErrors is the field -> message map produced by the validator, carried
// as an error so handlers can surface it per-field.
type FormErrors map[string]string

func (e FormErrors) Error() string {
	return fmt.Sprintf("invalid booking form (%d fields)", len(e))
}

// Orchestrator drives a booking through pending -> confirmed/failed. All
// money amounts are computed server-side from current catalog pricing.
type Orchestrator struct {
	db        *gorm.DB
	catalog   *catalog.Accessor
	recorder  *ledger.Recorder
	providers map[types.PaymentGateway]PaymentProvider
	audit     catalog.AuditFunc
	notify    func(b *models.Booking)
	now       func() time.Time
}

func NewOrchestrator(db *gorm.DB, cat *catalog.Accessor, rec *ledger.Recorder, providers []PaymentProvider, audit catalog.AuditFunc) *Orchestrator {
	m := make(map[types.PaymentGateway]PaymentProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	if audit == nil {
		audit = func(string, string) bool { return true }
	}
	return &Orchestrator{
		db:        db,
		catalog:   cat,
		recorder:  rec,
		providers: m,
		audit:     audit,
		now:       time.Now,
	}
}

// WithNotifier sets a hook invoked after a booking is confirmed. Failures in
// the hook never affect the booking.
func (o *Orchestrator) WithNotifier(notify func(b *models.Booking)) *Orchestrator {
	o.notify = notify
	return o
}

// WithClock pins the clock used for pricing. Tests use it.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Create validates the form, snapshots the customer into a pending/pending
// booking priced from the service's current pricing, and opens a payment
// session with the chosen gateway.
func (o *Orchestrator) Create(ctx context.Context, serviceID uint, form FormData, gateway types.PaymentGateway) (*models.Booking, *PaymentSession, error) {
	svc, err := o.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	if !svc.IsActive {
		return nil, nil, catalog.ErrServiceNotFound
	}

	if errs := ValidateForm(form, svc.Scheduled()); len(errs) > 0 {
		return nil, nil, FormErrors(errs)
	}

	provider, ok := o.providers[gateway]
	if !ok {
		return nil, nil, ErrUnknownGateway
	}

	amount, err := pricing.ComputeFinalPrice(catalog.PricingInput(svc.Pricing), o.now())
	if err != nil {
		return nil, nil, err
	}
	currency := svc.Pricing.Currency
	if currency == "" {
		currency = config.DEFAULT_CURRENCY
	}

	b := &models.Booking{
		ServiceID:       svc.ID,
		ServiceType:     svc.Category,
		ReferenceID:     uuid.New(),
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		CustomerPhone:   NormalizePhone(form.CustomerPhone),
		CustomerAddress: form.CustomerAddress,
		Notes:           form.Notes,
		Status:          types.BOOKING_PENDING,
		PaymentStatus:   types.PAYMENT_PENDING,
		Amount:          amount,
		Currency:        currency,
		Gateway:         gateway,
	}
	if svc.Scheduled() {
		scheduled, err := time.Parse(config.TIME_PARSE_FORMAT, form.ScheduledDate)
		if err != nil {
			return nil, nil, FormErrors{FieldScheduledDate: "Enter a valid date"}
		}
		b.ScheduledDate = &scheduled
	}

	if err := o.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	o.audit("booking.create", fmt.Sprintf("booking:%d", b.ID))

	session, err := provider.CreateSession(ctx, SessionRequest{
		BookingID:     b.ID,
		ReferenceID:   b.ReferenceID.String(),
		Amount:        b.Amount,
		Currency:      b.Currency,
		Description:   svc.Title,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
	})
	if err != nil {
		perr := &PaymentProviderError{Gateway: gateway, Err: err}
		if ferr := o.markFailed(ctx, b, nil, perr.Error()); ferr != nil {
			log.Printf("Could not mark booking %d as failed: %s\n", b.ID, ferr.Error())
		}
		return b, nil, perr
	}
	return b, session, nil
}

// Confirm applies a gateway success callback. It is safe to call more than
// once for the same gateway transaction id: the ledger insert is conditional
// on that id, and a duplicate turns the whole call into a no-op.
func (o *Orchestrator) Confirm(ctx context.Context, referenceID string, res ProviderResult) error {
	b, err := o.findByReference(ctx, referenceID)
	if err != nil {
		return err
	}

	// A paid booking means a prior delivery already went through. Short-circuit
	// before the service check, so a retry stays a no-op even if an admin
	// deactivated the service in the meantime.
	if b.PaymentStatus == types.PAYMENT_PAID {
		log.Printf("Duplicate confirmation for booking %d, ignoring\n", b.ID)
		return nil
	}

	// Fail closed when the service was deactivated after the booking was
	// created: never confirm against pricing that no longer exists.
	svc, err := o.catalog.GetService(ctx, b.ServiceID)
	if err != nil {
		return err
	}
	if !svc.IsActive {
		return catalog.ErrServiceNotFound
	}

	gatewayTxnID := res.GatewayTransactionID
	txn := &models.Transaction{
		BookingID:            b.ID,
		ServiceID:            b.ServiceID,
		Type:                 types.TRANSACTION_PAYMENT,
		Amount:               res.PaidAmount,
		Currency:             b.Currency,
		Status:               types.TRANSACTION_SUCCESS,
		Gateway:              b.Gateway,
		GatewayTransactionID: &gatewayTxnID,
		Metadata: map[string]any{
			"client_ip":  res.ClientIP,
			"user_agent": res.UserAgent,
			"method":     res.Method,
		},
	}
	if res.GatewayOrderID != "" {
		txn.GatewayOrderID = &res.GatewayOrderID
	}
	if res.GatewaySignature != "" {
		txn.GatewaySignature = &res.GatewaySignature
	}

	// Ledger first, booking second. A crash in between leaves a success row
	// with a pending booking, which is detectable and reconcilable; the
	// reverse would be a confirmed booking with no payment evidence.
	_, inserted, err := o.recorder.Record(ctx, txn)
	if err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	if !inserted {
		// Webhook retry. The first delivery already confirmed the booking.
		log.Printf("Duplicate confirmation for gateway transaction %s, ignoring\n", gatewayTxnID)
		return nil
	}

	paidAt := o.now()
	updates := models.Booking{
		Status:        types.BOOKING_CONFIRMED,
		PaymentStatus: types.PAYMENT_PAID,
		PaymentDetails: types.JSONB{
			"gateway_transaction_id": gatewayTxnID,
			"method":                 res.Method,
			"amount_paid":            res.PaidAmount,
			"paid_at":                paidAt.Format(time.RFC3339),
		},
	}
	if err := o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", b.ID).
		Updates(&updates).
		Error; err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	o.audit("booking.confirm", fmt.Sprintf("booking:%d", b.ID))

	if o.notify != nil {
		b.Status = types.BOOKING_CONFIRMED
		b.PaymentStatus = types.PAYMENT_PAID
		b.PaymentDetails = updates.PaymentDetails
		o.notify(b)
	}
	return nil
}

// Fail applies a gateway failure callback or timeout. The booking stays
// around in pending/failed so the customer can retry against the same id.
func (o *Orchestrator) Fail(ctx context.Context, referenceID string, res ProviderResult, reason string) error {
	b, err := o.findByReference(ctx, referenceID)
	if err != nil {
		return err
	}
	var gatewayTxnID *string
	if res.GatewayTransactionID != "" {
		gatewayTxnID = &res.GatewayTransactionID
	}
	return o.markFailed(ctx, b, gatewayTxnID, reason)
}

func (o *Orchestrator) markFailed(ctx context.Context, b *models.Booking, gatewayTxnID *string, reason string) error {
	txn := &models.Transaction{
		BookingID:            b.ID,
		ServiceID:            b.ServiceID,
		Type:                 types.TRANSACTION_PAYMENT,
		Amount:               b.Amount,
		Currency:             b.Currency,
		Status:               types.TRANSACTION_FAILED,
		Gateway:              b.Gateway,
		GatewayTransactionID: gatewayTxnID,
		Metadata:             map[string]any{"reason": reason},
	}
	if _, _, err := o.recorder.Record(ctx, txn); err != nil {
		log.Printf("Could not record failed payment for booking %d: %s\n", b.ID, err.Error())
	}
	if err := o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", b.ID).
		Update("payment_status", types.PAYMENT_FAILED).
		Error; err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	o.audit("booking.fail", fmt.Sprintf("booking:%d", b.ID))
	return nil
}

// Cancel is administrative. The payment ledger gets a cancellation row; the
// original payment row, if any, is untouched.
func (o *Orchestrator) Cancel(ctx context.Context, bookingID uint) error {
	b, err := o.findByID(ctx, bookingID)
	if err != nil {
		return err
	}
	txn := &models.Transaction{
		BookingID: b.ID,
		ServiceID: b.ServiceID,
		Type:      types.TRANSACTION_PAYMENT,
		Amount:    b.Amount,
		Currency:  b.Currency,
		Status:    types.TRANSACTION_CANCELED,
	}
	if _, _, err := o.recorder.Record(ctx, txn); err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	if err := o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", b.ID).
		Update("status", types.BOOKING_CANCELED).
		Error; err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	o.audit("booking.cancel", fmt.Sprintf("booking:%d", b.ID))
	return nil
}

// Refund is administrative. amount == 0 means a full refund; anything lower
// than the paid amount is recorded as a partial refund.
func (o *Orchestrator) Refund(ctx context.Context, bookingID uint, amount float64, reason string) error {
	b, err := o.findByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.PaymentStatus != types.PAYMENT_PAID {
		return ErrBookingNotRefundable
	}
	if amount > b.Amount {
		return ErrRefundExceedsPayment
	}
	refundType := types.TRANSACTION_REFUND
	if amount == 0 {
		amount = b.Amount
	}
	if amount < b.Amount {
		refundType = types.TRANSACTION_PARTIAL_REFUND
	}
	txn := &models.Transaction{
		BookingID: b.ID,
		ServiceID: b.ServiceID,
		Type:      refundType,
		Amount:    amount,
		Currency:  b.Currency,
		Status:    types.TRANSACTION_SUCCESS,
		Metadata:  map[string]any{"reason": reason},
	}
	if _, _, err := o.recorder.Record(ctx, txn); err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	if err := o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":         types.BOOKING_REFUNDED,
			"payment_status": types.PAYMENT_REFUNDED,
		}).
		Error; err != nil {
		return fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	o.audit("booking.refund", fmt.Sprintf("booking:%d", b.ID))
	return nil
}

func (o *Orchestrator) findByReference(ctx context.Context, referenceID string) (*models.Booking, error) {
	ref, err := uuid.Parse(referenceID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	var b models.Booking
	err = o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("reference_id = ?", ref).
		First(&b).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	return &b, nil
}

func (o *Orchestrator) findByID(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	err := o.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		First(&b).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %s", catalog.ErrStoreUnavailable, err.Error())
	}
	return &b, nil
}
