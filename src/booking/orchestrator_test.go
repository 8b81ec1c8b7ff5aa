package booking

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"dsb/src/catalog"
	"dsb/src/ledger"
	"dsb/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type fakeProvider struct {
	fail bool
	last SessionRequest
}

func (p *fakeProvider) Name() types.PaymentGateway { return types.GATEWAY_RAZORPAY }

func (p *fakeProvider) CreateSession(_ context.Context, req SessionRequest) (*PaymentSession, error) {
	p.last = req
	if p.fail {
		return nil, errors.New("gateway unreachable")
	}
	return &PaymentSession{SessionID: "order_XYZ", Gateway: types.GATEWAY_RAZORPAY}, nil
}

func newOrchestrator(db *gorm.DB, provider PaymentProvider) *Orchestrator {
	cat := catalog.NewAccessorAt(db, nil, nil, fixedNow)
	rec := ledger.NewRecorder(db)
	return NewOrchestrator(db, cat, rec, []PaymentProvider{provider}, nil).WithClock(fixedNow)
}

func serviceColumns() []string {
	return []string{
		"id", "title", "category", "is_active", "priority", "created_at",
		"pricing_base_price", "pricing_currency", "pricing_gst_percentage", "pricing_final_price",
	}
}

func expectServiceRow(mock sqlmock.Sqlmock, active bool) {
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(sqlmock.NewRows(serviceColumns()).
			AddRow(1, "LMV Training", "training", active, 1, testNow, 6000, "INR", 18, 7080))
}

func bookingColumns() []string {
	return []string{
		"id", "service_id", "service_type", "reference_id", "customer_name",
		"customer_email", "customer_phone", "status", "payment_status",
		"amount", "currency", "gateway",
	}
}

func expectBookingRow(mock sqlmock.Sqlmock, ref uuid.UUID, paymentStatus string) {
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows(bookingColumns()).
			AddRow(10, 1, "training", ref.String(), "Ravi Kumar",
				"ravi@example.com", "9876543210", "pending", paymentStatus,
				7080, "INR", "razorpay"))
}

// The transactions insert always comes back as a query: the uuid primary key
// has a database-side default, so the driver appends RETURNING "id".
func expectTransactionInsert(mock sqlmock.Sqlmock, inserted bool) {
	rows := sqlmock.NewRows([]string{"id"})
	if inserted {
		rows.AddRow(uuid.NewString())
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).WillReturnRows(rows)
	mock.ExpectCommit()
}

func validForm() FormData {
	return FormData{
		CustomerName:  "Ravi Kumar",
		CustomerEmail: "ravi@example.com",
		CustomerPhone: "+919876543210",
		ScheduledDate: "2025-07-01 10:00:00 +05:30",
	}
}

func TestCreateBooking(t *testing.T) {
	db, mock := newMockDB(t)
	expectServiceRow(mock, true)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	provider := &fakeProvider{}
	o := newOrchestrator(db, provider)
	b, session, err := o.Create(context.Background(), 1, validForm(), types.GATEWAY_RAZORPAY)

	assert.Nil(t, err)
	assert.NotNil(t, session)
	assert.Equal(t, "order_XYZ", session.SessionID)
	// amount is recomputed server-side: 6000 * 1.18
	assert.Equal(t, 7080.00, b.Amount)
	assert.Equal(t, 7080.00, provider.last.Amount)
	assert.Equal(t, "9876543210", b.CustomerPhone)
	assert.Equal(t, types.BOOKING_PENDING, b.Status)
	assert.Equal(t, types.PAYMENT_PENDING, b.PaymentStatus)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateBookingInactiveService(t *testing.T) {
	db, mock := newMockDB(t)
	expectServiceRow(mock, false)

	o := newOrchestrator(db, &fakeProvider{})
	_, _, err := o.Create(context.Background(), 1, validForm(), types.GATEWAY_RAZORPAY)

	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
}

func TestCreateBookingInvalidForm(t *testing.T) {
	db, mock := newMockDB(t)
	expectServiceRow(mock, true)

	o := newOrchestrator(db, &fakeProvider{})
	_, _, err := o.Create(context.Background(), 1, FormData{}, types.GATEWAY_RAZORPAY)

	var ferrs FormErrors
	assert.ErrorAs(t, err, &ferrs)
	assert.Contains(t, ferrs, FieldName)
	assert.Contains(t, ferrs, FieldScheduledDate)
}

func TestCreateBookingProviderFailure(t *testing.T) {
	db, mock := newMockDB(t)
	expectServiceRow(mock, true)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()
	// failed attempt is recorded, booking flips to pending/failed
	expectTransactionInsert(mock, true)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o := newOrchestrator(db, &fakeProvider{fail: true})
	b, session, err := o.Create(context.Background(), 1, validForm(), types.GATEWAY_RAZORPAY)

	var perr *PaymentProviderError
	assert.ErrorAs(t, err, &perr)
	assert.Nil(t, session)
	assert.NotNil(t, b)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestConfirmIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	ref := uuid.New()

	// first webhook delivery confirms
	expectBookingRow(mock, ref, "pending")
	expectServiceRow(mock, true)
	expectTransactionInsert(mock, true)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// retry sees the paid booking and stops at the first select
	expectBookingRow(mock, ref, "paid")

	o := newOrchestrator(db, &fakeProvider{})
	res := ProviderResult{GatewayTransactionID: "pay_ABC", PaidAmount: 7080, Method: "upi"}

	assert.Nil(t, o.Confirm(context.Background(), ref.String(), res))
	assert.Nil(t, o.Confirm(context.Background(), ref.String(), res))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestConfirmRetryIgnoresDeactivatedService(t *testing.T) {
	db, mock := newMockDB(t)
	ref := uuid.New()
	// the paid booking short-circuits before any service lookup, so a
	// deactivation between deliveries cannot turn the retry into an error
	expectBookingRow(mock, ref, "paid")

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Confirm(context.Background(), ref.String(), ProviderResult{GatewayTransactionID: "pay_ABC"})

	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestConfirmLedgerGuardWhenBookingStillPending(t *testing.T) {
	db, mock := newMockDB(t)
	ref := uuid.New()
	// a concurrent delivery already wrote the ledger row but has not flipped
	// the booking yet; the unique index turns this insert into a no-op
	expectBookingRow(mock, ref, "pending")
	expectServiceRow(mock, true)
	expectTransactionInsert(mock, false)

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Confirm(context.Background(), ref.String(), ProviderResult{GatewayTransactionID: "pay_ABC"})

	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestConfirmFailsClosedOnInactiveService(t *testing.T) {
	db, mock := newMockDB(t)
	ref := uuid.New()
	expectBookingRow(mock, ref, "pending")
	expectServiceRow(mock, false)

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Confirm(context.Background(), ref.String(), ProviderResult{GatewayTransactionID: "pay_ABC"})

	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestConfirmUnknownReference(t *testing.T) {
	db, _ := newMockDB(t)
	o := newOrchestrator(db, &fakeProvider{})

	err := o.Confirm(context.Background(), "not-a-uuid", ProviderResult{})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestFailKeepsBookingRetryable(t *testing.T) {
	db, mock := newMockDB(t)
	ref := uuid.New()
	expectBookingRow(mock, ref, "pending")
	expectTransactionInsert(mock, true)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Fail(context.Background(), ref.String(), ProviderResult{}, "payment declined")

	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRefundRequiresPaidBooking(t *testing.T) {
	db, mock := newMockDB(t)
	expectBookingRow(mock, uuid.New(), "pending")

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Refund(context.Background(), 10, 0, "requested")

	assert.ErrorIs(t, err, ErrBookingNotRefundable)
}

func TestRefundPartial(t *testing.T) {
	db, mock := newMockDB(t)
	expectBookingRow(mock, uuid.New(), "paid")
	expectTransactionInsert(mock, true)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Refund(context.Background(), 10, 1000, "partial adjustment")

	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRefundRejectsAmountAbovePaid(t *testing.T) {
	db, mock := newMockDB(t)
	expectBookingRow(mock, uuid.New(), "paid")

	o := newOrchestrator(db, &fakeProvider{})
	err := o.Refund(context.Background(), 10, 9999, "requested")

	assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	assert.Nil(t, mock.ExpectationsWereMet())
}
