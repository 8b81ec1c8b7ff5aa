package ledger

import (
	"context"
	"fmt"

	"dsb/src/models"
	"dsb/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetadataUnknown fills optional metadata fields that were not supplied, so
// audit queries can always rely on the key being present.
const MetadataUnknown = "unknown"

// Recorder appends rows to the transaction ledger. There are no update or
// delete operations; a refund or correction is always a new row.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts a transaction row. When the row carries a gateway
// transaction id and a row with that id already exists, nothing is written
// and inserted is false. The unique index is the cross-request idempotency
// guard for webhook retries.
func (r *Recorder) Record(ctx context.Context, txn *models.Transaction) (uuid.UUID, bool, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.Type == "" {
		txn.Type = types.TRANSACTION_PAYMENT
	}
	if txn.Status == "" {
		txn.Status = types.TRANSACTION_PENDING
	}
	if txn.Metadata == nil {
		txn.Metadata = map[string]any{}
	}
	for _, key := range []string{"client_ip", "user_agent"} {
		if v, ok := txn.Metadata[key]; !ok || v == "" {
			txn.Metadata[key] = MetadataUnknown
		}
	}

	tx := r.db.WithContext(ctx)
	if txn.GatewayTransactionID != nil {
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway_transaction_id"}},
			DoNothing: true,
		})
	}
	res := tx.Create(txn)
	if res.Error != nil {
		return uuid.Nil, false, fmt.Errorf("could not record transaction: %w", res.Error)
	}
	return txn.ID, res.RowsAffected > 0, nil
}

// FindByGatewayTransactionID looks up the ledger row for a gateway id.
func (r *Recorder) FindByGatewayTransactionID(ctx context.Context, gatewayTxnID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("gateway_transaction_id = ?", gatewayTxnID).
		First(&txn).
		Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListForBooking returns the full ledger for one booking, oldest first.
func (r *Recorder) ListForBooking(ctx context.Context, bookingID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("booking_id = ?", bookingID).
		Find(&txns).
		Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
