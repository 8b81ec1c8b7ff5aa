package catalog

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"dsb/src/models"
	"dsb/src/pricing"
	"dsb/src/types"

	"github.com/DATA-DOG/go-sqlmock"
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

func serviceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "category", "is_active", "priority", "created_at",
		"pricing_base_price", "pricing_currency", "pricing_gst_percentage", "pricing_final_price",
	})
}

func TestListActiveServicesOrdering(t *testing.T) {
	db, mock := newMockDB(t)
	older := testNow.Add(-48 * time.Hour)
	newer := testNow.Add(-1 * time.Hour)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows().
			AddRow(1, "LMV Training", "training", true, 2, older, 6000, "INR", 18, 7080).
			AddRow(2, "Two Wheeler", "training", true, 1, older, 3000, "INR", 18, 3540).
			AddRow(3, "License Renewal", "online", true, 1, older, 500, "INR", 18, 590).
			AddRow(4, "Heavy Vehicle", "training", true, 2, newer, 9000, "INR", 18, 10620))

	acc := NewAccessorAt(db, nil, nil, fixedNow)
	services := acc.ListActiveServices(context.Background(), "training")

	assert.Len(t, services, 3)
	// priority ascending, newest first on ties
	assert.Equal(t, uint(2), services[0].ID)
	assert.Equal(t, uint(4), services[1].ID)
	assert.Equal(t, uint(1), services[2].ID)
}

func TestListActiveServicesDegradesToEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnError(errors.New("connection refused"))

	acc := NewAccessorAt(db, nil, nil, fixedNow)
	services := acc.ListActiveServices(context.Background(), "training")

	assert.NotNil(t, services)
	assert.Len(t, services, 0)
}

func TestListActiveServicesCached(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows().
			AddRow(1, "LMV Training", "training", true, 1, testNow, 6000, "INR", 18, 7080))

	cache := NewMemoryCache(time.Minute)
	acc := NewAccessorAt(db, cache, nil, fixedNow)

	first := acc.ListActiveServices(context.Background(), "training")
	second := acc.ListActiveServices(context.Background(), "training")

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestGetServiceNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnRows(serviceRows())

	acc := NewAccessorAt(db, nil, nil, fixedNow)
	_, err := acc.GetService(context.Background(), 42)

	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestGetServiceStoreError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "services"`).
		WillReturnError(errors.New("connection refused"))

	acc := NewAccessorAt(db, nil, nil, fixedNow)
	_, err := acc.GetService(context.Background(), 42)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestUpsertServiceRecomputesFinalPrice(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active"}).AddRow(7, true))
	mock.ExpectCommit()

	audited := false
	acc := NewAccessorAt(db, nil, func(action, target string) bool {
		audited = true
		return true
	}, fixedNow)

	pct := 20.0
	valid := testNow.Add(time.Hour)
	svc := &models.Service{
		Title:    "LMV Training",
		Category: types.SERVICE_TRAINING,
		Pricing: models.ServicePricing{
			BasePrice:          1000,
			Currency:           "INR",
			DiscountPercentage: &pct,
			DiscountValidUntil: &valid,
			GSTPercentage:      18,
			FinalPrice:         999999, // stale cache, must be overwritten
		},
	}
	id, err := acc.UpsertService(context.Background(), svc)

	assert.Nil(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, 944.00, svc.Pricing.FinalPrice)
	assert.Equal(t, "lmv-training", svc.Slug)
	assert.True(t, audited)
}

func TestUpsertServiceInvalidPricing(t *testing.T) {
	db, _ := newMockDB(t)
	acc := NewAccessorAt(db, nil, nil, fixedNow)

	pct := 150.0
	_, err := acc.UpsertService(context.Background(), &models.Service{
		Title:   "Broken",
		Pricing: models.ServicePricing{BasePrice: 100, DiscountPercentage: &pct},
	})

	var verr *pricing.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpsertServiceStoreErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "services"`).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	acc := NewAccessorAt(db, nil, nil, fixedNow)
	_, err := acc.UpsertService(context.Background(), &models.Service{
		Title:   "LMV Training",
		Pricing: models.ServicePricing{BasePrice: 1000, Currency: "INR"},
	})

	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDeactivateService(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "services"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var gotAction string
	acc := NewAccessorAt(db, nil, func(action, target string) bool {
		gotAction = action
		return true
	}, fixedNow)

	assert.Nil(t, acc.DeactivateService(context.Background(), 3))
	assert.Equal(t, "service.deactivate", gotAction)
}

func TestDeactivateServiceMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "services"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	acc := NewAccessorAt(db, nil, nil, fixedNow)
	err := acc.DeactivateService(context.Background(), 99)

	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	cache.Set(context.Background(), "k", "v")

	val, ok := cache.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(context.Background(), "k")
	assert.False(t, ok)
}
