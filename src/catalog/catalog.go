package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"dsb/src/models"
	"dsb/src/pricing"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Cache is a read-through cache for catalog listings. Implementations carry
// their own TTL; Invalidate drops keys after a write.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
	Invalidate(ctx context.Context, keys ...string)
}

// AuditFunc records a mutation. It must never fail the caller; the bool
// result only makes write failures observable.
type AuditFunc func(action string, target string) bool

// Accessor reads and writes service records. Reads degrade to an empty list
// when the store is unreachable so page rendering never hard-fails; writes
// propagate the error instead.
type Accessor struct {
	db    *gorm.DB
	cache Cache
	audit AuditFunc
	now   func() time.Time
}

func NewAccessor(db *gorm.DB, cache Cache, audit AuditFunc) *Accessor {
	if audit == nil {
		audit = func(string, string) bool { return true }
	}
	return &Accessor{db: db, cache: cache, audit: audit, now: time.Now}
}

// NewAccessorAt pins the clock used for discount-window checks. Tests use it;
// production wiring keeps time.Now.
func NewAccessorAt(db *gorm.DB, cache Cache, audit AuditFunc, now func() time.Time) *Accessor {
	a := NewAccessor(db, cache, audit)
	a.now = now
	return a
}

// ListActiveServices returns active services of the given kind ordered by
// priority ascending, ties broken by newest first. Only the is_active
// equality is pushed to the store; kind filtering and ordering happen here so
// no compound index is ever required.
func (a *Accessor) ListActiveServices(ctx context.Context, kind string) []models.Service {
	key := fmt.Sprintf("catalog:active:%s", kind)
	if a.cache != nil {
		if raw, ok := a.cache.Get(ctx, key); ok {
			var cached []models.Service
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached
			}
		}
	}

	var services []models.Service
	err := a.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("is_active = ?", true).
		Find(&services).
		Error
	if err != nil {
		log.Printf("Could not list services: %s\n", err.Error())
		return []models.Service{}
	}

	filtered := make([]models.Service, 0, len(services))
	for _, s := range services {
		if kind == "" || string(s.Category) == kind {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Priority != filtered[j].Priority {
			return filtered[i].Priority < filtered[j].Priority
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	if a.cache != nil {
		if raw, err := json.Marshal(filtered); err == nil {
			a.cache.Set(ctx, key, string(raw))
		}
	}
	return filtered
}

func (a *Accessor) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	err := a.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		First(&svc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, err.Error())
	}
	return &svc, nil
}

// UpsertService persists a service, always recomputing the cached final price
// from the other pricing fields first. A caller can never store a final price
// that disagrees with base/discount/taxes.
func (a *Accessor) UpsertService(ctx context.Context, svc *models.Service) (uint, error) {
	final, err := pricing.ComputeFinalPrice(PricingInput(svc.Pricing), a.now())
	if err != nil {
		return 0, err
	}
	svc.Pricing.FinalPrice = final
	if svc.Slug == "" {
		svc.Slug = slug.Make(svc.Title)
	}

	if err := a.db.WithContext(ctx).Save(svc).Error; err != nil {
		return 0, fmt.Errorf("%w: %s", ErrStoreUnavailable, err.Error())
	}
	a.invalidate(ctx)
	a.audit("service.upsert", fmt.Sprintf("service:%d", svc.ID))
	return svc.ID, nil
}

// DeactivateService hides a service from the catalog. Records are never
// deleted; booking history keeps pointing at real rows.
func (a *Accessor) DeactivateService(ctx context.Context, id uint) error {
	res := a.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return ErrServiceNotFound
	}
	a.invalidate(ctx)
	a.audit("service.deactivate", fmt.Sprintf("service:%d", id))
	return nil
}

func (a *Accessor) invalidate(ctx context.Context) {
	if a.cache == nil {
		return
	}
	a.cache.Invalidate(ctx,
		"catalog:active:",
		"catalog:active:training",
		"catalog:active:online",
	)
}

// PricingInput maps stored pricing columns to the calculator's canonical input.
func PricingInput(p models.ServicePricing) pricing.Input {
	return pricing.Input{
		BasePrice:          p.BasePrice,
		Currency:           p.Currency,
		DiscountPercentage: p.DiscountPercentage,
		DiscountAmount:     p.DiscountAmount,
		DiscountValidUntil: p.DiscountValidUntil,
		GSTPercentage:      p.GSTPercentage,
		ServiceTaxPercent:  p.ServiceTaxPercent,
		OtherCharges:       p.OtherCharges,
	}
}
