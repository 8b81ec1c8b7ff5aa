package lib

import (
	"fmt"
	"log"
	"time"

	"dsb/src/catalog"
	"dsb/src/db"
	"dsb/src/models"
	"dsb/src/pricing"

	"github.com/go-co-op/gocron/v2"
)

var scheduler gocron.Scheduler

func NewScheduler(s gocron.Scheduler) {
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	return sched, nil
}

func CreateCronJob(handler any, duration time.Duration, args ...any) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		return nil, err
	}
	j, err := sched.NewJob(
		gocron.DurationJob(duration),
		gocron.NewTask(handler, args...),
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	return &id, nil
}

// StartPricingSweep refreshes stored final prices after discount windows
// lapse. The calculator already ignores an expired discount at read time;
// the sweep keeps the denormalized column from drifting behind it.
func StartPricingSweep(every time.Duration) error {
	if _, err := CreateCronJob(SweepExpiredDiscounts, every); err != nil {
		return err
	}
	sched, err := GetScheduler()
	if err != nil {
		return err
	}
	sched.Start()
	return nil
}

func SweepExpiredDiscounts() {
	conn := db.GetDb()
	now := time.Now()

	var services []models.Service
	err := conn.
		Model(&models.Service{}).
		Where("pricing_discount_valid_until IS NOT NULL AND pricing_discount_valid_until <= ?", now).
		Find(&services).
		Error
	if err != nil {
		log.Printf("Pricing sweep query failed: %s\n", err.Error())
		return
	}

	for _, svc := range services {
		final, err := pricing.ComputeFinalPrice(catalog.PricingInput(svc.Pricing), now)
		if err != nil {
			log.Printf("Pricing sweep skipping service %d: %s\n", svc.ID, err.Error())
			continue
		}
		if final == svc.Pricing.FinalPrice {
			continue
		}
		err = conn.
			Model(&models.Service{}).
			Where("id = ?", svc.ID).
			Update("pricing_final_price", final).
			Error
		if err != nil {
			log.Printf("Pricing sweep could not update service %d: %s\n", svc.ID, err.Error())
			continue
		}
		Audit("service.pricing_sweep", fmt.Sprintf("service:%d", svc.ID))
	}
	if len(services) > 0 {
		log.Printf("Pricing sweep checked %d services\n", len(services))
	}
}
