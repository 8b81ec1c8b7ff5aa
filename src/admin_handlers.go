package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"dsb/src/booking"
	"dsb/src/catalog"
	"dsb/src/config"
	"dsb/src/db"
	"dsb/src/lib"
	"dsb/src/middlewares"
	"dsb/src/models"
	"dsb/src/pricing"
	"dsb/src/types"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/auth/login", func(ctx *gin.Context) {
		var body types.LoginRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		conn := db.GetDb()
		var admin models.AdminUser
		err := conn.
			Model(&models.AdminUser{}).
			Where("email = ?", body.Email).
			First(&admin).
			Error
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(body.Password)); err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		token, err := generateJWT(&admin)
		if err != nil {
			log.Printf("Could not sign token: %s\n", err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		lib.AuditAs(admin.Email, "admin.login", "session")
		ctx.JSON(http.StatusOK, gin.H{"token": token})
	})
	// admins signed in through the Firebase widget exchange their ID token
	// for the site JWT the admin routes expect
	apiv1.POST("/auth/firebase", middlewares.VerifyIdToken, func(ctx *gin.Context) {
		uid := ctx.GetString("uid")
		conn := db.GetDb()
		var admin models.AdminUser
		err := conn.
			Model(&models.AdminUser{}).
			Where("uid = ?", uid).
			First(&admin).
			Error
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "not an admin account"})
			return
		}
		token, err := generateJWT(&admin)
		if err != nil {
			log.Printf("Could not sign token: %s\n", err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		lib.AuditAs(admin.Email, "admin.login", "session")
		ctx.JSON(http.StatusOK, gin.H{"token": token})
	})
	return apiv1
}

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/services", func(ctx *gin.Context) {
			var body types.UpsertServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			svc, err := serviceFromBody(&body)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cat := getCatalog()
			id, err := cat.UpsertService(ctx, svc)
			if err != nil {
				var verr *pricing.ValidationError
				if errors.As(err, &verr) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{verr.Field: verr.Message}})
					return
				}
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": id, "data": svc})
		}).
		DELETE("/services/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			cat := getCatalog()
			if err := cat.DeactivateService(ctx, params.ID); err != nil {
				if errors.Is(err, catalog.ErrServiceNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/bookings", func(ctx *gin.Context) {
			var query struct {
				Status        string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled refunded"`
				PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=pending paid failed refunded"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			conn := db.GetDb()
			tx := conn.Model(&models.Booking{}).Preload("Service")
			if query.Status != "" {
				tx = tx.Where("status = ?", query.Status)
			}
			if query.PaymentStatus != "" {
				tx = tx.Where("payment_status = ?", query.PaymentStatus)
			}
			var bookings []models.Booking
			if err := tx.Order("created_at desc").Limit(200).Find(&bookings).Error; err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		POST("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			orch := getOrchestrator()
			if err := orch.Cancel(ctx, params.ID); err != nil {
				bookingErrorResponse(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "cancelled"})
		}).
		POST("/bookings/:id/refund", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orch := getOrchestrator()
			if err := orch.Refund(ctx, params.ID, body.Amount, body.Reason); err != nil {
				bookingErrorResponse(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "refunded"})
		}).
		POST("/instructors", func(ctx *gin.Context) {
			var body types.UpsertInstructorRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			instructor := models.Instructor{
				ID:            body.ID,
				Name:          body.Name,
				LicenseNumber: body.LicenseNumber,
				Experience:    body.Experience,
				Vehicles:      body.Vehicles,
				Photo:         body.Photo,
				IsActive:      true,
			}
			conn := db.GetDb()
			if err := conn.Save(&instructor).Error; err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			lib.AuditAs(ctx.GetString("email"), "instructor.upsert", "instructor")
			ctx.JSON(http.StatusOK, gin.H{"data": instructor})
		}).
		DELETE("/instructors/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			res := conn.
				Model(&models.Instructor{}).
				Where("id = ?", params.ID).
				Update("is_active", false)
			if res.Error != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.Status(http.StatusNotFound)
				return
			}
			lib.AuditAs(ctx.GetString("email"), "instructor.deactivate", "instructor")
			ctx.Status(http.StatusNoContent)
		}).
		GET("/testimonials", func(ctx *gin.Context) {
			conn := db.GetDb()
			var testimonials []models.Testimonial
			err := conn.
				Model(&models.Testimonial{}).
				Order("created_at desc").
				Find(&testimonials).
				Error
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": testimonials, "count": len(testimonials)})
		}).
		PATCH("/testimonials/:id/approve", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			res := conn.
				Model(&models.Testimonial{}).
				Where("id = ?", params.ID).
				Update("approved", true)
			if res.Error != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.Status(http.StatusNotFound)
				return
			}
			lib.AuditAs(ctx.GetString("email"), "testimonial.approve", "testimonial")
			ctx.Status(http.StatusOK)
		}).
		DELETE("/testimonials/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			if err := conn.Delete(&models.Testimonial{}, params.ID).Error; err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			lib.AuditAs(ctx.GetString("email"), "testimonial.delete", "testimonial")
			ctx.Status(http.StatusNoContent)
		}).
		GET("/students", func(ctx *gin.Context) {
			conn := db.GetDb()
			var students []models.Student
			err := conn.
				Model(&models.Student{}).
				Order("created_at desc").
				Limit(200).
				Find(&students).
				Error
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": students, "count": len(students)})
		}).
		PATCH("/settings", func(ctx *gin.Context) {
			var body types.UpdateSettingsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			conn := db.GetDb()
			err := conn.Transaction(func(tx *gorm.DB) error {
				var settings models.SiteSettings
				if err := tx.FirstOrCreate(&settings).Error; err != nil {
					return err
				}
				return tx.
					Model(&settings).
					Updates(&models.SiteSettings{
						SchoolName:   body.SchoolName,
						ContactEmail: body.ContactEmail,
						ContactPhone: body.ContactPhone,
						Address:      body.Address,
						MapsURL:      body.MapsURL,
					}).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			lib.AuditAs(ctx.GetString("email"), "settings.update", "settings")
			ctx.Status(http.StatusOK)
		})
	return g
}

func bookingErrorResponse(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrBookingNotRefundable):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrStoreUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}

func serviceFromBody(body *types.UpsertServiceRequestBody) (*models.Service, error) {
	pricingModel, err := pricingFromBody(&body.Pricing)
	if err != nil {
		return nil, err
	}
	svc := &models.Service{
		ID:          body.ID,
		Title:       body.Title,
		Description: body.Description,
		Features:    body.Features,
		Category:    types.ServiceType(body.Category),
		Pricing:     *pricingModel,
		Priority:    body.Priority,
		IsActive:    true,
	}
	if body.IsActive != nil {
		svc.IsActive = *body.IsActive
	}
	return svc, nil
}

func pricingFromBody(body *types.ServicePricingBody) (*models.ServicePricing, error) {
	p := &models.ServicePricing{
		BasePrice:          body.BasePrice,
		Currency:           body.Currency,
		DiscountPercentage: body.DiscountPercentage,
		DiscountAmount:     body.DiscountAmount,
		GSTPercentage:      body.GSTPercentage,
		ServiceTaxPercent:  body.ServiceTaxPercent,
		OtherCharges:       body.OtherCharges,
	}
	if body.DiscountValidUntil != nil {
		until, err := time.Parse(config.TIME_PARSE_FORMAT, *body.DiscountValidUntil)
		if err != nil {
			return nil, fmt.Errorf("discount_valid_until: enter a valid date")
		}
		p.DiscountValidUntil = &until
	}
	// older admin clients send a discounted sticker price instead of a
	// percentage/amount; fold it into a fixed discount before storing
	if body.IsDiscounted != nil && body.DiscountPrice != nil {
		in := pricing.Input{
			BasePrice:          p.BasePrice,
			Currency:           p.Currency,
			DiscountPercentage: p.DiscountPercentage,
			DiscountAmount:     p.DiscountAmount,
		}
		normalized, err := pricing.NormalizeDiscounted(in, *body.IsDiscounted, *body.DiscountPrice, p.DiscountValidUntil)
		if err != nil {
			return nil, err
		}
		p.DiscountPercentage = normalized.DiscountPercentage
		p.DiscountAmount = normalized.DiscountAmount
		p.DiscountValidUntil = normalized.DiscountValidUntil
	}
	return p, nil
}
