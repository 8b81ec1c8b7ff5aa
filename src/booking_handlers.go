package main

import (
	"errors"
	"log"
	"net/http"

	"dsb/src/booking"
	"dsb/src/catalog"
	"dsb/src/db"
	"dsb/src/models"
	"dsb/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gateway := types.PaymentGateway(body.Gateway)
			if gateway == "" {
				gateway = types.GATEWAY_RAZORPAY
			}
			form := booking.FormData{
				CustomerName:    body.CustomerName,
				CustomerEmail:   body.CustomerEmail,
				CustomerPhone:   body.CustomerPhone,
				CustomerAddress: body.CustomerAddress,
				Notes:           body.Notes,
			}
			if body.ScheduledDate != nil {
				form.ScheduledDate = *body.ScheduledDate
			}

			orch := getOrchestrator()
			b, session, err := orch.Create(ctx, body.ServiceID, form, gateway)
			if err != nil {
				var ferrs booking.FormErrors
				var perr *booking.PaymentProviderError
				switch {
				case errors.As(err, &ferrs):
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"errors": ferrs})
				case errors.As(err, &perr):
					// booking survives in pending/failed; the client can retry
					ctx.JSON(http.StatusBadGateway, gin.H{
						"error":     "payment gateway unavailable",
						"reference": b.ReferenceID,
					})
				case errors.Is(err, catalog.ErrServiceNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				case errors.Is(err, booking.ErrUnknownGateway):
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				case errors.Is(err, catalog.ErrStoreUnavailable):
					ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"data":    b,
				"payment": session,
			})
		}).
		POST("/bookings/validate", func(ctx *gin.Context) {
			// Live validation for the booking form. With a field name it checks
			// that field alone; without one it checks the whole form.
			var body struct {
				Field     string           `json:"field,omitempty"`
				ServiceID uint             `json:"service_id" binding:"required"`
				Form      booking.FormData `json:"form"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cat := getCatalog()
			svc, err := cat.GetService(ctx, body.ServiceID)
			if err != nil || !svc.IsActive {
				ctx.JSON(http.StatusNotFound, gin.H{"error": catalog.ErrServiceNotFound.Error()})
				return
			}
			if body.Field != "" {
				msg := booking.ValidateField(body.Field, body.Form, svc.Scheduled())
				fieldErrors := gin.H{}
				if msg != "" {
					fieldErrors[body.Field] = msg
				}
				ctx.JSON(http.StatusOK, gin.H{"errors": fieldErrors, "valid": msg == ""})
				return
			}
			formErrors := booking.ValidateForm(body.Form, svc.Scheduled())
			ctx.JSON(http.StatusOK, gin.H{"errors": formErrors, "valid": len(formErrors) == 0})
		}).
		GET("/bookings/:reference", func(ctx *gin.Context) {
			var params struct {
				Reference string `uri:"reference" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			ref, err := uuid.Parse(params.Reference)
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			conn := db.GetDb()
			var b models.Booking
			err = conn.
				Model(&models.Booking{}).
				Where("reference_id = ?", ref).
				Preload("Service").
				First(&b).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": booking.ErrBookingNotFound.Error()})
					return
				}
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": b})
		})
	return g
}
