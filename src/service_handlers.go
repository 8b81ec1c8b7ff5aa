package main

import (
	"errors"
	"log"
	"net/http"

	"dsb/src/catalog"
	"dsb/src/db"
	"dsb/src/models"
	"dsb/src/types"

	"github.com/gin-gonic/gin"
)

func serviceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/services", func(ctx *gin.Context) {
			var query struct {
				Category string `form:"category" binding:"omitempty,oneof=training online"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			cat := getCatalog()
			services := cat.ListActiveServices(ctx, query.Category)
			ctx.JSON(http.StatusOK, gin.H{"data": services, "count": len(services)})
		}).
		GET("/services/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			cat := getCatalog()
			svc, err := cat.GetService(ctx, params.ID)
			if err != nil {
				if errors.Is(err, catalog.ErrServiceNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			if !svc.IsActive {
				ctx.JSON(http.StatusNotFound, gin.H{"error": catalog.ErrServiceNotFound.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": svc})
		}).
		GET("/testimonials", func(ctx *gin.Context) {
			testimonials := listApprovedTestimonials(ctx)
			ctx.JSON(http.StatusOK, gin.H{"data": testimonials, "count": len(testimonials)})
		}).
		GET("/instructors", func(ctx *gin.Context) {
			instructors := listActiveInstructors(ctx)
			ctx.JSON(http.StatusOK, gin.H{"data": instructors, "count": len(instructors)})
		}).
		GET("/settings", func(ctx *gin.Context) {
			settings := getSiteSettings(ctx)
			ctx.JSON(http.StatusOK, gin.H{"data": settings})
		}).
		POST("/testimonials", func(ctx *gin.Context) {
			// submissions stay hidden until an admin approves them
			var body types.CreateTestimonialRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			testimonial := models.Testimonial{
				Author:   body.Author,
				Content:  body.Content,
				Rating:   body.Rating,
				Priority: body.Priority,
			}
			conn := db.GetDb()
			if err := conn.Create(&testimonial).Error; err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": testimonial.ID})
		})
	return g
}

// Public content reads degrade to empty results when the store is down so the
// site still renders.

func listApprovedTestimonials(ctx *gin.Context) []models.Testimonial {
	conn := db.GetDb()
	var testimonials []models.Testimonial
	err := conn.WithContext(ctx).
		Model(&models.Testimonial{}).
		Where("approved = ?", true).
		Order("priority asc").
		Order("created_at desc").
		Find(&testimonials).
		Error
	if err != nil {
		log.Printf("Could not list testimonials: %s\n", err.Error())
		return []models.Testimonial{}
	}
	return testimonials
}

func listActiveInstructors(ctx *gin.Context) []models.Instructor {
	conn := db.GetDb()
	var instructors []models.Instructor
	err := conn.WithContext(ctx).
		Model(&models.Instructor{}).
		Where("is_active = ?", true).
		Order("experience desc").
		Find(&instructors).
		Error
	if err != nil {
		log.Printf("Could not list instructors: %s\n", err.Error())
		return []models.Instructor{}
	}
	return instructors
}

func getSiteSettings(ctx *gin.Context) *models.SiteSettings {
	conn := db.GetDb()
	var settings models.SiteSettings
	err := conn.WithContext(ctx).
		Model(&models.SiteSettings{}).
		First(&settings).
		Error
	if err != nil {
		log.Printf("Could not read site settings: %s\n", err.Error())
		return &models.SiteSettings{}
	}
	return &settings
}
