package main

import (
	"net/http"

	"dsb/src/db"
	"dsb/src/ledger"
	"dsb/src/models"

	"github.com/gin-gonic/gin"
)

func transactionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/transactions", func(ctx *gin.Context) {
			var query struct {
				BookingID uint   `form:"booking_id"`
				GatewayID string `form:"gateway_transaction_id"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rec := ledger.NewRecorder(db.GetDb())
			if query.GatewayID != "" {
				txn, err := rec.FindByGatewayTransactionID(ctx, query.GatewayID)
				if err != nil {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"data": []models.Transaction{*txn}, "count": 1})
				return
			}
			if query.BookingID != 0 {
				txns, err := rec.ListForBooking(ctx, query.BookingID)
				if err != nil {
					ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusOK, gin.H{"data": txns, "count": len(txns)})
				return
			}
			var txns []models.Transaction
			err := db.GetDb().
				Model(&models.Transaction{}).
				Order("created_at desc").
				Limit(100).
				Find(&txns).
				Error
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": txns, "count": len(txns)})
		}).
		GET("/trail", func(ctx *gin.Context) {
			var trail []models.TrailLog
			err := db.GetDb().
				Model(&models.TrailLog{}).
				Order("created_at desc").
				Limit(200).
				Find(&trail).
				Error
			if err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": trail, "count": len(trail)})
		})
	return g
}
