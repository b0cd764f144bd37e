package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strings"

	"hbs/src/config"
	"hbs/src/controllers"
	"hbs/src/middlewares"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
)

func adminHandlers(g *gin.RouterGroup, bc *controllers.BookingController) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			var filters types.BookingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			bookings, err := bc.List(rctx, filters)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			booking, err := bc.Get(rctx, params.UUID())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/confirm", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			result, err := bc.Confirm(rctx, params.UUID(), middlewares.Actor(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			actionResponse(ctx, result)
		}).
		PUT("/bookings/:id/reject", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			result, err := bc.Reject(rctx, params.UUID(), middlewares.Actor(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			actionResponse(ctx, result)
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			result, err := bc.Delete(rctx, params.UUID(), middlewares.Actor(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			actionResponse(ctx, result)
		}).
		GET("/bookings/:id/qrcode", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			booking, err := bc.Get(rctx, params.UUID())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			if booking.Status != types.BOOKING_CONFIRMED {
				ctx.JSON(http.StatusConflict, gin.H{"error": "only confirmed bookings have a check-in pass"})
				return
			}
			ref := strings.ToUpper(strings.ReplaceAll(booking.ID.String(), "-", "")[:8])
			qrc, err := qrcode.New(fmt.Sprintf("%s/checkin/%s", config.AppHost(), booking.ID))
			if err != nil {
				log.Printf("Error creating qrcode for %s: %s\n", booking.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			filepath := path.Join(config.TempDir(), fmt.Sprintf("booking-%s.jpeg", booking.ID))
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			defer os.Remove(filepath)
			ctx.FileAttachment(filepath, fmt.Sprintf("checkin-%s.jpeg", ref))
		}).
		POST("/payments/action", func(ctx *gin.Context) {
			var body types.PaymentActionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			result, err := bc.RunPaymentAction(rctx, body, middlewares.Actor(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		GET("/reconciliation", func(ctx *gin.Context) {
			var filters types.TrailQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			entries, err := bc.ListReconciliation(rctx, filters)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries)})
		})
	return g
}
