package main

import (
	"net/http"

	"hbs/src/controllers"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
)

func bookingHandlers(g *gin.RouterGroup, bc *controllers.BookingController) *gin.RouterGroup {
	g.POST("/bookings", func(ctx *gin.Context) {
		var body types.CreateBookingRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rctx, cancel := remoteContext(ctx)
		defer cancel()
		booking, err := bc.SubmitBooking(rctx, body)
		if err != nil {
			abortWithError(ctx, err)
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"data": booking})
	})
	return g
}
