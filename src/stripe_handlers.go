package main

import (
	"errors"
	"io"
	"log"
	"net/http"

	"hbs/src/common"
	"hbs/src/controllers"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 1 << 16

func checkoutHandlers(g *gin.RouterGroup, bc *controllers.BookingController) *gin.RouterGroup {
	g.
		POST("/checkout", func(ctx *gin.Context) {
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			cs, err := bc.CreateCheckoutSession(rctx, body)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"id": cs.ID, "url": cs.URL}})
		}).
		GET("/checkout/sessions/:id", func(ctx *gin.Context) {
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			cs, err := bc.VerifyCheckoutSession(rctx, ctx.Param("id"))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"id":             cs.ID,
				"status":         cs.Status,
				"payment_status": cs.PaymentStatus,
			}})
		})
	return g
}

func stripeWebhookRoute(g *gin.RouterGroup, ingestor *common.WebhookIngestor) *gin.RouterGroup {
	g.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		rctx, cancel := remoteContext(ctx)
		defer cancel()
		ev, err := ingestor.Handle(rctx, payload, ctx.GetHeader("Stripe-Signature"))
		if err != nil {
			if errors.Is(err, types.ErrInvalidSignature) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
				return
			}
			abortWithError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"received": true, "kind": ev.Kind})
	})
	return g
}
