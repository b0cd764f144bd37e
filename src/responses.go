package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"hbs/src/config"
	"hbs/src/controllers"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidTransition), errors.Is(err, types.ErrPaymentState):
		return http.StatusConflict
	case errors.Is(err, types.ErrGatewayUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func abortWithError(ctx *gin.Context, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s %s] %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
	}
	msg := err.Error()
	if errors.Is(err, types.ErrConfiguration) {
		msg = "service is not configured"
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// remoteContext bounds the store, gateway and mail calls of one request.
func remoteContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), config.RemoteCallTimeout())
}

func actionResponse(ctx *gin.Context, result *controllers.ActionResult) {
	body := gin.H{
		"data":     result.Booking,
		"applied":  result.Applied,
		"warnings": result.Warnings,
	}
	if result.PaymentOutcome != types.PAYMENT_OUTCOME_NONE {
		body["payment_outcome"] = result.PaymentOutcome
	}
	if result.PaymentError != nil {
		body["payment_error"] = result.PaymentError.Error()
	}
	if result.NotificationError != nil {
		body["notification_error"] = result.NotificationError.Error()
	}
	if !result.Applied && result.Booking != nil {
		body["message"] = "booking was changed by another request"
	}
	ctx.JSON(http.StatusOK, body)
}
