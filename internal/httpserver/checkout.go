package httpserver

import (
	"net/http"

	"zawadi-commerce/internal/checkout"

	"github.com/gin-gonic/gin"
)

func beginCheckoutHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkout.BeginInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": err.Error()})
			return
		}

		result, err := svc.Begin(c.Request.Context(), cartToken(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		if result.State == checkout.StateStockConflict {
			// Route the customer back to the cart; no order was created.
			c.JSON(http.StatusConflict, gin.H{
				"error":   "stock_conflict",
				"message": "Some items in your cart are no longer available.",
				"state":   result.State,
				"stock":   result.Stock,
			})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func checkoutStatusHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := svc.Status(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func retryCheckoutHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := svc.Retry(c.Request.Context(), cartToken(c), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func switchToCashHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ord, err := svc.SwitchToCash(c.Request.Context(), cartToken(c), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": checkout.StateSuccess, "order": ord})
	}
}
