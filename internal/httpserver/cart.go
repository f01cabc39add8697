package httpserver

import (
	"net/http"

	"zawadi-commerce/internal/service/cart"

	"github.com/gin-gonic/gin"
)

func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, err := svc.Get(c.Request.Context(), cartToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func addCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": err.Error()})
			return
		}
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		if in.Quantity < 0 || in.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": "productId and a positive quantity are required"})
			return
		}
		current, err := svc.AddItem(c.Request.Context(), cartToken(c), in.ProductID, in.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func changeCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": err.Error()})
			return
		}
		current, err := svc.ChangeQuantity(c.Request.Context(), cartToken(c), c.Param("lineId"), in.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func clearCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, err := svc.Get(c.Request.Context(), cartToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := svc.Clear(c.Request.Context(), current.ID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
