package httpserver

import (
	"context"
	"net/http"

	"zawadi-commerce/internal/domain"
	"zawadi-commerce/internal/invoice"

	"github.com/gin-gonic/gin"
)

type orderService interface {
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, status string) ([]domain.Order, error)
	AdvanceStatus(ctx context.Context, orderNumber, next string) (*domain.Order, error)
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ord, err := svc.GetByNumber(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ord)
	}
}

func invoiceHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		audience := c.DefaultQuery("audience", invoice.AudienceCustomer)
		ord, err := svc.GetByNumber(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		doc, err := invoice.Render(ord, audience)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_audience", "message": err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
	}
}

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context(), c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
	}
}

func advanceOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": err.Error()})
			return
		}
		ord, err := svc.AdvanceStatus(c.Request.Context(), c.Param("orderNumber"), in.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ord)
	}
}
