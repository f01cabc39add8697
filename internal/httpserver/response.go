package httpserver

import (
	"errors"
	"net/http"

	"zawadi-commerce/internal/checkout"
	"zawadi-commerce/internal/domain"
	"zawadi-commerce/internal/mpesa"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP responses. Every failure the
// customer can act on carries a message telling them what to do next.
func respondError(c *gin.Context, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": verr.Fields})
	case errors.Is(err, mpesa.ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_phone", "message": "Enter a valid Kenyan mobile number, e.g. 0712345678."})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_cart", "message": "Your cart is empty."})
	case errors.Is(err, domain.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": "out_of_stock", "message": "An item in your cart just sold out. Please review your cart."})
	case errors.Is(err, checkout.ErrFlowInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "checkout_in_progress", "message": "A checkout is already running for this cart."})
	case errors.Is(err, checkout.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "already_paid", "message": "This order has already been paid."})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, checkout.ErrPaymentInitiation):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment_initiation_failed", "message": "We could not start the payment. Try again or choose cash on delivery."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "Something went wrong. Please try again."})
	}
}
