package httpserver

import (
	"log"

	"zawadi-commerce/internal/checkout"
	"zawadi-commerce/internal/service/cart"
	"zawadi-commerce/internal/service/catalog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries the services the handlers need.
type Deps struct {
	CatalogSvc  *catalog.Service
	CartSvc     *cart.Service
	CheckoutSvc *checkout.Service
	OrderSvc    orderService
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", cartTokenHeader},
		ExposeHeaders: []string{cartTokenHeader},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	{
		api.GET("/products", listProductsHandler(deps.CatalogSvc))
		api.GET("/products/:id", getProductHandler(deps.CatalogSvc))

		withCart := api.Group("")
		withCart.Use(cartTokenMiddleware())
		{
			withCart.GET("/cart", getCartHandler(deps.CartSvc))
			withCart.POST("/cart/items", addCartItemHandler(deps.CartSvc))
			withCart.PATCH("/cart/items/:lineId", changeCartItemHandler(deps.CartSvc))
			withCart.DELETE("/cart", clearCartHandler(deps.CartSvc))

			withCart.POST("/checkout", beginCheckoutHandler(deps.CheckoutSvc))
			withCart.POST("/checkout/:orderNumber/retry", retryCheckoutHandler(deps.CheckoutSvc))
			withCart.POST("/checkout/:orderNumber/cash", switchToCashHandler(deps.CheckoutSvc))
		}
		api.GET("/checkout/:orderNumber", checkoutStatusHandler(deps.CheckoutSvc))

		api.GET("/orders/:orderNumber", getOrderHandler(deps.OrderSvc))
		api.GET("/orders/:orderNumber/invoice", invoiceHandler(deps.OrderSvc))

		admin := api.Group("/admin")
		{
			admin.POST("/products", createProductHandler(deps.CatalogSvc))
			admin.PATCH("/products/:id/stock", setStockHandler(deps.CatalogSvc))
			admin.GET("/orders", listOrdersHandler(deps.OrderSvc))
			admin.POST("/orders/:orderNumber/advance", advanceOrderHandler(deps.OrderSvc))
		}
	}

	return router
}
