package httpserver

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/platform"
	"storefront/internal/session"
)

// CartGateway is the slice of the platform client the cart handlers use.
type CartGateway interface {
	CreateCart(ctx context.Context, lines []domain.NewLine) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddLineItems(ctx context.Context, cartID string, lines []domain.NewLine) (*domain.Cart, error)
	UpdateLineItem(ctx context.Context, cartID, itemID string, in platform.UpdateLineItemInput) (*domain.Cart, error)
	DeleteLineItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
	CheckoutURL(ctx context.Context, cartID string) (string, error)
}

// CatalogGateway is the slice used by the catalog and admin handlers.
type CatalogGateway interface {
	ListProducts(ctx context.Context, opts platform.ListProductsOptions) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, p domain.Product) (*domain.Product, error)
}

type Deps struct {
	Cart           CartGateway
	Catalog        CatalogGateway
	Sessions       *session.Manager
	AllowedOrigins []string
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *logrus.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(deps.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = deps.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowCredentials = !corsCfg.AllowAllOrigins
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)

	h := &handlers{deps: deps, log: logger}

	api := router.Group("/api")
	{
		api.GET("/cart", h.getCart)
		api.POST("/cart/add", h.addToCart)
		api.POST("/cart/update", h.updateCartItem)
		api.POST("/cart/remove", h.removeCartItem)
		api.POST("/cart/clear", h.clearCart)
		api.POST("/cart/checkout", h.checkout)

		api.GET("/catalog/products", h.listProducts)
		api.GET("/catalog/products/:id", h.getProduct)
		api.GET("/catalog/categories", h.listCategories)

		api.POST("/auth/login", h.login)
		api.POST("/auth/logout", h.logout)
		api.GET("/auth/session", h.currentSession)

		admin := api.Group("/admin")
		admin.Use(h.requireSession)
		{
			admin.GET("/products", h.adminListProducts)
			admin.POST("/products", h.adminCreateProduct)
			admin.PUT("/products/:id", h.adminUpdateProduct)
		}
	}

	return router
}

type handlers struct {
	deps Deps
	log  *logrus.Logger
}
