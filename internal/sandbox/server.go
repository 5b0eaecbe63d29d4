package sandbox

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/httpserver"
)

// Server exposes the sandbox over the platform's wire dialect: payloads
// nested under "data", physical lines under line_items.physical_items, and
// a 204 when removing the last line deletes the cart.
type Server struct {
	store        *Store
	log          *logrus.Logger
	token        string
	checkoutBase string
}

// NewServer builds the sandbox HTTP server. Requests must present token in
// X-Auth-Token; checkoutBase prefixes the redirect URLs handed out with
// each cart.
func NewServer(addr string, store *Store, log *logrus.Logger, token, checkoutBase string) *httpserver.Server {
	s := &Server{store: store, log: log, token: token, checkoutBase: checkoutBase}
	return httpserver.NewWithHandler(addr, log, s.router())
}

func (s *Server) router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.LoggerWithWriter(s.log.Writer()), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", s.requireToken)
	{
		api.POST("/carts", s.createCart)
		api.GET("/carts/:cartID", s.getCart)
		api.DELETE("/carts/:cartID", s.deleteCart)
		api.POST("/carts/:cartID/items", s.addItems)
		api.PUT("/carts/:cartID/items/:itemID", s.updateItem)
		api.DELETE("/carts/:cartID/items/:itemID", s.deleteItem)

		api.GET("/catalog/products", s.listProducts)
		api.GET("/catalog/products/:productID", s.getProduct)
		api.POST("/catalog/products", s.createProduct)
		api.PUT("/catalog/products/:productID", s.updateProduct)
		api.GET("/catalog/categories", s.listCategories)
	}

	return r
}

func (s *Server) requireToken(c *gin.Context) {
	if c.GetHeader("X-Auth-Token") != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Status: http.StatusUnauthorized, Title: "invalid credentials"})
	}
}

// apiError mirrors the platform's error body.
type apiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, apiError{Status: http.StatusNotFound, Title: "resource not found"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusUnprocessableEntity, apiError{Status: http.StatusUnprocessableEntity, Title: err.Error()})
	default:
		s.log.WithError(err).Error("sandbox request failed")
		c.JSON(http.StatusInternalServerError, apiError{Status: http.StatusInternalServerError, Title: "internal error"})
	}
}

type newLinePayload struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type createCartPayload struct {
	Currency  string           `json:"currency"`
	LineItems []newLinePayload `json:"line_items"`
}

type addItemsPayload struct {
	LineItems []newLinePayload `json:"line_items"`
}

type updateItemPayload struct {
	LineItem newLinePayload `json:"line_item"`
}

func toNewLines(in []newLinePayload) []NewLine {
	out := make([]NewLine, 0, len(in))
	for _, l := range in {
		out = append(out, NewLine{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return out
}

func (s *Server) createCart(c *gin.Context) {
	var payload createCartPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.fail(c, errors.Wrap(ErrConflict, "malformed cart body"))
		return
	}
	cart, err := s.store.CreateCart(c.Request.Context(), payload.Currency, toNewLines(payload.LineItems))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": s.wireCart(cart)})
}

func (s *Server) getCart(c *gin.Context) {
	cart, err := s.store.GetCart(c.Request.Context(), c.Param("cartID"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.wireCart(cart)})
}

func (s *Server) deleteCart(c *gin.Context) {
	if err := s.store.DeleteCart(c.Request.Context(), c.Param("cartID")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addItems(c *gin.Context) {
	var payload addItemsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.fail(c, errors.Wrap(ErrConflict, "malformed line items body"))
		return
	}
	cart, err := s.store.AddLines(c.Request.Context(), c.Param("cartID"), toNewLines(payload.LineItems))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.wireCart(cart)})
}

func (s *Server) updateItem(c *gin.Context) {
	var payload updateItemPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.fail(c, errors.Wrap(ErrConflict, "malformed line item body"))
		return
	}
	if payload.LineItem.ProductID <= 0 {
		s.fail(c, errors.Wrap(ErrConflict, "line item must restate its product id"))
		return
	}
	cart, err := s.store.UpdateLine(c.Request.Context(), c.Param("cartID"), c.Param("itemID"), payload.LineItem.Quantity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.wireCart(cart)})
}

func (s *Server) deleteItem(c *gin.Context) {
	cart, err := s.store.DeleteLine(c.Request.Context(), c.Param("cartID"), c.Param("itemID"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if cart == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.wireCart(cart)})
}

func (s *Server) listProducts(c *gin.Context) {
	var categoryID int64
	if raw := c.Query("categories:in"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			s.fail(c, errors.Wrap(ErrConflict, "invalid category filter"))
			return
		}
		categoryID = id
	}
	products, err := s.store.ListProducts(c.Request.Context(), categoryID)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(products))
	for i := range products {
		out = append(out, wireProduct(&products[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		s.fail(c, domain.ErrNotFound)
		return
	}
	product, err := s.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wireProduct(product)})
}

type productPayload struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Price          float64        `json:"price"`
	InventoryLevel int            `json:"inventory_level"`
	CategoryID     int64          `json:"category_id"`
	Category       string         `json:"category"`
	Images         []imagePayload `json:"images"`
}

type imagePayload struct {
	URLStandard string `json:"url_standard"`
}

func (p productPayload) toProduct() Product {
	out := Product{
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  dollarsToCents(p.Price),
		Inventory:   p.InventoryLevel,
		CategoryID:  p.CategoryID,
		Category:    p.Category,
	}
	if len(p.Images) > 0 {
		out.ImageURL = p.Images[0].URLStandard
	}
	return out
}

func (s *Server) createProduct(c *gin.Context) {
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.fail(c, errors.Wrap(ErrConflict, "malformed product body"))
		return
	}
	product, err := s.store.CreateProduct(c.Request.Context(), payload.toProduct())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wireProduct(product)})
}

func (s *Server) updateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		s.fail(c, domain.ErrNotFound)
		return
	}
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.fail(c, errors.Wrap(ErrConflict, "malformed product body"))
		return
	}
	product, err := s.store.UpdateProduct(c.Request.Context(), id, payload.toProduct())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wireProduct(product)})
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.store.ListCategories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(categories))
	for _, cat := range categories {
		out = append(out, gin.H{"id": cat.ID, "name": cat.Name})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) wireCart(cart *Cart) gin.H {
	items := make([]gin.H, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, gin.H{
			"id":                  l.ID,
			"product_id":          l.ProductID,
			"variant_id":          l.VariantID,
			"name":                l.Name,
			"image_url":           l.ImageURL,
			"quantity":            l.Quantity,
			"sale_price":          centsToDollars(l.UnitPriceCents),
			"extended_sale_price": centsToDollars(l.UnitPriceCents * int64(l.Quantity)),
		})
	}
	return gin.H{
		"id":                  cart.ID,
		"currency":            gin.H{"code": cart.Currency},
		"base_amount":         centsToDollars(cart.BaseCents),
		"cart_amount_inc_tax": centsToDollars(cart.IncTaxCents(s.store.taxRate)),
		"line_items":          gin.H{"physical_items": items},
		"redirect_urls": gin.H{
			"cart_url":     s.checkoutBase + "/cart?cartId=" + cart.ID,
			"checkout_url": s.checkoutBase + "/checkout?cartId=" + cart.ID,
		},
	}
}

func wireProduct(p *Product) gin.H {
	out := gin.H{
		"id":              p.ID,
		"name":            p.Name,
		"description":     p.Description,
		"price":           centsToDollars(p.PriceCents),
		"inventory_level": p.Inventory,
		"category_id":     p.CategoryID,
		"category":        p.Category,
	}
	if p.ImageURL != "" {
		out["images"] = []gin.H{{"url_standard": p.ImageURL}}
	}
	return out
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

func dollarsToCents(dollars float64) int64 {
	return int64(dollars*100 + 0.5)
}
