package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/platform"
)

func (h *handlers) listProducts(c *gin.Context) {
	opts := platform.ListProductsOptions{IncludeImages: true}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "Invalid categoryId.")
			return
		}
		opts.CategoryID = id
	}

	products, err := h.deps.Catalog.ListProducts(c.Request.Context(), opts)
	if err != nil {
		upstreamError(c, err, "Failed to load products.")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handlers) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid product id.")
		return
	}

	product, err := h.deps.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		upstreamError(c, err, "Failed to load product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		upstreamError(c, err, "Failed to load categories.")
		return
	}
	c.JSON(http.StatusOK, categories)
}
