package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/admin"
	"storefront/internal/domain"
	"storefront/internal/platform"
)

type productPayload struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Stock       int     `json:"stock"`
}

func (p productPayload) fields() admin.Fields {
	return admin.Fields{
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
	}
}

func (h *handlers) adminListProducts(c *gin.Context) {
	products, err := h.deps.Catalog.ListProducts(c.Request.Context(), platform.ListProductsOptions{IncludeImages: true})
	if err != nil {
		upstreamError(c, err, "Failed to load products.")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handlers) adminCreateProduct(c *gin.Context) {
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	st := admin.NewStaging(h.deps.Catalog)
	st.Begin(nil)
	st.Apply(payload.fields())

	created, err := st.Submit(c.Request.Context())
	if err != nil {
		if verr := st.Validate(); verr != nil {
			badRequest(c, verr.Error())
			return
		}
		upstreamError(c, err, "Failed to create product.")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) adminUpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid product id.")
		return
	}
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	st := admin.NewStaging(h.deps.Catalog)
	st.Begin(&domain.Product{ID: id})
	st.Apply(payload.fields())

	updated, err := st.Submit(c.Request.Context())
	if err != nil {
		if verr := st.Validate(); verr != nil {
			badRequest(c, verr.Error())
			return
		}
		upstreamError(c, err, "Failed to update product.")
		return
	}
	c.JSON(http.StatusOK, updated)
}
