package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/platform"
)

// getCart refreshes the caller's snapshot of a cart. A 404 tells the caller
// its handle expired.
func (h *handlers) getCart(c *gin.Context) {
	cartID := c.Query("cartId")
	if cartID == "" {
		badRequest(c, "Cart ID is required.")
		return
	}
	cart, err := h.deps.Cart.GetCart(c.Request.Context(), cartID)
	if err != nil {
		upstreamError(c, err, "Failed to load cart.")
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addRequest struct {
	ProductID int64  `json:"productId"`
	Quantity  *int   `json:"quantity"`
	VariantID int64  `json:"variantId"`
	CartID    string `json:"cartId"`
}

// addToCart adds a line to the caller's cart. When the supplied cart id no
// longer exists upstream the handler creates a replacement cart instead of
// failing; add never fails merely because the cart expired.
func (h *handlers) addToCart(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}
	if req.ProductID <= 0 {
		badRequest(c, "Product ID is required.")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 {
		badRequest(c, "Quantity must be a positive integer.")
		return
	}

	lines := []domain.NewLine{{ProductID: req.ProductID, VariantID: req.VariantID, Quantity: quantity}}

	ctx := c.Request.Context()
	var cart *domain.Cart
	var err error
	if req.CartID != "" {
		cart, err = h.deps.Cart.AddLineItems(ctx, req.CartID, lines)
		if errors.Is(err, domain.ErrNotFound) {
			h.log.WithFields(logrus.Fields{"cartId": req.CartID}).Info("cart expired, creating replacement")
			cart, err = h.deps.Cart.CreateCart(ctx, lines)
		}
	} else {
		cart, err = h.deps.Cart.CreateCart(ctx, lines)
	}
	if err != nil {
		upstreamError(c, err, "Failed to add item to cart.")
		return
	}

	c.JSON(http.StatusOK, cart)
}

type updateRequest struct {
	CartID    string `json:"cartId"`
	ItemID    string `json:"itemId"`
	Quantity  *int   `json:"quantity"`
	ProductID int64  `json:"productId"`
	VariantID int64  `json:"variantId"`
}

// updateCartItem changes a line's quantity. The platform's update call
// requires restating the product/variant, so the payload carries them too.
// Quantity zero routes to the remove path, never to the update endpoint.
func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}
	if req.CartID == "" || req.ItemID == "" || req.ProductID <= 0 {
		badRequest(c, "Missing or invalid cartId, itemId, quantity, or productId.")
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		badRequest(c, "Missing or invalid cartId, itemId, quantity, or productId.")
		return
	}

	if *req.Quantity == 0 {
		h.removeItem(c, req.CartID, req.ItemID)
		return
	}

	cart, err := h.deps.Cart.UpdateLineItem(c.Request.Context(), req.CartID, req.ItemID, platform.UpdateLineItemInput{
		Quantity:  *req.Quantity,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
	})
	if err != nil {
		upstreamError(c, err, "Failed to update item quantity.")
		return
	}

	c.JSON(http.StatusOK, cart)
}

type removeRequest struct {
	CartID string `json:"cartId"`
	ItemID string `json:"itemId"`
}

func (h *handlers) removeCartItem(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}
	if req.CartID == "" || req.ItemID == "" {
		badRequest(c, "Missing cartId or itemId.")
		return
	}
	h.removeItem(c, req.CartID, req.ItemID)
}

// removeItem deletes one line. When the platform deleted the now-empty cart
// the response body is an explicit JSON null.
func (h *handlers) removeItem(c *gin.Context, cartID, itemID string) {
	cart, err := h.deps.Cart.DeleteLineItem(c.Request.Context(), cartID, itemID)
	if err != nil {
		upstreamError(c, err, "Failed to remove item from cart.")
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type clearRequest struct {
	CartID string `json:"cartId"`
}

// clearCart deletes the remote cart outright. A cart that is already gone
// still clears successfully.
func (h *handlers) clearCart(c *gin.Context) {
	var req clearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}
	if req.CartID == "" {
		badRequest(c, "Cart ID is required.")
		return
	}
	if err := h.deps.Cart.DeleteCart(c.Request.Context(), req.CartID); err != nil {
		upstreamError(c, err, "Failed to clear cart.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type checkoutRequest struct {
	CartID string `json:"cartId"`
}

func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}
	if req.CartID == "" {
		badRequest(c, "Cart ID is required.")
		return
	}

	url, err := h.deps.Cart.CheckoutURL(c.Request.Context(), req.CartID)
	if err != nil {
		upstreamError(c, err, "Could not retrieve checkout URL.")
		return
	}
	if url == "" {
		c.JSON(http.StatusNotFound, errorBody{Message: "Could not retrieve checkout URL. The cart may be empty, invalid, or expired."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkoutUrl": url})
}
