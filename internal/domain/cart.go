package domain

// Cart is the platform-owned cart resource as the storefront sees it.
// The platform is the single source of truth; the storefront never
// computes totals itself.
type Cart struct {
	ID               string     `json:"id"`
	Currency         string     `json:"currency"`
	BaseAmount       float64    `json:"baseAmount"`
	CartAmountIncTax float64    `json:"cartAmountIncTax,omitempty"`
	CheckoutURL      string     `json:"checkoutUrl,omitempty"`
	Items            []LineItem `json:"lineItems"`
}

type LineItem struct {
	ID                string  `json:"id"`
	ProductID         int64   `json:"productId"`
	VariantID         int64   `json:"variantId,omitempty"`
	Name              string  `json:"name,omitempty"`
	ImageURL          string  `json:"imageUrl,omitempty"`
	Quantity          int     `json:"quantity"`
	SalePrice         float64 `json:"salePrice"`
	ExtendedSalePrice float64 `json:"extendedSalePrice"`
}

// NewLine is the caller-supplied input for creating or extending a cart.
type NewLine struct {
	ProductID int64
	VariantID int64
	Quantity  int
}

// ItemCount sums line quantities across the cart.
func (c Cart) ItemCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// FindItem returns the line with the given id, or nil.
func (c Cart) FindItem(itemID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}
