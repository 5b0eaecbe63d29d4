package platform

import "storefront/internal/domain"

// Wire shapes for the platform's cart resource. Responses nest the payload
// under "data"; physical line items live under line_items.physical_items.

type cartEnvelope struct {
	Data wireCart `json:"data"`
}

type wireCart struct {
	ID               string        `json:"id"`
	Currency         wireCurrency  `json:"currency"`
	BaseAmount       float64       `json:"base_amount"`
	CartAmountIncTax float64       `json:"cart_amount_inc_tax"`
	LineItems        wireLineItems `json:"line_items"`
	RedirectURLs     wireRedirects `json:"redirect_urls"`
}

type wireCurrency struct {
	Code string `json:"code"`
}

type wireLineItems struct {
	PhysicalItems []wireLineItem `json:"physical_items"`
}

type wireLineItem struct {
	ID                string  `json:"id"`
	ProductID         int64   `json:"product_id"`
	VariantID         int64   `json:"variant_id,omitempty"`
	Name              string  `json:"name,omitempty"`
	ImageURL          string  `json:"image_url,omitempty"`
	Quantity          int     `json:"quantity"`
	SalePrice         float64 `json:"sale_price"`
	ExtendedSalePrice float64 `json:"extended_sale_price"`
}

type wireRedirects struct {
	CartURL     string `json:"cart_url,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

type wireNewLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	VariantID int64 `json:"variant_id,omitempty"`
}

type lineItemsBody struct {
	LineItems []wireNewLine `json:"line_items"`
}

type updateItemBody struct {
	LineItem wireNewLine `json:"line_item"`
}

type productEnvelope struct {
	Data wireProduct `json:"data"`
}

type productListEnvelope struct {
	Data []wireProduct `json:"data"`
}

type wireProduct struct {
	ID             int64       `json:"id,omitempty"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Price          float64     `json:"price"`
	InventoryLevel int         `json:"inventory_level"`
	CategoryID     int64       `json:"category_id,omitempty"`
	Category       string      `json:"category,omitempty"`
	Images         []wireImage `json:"images,omitempty"`
}

type wireImage struct {
	URLStandard string `json:"url_standard"`
}

type categoryListEnvelope struct {
	Data []wireCategory `json:"data"`
}

type wireCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toNewLines(lines []domain.NewLine) []wireNewLine {
	out := make([]wireNewLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, wireNewLine{ProductID: l.ProductID, Quantity: l.Quantity, VariantID: l.VariantID})
	}
	return out
}

func toCart(w wireCart) *domain.Cart {
	items := make([]domain.LineItem, 0, len(w.LineItems.PhysicalItems))
	for _, it := range w.LineItems.PhysicalItems {
		items = append(items, domain.LineItem{
			ID:                it.ID,
			ProductID:         it.ProductID,
			VariantID:         it.VariantID,
			Name:              it.Name,
			ImageURL:          it.ImageURL,
			Quantity:          it.Quantity,
			SalePrice:         it.SalePrice,
			ExtendedSalePrice: it.ExtendedSalePrice,
		})
	}
	return &domain.Cart{
		ID:               w.ID,
		Currency:         w.Currency.Code,
		BaseAmount:       w.BaseAmount,
		CartAmountIncTax: w.CartAmountIncTax,
		CheckoutURL:      w.RedirectURLs.CheckoutURL,
		Items:            items,
	}
}

func toProduct(w wireProduct) domain.Product {
	p := domain.Product{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price,
		Stock:       w.InventoryLevel,
		CategoryID:  w.CategoryID,
		Category:    w.Category,
	}
	if len(w.Images) > 0 {
		p.ImageURL = w.Images[0].URLStandard
	}
	return p
}

func fromProduct(p domain.Product) wireProduct {
	w := wireProduct{
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		InventoryLevel: p.Stock,
		CategoryID:     p.CategoryID,
		Category:       p.Category,
	}
	if p.ImageURL != "" {
		w.Images = []wireImage{{URLStandard: p.ImageURL}}
	}
	return w
}
