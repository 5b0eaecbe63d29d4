package domain

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	CategoryID  int64   `json:"categoryId,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Stock       int     `json:"stock"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
