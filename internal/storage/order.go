package storage

import "time"

type Order struct {
	ID        int64       `json:"id"`
	OrderNum  string      `json:"order_num"`
	Customer  string      `json:"customer"`
	Status    string      `json:"status"`
	Comment   *string     `json:"comment,omitempty"`
	Items     []OrderItem `json:"items,omitempty"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem — снимок позиции заказа на момент расчёта. Название, единица и
// цена копируются из каталога, чтобы последующие изменения каталога не
// меняли уже сохранённый заказ.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Position  int     `json:"position"`

	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`

	UnitCost     float64 `json:"unit_cost"`
	SellingPrice float64 `json:"selling_price"`
	VATRate      float64 `json:"vat_rate"`
	VATAmount    float64 `json:"vat_amount"`
	PriceWithVAT float64 `json:"price_with_vat"`
	LineTotal    float64 `json:"line_total"`

	Warnings []string `json:"warnings,omitempty"`
}
