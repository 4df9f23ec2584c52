package storage

import "time"

// CalculationParameters — значения параметров на момент расчёта
// (подставляются в формулы по имени).
type CalculationParameters map[string]any

type MaterialLine struct {
	UsageID    int64   `json:"usage_id"`
	MaterialID int64   `json:"material_id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Cost       float64 `json:"cost"`
}

type LaborLine struct {
	UsageID    int64   `json:"usage_id"`
	WorkTypeID int64   `json:"work_type_id"`
	Name       string  `json:"name"`
	Sequence   int     `json:"sequence"`
	Hours      float64 `json:"hours"`
	HourlyRate float64 `json:"hourly_rate"`
	Cost       float64 `json:"cost"`
}

type FundLine struct {
	FundID         int64   `json:"fund_id"`
	FundCategoryID int64   `json:"fund_category_id"`
	Name           string  `json:"name"`
	FinalAmount    float64 `json:"final_amount"`
}

type CostBreakdown struct {
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`

	MaterialCosts []MaterialLine `json:"material_costs"`
	LaborCosts    []LaborLine    `json:"labor_costs"`
	OverheadCosts []FundLine     `json:"overhead_costs,omitempty"`

	TotalMaterialCost float64 `json:"total_material_cost"`
	TotalLaborCost    float64 `json:"total_labor_cost"`
	OverheadCost      float64 `json:"overhead_cost"`
	TotalCost         float64 `json:"total_cost"`

	SellingPrice  float64 `json:"selling_price"`
	Margin        float64 `json:"margin"`
	VATAmount     float64 `json:"vat_amount"`
	PriceWithVAT  float64 `json:"price_with_vat"`

	Warnings []string `json:"warnings"`
}

type ComponentBreakdown struct {
	ComponentID int64   `json:"component_id"`
	Name        string  `json:"name"`
	Included    bool    `json:"included"`
	Quantity    float64 `json:"quantity"`

	MaterialCosts []MaterialLine `json:"material_costs"`
	LaborCosts    []LaborLine    `json:"labor_costs"`

	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
	TotalCost    float64 `json:"total_cost"`
}

type ProductCalculationResult struct {
	ProductID  int64                `json:"product_id"`
	Quantity   float64              `json:"quantity"`
	Components []ComponentBreakdown `json:"components"`

	TotalMaterialCost float64 `json:"total_material_cost"`
	TotalLaborCost    float64 `json:"total_labor_cost"`
	OverheadCost      float64 `json:"overhead_cost"`
	TotalCost         float64 `json:"total_cost"`
	SellingPrice      float64 `json:"selling_price"`
	Margin            float64 `json:"margin"`

	Warnings []string `json:"warnings"`
}

type Dimensions struct {
	Length    float64 `json:"length"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Thickness float64 `json:"thickness"`
	Weight    float64 `json:"weight"`
	// Единица линейных размеров, по умолчанию "cm"
	Unit string `json:"unit,omitempty"`
}

type DimensionCalculationResult struct {
	ProductID  int64      `json:"product_id"`
	Quantity   float64    `json:"quantity"`
	Dimensions Dimensions `json:"dimensions"`
	Area       float64    `json:"area"`   // м²
	Volume     float64    `json:"volume"` // м³

	Breakdown CostBreakdown `json:"breakdown"`
}

// CalcSettings — общие коэффициенты расчёта, правятся через админку.
type CalcSettings struct {
	ID                   int64     `json:"id"`
	VATRatePercent       float64   `json:"vat_rate_percent"`
	DefaultMarginPercent float64   `json:"default_margin_percent"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type ProductCostUpdate struct {
	ProductID    int64   `json:"product_id"`
	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
	OverheadCost float64 `json:"overhead_cost"`
	TotalCost    float64 `json:"total_cost"`
	SellingPrice float64 `json:"selling_price"`
	Margin       float64 `json:"margin"`
}
