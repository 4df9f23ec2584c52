package storage

type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Comment  *string `json:"comment,omitempty"`

	// Формула количества для всего изделия (например "height * 1500 + width * 500")
	FormulaEnabled    bool   `json:"formula_enabled"`
	FormulaExpression string `json:"formula_expression,omitempty"`

	Parameters     []Parameter     `json:"parameters,omitempty"`
	MaterialUsages []MaterialUsage `json:"material_usages,omitempty"`
	WorkTypeUsages []WorkTypeUsage `json:"work_type_usages,omitempty"`
	FundUsages     []FundUsage     `json:"fund_usages,omitempty"`
	Components     []Component     `json:"components,omitempty"`

	// Кэшированные поля себестоимости, пересчитываются движком
	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
	OverheadCost float64 `json:"overhead_cost"`
	TotalCost    float64 `json:"total_cost"`
	SellingPrice float64 `json:"selling_price"`
	Margin       float64 `json:"margin"`

	IsActive bool `json:"is_active"`
}

type Parameter struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"` // "number", "select"
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []string `json:"options,omitempty"` // коды опций для type="select"
}

type MaterialUsage struct {
	ID         int64  `json:"id"`
	MaterialID int64  `json:"material_id"`
	Unit       string `json:"unit"`

	// unit_type: fixed | per_area | per_volume | per_weight | calculated
	UnitType           string  `json:"unit_type"`
	Quantity           float64 `json:"quantity"`
	BaseQuantity       float64 `json:"base_quantity"`
	CalculationFormula string  `json:"calculation_formula,omitempty"`
	WasteFactor        float64 `json:"waste_factor"`

	Material *MaterialItem `json:"material,omitempty"`
}

type WorkTypeUsage struct {
	ID         int64 `json:"id"`
	WorkTypeID int64 `json:"work_type_id"`

	UnitType           string  `json:"unit_type"`
	Time               float64 `json:"time"` // часы на единицу изделия
	BaseTime           float64 `json:"base_time"`
	CalculationFormula string  `json:"calculation_formula,omitempty"`
	Sequence           int     `json:"sequence"`

	WorkType *WorkType `json:"work_type,omitempty"`
}

type FundUsage struct {
	ID              int64    `json:"id"`
	FundID          int64    `json:"fund_id"`
	FundCategoryID  int64    `json:"fund_category_id"`
	Name            string   `json:"name"`
	AllocatedAmount float64  `json:"allocated_amount"`
	Percentage      *float64 `json:"percentage,omitempty"`
	// Сумма указана за единицу изделия, а не за весь заказ
	PerUnit bool `json:"per_unit"`
}

type Component struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	Quantity         float64 `json:"quantity"`
	QuantityFormula  string  `json:"quantity_formula,omitempty"`
	IncludeCondition string  `json:"include_condition,omitempty"`

	MaterialUsages []MaterialUsage `json:"material_usages,omitempty"`
	WorkTypeUsages []WorkTypeUsage `json:"work_type_usages,omitempty"`
}
