package storage

type MaterialItem struct {
	ID       int64   `json:"id"`
	Articul  string  `json:"articul"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`

	// Базовая единица для расчёта, если отличается от единицы закупки
	BaseUnit         *string  `json:"base_unit,omitempty"`
	CalculationUnit  *string  `json:"calculation_unit,omitempty"`
	ConversionFactor *float64 `json:"conversion_factor,omitempty"`

	IsActive bool `json:"is_active"`
}

type WorkType struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	HourlyRate   float64  `json:"hourly_rate"`
	StandardTime *float64 `json:"standard_time,omitempty"`
	Department   *string  `json:"department,omitempty"`
	IsActive     bool     `json:"is_active"`
}
