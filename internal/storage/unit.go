package storage

// MeasurementUnit — единица измерения с коэффициентом приведения к базовой
// единице своего типа (м, м², м³, кг, шт).
type MeasurementUnit struct {
	ID               int64   `json:"id"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Type             string  `json:"type"` // length | area | volume | weight | count
	ConversionFactor float64 `json:"conversion_factor"`
}
