package constants

// Типы расхода материала/работы в составе изделия
const (
	UnitTypeFixed      = "fixed"
	UnitTypePerArea    = "per_area"
	UnitTypePerVolume  = "per_volume"
	UnitTypePerWeight  = "per_weight"
	UnitTypeCalculated = "calculated"
)

// KnownUnitTypes — допустимые значения unit_type в записях расхода.
var KnownUnitTypes = map[string]bool{
	UnitTypeFixed:      true,
	UnitTypePerArea:    true,
	UnitTypePerVolume:  true,
	UnitTypePerWeight:  true,
	UnitTypeCalculated: true,
}

// Типы параметров изделия
const (
	ParameterTypeNumber = "number"
	ParameterTypeSelect = "select"
)

// Статусы заказа
const (
	OrderStatusNew        = "new"
	OrderStatusInProgress = "in_progress"
	OrderStatusDone       = "done"
	OrderStatusCancelled  = "cancelled"
)

var OrderStatuses = map[string]bool{
	OrderStatusNew:        true,
	OrderStatusInProgress: true,
	OrderStatusDone:       true,
	OrderStatusCancelled:  true,
}

// Единица линейных размеров по умолчанию для расчёта по габаритам
const DefaultDimensionUnit = "cm"
