package units

import (
	"errors"
	"fmt"
	"math"

	"erp-golang/internal/storage"
)

// Типы единиц измерения
const (
	TypeLength = "length"
	TypeArea   = "area"
	TypeVolume = "volume"
	TypeWeight = "weight"
	TypeCount  = "count"
)

var (
	ErrUnitNotFound      = errors.New("единица измерения не найдена")
	ErrIncompatibleUnits = errors.New("несовместимые типы единиц измерения")
)

// Registry — справочник единиц измерения. Заполняется из БД при старте
// расчёта и дальше только читается, поэтому безопасен для параллельных
// расчётов без блокировок.
type Registry struct {
	units map[string]storage.MeasurementUnit
}

func NewRegistry(list []storage.MeasurementUnit) *Registry {
	m := make(map[string]storage.MeasurementUnit, len(list))
	for _, u := range list {
		m[u.Symbol] = u
	}
	return &Registry{units: m}
}

// Default возвращает встроенный справочник. Используется, когда таблица
// единиц в БД пуста (например в тестах или до прогона сидов).
func Default() *Registry {
	return NewRegistry(DefaultUnits())
}

// DefaultUnits — встроенный набор единиц. Коэффициент — приведение к
// базовой единице типа: м, м², м³, кг, шт.
func DefaultUnits() []storage.MeasurementUnit {
	return []storage.MeasurementUnit{
		{Symbol: "mm", Name: "миллиметр", Type: TypeLength, ConversionFactor: 0.001},
		{Symbol: "cm", Name: "сантиметр", Type: TypeLength, ConversionFactor: 0.01},
		{Symbol: "m", Name: "метр", Type: TypeLength, ConversionFactor: 1},

		{Symbol: "mm2", Name: "кв. миллиметр", Type: TypeArea, ConversionFactor: 0.000001},
		{Symbol: "cm2", Name: "кв. сантиметр", Type: TypeArea, ConversionFactor: 0.0001},
		{Symbol: "m2", Name: "кв. метр", Type: TypeArea, ConversionFactor: 1},

		{Symbol: "mm3", Name: "куб. миллиметр", Type: TypeVolume, ConversionFactor: 1e-9},
		{Symbol: "cm3", Name: "куб. сантиметр", Type: TypeVolume, ConversionFactor: 1e-6},
		{Symbol: "l", Name: "литр", Type: TypeVolume, ConversionFactor: 0.001},
		{Symbol: "m3", Name: "куб. метр", Type: TypeVolume, ConversionFactor: 1},

		{Symbol: "g", Name: "грамм", Type: TypeWeight, ConversionFactor: 0.001},
		{Symbol: "kg", Name: "килограмм", Type: TypeWeight, ConversionFactor: 1},
		{Symbol: "t", Name: "тонна", Type: TypeWeight, ConversionFactor: 1000},

		{Symbol: "шт", Name: "штука", Type: TypeCount, ConversionFactor: 1},
		{Symbol: "компл", Name: "комплект", Type: TypeCount, ConversionFactor: 1},
	}
}

func (r *Registry) Lookup(symbol string) (storage.MeasurementUnit, error) {
	u, ok := r.units[symbol]
	if !ok {
		return storage.MeasurementUnit{}, fmt.Errorf("%w: %q", ErrUnitNotFound, symbol)
	}
	return u, nil
}

// Convert переводит значение из одной единицы в другую. Единицы разных
// типов не конвертируются — раньше такие значения молча возвращались как
// есть, теперь это ошибка.
func (r *Registry) Convert(value float64, from, to string) (float64, error) {
	if from == to {
		return value, nil
	}

	fu, err := r.Lookup(from)
	if err != nil {
		return 0, err
	}
	tu, err := r.Lookup(to)
	if err != nil {
		return 0, err
	}

	if fu.Type != tu.Type {
		return 0, fmt.Errorf("%w: %q (%s) -> %q (%s)", ErrIncompatibleUnits, from, fu.Type, to, tu.Type)
	}

	return Round6(value * fu.ConversionFactor / tu.ConversionFactor), nil
}

// areaUnitFor — детерминированное соответствие линейной единицы квадратной.
var areaUnitFor = map[string]string{
	"mm": "mm2",
	"cm": "cm2",
	"m":  "m2",
}

var volumeUnitFor = map[string]string{
	"mm": "mm3",
	"cm": "cm3",
	"m":  "m3",
}

// Area считает площадь length*width в квадратной единице, соответствующей
// линейной единице размеров.
func (r *Registry) Area(length, width float64, dimUnit string) (float64, string, error) {
	u, err := r.Lookup(dimUnit)
	if err != nil {
		return 0, "", err
	}
	if u.Type != TypeLength {
		return 0, "", fmt.Errorf("%w: размеры заданы не линейной единицей %q", ErrIncompatibleUnits, dimUnit)
	}

	areaUnit, ok := areaUnitFor[dimUnit]
	if !ok {
		return 0, "", fmt.Errorf("%w: нет квадратной единицы для %q", ErrUnitNotFound, dimUnit)
	}

	return Round6(length * width), areaUnit, nil
}

// Volume — аналогично Area, с третьим измерением.
func (r *Registry) Volume(length, width, height float64, dimUnit string) (float64, string, error) {
	u, err := r.Lookup(dimUnit)
	if err != nil {
		return 0, "", err
	}
	if u.Type != TypeLength {
		return 0, "", fmt.Errorf("%w: размеры заданы не линейной единицей %q", ErrIncompatibleUnits, dimUnit)
	}

	volUnit, ok := volumeUnitFor[dimUnit]
	if !ok {
		return 0, "", fmt.Errorf("%w: нет кубической единицы для %q", ErrUnitNotFound, dimUnit)
	}

	return Round6(length * width * height), volUnit, nil
}

// Round6 округляет до 6 знаков, чтобы повторные конвертации не копили
// плавающий дрейф.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
