package bom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-golang/internal/calc/formula"
	"erp-golang/internal/calc/units"
	"erp-golang/internal/storage"
)

func newMaterial(id int64, name, unit string, price float64) *storage.MaterialItem {
	return &storage.MaterialItem{ID: id, Name: name, Unit: unit, Price: price, Currency: "RUB", IsActive: true}
}

func newWorkType(id int64, name string, rate float64) *storage.WorkType {
	return &storage.WorkType{ID: id, Name: name, Unit: "ч", HourlyRate: rate, IsActive: true}
}

func TestResolveMaterials_Fixed(t *testing.T) {
	// 1. Изделие с одним фиксированным расходом: 2 единицы материала по 85
	product := &storage.Product{
		ID:   1,
		Name: "Тумба",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 10, MaterialID: 100, UnitType: "fixed", Quantity: 2, Material: newMaterial(100, "ЛДСП 16мм", "m2", 85)},
		},
	}

	r := NewResolver(units.Default())

	// 2. Расчёт на одну штуку
	lines, warnings, err := r.ResolveMaterials(product, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, lines, 1)

	// 3. Количество и стоимость
	assert.Equal(t, 2.0, lines[0].Quantity)
	assert.Equal(t, 170.0, lines[0].Cost)

	// 4. На три штуки — втрое больше
	lines, _, err = r.ResolveMaterials(product, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 6.0, lines[0].Quantity)
	assert.Equal(t, 510.0, lines[0].Cost)
}

func TestResolveMaterials_FormulaDrivenQuantity(t *testing.T) {
	// Изделие с формулой: фиксированный расход умножается на результат
	// формулы, а не на количество из запроса
	product := &storage.Product{
		ID:                2,
		Name:              "Баннер",
		FormulaEnabled:    true,
		FormulaExpression: "height * 1500 + width * 500",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 11, MaterialID: 101, UnitType: "fixed", Quantity: 1, Material: newMaterial(101, "Ткань баннерная", "m2", 3)},
		},
	}

	r := NewResolver(units.Default())
	params := map[string]any{"height": 3.0, "width": 1.0}

	lines, warnings, err := r.ResolveMaterials(product, 1, params)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, lines, 1)

	// height*1500 + width*500 = 5000
	assert.Equal(t, 5000.0, lines[0].Quantity)
	assert.Equal(t, 15000.0, lines[0].Cost)
}

func TestResolveMaterials_FormulaFallback(t *testing.T) {
	// Формула изделия не вычисляется (нет параметра) — откат на
	// количество из запроса с предупреждением, не на ноль
	product := &storage.Product{
		ID:                3,
		Name:              "Стенд",
		FormulaEnabled:    true,
		FormulaExpression: "height * 1500",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 12, MaterialID: 102, UnitType: "fixed", Quantity: 2, Material: newMaterial(102, "Профиль", "m", 50)},
		},
	}

	r := NewResolver(units.Default())

	lines, warnings, err := r.ResolveMaterials(product, 4, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "формула изделия")
	assert.Equal(t, 8.0, lines[0].Quantity)
}

func TestResolveMaterials_PerArea(t *testing.T) {
	// unit_type=per_area: baseQuantity * площадь из размеров.
	// 200см x 100см = 2 м²
	product := &storage.Product{
		ID:   4,
		Name: "Вывеска",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 13, MaterialID: 103, UnitType: "per_area", BaseQuantity: 1, Material: newMaterial(103, "Плёнка", "m2", 120)},
		},
	}

	r := NewResolver(units.Default())
	params := map[string]any{"length": 200.0, "width": 100.0}

	lines, warnings, err := r.ResolveMaterials(product, 1, params)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, 2.0, lines[0].Quantity)
	assert.Equal(t, 240.0, lines[0].Cost)
}

func TestResolveMaterials_PerArea_NoDimensions(t *testing.T) {
	product := &storage.Product{
		ID:   5,
		Name: "Вывеска",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 14, MaterialID: 103, UnitType: "per_area", BaseQuantity: 1, Material: newMaterial(103, "Плёнка", "m2", 120)},
		},
	}

	r := NewResolver(units.Default())

	_, _, err := r.ResolveMaterials(product, 1, nil)
	assert.ErrorIs(t, err, ErrMaterialResolution)
}

func TestResolveMaterials_UsageFormula(t *testing.T) {
	// Формула расхода видит производную площадь и количество
	product := &storage.Product{
		ID:   6,
		Name: "Короб",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 15, MaterialID: 104, CalculationFormula: "area * 2 + quantity", Material: newMaterial(104, "Оргстекло", "m2", 200)},
		},
	}

	r := NewResolver(units.Default())
	params := map[string]any{"length": 100.0, "width": 100.0}

	lines, _, err := r.ResolveMaterials(product, 3, params)
	require.NoError(t, err)

	// area = 1 м², quantity = 3 -> 1*2 + 3 = 5
	assert.Equal(t, 5.0, lines[0].Quantity)
	assert.Equal(t, 1000.0, lines[0].Cost)
}

func TestResolveMaterials_WasteFactor(t *testing.T) {
	// Коэффициент отхода умножает количество до стоимости
	product := &storage.Product{
		ID:   7,
		Name: "Фасад",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 16, MaterialID: 105, UnitType: "fixed", Quantity: 10, WasteFactor: 1.1, Material: newMaterial(105, "МДФ", "m2", 100)},
		},
	}

	r := NewResolver(units.Default())

	lines, _, err := r.ResolveMaterials(product, 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, lines[0].Quantity, 1e-9)
	assert.InDelta(t, 1100.0, lines[0].Cost, 1e-9)
}

func TestResolveMaterials_UnitConversion(t *testing.T) {
	// Расход задан в сантиметрах, цена материала — за метр
	product := &storage.Product{
		ID:   8,
		Name: "Рамка",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 17, MaterialID: 106, Unit: "cm", UnitType: "fixed", Quantity: 250, Material: newMaterial(106, "Багет", "m", 40)},
		},
	}

	r := NewResolver(units.Default())

	lines, _, err := r.ResolveMaterials(product, 1, nil)
	require.NoError(t, err)

	// 250 см = 2.5 м -> 100 руб
	assert.Equal(t, 2.5, lines[0].Quantity)
	assert.Equal(t, 100.0, lines[0].Cost)
}

func TestResolveMaterials_IncompatibleUnitsAbort(t *testing.T) {
	// Килограммы в метры не переводятся — расчёт прерывается целиком,
	// а не пропускает строку
	product := &storage.Product{
		ID:   9,
		Name: "Конструкция",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 18, MaterialID: 107, Unit: "kg", UnitType: "fixed", Quantity: 5, Material: newMaterial(107, "Труба", "m", 30)},
		},
	}

	r := NewResolver(units.Default())

	_, _, err := r.ResolveMaterials(product, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaterialResolution)
	assert.ErrorIs(t, err, units.ErrIncompatibleUnits)
	assert.Contains(t, err.Error(), "Труба")
}

func TestResolveMaterials_NegativePrice(t *testing.T) {
	product := &storage.Product{
		ID:   10,
		Name: "Брак",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 19, MaterialID: 108, UnitType: "fixed", Quantity: 1, Material: newMaterial(108, "Мусор", "шт", -5)},
		},
	}

	r := NewResolver(units.Default())

	_, _, err := r.ResolveMaterials(product, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveLabor_Simple(t *testing.T) {
	product := &storage.Product{
		ID:   11,
		Name: "Тумба",
		WorkTypeUsages: []storage.WorkTypeUsage{
			{ID: 20, WorkTypeID: 200, Time: 1, Sequence: 2, WorkType: newWorkType(200, "Сборка", 800)},
			{ID: 21, WorkTypeID: 201, Time: 0.5, Sequence: 1, WorkType: newWorkType(201, "Распил", 600)},
		},
	}

	r := NewResolver(units.Default())

	lines, warnings, err := r.ResolveLabor(product, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, lines, 2)

	// порядок по sequence, на стоимость не влияет
	assert.Equal(t, "Распил", lines[0].Name)
	assert.Equal(t, 300.0, lines[0].Cost)
	assert.Equal(t, "Сборка", lines[1].Name)
	assert.Equal(t, 800.0, lines[1].Cost)
}

func TestResolveComponents_IncludeCondition(t *testing.T) {
	product := &storage.Product{
		ID:   12,
		Name: "Шкаф",
		Components: []storage.Component{
			{
				ID:               1,
				Name:             "Подсветка",
				IncludeCondition: "lighting === 'yes'",
				MaterialUsages: []storage.MaterialUsage{
					{ID: 22, MaterialID: 109, UnitType: "fixed", Quantity: 1, Material: newMaterial(109, "Лента LED", "m", 250)},
				},
			},
		},
	}

	r := NewResolver(units.Default())

	// условие ложно — компонент исключён
	comps, warnings, err := r.ResolveComponents(product, 1, map[string]any{"lighting": "no"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, comps, 1)
	assert.False(t, comps[0].Included)
	assert.Zero(t, comps[0].TotalCost)

	// условие истинно — компонент посчитан
	comps, _, err = r.ResolveComponents(product, 1, map[string]any{"lighting": "yes"})
	require.NoError(t, err)
	assert.True(t, comps[0].Included)
	assert.Equal(t, 250.0, comps[0].TotalCost)
}

func TestResolveComponents_IncludeConditionFailOpen(t *testing.T) {
	// Условие не вычисляется — компонент включаем с предупреждением:
	// переоценить можно, молча потерять стоимость — нельзя
	product := &storage.Product{
		ID:   13,
		Name: "Шкаф",
		Components: []storage.Component{
			{
				ID:               2,
				Name:             "Ящики",
				IncludeCondition: "drawers > 0",
				MaterialUsages: []storage.MaterialUsage{
					{ID: 23, MaterialID: 110, UnitType: "fixed", Quantity: 4, Material: newMaterial(110, "Направляющие", "шт", 150)},
				},
			},
		},
	}

	r := NewResolver(units.Default())

	comps, warnings, err := r.ResolveComponents(product, 1, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "условие включения")
	assert.True(t, comps[0].Included)
	assert.Equal(t, 600.0, comps[0].TotalCost)
}

func TestResolveComponents_QuantityFormula(t *testing.T) {
	// Формула количества компонента умножает количество изделия
	product := &storage.Product{
		ID:   14,
		Name: "Стеллаж",
		Components: []storage.Component{
			{
				ID:              3,
				Name:            "Полка",
				QuantityFormula: "shelves",
				MaterialUsages: []storage.MaterialUsage{
					{ID: 24, MaterialID: 111, UnitType: "fixed", Quantity: 1, Material: newMaterial(111, "Полка ЛДСП", "шт", 90)},
				},
			},
		},
	}

	r := NewResolver(units.Default())

	comps, _, err := r.ResolveComponents(product, 2, map[string]any{"shelves": 5.0})
	require.NoError(t, err)

	// 5 полок на изделие, 2 изделия
	assert.Equal(t, 10.0, comps[0].Quantity)
	assert.Equal(t, 900.0, comps[0].TotalCost)
}

func TestEffectiveQuantity_Determinism(t *testing.T) {
	product := &storage.Product{
		ID:                15,
		Name:              "Баннер",
		FormulaEnabled:    true,
		FormulaExpression: "height * 1500 + width * 500",
	}

	r := NewResolver(units.Default())
	params := map[string]any{"height": 3.0, "width": 1.0}

	q1, _ := r.EffectiveQuantity(product, 1, params)
	q2, _ := r.EffectiveQuantity(product, 1, params)
	assert.Equal(t, q1, q2)
	assert.Equal(t, 5000.0, q1)
}

func TestResolveQuantity_CalculatedWithoutFormula(t *testing.T) {
	product := &storage.Product{
		ID:   16,
		Name: "Ошибка данных",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 25, MaterialID: 112, UnitType: "calculated", Material: newMaterial(112, "Материал", "шт", 10)},
		},
	}

	r := NewResolver(units.Default())

	_, _, err := r.ResolveMaterials(product, 1, nil)
	assert.ErrorIs(t, err, ErrMaterialResolution)
}

func TestResolveMaterials_BadUsageFormulaFallsBack(t *testing.T) {
	// Формула расхода с мусором: есть фиксированное количество —
	// считаем по нему и предупреждаем
	product := &storage.Product{
		ID:   17,
		Name: "Изделие",
		MaterialUsages: []storage.MaterialUsage{
			{ID: 26, MaterialID: 113, CalculationFormula: "require('fs')", Quantity: 2, Material: newMaterial(113, "Материал", "шт", 10)},
		},
	}

	r := NewResolver(units.Default())

	lines, warnings, err := r.ResolveMaterials(product, 1, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "формула расхода")
	assert.Equal(t, 20.0, lines[0].Cost)

	// сам вычислитель такую формулу не принимает
	_, ferr := formula.Evaluate("require('fs')", nil)
	assert.Error(t, ferr)
}
