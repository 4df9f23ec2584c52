// Package bom разворачивает состав изделия (материалы, работы, компоненты)
// в плоские строки расчёта с уже посчитанной стоимостью.
package bom

import (
	"errors"
	"fmt"
	"sort"

	"erp-golang/internal/calc/formula"
	"erp-golang/internal/calc/units"
	"erp-golang/internal/constants"
	"erp-golang/internal/storage"
)

var (
	ErrMaterialResolution = errors.New("не удалось рассчитать строку материала")
	ErrInvalidInput       = errors.New("некорректные входные данные расчёта")
)

type Resolver struct {
	units *units.Registry
}

func NewResolver(reg *units.Registry) *Resolver {
	return &Resolver{units: reg}
}

// EffectiveQuantity — количество, на которое умножаются фиксированные
// расходы. Для изделий с формулой это результат формулы, при ошибке
// формулы откатываемся на количество из запроса с предупреждением
// (а не на ноль: ноль молча занизил бы цену).
func (r *Resolver) EffectiveQuantity(product *storage.Product, quantity float64, params map[string]any) (float64, []string) {
	if !product.FormulaEnabled || product.FormulaExpression == "" {
		return quantity, nil
	}

	v, err := formula.Evaluate(product.FormulaExpression, params)
	if err != nil {
		warn := fmt.Sprintf("формула изделия %q не вычислена (%v), используется количество из запроса", product.Name, err)
		return quantity, []string{warn}
	}
	if v < 0 {
		warn := fmt.Sprintf("формула изделия %q дала отрицательное количество %.4f, используется количество из запроса", product.Name, v)
		return quantity, []string{warn}
	}

	return v, nil
}

// ResolveMaterials разворачивает расход материалов изделия.
// Нерешаемая строка (несовместимые единицы, отсутствующий материал)
// прерывает весь расчёт: пропущенная строка молча занизила бы себестоимость.
func (r *Resolver) ResolveMaterials(product *storage.Product, quantity float64, params map[string]any) ([]storage.MaterialLine, []string, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: количество должно быть больше нуля", ErrInvalidInput)
	}

	effQty, warnings := r.EffectiveQuantity(product, quantity, params)
	ctx := r.extendParams(params, effQty, 0)

	lines := make([]storage.MaterialLine, 0, len(product.MaterialUsages))
	for _, usage := range product.MaterialUsages {
		line, warns, err := r.resolveMaterialUsage(usage, effQty, ctx)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, warns...)
		lines = append(lines, line)
	}

	return lines, warnings, nil
}

func (r *Resolver) resolveMaterialUsage(usage storage.MaterialUsage, effQty float64, ctx map[string]any) (storage.MaterialLine, []string, error) {
	mat := usage.Material
	if mat == nil {
		return storage.MaterialLine{}, nil, fmt.Errorf("%w: расход id=%d ссылается на отсутствующий материал id=%d",
			ErrMaterialResolution, usage.ID, usage.MaterialID)
	}
	if mat.Price < 0 {
		return storage.MaterialLine{}, nil, fmt.Errorf("%w: отрицательная цена материала %q", ErrInvalidInput, mat.Name)
	}

	var warnings []string

	qty, warns, err := r.resolveQuantity(usage, effQty, ctx, mat.Name)
	if err != nil {
		return storage.MaterialLine{}, nil, err
	}
	warnings = append(warnings, warns...)

	// Коэффициент отхода применяется до перевода единиц и до стоимости
	if usage.WasteFactor > 0 {
		qty *= usage.WasteFactor
	}

	// Расход может быть задан не в той единице, в которой хранится цена
	if usage.Unit != "" && mat.Unit != "" && usage.Unit != mat.Unit {
		converted, err := r.units.Convert(qty, usage.Unit, mat.Unit)
		if err != nil {
			return storage.MaterialLine{}, nil, fmt.Errorf("%w: материал %q, расход id=%d: %w",
				ErrMaterialResolution, mat.Name, usage.ID, err)
		}
		qty = converted
	}

	if qty < 0 {
		return storage.MaterialLine{}, nil, fmt.Errorf("%w: отрицательное количество материала %q", ErrInvalidInput, mat.Name)
	}

	return storage.MaterialLine{
		UsageID:    usage.ID,
		MaterialID: mat.ID,
		Name:       mat.Name,
		Unit:       mat.Unit,
		Quantity:   qty,
		UnitPrice:  mat.Price,
		Cost:       qty * mat.Price,
	}, warnings, nil
}

func (r *Resolver) resolveQuantity(usage storage.MaterialUsage, effQty float64, ctx map[string]any, matName string) (float64, []string, error) {
	// Явная формула имеет приоритет над unit_type
	if usage.CalculationFormula != "" {
		v, err := formula.Evaluate(usage.CalculationFormula, ctx)
		if err == nil {
			return v, nil, nil
		}
		// Формула не вычислилась: если есть фиксированное количество —
		// считаем по нему с предупреждением, иначе строка нерешаема.
		if usage.Quantity > 0 {
			warn := fmt.Sprintf("формула расхода материала %q не вычислена (%v), используется фиксированное количество", matName, err)
			return usage.Quantity * effQty, []string{warn}, nil
		}
		return 0, nil, fmt.Errorf("%w: материал %q, расход id=%d: %v", ErrMaterialResolution, matName, usage.ID, err)
	}

	switch usage.UnitType {
	case constants.UnitTypeFixed, "":
		return usage.Quantity * effQty, nil, nil

	case constants.UnitTypePerArea:
		area, ok := ctx["area"].(float64)
		if !ok {
			return 0, nil, fmt.Errorf("%w: материал %q считается от площади, но размеры не заданы", ErrMaterialResolution, matName)
		}
		return usage.BaseQuantity * area, nil, nil

	case constants.UnitTypePerVolume:
		vol, ok := ctx["volume"].(float64)
		if !ok {
			return 0, nil, fmt.Errorf("%w: материал %q считается от объёма, но размеры не заданы", ErrMaterialResolution, matName)
		}
		return usage.BaseQuantity * vol, nil, nil

	case constants.UnitTypePerWeight:
		weight, ok := ctx["weight"].(float64)
		if !ok {
			return 0, nil, fmt.Errorf("%w: материал %q считается от веса, но вес не задан", ErrMaterialResolution, matName)
		}
		return usage.BaseQuantity * weight, nil, nil

	case constants.UnitTypeCalculated:
		// calculated без формулы — ошибка данных
		return 0, nil, fmt.Errorf("%w: материал %q помечен calculated, но формула не задана", ErrMaterialResolution, matName)

	default:
		return 0, nil, fmt.Errorf("%w: неизвестный unit_type %q у расхода id=%d", ErrMaterialResolution, usage.UnitType, usage.ID)
	}
}

// ResolveLabor — то же самое для трудозатрат. Sequence сохраняется для
// отображения порядка операций, на стоимость не влияет.
func (r *Resolver) ResolveLabor(product *storage.Product, quantity float64, params map[string]any) ([]storage.LaborLine, []string, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: количество должно быть больше нуля", ErrInvalidInput)
	}

	effQty, warnings := r.EffectiveQuantity(product, quantity, params)
	ctx := r.extendParams(params, effQty, 0)

	usages := make([]storage.WorkTypeUsage, len(product.WorkTypeUsages))
	copy(usages, product.WorkTypeUsages)
	sort.SliceStable(usages, func(i, j int) bool { return usages[i].Sequence < usages[j].Sequence })

	lines := make([]storage.LaborLine, 0, len(usages))
	for _, usage := range usages {
		line, warns, err := r.resolveWorkUsage(usage, effQty, ctx)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, warns...)
		lines = append(lines, line)
	}

	return lines, warnings, nil
}

func (r *Resolver) resolveWorkUsage(usage storage.WorkTypeUsage, effQty float64, ctx map[string]any) (storage.LaborLine, []string, error) {
	wt := usage.WorkType
	if wt == nil {
		return storage.LaborLine{}, nil, fmt.Errorf("%w: расход работы id=%d ссылается на отсутствующий вид работ id=%d",
			ErrMaterialResolution, usage.ID, usage.WorkTypeID)
	}
	if wt.HourlyRate < 0 {
		return storage.LaborLine{}, nil, fmt.Errorf("%w: отрицательная ставка вида работ %q", ErrInvalidInput, wt.Name)
	}

	var warnings []string
	var hours float64

	switch {
	case usage.CalculationFormula != "":
		v, err := formula.Evaluate(usage.CalculationFormula, ctx)
		if err != nil {
			if usage.Time > 0 {
				warnings = append(warnings, fmt.Sprintf("формула времени работы %q не вычислена (%v), используется нормативное время", wt.Name, err))
				hours = usage.Time * effQty
			} else {
				return storage.LaborLine{}, nil, fmt.Errorf("%w: вид работ %q, расход id=%d: %v", ErrMaterialResolution, wt.Name, usage.ID, err)
			}
		} else {
			hours = v
		}

	case usage.UnitType == constants.UnitTypePerArea:
		area, ok := ctx["area"].(float64)
		if !ok {
			return storage.LaborLine{}, nil, fmt.Errorf("%w: время работы %q считается от площади, но размеры не заданы", ErrMaterialResolution, wt.Name)
		}
		hours = usage.BaseTime * area

	default:
		hours = usage.Time * effQty
	}

	if hours < 0 {
		return storage.LaborLine{}, nil, fmt.Errorf("%w: отрицательное время работы %q", ErrInvalidInput, wt.Name)
	}

	return storage.LaborLine{
		UsageID:    usage.ID,
		WorkTypeID: wt.ID,
		Name:       wt.Name,
		Sequence:   usage.Sequence,
		Hours:      hours,
		HourlyRate: wt.HourlyRate,
		Cost:       hours * wt.HourlyRate,
	}, warnings, nil
}

// ResolveComponents считает разбивку по компонентам изделия. Условие
// включения при ошибке вычисления трактуется как "включить" с
// предупреждением: переоценить компонент можно, молча его потерять — нет.
func (r *Resolver) ResolveComponents(product *storage.Product, quantity float64, params map[string]any) ([]storage.ComponentBreakdown, []string, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: количество должно быть больше нуля", ErrInvalidInput)
	}

	effQty, warnings := r.EffectiveQuantity(product, quantity, params)

	result := make([]storage.ComponentBreakdown, 0, len(product.Components))
	for _, comp := range product.Components {
		breakdown, warns, err := r.resolveComponent(comp, effQty, params)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, warns...)
		result = append(result, breakdown)
	}

	return result, warnings, nil
}

func (r *Resolver) resolveComponent(comp storage.Component, effQty float64, params map[string]any) (storage.ComponentBreakdown, []string, error) {
	var warnings []string

	baseCtx := r.extendParams(params, effQty, 0)

	included := true
	if comp.IncludeCondition != "" {
		ok, err := formula.EvaluateCondition(comp.IncludeCondition, baseCtx)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("условие включения компонента %q не вычислено (%v), компонент включён", comp.Name, err))
		} else {
			included = ok
		}
	}

	breakdown := storage.ComponentBreakdown{
		ComponentID: comp.ID,
		Name:        comp.Name,
		Included:    included,
	}
	if !included {
		return breakdown, warnings, nil
	}

	// Количество компонента умножает общее количество изделия
	compQty := effQty
	switch {
	case comp.QuantityFormula != "":
		v, err := formula.Evaluate(comp.QuantityFormula, baseCtx)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("формула количества компонента %q не вычислена (%v), используется количество изделия", comp.Name, err))
		} else {
			compQty = v * effQty
		}
	case comp.Quantity > 0:
		compQty = comp.Quantity * effQty
	}
	breakdown.Quantity = compQty

	ctx := r.extendParams(params, effQty, compQty)

	for _, usage := range comp.MaterialUsages {
		line, warns, err := r.resolveMaterialUsage(usage, compQty, ctx)
		if err != nil {
			return storage.ComponentBreakdown{}, nil, err
		}
		warnings = append(warnings, warns...)
		breakdown.MaterialCosts = append(breakdown.MaterialCosts, line)
		breakdown.MaterialCost += line.Cost
	}

	for _, usage := range comp.WorkTypeUsages {
		line, warns, err := r.resolveWorkUsage(usage, compQty, ctx)
		if err != nil {
			return storage.ComponentBreakdown{}, nil, err
		}
		warnings = append(warnings, warns...)
		breakdown.LaborCosts = append(breakdown.LaborCosts, line)
		breakdown.LaborCost += line.Cost
	}

	breakdown.TotalCost = breakdown.MaterialCost + breakdown.LaborCost

	return breakdown, warnings, nil
}

// extendParams дополняет параметры расчёта производными величинами:
// площадь (м²), объём (м³), вес (кг), количество. Размеры ожидаются в
// единице из параметра dim_unit, по умолчанию в сантиметрах.
func (r *Resolver) extendParams(params map[string]any, effQty, componentQty float64) map[string]any {
	ctx := make(map[string]any, len(params)+5)
	for k, v := range params {
		ctx[k] = v
	}

	ctx["quantity"] = effQty
	if componentQty > 0 {
		ctx["componentQuantity"] = componentQty
	}

	dimUnit := constants.DefaultDimensionUnit
	if u, ok := ctx["dim_unit"].(string); ok && u != "" {
		dimUnit = u
	}

	length, hasLength := numParam(ctx, "length")
	width, hasWidth := numParam(ctx, "width")
	height, hasHeight := numParam(ctx, "height")

	if hasLength && hasWidth {
		if area, areaUnit, err := r.units.Area(length, width, dimUnit); err == nil {
			if m2, err := r.units.Convert(area, areaUnit, "m2"); err == nil {
				ctx["area"] = m2
			}
		}
		if hasHeight {
			if vol, volUnit, err := r.units.Volume(length, width, height, dimUnit); err == nil {
				if m3, err := r.units.Convert(vol, volUnit, "m3"); err == nil {
					ctx["volume"] = m3
				}
			}
		}
	}

	if w, ok := numParam(ctx, "weight"); ok {
		ctx["weight"] = w
	}

	return ctx
}

func numParam(params map[string]any, name string) (float64, bool) {
	switch v := params[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
