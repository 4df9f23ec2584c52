package calculation

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"erp-golang/internal/calc/bom"
	"erp-golang/internal/calc/costing"
	"erp-golang/internal/calc/units"
	"erp-golang/internal/constants"
	"erp-golang/internal/storage"
)

type CalcStorage interface {
	GetProductWithUsages(ctx context.Context, id int64) (*storage.Product, error)
	GetMeasurementUnits(ctx context.Context) ([]storage.MeasurementUnit, error)
	GetCalcSettings(ctx context.Context) (*storage.CalcSettings, error)
	GetFundCategoryPlanned(ctx context.Context, categoryIDs []int64) (map[int64]float64, error)
	GetProductIDsByFundCategory(ctx context.Context, categoryID int64) ([]int64, error)
	UpdateProductCosts(ctx context.Context, update storage.ProductCostUpdate) error
}

// CalcService — единственная точка расчёта себестоимости. Все маршруты
// (прямой расчёт, по компонентам, по габаритам, калькулятор позиции
// заказа, пакетный пересчёт) идут через него, чтобы арифметика нигде
// не дублировалась.
type CalcService struct {
	storage CalcStorage
}

func NewCalcService(storage CalcStorage) *CalcService {
	return &CalcService{storage: storage}
}

// максимум параллельных расчётов при пакетном пересчёте категории
const batchLimit = 4

type calcInput struct {
	product  *storage.Product
	registry *units.Registry
	settings *storage.CalcSettings
}

// fetchInput параллельно тянет изделие, справочник единиц и настройки.
func (s *CalcService) fetchInput(ctx context.Context, productID int64) (calcInput, error) {
	const op = "service.calculation.fetchInput"

	var (
		product  *storage.Product
		unitList []storage.MeasurementUnit
		settings *storage.CalcSettings
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = s.storage.GetProductWithUsages(gCtx, productID)
		if err != nil {
			return fmt.Errorf("product: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		unitList, err = s.storage.GetMeasurementUnits(gCtx)
		if err != nil {
			return fmt.Errorf("units: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		settings, err = s.storage.GetCalcSettings(gCtx)
		if err != nil {
			return fmt.Errorf("settings: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return calcInput{}, fmt.Errorf("%s: %w", op, err)
	}

	registry := units.Default()
	if len(unitList) > 0 {
		registry = units.NewRegistry(unitList)
	}

	return calcInput{product: product, registry: registry, settings: settings}, nil
}

// CalculateProductCost — прямой расчёт себестоимости изделия.
// overheadRatePercent и targetMarginPercent опциональны: наценка по
// умолчанию берётся из настроек.
func (s *CalcService) CalculateProductCost(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, overheadRatePercent, targetMarginPercent *float64) (*storage.CostBreakdown, error) {
	const op = "service.calculation.CalculateProductCost"

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w: количество должно быть больше нуля", op, costing.ErrInvalidInput)
	}

	in, err := s.fetchInput(ctx, productID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculate(ctx, in, quantity, params, overheadRatePercent, targetMarginPercent, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return breakdown, nil
}

// calculate — общий конвейер: BOM -> агрегация -> цена.
func (s *CalcService) calculate(ctx context.Context, in calcInput, quantity float64, params storage.CalculationParameters, overheadRatePercent, targetMarginPercent, manualSellingPrice *float64) (*storage.CostBreakdown, error) {
	product := in.product

	if err := validateParameters(product, params); err != nil {
		return nil, err
	}

	resolver := bom.NewResolver(in.registry)
	p := map[string]any(params)

	matLines, warnings, err := resolver.ResolveMaterials(product, quantity, p)
	if err != nil {
		return nil, err
	}

	laborLines, warns, err := resolver.ResolveLabor(product, quantity, p)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, warns...)

	// Материалы и работы компонентов входят в общие итоги
	components, warns, err := resolver.ResolveComponents(product, quantity, p)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, warns...)

	for _, comp := range components {
		if !comp.Included {
			continue
		}
		matLines = append(matLines, comp.MaterialCosts...)
		laborLines = append(laborLines, comp.LaborCosts...)
	}

	planned, err := s.plannedAmounts(ctx, product.FundUsages)
	if err != nil {
		return nil, err
	}

	breakdown, err := costing.Aggregate(matLines, laborLines, product.FundUsages, planned, quantity)
	if err != nil {
		return nil, err
	}

	// Дополнительные накладные как процент от прямой себестоимости
	if overheadRatePercent != nil {
		if *overheadRatePercent < 0 {
			return nil, fmt.Errorf("%w: отрицательный процент накладных", costing.ErrInvalidInput)
		}
		extra := (breakdown.TotalMaterialCost + breakdown.TotalLaborCost) * *overheadRatePercent / 100
		breakdown.OverheadCosts = append(breakdown.OverheadCosts, storage.FundLine{
			Name:        "накладные расходы",
			FinalAmount: extra,
		})
		breakdown.OverheadCost += extra
		breakdown.TotalCost += extra
	}

	margin := in.settings.DefaultMarginPercent
	if targetMarginPercent != nil {
		margin = *targetMarginPercent
	}

	pricing := costing.Price(breakdown.TotalCost, costing.PriceOptions{
		TargetMarginPercent: margin,
		ManualSellingPrice:  manualSellingPrice,
		VATRatePercent:      in.settings.VATRatePercent,
	})

	breakdown.ProductID = product.ID
	breakdown.SellingPrice = pricing.SellingPrice
	breakdown.Margin = pricing.MarginPercent
	breakdown.VATAmount = pricing.VATAmount
	breakdown.PriceWithVAT = pricing.PriceWithVAT
	if warnings == nil {
		warnings = []string{}
	}
	breakdown.Warnings = warnings

	roundBreakdown(&breakdown)

	return &breakdown, nil
}

// plannedAmounts собирает плановые суммы категорий фондов, на которые
// ссылаются фонды изделия.
func (s *CalcService) plannedAmounts(ctx context.Context, funds []storage.FundUsage) (map[int64]float64, error) {
	seen := make(map[int64]bool)
	var ids []int64
	for _, f := range funds {
		if f.Percentage != nil && !seen[f.FundCategoryID] {
			seen[f.FundCategoryID] = true
			ids = append(ids, f.FundCategoryID)
		}
	}
	if len(ids) == 0 {
		return map[int64]float64{}, nil
	}
	return s.storage.GetFundCategoryPlanned(ctx, ids)
}

// roundBreakdown — округление денежных полей на выходной границе.
// Внутри конвейера суммы не округляются.
func roundBreakdown(b *storage.CostBreakdown) {
	for i := range b.MaterialCosts {
		b.MaterialCosts[i].Cost = costing.Round2(b.MaterialCosts[i].Cost)
	}
	for i := range b.LaborCosts {
		b.LaborCosts[i].Cost = costing.Round2(b.LaborCosts[i].Cost)
	}
	for i := range b.OverheadCosts {
		b.OverheadCosts[i].FinalAmount = costing.Round2(b.OverheadCosts[i].FinalAmount)
	}
	b.TotalMaterialCost = costing.Round2(b.TotalMaterialCost)
	b.TotalLaborCost = costing.Round2(b.TotalLaborCost)
	b.OverheadCost = costing.Round2(b.OverheadCost)
	b.TotalCost = costing.Round2(b.TotalCost)
}

// validateParameters проверяет переданные значения против объявленных
// параметров изделия (min/max для чисел, коды опций для select).
func validateParameters(product *storage.Product, params storage.CalculationParameters) error {
	if !product.FormulaEnabled {
		return nil
	}

	for _, decl := range product.Parameters {
		raw, ok := params[decl.Name]
		if !ok {
			continue // отсутствующий параметр уронит формулу сам
		}

		switch decl.Type {
		case constants.ParameterTypeNumber:
			num, ok := toFloat(raw)
			if !ok {
				return fmt.Errorf("%w: параметр %q должен быть числом", costing.ErrInvalidInput, decl.Name)
			}
			if decl.Min != nil && num < *decl.Min {
				return fmt.Errorf("%w: параметр %q меньше минимума %.4f", costing.ErrInvalidInput, decl.Name, *decl.Min)
			}
			if decl.Max != nil && num > *decl.Max {
				return fmt.Errorf("%w: параметр %q больше максимума %.4f", costing.ErrInvalidInput, decl.Name, *decl.Max)
			}

		case constants.ParameterTypeSelect:
			code, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: параметр %q должен быть кодом опции", costing.ErrInvalidInput, decl.Name)
			}
			found := false
			for _, opt := range decl.Options {
				if opt == code {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: недопустимое значение %q параметра %q", costing.ErrInvalidInput, code, decl.Name)
			}
		}
	}

	return nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// CalculateComponentCosts — расчёт с разбивкой по компонентам изделия.
func (s *CalcService) CalculateComponentCosts(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters) (*storage.ProductCalculationResult, error) {
	const op = "service.calculation.CalculateComponentCosts"

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w: количество должно быть больше нуля", op, costing.ErrInvalidInput)
	}

	in, err := s.fetchInput(ctx, productID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculate(ctx, in, quantity, params, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resolver := bom.NewResolver(in.registry)
	// предупреждения этого прохода уже собраны внутри calculate
	components, _, err := resolver.ResolveComponents(in.product, quantity, map[string]any(params))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range components {
		components[i].MaterialCost = costing.Round2(components[i].MaterialCost)
		components[i].LaborCost = costing.Round2(components[i].LaborCost)
		components[i].TotalCost = costing.Round2(components[i].TotalCost)
		for j := range components[i].MaterialCosts {
			components[i].MaterialCosts[j].Cost = costing.Round2(components[i].MaterialCosts[j].Cost)
		}
		for j := range components[i].LaborCosts {
			components[i].LaborCosts[j].Cost = costing.Round2(components[i].LaborCosts[j].Cost)
		}
	}

	return &storage.ProductCalculationResult{
		ProductID:         productID,
		Quantity:          quantity,
		Components:        components,
		TotalMaterialCost: breakdown.TotalMaterialCost,
		TotalLaborCost:    breakdown.TotalLaborCost,
		OverheadCost:      breakdown.OverheadCost,
		TotalCost:         breakdown.TotalCost,
		SellingPrice:      breakdown.SellingPrice,
		Margin:            breakdown.Margin,
		Warnings:          breakdown.Warnings,
	}, nil
}

// CalculateByDimensions — расчёт по габаритам: размеры превращаются в
// параметры формул (length/width/height/thickness/weight + dim_unit).
func (s *CalcService) CalculateByDimensions(ctx context.Context, productID int64, dims storage.Dimensions, quantity float64, customSpecs storage.CalculationParameters) (*storage.DimensionCalculationResult, error) {
	const op = "service.calculation.CalculateByDimensions"

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w: количество должно быть больше нуля", op, costing.ErrInvalidInput)
	}
	if dims.Length < 0 || dims.Width < 0 || dims.Height < 0 || dims.Thickness < 0 || dims.Weight < 0 {
		return nil, fmt.Errorf("%s: %w: размеры не могут быть отрицательными", op, costing.ErrInvalidInput)
	}

	dimUnit := dims.Unit
	if dimUnit == "" {
		dimUnit = constants.DefaultDimensionUnit
	}

	params := storage.CalculationParameters{}
	for k, v := range customSpecs {
		params[k] = v
	}
	params["length"] = dims.Length
	params["width"] = dims.Width
	params["height"] = dims.Height
	params["thickness"] = dims.Thickness
	params["weight"] = dims.Weight
	params["dim_unit"] = dimUnit

	in, err := s.fetchInput(ctx, productID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculate(ctx, in, quantity, params, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &storage.DimensionCalculationResult{
		ProductID:  productID,
		Quantity:   quantity,
		Dimensions: dims,
		Breakdown:  *breakdown,
	}

	if area, areaUnit, err := in.registry.Area(dims.Length, dims.Width, dimUnit); err == nil {
		if m2, err := in.registry.Convert(area, areaUnit, "m2"); err == nil {
			result.Area = m2
		}
	}
	if vol, volUnit, err := in.registry.Volume(dims.Length, dims.Width, dims.Height, dimUnit); err == nil {
		if m3, err := in.registry.Convert(vol, volUnit, "m3"); err == nil {
			result.Volume = m3
		}
	}

	return result, nil
}

// PriceOrderItem — калькулятор позиции заказа: считает себестоимость и
// цену и возвращает снимок с названием/единицей/ценой на момент расчёта.
func (s *CalcService) PriceOrderItem(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, manualSellingPrice *float64) (*storage.OrderItem, error) {
	const op = "service.calculation.PriceOrderItem"

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w: количество должно быть больше нуля", op, costing.ErrInvalidInput)
	}

	in, err := s.fetchInput(ctx, productID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculate(ctx, in, quantity, params, nil, nil, manualSellingPrice)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.OrderItem{
		ProductID:    productID,
		Name:         in.product.Name,
		Unit:         in.product.Unit,
		Quantity:     quantity,
		UnitCost:     safeDiv(breakdown.TotalCost, quantity),
		SellingPrice: breakdown.SellingPrice,
		VATRate:      in.settings.VATRatePercent,
		VATAmount:    breakdown.VATAmount,
		PriceWithVAT: breakdown.PriceWithVAT,
		LineTotal:    breakdown.PriceWithVAT,
		Warnings:     breakdown.Warnings,
	}, nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return costing.Round2(a / b)
}

// RecalculateCategoryProducts пересчитывает кэшированную себестоимость
// всех изделий, фонды которых ссылаются на категорию. Расчёты независимы,
// поэтому идут параллельно с ограничением.
func (s *CalcService) RecalculateCategoryProducts(ctx context.Context, categoryID int64) ([]storage.ProductCostUpdate, error) {
	const op = "service.calculation.RecalculateCategoryProducts"

	ids, err := s.storage.GetProductIDsByFundCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		mu      sync.Mutex
		updates []storage.ProductCostUpdate
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit)

	for _, id := range ids {
		g.Go(func() error {
			breakdown, err := s.CalculateProductCost(gCtx, id, 1, nil, nil, nil)
			if err != nil {
				return fmt.Errorf("изделие id=%d: %w", id, err)
			}

			update := storage.ProductCostUpdate{
				ProductID:    id,
				MaterialCost: breakdown.TotalMaterialCost,
				LaborCost:    breakdown.TotalLaborCost,
				OverheadCost: breakdown.OverheadCost,
				TotalCost:    breakdown.TotalCost,
				SellingPrice: breakdown.SellingPrice,
				Margin:       breakdown.Margin,
			}
			if err := s.storage.UpdateProductCosts(gCtx, update); err != nil {
				return fmt.Errorf("изделие id=%d: %w", id, err)
			}

			mu.Lock()
			updates = append(updates, update)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updates, nil
}
