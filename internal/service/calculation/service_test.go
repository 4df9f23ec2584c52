package calculation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-golang/internal/calc/costing"
	"erp-golang/internal/storage"
)

type MockCalcStorage struct {
	mock.Mock
}

func (m *MockCalcStorage) GetProductWithUsages(ctx context.Context, id int64) (*storage.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Product), args.Error(1)
}

func (m *MockCalcStorage) GetMeasurementUnits(ctx context.Context) ([]storage.MeasurementUnit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.MeasurementUnit), args.Error(1)
}

func (m *MockCalcStorage) GetCalcSettings(ctx context.Context) (*storage.CalcSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.CalcSettings), args.Error(1)
}

func (m *MockCalcStorage) GetFundCategoryPlanned(ctx context.Context, categoryIDs []int64) (map[int64]float64, error) {
	args := m.Called(ctx, categoryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]float64), args.Error(1)
}

func (m *MockCalcStorage) GetProductIDsByFundCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCalcStorage) UpdateProductCosts(ctx context.Context, update storage.ProductCostUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func defaultSettings() *storage.CalcSettings {
	return &storage.CalcSettings{VATRatePercent: 20, DefaultMarginPercent: 25}
}

// simpleProduct: материалы 170 + работы 800 = 970
func simpleProduct() *storage.Product {
	return &storage.Product{
		ID:   1,
		Name: "Шкаф офисный",
		Unit: "шт",
		MaterialUsages: []storage.MaterialUsage{
			{
				UnitType: "fixed",
				Quantity: 2,
				Material: &storage.MaterialItem{ID: 1, Name: "ЛДСП", Unit: "м2", Price: 85, IsActive: true},
			},
		},
		WorkTypeUsages: []storage.WorkTypeUsage{
			{
				Time:     2,
				WorkType: &storage.WorkType{ID: 1, Name: "Сборка", HourlyRate: 400},
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }

func stubLookups(st *MockCalcStorage) {
	st.On("GetMeasurementUnits", mock.Anything).Return([]storage.MeasurementUnit{}, nil)
	st.On("GetCalcSettings", mock.Anything).Return(defaultSettings(), nil)
}

func TestCalculateProductCost_Simple(t *testing.T) {
	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(simpleProduct(), nil)
	stubLookups(st)

	svc := NewCalcService(st)

	// 1. Прямой расчёт без наценки в запросе — берётся наценка из настроек
	got, err := svc.CalculateProductCost(context.Background(), 1, 1, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 170.0, got.TotalMaterialCost)
	assert.Equal(t, 800.0, got.TotalLaborCost)
	assert.Equal(t, 970.0, got.TotalCost)
	assert.Equal(t, 1212.5, got.SellingPrice) // 970 * 1.25
	assert.NotNil(t, got.Warnings)
	assert.Empty(t, got.Warnings)

	st.AssertExpectations(t)
}

func TestCalculateProductCost_MarginOverride(t *testing.T) {
	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(simpleProduct(), nil)
	stubLookups(st)

	svc := NewCalcService(st)

	got, err := svc.CalculateProductCost(context.Background(), 1, 1, nil, nil, ptr(20.0))
	require.NoError(t, err)

	assert.Equal(t, 1164.0, got.SellingPrice) // 970 * 1.2
	assert.Equal(t, 20.0, got.Margin)
}

func TestCalculateProductCost_OverheadRate(t *testing.T) {
	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(simpleProduct(), nil)
	stubLookups(st)

	svc := NewCalcService(st)

	// 10% от (170 + 800) = 97
	got, err := svc.CalculateProductCost(context.Background(), 1, 1, nil, ptr(10.0), nil)
	require.NoError(t, err)

	assert.Equal(t, 97.0, got.OverheadCost)
	assert.Equal(t, 1067.0, got.TotalCost)
	require.Len(t, got.OverheadCosts, 1)
	assert.Equal(t, "накладные расходы", got.OverheadCosts[0].Name)
}

func TestCalculateProductCost_PercentageFund(t *testing.T) {
	product := simpleProduct()
	product.FundUsages = []storage.FundUsage{
		{ID: 1, Name: "Фонд оплаты труда", FundCategoryID: 7, Percentage: ptr(30.0)},
	}

	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(product, nil)
	st.On("GetFundCategoryPlanned", mock.Anything, []int64{7}).Return(map[int64]float64{7: 50000}, nil)
	stubLookups(st)

	svc := NewCalcService(st)

	got, err := svc.CalculateProductCost(context.Background(), 1, 1, nil, nil, nil)
	require.NoError(t, err)

	// 50000 * 30% = 15000
	assert.Equal(t, 15000.0, got.OverheadCost)
	assert.Equal(t, 15970.0, got.TotalCost)

	st.AssertExpectations(t)
}

func TestCalculateProductCost_InvalidQuantity(t *testing.T) {
	svc := NewCalcService(&MockCalcStorage{})

	_, err := svc.CalculateProductCost(context.Background(), 1, 0, nil, nil, nil)
	assert.ErrorIs(t, err, costing.ErrInvalidInput)

	_, err = svc.CalculateProductCost(context.Background(), 1, -5, nil, nil, nil)
	assert.ErrorIs(t, err, costing.ErrInvalidInput)
}

func TestCalculateProductCost_StorageError(t *testing.T) {
	st := &MockCalcStorage{}
	dbErr := errors.New("connection refused")
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(nil, dbErr)
	stubLookups(st)

	svc := NewCalcService(st)

	_, err := svc.CalculateProductCost(context.Background(), 1, 1, nil, nil, nil)
	assert.ErrorIs(t, err, dbErr)
}

func TestCalculateProductCost_ParameterValidation(t *testing.T) {
	product := simpleProduct()
	product.FormulaEnabled = true
	product.FormulaExpression = "width * height / 10000"
	product.Parameters = []storage.Parameter{
		{Name: "width", Type: "number", Min: ptr(100.0), Max: ptr(3000.0)},
		{Name: "height", Type: "number", Min: ptr(100.0), Max: ptr(3000.0)},
		{Name: "material_type", Type: "select", Options: []string{"ldsp", "mdf"}},
	}

	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(product, nil)
	stubLookups(st)

	svc := NewCalcService(st)

	// 1. Значение ниже минимума
	_, err := svc.CalculateProductCost(context.Background(), 1, 1,
		storage.CalculationParameters{"width": 50.0, "height": 1000.0}, nil, nil)
	assert.ErrorIs(t, err, costing.ErrInvalidInput)

	// 2. Недопустимый код опции
	_, err = svc.CalculateProductCost(context.Background(), 1, 1,
		storage.CalculationParameters{"width": 2000.0, "height": 1000.0, "material_type": "steel"}, nil, nil)
	assert.ErrorIs(t, err, costing.ErrInvalidInput)

	// 3. Корректные параметры: формула даёт 2000*1000/10000 = 200 эффективных единиц
	got, err := svc.CalculateProductCost(context.Background(), 1, 1,
		storage.CalculationParameters{"width": 2000.0, "height": 1000.0, "material_type": "ldsp"}, nil, nil)
	require.NoError(t, err)
	// 200 эфф. единиц * 2 м2 * 85 = 34000
	assert.Equal(t, 34000.0, got.TotalMaterialCost)
}

func TestCalculateComponentCosts(t *testing.T) {
	product := simpleProduct()
	product.MaterialUsages = nil
	product.WorkTypeUsages = nil
	product.Components = []storage.Component{
		{
			ID:       1,
			Name:     "Корпус",
			Quantity: 1,
			MaterialUsages: []storage.MaterialUsage{
				{
					UnitType: "fixed",
					Quantity: 2,
					Material: &storage.MaterialItem{ID: 1, Name: "ЛДСП", Unit: "м2", Price: 85, IsActive: true},
				},
			},
		},
		{
			ID:               2,
			Name:             "Подсветка",
			Quantity:         1,
			IncludeCondition: "with_lighting == 1",
			MaterialUsages: []storage.MaterialUsage{
				{
					UnitType: "fixed",
					Quantity: 1,
					Material: &storage.MaterialItem{ID: 2, Name: "Лента LED", Unit: "м", Price: 300, IsActive: true},
				},
			},
		},
	}

	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(product, nil)
	stubLookups(st)

	svc := NewCalcService(st)

	// 1. Подсветка выключена — в итог входит только корпус
	got, err := svc.CalculateComponentCosts(context.Background(), 1, 1,
		storage.CalculationParameters{"with_lighting": 0.0})
	require.NoError(t, err)

	require.Len(t, got.Components, 2)
	assert.True(t, got.Components[0].Included)
	assert.False(t, got.Components[1].Included)
	assert.Equal(t, 170.0, got.TotalMaterialCost)

	// 2. Подсветка включена
	got, err = svc.CalculateComponentCosts(context.Background(), 1, 1,
		storage.CalculationParameters{"with_lighting": 1.0})
	require.NoError(t, err)

	assert.True(t, got.Components[1].Included)
	assert.Equal(t, 470.0, got.TotalMaterialCost)
}

func TestCalculateByDimensions(t *testing.T) {
	product := simpleProduct()
	product.MaterialUsages = []storage.MaterialUsage{
		{
			UnitType:     "per_area",
			BaseQuantity: 1,
			Material:     &storage.MaterialItem{ID: 1, Name: "ЛДСП", Unit: "м2", Price: 120, IsActive: true},
		},
	}
	product.WorkTypeUsages = nil

	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(product, nil)
	stubLookups(st)

	svc := NewCalcService(st)

	// 200см x 100см = 2 м2 -> 2 * 120 = 240
	got, err := svc.CalculateByDimensions(context.Background(), 1,
		storage.Dimensions{Length: 200, Width: 100, Unit: "cm"}, 1, nil)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, got.Area, 1e-9)
	assert.Equal(t, 240.0, got.Breakdown.TotalMaterialCost)

	// Отрицательные размеры отклоняются
	_, err = svc.CalculateByDimensions(context.Background(), 1,
		storage.Dimensions{Length: -1, Width: 100}, 1, nil)
	assert.ErrorIs(t, err, costing.ErrInvalidInput)
}

func TestPriceOrderItem(t *testing.T) {
	st := &MockCalcStorage{}
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(simpleProduct(), nil)
	stubLookups(st)

	svc := NewCalcService(st)

	// 1. Автоматическая цена
	item, err := svc.PriceOrderItem(context.Background(), 1, 2, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Шкаф офисный", item.Name)
	assert.Equal(t, "шт", item.Unit)
	assert.Equal(t, 2.0, item.Quantity)
	assert.Equal(t, 970.0, item.UnitCost) // 1940 / 2
	assert.Equal(t, 20.0, item.VATRate)

	// 2. Ручная цена главнее расчётной
	item, err = svc.PriceOrderItem(context.Background(), 1, 1, nil, ptr(1200.0))
	require.NoError(t, err)

	assert.Equal(t, 1200.0, item.SellingPrice)
	assert.Equal(t, 240.0, item.VATAmount)
	assert.Equal(t, 1440.0, item.PriceWithVAT)
}

func TestRecalculateCategoryProducts(t *testing.T) {
	st := &MockCalcStorage{}
	st.On("GetProductIDsByFundCategory", mock.Anything, int64(7)).Return([]int64{1}, nil)
	st.On("GetProductWithUsages", mock.Anything, int64(1)).Return(simpleProduct(), nil)
	st.On("UpdateProductCosts", mock.Anything, mock.MatchedBy(func(u storage.ProductCostUpdate) bool {
		return u.ProductID == 1 && u.TotalCost == 970.0
	})).Return(nil)
	stubLookups(st)

	svc := NewCalcService(st)

	updates, err := svc.RecalculateCategoryProducts(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, updates, 1)
	assert.Equal(t, 970.0, updates[0].TotalCost)

	st.AssertExpectations(t)
}
