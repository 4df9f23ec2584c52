package calculation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-golang/internal/calc/costing"
	"erp-golang/internal/storage"
)

type MockCalculator struct {
	mock.Mock
}

func (m *MockCalculator) CalculateProductCost(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, overheadRatePercent, targetMarginPercent *float64) (*storage.CostBreakdown, error) {
	args := m.Called(ctx, productID, quantity, params, overheadRatePercent, targetMarginPercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.CostBreakdown), args.Error(1)
}

func (m *MockCalculator) CalculateComponentCosts(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters) (*storage.ProductCalculationResult, error) {
	args := m.Called(ctx, productID, quantity, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ProductCalculationResult), args.Error(1)
}

func (m *MockCalculator) CalculateByDimensions(ctx context.Context, productID int64, dims storage.Dimensions, quantity float64, customSpecs storage.CalculationParameters) (*storage.DimensionCalculationResult, error) {
	args := m.Called(ctx, productID, dims, quantity, customSpecs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.DimensionCalculationResult), args.Error(1)
}

func (m *MockCalculator) PriceOrderItem(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, manualSellingPrice *float64) (*storage.OrderItem, error) {
	args := m.Called(ctx, productID, quantity, params, manualSellingPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.OrderItem), args.Error(1)
}

func (m *MockCalculator) RecalculateCategoryProducts(ctx context.Context, categoryID int64) ([]storage.ProductCostUpdate, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ProductCostUpdate), args.Error(1)
}

func TestCalculateProductCost_Success(t *testing.T) {
	// 1. Настраиваем мок движка на готовую разбивку
	mockCalc := new(MockCalculator)

	breakdown := &storage.CostBreakdown{
		ProductID:         42,
		Quantity:          2,
		TotalMaterialCost: 170,
		TotalLaborCost:    800,
		TotalCost:         970,
		SellingPrice:      1212.5,
		Warnings:          []string{},
	}

	mockCalc.On("CalculateProductCost",
		mock.Anything,
		int64(42),
		2.0,
		mock.Anything,
		(*float64)(nil),
		(*float64)(nil),
	).Return(breakdown, nil)

	// 2. Собираем хендлер
	handler := CalculateProductCost(slog.Default(), mockCalc)

	// 3. Запрос с валидным JSON
	reqBody := `{
		"product_id": 42,
		"quantity": 2,
		"parameters": {"width": 2000}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculation/product", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	// 4. Проверяем статус и тело
	require.Equal(t, http.StatusOK, rr.Code)

	var got storage.CostBreakdown
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 970.0, got.TotalCost)
	assert.Equal(t, 1212.5, got.SellingPrice)
	assert.NotNil(t, got.Warnings)

	mockCalc.AssertExpectations(t)
}

func TestCalculateProductCost_BadJSON(t *testing.T) {
	handler := CalculateProductCost(slog.Default(), new(MockCalculator))

	req := httptest.NewRequest(http.MethodPost, "/api/calculation/product", strings.NewReader(`{broken`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalculateProductCost_ValidationFailed(t *testing.T) {
	handler := CalculateProductCost(slog.Default(), new(MockCalculator))

	// Нулевое количество отсекается до вызова движка
	req := httptest.NewRequest(http.MethodPost, "/api/calculation/product",
		strings.NewReader(`{"product_id": 42, "quantity": 0}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalculateProductCost_EngineError(t *testing.T) {
	mockCalc := new(MockCalculator)
	mockCalc.On("CalculateProductCost", mock.Anything, int64(42), 1.0, mock.Anything, (*float64)(nil), (*float64)(nil)).
		Return(nil, fmt.Errorf("calculate: %w: количество должно быть больше нуля", costing.ErrInvalidInput))

	handler := CalculateProductCost(slog.Default(), mockCalc)

	req := httptest.NewRequest(http.MethodPost, "/api/calculation/product",
		strings.NewReader(`{"product_id": 42, "quantity": 1}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecalculateCategory_Success(t *testing.T) {
	mockCalc := new(MockCalculator)
	updates := []storage.ProductCostUpdate{
		{ProductID: 1, TotalCost: 970},
		{ProductID: 2, TotalCost: 1250},
	}
	mockCalc.On("RecalculateCategoryProducts", mock.Anything, int64(7)).Return(updates, nil)

	handler := RecalculateCategory(slog.Default(), mockCalc)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/recalculate",
		strings.NewReader(`{"fund_category_id": 7}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp RecalculateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Updated)

	mockCalc.AssertExpectations(t)
}
