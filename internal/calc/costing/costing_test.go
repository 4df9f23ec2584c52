package costing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-golang/internal/storage"
)

func fptr(v float64) *float64 { return &v }

func TestAggregate_Additivity(t *testing.T) {
	matLines := []storage.MaterialLine{
		{Name: "ЛДСП", Quantity: 2, UnitPrice: 85, Cost: 170},
		{Name: "Кромка", Quantity: 10, UnitPrice: 7.5, Cost: 75},
	}
	laborLines := []storage.LaborLine{
		{Name: "Сборка", Hours: 1, HourlyRate: 800, Cost: 800},
	}
	funds := []storage.FundUsage{
		{FundID: 1, FundCategoryID: 5, Name: "Амортизация", AllocatedAmount: 55},
	}

	b, err := Aggregate(matLines, laborLines, funds, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, 245.0, b.TotalMaterialCost)
	assert.Equal(t, 800.0, b.TotalLaborCost)
	assert.Equal(t, 55.0, b.OverheadCost)
	// итог — ровно сумма трёх частей
	assert.Equal(t, b.TotalMaterialCost+b.TotalLaborCost+b.OverheadCost, b.TotalCost)
}

func TestAggregate_SimpleProductScenario(t *testing.T) {
	// один материал (2 x 85) + одна работа (1 ч x 800), без фондов
	matLines := []storage.MaterialLine{{Name: "ЛДСП", Quantity: 2, UnitPrice: 85, Cost: 170}}
	laborLines := []storage.LaborLine{{Name: "Сборка", Hours: 1, HourlyRate: 800, Cost: 800}}

	b, err := Aggregate(matLines, laborLines, nil, nil, 1)
	require.NoError(t, err)

	assert.Equal(t, 170.0, b.TotalMaterialCost)
	assert.Equal(t, 800.0, b.TotalLaborCost)
	assert.Equal(t, 970.0, b.TotalCost)
}

func TestAggregate_PercentageFund(t *testing.T) {
	// категория с планом 100000, фонд 15% -> 15000 в накладные
	funds := []storage.FundUsage{
		{FundID: 2, FundCategoryID: 7, Name: "Оборудование", Percentage: fptr(15)},
	}
	planned := map[int64]float64{7: 100000}

	b, err := Aggregate(nil, nil, funds, planned, 1)
	require.NoError(t, err)

	require.Len(t, b.OverheadCosts, 1)
	assert.Equal(t, 15000.0, b.OverheadCosts[0].FinalAmount)
	assert.Equal(t, 15000.0, b.OverheadCost)
	assert.Equal(t, 15000.0, b.TotalCost)
}

func TestAggregate_PercentagePrecedence(t *testing.T) {
	// заданы и процент и сумма — процент главнее
	funds := []storage.FundUsage{
		{FundID: 3, FundCategoryID: 7, Name: "Оборудование", AllocatedAmount: 999, Percentage: fptr(10)},
	}
	planned := map[int64]float64{7: 50000}

	b, err := Aggregate(nil, nil, funds, planned, 1)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, b.OverheadCost)
}

func TestAggregate_PerUnitFund(t *testing.T) {
	funds := []storage.FundUsage{
		{FundID: 4, FundCategoryID: 8, Name: "Упаковка", AllocatedAmount: 30, PerUnit: true},
	}

	b, err := Aggregate(nil, nil, funds, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 150.0, b.OverheadCost)
}

func TestAggregate_MissingPlannedAmount(t *testing.T) {
	funds := []storage.FundUsage{
		{FundID: 5, FundCategoryID: 9, Name: "Ремонт", Percentage: fptr(5)},
	}

	_, err := Aggregate(nil, nil, funds, map[int64]float64{}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAggregate_NegativeInputsRejected(t *testing.T) {
	_, err := Aggregate([]storage.MaterialLine{{Name: "X", Cost: -1}}, nil, nil, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Aggregate(nil, []storage.LaborLine{{Name: "Y", Cost: -1}}, nil, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Aggregate(nil, nil, []storage.FundUsage{{Name: "Z", AllocatedAmount: -10}}, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Aggregate(nil, nil, nil, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPrice_TargetMargin(t *testing.T) {
	// себестоимость 1000, наценка 20% -> цена 1200
	p := Price(1000, PriceOptions{TargetMarginPercent: 20})

	assert.Equal(t, 1200.0, p.SellingPrice)
	assert.Equal(t, 20.0, p.MarginPercent)
}

func TestPrice_ManualSellingPrice(t *testing.T) {
	// ручная цена 1200 на той же себестоимости — наценка обратно 20%
	p := Price(1000, PriceOptions{ManualSellingPrice: fptr(1200)})

	assert.Equal(t, 1200.0, p.SellingPrice)
	assert.Equal(t, 20.0, p.MarginPercent)
}

func TestPrice_ZeroCostGuard(t *testing.T) {
	// нулевая себестоимость с ручной ценой: наценка 0, не NaN и не Inf
	p := Price(0, PriceOptions{ManualSellingPrice: fptr(500)})

	assert.Equal(t, 500.0, p.SellingPrice)
	assert.Equal(t, 0.0, p.MarginPercent)
	assert.False(t, math.IsNaN(p.MarginPercent))
	assert.False(t, math.IsInf(p.MarginPercent, 0))
}

func TestPrice_VAT(t *testing.T) {
	p := Price(1000, PriceOptions{TargetMarginPercent: 20, VATRatePercent: 20})

	assert.Equal(t, 1200.0, p.SellingPrice)
	assert.Equal(t, 240.0, p.VATAmount)
	assert.Equal(t, 1440.0, p.PriceWithVAT)
}

func TestPrice_RoundingAtBoundary(t *testing.T) {
	// округление до копеек только на выходе
	p := Price(333.333333, PriceOptions{TargetMarginPercent: 10, VATRatePercent: 20})

	assert.Equal(t, 333.33, p.TotalCost)
	assert.Equal(t, 366.67, p.SellingPrice)
	assert.Equal(t, 73.33, p.VATAmount)
	assert.Equal(t, 440.0, p.PriceWithVAT)
}
