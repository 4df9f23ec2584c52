// Package costing — единая точка суммирования себестоимости и расчёта цены.
// Все пути расчёта (прямой, по компонентам, по габаритам, калькулятор
// позиции заказа) проходят через Aggregate и Price, чтобы арифметика и
// политика округления нигде не расходились.
package costing

import (
	"errors"
	"fmt"

	"erp-golang/internal/storage"
)

var ErrInvalidInput = errors.New("некорректные входные данные расчёта")

// Aggregate суммирует строки материалов и работ и раскидывает накладные
// фонды. planned — плановые суммы категорий фондов по id категории.
// Промежуточные суммы не округляются: округление только на выходе,
// иначе ошибка копится по строкам.
func Aggregate(materialLines []storage.MaterialLine, laborLines []storage.LaborLine, fundUsages []storage.FundUsage, planned map[int64]float64, quantity float64) (storage.CostBreakdown, error) {
	if quantity <= 0 {
		return storage.CostBreakdown{}, fmt.Errorf("%w: количество должно быть больше нуля", ErrInvalidInput)
	}

	var breakdown storage.CostBreakdown
	breakdown.Quantity = quantity

	for _, line := range materialLines {
		if line.Cost < 0 || line.Quantity < 0 || line.UnitPrice < 0 {
			return storage.CostBreakdown{}, fmt.Errorf("%w: отрицательная строка материала %q", ErrInvalidInput, line.Name)
		}
		breakdown.TotalMaterialCost += line.Cost
	}
	breakdown.MaterialCosts = materialLines

	for _, line := range laborLines {
		if line.Cost < 0 || line.Hours < 0 || line.HourlyRate < 0 {
			return storage.CostBreakdown{}, fmt.Errorf("%w: отрицательная строка работ %q", ErrInvalidInput, line.Name)
		}
		breakdown.TotalLaborCost += line.Cost
	}
	breakdown.LaborCosts = laborLines

	for _, fund := range fundUsages {
		amount, err := fundFinalAmount(fund, planned)
		if err != nil {
			return storage.CostBreakdown{}, err
		}
		// Если сумма фонда указана за единицу — масштабируем на количество,
		// иначе считаем её уже итоговой.
		if fund.PerUnit {
			amount *= quantity
		}
		breakdown.OverheadCosts = append(breakdown.OverheadCosts, storage.FundLine{
			FundID:         fund.FundID,
			FundCategoryID: fund.FundCategoryID,
			Name:           fund.Name,
			FinalAmount:    amount,
		})
		breakdown.OverheadCost += amount
	}

	breakdown.TotalCost = breakdown.TotalMaterialCost + breakdown.TotalLaborCost + breakdown.OverheadCost

	return breakdown, nil
}

// fundFinalAmount: процент от плановой суммы категории имеет приоритет
// над абсолютной суммой, если заданы оба.
func fundFinalAmount(fund storage.FundUsage, planned map[int64]float64) (float64, error) {
	if fund.Percentage != nil {
		plannedAmount, ok := planned[fund.FundCategoryID]
		if !ok {
			return 0, fmt.Errorf("%w: нет плановой суммы категории фондов id=%d для фонда %q",
				ErrInvalidInput, fund.FundCategoryID, fund.Name)
		}
		if *fund.Percentage < 0 || plannedAmount < 0 {
			return 0, fmt.Errorf("%w: отрицательное распределение фонда %q", ErrInvalidInput, fund.Name)
		}
		return plannedAmount * *fund.Percentage / 100, nil
	}

	if fund.AllocatedAmount < 0 {
		return 0, fmt.Errorf("%w: отрицательная сумма фонда %q", ErrInvalidInput, fund.Name)
	}
	return fund.AllocatedAmount, nil
}
