package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"erp-golang/internal/calc/bom"
	"erp-golang/internal/calc/costing"
	"erp-golang/internal/calc/formula"
	"erp-golang/internal/calc/units"
	"erp-golang/internal/storage"
	"erp-golang/internal/storage/mysql"
)

// Calculator — движок расчёта, за которым стоит service/calculation.
type Calculator interface {
	CalculateProductCost(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, overheadRatePercent, targetMarginPercent *float64) (*storage.CostBreakdown, error)
	CalculateComponentCosts(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters) (*storage.ProductCalculationResult, error)
	CalculateByDimensions(ctx context.Context, productID int64, dims storage.Dimensions, quantity float64, customSpecs storage.CalculationParameters) (*storage.DimensionCalculationResult, error)
	PriceOrderItem(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, manualSellingPrice *float64) (*storage.OrderItem, error)
	RecalculateCategoryProducts(ctx context.Context, categoryID int64) ([]storage.ProductCostUpdate, error)
}

var validate = validator.New()

type CalculateRequest struct {
	ProductID           int64                         `json:"product_id" validate:"required,gt=0"`
	Quantity            float64                       `json:"quantity" validate:"required,gt=0"`
	Parameters          storage.CalculationParameters `json:"parameters"`
	OverheadRatePercent *float64                      `json:"overhead_rate_percent" validate:"omitempty,gte=0"`
	TargetMarginPercent *float64                      `json:"target_margin_percent" validate:"omitempty,gte=0"`
}

func CalculateProductCost(log *slog.Logger, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.CalculateProductCost"

		var req CalculateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Некорректный запрос: "+err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		breakdown, err := calc.CalculateProductCost(ctx, req.ProductID, req.Quantity, req.Parameters, req.OverheadRatePercent, req.TargetMarginPercent)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("product_id", req.ProductID), slog.String("error", err.Error())).
				Error("Ошибка расчёта себестоимости")
			http.Error(w, errMessage(err), errStatus(err))
			return
		}

		render.JSON(w, r, breakdown)
	}
}

// errStatus сводит ошибки движка к HTTP-статусам: ошибки данных изделия
// и запроса — клиентские, всё остальное — 500.
func errStatus(err error) int {
	switch {
	case errors.Is(err, mysql.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, costing.ErrInvalidInput),
		errors.Is(err, bom.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, units.ErrUnitNotFound),
		errors.Is(err, units.ErrIncompatibleUnits),
		errors.Is(err, bom.ErrMaterialResolution),
		errors.Is(err, formula.ErrFormulaEvaluation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errMessage(err error) string {
	if errStatus(err) == http.StatusInternalServerError {
		return "Внутренняя ошибка сервера"
	}
	return err.Error()
}
