package calculation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"erp-golang/internal/storage"
)

type DimensionsRequest struct {
	ProductID   int64                         `json:"product_id" validate:"required,gt=0"`
	Quantity    float64                       `json:"quantity" validate:"required,gt=0"`
	Dimensions  storage.Dimensions            `json:"dimensions"`
	CustomSpecs storage.CalculationParameters `json:"custom_specs"`
}

func CalculateByDimensions(log *slog.Logger, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.CalculateByDimensions"

		var req DimensionsRequest
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

		result, err := calc.CalculateByDimensions(ctx, req.ProductID, req.Dimensions, req.Quantity, req.CustomSpecs)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("product_id", req.ProductID), slog.String("error", err.Error())).
				Error("Ошибка расчёта по габаритам")
			http.Error(w, errMessage(err), errStatus(err))
			return
		}

		render.JSON(w, r, result)
	}
}
