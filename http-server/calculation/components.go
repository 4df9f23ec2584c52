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

type ComponentsRequest struct {
	ProductID  int64                         `json:"product_id" validate:"required,gt=0"`
	Quantity   float64                       `json:"quantity" validate:"required,gt=0"`
	Parameters storage.CalculationParameters `json:"parameters"`
}

func CalculateComponentCosts(log *slog.Logger, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.CalculateComponentCosts"

		var req ComponentsRequest
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

		result, err := calc.CalculateComponentCosts(ctx, req.ProductID, req.Quantity, req.Parameters)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("product_id", req.ProductID), slog.String("error", err.Error())).
				Error("Ошибка расчёта по компонентам")
			http.Error(w, errMessage(err), errStatus(err))
			return
		}

		render.JSON(w, r, result)
	}
}
