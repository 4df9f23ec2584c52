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

type OrderItemRequest struct {
	ProductID          int64                         `json:"product_id" validate:"required,gt=0"`
	Quantity           float64                       `json:"quantity" validate:"required,gt=0"`
	Parameters         storage.CalculationParameters `json:"parameters"`
	ManualSellingPrice *float64                      `json:"manual_selling_price" validate:"omitempty,gte=0"`
}

// PriceOrderItem — калькулятор позиции заказа: фронт получает готовый
// снимок позиции, который потом уходит в сохранение заказа как есть.
func PriceOrderItem(log *slog.Logger, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.PriceOrderItem"

		var req OrderItemRequest
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

		item, err := calc.PriceOrderItem(ctx, req.ProductID, req.Quantity, req.Parameters, req.ManualSellingPrice)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("product_id", req.ProductID), slog.String("error", err.Error())).
				Error("Ошибка расчёта позиции заказа")
			http.Error(w, errMessage(err), errStatus(err))
			return
		}

		render.JSON(w, r, item)
	}
}
