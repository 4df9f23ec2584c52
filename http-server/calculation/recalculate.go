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

type RecalculateRequest struct {
	FundCategoryID int64 `json:"fund_category_id" validate:"required,gt=0"`
}

type RecalculateResponse struct {
	Updated  int                         `json:"updated"`
	Products []storage.ProductCostUpdate `json:"products"`
}

// RecalculateCategory — пакетный пересчёт кэшированной себестоимости
// изделий категории. Долгая операция, таймаут шире обычного.
func RecalculateCategory(log *slog.Logger, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculation.RecalculateCategory"

		var req RecalculateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Некорректный запрос: "+err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		updates, err := calc.RecalculateCategoryProducts(ctx, req.FundCategoryID)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("fund_category_id", req.FundCategoryID), slog.String("error", err.Error())).
				Error("Ошибка пакетного пересчёта")
			http.Error(w, errMessage(err), errStatus(err))
			return
		}

		log.With(slog.String("op", op), slog.Int("updated", len(updates))).Info("Пересчёт категории завершён")

		render.JSON(w, r, RecalculateResponse{Updated: len(updates), Products: updates})
	}
}
