package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"erp-golang/internal/storage"
)

type Settings interface {
	UpdateCalcSettings(ctx context.Context, cfg storage.CalcSettings) error
	UpdateFundCategoryPlanned(ctx context.Context, categoryID int64, plannedAmount float64) error
}

type Recalculator interface {
	RecalculateCategoryProducts(ctx context.Context, categoryID int64) ([]storage.ProductCostUpdate, error)
}

func UpdateCalcSettings(log *slog.Logger, settings Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.update.UpdateCalcSettings"

		var cfg storage.CalcSettings
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if cfg.VATRatePercent < 0 || cfg.DefaultMarginPercent < 0 {
			http.Error(w, "Ставки не могут быть отрицательными", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := settings.UpdateCalcSettings(ctx, cfg); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при сохранении настроек расчёта")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}

type PlannedAmountRequest struct {
	FundCategoryID int64   `json:"fund_category_id"`
	PlannedAmount  float64 `json:"planned_amount"`
}

type PlannedAmountResponse struct {
	Recalculated int `json:"recalculated"`
}

// UpdatePlannedAmount меняет плановую сумму категории и сразу
// пересчитывает изделия с процентными фондами этой категории, чтобы
// кэшированная себестоимость не разъехалась с планом.
func UpdatePlannedAmount(log *slog.Logger, settings Settings, recalc Recalculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.update.UpdatePlannedAmount"

		var req PlannedAmountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if req.FundCategoryID <= 0 {
			http.Error(w, "Некорректный id категории", http.StatusBadRequest)
			return
		}
		if req.PlannedAmount < 0 {
			http.Error(w, "Плановая сумма не может быть отрицательной", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		if err := settings.UpdateFundCategoryPlanned(ctx, req.FundCategoryID, req.PlannedAmount); err != nil {
			log.With(slog.String("op", op), slog.Int64("category_id", req.FundCategoryID), slog.String("error", err.Error())).
				Error("Ошибка при обновлении плановой суммы")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		updates, err := recalc.RecalculateCategoryProducts(ctx, req.FundCategoryID)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("category_id", req.FundCategoryID), slog.String("error", err.Error())).
				Error("Плановая сумма сохранена, но пересчёт не прошёл")
			http.Error(w, "Плановая сумма сохранена, но пересчёт изделий не прошёл", http.StatusInternalServerError)
			return
		}

		log.With(slog.String("op", op), slog.Int64("category_id", req.FundCategoryID), slog.Int("recalculated", len(updates))).
			Info("Плановая сумма обновлена")

		render.JSON(w, r, PlannedAmountResponse{Recalculated: len(updates)})
	}
}
