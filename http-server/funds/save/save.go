package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"erp-golang/internal/storage"
)

type FundSaver interface {
	SaveFundCategory(ctx context.Context, category storage.FundCategory) (int64, error)
}

type Resp struct {
	ID int64 `json:"id"`
}

func SaveFundCategory(log *slog.Logger, saver FundSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.funds.save.SaveFundCategory"

		var category storage.FundCategory
		if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if category.Name == "" {
			http.Error(w, "Не указано название категории", http.StatusBadRequest)
			return
		}
		if category.PlannedAmount < 0 {
			http.Error(w, "Плановая сумма не может быть отрицательной", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, err := saver.SaveFundCategory(ctx, category)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при сохранении категории фондов")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Resp{ID: id})
	}
}
