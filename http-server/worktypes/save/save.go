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

type WorkTypeSaver interface {
	SaveWorkType(ctx context.Context, wt storage.WorkType) (int64, error)
	UpdateWorkType(ctx context.Context, wt storage.WorkType) error
}

type Resp struct {
	ID int64 `json:"id"`
}

func SaveWorkType(log *slog.Logger, saver WorkTypeSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.worktypes.save.SaveWorkType"

		var wt storage.WorkType
		if err := json.NewDecoder(r.Body).Decode(&wt); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if wt.Name == "" {
			http.Error(w, "Не указано название вида работ", http.StatusBadRequest)
			return
		}
		if wt.HourlyRate < 0 {
			http.Error(w, "Ставка не может быть отрицательной", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if wt.ID > 0 {
			if err := saver.UpdateWorkType(ctx, wt); err != nil {
				log.With(slog.String("op", op), slog.Int64("id", wt.ID), slog.String("error", err.Error())).Error("Ошибка при обновлении вида работ")
				http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}
			render.JSON(w, r, Resp{ID: wt.ID})
			return
		}

		id, err := saver.SaveWorkType(ctx, wt)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при сохранении вида работ")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Resp{ID: id})
	}
}
