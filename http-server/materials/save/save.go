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

type MaterialSaver interface {
	SaveMaterial(ctx context.Context, m storage.MaterialItem) (int64, error)
	UpdateMaterial(ctx context.Context, m storage.MaterialItem) error
}

type Resp struct {
	ID int64 `json:"id"`
}

func SaveMaterial(log *slog.Logger, saver MaterialSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.materials.save.SaveMaterial"

		var m storage.MaterialItem
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if m.Name == "" || m.Unit == "" {
			http.Error(w, "Не указано название или единица материала", http.StatusBadRequest)
			return
		}
		if m.Price < 0 {
			http.Error(w, "Цена материала не может быть отрицательной", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		// id > 0 — правка существующего материала
		if m.ID > 0 {
			if err := saver.UpdateMaterial(ctx, m); err != nil {
				log.With(slog.String("op", op), slog.Int64("id", m.ID), slog.String("error", err.Error())).Error("Ошибка при обновлении материала")
				http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}
			render.JSON(w, r, Resp{ID: m.ID})
			return
		}

		id, err := saver.SaveMaterial(ctx, m)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при сохранении материала")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Resp{ID: id})
	}
}
