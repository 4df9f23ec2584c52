package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"erp-golang/internal/constants"
	"erp-golang/internal/storage"
)

type ProductSaver interface {
	SaveProduct(ctx context.Context, p storage.Product) (int64, error)
}

type Resp struct {
	ID int64 `json:"id"`
}

func SaveProduct(log *slog.Logger, saver ProductSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.save.SaveProduct"

		var product storage.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if product.Name == "" {
			http.Error(w, "Не указано название изделия", http.StatusBadRequest)
			return
		}
		for _, u := range product.MaterialUsages {
			if !constants.KnownUnitTypes[u.UnitType] {
				http.Error(w, "Неизвестный тип расхода: "+u.UnitType, http.StatusBadRequest)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		id, err := saver.SaveProduct(ctx, product)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при сохранении изделия")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Resp{ID: id})
	}
}
