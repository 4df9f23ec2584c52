package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"erp-golang/internal/storage"
	"erp-golang/internal/storage/mysql"
)

type ProductUpdater interface {
	UpdateProduct(ctx context.Context, p storage.Product) error
}

func UpdateProduct(log *slog.Logger, updater ProductUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.update.UpdateProduct"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Некорректный id изделия", http.StatusBadRequest)
			return
		}

		var product storage.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		product.ID = id

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := updater.UpdateProduct(ctx, product); err != nil {
			if errors.Is(err, mysql.ErrProductNotFound) {
				http.Error(w, "Изделие не найдено", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.Int64("id", id), slog.String("error", err.Error())).Error("Ошибка при обновлении изделия")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
