package get

import (
	"context"
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

type Products interface {
	GetProducts(ctx context.Context, category string) ([]storage.Product, error)
	GetProductWithUsages(ctx context.Context, id int64) (*storage.Product, error)
}

func GetProducts(log *slog.Logger, products Products) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.get.GetProducts"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := products.GetProducts(ctx, r.URL.Query().Get("category"))
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении изделий")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, list)
	}
}

// GetProduct отдаёт изделие со всей номенклатурой: параметры, расход,
// фонды, компоненты.
func GetProduct(log *slog.Logger, products Products) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.get.GetProduct"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Некорректный id изделия", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		product, err := products.GetProductWithUsages(ctx, id)
		if err != nil {
			if errors.Is(err, mysql.ErrProductNotFound) {
				http.Error(w, "Изделие не найдено", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.Int64("id", id), slog.String("error", err.Error())).Error("Ошибка при получении изделия")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, product)
	}
}
