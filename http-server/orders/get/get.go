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

type Orders interface {
	GetOrders(ctx context.Context, status string) ([]storage.Order, error)
	GetOrderDetails(ctx context.Context, id int64) (*storage.Order, error)
}

func GetOrders(log *slog.Logger, orders Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.get.GetOrders"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := orders.GetOrders(ctx, r.URL.Query().Get("status"))
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении заказов")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, list)
	}
}

func GetOrderDetails(log *slog.Logger, orders Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.get.GetOrderDetails"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Некорректный id заказа", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := orders.GetOrderDetails(ctx, id)
		if err != nil {
			if errors.Is(err, mysql.ErrOrderNotFound) {
				http.Error(w, "Заказ не найден", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.Int64("id", id), slog.String("error", err.Error())).Error("Ошибка при получении заказа")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, order)
	}
}
