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

	"erp-golang/internal/constants"
	"erp-golang/internal/storage/mysql"
)

type OrderUpdater interface {
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
}

func UpdateOrderStatus(log *slog.Logger, updater OrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.update.UpdateOrderStatus"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Некорректный id заказа", http.StatusBadRequest)
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if !constants.OrderStatuses[req.Status] {
			http.Error(w, "Неизвестный статус заказа: "+req.Status, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := updater.UpdateOrderStatus(ctx, id, req.Status); err != nil {
			if errors.Is(err, mysql.ErrOrderNotFound) {
				http.Error(w, "Заказ не найден", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.Int64("id", id), slog.String("error", err.Error())).Error("Ошибка при обновлении статуса заказа")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": req.Status})
	}
}
