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

type OrderSaver interface {
	SaveOrderWithItems(ctx context.Context, order storage.Order) (int64, error)
	PriceOrderItem(ctx context.Context, productID int64, quantity float64, params storage.CalculationParameters, manualSellingPrice *float64) (*storage.OrderItem, error)
}

type ItemRequest struct {
	ProductID          int64                         `json:"product_id"`
	Quantity           float64                       `json:"quantity"`
	Parameters         storage.CalculationParameters `json:"parameters"`
	ManualSellingPrice *float64                      `json:"manual_selling_price"`
}

type Request struct {
	OrderNum string        `json:"order_num"`
	Customer string        `json:"customer"`
	Comment  *string       `json:"comment"`
	Items    []ItemRequest `json:"items"`
}

type Resp struct {
	ID    int64               `json:"id"`
	Items []storage.OrderItem `json:"items"`
}

// SaveOrder рассчитывает каждую позицию и сохраняет заказ со снимками
// цен. Фронт присылает только состав, цены считает сервер.
func SaveOrder(log *slog.Logger, saver OrderSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.save.SaveOrder"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if req.OrderNum == "" || len(req.Items) == 0 {
			http.Error(w, "Не указан номер заказа или позиции", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		order := storage.Order{
			OrderNum: req.OrderNum,
			Customer: req.Customer,
			Status:   constants.OrderStatusNew,
			Comment:  req.Comment,
		}

		for i, item := range req.Items {
			priced, err := saver.PriceOrderItem(ctx, item.ProductID, item.Quantity, item.Parameters, item.ManualSellingPrice)
			if err != nil {
				log.With(slog.String("op", op), slog.Int("position", i+1), slog.String("error", err.Error())).
					Error("Ошибка расчёта позиции заказа")
				http.Error(w, "Не удалось рассчитать позицию заказа", http.StatusUnprocessableEntity)
				return
			}
			order.Items = append(order.Items, *priced)
		}

		id, err := saver.SaveOrderWithItems(ctx, order)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при сохранении заказа")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Resp{ID: id, Items: order.Items})
	}
}
