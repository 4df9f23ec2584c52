package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"erp-golang/internal/calc/units"
	"erp-golang/internal/storage"
)

type Units interface {
	GetMeasurementUnits(ctx context.Context) ([]storage.MeasurementUnit, error)
}

// GetMeasurementUnits отдаёт справочник единиц. Пока таблица пуста,
// фронт получает встроенный набор.
func GetMeasurementUnits(log *slog.Logger, unitsStore Units) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.units.get.GetMeasurementUnits"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := unitsStore.GetMeasurementUnits(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении единиц измерения")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		if len(list) == 0 {
			list = units.DefaultUnits()
		}

		render.JSON(w, r, list)
	}
}
