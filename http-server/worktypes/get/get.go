package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"erp-golang/internal/storage"
)

type WorkTypes interface {
	GetWorkTypes(ctx context.Context, department string) ([]storage.WorkType, error)
}

func GetWorkTypes(log *slog.Logger, workTypes WorkTypes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.worktypes.get.GetWorkTypes"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := workTypes.GetWorkTypes(ctx, r.URL.Query().Get("department"))
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении видов работ")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, list)
	}
}
