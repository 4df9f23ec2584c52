package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"erp-golang/internal/storage"
)

type Funds interface {
	GetFundCategories(ctx context.Context) ([]storage.FundCategory, error)
	GetFunds(ctx context.Context, categoryID int64) ([]storage.Fund, error)
}

func GetFundCategories(log *slog.Logger, funds Funds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.funds.get.GetFundCategories"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		categories, err := funds.GetFundCategories(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении категорий фондов")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, categories)
	}
}

func GetFunds(log *slog.Logger, funds Funds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.funds.get.GetFunds"

		categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			http.Error(w, "Некорректный id категории", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := funds.GetFunds(ctx, categoryID)
		if err != nil {
			log.With(slog.String("op", op), slog.Int64("category_id", categoryID), slog.String("error", err.Error())).Error("Ошибка при получении фондов")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, list)
	}
}
