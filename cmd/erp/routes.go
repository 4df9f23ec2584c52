package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	getsettings "erp-golang/http-server/admin/get"
	upsettings "erp-golang/http-server/admin/update"
	calchandlers "erp-golang/http-server/calculation"
	getfunds "erp-golang/http-server/funds/get"
	savefunds "erp-golang/http-server/funds/save"
	generate_excel "erp-golang/http-server/generate-report/generate-excel"
	getmaterials "erp-golang/http-server/materials/get"
	savematerials "erp-golang/http-server/materials/save"
	getorders "erp-golang/http-server/orders/get"
	saveorders "erp-golang/http-server/orders/save"
	uporders "erp-golang/http-server/orders/update"
	getproducts "erp-golang/http-server/products/get"
	saveproducts "erp-golang/http-server/products/save"
	upproducts "erp-golang/http-server/products/update"
	getunits "erp-golang/http-server/units/get"
	getworktypes "erp-golang/http-server/worktypes/get"
	saveworktypes "erp-golang/http-server/worktypes/save"
	"erp-golang/internal/config"
	"erp-golang/internal/middleware/auth"
	"erp-golang/internal/middleware/metrics"
	"erp-golang/internal/service/calculation"
	generate_excel2 "erp-golang/internal/service/generate-excel"
	"erp-golang/internal/storage/mysql"
)

func routes(cfg *config.Config, log *slog.Logger, storage *mysql.Storage, calcService *calculation.CalcService, genService *generate_excel2.GenerateExcelService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.Handler())

	// Справочники
	router.Get("/api/materials", getmaterials.GetMaterials(log, storage))
	router.Post("/api/materials", savematerials.SaveMaterial(log, storage))
	router.Get("/api/worktypes", getworktypes.GetWorkTypes(log, storage))
	router.Post("/api/worktypes", saveworktypes.SaveWorkType(log, storage))
	router.Get("/api/units", getunits.GetMeasurementUnits(log, storage))
	router.Get("/api/funds/categories", getfunds.GetFundCategories(log, storage))
	router.Get("/api/funds/categories/{categoryID}", getfunds.GetFunds(log, storage))
	router.Post("/api/funds/categories", savefunds.SaveFundCategory(log, storage))

	// Каталог изделий
	router.Get("/api/products", getproducts.GetProducts(log, storage))
	router.Get("/api/products/{id}", getproducts.GetProduct(log, storage))
	router.Post("/api/products", saveproducts.SaveProduct(log, storage))
	router.Put("/api/products/{id}", upproducts.UpdateProduct(log, storage))

	// Расчёт себестоимости
	router.Post("/api/calculation/product", calchandlers.CalculateProductCost(log, calcService))
	router.Post("/api/calculation/components", calchandlers.CalculateComponentCosts(log, calcService))
	router.Post("/api/calculation/dimensions", calchandlers.CalculateByDimensions(log, calcService))
	router.Post("/api/calculation/order-item", calchandlers.PriceOrderItem(log, calcService))

	// Заказы
	router.Get("/api/orders", getorders.GetOrders(log, storage))
	router.Get("/api/orders/{id}", getorders.GetOrderDetails(log, storage))
	router.Post("/api/orders", saveorders.SaveOrder(log, &orderDeps{storage, calcService}))
	router.Put("/api/orders/{id}/status", uporders.UpdateOrderStatus(log, storage))

	// Отчёты
	router.Get("/api/report/excel", generate_excel.GenerateCostReportExcel(log, genService))

	// Админка: настройки расчёта и плановые суммы фондов
	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.Admin.Login, cfg.Admin.Password))

	adminRouter.Get("/settings", getsettings.GetCalcSettings(log, storage))
	adminRouter.Put("/settings", upsettings.UpdateCalcSettings(log, storage))
	adminRouter.Put("/funds/planned", upsettings.UpdatePlannedAmount(log, storage, calcService))
	adminRouter.Post("/recalculate", calchandlers.RecalculateCategory(log, calcService))

	router.Mount("/api/admin", adminRouter)

	// Статика фронтенда, SPA fallback
	frontendDir := "./frontend-dist"
	if _, err := os.Stat(frontendDir); os.IsNotExist(err) {
		log.Warn("Папка фронтенда не найдена, статика отключена", "path", frontendDir)
		return router
	}

	fileServer := http.StripPrefix("/", http.FileServer(http.Dir(frontendDir)))
	router.Handle("/assets/*", fileServer)
	router.Handle("/js/*", fileServer)
	router.Handle("/css/*", fileServer)
	router.Handle("/img/*", fileServer)

	router.With(auth.BasicAuth(cfg.Admin.Login, cfg.Admin.Password)).Handle("/admin/*",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
		}),
	)

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, r.URL.Path)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})

	return router
}

// orderDeps собирает зависимости сохранения заказа: расчёт позиций идёт
// через сервис, запись — через хранилище.
type orderDeps struct {
	*mysql.Storage
	*calculation.CalcService
}
