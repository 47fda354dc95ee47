package server

import (
	"context"
	"log/slog"
	"net/http"

	"expense-ledger/internal/config"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/middleware"
	"expense-ledger/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = "64K"

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	Config         *config.Config
	Database       handlers.DatabasePinger
	ExpenseService services.ExpenseServiceInterface
	Generator      services.ExpenseGeneratorInterface
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

// New builds the Echo instance serving the ledger API. Background work
// owned by the router stops when ctx is done.
func New(ctx context.Context, deps Dependencies) *echo.Echo {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug
	// X-Forwarded-For is honoured only when it arrives through a private-network proxy
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			handlers.IdempotencyKeyHeader,
			middleware.TraceIDHeader,
		},
		ExposeHeaders: []string{handlers.IdempotencyReplayHeader, middleware.TraceIDHeader},
	}))
	e.Use(echomw.BodyLimit(maxRequestBody))

	health := handlers.NewHealthCheckHandler(deps.Database)
	e.GET("/", health.Root)
	e.GET("/health", health.HealthCheck)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api", middleware.RateLimiterWithConfig(ctx,
		cfg.Security.RateLimitPerSecond,
		cfg.Security.RateLimitBurst,
	))

	expenses := handlers.NewExpenseHandler(deps.ExpenseService)
	route(api, http.MethodPost, "/expenses", expenses.CreateExpense)
	route(api, http.MethodGet, "/expenses", expenses.ListExpenses)
	route(api, http.MethodGet, "/expenses/total", expenses.GetTotal)
	route(api, http.MethodGet, "/expenses/summary", expenses.GetCategorySummary)
	route(api, http.MethodGet, "/expenses/categories", expenses.ListCategories)
	route(api, http.MethodGet, "/expenses/:id", expenses.GetExpense)

	if cfg.Admin.Enabled {
		admin := handlers.NewAdminHandler(deps.ExpenseService)
		route(api, http.MethodDelete, "/admin/expenses", admin.ResetLedger)
		route(api, http.MethodDelete, "/admin/expenses/:id", admin.DeleteExpense)
		logger.Warn("Administrative ledger routes enabled")
	}

	if cfg.IsDevelopment() && deps.Generator != nil {
		dev := handlers.NewDevHandler(deps.ExpenseService, deps.Generator)
		route(api, http.MethodPost, "/dev/expenses/generate", dev.GenerateTestData)
	}

	return e
}

// route registers path with and without a trailing slash
func route(g *echo.Group, method, path string, h echo.HandlerFunc) {
	g.Add(method, path, h)
	g.Add(method, path+"/", h)
}
