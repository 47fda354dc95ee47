package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"expense-ledger/internal/config"
	"expense-ledger/internal/database"
	"expense-ledger/internal/dto"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"
	"expense-ledger/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

type ServerSuite struct {
	suite.Suite
	cfg      *config.Config
	registry *prometheus.Registry
	e        *echo.Echo
	cancel   context.CancelFunc
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Environment:      "testing",
			CORSAllowOrigins: []string{"http://localhost:3000"},
		},
		Ledger:   config.LedgerConfig{Currency: "₹", PageSize: 100},
		Security: config.SecurityConfig{RateLimitPerSecond: 1000, RateLimitBurst: 1000},
		Admin:    config.AdminConfig{Enabled: true},
	}
}

func (s *ServerSuite) SetupTest() {
	s.cfg = testConfig()
	s.build()
}

func (s *ServerSuite) TearDownTest() {
	s.cancel()
}

func (s *ServerSuite) build() {
	if s.cancel != nil {
		s.cancel()
	}

	db := database.SetupTestDB(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.registry = prometheus.NewRegistry()

	service := services.NewExpenseService(
		repositories.NewExpenseRepository(db.DB),
		services.NewPrometheusMetrics(s.registry),
		nil,
		s.cfg.Ledger,
		logger,
	)

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.e = New(ctx, Dependencies{
		Config:         s.cfg,
		Database:       db,
		ExpenseService: service,
		Generator:      services.NewExpenseGenerator(),
		Gatherer:       s.registry,
		Logger:         logger,
	})
}

func (s *ServerSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) create(amount, category, description, date string) dto.ExpenseResponse {
	body := `{"amount":"` + amount + `","category":"` + category + `","description":"` + description + `","date":"` + date + `"}`
	rec := s.do(http.MethodPost, "/api/expenses/", body, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var response dto.ExpenseResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func (s *ServerSuite) TestCreateListAndTotal() {
	s.create("150.50", "food", "Lunch", "2024-02-01")
	s.create("50.00", "transport", "Bus", "2024-02-02")

	rec := s.do(http.MethodGet, "/api/expenses/total/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"total":"200.50","currency":"₹","count":2}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/expenses/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	var page dto.ListExpensesResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	s.Equal(int64(2), page.Count)
	s.Nil(page.Next)
	s.Nil(page.Previous)
	s.Require().Len(page.Results, 2)
	s.Equal("Bus", page.Results[0].Description)
	s.Equal("50.00", page.Results[0].Amount)
	s.Equal("Lunch", page.Results[1].Description)

	rec = s.do(http.MethodGet, "/api/expenses?category=food", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	s.Equal(int64(1), page.Count)
	s.Equal("food", page.Results[0].Category)
}

func (s *ServerSuite) TestIdempotentCreate() {
	body := `{"amount":"150.50","category":"food","description":"Lunch","date":"2024-02-01"}`
	headers := map[string]string{"Idempotency-Key": "K"}

	first := s.do(http.MethodPost, "/api/expenses/", body, headers)
	s.Equal(http.StatusCreated, first.Code)
	s.Equal("False", first.Header().Get("X-Idempotency"))

	second := s.do(http.MethodPost, "/api/expenses", body, headers)
	s.Equal(http.StatusOK, second.Code)
	s.Equal("True", second.Header().Get("X-Idempotency"))
	s.JSONEq(first.Body.String(), second.Body.String())

	rec := s.do(http.MethodGet, "/api/expenses/total", "", nil)
	s.Contains(rec.Body.String(), `"count":1`)
}

func (s *ServerSuite) TestRejectsInvalidExpenses() {
	for _, body := range []string{
		`{"amount":"0","category":"food","description":"x","date":"2024-02-01"}`,
		`{"amount":"-10","category":"food","description":"x","date":"2024-02-01"}`,
		`{"amount":"10","category":"food","description":"   ","date":"2024-02-01"}`,
	} {
		rec := s.do(http.MethodPost, "/api/expenses/", body, nil)
		s.Equal(http.StatusBadRequest, rec.Code, body)
		s.Contains(rec.Body.String(), "VALIDATION_001")
	}

	rec := s.do(http.MethodGet, "/api/expenses/total/", "", nil)
	s.Contains(rec.Body.String(), `"count":0`)
	s.Contains(rec.Body.String(), `"total":"0.00"`)
}

func (s *ServerSuite) TestDescriptionLengthCountsTrimmedText() {
	longest := strings.Repeat("a", models.MaxDescriptionLength)
	body := `{"amount":"1.00","category":"food","description":"  ` + longest + `  ","date":"2024-02-01"}`

	rec := s.do(http.MethodPost, "/api/expenses/", body, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.ExpenseResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal(longest, created.Description)

	rec = s.do(http.MethodGet, "/api/expenses/"+strconv.FormatInt(created.ID, 10)+"/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"description":"`+longest+`"`)

	tooLong := `{"amount":"1.00","category":"food","description":"` + longest + `b","date":"2024-02-01"}`
	rec = s.do(http.MethodPost, "/api/expenses/", tooLong, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "must be at most 500 characters long")
}

func (s *ServerSuite) TestRateLimitIgnoresSpoofedForwardedFor() {
	s.cfg.Security = config.SecurityConfig{RateLimitPerSecond: 1, RateLimitBurst: 1}
	s.build()

	for i, forwarded := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses/categories/", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set(echo.HeaderXForwardedFor, forwarded)
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)

		if i == 0 {
			s.Equal(http.StatusOK, rec.Code)
		} else {
			s.Equal(http.StatusTooManyRequests, rec.Code)
			s.Contains(rec.Body.String(), "SYSTEM_006")
		}
	}
}

func (s *ServerSuite) TestCategoriesAndSummary() {
	rec := s.do(http.MethodGet, "/api/expenses/categories/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	var options []models.CategoryOption
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &options))
	s.Len(options, 7)
	s.Equal("food", options[0].Value)

	s.create("800.00", "utilities", "Electricity", "2024-01-05")
	s.create("75.00", "food", "Lunch", "2024-01-06")

	rec = s.do(http.MethodGet, "/api/expenses/summary/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	var summary []dto.CategorySummaryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &summary))
	s.Require().Len(summary, 2)
	s.Equal("utilities", summary[0].Category)
	s.Equal("Utilities", summary[0].Label)
}

func (s *ServerSuite) TestPaginationErrors() {
	rec := s.do(http.MethodGet, "/api/expenses/?page=abc", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "VALIDATION_006")

	rec = s.do(http.MethodGet, "/api/expenses/?page=2", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "Invalid page.")
}

func (s *ServerSuite) TestGetAndAdminRoutes() {
	created := s.create("12.00", "shopping", "Socks", "2024-01-01")
	path := "/api/expenses/" + strconv.FormatInt(created.ID, 10) + "/"

	rec := s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/admin/expenses/"+strconv.FormatInt(created.ID, 10), "", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "EXPENSE_001")

	s.create("1.00", "other", "Stamp", "2024-01-02")
	rec = s.do(http.MethodDelete, "/api/admin/expenses/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"deleted":1}`, rec.Body.String())
}

func (s *ServerSuite) TestAdminRoutesDisabled() {
	s.cfg.Admin.Enabled = false
	s.build()

	rec := s.do(http.MethodDelete, "/api/admin/expenses/", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "ROUTE_001")
}

func (s *ServerSuite) TestDevRoutesOnlyInDevelopment() {
	rec := s.do(http.MethodPost, "/api/dev/expenses/generate?count=5", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	s.cfg.Server.Environment = "development"
	s.build()

	rec = s.do(http.MethodPost, "/api/dev/expenses/generate?count=5", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/expenses/total/", "", nil)
	s.Contains(rec.Body.String(), `"count":5`)
}

func (s *ServerSuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Expense Tracker API is running")
	s.NotEmpty(rec.Header().Get("X-Trace-ID"))

	rec = s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	s.create("5.00", "food", "Tea", "2024-01-01")
	rec = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `expenses_created_total{result="created"} 1`)
}

func (s *ServerSuite) TestCORSPreflight() {
	rec := s.do(http.MethodOptions, "/api/expenses/", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPost,
	})

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}
