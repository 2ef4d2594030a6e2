package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrops-br/products-api/internal/app/dto"
	"github.com/mrops-br/products-api/internal/app/service"
	"github.com/mrops-br/products-api/internal/infrastructure/config"
	apphttp "github.com/mrops-br/products-api/internal/infrastructure/http"
	"github.com/mrops-br/products-api/internal/infrastructure/http/docs"
	"github.com/mrops-br/products-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-api/internal/infrastructure/http/response"
	"github.com/mrops-br/products-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "Products Backend API", Version: "1.0.0", LogLevel: slog.LevelInfo},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
		OTLP:   config.OTLPConfig{ServiceName: "products-api", Environment: "test", Version: "1.0.0"},
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	telem, err := telemetry.NewNoOpTelemetry(&cfg.OTLP, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	tracer := telem.TracerProvider.Tracer("test")
	repo := memory.NewProductRepository(tracer, logger)
	svc := service.NewProductService(repo, tracer, telem.MeterProvider.Meter("test"), logger)
	h := handler.NewProductHandler(svc, cfg.App, logger)

	return apphttp.NewServer(cfg, h, telem, logger).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type ServerSuite struct {
	suite.Suite
	handler http.Handler
}

func (s *ServerSuite) SetupTest() {
	s.handler = newTestHandler(s.T(), testConfig())
}

func (s *ServerSuite) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	return do(s.T(), s.handler, method, target, body, headers...)
}

func (s *ServerSuite) create(body string) dto.ProductResponse {
	rec := s.do(http.MethodPost, "/api/v1/products", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.ProductResponse](s.T(), rec)
}

func (s *ServerSuite) TestProductLifecycle() {
	rec := s.do(http.MethodGet, "/api/v1/products", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	created := s.create(`{"name":"Widget","price":9.99,"quantity":10}`)
	s.Equal(dto.ProductResponse{ID: 1, Name: "Widget", Price: 9.99, Quantity: 10}, created)

	rec = s.do(http.MethodGet, "/api/v1/products/1", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(created, decode[dto.ProductResponse](s.T(), rec))

	rec = s.do(http.MethodPatch, "/api/v1/products/1", `{"quantity":5}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(dto.ProductResponse{ID: 1, Name: "Widget", Price: 9.99, Quantity: 5}, decode[dto.ProductResponse](s.T(), rec))

	rec = s.do(http.MethodPut, "/api/v1/products/1", `{"name":"Gadget","price":0}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(dto.ProductResponse{ID: 1, Name: "Gadget", Price: 0, Quantity: 5}, decode[dto.ProductResponse](s.T(), rec))

	rec = s.do(http.MethodDelete, "/api/v1/products/1", "")
	s.Equal(http.StatusNoContent, rec.Code)
	s.Empty(rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/products/1", "")
	s.Equal(http.StatusNotFound, rec.Code)
	body := decode[response.ErrorResponse](s.T(), rec)
	s.Equal("not_found", body.Error)
	s.Equal("Product 1 not found", body.Message)
}

func (s *ServerSuite) TestStatePersistsAcrossRequests() {
	s.create(`{"name":"A","price":1,"quantity":1}`)
	s.create(`{"name":"B","price":2.5,"quantity":2}`)

	rec := s.do(http.MethodGet, "/api/v1/products", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	list := decode[[]dto.ProductResponse](s.T(), rec)
	s.Require().Len(list, 2)
	s.Equal(int64(1), list[0].ID)
	s.Equal(int64(2), list[1].ID)
	s.Equal("B", list[1].Name)
}

func (s *ServerSuite) TestTrailingSlashIsAccepted() {
	rec := s.do(http.MethodGet, "/api/v1/products/", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestNotFoundForEveryOperation() {
	for _, tc := range []struct {
		method string
		body   string
	}{
		{http.MethodGet, ""},
		{http.MethodPut, `{"name":"X"}`},
		{http.MethodPatch, `{}`},
		{http.MethodDelete, ""},
	} {
		rec := s.do(tc.method, "/api/v1/products/42", tc.body)
		s.Equal(http.StatusNotFound, rec.Code, tc.method)
		s.Equal("Product 42 not found", decode[response.ErrorResponse](s.T(), rec).Message, tc.method)
	}
}

func (s *ServerSuite) TestCreateValidation() {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"empty name", `{"name":"","price":1,"quantity":1}`, []string{"name"}},
		{"blank name", `{"name":"   ","price":1,"quantity":1}`, []string{"name"}},
		{"name too long", `{"name":"` + strings.Repeat("x", 201) + `","price":1,"quantity":1}`, []string{"name"}},
		{"negative price", `{"name":"A","price":-1,"quantity":1}`, []string{"price"}},
		{"sub-cent price", `{"name":"A","price":1.005,"quantity":1}`, []string{"price"}},
		{"negative quantity", `{"name":"A","price":1,"quantity":-1}`, []string{"quantity"}},
		{"missing fields", `{}`, []string{"name", "price", "quantity"}},
		{"wrong type", `{"name":"A","price":"cheap","quantity":1}`, []string{"price"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/api/v1/products", tt.body)
			s.Require().Equal(http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			body := decode[response.ErrorResponse](s.T(), rec)
			s.Equal("validation_error", body.Error)

			var fields []string
			for _, d := range body.Details {
				fields = append(fields, d.Field)
			}
			s.ElementsMatch(tt.fields, fields)
		})
	}

	rec := s.do(http.MethodGet, "/api/v1/products", "")
	s.JSONEq(`[]`, rec.Body.String())

	created := s.create(`{"name":"Widget","price":9.99,"quantity":10}`)
	s.Equal(int64(1), created.ID)
}

func (s *ServerSuite) TestUpdateValidationLeavesProductUnchanged() {
	s.create(`{"name":"Widget","price":9.99,"quantity":10}`)

	for _, body := range []string{
		`{"price":-1}`,
		`{"name":""}`,
		`{"quantity":null}`,
	} {
		rec := s.do(http.MethodPatch, "/api/v1/products/1", body)
		s.Equal(http.StatusUnprocessableEntity, rec.Code, body)
	}

	rec := s.do(http.MethodGet, "/api/v1/products/1", "")
	s.Equal(dto.ProductResponse{ID: 1, Name: "Widget", Price: 9.99, Quantity: 10}, decode[dto.ProductResponse](s.T(), rec))
}

func (s *ServerSuite) TestMalformedBody() {
	rec := s.do(http.MethodPost, "/api/v1/products", `{"name":`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("bad_request", decode[response.ErrorResponse](s.T(), rec).Error)

	rec = s.do(http.MethodPost, "/api/v1/products", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestTrailingDataIsRejected() {
	for _, body := range []string{
		`{"name":"A","price":1,"quantity":1} trailing junk {`,
		`{"name":"A","price":1,"quantity":1} {}`,
	} {
		rec := s.do(http.MethodPost, "/api/v1/products", body)
		s.Equal(http.StatusBadRequest, rec.Code, body)
	}

	rec := s.do(http.MethodGet, "/api/v1/products", "")
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *ServerSuite) TestOversizedBodyIsRejected() {
	body := `{"name":"` + strings.Repeat("x", 2<<20) + `","price":1,"quantity":1}`

	rec := s.do(http.MethodPost, "/api/v1/products", body)
	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Equal("payload_too_large", decode[response.ErrorResponse](s.T(), rec).Error)
}

func (s *ServerSuite) TestInvalidID() {
	for _, id := range []string{"abc", "0", "-3", "1.5"} {
		rec := s.do(http.MethodGet, "/api/v1/products/"+id, "")
		s.Require().Equal(http.StatusUnprocessableEntity, rec.Code, id)

		body := decode[response.ErrorResponse](s.T(), rec)
		s.Require().Len(body.Details, 1)
		s.Equal("id", body.Details[0].Field)
	}
}

func (s *ServerSuite) TestUnknownRouteAndMethod() {
	rec := s.do(http.MethodGet, "/nope", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("not_found", decode[response.ErrorResponse](s.T(), rec).Error)

	rec = s.do(http.MethodPost, "/api/v1/products/1", `{}`)
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *ServerSuite) TestRequestIDIsEchoed() {
	rec := s.do(http.MethodGet, "/api/v1/products/7", "", "X-Request-Id", "req-123")
	s.Equal("req-123", rec.Header().Get("X-Request-Id"))
	s.Equal("req-123", decode[response.ErrorResponse](s.T(), rec).RequestID)

	rec = s.do(http.MethodGet, "/health", "")
	s.NotEmpty(rec.Header().Get("X-Request-Id"))
}

func (s *ServerSuite) TestHealth() {
	for _, path := range []string{"/", "/health"} {
		rec := s.do(http.MethodGet, path, "")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(dto.HealthResponse{Status: "ok", Service: "Products Backend API", Version: "1.0.0"},
			decode[dto.HealthResponse](s.T(), rec))
	}
}

func (s *ServerSuite) TestMetrics() {
	s.create(`{"name":"Widget","price":9.99,"quantity":10}`)

	rec := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "products_created_total")
	s.Contains(rec.Body.String(), "go_goroutines")
}

func (s *ServerSuite) TestCORSPreflight() {
	rec := s.do(http.MethodOptions, "/api/v1/products", "",
		"Origin", "http://example.com",
		"Access-Control-Request-Method", http.MethodPost,
	)
	s.Less(rec.Code, 300)
	s.NotEmpty(rec.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func (s *ServerSuite) TestDocs() {
	rec := s.do(http.MethodGet, "/docs/doc.json", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Products Backend API")
	s.Contains(rec.Body.String(), "/api/v1/products/{id}")
}

func (s *ServerSuite) TestAdminResetDisabledByDefault() {
	s.create(`{"name":"Widget","price":9.99,"quantity":10}`)

	rec := s.do(http.MethodDelete, "/api/v1/admin/products", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/products/1", "")
	s.Equal(http.StatusOK, rec.Code)
}

func TestNewServerLeavesSwaggerInfoAlone(t *testing.T) {
	before := docs.SwaggerInfo.Version

	cfg := testConfig()
	cfg.App.Version = "9.9.9"
	newTestHandler(t, cfg)

	assert.Equal(t, before, docs.SwaggerInfo.Version)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func TestAdminResetEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.ResetEnabled = true
	h := newTestHandler(t, cfg)

	for range 3 {
		rec := do(t, h, http.MethodPost, "/api/v1/products", `{"name":"A","price":1,"quantity":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, h, http.MethodDelete, "/api/v1/admin/products", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/products", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/products", `{"name":"B","price":2,"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), decode[dto.ProductResponse](t, rec).ID)
}

func TestRateLimiting(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}
	h := newTestHandler(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "too_many_requests", decode[response.ErrorResponse](t, rec).Error)

	// forwarding headers are ignored unless a trusted proxy is configured
	for _, ip := range []string{"203.0.113.9", "203.0.113.10"} {
		rec = do(t, h, http.MethodGet, "/health", "", "X-Forwarded-For", ip)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, ip)
	}
}

func TestRateLimitingBehindTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustProxy = true
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	h := newTestHandler(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", "X-Forwarded-For", "203.0.113.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/health", "", "X-Forwarded-For", "203.0.113.9").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", "X-Forwarded-For", "203.0.113.10").Code)
}
