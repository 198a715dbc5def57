package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/cache"
	"github.com/dealerops/parts-forecast/internal/domain"
	"github.com/dealerops/parts-forecast/internal/forecast"
	"github.com/dealerops/parts-forecast/internal/service"
)

type stubModel struct{}

func (stubModel) Schema() []string { return []string{"lag_1"} }

func (stubModel) Predict(features []float64) (float64, error) {
	return features[0], nil
}

type stubLoader struct {
	bundle *assets.Bundle
	err    error
}

func (l *stubLoader) Load(context.Context, string) (*assets.Bundle, error) {
	return l.bundle, l.err
}

type stubHistory struct{}

func (stubHistory) PartHistory(context.Context, string, string, time.Time) ([]domain.HistoryPoint, error) {
	return []domain.HistoryPoint{
		{Date: time.Date(2026, time.August, 9, 0, 0, 0, 0, time.UTC), Quantity: 6},
	}, nil
}

func (stubHistory) ActiveParts(context.Context, string, time.Time) ([]string, error) {
	return []string{"BP-1001"}, nil
}

type stubSink struct{}

func (stubSink) UpsertBatch(context.Context, []domain.ForecastRecord) error { return nil }

func (stubSink) ListByDealer(context.Context, domain.ForecastFilter) ([]domain.ForecastRecord, error) {
	return []domain.ForecastRecord{{Dealer: "D001", PartNumber: "BP-1001", PredictedMonthly: 42}}, nil
}

func testRouter(loaderErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)

	loader := &stubLoader{err: loaderErr}
	if loaderErr == nil {
		loader.bundle = &assets.Bundle{
			Dealer:  "D001",
			Model:   stubModel{},
			Encoder: &assets.PartEncoder{Classes: map[string]int{"BP-1001": 0}},
		}
	}

	bundles := assets.NewCache(loader)
	history := stubHistory{}
	runner := forecast.NewRunner(bundles, history, 5, 2)
	svc := service.NewForecastService(runner, bundles, history, stubSink{}, cache.NewNoopForecastCache())
	h := NewForecastHandler(svc)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/predict", h.Predict)
	v1.POST("/forecast/run", h.Run)
	v1.GET("/forecast", h.List)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPredictEndpoint(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/predict",
		`{"dealer_code": "D001", "part_number": "BP-1001", "month": "august"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp predictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.KnownPart)
	assert.Equal(t, 6.0, resp.PredictedQuantity)
}

func TestPredictEndpointValidation(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/predict", `{"dealer_code": "D001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/predict",
		`{"dealer_code": "D001", "part_number": "BP-1001", "month": "smarch"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictEndpointUnknownDealer(t *testing.T) {
	router := testRouter(assets.ErrBundleNotFound)

	w := doJSON(t, router, http.MethodPost, "/api/v1/predict",
		`{"dealer_code": "D404", "part_number": "BP-1001", "month": "8"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunEndpoint(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/forecast/run",
		`{"dealer_code": "D001", "as_of": "2026-08-10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		DealerCode string `json:"dealer_code"`
		AsOf       string `json:"as_of"`
		Records    int    `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "D001", resp.DealerCode)
	assert.Equal(t, "2026-08-10", resp.AsOf)
	assert.Equal(t, 1, resp.Records)
}

func TestRunEndpointBadDate(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/forecast/run",
		`{"dealer_code": "D001", "as_of": "10/08/2026"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEndpoint(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?dealer_code=D001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BP-1001")
}

func TestListEndpointRequiresDealer(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMonthToNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"january", 1, true},
		{"December", 12, true},
		{" AUGUST ", 8, true},
		{"8", 8, true},
		{"12", 12, true},
		{"0", 0, false},
		{"13", 0, false},
		{"smarch", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, err := monthToNumber(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}
