package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealerops/parts-forecast/internal/assets"
	"github.com/dealerops/parts-forecast/internal/domain"
	"github.com/dealerops/parts-forecast/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type predictRequest struct {
	DealerCode string `json:"dealer_code" binding:"required"`
	PartNumber string `json:"part_number" binding:"required"`
	Month      string `json:"month" binding:"required"`
}

type predictResponse struct {
	PredictedQuantity float64 `json:"predicted_quantity"`
	KnownPart         bool    `json:"known_part"`
}

// Predict scores one part for the first day of the requested month in
// the current year. Month is accepted as a name or a number.
func (h *ForecastHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	month, err := monthToNumber(req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	targetDate := time.Date(time.Now().UTC().Year(), time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	qty, known, err := h.service.PredictPart(c.Request.Context(), req.DealerCode, req.PartNumber, targetDate)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, assets.ErrBundleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, predictResponse{PredictedQuantity: qty, KnownPart: known})
}

type runRequest struct {
	DealerCode string `json:"dealer_code" binding:"required"`
	AsOf       string `json:"as_of"`
}

// Run executes the full recursive forecast for a dealer and persists
// the batch.
func (h *ForecastHandler) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be formatted YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	batch, err := h.service.RunDealer(c.Request.Context(), req.DealerCode, asOf)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, assets.ErrBundleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dealer_code": batch.Dealer,
		"as_of":       batch.AsOf.Format("2006-01-02"),
		"records":     len(batch.Records),
		"failures":    batch.Failures,
	})
}

// List returns stored forecast records for a dealer.
func (h *ForecastHandler) List(c *gin.Context) {
	dealer := strings.TrimSpace(c.Query("dealer_code"))
	if dealer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dealer_code is required"})
		return
	}

	filter := domain.ForecastFilter{Dealer: dealer}
	if dateStr := strings.TrimSpace(c.Query("date")); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
			return
		}
		filter.Date = parsed
	}

	records, err := h.service.ListForecasts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dealer_code": dealer, "forecasts": records})
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// monthToNumber accepts a month name or a numeric string and returns
// 1..12.
func monthToNumber(m string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(m))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month: %s", m)
		}
		return n, nil
	}
	for i, name := range monthNames {
		if s == name {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("invalid month: %s", m)
}
