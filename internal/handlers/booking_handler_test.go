package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skillbridge/marketplace-service/internal/utils"
	"github.com/skillbridge/marketplace-service/internal/validator"
)

func newTestBookingHandler() *BookingHandler {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	return NewBookingHandler(nil, validator.New(), logger)
}

func TestBookingHandler_ParseBookingFilters_Defaults(t *testing.T) {
	h := newTestBookingHandler()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/bookings", nil)

	filters := h.parseBookingFilters(c)

	if filters.SortBy != "scheduled_date" {
		t.Errorf("Expected default sort_by scheduled_date, got %q", filters.SortBy)
	}
	if filters.SortOrder != "asc" {
		t.Errorf("Expected default sort_order asc, got %q", filters.SortOrder)
	}
	if filters.Limit != 10 || filters.Offset != 0 {
		t.Errorf("Expected default page of 10 from offset 0, got limit=%d offset=%d", filters.Limit, filters.Offset)
	}
}

func TestBookingHandler_HandleServiceError_UnknownError(t *testing.T) {
	h := newTestBookingHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/bookings/1", nil)

	h.handleServiceError(c, errors.New("pq: connection to 10.0.0.5 refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message != "Internal server error" {
		t.Errorf("Expected generic message, got %q", resp.Message)
	}
	if resp.Details != nil {
		t.Errorf("Internal error detail must not reach the client, got %v", resp.Details)
	}
}
