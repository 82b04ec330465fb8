package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement-storefront/models"
)

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹350", FormatRupees(35000))
	assert.Equal(t, "₹100", FormatRupees(9950))
	assert.Equal(t, "₹0", FormatRupees(0))
}

func TestDiscountPercent(t *testing.T) {
	assert.Equal(t, 25, DiscountPercent(7500, 10000))
	assert.Equal(t, 0, DiscountPercent(10000, 0))
	assert.Equal(t, 0, DiscountPercent(12000, 10000))
}

func TestSendRedirectResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	SendRedirectResponse(rec, http.StatusUnauthorized, "sign in required", "/auth")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "/auth", body.Redirect)
}

func TestSendSuccessResponseDefaultsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	SendSuccessResponse(rec, models.APIResponse{Message: "ok"})

	var body models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
}
