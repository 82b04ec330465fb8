package utils

import (
	"encoding/json"
	"net/http"

	"placement-storefront/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
	})
}

// SendRedirectResponse is an error that tells the browser where to go next,
// such as the sign-in page.
func SendRedirectResponse(w http.ResponseWriter, status int, message, redirect string) {
	SendJSON(w, status, models.APIResponse{
		Status:   "error",
		Message:  message,
		Redirect: redirect,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	if response.Status == "" {
		response.Status = "success"
	}
	SendJSON(w, http.StatusOK, response)
}

func SendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
