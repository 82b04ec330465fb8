package handlers

import (
	"context"
	"net/http"
	"time"

	"placement-storefront/models"
	"placement-storefront/storage"
	"placement-storefront/utils"
)

type HealthHandler struct {
	checks map[string]storage.Pinger
}

func NewHealthHandler(checks map[string]storage.Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		utils.SendJSON(w, http.StatusServiceUnavailable, models.APIResponse{
			Status:  "error",
			Message: "degraded",
			Data:    results,
		})
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Message: "ok", Data: results})
}
