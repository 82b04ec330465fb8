package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"placement-storefront/middleware"
	"placement-storefront/models"
	"placement-storefront/services/cart"
	"placement-storefront/services/catalog"
	"placement-storefront/utils"
)

type CartHandler struct {
	carts   *cart.Registry
	catalog catalog.Source
	logger  *zap.Logger
}

func NewCartHandler(carts *cart.Registry, source catalog.Source, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: source, logger: logger}
}

// GetCart returns the ids with their catalog projection and totals.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), middleware.GetProfile(r.Context()))
	ids := store.List()

	resp := models.CartResponse{CourseIDs: ids, Items: []models.CartItemResponse{}, Count: len(ids)}
	if len(ids) > 0 {
		courses, err := h.catalog.ListCourses(r.Context())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		resp = catalog.CartResponse(courses, ids)
	}
	resp.Degraded = store.Degraded()

	utils.SendJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	courseID, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	store := h.carts.Get(r.Context(), middleware.GetProfile(r.Context()))
	changed := store.Add(r.Context(), courseID)
	h.sendState(w, store, changed)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	courseID, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	store := h.carts.Get(r.Context(), middleware.GetProfile(r.Context()))
	changed := store.Remove(r.Context(), courseID)
	h.sendState(w, store, changed)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), middleware.GetProfile(r.Context()))
	store.Clear(r.Context())
	h.sendState(w, store, true)
}

func (h *CartHandler) decodeItem(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.CartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	courseID := strings.TrimSpace(req.CourseID.String())
	if courseID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "course_id is required")
		return "", false
	}
	return courseID, true
}

func (h *CartHandler) sendState(w http.ResponseWriter, store *cart.Store, changed bool) {
	ids := store.List()
	utils.SendJSON(w, http.StatusOK, models.CartStateResponse{
		CourseIDs: ids,
		Count:     len(ids),
		Version:   store.Version(),
		Changed:   changed,
		Degraded:  store.Degraded(),
	})
}
