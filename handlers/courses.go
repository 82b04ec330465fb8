package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/services/catalog"
	"placement-storefront/utils"
)

type CourseHandler struct {
	catalog catalog.Source
	logger  *zap.Logger
}

func NewCourseHandler(source catalog.Source, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{catalog: source, logger: logger}
}

func (h *CourseHandler) Featured(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	course := catalog.Featured(courses)
	if course == nil {
		writeError(w, h.logger, catalog.ErrCourseNotFound)
		return
	}

	utils.SendJSON(w, http.StatusOK, featuredCourse(course))
}

func featuredCourse(c *models.Course) models.FeaturedCourse {
	out := models.FeaturedCourse{
		ID:           c.ID.String(),
		Title:        c.Title,
		Description:  c.ShortDescription,
		Price:        int64(c.Price),
		DisplayPrice: utils.FormatRupees(int64(c.Price)),
		Duration:     c.Duration,
		Level:        c.Level,
		Image:        c.Thumbnail(),
		Features:     c.Features,
	}
	if out.Description == "" {
		out.Description = c.Description
	}
	if pct := utils.DiscountPercent(int64(c.Price), int64(c.OriginalPrice)); pct > 0 {
		out.OriginalPrice = utils.FormatRupees(int64(c.OriginalPrice))
		out.DiscountPercent = pct
	}
	return out
}
