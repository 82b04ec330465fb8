package catalog

import (
	"placement-storefront/models"
	"placement-storefront/utils"
)

// Project returns the courses whose ids appear in ids, in catalog order.
func Project(courses []models.Course, ids []string) []models.Course {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	items := make([]models.Course, 0, len(ids))
	for _, c := range courses {
		if _, ok := wanted[c.ID.String()]; ok {
			items = append(items, c)
		}
	}
	return items
}

func Find(courses []models.Course, id string) *models.Course {
	for i := range courses {
		if courses[i].ID.String() == id {
			c := courses[i]
			return &c
		}
	}
	return nil
}

// Featured is the course the home page advertises: the first active one, or
// the first course when none is marked active.
func Featured(courses []models.Course) *models.Course {
	for i := range courses {
		if courses[i].IsActive {
			c := courses[i]
			return &c
		}
	}
	if len(courses) > 0 {
		c := courses[0]
		return &c
	}
	return nil
}

// TotalPaise is the authoritative amount in minor units.
func TotalPaise(items []models.Course) int64 {
	var total int64
	for _, c := range items {
		total += int64(c.Price)
	}
	return total
}

// DisplayRupees converts minor units to whole rupees for display only.
func DisplayRupees(paise int64) int64 {
	return utils.PaiseToRupees(paise)
}

func CartResponse(courses []models.Course, ids []string) models.CartResponse {
	items := Project(courses, ids)
	resp := models.CartResponse{
		CourseIDs: ids,
		Items:     make([]models.CartItemResponse, 0, len(items)),
		Count:     len(ids),
	}
	for _, c := range items {
		resp.Items = append(resp.Items, models.CartItemResponse{
			CourseID:     c.ID.String(),
			Title:        c.Title,
			Image:        c.Thumbnail(),
			Price:        int64(c.Price),
			DisplayPrice: DisplayRupees(int64(c.Price)),
		})
	}
	resp.TotalPaise = TotalPaise(items)
	resp.DisplayTotal = DisplayRupees(resp.TotalPaise)
	return resp
}
