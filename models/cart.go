package models

import "time"

// Well-known storage keys shared with the payment success page.
const (
	CartKey              = "cartCourseIds"
	LastCourseKey        = "lastCourseId"
	LastCoursesKey       = "lastCourseIds"
	PendingEnrollmentKey = "pendingEnrollment"
)

// CartSnapshot is the persisted form of a cart. Version increases by one on
// every write so that a store can notice another writer got in between.
type CartSnapshot struct {
	IDs       []string  `json:"ids"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartItemRequest struct {
	CourseID CourseID `json:"course_id"`
}

type CartItemResponse struct {
	CourseID     string `json:"course_id"`
	Title        string `json:"title"`
	Image        string `json:"image"`
	Price        int64  `json:"price"`
	DisplayPrice int64  `json:"display_price"`
}

type CartResponse struct {
	CourseIDs    []string           `json:"course_ids"`
	Items        []CartItemResponse `json:"items"`
	Count        int                `json:"count"`
	TotalPaise   int64              `json:"total_paise"`
	DisplayTotal int64              `json:"display_total"`
	Degraded     bool               `json:"degraded,omitempty"`
}

type CartEvent struct {
	CourseIDs []string `json:"course_ids"`
	Version   int64    `json:"version"`
}

// CartStateResponse answers cart mutations. Changed is false for duplicate
// adds and removals of absent ids.
type CartStateResponse struct {
	CourseIDs []string `json:"course_ids"`
	Count     int      `json:"count"`
	Version   int64    `json:"version"`
	Changed   bool     `json:"changed"`
	Degraded  bool     `json:"degraded,omitempty"`
}
