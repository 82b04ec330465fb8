package models

import "time"

type EnrollmentUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PendingEnrollment survives the redirect to the hosted checkout so the
// success page can finalize enrollment. Single-course checkouts fill CourseID,
// cart checkouts fill CourseIDs.
type PendingEnrollment struct {
	CourseID  string         `json:"courseId,omitempty"`
	CourseIDs []string       `json:"courseIds,omitempty"`
	OrderID   string         `json:"orderId"`
	Timestamp int64          `json:"timestamp"`
	User      EnrollmentUser `json:"user"`
}

func (p PendingEnrollment) CreatedAt() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// Courses returns every course id the record covers.
func (p PendingEnrollment) Courses() []string {
	if len(p.CourseIDs) > 0 {
		return p.CourseIDs
	}
	if p.CourseID != "" {
		return []string{p.CourseID}
	}
	return nil
}
