package models

// Identity is the signed-in customer as resolved from the auth provider token.
type Identity struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Mobile          string   `json:"mobile,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	EnrolledCourses []string `json:"enrolled_courses,omitempty"`
}

// IsEnrolled reports whether the identity already owns courseID.
func (i *Identity) IsEnrolled(courseID string) bool {
	if i == nil {
		return false
	}
	for _, id := range i.EnrolledCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// ContactPhone prefers the mobile number and falls back to phone.
func (i *Identity) ContactPhone() string {
	if i.Mobile != "" {
		return i.Mobile
	}
	return i.Phone
}
