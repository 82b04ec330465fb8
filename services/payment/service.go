package payment

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"placement-storefront/models"
)

const (
	DefaultCurrency     = "INR"
	DefaultCustomerName = "Customer"
	// FillerPhone is sent when the identity has no phone number. The payment
	// backend rejects orders without one.
	FillerPhone = "9999999999"
	// DefaultCourseID is sent by the single-course flow when no course was
	// resolved.
	DefaultCourseID = "default"
)

// NewCustomer snapshots identity for an order request, filling the gaps the
// payment backend does not accept as empty.
func NewCustomer(identity *models.Identity, now time.Time, logger *zap.Logger) models.Customer {
	c := models.Customer{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Phone: identity.ContactPhone(),
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("user_%d", now.UnixMilli())
	}
	if c.Name == "" {
		c.Name = DefaultCustomerName
	}
	if c.Phone == "" {
		logger.Warn("customer has no phone number, sending filler value",
			zap.String("customer_id", c.ID))
		c.Phone = FillerPhone
	}
	return c
}

func enrollmentUser(identity *models.Identity) models.EnrollmentUser {
	return models.EnrollmentUser{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
	}
}
