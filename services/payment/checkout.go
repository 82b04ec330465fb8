package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/services/cart"
	"placement-storefront/services/catalog"
)

var (
	ErrUnauthenticated  = errors.New("sign in required")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrTermsNotAccepted = errors.New("terms and conditions must be accepted")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
)

// Checkout turns a cart or a single course selection into a handoff Intent.
// All validation that needs no network runs first.
type Checkout struct {
	catalog  catalog.Source
	carts    *cart.Registry
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

func NewCheckout(source catalog.Source, carts *cart.Registry, currency string, logger *zap.Logger) *Checkout {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Checkout{
		catalog:  source,
		carts:    carts,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// PrepareCart builds the bulk order for everything in the profile's cart.
func (c *Checkout) PrepareCart(ctx context.Context, scope string, identity *models.Identity, termsAccepted bool) (Intent, error) {
	if identity == nil {
		return Intent{}, ErrUnauthenticated
	}
	ids := c.carts.Get(ctx, scope).List()
	if len(ids) == 0 {
		return Intent{}, ErrEmptyCart
	}
	if !termsAccepted {
		return Intent{}, ErrTermsNotAccepted
	}

	courses, err := c.catalog.ListCourses(ctx)
	if err != nil {
		return Intent{}, err
	}
	items := catalog.Project(courses, ids)
	if len(items) == 0 {
		return Intent{}, ErrEmptyCart
	}

	courseIDs := make([]string, 0, len(items))
	for _, item := range items {
		courseIDs = append(courseIDs, item.ID.String())
	}

	now := c.now()
	intent := Intent{
		Scope: scope,
		Request: OrderRequest{
			CourseIDs: courseIDs,
			Amount:    catalog.TotalPaise(items),
			Currency:  c.currency,
			Customer:  NewCustomer(identity, now, c.logger),
			Bulk:      true,
		},
		Pending: models.PendingEnrollment{
			CourseIDs: courseIDs,
			Timestamp: now.UnixMilli(),
			User:      enrollmentUser(identity),
		},
	}

	c.logger.Info("cart checkout prepared",
		zap.String("profile", scope),
		zap.Strings("course_ids", courseIDs),
		zap.Int64("amount", intent.Request.Amount))
	return intent, nil
}

// PrepareEnrollment builds the single-course order. An empty courseID falls
// back to the featured course.
func (c *Checkout) PrepareEnrollment(ctx context.Context, scope string, identity *models.Identity, courseID string) (Intent, error) {
	if identity == nil {
		return Intent{}, ErrUnauthenticated
	}
	if courseID != "" && identity.IsEnrolled(courseID) {
		return Intent{}, ErrAlreadyEnrolled
	}

	course, err := c.resolveCourse(ctx, courseID)
	if err != nil {
		return Intent{}, err
	}
	resolvedID := course.ID.String()
	if identity.IsEnrolled(resolvedID) {
		return Intent{}, ErrAlreadyEnrolled
	}

	orderCourseID := resolvedID
	if orderCourseID == "" {
		orderCourseID = DefaultCourseID
	}

	now := c.now()
	intent := Intent{
		Scope: scope,
		Request: OrderRequest{
			CourseIDs: []string{orderCourseID},
			Amount:    int64(course.Price),
			Currency:  c.currency,
			Customer:  NewCustomer(identity, now, c.logger),
		},
		Pending: models.PendingEnrollment{
			CourseID:  resolvedID,
			Timestamp: now.UnixMilli(),
			User:      enrollmentUser(identity),
		},
	}

	c.logger.Info("enrollment prepared",
		zap.String("profile", scope),
		zap.String("course_id", orderCourseID),
		zap.Int64("amount", intent.Request.Amount))
	return intent, nil
}

func (c *Checkout) resolveCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if courseID != "" {
		return c.catalog.GetCourse(ctx, courseID)
	}
	courses, err := c.catalog.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	course := catalog.Featured(courses)
	if course == nil {
		return nil, catalog.ErrCourseNotFound
	}
	return course, nil
}
