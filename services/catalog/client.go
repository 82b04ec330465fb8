package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"placement-storefront/models"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCourseNotFound     = errors.New("course not found")
)

// Source is what the checkout flows need from the catalog.
type Source interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
}

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	sfg     singleflight.Group
}

func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
		httpClient = &http.Client{Transport: transport}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

// ListCourses fetches the full catalog. Concurrent callers share one request.
func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	v, err, shared := c.sfg.Do("courses", func() (interface{}, error) {
		var list models.CourseList
		if err := c.get(ctx, "/api/courses", &list); err != nil {
			return nil, err
		}
		return list.Courses, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("catalog list shared with concurrent caller")
	}

	courses, _ := v.([]models.Course)
	out := make([]models.Course, len(courses))
	copy(out, courses)
	return out, nil
}

// GetCourse fetches one course, falling back to the list endpoint when the
// single-course endpoint fails.
func (c *Client) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var env models.CourseEnvelope
	err := c.get(ctx, "/api/courses/"+url.PathEscape(id), &env)
	if err == nil && env.Course != nil {
		return env.Course, nil
	}
	if err != nil {
		c.logger.Info("course endpoint failed, falling back to course list",
			zap.String("course_id", id), zap.Error(err))
	}

	courses, listErr := c.ListCourses(ctx)
	if listErr != nil {
		return nil, listErr
	}
	if course := Find(courses, id); course != nil {
		return course, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	u := fmt.Sprintf("%s%s?t=%s", c.baseURL, path, strconv.FormatInt(time.Now().UnixMilli(), 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrCatalogUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrCatalogUnavailable, path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrCatalogUnavailable, path, err)
	}
	return nil
}
