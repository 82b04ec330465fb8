package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/services/payment"
)

// Client creates orders through the backend's Cashfree order endpoints. The
// backend holds the Cashfree credentials and mints the payment session.
type Client struct {
	baseURL   string
	client    *http.Client
	transport *http.Transport
	logger    *zap.Logger
}

// NewClient builds a client without a request timeout: order creation is
// bounded only by the caller's context.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		client:    &http.Client{Transport: transport},
		logger:    logger,
	}
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

func (c *Client) CreateOrder(ctx context.Context, req payment.OrderRequest) (*models.Order, error) {
	startTime := time.Now()

	path, body := c.buildRequest(req)
	jsonPayload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", payment.ErrOrderCreation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", payment.ErrOrderCreation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrOrderCreation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", payment.ErrOrderCreation, err)
	}

	c.logger.Info("order endpoint responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(startTime)))

	cleanBody := bytes.TrimPrefix(respBody, []byte("\xef\xbb\xbf"))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		_ = json.Unmarshal(cleanBody, &apiErr)
		return nil, fmt.Errorf("%w: %s returned %d %s", payment.ErrOrderCreation, path, resp.StatusCode, apiErr.text())
	}

	var out orderResponse
	if err := json.Unmarshal(cleanBody, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", payment.ErrOrderCreation, err)
	}
	if out.OrderID == "" || out.PaymentSessionID == "" {
		return nil, fmt.Errorf("%w: response missing order_id or payment_session_id", payment.ErrOrderCreation)
	}

	return &models.Order{
		OrderID:          out.OrderID,
		PaymentSessionID: out.PaymentSessionID,
		Currency:         req.Currency,
		Amount:           req.Amount,
		Customer:         req.Customer,
	}, nil
}

func (c *Client) buildRequest(req payment.OrderRequest) (string, interface{}) {
	if req.Bulk {
		return BulkOrderPath, models.BulkOrderRequest{
			CourseIDs:       req.CourseIDs,
			Currency:        req.Currency,
			CustomerDetails: req.Customer,
		}
	}

	courseID := payment.DefaultCourseID
	if len(req.CourseIDs) > 0 && req.CourseIDs[0] != "" {
		courseID = req.CourseIDs[0]
	}
	return SingleOrderPath, models.SingleOrderRequest{
		Amount:          req.Amount,
		Currency:        req.Currency,
		CourseID:        courseID,
		CustomerDetails: req.Customer,
	}
}
