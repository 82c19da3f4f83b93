// Package shopify provides read-only order lookups against the Shopify
// admin API. Not-found and lookup failure are collapsed into a nil record;
// the voice flow does not distinguish them.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-agent/internal/config"
	"voice-agent/internal/observability"
)

const apiVersion = "2023-10"

// Order is the subset of Shopify order fields the voice flow speaks back.
type Order struct {
	ID                int64    `json:"id"`
	OrderNumber       string   `json:"order_number"`
	Email             string   `json:"email"`
	FinancialStatus   string   `json:"financial_status"`
	FulfillmentStatus string   `json:"fulfillment_status"`
	TrackingNumbers   []string `json:"tracking_numbers"`
}

type Client struct {
	storeURL    string
	accessToken string
	httpClient  *http.Client
	logger      *observability.Logger
}

// NewClient creates a Shopify client, or nil when the integration is not
// configured. Callers treat nil as "order lookup disabled".
func NewClient(cfg config.ShopifyConfig, logger *observability.Logger) *Client {
	if !cfg.Enabled() {
		logger.Info(context.Background(), "Shopify is not configured, order lookup disabled")
		return nil
	}
	return &Client{
		storeURL:    strings.TrimRight(cfg.StoreURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Lookup retrieves an order by identifier: numeric id first, then order
// name, then order_number search. Returns (nil, nil) when no order matches;
// a non-nil error only for request plumbing failures the caller may want
// to log.
func (c *Client) Lookup(ctx context.Context, orderID string) (*Order, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "order_id", Value: orderID})

	if isDigits(orderID) {
		order, err := c.fetchByID(ctx, orderID)
		if err != nil {
			c.logger.InfoWithError(ctx, "Shopify numeric lookup failed", err)
		} else if order != nil {
			return order, nil
		}
	}

	order, err := c.search(ctx, url.Values{"status": {"any"}, "name": {orderID}})
	if err != nil {
		c.logger.InfoWithError(ctx, "Shopify search by name failed", err)
	} else if order != nil {
		return order, nil
	}

	if isDigits(orderID) {
		order, err = c.search(ctx, url.Values{"status": {"any"}, "order_number": {orderID}})
		if err != nil {
			c.logger.InfoWithError(ctx, "Shopify search by order number failed", err)
		} else if order != nil {
			return order, nil
		}
	}

	return nil, nil
}

func (c *Client) fetchByID(ctx context.Context, orderID string) (*Order, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s/orders/%s.json", c.storeURL, apiVersion, orderID)
	var payload struct {
		Order *rawOrder `json:"order"`
	}
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Order.normalize(), nil
}

func (c *Client) search(ctx context.Context, query url.Values) (*Order, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s/orders.json?%s", c.storeURL, apiVersion, query.Encode())
	var payload struct {
		Orders []rawOrder `json:"orders"`
	}
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Orders) == 0 {
		return nil, nil
	}
	return payload.Orders[0].normalize(), nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create shopify request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode shopify response: %w", err)
	}
	return nil
}

// rawOrder mirrors the Shopify wire shape; order_number is numeric there
// and fulfillments carry the tracking numbers.
type rawOrder struct {
	ID                int64   `json:"id"`
	OrderNumber       int64   `json:"order_number"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	FinancialStatus   string  `json:"financial_status"`
	FulfillmentStatus *string `json:"fulfillment_status"`
	Fulfillments      []struct {
		TrackingNumber  string   `json:"tracking_number"`
		TrackingNumbers []string `json:"tracking_numbers"`
	} `json:"fulfillments"`
}

func (r *rawOrder) normalize() *Order {
	if r == nil {
		return nil
	}

	number := fmt.Sprintf("%d", r.OrderNumber)
	if r.OrderNumber == 0 {
		number = strings.TrimPrefix(r.Name, "#")
	}

	fulfillment := "unfulfilled"
	if r.FulfillmentStatus != nil && *r.FulfillmentStatus != "" {
		fulfillment = *r.FulfillmentStatus
	}

	var tracking []string
	for _, f := range r.Fulfillments {
		if len(f.TrackingNumbers) > 0 {
			tracking = append(tracking, f.TrackingNumbers...)
		} else if f.TrackingNumber != "" {
			tracking = append(tracking, f.TrackingNumber)
		}
	}

	return &Order{
		ID:                r.ID,
		OrderNumber:       number,
		Email:             r.Email,
		FinancialStatus:   r.FinancialStatus,
		FulfillmentStatus: fulfillment,
		TrackingNumbers:   tracking,
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
