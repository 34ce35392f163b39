// Package scraper forwards product-enrichment and service-provider searches
// to the external scraping service.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/pkg/logger"
	"go.uber.org/zap"
)

// Categories the scraping service understands.
var Categories = []string{"electronics", "medical", "construction"}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ServiceTypes are the service-provider searches the scraping service runs.
var ServiceTypes = []string{"medical", "electrical", "civil"}

func IsValidServiceType(serviceType string) bool {
	for _, t := range ServiceTypes {
		if t == serviceType {
			return true
		}
	}
	return false
}

type MakeModelRequest struct {
	ItemName string `json:"item_name"`
	Seller   string `json:"seller,omitempty"`
	Model    string `json:"model,omitempty"`
}

type SpecsRequest struct {
	ItemName       string              `json:"item_name"`
	Specifications []map[string]string `json:"specifications,omitempty"`
}

// ServiceProvidersRequest searches for providers offering Services near
// Location. ServiceType is filled from the path.
type ServiceProvidersRequest struct {
	Location    string   `json:"location,omitempty"`
	Services    []string `json:"services"`
	ServiceType string   `json:"service_type"`
}

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// MakeModel looks up make and model details for an item.
func (c *Client) MakeModel(ctx context.Context, category string, req MakeModelRequest) (json.RawMessage, error) {
	if err := validate(category, req.ItemName); err != nil {
		return nil, err
	}
	return c.post(ctx, "/scrape-make-model/"+category, req)
}

// Specs looks up specifications for an item.
func (c *Client) Specs(ctx context.Context, category string, req SpecsRequest) (json.RawMessage, error) {
	if err := validate(category, req.ItemName); err != nil {
		return nil, err
	}
	return c.post(ctx, "/scrape-specs/"+category, req)
}

// ServiceProviders looks up providers for a service type. Blank service
// descriptions are dropped before forwarding.
func (c *Client) ServiceProviders(ctx context.Context, serviceType string, req ServiceProvidersRequest) (json.RawMessage, error) {
	if !IsValidServiceType(serviceType) {
		return nil, apperr.Validation("Invalid service type. Must be one of: " + strings.Join(ServiceTypes, ", "))
	}

	services := make([]string, 0, len(req.Services))
	for _, svc := range req.Services {
		if svc = strings.TrimSpace(svc); svc != "" {
			services = append(services, svc)
		}
	}
	if len(services) == 0 {
		return nil, apperr.Validation("Please add at least one service description")
	}

	req.Services = services
	req.Location = strings.TrimSpace(req.Location)
	req.ServiceType = serviceType
	return c.post(ctx, "/scrape-service-providers/"+serviceType, req)
}

func validate(category, itemName string) error {
	if !IsValidCategory(category) {
		return apperr.Validation("Invalid category. Must be one of: " + strings.Join(Categories, ", "))
	}
	if strings.TrimSpace(itemName) == "" {
		return apperr.Validation("item_name is required")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Internal("Failed to encode scraper request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Internal("Failed to build scraper request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Log.Error("Scraper request failed", zap.String("path", path), zap.Error(err))
		return nil, apperr.Unavailable("Scraping service is unavailable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Unavailable("Failed to read scraping service response", err)
	}

	logger.Log.Debug("Scraper responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.Error{
			Kind:    apperr.KindUnavailable,
			Message: upstreamDetail(raw, resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	if !json.Valid(raw) {
		return nil, apperr.Unavailable("Scraping service returned invalid JSON", nil)
	}
	return json.RawMessage(raw), nil
}

// upstreamDetail pulls the "detail" field FastAPI-style services put in
// error bodies.
func upstreamDetail(raw []byte, status int) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil && s != "" {
			return s
		}
		return string(body.Detail)
	}
	return fmt.Sprintf("Scraping service returned status %d", status)
}
