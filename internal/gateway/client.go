// Package gateway wraps the remote product API. The backing service is a
// public sandbox: create always acknowledges with the same placeholder id
// and writes are not durably persisted, so callers treat responses as
// advisory and keep their own state authoritative.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarquez/catalogkeeper/pkg/config"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
	"github.com/dmarquez/catalogkeeper/pkg/logger"
)

// Fallback messages surfaced when the remote error body carries none.
const (
	msgFetchFailed  = "Failed to fetch products"
	msgCreateFailed = "Failed to add product"
	msgUpdateFailed = "Failed to update product"
	msgDeleteFailed = "Failed to delete product"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client exposes the four product operations with centralized logging and
// error mapping.
type Client struct {
	http    httpDoer
	baseURL string
	logger  *logger.Logger
}

// NewClient initializes the gateway wrapper.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("gateway logger is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: baseURL,
		logger:  logg,
	}, nil
}

// ListProducts fetches the remote collection page.
func (c *Client) ListProducts(ctx context.Context) (*ProductPage, error) {
	var page ProductPage
	if err := c.call(ctx, http.MethodGet, "/products", nil, &page, "list_products", msgFetchFailed); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateProduct submits a draft. The sandbox echoes a placeholder id; the
// caller must discard it and arbitrate identity locally.
func (c *Client) CreateProduct(ctx context.Context, draft DraftPayload) (*ProductPatch, error) {
	var patch ProductPatch
	if err := c.call(ctx, http.MethodPost, "/products/add", draft, &patch, "create_product", msgCreateFailed); err != nil {
		return nil, err
	}
	return &patch, nil
}

// UpdateProduct submits changed fields for an existing product. The response
// only carries the fields the sandbox accepted.
func (c *Client) UpdateProduct(ctx context.Context, id int64, draft DraftPayload) (*ProductPatch, error) {
	var patch ProductPatch
	path := fmt.Sprintf("/products/%d", id)
	if err := c.call(ctx, http.MethodPut, path, draft, &patch, "update_product", msgUpdateFailed); err != nil {
		return nil, err
	}
	return &patch, nil
}

// DeleteProduct removes a product remotely. The sandbox acknowledges without
// persisting; the response body is discarded.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/products/%d", id)
	return c.call(ctx, http.MethodDelete, path, nil, nil, "delete_product", msgDeleteFailed)
}

func (c *Client) call(ctx context.Context, method, path string, payload, dest any, op, fallback string) error {
	ctx = c.logger.WithFields(ctx, map[string]any{
		"operation":  op,
		"request_id": uuid.NewString(),
	})

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug(ctx, "gateway request")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error(ctx, "gateway transport failure", err)
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fallback)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapFailure(ctx, resp, op, fallback)
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			c.logger.Error(ctx, "gateway response decode failure", err)
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fallback)
		}
	}

	c.logger.Debug(ctx, "gateway response")
	return nil
}

// mapFailure converts a non-2xx response into a domain error, surfacing the
// remote message verbatim when the body carries one.
func (c *Client) mapFailure(ctx context.Context, resp *http.Response, op, fallback string) error {
	message := fallback
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		message = payload.Message
	}

	code := pkgerrors.CodeGateway
	if resp.StatusCode == http.StatusNotFound {
		code = pkgerrors.CodeNotFound
	}

	ctx = c.logger.WithField(ctx, "status", resp.StatusCode)
	c.logger.Warn(ctx, fmt.Sprintf("gateway %s rejected", op))
	return pkgerrors.New(code, message)
}
