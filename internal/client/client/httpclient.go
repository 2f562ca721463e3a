package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/common"
	"github.com/workgroup/workgroup-client/internal/logging"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type newAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type existsResponse struct {
	Exists *bool `json:"exists"`
}

// NewHTTPClient builds a client for the identity API rooted at baseURL.
// timeout bounds every request; zero means no client-side timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q: missing host", baseURL)
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		log:     log.With("component", "identity-client"),
	}, nil
}

func (c *HTTPClient) Authenticate(ctx context.Context, email, password string) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/user/login", nil, credentials{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) FetchByID(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(id), nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) DeleteByID(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/user/"+url.PathEscape(id), nil, nil, nil)
}

func (c *HTTPClient) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var resp existsResponse
	if err := c.do(ctx, http.MethodGet, "/user/exists", url.Values{"email": {email}}, nil, &resp); err != nil {
		return false, err
	}
	if resp.Exists == nil {
		return false, fmt.Errorf("%w: missing exists field", ErrInvalidResponse)
	}
	return *resp.Exists, nil
}

func (c *HTTPClient) CreateAccount(ctx context.Context, name, email, password string) (*models.Session, error) {
	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/user/create", nil, newAccount{Name: name, Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]*models.Session, error) {
	var users []*models.Session
	if err := c.do(ctx, http.MethodGet, "/user/all", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do sends one request and decodes a 2xx JSON body into out (when out is not
// nil). Non-2xx answers become *ResponseError. path is already escaped.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("build request path: %w", err)
	}
	u.Path = p
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return mapError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return mapError(err)
	}
	c.log.Debug(ctx, "request done",
		"method", method, "path", path, "request_id", requestID,
		"status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newResponseError(resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

// mapError turns transport failures into ErrUnavailable. Context
// cancellation by the caller is passed through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
