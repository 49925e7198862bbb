// ABOUTME: Typed HTTP client for the auth-service API
// ABOUTME: Used by the CLI and by platform services that consume credentials

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/service"
)

const defaultTimeout = 10 * time.Second

// Client talks to a running auth-service over HTTP/JSON. Errors from the
// server are returned as gRPC status errors carrying the original code.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL. A bare host:port is accepted
// and treated as http.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// IssueApiKey issues a new API key for a project.
func (c *Client) IssueApiKey(ctx context.Context, req *service.IssueApiKeyRequest) (*service.IssueApiKeyResponse, error) {
	var resp service.IssueApiKeyResponse
	if err := c.post(ctx, "/v1/api-keys", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RevokeApiKey deletes the key with the given hash.
func (c *Client) RevokeApiKey(ctx context.Context, hash string) error {
	return c.do(ctx, http.MethodDelete, "/v1/api-keys/"+url.PathEscape(hash), nil, &service.RevokeApiKeyResponse{})
}

// CreateJwt exchanges a plaintext API key for a signed token.
func (c *Client) CreateJwt(ctx context.Context, apiKey string) (*service.CreateJwtResponse, error) {
	var resp service.CreateJwtResponse
	if err := c.post(ctx, "/v1/jwt", &service.CreateJwtRequest{ApiKey: apiKey}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateJwt checks a token's signature, expiry, and backing key.
func (c *Client) ValidateJwt(ctx context.Context, jwt string) (*service.ValidateJwtResponse, error) {
	var resp service.ValidateJwtResponse
	if err := c.post(ctx, "/v1/jwt/validate", &service.ValidateJwtRequest{Jwt: jwt}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Authenticate verifies a user's email/password and returns their profile.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*service.UserResponse, error) {
	var resp service.UserResponse
	req := &service.AuthenticateUserRequest{Email: email, Password: password}
	if err := c.post(ctx, "/v1/users/authenticate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return status.Error(codes.Unavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// decodeError rebuilds a status error from the server's error body, falling
// back to the HTTP status when the body is not in the expected shape.
func decodeError(httpStatus int, raw []byte) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Code != "" {
		for c := codes.OK; c <= codes.Unauthenticated; c++ {
			if c.String() == body.Code {
				return status.Error(c, body.Error)
			}
		}
	}

	code := codes.Unknown
	switch httpStatus {
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusForbidden:
		code = codes.PermissionDenied
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusConflict:
		code = codes.AlreadyExists
	case http.StatusServiceUnavailable:
		code = codes.Unavailable
	}
	return status.Error(code, strings.TrimSpace(string(raw)))
}
