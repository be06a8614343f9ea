// Package authapi talks to the MovieHub backend's authentication endpoints.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

const (
	DefaultTimeout = 10 * time.Second

	loginPath  = "/api/auth/login"
	signupPath = "/api/auth/signup"

	maxBodyBytes = 1 << 20
)

// Client implements ports.AuthService over HTTP. Transport failures, 5xx
// responses and unreadable bodies are reported as domain.ErrAuthUnavailable;
// 4xx responses carry the backend's message.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type authResponse struct {
	User    *wireUser `json:"user"`
	Token   string    `json:"token"`
	Message string    `json:"message"`
}

// wireUser is the backend's user record. createdAt comes in more than one
// layout, so it is parsed by hand.
type wireUser struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt string      `json:"createdAt"`
}

var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"}

func (w *wireUser) toDomain() *domain.User {
	u := &domain.User{
		ID:        w.ID,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Phone:     w.Phone,
		Role:      w.Role,
		Active:    w.Active,
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, w.CreatedAt); err == nil {
			u.CreatedAt = t.UTC()
			break
		}
	}
	return u
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return c.post(ctx, loginPath, "Login failed", loginRequest{Email: email, Password: password})
}

func (c *Client) Signup(ctx context.Context, data domain.SignupData) (*domain.AuthResult, error) {
	role := data.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	return c.post(ctx, signupPath, "Signup failed", signupRequest{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		Phone:     data.Phone,
		Password:  data.Password,
		Role:      string(role),
	})
}

func (c *Client) post(ctx context.Context, path, failMsg string, body any) (*domain.AuthResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	var out authResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", domain.ErrAuthUnavailable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		msg := failMsg
		if decodeErr == nil && strings.TrimSpace(out.Message) != "" {
			msg = out.Message
		}
		return nil, &RejectedError{Status: resp.StatusCode, Message: msg}
	case decodeErr != nil:
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrAuthUnavailable, decodeErr)
	case out.User == nil || out.Token == "":
		return nil, fmt.Errorf("%w: invalid response from server", domain.ErrAuthUnavailable)
	}

	return &domain.AuthResult{User: out.User.toDomain(), Token: out.Token}, nil
}

// RejectedError is a 4xx answer from the backend. Its Error text is the
// backend's message, suitable for showing to the user.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// UserMessage implements domain.UserMessager.
func (e *RejectedError) UserMessage() string { return e.Message }

// Is maps well-known rejections onto domain sentinels.
func (e *RejectedError) Is(target error) bool {
	switch target {
	case domain.ErrUserExists:
		return e.Status == http.StatusConflict
	case domain.ErrInvalidCredentials:
		return e.Status == http.StatusUnauthorized
	}
	return false
}
