package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// Login — POST /login.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	return c.authCall(ctx, "/login", creds)
}

// Register — POST /register.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
	return c.authCall(ctx, "/register", reg)
}

// Logout — POST /logout; тело ответа не используется.
func (c *Client) Logout(ctx context.Context) error {
	req, err := jsonRequest(http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// CurrentUser — GET /user; ответ {"user": {...}}.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	req, err := jsonRequest(http.MethodGet, "/user", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		User *domain.User `json:"user"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.New("GET /user: response has no user")
	}
	return out.User, nil
}

// SendPasswordResetOTP — POST /forgot-password.
func (c *Client) SendPasswordResetOTP(ctx context.Context, email string) (*domain.MessageResponse, error) {
	return c.messageCall(ctx, "/forgot-password", map[string]string{"email": email})
}

// VerifyPasswordResetOTP — POST /verify-otp.
func (c *Client) VerifyPasswordResetOTP(ctx context.Context, email, otp string) (*domain.MessageResponse, error) {
	return c.messageCall(ctx, "/verify-otp", map[string]string{"email": email, "otp": otp})
}

// ResetPassword — POST /reset-password; при успехе может выдать новую сессию.
func (c *Client) ResetPassword(ctx context.Context, reset domain.PasswordReset) (*domain.AuthResponse, error) {
	return c.authCall(ctx, "/reset-password", reset)
}

func (c *Client) authCall(ctx context.Context, path string, payload any) (*domain.AuthResponse, error) {
	req, err := jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	var out domain.AuthResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) messageCall(ctx context.Context, path string, payload any) (*domain.MessageResponse, error) {
	req, err := jsonRequest(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	var out domain.MessageResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
