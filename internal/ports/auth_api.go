package ports

import (
	"context"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// AuthAPI — эндпоинты аутентификации удалённого API бронирований.
// Bearer-токен подставляет сам клиент.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)

	SendPasswordResetOTP(ctx context.Context, email string) (*domain.MessageResponse, error)
	VerifyPasswordResetOTP(ctx context.Context, email, otp string) (*domain.MessageResponse, error)
	ResetPassword(ctx context.Context, req domain.PasswordReset) (*domain.AuthResponse, error)
}
