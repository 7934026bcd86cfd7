package domain

// Роли пользователей, которые приходят от бэкенда.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// User — идентичность текущей сессии (ответ GET /user и поле user в ответе /login).
type User struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
	EmailVerifiedAt *string `json:"email_verified_at,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// IsPrivileged — admin и staff не подпадают под пользовательские ограничения бронирования.
func IsPrivileged(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

// Clone — копия пользователя, чтобы вызывающий код не менял закэшированный экземпляр.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cloned := *u
	return &cloned
}

// Credentials — тело POST /login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration — тело POST /register.
type Registration struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	PhoneNumber          string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
}

// PasswordReset — тело POST /reset-password.
type PasswordReset struct {
	Email                string `json:"email" validate:"required,email"`
	OTP                  string `json:"otp" validate:"required,len=6,numeric"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// AuthResponse — ответ /login, /register и /reset-password.
// Token и User заполнены только при Success=true.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// MessageResponse — ответ эндпоинтов сброса пароля без выдачи сессии.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
