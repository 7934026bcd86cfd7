package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/pkg/validate"
)

// Ключи долговременного хранилища.
const (
	StorageKeyToken = "token"
	StorageKeyUser  = "user"
)

// DefaultUserTTL — сколько живёт идентичность в памяти: ограничивает,
// как долго смена роли на сервере может оставаться незамеченной.
const DefaultUserTTL = time.Minute

const userCacheKey = "auth:user"

// AuthService — кэш сессии и идентичности текущего пользователя.
// Для решений о доступе используются только GetCurrentUser, IsAdmin и GetUserRole:
// при любой неопределённости они отказывают, а не угадывают.
type AuthService struct {
	api   ports.AuthAPI
	store ports.Storage
	cache ports.TTLCache
	dedup ports.Deduplicator
	log   ports.Logger

	userTTL time.Duration
	gen     generation
}

// NewAuthService — DI-конструктор. userTTL <= 0 — DefaultUserTTL.
func NewAuthService(
	api ports.AuthAPI,
	store ports.Storage,
	cache ports.TTLCache,
	dedup ports.Deduplicator,
	log ports.Logger,
	userTTL time.Duration,
) *AuthService {
	if userTTL <= 0 {
		userTTL = DefaultUserTTL
	}
	return &AuthService{
		api:     api,
		store:   store,
		cache:   cache,
		dedup:   dedup,
		log:     log,
		userTTL: userTTL,
	}
}

// TokenFromStorage — источник bearer-токена для клиента API.
func TokenFromStorage(store ports.Storage) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		token, _, err := store.Get(ctx, StorageKeyToken)
		return token, err
	}
}

// Login — вход. Токен и пользователь сохраняются в хранилище; кэш в памяти
// только очищается: первый GetCurrentUser после входа загрузит свежие данные.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	if err := validate.Credentials(creds); err != nil {
		return nil, err
	}
	resp, err := s.api.Login(ctx, creds)
	return s.establish(ctx, resp, err, "Login failed")
}

// Register — регистрация; при успехе сессия устанавливается так же, как при входе.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
	if err := validate.Registration(reg); err != nil {
		return nil, err
	}
	resp, err := s.api.Register(ctx, reg)
	return s.establish(ctx, resp, err, "Registration failed")
}

// Logout — выход. Удалённый вызов best-effort; локальная сессия очищается всегда.
func (s *AuthService) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warnf(ctx, "remote logout failed, clearing local session anyway: %v", err)
	}
	s.gen.invalidate(func() { s.cache.Delete(userCacheKey) })

	for _, key := range []string{StorageKeyToken, StorageKeyUser} {
		if err := s.store.Remove(ctx, key); err != nil {
			s.log.Errorf(ctx, "storage remove %s failed: %v", key, err)
		}
	}
	s.log.Infof(ctx, "session cleared")
}

// ClearUserCache — сбросить идентичность в памяти (хранилище не трогается).
func (s *AuthService) ClearUserCache() {
	s.gen.invalidate(func() { s.cache.Delete(userCacheKey) })
}

// GetUser — текущий пользователь из кэша (в пределах TTL) или с сервера.
// Любой сбой очищает кэш и зеркало в хранилище и возвращается как *domain.FetchError.
func (s *AuthService) GetUser(ctx context.Context, force bool) (*domain.User, error) {
	u, err := s.loadUser(ctx, force)
	if err != nil {
		return nil, &domain.FetchError{Message: "Failed to get user data", Err: err}
	}
	return u, nil
}

// GetCurrentUser — то же, что GetUser, но без токена и при любой ошибке возвращает nil.
// Именно этот метод используется для проверок доступа.
func (s *AuthService) GetCurrentUser(ctx context.Context, force bool) *domain.User {
	if !s.IsAuthenticated(ctx) {
		s.ClearUserCache()
		return nil
	}
	u, err := s.loadUser(ctx, force)
	if err != nil {
		s.log.Warnf(ctx, "failed to fetch current user, returning nil: %v", err)
		return nil
	}
	return u
}

// IsAuthenticated — есть ли токен. Валидность токена на сервере не проверяется.
func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	token, ok, err := s.store.Get(ctx, StorageKeyToken)
	if err != nil {
		s.log.Warnf(ctx, "storage get token failed: %v", err)
		return false
	}
	return ok && token != ""
}

// IsAdmin — роль admin; при ошибке false.
func (s *AuthService) IsAdmin(ctx context.Context) bool {
	u, err := s.GetUser(ctx, false)
	if err != nil {
		return false
	}
	return u.Role == domain.RoleAdmin
}

// GetUserRole — роль текущего пользователя; при ошибке "user".
func (s *AuthService) GetUserRole(ctx context.Context) string {
	u, err := s.GetUser(ctx, false)
	if err != nil || u.Role == "" {
		return domain.RoleUser
	}
	return u.Role
}

// RefreshUserData — безусловная перезагрузка пользователя (например, после смены роли).
// Без токена возвращает (nil, nil).
func (s *AuthService) RefreshUserData(ctx context.Context) (*domain.User, error) {
	s.ClearUserCache()
	if !s.IsAuthenticated(ctx) {
		return nil, nil
	}
	u, err := s.loadUser(ctx, true)
	if err != nil {
		s.log.Errorf(ctx, "failed to refresh user data: %v", err)
		return nil, &domain.FetchError{Message: "Failed to refresh user data", Err: err}
	}
	return u, nil
}

// GetCachedUser — пользователь из хранилища, без сети. Может быть устаревшим:
// только для отображения, не для решений о доступе.
func (s *AuthService) GetCachedUser(ctx context.Context) *domain.User {
	raw, ok, err := s.store.Get(ctx, StorageKeyUser)
	if err != nil {
		s.log.Warnf(ctx, "storage get user failed: %v", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Errorf(ctx, "failed to parse cached user data: %v", err)
		return nil
	}
	return &u
}

// SendPasswordResetOTP — запросить код сброса пароля на email.
func (s *AuthService) SendPasswordResetOTP(ctx context.Context, email string) (*domain.MessageResponse, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	resp, err := s.api.SendPasswordResetOTP(ctx, email)
	return checkMessage(resp, err, "Failed to send password reset code")
}

// VerifyPasswordResetOTP — проверить код сброса пароля.
func (s *AuthService) VerifyPasswordResetOTP(ctx context.Context, email, otp string) (*domain.MessageResponse, error) {
	if err := validate.OTPRequest(email, otp); err != nil {
		return nil, err
	}
	resp, err := s.api.VerifyPasswordResetOTP(ctx, email, otp)
	return checkMessage(resp, err, "Failed to verify code")
}

// ResetPassword — установить новый пароль. Если сервер выдал токен,
// сессия устанавливается так же, как при входе.
func (s *AuthService) ResetPassword(ctx context.Context, req domain.PasswordReset) (*domain.AuthResponse, error) {
	if err := validate.PasswordReset(req); err != nil {
		return nil, err
	}
	resp, err := s.api.ResetPassword(ctx, req)
	if err != nil {
		if verr, ok := passValidation(err); ok {
			return nil, verr
		}
		return nil, &domain.AuthenticationError{Message: messageOr(err, "Failed to reset password"), Err: err}
	}
	if !resp.Success {
		return nil, &domain.AuthenticationError{Message: nonEmpty(resp.Message, "Failed to reset password")}
	}
	if resp.Token == "" {
		return resp, nil
	}
	return s.establish(ctx, resp, nil, "Failed to reset password")
}

// ------вспомогательные функции------

// establish — общая часть Login/Register/ResetPassword: разбор ответа и сохранение сессии.
func (s *AuthService) establish(ctx context.Context, resp *domain.AuthResponse, err error, defMsg string) (*domain.AuthResponse, error) {
	if err != nil {
		if verr, ok := passValidation(err); ok {
			return nil, verr
		}
		s.log.Warnf(ctx, "%s: %v", defMsg, err)
		return nil, &domain.AuthenticationError{Message: messageOr(err, defMsg), Err: err}
	}
	if resp == nil || !resp.Success {
		msg := defMsg
		if resp != nil {
			msg = nonEmpty(resp.Message, defMsg)
		}
		return nil, &domain.AuthenticationError{Message: msg}
	}
	if resp.Token == "" {
		return nil, &domain.AuthenticationError{Message: defMsg, Err: errors.New("response has no token")}
	}

	// Новая сессия: всё, что было загружено для прежней, больше не годится.
	s.ClearUserCache()

	if err := s.store.Set(ctx, StorageKeyToken, resp.Token); err != nil {
		return nil, &domain.AuthenticationError{Message: defMsg, Err: fmt.Errorf("persist token: %w", err)}
	}
	if resp.User != nil {
		if err := s.persistUser(ctx, resp.User); err != nil {
			return nil, &domain.AuthenticationError{Message: defMsg, Err: err}
		}
	} else if err := s.store.Remove(ctx, StorageKeyUser); err != nil {
		s.log.Warnf(ctx, "storage remove user failed: %v", err)
	}

	s.log.Infof(ctx, "session established")
	return resp, nil
}

// loadUser — кэш или сеть. Запрос идёт через дедупликатор; запись в кэш и
// в хранилище — одна операция, и выполняется только если поколение не сменилось.
func (s *AuthService) loadUser(ctx context.Context, force bool) (*domain.User, error) {
	if !force {
		if v, ok := s.cache.Get(userCacheKey); ok {
			if u, ok := v.(*domain.User); ok {
				s.log.Debugf(ctx, "user cache hit")
				return u.Clone(), nil
			}
		}
	}

	snap := s.gen.snapshot()
	v, err := s.dedup.Do(ctx, dedupKey(userCacheKey, snap), func(ctx context.Context) (any, error) {
		u, err := s.api.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errors.New("empty user payload")
		}
		_, err = s.gen.commit(snap, func() error {
			if err := s.persistUser(ctx, u); err != nil {
				return err
			}
			s.cache.Set(userCacheKey, u, s.userTTL)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return u, nil
	})
	if err != nil {
		// Отмена ожидания вызывающим — не сбой загрузки: общий запрос продолжается.
		if ctx.Err() == nil {
			s.dropUser(ctx, snap)
		}
		return nil, err
	}
	return v.(*domain.User).Clone(), nil
}

// dropUser — сбросить кэш и зеркало в хранилище после неудачной загрузки,
// если за это время не началась новая сессия.
func (s *AuthService) dropUser(ctx context.Context, snap uint64) {
	_, _ = s.gen.commit(snap, func() error {
		s.cache.Delete(userCacheKey)
		if err := s.store.Remove(ctx, StorageKeyUser); err != nil {
			s.log.Warnf(ctx, "storage remove user failed: %v", err)
		}
		return nil
	})
}

func (s *AuthService) persistUser(ctx context.Context, u *domain.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.store.Set(ctx, StorageKeyUser, string(raw)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func checkMessage(resp *domain.MessageResponse, err error, defMsg string) (*domain.MessageResponse, error) {
	if err != nil {
		if verr, ok := passValidation(err); ok {
			return nil, verr
		}
		return nil, &domain.AuthenticationError{Message: messageOr(err, defMsg), Err: err}
	}
	if resp == nil || !resp.Success {
		msg := defMsg
		if resp != nil {
			msg = nonEmpty(resp.Message, defMsg)
		}
		return nil, &domain.AuthenticationError{Message: msg}
	}
	return resp, nil
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
