package usecase

import (
	"context"
	"time"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/pkg/datefmt"
	"github.com/Gunvolt24/courtdesk/pkg/validate"
)

// Сроки жизни снимка настроек.
const (
	DefaultSettingsTTL      = 5 * time.Minute
	DefaultSettingsShortTTL = 30 * time.Second
)

// ScopeSettings — событие инвалидации после записи настроек.
const ScopeSettings = "settings"

const settingsCacheKey = "settings:company"

// settingsEntry — снимок и момент его загрузки. Запись живёт в кэше TTL долгого варианта;
// короткий вариант сверяет возраст по fetchedAt.
type settingsEntry struct {
	snap      *domain.Settings
	fetchedAt time.Time
}

// SettingsTTL — сроки жизни снимка: TTL для GetSettings, ShortTTL для проверок бронирования.
type SettingsTTL struct {
	TTL      time.Duration
	ShortTTL time.Duration
}

// SettingsService — кэш глобальных настроек компании.
// Любая успешная запись инвалидирует снимок до того, как следующее чтение вернёт значение.
type SettingsService struct {
	api   ports.SettingsAPI
	cache ports.TTLCache
	dedup ports.Deduplicator
	pub   ports.InvalidationPublisher
	log   ports.Logger

	ttl      time.Duration
	shortTTL time.Duration
	now      func() time.Time
	gen      generation
}

// NewSettingsService — DI-конструктор. pub может быть nil (рассылка отключена).
func NewSettingsService(
	api ports.SettingsAPI,
	cache ports.TTLCache,
	dedup ports.Deduplicator,
	pub ports.InvalidationPublisher,
	log ports.Logger,
	ttl SettingsTTL,
) *SettingsService {
	if ttl.TTL <= 0 {
		ttl.TTL = DefaultSettingsTTL
	}
	if ttl.ShortTTL <= 0 {
		ttl.ShortTTL = DefaultSettingsShortTTL
	}
	return &SettingsService{
		api:      api,
		cache:    cache,
		dedup:    dedup,
		pub:      pub,
		log:      log,
		ttl:      ttl.TTL,
		shortTTL: ttl.ShortTTL,
		now:      time.Now,
	}
}

// GetSettings — снимок настроек. useCache=false — всегда свежий запрос
// (проверки, где устаревшие данные приведут к неверному решению).
func (s *SettingsService) GetSettings(ctx context.Context, useCache bool) (*domain.Settings, error) {
	if useCache {
		if e, ok := s.cached(); ok {
			s.log.Debugf(ctx, "settings cache hit")
			return e.snap.Clone(), nil
		}
	}
	snap, err := s.fetch(ctx)
	if err != nil {
		return nil, &domain.FetchError{Message: "Failed to fetch company settings", Err: err}
	}
	return snap.Clone(), nil
}

// GetSettingsCached — вариант с коротким сроком свежести для проверок бронирования.
// Если загрузка не удалась, а в кэше есть снимок, возвращается он.
func (s *SettingsService) GetSettingsCached(ctx context.Context, force bool) (*domain.Settings, error) {
	e, held := s.cached()
	if !force && held && s.now().Sub(e.fetchedAt) < s.shortTTL {
		return e.snap.Clone(), nil
	}
	snap, err := s.fetch(ctx)
	if err != nil {
		if held {
			s.log.Warnf(ctx, "settings fetch failed, serving snapshot from %s: %v",
				e.fetchedAt.Format(time.RFC3339), err)
			return e.snap.Clone(), nil
		}
		return nil, &domain.FetchError{Message: "Failed to fetch company settings", Err: err}
	}
	return snap.Clone(), nil
}

// ClearSettingsCache — сбросить снимок (общий для обоих вариантов).
func (s *SettingsService) ClearSettingsCache() {
	s.gen.invalidate(func() { s.cache.Delete(settingsCacheKey) })
}

// UpdateSettings — запись настроек: инвалидация, запись, повторная инвалидация.
// Первая не даёт параллельному чтению вернуть в кэш данные до записи,
// вторая закрывает гонку с чтением, завершившимся во время записи.
func (s *SettingsService) UpdateSettings(ctx context.Context, upd *domain.SettingsUpdate) (*domain.Settings, error) {
	if err := validate.SettingsUpdate(upd); err != nil {
		return nil, err
	}

	s.ClearSettingsCache()
	res, err := s.api.UpdateCompanySettings(ctx, upd)
	s.ClearSettingsCache()

	if err != nil {
		if verr, ok := passValidation(err); ok {
			return nil, verr
		}
		s.log.Errorf(ctx, "update company settings failed: %v", err)
		return nil, &domain.UpdateError{Message: messageOr(err, "Failed to update company settings"), Err: err}
	}

	s.publish(ctx)
	s.log.Infof(ctx, "company settings updated multipart=%t", upd.HasFile())
	return res, nil
}

// DeleteLogo — удалить логотип компании.
func (s *SettingsService) DeleteLogo(ctx context.Context) error {
	return s.deleteAsset(ctx, s.api.DeleteCompanyLogo, "Failed to delete company logo")
}

// IsUserBookingEnabled — разрешены ли бронирования обычным пользователям.
// Отсутствующий в снимке флаг означает "разрешены".
func (s *SettingsService) IsUserBookingEnabled(ctx context.Context) (bool, error) {
	snap, err := s.GetSettingsCached(ctx, false)
	if err != nil {
		return false, err
	}
	return snap.BookingEnabled(), nil
}

// CanUserCreateBookings — admin и staff всегда; обычный пользователь — по флагу настроек.
// При ошибке разрешает: настоящую проверку выполняет сервер.
func (s *SettingsService) CanUserCreateBookings(ctx context.Context, role string) bool {
	if role == "" {
		role = domain.RoleUser
	}
	if domain.IsPrivileged(role) {
		return true
	}
	enabled, err := s.IsUserBookingEnabled(ctx)
	if err != nil {
		s.log.Warnf(ctx, "booking permission check failed, allowing: %v", err)
		return true
	}
	return enabled
}

// IsDateBlocked — закрыта ли дата для бронирований пользователем с ролью role.
// Настройки всегда читаются в обход кэша. При ошибке дата считается открытой.
func (s *SettingsService) IsDateBlocked(ctx context.Context, date, role string) domain.BlockStatus {
	if domain.IsPrivileged(role) {
		return domain.BlockStatus{}
	}
	day, err := datefmt.ParseDay(date, time.Local)
	if err != nil {
		s.log.Warnf(ctx, "blocked date check skipped, bad date %q: %v", date, err)
		return domain.BlockStatus{}
	}
	snap, err := s.GetSettings(ctx, false)
	if err != nil {
		s.log.Warnf(ctx, "blocked date check failed, allowing: %v", err)
		return domain.BlockStatus{}
	}
	return domain.FirstBlocking(snap.BlockedDates, day)
}

// ------вспомогательные функции------

func (s *SettingsService) cached() (settingsEntry, bool) {
	v, ok := s.cache.Get(settingsCacheKey)
	if !ok {
		return settingsEntry{}, false
	}
	e, ok := v.(settingsEntry)
	if !ok || e.snap == nil {
		return settingsEntry{}, false
	}
	return e, true
}

// fetch — загрузка через дедупликатор; в кэш попадает только снимок
// текущего поколения.
func (s *SettingsService) fetch(ctx context.Context) (*domain.Settings, error) {
	snap := s.gen.snapshot()
	v, err := s.dedup.Do(ctx, dedupKey(settingsCacheKey, snap), func(ctx context.Context) (any, error) {
		settings, err := s.api.CompanySettings(ctx)
		if err != nil {
			return nil, err
		}
		if committed, _ := s.gen.commit(snap, func() error {
			s.cache.Set(settingsCacheKey, settingsEntry{snap: settings, fetchedAt: s.now()}, s.ttl)
			return nil
		}); !committed {
			s.log.Debugf(ctx, "settings invalidated during fetch, result not cached")
		}
		return settings, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Settings), nil
}

func (s *SettingsService) deleteAsset(ctx context.Context, call func(context.Context) error, defMsg string) error {
	s.ClearSettingsCache()
	err := call(ctx)
	s.ClearSettingsCache()
	if err != nil {
		s.log.Errorf(ctx, "%s: %v", defMsg, err)
		return &domain.UpdateError{Message: messageOr(err, defMsg), Err: err}
	}
	s.publish(ctx)
	return nil
}

func (s *SettingsService) publish(ctx context.Context) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ScopeSettings); err != nil {
		s.log.Warnf(ctx, "publish settings invalidation failed: %v", err)
	}
}
