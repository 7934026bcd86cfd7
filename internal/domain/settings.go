package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Gunvolt24/courtdesk/pkg/datefmt"
)

// Flag — булево значение настроек в любой из форм, которые отдаёт бэкенд:
// true/false, 1/0, "1"/"0", "true"/"false". Всё прочее — false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// BlockedDateRange — диапазон дат, закрытых для пользовательских бронирований.
// EndDate == nil — блокировка без конца, начиная со StartDate.
type BlockedDateRange struct {
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   *string `json:"end_date"`
	Reason    string  `json:"reason" validate:"max=255"`
}

// Contains — попадает ли календарный день в диапазон (границы включительно).
// Диапазон с неразбираемыми датами не блокирует ничего.
func (r BlockedDateRange) Contains(day datefmt.Day) bool {
	start, err := datefmt.ParseDay(r.StartDate, time.UTC)
	if err != nil || day.Before(start) {
		return false
	}
	if r.EndDate == nil || *r.EndDate == "" {
		return true
	}
	end, err := datefmt.ParseDay(*r.EndDate, time.UTC)
	if err != nil {
		return false
	}
	return !day.After(end)
}

// BlockStatus — результат проверки даты бронирования.
type BlockStatus struct {
	IsBlocked bool   `json:"is_blocked"`
	Reason    string `json:"reason,omitempty"`
}

// FirstBlocking — причина первого диапазона, содержащего день.
func FirstBlocking(ranges []BlockedDateRange, day datefmt.Day) BlockStatus {
	for _, r := range ranges {
		if r.Contains(day) {
			return BlockStatus{IsBlocked: true, Reason: r.Reason}
		}
	}
	return BlockStatus{}
}

// Settings — снимок глобальных настроек компании (GET /company-settings).
type Settings struct {
	CompanyName    string  `json:"company_name"`
	CompanyLogo    *string `json:"company_logo,omitempty"`
	CompanyLogoURL *string `json:"company_logo_url,omitempty"`

	ContactEmail  string `json:"contact_email,omitempty"`
	ContactMobile string `json:"contact_mobile,omitempty"`
	ContactViber  string `json:"contact_viber,omitempty"`

	PaymentGcashNumber  string  `json:"payment_gcash_number,omitempty"`
	PaymentGcashName    string  `json:"payment_gcash_name,omitempty"`
	PaymentInstructions string  `json:"payment_instructions,omitempty"`
	PaymentQRCode       *string `json:"payment_qr_code,omitempty"`
	PaymentQRCodeURL    *string `json:"payment_qr_code_url,omitempty"`

	ThemePrimaryColor    string `json:"theme_primary_color,omitempty"`
	ThemeSecondaryColor  string `json:"theme_secondary_color,omitempty"`
	ThemeBackgroundColor string `json:"theme_background_color,omitempty"`
	ThemeMode            string `json:"theme_mode,omitempty"`

	DashboardWelcomeMessage     string `json:"dashboard_welcome_message,omitempty"`
	DashboardAnnouncement       string `json:"dashboard_announcement,omitempty"`
	DashboardShowStats          *Flag  `json:"dashboard_show_stats,omitempty"`
	DashboardShowRecentBookings *Flag  `json:"dashboard_show_recent_bookings,omitempty"`

	// UserBookingEnabled == nil — снимок старше флага; трактуется как "включено".
	// Явный null в ответе бэкенда означает "выключено".
	UserBookingEnabled *Flag `json:"user_booking_enabled,omitempty"`

	BlockedDates []BlockedDateRange `json:"blocked_dates,omitempty"`
}

// UnmarshalJSON различает отсутствующий флаг бронирований и явный null.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type plain Settings
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.UserBookingEnabled == nil {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		if _, present := fields["user_booking_enabled"]; present {
			disabled := Flag(false)
			p.UserBookingEnabled = &disabled
		}
	}
	*s = Settings(p)
	return nil
}

// BookingEnabled — флаг пользовательских бронирований с обратной совместимостью.
func (s *Settings) BookingEnabled() bool {
	if s == nil || s.UserBookingEnabled == nil {
		return true
	}
	return bool(*s.UserBookingEnabled)
}

// Clone — копия снимка (срезы копируются, строки-указатели разделяются: они не меняются).
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	cloned := *s
	if s.BlockedDates != nil {
		cloned.BlockedDates = append([]BlockedDateRange(nil), s.BlockedDates...)
	}
	return &cloned
}

// Upload — бинарный файл для multipart-обновления (логотип, QR-код оплаты).
type Upload struct {
	Filename string
	Data     []byte
}

// SettingsUpdate — частичное обновление настроек. nil-поля не отправляются.
// BlockedDates отправляется, если срез не nil: пустой срез снимает все блокировки.
// При наличии Logo или PaymentQRCode запрос уходит как multipart/form-data.
type SettingsUpdate struct {
	CompanyName   *string `json:"company_name,omitempty" validate:"omitempty,max=255"`
	ContactEmail  *string `json:"contact_email,omitempty" validate:"omitempty,email,max=255"`
	ContactMobile *string `json:"contact_mobile,omitempty" validate:"omitempty,max=20"`
	ContactViber  *string `json:"contact_viber,omitempty" validate:"omitempty,max=20"`

	PaymentGcashNumber  *string `json:"payment_gcash_number,omitempty" validate:"omitempty,max=20"`
	PaymentGcashName    *string `json:"payment_gcash_name,omitempty" validate:"omitempty,max=255"`
	PaymentInstructions *string `json:"payment_instructions,omitempty" validate:"omitempty,max=1000"`

	ThemePrimaryColor    *string `json:"theme_primary_color,omitempty" validate:"omitempty,hexcolor"`
	ThemeSecondaryColor  *string `json:"theme_secondary_color,omitempty" validate:"omitempty,hexcolor"`
	ThemeBackgroundColor *string `json:"theme_background_color,omitempty" validate:"omitempty,hexcolor"`
	ThemeMode            *string `json:"theme_mode,omitempty" validate:"omitempty,oneof=light dark"`

	DashboardWelcomeMessage     *string `json:"dashboard_welcome_message,omitempty" validate:"omitempty,max=500"`
	DashboardAnnouncement       *string `json:"dashboard_announcement,omitempty" validate:"omitempty,max=1000"`
	DashboardShowStats          *bool   `json:"dashboard_show_stats,omitempty"`
	DashboardShowRecentBookings *bool   `json:"dashboard_show_recent_bookings,omitempty"`
	UserBookingEnabled          *bool   `json:"user_booking_enabled,omitempty"`

	BlockedDates []BlockedDateRange `json:"blocked_dates" validate:"omitempty,dive"`

	Logo          *Upload `json:"-"`
	PaymentQRCode *Upload `json:"-"`
}

// MarshalJSON — тело JSON PUT: nil-срез BlockedDates опускается, пустой уходит как [].
func (u SettingsUpdate) MarshalJSON() ([]byte, error) {
	type plain SettingsUpdate
	aux := struct {
		plain
		BlockedDates *[]BlockedDateRange `json:"blocked_dates,omitempty"`
	}{plain: plain(u)}
	if u.BlockedDates != nil {
		aux.BlockedDates = &u.BlockedDates
	}
	return json.Marshal(aux)
}

// HasFile — нужен ли multipart.
func (u *SettingsUpdate) HasFile() bool {
	return u.Logo != nil || u.PaymentQRCode != nil
}

// FormFields — текстовые поля multipart-формы в порядке отправки.
// Булевы значения кодируются как "1"/"0", диапазоны — JSON-строкой.
func (u *SettingsUpdate) FormFields() ([][2]string, error) {
	var fields [][2]string
	add := func(name string, v *string) {
		if v != nil {
			fields = append(fields, [2]string{name, *v})
		}
	}
	addBool := func(name string, v *bool) {
		if v != nil {
			fields = append(fields, [2]string{name, boolDigit(*v)})
		}
	}

	add("company_name", u.CompanyName)
	add("contact_email", u.ContactEmail)
	add("contact_mobile", u.ContactMobile)
	add("contact_viber", u.ContactViber)
	add("payment_gcash_number", u.PaymentGcashNumber)
	add("payment_gcash_name", u.PaymentGcashName)
	add("payment_instructions", u.PaymentInstructions)
	add("theme_primary_color", u.ThemePrimaryColor)
	add("theme_secondary_color", u.ThemeSecondaryColor)
	add("theme_background_color", u.ThemeBackgroundColor)
	add("theme_mode", u.ThemeMode)
	add("dashboard_welcome_message", u.DashboardWelcomeMessage)
	add("dashboard_announcement", u.DashboardAnnouncement)
	addBool("dashboard_show_stats", u.DashboardShowStats)
	addBool("dashboard_show_recent_bookings", u.DashboardShowRecentBookings)
	addBool("user_booking_enabled", u.UserBookingEnabled)

	if u.BlockedDates != nil {
		raw, err := json.Marshal(u.BlockedDates)
		if err != nil {
			return nil, err
		}
		fields = append(fields, [2]string{"blocked_dates", string(raw)})
	}

	// Laravel не принимает файлы в PUT: POST с подменой метода.
	fields = append(fields, [2]string{"_method", "PUT"})
	return fields, nil
}

func boolDigit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
