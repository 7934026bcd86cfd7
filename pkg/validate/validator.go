// Пакет validate — проверка пользовательского ввода до обращения к API бронирований.
// Правила задаются тегами `validate` на доменных структурах (go-playground/validator),
// ошибки собираются в *domain.ValidationError с сообщениями в стиле бэкенда.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/pkg/datefmt"
)

// MaxUploadSize — предельный размер логотипа и QR-кода оплаты (как на бэкенде, 2 МБ).
const MaxUploadSize = 2 << 20

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках — имена полей из JSON, как их видит бэкенд.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Credentials — данные входа.
func Credentials(c domain.Credentials) error {
	return check(c)
}

// Registration — данные регистрации.
func Registration(r domain.Registration) error {
	return check(r)
}

// PasswordReset — данные установки нового пароля.
func PasswordReset(r domain.PasswordReset) error {
	return check(r)
}

// Email — адрес для запроса кода сброса пароля.
func Email(email string) error {
	if err := structValidator.Var(email, "required,email"); err != nil {
		return translate(err, "email")
	}
	return nil
}

// OTPRequest — адрес и код подтверждения.
func OTPRequest(email, otp string) error {
	verr := &domain.ValidationError{}
	if err := structValidator.Var(email, "required,email"); err != nil {
		merge(verr, translate(err, "email"))
	}
	if err := structValidator.Var(otp, "required,len=6,numeric"); err != nil {
		merge(verr, translate(err, "otp"))
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// SettingsUpdate — частичное обновление настроек: теги полей, затем правила,
// которые тегами не выражаются (непустое имя, порядок дат диапазона, размер файлов).
func SettingsUpdate(u *domain.SettingsUpdate) error {
	if u == nil {
		return domain.NewValidationError("settings", "The settings payload is required.")
	}
	verr := &domain.ValidationError{}
	if err := structValidator.Struct(u); err != nil {
		merge(verr, translate(err, ""))
	}

	if u.CompanyName != nil && strings.TrimSpace(*u.CompanyName) == "" {
		verr.Add("company_name", "The company name field is required.")
	}
	for i, r := range u.BlockedDates {
		checkRange(verr, i, r)
	}
	checkUpload(verr, "company_logo", u.Logo)
	checkUpload(verr, "payment_qr_code", u.PaymentQRCode)

	if verr.Empty() {
		return nil
	}
	return verr
}

// ------вспомогательные функции------

func check(v any) error {
	if err := structValidator.Struct(v); err != nil {
		return translate(err, "")
	}
	return nil
}

func checkRange(verr *domain.ValidationError, i int, r domain.BlockedDateRange) {
	prefix := fmt.Sprintf("blocked_dates.%d.", i)
	start, err := datefmt.ParseDay(r.StartDate, time.UTC)
	if r.StartDate != "" && err != nil {
		verr.Add(prefix+"start_date", "The start date is not a valid date.")
	}
	if r.EndDate == nil || *r.EndDate == "" {
		return
	}
	end, endErr := datefmt.ParseDay(*r.EndDate, time.UTC)
	switch {
	case endErr != nil:
		verr.Add(prefix+"end_date", "The end date is not a valid date.")
	case err == nil && end.Before(start):
		verr.Add(prefix+"end_date", "The end date must be a date after or equal to start date.")
	}
}

func checkUpload(verr *domain.ValidationError, field string, up *domain.Upload) {
	if up == nil {
		return
	}
	label := strings.ReplaceAll(field, "_", " ")
	switch {
	case len(up.Data) == 0:
		verr.Add(field, fmt.Sprintf("The %s must be a file.", label))
	case len(up.Data) > MaxUploadSize:
		verr.Add(field, fmt.Sprintf("The %s may not be greater than 2048 kilobytes.", label))
	}
}

func merge(dst *domain.ValidationError, err error) {
	var src *domain.ValidationError
	if !errors.As(err, &src) {
		return
	}
	for field, msgs := range src.Fields {
		for _, m := range msgs {
			dst.Add(field, m)
		}
	}
}

// translate — ошибки validator в *domain.ValidationError.
// field задаётся для проверок Var, где имени поля нет.
func translate(err error, field string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fieldPath(fe.Namespace())
		}
		verr.Add(name, message(fe, name))
	}
	return verr
}

// fieldPath — "SettingsUpdate.blocked_dates[0].start_date" → "blocked_dates.0.start_date".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func message(fe validator.FieldError, path string) string {
	label := path
	if i := strings.LastIndex(label, "."); i >= 0 {
		label = label[i+1:]
	}
	label = strings.ReplaceAll(label, "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "len":
		return fmt.Sprintf("The %s must be %s characters.", label, fe.Param())
	case "numeric":
		return fmt.Sprintf("The %s must be a number.", label)
	case "eqfield":
		return "The password confirmation does not match."
	case "hexcolor":
		return fmt.Sprintf("The %s must be a valid hex color.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
