package usecase

import (
	"context"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// Значения по умолчанию для реквизитов оплаты, если в настройках они не заданы.
const (
	DefaultCompanyName         = "Perfect Smash"
	DefaultGcashNumber         = "0917-123-4567"
	DefaultPaymentInstructions = "Please send payment to our GCash number and upload proof of payment."
)

// PaymentSettings — реквизиты оплаты для экрана оплаты бронирования.
type PaymentSettings struct {
	CompanyName         string  `json:"company_name"`
	PaymentGcashNumber  string  `json:"payment_gcash_number"`
	PaymentGcashName    string  `json:"payment_gcash_name"`
	PaymentInstructions string  `json:"payment_instructions"`
	PaymentQRCode       *string `json:"payment_qr_code"`
	PaymentQRCodeURL    *string `json:"payment_qr_code_url"`
}

// PaymentUpdate — изменяемые реквизиты оплаты.
type PaymentUpdate struct {
	PaymentGcashNumber  string `json:"payment_gcash_number"`
	PaymentGcashName    string `json:"payment_gcash_name"`
	PaymentInstructions string `json:"payment_instructions"`
}

// PaymentSettingsService — реквизиты оплаты поверх кэша настроек компании.
type PaymentSettingsService struct {
	settings *SettingsService
}

func NewPaymentSettingsService(settings *SettingsService) *PaymentSettingsService {
	return &PaymentSettingsService{settings: settings}
}

// Get — реквизиты оплаты с подстановкой значений по умолчанию.
func (p *PaymentSettingsService) Get(ctx context.Context, useCache bool) (*PaymentSettings, error) {
	snap, err := p.settings.GetSettings(ctx, useCache)
	if err != nil {
		return nil, &domain.FetchError{Message: "Failed to fetch payment settings", Err: err}
	}
	return paymentFrom(snap), nil
}

// Update — записать реквизиты, сохранив текущее название компании
// (читается в обход кэша, чтобы не затереть его устаревшим значением).
func (p *PaymentSettingsService) Update(ctx context.Context, data PaymentUpdate) (*domain.Settings, error) {
	current, err := p.Get(ctx, false)
	if err != nil {
		return nil, &domain.UpdateError{Message: "Failed to update payment settings", Err: err}
	}
	return p.UpdateWithQRCode(ctx, current.CompanyName, data, nil)
}

// UpdateWithQRCode — записать реквизиты и, если qr != nil, загрузить QR-код (multipart).
func (p *PaymentSettingsService) UpdateWithQRCode(
	ctx context.Context,
	companyName string,
	data PaymentUpdate,
	qr *domain.Upload,
) (*domain.Settings, error) {
	if companyName == "" {
		companyName = DefaultCompanyName
	}
	upd := &domain.SettingsUpdate{
		CompanyName:         &companyName,
		PaymentGcashNumber:  &data.PaymentGcashNumber,
		PaymentGcashName:    &data.PaymentGcashName,
		PaymentInstructions: &data.PaymentInstructions,
		PaymentQRCode:       qr,
	}
	res, err := p.settings.UpdateSettings(ctx, upd)
	if err != nil {
		if verr, ok := passValidation(err); ok {
			return nil, verr
		}
		return nil, &domain.UpdateError{Message: messageOr(err, "Failed to update payment settings"), Err: err}
	}
	return res, nil
}

// DeleteQRCode — удалить QR-код оплаты.
func (p *PaymentSettingsService) DeleteQRCode(ctx context.Context) error {
	return p.settings.deleteAsset(ctx, p.settings.api.DeletePaymentQRCode, "Failed to delete payment QR code")
}

func paymentFrom(s *domain.Settings) *PaymentSettings {
	company := nonEmpty(s.CompanyName, DefaultCompanyName)
	return &PaymentSettings{
		CompanyName:         company,
		PaymentGcashNumber:  nonEmpty(s.PaymentGcashNumber, DefaultGcashNumber),
		PaymentGcashName:    nonEmpty(s.PaymentGcashName, company),
		PaymentInstructions: nonEmpty(s.PaymentInstructions, DefaultPaymentInstructions),
		PaymentQRCode:       emptyToNil(s.PaymentQRCode),
		PaymentQRCodeURL:    emptyToNil(s.PaymentQRCodeURL),
	}
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
