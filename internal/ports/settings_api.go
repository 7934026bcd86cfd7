package ports

import (
	"context"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// SettingsAPI — эндпоинты глобальных настроек компании.
type SettingsAPI interface {
	CompanySettings(ctx context.Context) (*domain.Settings, error)
	// UpdateCompanySettings — JSON PUT либо multipart POST (_method=PUT), если в обновлении есть файл.
	UpdateCompanySettings(ctx context.Context, upd *domain.SettingsUpdate) (*domain.Settings, error)
	DeleteCompanyLogo(ctx context.Context) error
	DeletePaymentQRCode(ctx context.Context) error
}
