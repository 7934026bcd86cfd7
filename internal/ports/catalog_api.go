package ports

import (
	"context"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// CatalogAPI — справочники: виды спорта, корты, праздники.
type CatalogAPI interface {
	Sports(ctx context.Context) ([]domain.Sport, error)
	// Courts — корты вида спорта; sportID == 0 — все корты.
	Courts(ctx context.Context, sportID int64) ([]domain.Court, error)
	Holidays(ctx context.Context) ([]domain.Holiday, error)
}
