package domain

import (
	"time"

	"github.com/Gunvolt24/courtdesk/pkg/datefmt"
)

// Sport — вид спорта (GET /sports).
type Sport struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	PricePerHour float64 `json:"price_per_hour,omitempty"`
	IsActive     bool    `json:"is_active"`
}

// Court — корт (GET /courts).
type Court struct {
	ID          int64   `json:"id"`
	SportID     int64   `json:"sport_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Surface     string  `json:"surface_type,omitempty"`
	Status      string  `json:"status,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// Holiday — праздник (GET /admin/holidays).
type Holiday struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Date                 string `json:"date"`
	IsRecurring          bool   `json:"is_recurring"`
	NoBusinessOperations bool   `json:"no_business_operations"`
}

// HasNoBusinessOperations — есть ли на дату нерабочий праздник:
// точное совпадение даты или ежегодный праздник с тем же месяцем и днём.
func HasNoBusinessOperations(date string, holidays []Holiday) bool {
	day, err := datefmt.ParseDay(date, time.Local)
	if err != nil {
		return false
	}
	for _, h := range holidays {
		if !h.NoBusinessOperations {
			continue
		}
		hd, err := datefmt.ParseDay(h.Date, time.Local)
		if err != nil {
			continue
		}
		if hd.Equal(day) {
			return true
		}
		if h.IsRecurring && hd.Month() == day.Month() && hd.Day() == day.Day() {
			return true
		}
	}
	return false
}
