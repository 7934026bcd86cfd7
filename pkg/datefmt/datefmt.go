// Пакет datefmt — разбор и форматирование дат бронирований без сдвига на часовой пояс.
// Дата бронирования — это календарный день, а не момент времени: "2025-12-24"
// должен оставаться 24 декабря в любом поясе агента.
package datefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate — строку не удалось разобрать как дату.
var ErrInvalidDate = errors.New("invalid date")

const dayLayout = "2006-01-02"

// Day — календарный день: полночь UTC соответствующей даты.
// Сравнивать дни можно через Before/After/Equal.
type Day = time.Time

// ParseDay — разбирает строку в календарный день.
// Поддерживаются "YYYY-MM-DD", "YYYY-MM-DD HH:MM:SS", "YYYY-MM-DDTHH:MM:SS" (часть времени отбрасывается)
// и метки с поясом (RFC3339 / с долями секунды) — такие сначала переводятся в loc,
// чтобы UTC-полночь локального дня не сдвигала дату назад.
func ParseDay(s string, loc *time.Location) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if loc == nil {
		loc = time.Local
	}

	if strings.Contains(s, "T") && hasZone(s) {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		y, m, d := ts.In(loc).Date()
		return dayOf(y, m, d)
	}

	datePart := s
	if i := strings.IndexAny(s, "T "); i >= 0 {
		datePart = s[:i]
	}
	t, err := time.Parse(dayLayout, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return dayOf(t.Date())
}

// FormatDateLocal — "YYYY-MM-DD" для момента времени в поясе loc.
func FormatDateLocal(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayLayout)
}

// FormatBookingDate — "Mon, Jan 15, 2025" или "Unknown", если дату не разобрать
// или год вне диапазона 1900..2100.
func FormatBookingDate(s string, loc *time.Location) string {
	day, err := ParseDay(s, loc)
	if err != nil {
		return "Unknown"
	}
	return day.Format("Mon, Jan 2, 2006")
}

// FormatDateLong — "Monday, January 15, 2025" или пустая строка.
func FormatDateLong(s string, loc *time.Location) string {
	day, err := ParseDay(s, loc)
	if err != nil {
		return ""
	}
	return day.Format("Monday, January 2, 2006")
}

// hasZone — в строке после "T" есть Z или смещение пояса.
func hasZone(s string) bool {
	t := s[strings.Index(s, "T"):]
	return strings.HasSuffix(s, "Z") || strings.ContainsAny(t, "+") || strings.Count(t, "-") > 0
}

func dayOf(y int, m time.Month, d int) (Day, error) {
	if y < 1900 || y > 2100 {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDate, y)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
