package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/pkg/datefmt"
)

// role — роль текущего пользователя для подсказок бронирования;
// без сессии — "user" (самая ограниченная роль).
func (h *Handler) role(c *gin.Context) string {
	if u := userFrom(c); u != nil {
		return u.Role
	}
	if u := h.auth.GetCurrentUser(c.Request.Context(), false); u != nil {
		return u.Role
	}
	return domain.RoleUser
}

func (h *Handler) bookingEligibility(c *gin.Context) {
	allowed := h.settings.CanUserCreateBookings(c.Request.Context(), h.role(c))
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

func (h *Handler) dateBlocked(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	st := h.settings.IsDateBlocked(c.Request.Context(), date, h.role(c))
	resp := gin.H{
		"is_blocked":   st.IsBlocked,
		"display_date": datefmt.FormatBookingDate(date, time.Local),
	}
	if st.Reason != "" {
		resp["reason"] = st.Reason
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) sports(c *gin.Context) {
	list, err := h.catalog.Sports(c.Request.Context())
	if err != nil {
		h.writeError(c, "sports", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) courts(c *gin.Context) {
	var sportID int64
	if v := c.Query("sport_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sport_id"})
			return
		}
		sportID = id
	}
	list, err := h.catalog.Courts(c.Request.Context(), sportID)
	if err != nil {
		h.writeError(c, "courts", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) holidays(c *gin.Context) {
	list, err := h.catalog.Holidays(c.Request.Context())
	if err != nil {
		h.writeError(c, "holidays", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// nonOperatingDay — без date проверяется сегодняшний день в поясе агента.
func (h *Handler) nonOperatingDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = datefmt.FormatDateLocal(time.Now(), time.Local)
	}
	if _, err := datefmt.ParseDay(date, time.Local); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "detail": err.Error()})
		return
	}
	closed, err := h.catalog.IsNonOperatingDay(c.Request.Context(), date)
	if err != nil {
		h.writeError(c, "non-operating day", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":          date,
		"display_date":  datefmt.FormatDateLong(date, time.Local),
		"non_operating": closed,
	})
}
