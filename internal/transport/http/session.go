package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

func (h *Handler) login(c *gin.Context) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		h.writeError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) register(c *gin.Context) {
	var reg domain.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.auth.Register(c.Request.Context(), reg)
	if err != nil {
		h.writeError(c, "register", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// logout — всегда 204: локальная сессия очищается даже при сбое на сервере.
func (h *Handler) logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// currentUser — идентичность для решений о доступе; при любой неопределённости 401.
func (h *Handler) currentUser(c *gin.Context) {
	u := h.auth.GetCurrentUser(c.Request.Context(), c.Query("force") == "true")
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) refreshUser(c *gin.Context) {
	u, err := h.auth.RefreshUserData(c.Request.Context())
	if err != nil {
		h.writeError(c, "refresh user", err)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// cachedUser — сохранённая копия для отображения; может быть устаревшей.
func (h *Handler) cachedUser(c *gin.Context) {
	u := h.auth.GetCachedUser(c.Request.Context())
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) authenticated(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": h.auth.IsAuthenticated(c.Request.Context())})
}

type emailRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) sendResetOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.auth.SendPasswordResetOTP(c.Request.Context(), req.Email)
	if err != nil {
		h.writeError(c, "send reset otp", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) verifyResetOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.auth.VerifyPasswordResetOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(c, "verify reset otp", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req domain.PasswordReset
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.auth.ResetPassword(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
