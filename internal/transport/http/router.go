package rest

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/httpx"
)

// Handler — шлюз для локальных потребителей (экран киоска, POS, проверки маршрутов)
// поверх кэшей сессии, настроек и справочников.
type Handler struct {
	auth     *usecase.AuthService
	settings *usecase.SettingsService
	payment  *usecase.PaymentSettingsService
	catalog  *usecase.CatalogService
	log      ports.Logger
	timeout  time.Duration
}

// Services — зависимости шлюза.
type Services struct {
	Auth     *usecase.AuthService
	Settings *usecase.SettingsService
	Payment  *usecase.PaymentSettingsService
	Catalog  *usecase.CatalogService
}

// NewHandler — timeout ограничивает обработку одного запроса (0 — без ограничения).
func NewHandler(svc Services, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{
		auth:     svc.Auth,
		settings: svc.Settings,
		payment:  svc.Payment,
		catalog:  svc.Catalog,
		log:      log,
		timeout:  timeout,
	}
}

// NewRouter — gin-роутер шлюза. staticDir — ассеты экрана киоска (пусто — не раздаются),
// serviceName — имя сервиса для otelgin (пусто — трассировка выключена).
func NewRouter(h *Handler, staticDir, serviceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if serviceName != "" {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/", h.withTimeout())

	session := api.Group("/session")
	session.POST("/login", h.login)
	session.POST("/register", h.register)
	session.POST("/logout", h.logout)
	session.GET("", h.currentUser)
	session.POST("/refresh", h.refreshUser)
	session.GET("/cached", h.cachedUser)
	session.GET("/authenticated", h.authenticated)
	session.POST("/password/otp", h.sendResetOTP)
	session.POST("/password/verify", h.verifyResetOTP)
	session.POST("/password/reset", h.resetPassword)

	admin := RequireRoles(h.auth, domain.RoleAdmin)

	settings := api.Group("/settings")
	settings.GET("", h.getSettings)
	settings.PUT("", admin, h.updateSettings)
	settings.DELETE("/logo", admin, h.deleteLogo)
	settings.GET("/payment", h.getPayment)
	settings.PUT("/payment", admin, h.updatePayment)
	settings.DELETE("/payment/qr", admin, h.deletePaymentQR)

	bookings := api.Group("/bookings")
	bookings.GET("/eligibility", h.bookingEligibility)
	bookings.GET("/blocked", h.dateBlocked)

	catalog := api.Group("/catalog")
	catalog.GET("/sports", h.sports)
	catalog.GET("/courts", h.courts)
	catalog.GET("/holidays", h.holidays)
	catalog.GET("/non-operating", h.nonOperatingDay)

	api.GET("/staff/ping", RequireRoles(h.auth, domain.RoleStaff, domain.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	if staticDir != "" {
		r.Static("/static", staticDir)
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	return r
}

// withTimeout — дедлайн на обработку запроса; отменяет ожидание обращения к API бронирований.
func (h *Handler) withTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
