package rest

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/ctxmeta"
)

const ctxUserKey = "courtdesk.user"

// RequireRoles — проверка маршрута по роли текущего пользователя.
// Пользователь запрашивается через GetCurrentUser: нет пользователя (нет токена,
// сбой загрузки) — 401, роль не из списка — 403. Без ролей пропускает любого
// аутентифицированного.
func RequireRoles(auth *usecase.AuthService, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		u := auth.GetCurrentUser(ctx, false)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, u.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(ctxUserKey, u)
		c.Request = c.Request.WithContext(ctxmeta.WithUser(ctx, ctxmeta.User{ID: u.ID, Role: u.Role}))
		c.Next()
	}
}

// userFrom — пользователь, положенный RequireRoles.
func userFrom(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
