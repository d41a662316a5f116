package app

import (
	"net/http"
	"strings"

	"library_borrowing_service/db"
	"library_borrowing_service/session"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID  = "userID"
	CtxIsStaff = "isStaff"
	CtxClaims  = "claims"
)

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	// 浏览器 WebSocket 无法带 Authorization 头
	if c.IsWebsocket() {
		return c.Query("access_token")
	}
	return ""
}

func AuthRequired(tokens *session.Tokens, revoked *session.RevocationStore, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		claims, err := tokens.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid token"})
			return
		}
		if gone, err := revoked.IsRevoked(c.Request.Context(), claims); err != nil || gone {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid token"})
			return
		}

		// 这里确认用户仍存在，并把 isStaff 放进 Context（只查一次）
		u, err := repo.FindUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		c.Set(CtxUserID, u.ID)
		c.Set(CtxIsStaff, u.IsStaff)
		c.Set(CtxClaims, claims)

		c.Next()
	}
}

// StaffOnly must run after AuthRequired.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsStaff) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
