package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-social-kit/pkg/account"
)

// RequireLogin はログイン済みであることを要求するガードなのだ。
// 未ログインは 401 で止めて、先のハンドラには進ませないのだ。
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, role, ok := currentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "ログインが必要なのだ"})
			return
		}
		// 後段のハンドラが使えるようにコンテキストへ積んでおくのだ
		c.Set(contextUserKey, name)
		c.Set(contextRoleKey, role)
		c.Next()
	}
}

// RequireRole は指定の権限区分を要求するガードなのだ。
// 認可の判断は暗黙の仕掛けではなく、ルート定義に明示的に並べるのだ。
func RequireRole(role account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, current, ok := currentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "ログインが必要なのだ"})
			return
		}
		if current != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "この操作に必要な権限が無いのだ"})
			return
		}
		c.Set(contextUserKey, name)
		c.Set(contextRoleKey, current)
		c.Next()
	}
}

const (
	contextUserKey = "web.user"
	contextRoleKey = "web.role"
)
