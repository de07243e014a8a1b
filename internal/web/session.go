package web

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/shouni/go-social-kit/pkg/account"
)

const (
	sessionName  = "social-kit"
	loginUserKey = "LOGIN_USER"
	loginRoleKey = "LOGIN_ROLE"
)

// setLoginUser はログイン状態をクッキーセッションへ書き込むのだ。
// グローバル変数には一切持たず、状態はリクエストのセッションだけが知っているのだ。
func setLoginUser(c *gin.Context, username string, role account.Role) error {
	s := sessions.Default(c)
	s.Set(loginUserKey, username)
	s.Set(loginRoleKey, string(role))
	return s.Save()
}

// currentUser はセッションからログイン中のユーザー名と権限区分を取り出すのだ。
func currentUser(c *gin.Context) (string, account.Role, bool) {
	s := sessions.Default(c)
	name, ok := s.Get(loginUserKey).(string)
	if !ok || name == "" {
		return "", "", false
	}
	role, ok := s.Get(loginRoleKey).(string)
	if !ok {
		return "", "", false
	}
	return name, account.Role(role), true
}

// clearSession はログイン状態を破棄するのだ。
func clearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}
