package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/pkg/account"
)

type loginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type signupForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Email    string `json:"email" form:"email"`
}

type userForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type userUpdateForm struct {
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

type passwordForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type campaignForm struct {
	Topic          string `json:"topic"`
	PromptTemplate string `json:"prompt_template"`
	BrandText      string `json:"brand_text"`
	BrandSite      string `json:"brand_site"`
	TextSize       int    `json:"text_size"`
	NoPublish      bool   `json:"no_publish"`
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正なのだ"})
		return
	}

	role, err := s.accounts.Authenticate(form.Username, form.Password)
	if err != nil {
		// 失敗理由を外へ漏らさないのだ。詳細はログにだけ残すのだ
		slog.Warn("ログインに失敗したのだ", "username", form.Username, "reason", err, "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザー名かパスワードが違うのだ"})
		return
	}

	if err := setLoginUser(c, form.Username, role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの保存に失敗したのだ"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": form.Username, "role": role})
}

func (s *Server) logout(c *gin.Context) {
	if err := clearSession(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの破棄に失敗したのだ"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// signup は自己登録なのだ。どんな入力でも付与される権限区分は user 固定なのだ。
func (s *Server) signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正なのだ"})
		return
	}

	if err := s.accounts.Create(form.Username, form.Password, form.Email, account.RoleUser); err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"username": form.Username, "role": account.RoleUser})
}

func (s *Server) profile(c *gin.Context) {
	username := c.GetString(contextUserKey)
	view, err := s.accounts.Get(username)
	if err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) changePassword(c *gin.Context) {
	var form passwordForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正なのだ"})
		return
	}

	username := c.GetString(contextUserKey)
	if _, err := s.accounts.Authenticate(username, form.CurrentPassword); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "現在のパスワードが違うのだ"})
		return
	}
	if err := s.accounts.Update(username, account.UpdateOptions{Password: &form.NewPassword}); err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// runCampaign はトピックを受け取ってパイプライン全体を実行するのだ。
// 同じトピックの結果はTTL付きでキャッシュして、連打でAPI利用枠を溶かさないのだ。
func (s *Server) runCampaign(c *gin.Context) {
	var form campaignForm
	if err := c.ShouldBind(&form); err != nil || form.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "トピックが必要なのだ"})
		return
	}

	if cached, found := s.cache.Get(form.Topic); found {
		slog.Info("キャッシュ済みの結果を返すのだ", "topic", form.Topic)
		c.JSON(http.StatusOK, gin.H{"result": cached, "cached": true})
		return
	}

	role, _ := c.Get(contextRoleKey)
	noPublish := form.NoPublish
	if role != account.RoleAdmin {
		// 外部への送信は管理者だけに許すのだ
		noPublish = true
	}

	runCfg := *s.cfg
	runCfg.Options = config.GenerateOptions{
		Topic:          form.Topic,
		PromptTemplate: form.PromptTemplate,
		BrandText:      form.BrandText,
		BrandSite:      form.BrandSite,
		TextSize:       form.TextSize,
		NoPublish:      noPublish,
	}

	result, err := s.run(c.Request.Context(), &runCfg)
	if err != nil {
		slog.Error("キャンペーンの実行に失敗したのだ", "topic", form.Topic, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	s.cache.Set(form.Topic, result, campaignCacheTTL)
	c.JSON(http.StatusOK, gin.H{"result": result, "cached": false})
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.accounts.List())
}

func (s *Server) createUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正なのだ"})
		return
	}

	if err := s.accounts.Create(form.Username, form.Password, form.Email, account.Role(form.Role)); err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"username": form.Username})
}

func (s *Server) updateUser(c *gin.Context) {
	name := c.Param("name")

	var form userUpdateForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正なのだ"})
		return
	}

	opts := account.UpdateOptions{Email: form.Email, Active: form.Active, Password: form.Password}
	if form.Role != nil {
		role := account.Role(*form.Role)
		opts.Role = &role
	}

	// 最初の管理者は降格も無効化もさせないのだ。締め出し事故の保険なのだ
	if name == primaryAdmin {
		if opts.Role != nil && *opts.Role != account.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "最初の管理者は降格できないのだ"})
			return
		}
		if opts.Active != nil && !*opts.Active {
			c.JSON(http.StatusForbidden, gin.H{"error": "最初の管理者は無効化できないのだ"})
			return
		}
	}

	if err := s.accounts.Update(name, opts); err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) deleteUser(c *gin.Context) {
	name := c.Param("name")
	if name == primaryAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "最初の管理者は削除できないのだ"})
		return
	}

	if err := s.accounts.Delete(name); err != nil {
		c.JSON(statusForStoreError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// stats は管理者向けのユーザー統計なのだ。
func (s *Server) stats(c *gin.Context) {
	users := s.accounts.List()

	var active, admins, recent int
	weekAgo := time.Now().AddDate(0, 0, -7)
	for _, u := range users {
		if u.Active {
			active++
		}
		if u.Role == account.RoleAdmin {
			admins++
		}
		if last, err := time.Parse(time.RFC3339, u.LastLogin); err == nil && last.After(weekAgo) {
			recent++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":   len(users),
		"active_users":  active,
		"admins":        admins,
		"recent_logins": recent,
	})
}

// statusForStoreError はストアのエラーをHTTPステータスへ写すのだ。
func statusForStoreError(err error) int {
	switch {
	case errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, account.ErrInvalidUsername),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrWeakPassword),
		errors.Is(err, account.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
