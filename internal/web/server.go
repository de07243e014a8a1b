// Package web は、ログイン付きのダッシュボードAPI（キャンペーン実行とユーザー管理）を提供するのだ。
package web

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/internal/pipeline"
	"github.com/shouni/go-social-kit/internal/runner"
	"github.com/shouni/go-social-kit/pkg/account"
)

const (
	// primaryAdmin は削除も降格もできない最初の管理者アカウントなのだ。
	primaryAdmin = "admin"

	campaignCacheTTL = 1 * time.Hour
)

// runCampaignFunc はキャンペーン実行の差し替え点なのだ。テストで本物のAPIを呼ばないためにあるのだ。
type runCampaignFunc func(ctx context.Context, cfg *config.Config) (*runner.CampaignResult, error)

// Server はダッシュボードAPIの実体なのだ。
type Server struct {
	cfg      *config.Config
	accounts *account.Store
	engine   *gin.Engine
	cache    *gocache.Cache
	run      runCampaignFunc
}

// NewServer はルーティングとセッションを組み立てた Server を生成して返すのだ。
func NewServer(cfg *config.Config, accounts *account.Store) (*Server, error) {
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("セッション秘密鍵（SESSION_SECRET）が設定されていないのだ")
	}

	s := &Server{
		cfg:      cfg,
		accounts: accounts,
		cache:    gocache.New(campaignCacheTTL, 2*campaignCacheTTL),
		run:      pipeline.Execute,
	}
	s.engine = s.initRouter()
	return s, nil
}

// Run は指定アドレスでAPIサーバーを起動するのだ。
func (s *Server) Run(addr string) error {
	slog.Info("ダッシュボードを起動するのだ", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) initRouter() *gin.Engine {
	engine := gin.Default()

	store := cookie.NewStore([]byte(s.cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: int((24 * time.Hour).Seconds()), HttpOnly: true})
	engine.Use(sessions.Sessions(sessionName, store))

	engine.POST("/login", s.login)
	engine.GET("/logout", s.logout)
	engine.POST("/signup", s.signup)

	api := engine.Group("/api", RequireLogin())
	{
		api.GET("/profile", s.profile)
		api.POST("/profile/password", s.changePassword)
		api.POST("/campaigns", s.runCampaign)
	}

	admin := engine.Group("/api", RequireRole(account.RoleAdmin))
	{
		admin.GET("/users", s.listUsers)
		admin.POST("/users", s.createUser)
		admin.PUT("/users/:name", s.updateUser)
		admin.DELETE("/users/:name", s.deleteUser)
		admin.GET("/stats", s.stats)
	}

	return engine
}
