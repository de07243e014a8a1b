package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/internal/runner"
	"github.com/shouni/go-social-kit/pkg/account"
	"github.com/shouni/go-social-kit/pkg/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := account.NewStore(filepath.Join(t.TempDir(), "users.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureDefaults("admin123", "user1234"); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{SessionSecret: "test-secret"}
	s, err := NewServer(cfg, store)
	if err != nil {
		t.Fatal(err)
	}

	// テストでは本物のパイプラインを起動しないのだ
	s.run = func(_ context.Context, cfg *config.Config) (*runner.CampaignResult, error) {
		return &runner.CampaignResult{
			Topic: cfg.Options.Topic,
			Posts: &domain.PostSet{Posts: []domain.PostDraft{{Title: "T", Caption: "C", Hashtags: "#h"}}},
		}, nil
	}
	return s
}

// loginAs はログインしてセッションクッキーを返すのだ。
func loginAs(t *testing.T, s *Server, username, password string) []*http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ログインに失敗したのだ: status=%d body=%s", rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func doJSON(s *Server, method, path string, payload any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestServer_Authz(t *testing.T) {
	t.Run("未ログインは401なのだ", func(t *testing.T) {
		s := newTestServer(t)
		if rec := doJSON(s, http.MethodGet, "/api/profile", nil, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("未ログインが通ってしまったのだ: %d", rec.Code)
		}
		if rec := doJSON(s, http.MethodGet, "/api/users", nil, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("未ログインで管理APIが見えてしまったのだ: %d", rec.Code)
		}
	})

	t.Run("一般ユーザーは管理APIに入れないのだ", func(t *testing.T) {
		s := newTestServer(t)
		cookies := loginAs(t, s, "user", "user1234")
		if rec := doJSON(s, http.MethodGet, "/api/users", nil, cookies); rec.Code != http.StatusForbidden {
			t.Errorf("一般ユーザーが管理APIに入れてしまったのだ: %d", rec.Code)
		}
		if rec := doJSON(s, http.MethodGet, "/api/profile", nil, cookies); rec.Code != http.StatusOK {
			t.Errorf("一般ユーザーが自分のプロフィールを見られないのだ: %d", rec.Code)
		}
	})

	t.Run("管理者は管理APIに入れるのだ", func(t *testing.T) {
		s := newTestServer(t)
		cookies := loginAs(t, s, "admin", "admin123")
		rec := doJSON(s, http.MethodGet, "/api/users", nil, cookies)
		if rec.Code != http.StatusOK {
			t.Fatalf("管理者が一覧を取れないのだ: %d", rec.Code)
		}

		var users []account.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatal(err)
		}
		if len(users) != 2 {
			t.Errorf("初期ユーザーは2人のはずなのだ: %d", len(users))
		}
	})

	t.Run("誤ったパスワードではログインできないのだ", func(t *testing.T) {
		s := newTestServer(t)
		body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("誤ったパスワードが通ってしまったのだ: %d", rec.Code)
		}
	})

	t.Run("ログアウト後はセッションが無効なのだ", func(t *testing.T) {
		s := newTestServer(t)
		cookies := loginAs(t, s, "user", "user1234")

		rec := doJSON(s, http.MethodGet, "/logout", nil, cookies)
		if rec.Code != http.StatusOK {
			t.Fatalf("ログアウトに失敗したのだ: %d", rec.Code)
		}
		// 破棄後のクッキーで保護APIへ入れないことを確かめるのだ
		after := rec.Result().Cookies()
		if rec := doJSON(s, http.MethodGet, "/api/profile", nil, after); rec.Code != http.StatusUnauthorized {
			t.Errorf("破棄済みセッションが生きてしまっているのだ: %d", rec.Code)
		}
	})
}

func TestServer_UserAdmin(t *testing.T) {
	t.Run("自己登録の権限区分はuser固定なのだ", func(t *testing.T) {
		s := newTestServer(t)
		rec := doJSON(s, http.MethodPost, "/signup", map[string]string{
			"username": "newbie", "password": "secret123", "email": "n@example.com",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("自己登録に失敗したのだ: %d %s", rec.Code, rec.Body.String())
		}

		u, err := s.accounts.Get("newbie")
		if err != nil {
			t.Fatal(err)
		}
		if u.Role != account.RoleUser {
			t.Errorf("自己登録でuser以外の権限が付いてしまったのだ: %s", u.Role)
		}
	})

	t.Run("最初の管理者は守られるのだ", func(t *testing.T) {
		s := newTestServer(t)
		cookies := loginAs(t, s, "admin", "admin123")

		if rec := doJSON(s, http.MethodDelete, "/api/users/admin", nil, cookies); rec.Code != http.StatusForbidden {
			t.Errorf("最初の管理者が削除できてしまったのだ: %d", rec.Code)
		}
		if rec := doJSON(s, http.MethodPut, "/api/users/admin", map[string]string{"role": "user"}, cookies); rec.Code != http.StatusForbidden {
			t.Errorf("最初の管理者が降格できてしまったのだ: %d", rec.Code)
		}
		inactive := false
		if rec := doJSON(s, http.MethodPut, "/api/users/admin", map[string]any{"active": inactive}, cookies); rec.Code != http.StatusForbidden {
			t.Errorf("最初の管理者が無効化できてしまったのだ: %d", rec.Code)
		}
		// 他のユーザーは普通に消せるのだ
		if rec := doJSON(s, http.MethodDelete, "/api/users/user", nil, cookies); rec.Code != http.StatusOK {
			t.Errorf("一般ユーザーの削除に失敗したのだ: %d", rec.Code)
		}
	})

	t.Run("統計は頭数が合うのだ", func(t *testing.T) {
		s := newTestServer(t)
		cookies := loginAs(t, s, "admin", "admin123")

		rec := doJSON(s, http.MethodGet, "/api/stats", nil, cookies)
		if rec.Code != http.StatusOK {
			t.Fatalf("統計の取得に失敗したのだ: %d", rec.Code)
		}

		var stats map[string]int
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatal(err)
		}
		if stats["total_users"] != 2 || stats["admins"] != 1 {
			t.Errorf("統計が合わないのだ: %+v", stats)
		}
		// admin は直前にログインしているので recent に数えられるのだ
		if stats["recent_logins"] < 1 {
			t.Errorf("直近ログインが数えられていないのだ: %+v", stats)
		}
	})
}

func TestServer_Campaigns(t *testing.T) {
	t.Run("一般ユーザーの実行は送信が抑止されるのだ", func(t *testing.T) {
		s := newTestServer(t)
		var captured config.GenerateOptions
		s.run = func(_ context.Context, cfg *config.Config) (*runner.CampaignResult, error) {
			captured = cfg.Options
			return &runner.CampaignResult{Topic: cfg.Options.Topic}, nil
		}

		cookies := loginAs(t, s, "user", "user1234")
		rec := doJSON(s, http.MethodPost, "/api/campaigns", map[string]any{"topic": "AI", "no_publish": false}, cookies)
		if rec.Code != http.StatusOK {
			t.Fatalf("実行に失敗したのだ: %d %s", rec.Code, rec.Body.String())
		}
		if !captured.NoPublish {
			t.Error("一般ユーザーの実行で送信が抑止されていないのだ")
		}
	})

	t.Run("同じトピックはキャッシュから返るのだ", func(t *testing.T) {
		s := newTestServer(t)
		calls := 0
		s.run = func(_ context.Context, cfg *config.Config) (*runner.CampaignResult, error) {
			calls++
			return &runner.CampaignResult{Topic: cfg.Options.Topic}, nil
		}

		cookies := loginAs(t, s, "admin", "admin123")
		for i := 0; i < 2; i++ {
			if rec := doJSON(s, http.MethodPost, "/api/campaigns", map[string]string{"topic": "AI"}, cookies); rec.Code != http.StatusOK {
				t.Fatalf("実行に失敗したのだ: %d", rec.Code)
			}
		}
		if calls != 1 {
			t.Errorf("キャッシュが効いていないのだ。実行回数: %d", calls)
		}
	})

	t.Run("トピック無しは400なのだ", func(t *testing.T) {
		s := newTestServer(t)
		cookies := loginAs(t, s, "user", "user1234")
		if rec := doJSON(s, http.MethodPost, "/api/campaigns", map[string]string{}, cookies); rec.Code != http.StatusBadRequest {
			t.Errorf("トピック無しが通ってしまったのだ: %d", rec.Code)
		}
	})
}
