package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("未設定ならデフォルト値が入るのだ", func(t *testing.T) {
		for _, key := range []string{"CHAT_MODEL", "IMAGE_MODEL", "OPENAI_BASE_URL", "IMAGE_PROMPT_SUFFIX", "USERS_FILE"} {
			t.Setenv(key, "") // 復元をtestingに任せてから消すのだ
			os.Unsetenv(key)
		}

		cfg := LoadConfig()
		if cfg.ChatModel != DefaultChatModel {
			t.Errorf("チャットモデルのデフォルトが違うのだ: %s", cfg.ChatModel)
		}
		if cfg.ImageModel != DefaultImageModel {
			t.Errorf("画像モデルのデフォルトが違うのだ: %s", cfg.ImageModel)
		}
		if cfg.ChatBaseURL != DefaultChatBaseURL {
			t.Errorf("ベースURLのデフォルトが違うのだ: %s", cfg.ChatBaseURL)
		}
		if cfg.UsersFile != DefaultUsersFile {
			t.Errorf("台帳パスのデフォルトが違うのだ: %s", cfg.UsersFile)
		}
		if !strings.Contains(cfg.ImagePromptSuffix, "CRITICAL:") {
			t.Error("画像プロンプト接尾辞のデフォルトに制約マーカーが無いのだ")
		}
		if cfg.HTTPTimeout != DefaultHTTPTimeout || cfg.HeadTimeout != DefaultHeadTimeout {
			t.Error("タイムアウトのデフォルトが違うのだ")
		}
	})

	t.Run("環境変数がデフォルトを上書きするのだ", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("CHAT_MODEL", "gpt-4o")
		t.Setenv("IMAGE_PROMPT_SUFFIX", "CRITICAL: custom suffix")
		t.Setenv("ZAPIER_WEBHOOK_URL", "https://hooks.example.com/x")

		cfg := LoadConfig()
		if cfg.ChatAPIKey != "sk-test" {
			t.Errorf("APIキーが読めていないのだ: %s", cfg.ChatAPIKey)
		}
		if cfg.ChatModel != "gpt-4o" {
			t.Errorf("モデルの上書きが効いていないのだ: %s", cfg.ChatModel)
		}
		if cfg.ImagePromptSuffix != "CRITICAL: custom suffix" {
			t.Errorf("接尾辞の上書きが効いていないのだ: %s", cfg.ImagePromptSuffix)
		}
		if cfg.WebhookURL != "https://hooks.example.com/x" {
			t.Errorf("WebhookURLが読めていないのだ: %s", cfg.WebhookURL)
		}
	})
}
