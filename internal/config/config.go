package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-social-kit/pkg/prompts"
)

// デフォルト値の定義なのだ
const (
	DefaultChatModel         = "gpt-4o-mini"
	DefaultImageModel        = "dall-e-3"
	DefaultChatBaseURL       = "https://api.openai.com/v1"
	DefaultReplicateEndpoint = "https://api.replicate.com/v1/predictions"
	DefaultReplicateVersion  = "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4" // SDXLの固定バージョンなのだ
	DefaultHostEndpoint      = "https://api.imgbb.com/1/upload"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultHeadTimeout       = 10 * time.Second
	DefaultImageRateLimit    = 5 * time.Second
	DefaultUsersFile         = "users.json"
	DefaultListenAddr        = ":8080"
)

// Config はアプリケーション全体の環境設定（APIキーや外部サービス設定）を保持する構造体なのだ。
type Config struct {
	ChatAPIKey        string
	ChatBaseURL       string
	ChatModel         string
	ImageModel        string
	ReplicateToken    string
	ReplicateEndpoint string
	ReplicateVersion  string
	HostAPIKey        string
	HostEndpoint      string
	WebhookURL        string
	ImagePromptSuffix string
	UsersFile         string
	SessionSecret     string
	HTTPTimeout       time.Duration
	HeadTimeout       time.Duration
	ImageRateLimit    time.Duration

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	// .env は無ければ無いでいいのだ。環境変数が揃っていれば動くのだ
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env は読み込まなかったのだ", "reason", err)
	}

	cfg := &Config{
		ChatAPIKey:        envutil.GetEnv("OPENAI_API_KEY", ""),
		ChatBaseURL:       envutil.GetEnv("OPENAI_BASE_URL", DefaultChatBaseURL),
		ChatModel:         envutil.GetEnv("CHAT_MODEL", DefaultChatModel),
		ImageModel:        envutil.GetEnv("IMAGE_MODEL", DefaultImageModel),
		ReplicateToken:    envutil.GetEnv("REPLICATE_API_TOKEN", ""),
		ReplicateEndpoint: envutil.GetEnv("REPLICATE_ENDPOINT", DefaultReplicateEndpoint),
		ReplicateVersion:  envutil.GetEnv("REPLICATE_VERSION", DefaultReplicateVersion),
		HostAPIKey:        envutil.GetEnv("IMGBB_API_KEY", ""),
		HostEndpoint:      envutil.GetEnv("IMGBB_ENDPOINT", DefaultHostEndpoint),
		WebhookURL:        envutil.GetEnv("ZAPIER_WEBHOOK_URL", ""),
		ImagePromptSuffix: envutil.GetEnv("IMAGE_PROMPT_SUFFIX", prompts.NegativeSuffix),
		UsersFile:         envutil.GetEnv("USERS_FILE", DefaultUsersFile),
		SessionSecret:     envutil.GetEnv("SESSION_SECRET", ""),
		HTTPTimeout:       DefaultHTTPTimeout,
		HeadTimeout:       DefaultHeadTimeout,
		ImageRateLimit:    DefaultImageRateLimit,
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// コンテンツ生成関連
	Topic          string // --topic
	PromptTemplate string // --prompt-template: [TITLE]/[CAPTION] プレースホルダ付きの画像プロンプト雛形
	BrandText      string // --brand-text: 画像へ焼き込むメインの一行
	BrandSite      string // --brand-site: サブの一行（URLなど）
	TextSize       int    // --text-size

	// 実行制御
	NoPublish  bool   // --no-publish: Webhook送信を抑止するのだ
	OutputDir  string // --output-dir
	ListenAddr string // --listen
}
