package builder

import (
	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/pkg/aiclient"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する。
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、エンドポイントなど）。
	Options config.GenerateOptions // Optionsは、コマンドラインやWebから渡された実行時の設定です（トピック、ブランド文言など）。

	httpClient httpkit.HTTPClient // httpClient は外部APIとの通信に使う共通クライアント
	headClient httpkit.HTTPClient // headClient は到達性チェック（HEAD）専用の短いタイムアウトのクライアント
	aiClient   *aiclient.Client        // aiClient はチャット/画像生成APIとの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する。
func NewAppContext(cfg *config.Config) *AppContext {
	httpClient := httpkit.New(cfg.HTTPTimeout)
	headClient := httpkit.New(cfg.HeadTimeout)

	return &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		httpClient: httpClient,
		headClient: headClient,
		aiClient:   aiclient.New(httpClient, cfg.ChatBaseURL, cfg.ChatAPIKey, cfg.ChatModel, cfg.ImageModel),
	}
}
