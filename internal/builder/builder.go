package builder

import (
	"fmt"

	"github.com/shouni/go-social-kit/internal/runner"
	"github.com/shouni/go-social-kit/pkg/account"
	"github.com/shouni/go-social-kit/pkg/asset"
	"github.com/shouni/go-social-kit/pkg/generator"
	"github.com/shouni/go-social-kit/pkg/hosting"
	"github.com/shouni/go-social-kit/pkg/imaging"
	"github.com/shouni/go-social-kit/pkg/overlay"
	"github.com/shouni/go-social-kit/pkg/prompts"
	"github.com/shouni/go-social-kit/pkg/publisher"
)

// BuildCampaignRunner はテキスト生成を担当する Runner を構築します。
func BuildCampaignRunner(appCtx *AppContext) runner.CampaignRunner {
	return runner.NewTextCampaignRunner(generator.New(appCtx.aiClient))
}

// BuildImageRunner はプロンプト合成から画像仕上げまでを担当する Runner を構築します。
func BuildImageRunner(appCtx *AppContext) runner.ImageRunner {
	cfg := appCtx.Config

	primary := imaging.NewOpenAIProvider(appCtx.aiClient)
	fallback := imaging.NewReplicateProvider(
		appCtx.httpClient,
		cfg.ReplicateEndpoint,
		cfg.ReplicateToken,
		cfg.ReplicateVersion,
	)

	uploader := hosting.NewUploader(appCtx.httpClient, cfg.HostEndpoint, cfg.HostAPIKey, asset.DefaultImageDir)
	renderer := overlay.NewRenderer(appCtx.httpClient, asset.DefaultImageDir)

	return runner.NewCampaignImageRunner(
		prompts.NewSynthesizer(appCtx.aiClient, cfg.ImagePromptSuffix),
		imaging.NewProducer(primary, fallback, cfg.ImageRateLimit),
		uploader,
		renderer,
	)
}

// BuildPublishRunner はWebhook送信と結果保存を担当する Runner を構築します。
func BuildPublishRunner(appCtx *AppContext) runner.PublishRunner {
	outputDir := appCtx.Options.OutputDir
	if outputDir == "" {
		outputDir = asset.DefaultOutputDir
	}

	pub := publisher.NewWebhookPublisher(appCtx.httpClient, appCtx.headClient, appCtx.Config.WebhookURL)
	return runner.NewWebhookPublishRunner(pub, publisher.NewResultWriter(outputDir))
}

// BuildAccountStore はユーザー資格情報ストアを構築します。
// 台帳が壊れている場合はここでエラーとして突き上げるのだ。
func BuildAccountStore(appCtx *AppContext) (*account.Store, error) {
	store, err := account.NewStore(appCtx.Config.UsersFile, account.NewBcryptHasher())
	if err != nil {
		return nil, fmt.Errorf("ユーザーストアの初期化に失敗したのだ: %w", err)
	}
	return store, nil
}
