package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/pkg/domain"
	"github.com/shouni/go-social-kit/pkg/hosting"
	"github.com/shouni/go-social-kit/pkg/imaging"
	"github.com/shouni/go-social-kit/pkg/overlay"
	"github.com/shouni/go-social-kit/pkg/prompts"
)

// ImageRunner は、投稿セットからビジュアルを1枚仕上げるインターフェース。
type ImageRunner interface {
	// Run はプロンプト合成から画像生成・再ホスト・ブランド合成までを実行する。
	Run(ctx context.Context, posts *domain.PostSet, opts config.GenerateOptions) (*ImageOutcome, error)
}

// ImageOutcome は画像ステージの成果物一式なのだ。
type ImageOutcome struct {
	Prompts    []string              // 投稿ごとに合成した画像プロンプト
	Image      domain.GeneratedImage // 生成された素の画像
	BrandedURL string                // ブランド合成版の公開URL（合成が有効かつ成功した場合のみ）
}

// FinalURL は公開に使うべきURLを返すのだ。ブランド版があればそれを優先するのだ。
func (o *ImageOutcome) FinalURL() string {
	if o.BrandedURL != "" {
		return o.BrandedURL
	}
	return o.Image.BestURL()
}

// CampaignImageRunner は、プロンプト合成・画像生成・再ホスト・ブランド合成を束ねる実体。
type CampaignImageRunner struct {
	synthesizer *prompts.Synthesizer
	producer    *imaging.Producer
	uploader    *hosting.Uploader
	renderer    *overlay.Renderer
}

// NewCampaignImageRunner は、CampaignImageRunnerの新しいインスタンスを生成して返す。
func NewCampaignImageRunner(
	synthesizer *prompts.Synthesizer,
	producer *imaging.Producer,
	uploader *hosting.Uploader,
	renderer *overlay.Renderer,
) *CampaignImageRunner {
	return &CampaignImageRunner{
		synthesizer: synthesizer,
		producer:    producer,
		uploader:    uploader,
		renderer:    renderer,
	}
}

// Run は画像ステージのメインロジックなのだ。
// 生成は1回の実行につき1枚。先頭投稿のプロンプトだけを実際の生成に使うのだ。
func (ir *CampaignImageRunner) Run(ctx context.Context, posts *domain.PostSet, opts config.GenerateOptions) (*ImageOutcome, error) {
	outcome := &ImageOutcome{
		Prompts: ir.synthesizer.Synthesize(ctx, posts, opts.PromptTemplate),
	}
	if len(outcome.Prompts) == 0 {
		return nil, fmt.Errorf("画像プロンプトを1つも合成できなかったのだ")
	}

	slog.Info("画像生成を開始するのだ", "prompts", len(outcome.Prompts))
	remoteURL, err := ir.producer.Produce(ctx, outcome.Prompts[0])
	if err != nil {
		return nil, fmt.Errorf("画像生成に失敗したのだ: %w", err)
	}
	outcome.Image.RemoteURL = remoteURL

	// 生成元のURLは期限切れしやすいので、恒久的なホストへ移し替えるのだ。
	// 失敗しても元のURLで続行できるから、劣化であってエラーではないのだ
	if hosted, ok := ir.uploader.Rehost(ctx, remoteURL); ok {
		outcome.Image.HostedURL = hosted
	} else {
		slog.Warn("再ホストに失敗したので生成元のURLのまま続行するのだ")
	}

	// ブランド文言の指定が無ければ合成ステージは丸ごとスキップなのだ
	if opts.BrandText == "" {
		return outcome, nil
	}

	ir.runBrandStep(ctx, outcome, opts)
	return outcome, nil
}

// runBrandStep はブランド文言を画像へ焼き込み、合成版を公開URLへ上げるのだ。
// どこで失敗しても素の画像URLで続行する。合成は飾りで、本体はあくまで画像なのだ。
func (ir *CampaignImageRunner) runBrandStep(ctx context.Context, outcome *ImageOutcome, opts config.GenerateOptions) {
	fontSize := opts.TextSize
	if fontSize <= 0 {
		fontSize = overlay.DefaultFontSize
	}

	localPath, err := ir.renderer.Render(ctx, outcome.Image.BestURL(), opts.BrandText, opts.BrandSite, fontSize)
	if err != nil {
		slog.Warn("ブランド合成に失敗したので素の画像で続行するのだ", "error", err)
		return
	}
	outcome.Image.LocalPath = localPath

	brandedURL, err := ir.uploader.Upload(ctx, localPath)
	if err != nil {
		slog.Warn("ブランド版のアップロードに失敗したので素の画像URLを使うのだ", "error", err)
	} else {
		outcome.BrandedURL = brandedURL
	}

	// 合成版はアップロードし終えたら手元に残さないのだ
	if err := os.Remove(localPath); err != nil {
		slog.Warn("ブランド合成の一時ファイルを消せなかったのだ", "path", localPath, "error", err)
	} else {
		outcome.Image.LocalPath = ""
	}
}
