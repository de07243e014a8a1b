// Package pipeline は、トピックから公開までのキャンペーン実行全体を束ねるのだ。
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-social-kit/internal/builder"
	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/internal/runner"
)

// Execute は1トピック分のキャンペーンを最初から最後まで実行するのだ。
// 失敗したステージで止まるが、送信の失敗だけは結果への記録で済ませるのだ。
func Execute(ctx context.Context, cfg *config.Config) (*runner.CampaignResult, error) {
	appCtx := builder.NewAppContext(cfg)
	return run(ctx, appCtx)
}

func run(ctx context.Context, appCtx *builder.AppContext) (*runner.CampaignResult, error) {
	opts := appCtx.Options
	result := &runner.CampaignResult{Topic: opts.Topic}

	// --- Phase 1: Text Phase (投稿とリール台本) ---
	slog.Info("Phase 1: テキスト生成を開始するのだ...", "topic", opts.Topic)
	campaignRunner := builder.BuildCampaignRunner(appCtx)
	posts, reel, err := campaignRunner.Run(ctx, opts.Topic)
	if err != nil {
		return nil, err
	}
	result.Posts = posts
	result.Reel = reel

	// --- Phase 2: Image Phase (画像の生成と仕上げ) ---
	slog.Info("Phase 2: 画像生成を開始するのだ...")
	imageRunner := builder.BuildImageRunner(appCtx)
	outcome, err := imageRunner.Run(ctx, posts, opts)
	if err != nil {
		return nil, fmt.Errorf("画像ステージに失敗したのだ: %w", err)
	}
	result.Prompts = outcome.Prompts
	result.Image = outcome.Image
	result.BrandedURL = outcome.BrandedURL

	// --- Phase 3: Publish Phase (送信と結果保存) ---
	slog.Info("Phase 3: 公開処理を開始するのだ...")
	publishRunner := builder.BuildPublishRunner(appCtx)
	if err := publishRunner.Run(ctx, result, opts.NoPublish); err != nil {
		return nil, err
	}

	slog.Info("キャンペーンの実行が完了したのだ！", "topic", opts.Topic)
	return result, nil
}
