package runner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-social-kit/pkg/domain"
	"github.com/shouni/go-social-kit/pkg/generator"
)

// CampaignRunner は、1つのトピックから投稿セットとリール台本を取りそろえるインターフェース。
type CampaignRunner interface {
	// Run はトピックに対してテキスト生成を実行し、投稿セットとリール台本を返す。
	Run(ctx context.Context, topic string) (*domain.PostSet, *domain.ReelScript, error)
}

// TextCampaignRunner は、投稿セットとリール台本を並列で生成する実体。
type TextCampaignRunner struct {
	gen *generator.Generator
}

// NewTextCampaignRunner は、TextCampaignRunnerの新しいインスタンスを生成して返す。
func NewTextCampaignRunner(gen *generator.Generator) *TextCampaignRunner {
	return &TextCampaignRunner{gen: gen}
}

// Run は投稿セットとリール台本の生成を並列実行するメインロジックなのだ。
// 2つは互いに独立したリモート呼び出しなので、片方を待つ理由が無いのだ。
func (cr *TextCampaignRunner) Run(ctx context.Context, topic string) (*domain.PostSet, *domain.ReelScript, error) {
	var (
		posts *domain.PostSet
		reel  *domain.ReelScript
	)

	slog.Info("テキスト生成を開始するのだ", "topic", topic)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		p, err := cr.gen.GeneratePosts(egCtx, topic)
		if err != nil {
			return fmt.Errorf("投稿セットの生成に失敗したのだ: %w", err)
		}
		posts = p
		return nil
	})

	eg.Go(func() error {
		r, err := cr.gen.GenerateReelScript(egCtx, topic)
		if err != nil {
			return fmt.Errorf("リール台本の生成に失敗したのだ: %w", err)
		}
		reel = r
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	slog.Info("テキスト生成が完了したのだ", "posts", len(posts.Posts), "scenes", len(reel.Scenes))
	return posts, reel, nil
}
