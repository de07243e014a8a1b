package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-social-kit/pkg/domain"
	"github.com/shouni/go-social-kit/pkg/publisher"
)

// PublishRunner は、完成したコンテンツの送信と結果保存を担うインターフェース。
type PublishRunner interface {
	// Run はWebhook送信（抑止可）と結果スナップショットの保存を実行する。
	Run(ctx context.Context, result *CampaignResult, noPublish bool) error
}

// CampaignResult は1回の実行全体の成果物で、そのままスナップショットへ保存されるのだ。
type CampaignResult struct {
	Topic      string                 `json:"topic"`
	Posts      *domain.PostSet        `json:"posts"`
	Reel       *domain.ReelScript     `json:"reel_script"`
	Prompts    []string               `json:"image_prompts"`
	Image      domain.GeneratedImage  `json:"image"`
	BrandedURL string                 `json:"branded_url,omitempty"`
	Delivery   *domain.DeliveryReport `json:"delivery,omitempty"`
}

// PublishImageURL は送信に使うべき画像URLなのだ。ブランド版があればそれを優先するのだ。
func (r *CampaignResult) PublishImageURL() string {
	if r.BrandedURL != "" {
		return r.BrandedURL
	}
	return r.Image.BestURL()
}

// WebhookPublishRunner は、Webhook送信と結果書き出しを束ねる実体。
type WebhookPublishRunner struct {
	publisher *publisher.WebhookPublisher
	writer    *publisher.ResultWriter
}

// NewWebhookPublishRunner は、WebhookPublishRunnerの新しいインスタンスを生成して返す。
func NewWebhookPublishRunner(pub *publisher.WebhookPublisher, writer *publisher.ResultWriter) *WebhookPublishRunner {
	return &WebhookPublishRunner{publisher: pub, writer: writer}
}

// Run は公開ステージのメインロジックなのだ。
// 送信の失敗は報告として結果に残るだけで、スナップショット保存は必ず行うのだ。
func (pr *WebhookPublishRunner) Run(ctx context.Context, result *CampaignResult, noPublish bool) error {
	if noPublish {
		slog.Info("送信は抑止されているのだ。結果の保存だけ行うのだ")
	} else {
		imageURLs := []string{result.PublishImageURL()}
		report, err := pr.publisher.Publish(ctx, result.Topic, result.Posts, imageURLs)
		if err != nil {
			return fmt.Errorf("公開処理に失敗したのだ: %w", err)
		}
		result.Delivery = report
	}

	path, err := pr.writer.Save(result)
	if err != nil {
		return fmt.Errorf("結果の保存に失敗したのだ: %w", err)
	}
	slog.Info("実行結果を保存したのだ", "path", path)
	return nil
}
