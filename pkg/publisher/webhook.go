// Package publisher は、完成したコンテンツを公開用Webhookへ送り出し、
// 実行結果のスナップショットをローカルへ残すのだ。
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-social-kit/pkg/domain"
)

// ErrNoPostsAvailable は送信できる投稿が1件も無い場合のエラーなのだ。
var ErrNoPostsAvailable = errors.New("送信できる投稿が無いのだ")

// Doer はHTTPリクエストを実行できるクライアントの最小インターフェースなのだ。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookPublisher はWebhookへのペイロード送信を担う実体なのだ。
type WebhookPublisher struct {
	httpClient Doer
	headClient Doer
	webhookURL string
}

// NewWebhookPublisher は WebhookPublisher の新しいインスタンスを生成して返すのだ。
// headClient は到達性チェック（HEAD）専用で、短いタイムアウトのクライアントを渡すのだ。
func NewWebhookPublisher(httpClient, headClient Doer, webhookURL string) *WebhookPublisher {
	return &WebhookPublisher{
		httpClient: httpClient,
		headClient: headClient,
		webhookURL: webhookURL,
	}
}

// Publish は先頭の投稿と画像URLからペイロードを組み立ててWebhookへPOSTするのだ。
// 送信そのものの失敗はエラーにせず DeliveryReport に記録して返す。
// 再送するかどうかは報告を見た呼び出し元が決めればいいのだ。
func (wp *WebhookPublisher) Publish(ctx context.Context, topic string, posts *domain.PostSet, imageURLs []string) (*domain.DeliveryReport, error) {
	first, ok := posts.First()
	if !ok {
		return nil, ErrNoPostsAvailable
	}

	imageURL := selectImageURL(imageURLs)
	if imageURL != "" {
		wp.checkReachable(ctx, imageURL)
	} else {
		slog.Warn("有効な画像URLが無いまま送信するのだ。下流の投稿は失敗するかもしれないのだ")
	}

	payload := domain.PublishPayload{
		Topic:     topic,
		Caption:   first.Caption,
		Hashtags:  first.Hashtags,
		FullText:  first.Caption + " " + first.Hashtags,
		ImageURL:  imageURL,
		PostTitle: first.Title,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ペイロードのエンコードに失敗したのだ: %w", err)
	}

	slog.Info("Webhookへ送信するのだ", "topic", topic, "title", first.Title, "image", imageURL != "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wp.webhookURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wp.httpClient.Do(req)
	if err != nil {
		// 通信失敗もエラーではなく報告として持ち帰るのだ
		slog.Error("Webhookへの送信に失敗したのだ", "error", err)
		return &domain.DeliveryReport{Error: err.Error(), Payload: payload}, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	report := &domain.DeliveryReport{
		StatusCode: resp.StatusCode,
		Response:   string(raw),
		Payload:    payload,
	}

	if report.Delivered() {
		slog.Info("Webhookが受理したのだ", "status", resp.StatusCode)
	} else {
		slog.Warn("Webhookの応答が受理を示していないのだ", "status", resp.StatusCode, "body", snippet(raw))
	}
	return report, nil
}

// checkReachable は画像URLの到達性をHEADで軽く確認するのだ。
// これは診断ログのためだけの確認で、失敗しても送信は止めないのだ。
func (wp *WebhookPublisher) checkReachable(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return
	}

	resp, err := wp.headClient.Do(req)
	if err != nil {
		slog.Warn("画像URLに到達できないのだ。下流が取得に失敗するかもしれないのだ", "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("画像URLの到達性チェックが不穏なのだ", "status", resp.StatusCode)
	} else {
		slog.Info("画像URLの到達性を確認したのだ", "status", resp.StatusCode)
	}
}

// selectImageURL はURLリストから最初の http(s) スキームのURLを選ぶのだ。
func selectImageURL(urls []string) string {
	for _, u := range urls {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			return u
		}
	}
	return ""
}

func snippet(raw []byte) string {
	const limit = 200
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
