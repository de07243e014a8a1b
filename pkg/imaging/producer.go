// Package imaging は、合成済みプロンプトから画像を1枚生成するプロデューサーなのだ。
// まず主系のプロバイダを試し、ダメなら副系へフォールバックする。両方倒れたときだけ
// エラーになる、往生際の悪い構成なのだよ。
package imaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-social-kit/pkg/prompts"
)

// ErrAllProvidersFailed は主系・副系の両方が画像を返せなかった場合のエラーなのだ。
var ErrAllProvidersFailed = errors.New("すべての画像プロバイダが失敗したのだ")

// promptLimit はプロバイダへ送るプロンプトの最大長なのだ。
const promptLimit = 1000

// Provider は画像を1枚生成してリモートURLを返せるサービスのインターフェースなのだ。
type Provider interface {
	// Name はログに載せるためのプロバイダ名を返すのだ。
	Name() string
	// Generate はプロンプトから画像を生成し、そのURLを返すのだ。
	Generate(ctx context.Context, prompt string) (string, error)
}

// Producer は主系と副系のプロバイダを束ねる実行実体なのだ。
type Producer struct {
	primary  Provider
	fallback Provider
	limiter  *rate.Limiter
}

// NewProducer は Producer の新しいインスタンスを生成して返すのだ。
// interval はプロバイダ呼び出しの最小間隔で、レート制限対策なのだ。
func NewProducer(primary, fallback Provider, interval time.Duration) *Producer {
	return &Producer{
		primary:  primary,
		fallback: fallback,
		// Burst 1: 画像生成は1パイプライン1枚なので、同時実行を許す理由がないのだ
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Produce はプロンプトを整形してから主系→副系の順で生成を試みるのだ。
// 先に成功した方のURLを返し、両方失敗したときだけ ErrAllProvidersFailed を返すのだ。
func (p *Producer) Produce(ctx context.Context, prompt string) (string, error) {
	clean := CleanPrompt(prompt)

	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url, primaryErr := p.primary.Generate(ctx, clean)
	if primaryErr == nil && url != "" {
		slog.Info("主系プロバイダで画像を生成したのだ", "provider", p.primary.Name(), "url", truncateForLog(url))
		return url, nil
	}
	slog.Warn("主系プロバイダが失敗したので副系に切り替えるのだ",
		"provider", p.primary.Name(), "error", primaryErr)

	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url, fallbackErr := p.fallback.Generate(ctx, clean)
	if fallbackErr == nil && url != "" {
		slog.Info("副系プロバイダで画像を生成したのだ", "provider", p.fallback.Name(), "url", truncateForLog(url))
		return url, nil
	}

	return "", fmt.Errorf("%w: primary=%v fallback=%v", ErrAllProvidersFailed, primaryErr, fallbackErr)
}

// CleanPrompt はネガティブ制約サフィックスを目印ごと切り落とし、1000文字に切り詰めるのだ。
// サフィックスは合成側の帳簿みたいなもので、プロバイダのプロンプト予算を食わせるものではないのだ。
func CleanPrompt(prompt string) string {
	if idx := strings.Index(prompt, prompts.SuffixMarker); idx >= 0 {
		prompt = prompt[:idx]
	}
	prompt = strings.TrimSpace(prompt)
	if len(prompt) > promptLimit {
		prompt = prompt[:promptLimit]
	}
	return prompt
}

func truncateForLog(s string) string {
	const limit = 80
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
