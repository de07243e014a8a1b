// Package prompts は、投稿ドラフトから画像生成用プロンプトを合成するのだ。
// ユーザー指定のテンプレート置換か、リモートモデルによる文脈プロンプト生成の
// 二経路があり、どちらの経路でも最後に「文字を描くな」という固定の
// ネガティブ制約サフィックスを必ず付けるのだ。下流はこのサフィックスの存在を前提にしているのだよ。
package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-social-kit/pkg/aiclient"
	"github.com/shouni/go-social-kit/pkg/domain"
)

const (
	// SuffixMarker はネガティブ制約サフィックスの先頭に置く目印なのだ。
	// 画像プロバイダへ送る直前に、この目印より後ろを切り落とすために使うのだ。
	SuffixMarker = "CRITICAL:"

	// NegativeSuffix は全プロンプト共通のネガティブ制約なのだ。
	// 画像内に文字・数字・看板の類を一切描かせないための、荷重のかかった一文なのだよ。
	NegativeSuffix = `CRITICAL: Absolutely NO text, NO words, NO letters, NO signs, NO labels, NO typography anywhere in the image.
Do not generate: store signs, product labels, brand names, written text, numbers, letters, Arabic text, English text, or any readable characters.
Clean product photography without any visible text or writing.
Aspect ratio: 1:1 (square).`

	// captionLimit はテンプレートやフォールバックに埋め込むキャプションの最大長なのだ。
	captionLimit = 100

	// contextualMaxTokens は文脈プロンプト生成に許すトークン上限なのだ。
	contextualMaxTokens = 200
)

// TextCompleter は文脈プロンプトの生成に使うチャットクライアントのインターフェースなのだ。
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, opts aiclient.CompleteOptions) (string, error)
}

// Synthesizer は画像プロンプトの合成実体なのだ。
type Synthesizer struct {
	ai     TextCompleter
	suffix string
}

// NewSynthesizer は Synthesizer の新しいインスタンスを生成して返すのだ。
// suffix が空なら既定のネガティブ制約を使うのだ。
func NewSynthesizer(ai TextCompleter, suffix string) *Synthesizer {
	if suffix == "" {
		suffix = NegativeSuffix
	}
	return &Synthesizer{ai: ai, suffix: suffix}
}

// Synthesize はタイトルを持つ各投稿に対して画像プロンプトを1本ずつ合成するのだ。
// タイトルが空の投稿は黙ってスキップするのだ。template が空文字なら文脈生成経路を使うのだよ。
func (s *Synthesizer) Synthesize(ctx context.Context, posts *domain.PostSet, template string) []string {
	if posts == nil {
		return nil
	}

	var result []string
	for _, p := range posts.Posts {
		if p.Title == "" {
			continue
		}

		var body string
		if template != "" {
			slog.Info("カスタムテンプレートでプロンプトを作るのだ", "title", truncate(p.Title, 50))
			body = applyTemplate(template, p)
		} else {
			body = s.contextualPrompt(ctx, p)
		}

		result = append(result, body+"\n"+s.suffix)
	}
	return result
}

// applyTemplate はテンプレート内の [TITLE] / [CAPTION] を投稿の内容で置換するのだ。
// キャプションは100文字に切り詰めてから埋め込むのだ。
func applyTemplate(template string, p domain.PostDraft) string {
	out := strings.ReplaceAll(template, "[TITLE]", p.Title)
	out = strings.ReplaceAll(out, "[CAPTION]", truncate(p.Caption, captionLimit))
	return out
}

const contextualPromptFormat = `Generate a detailed image prompt for AI image generation based on this social media post:

Title: %s
Caption: %s

Create a professional product photography prompt that:
1. Shows the actual products/items mentioned or implied in the post
2. Uses appropriate styling for the industry (beauty/cosmetics/tech/fashion/etc)
3. Is visually appealing and commercial-quality
4. Relevant to UAE market
5. No text in the image

Return ONLY the image generation prompt, nothing else. Be specific about products, lighting, and composition.`

// contextualPrompt はリモートモデルに撮影プロンプトを考えさせるのだ。
// 失敗したら決め打ちのフォールバックに切り替える。ここで止まるのはもったいないのだ。
func (s *Synthesizer) contextualPrompt(ctx context.Context, p domain.PostDraft) string {
	req := fmt.Sprintf(contextualPromptFormat, p.Title, p.Caption)
	smart, err := s.ai.Complete(ctx, req, aiclient.CompleteOptions{MaxTokens: contextualMaxTokens})
	if err != nil {
		slog.Warn("文脈プロンプトの生成に失敗したのでフォールバックするのだ", "title", truncate(p.Title, 50), "error", err)
		return fallbackPrompt(p)
	}

	slog.Info("文脈プロンプトを生成したのだ", "title", truncate(p.Title, 50))
	return smart
}

// fallbackPrompt は投稿の題名とキャプションだけで組み立てる決定的なプロンプトなのだ。
func fallbackPrompt(p domain.PostDraft) string {
	return fmt.Sprintf(`Professional commercial photograph.
Subject: %s
Context: %s
Style: high-quality product photography, studio lighting
Mood: professional, commercial, aspirational`, p.Title, truncate(p.Caption, captionLimit))
}

// truncate は文字列を最大 n バイトに切り詰めるのだ。
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
