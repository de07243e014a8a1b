// Package generator は、トピック文字列からSNS投稿ドラフトとリール台本を
// 生成するコンテンツジェネレーターなのだ。リモートモデルに厳密なJSONを
// 要求し、形が崩れていたら容赦なくエラーにするのが信条なのだよ。
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-social-kit/pkg/aiclient"
	"github.com/shouni/go-social-kit/pkg/domain"
)

var (
	// ErrEmptyTopic はトピックが空白のみだった場合のエラーなのだ。リモート呼び出しの前に返すのだ。
	ErrEmptyTopic = errors.New("トピックが空なのだ")
	// ErrMalformedResponse はモデルの応答がJSONでない、または期待した形でない場合のエラーなのだ。
	ErrMalformedResponse = errors.New("モデルの応答が期待した形になっていないのだ")
)

// TextCompleter はチャット補完を1回実行できるクライアントのインターフェースなのだ。
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, opts aiclient.CompleteOptions) (string, error)
}

// Generator はコンテンツ生成の実行実体なのだ。
type Generator struct {
	ai TextCompleter
}

// New は Generator の新しいインスタンスを生成して返すのだ。
func New(ai TextCompleter) *Generator {
	return &Generator{ai: ai}
}

const postsPromptFormat = `You are a Social Media Creative Agent.

Generate EXACTLY 3 posts about: %s

STYLE RULES:
- Write captions with 2-3 sentences.
- Professional and motivational.
- Relevant to the UAE.
- No repetition across posts.
- Include EXACTLY 5 high-performing hashtags.
- Return VALID JSON ONLY.

Return JSON ONLY:
{
  "posts": [
    {"title": "", "caption": "", "hashtags": ""},
    {"title": "", "caption": "", "hashtags": ""},
    {"title": "", "caption": "", "hashtags": ""}
  ]
}`

// GeneratePosts は指定トピックで投稿ドラフトを3件生成するのだ。
// リトライはしないのだ。再挑戦するかどうかは呼び出し元が決めることなのだよ。
func (g *Generator) GeneratePosts(ctx context.Context, topic string) (*domain.PostSet, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}

	raw, err := g.ai.Complete(ctx, fmt.Sprintf(postsPromptFormat, topic), aiclient.CompleteOptions{JSONMode: true})
	if err != nil {
		return nil, fmt.Errorf("投稿の生成に失敗したのだ: %w", err)
	}

	var set domain.PostSet
	if err := decodeJSONBlock(raw, &set); err != nil {
		return nil, err
	}
	if len(set.Posts) != domain.PostsPerSet {
		return nil, fmt.Errorf("%w: 投稿が %d 件しかないのだ", ErrMalformedResponse, len(set.Posts))
	}
	return &set, nil
}

const reelPromptFormat = `Create a TikTok/Reel Script about: %s

Return JSON ONLY:
{
  "reel_script": {
    "hook": "",
    "scenes": [
      {"scene": 1, "description": "", "camera_direction": "", "narration": ""},
      {"scene": 2, "description": "", "camera_direction": "", "narration": ""},
      {"scene": 3, "description": "", "camera_direction": "", "narration": ""}
    ],
    "cta": ""
  }
}`

// reelEnvelope はAIの応答のトップレベルキーを受けるための封筒なのだ。
type reelEnvelope struct {
	ReelScript *domain.ReelScript `json:"reel_script"`
}

// GenerateReelScript は指定トピックでリール動画の台本を生成するのだ。
func (g *Generator) GenerateReelScript(ctx context.Context, topic string) (*domain.ReelScript, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}

	raw, err := g.ai.Complete(ctx, fmt.Sprintf(reelPromptFormat, topic), aiclient.CompleteOptions{JSONMode: true})
	if err != nil {
		return nil, fmt.Errorf("リール台本の生成に失敗したのだ: %w", err)
	}

	var env reelEnvelope
	if err := decodeJSONBlock(raw, &env); err != nil {
		return nil, err
	}
	if env.ReelScript == nil {
		return nil, fmt.Errorf("%w: reel_script キーが見当たらないのだ", ErrMalformedResponse)
	}
	if len(env.ReelScript.Scenes) != domain.ScenesPerScript {
		return nil, fmt.Errorf("%w: シーンが %d 件しかないのだ", ErrMalformedResponse, len(env.ReelScript.Scenes))
	}
	return env.ReelScript, nil
}

// decodeJSONBlock は、AIが付けがちなMarkdownのコードブロック (```json ... ```) を
// 取り除いてからJSONとしてパースするのだ。
func decodeJSONBlock(raw string, v any) error {
	rawJSON := strings.TrimSpace(raw)
	rawJSON = strings.TrimPrefix(rawJSON, "```json")
	rawJSON = strings.TrimSuffix(rawJSON, "```")
	rawJSON = strings.TrimSpace(rawJSON)

	if err := json.Unmarshal([]byte(rawJSON), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
