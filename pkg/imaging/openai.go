package imaging

import "context"

// ImageClient は正方形画像を1枚生成できるクライアントのインターフェースなのだ。
// 実体には aiclient.Client を渡すのだ。
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// OpenAIProvider はチャットAPIと同じホストの画像生成エンドポイントを主系として使うのだ。
type OpenAIProvider struct {
	client ImageClient
}

// NewOpenAIProvider は OpenAIProvider の新しいインスタンスを生成して返すのだ。
func NewOpenAIProvider(client ImageClient) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.client.GenerateImage(ctx, prompt)
}
