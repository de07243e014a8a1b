// Package aiclient は、ホスト型のチャット補完・画像生成API（OpenAI互換）との
// 通信を担うクライアントなのだ。リトライは行わず、失敗はそのまま呼び出し元へ返すのだよ。
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Doer はHTTPリクエストを実行できるクライアントの最小インターフェースなのだ。
// 実体には go-http-kit のクライアントを渡すのだ。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client はチャット補完と画像生成のエンドポイントを叩くクライアントなのだ。
type Client struct {
	httpClient Doer
	baseURL    string
	apiKey     string
	chatModel  string
	imageModel string
}

// New は Client の新しいインスタンスを生成して返すのだ。
func New(httpClient Doer, baseURL, apiKey, chatModel, imageModel string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		imageModel: imageModel,
	}
}

// CompleteOptions は1回のチャット補完呼び出しの挙動を制御するのだ。
type CompleteOptions struct {
	// MaxTokens が正の値なら、生成トークン数に上限をかけるのだ。
	MaxTokens int
	// JSONMode が真なら、モデルに厳密なJSONのみを返すよう強制するのだ。
	JSONMode bool
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// Complete は単一のユーザーメッセージでチャット補完を実行し、本文テキストを返すのだ。
func (c *Client) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	reqBody := chatRequest{
		Model:     c.chatModel,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: opts.MaxTokens,
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var resp chatResponse
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("チャットAPIがエラーを返したのだ: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("チャットAPIの応答が空だったのだ")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("チャットAPIの応答本文が空だったのだ")
	}
	return content, nil
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// GenerateImage は正方形の画像を1枚生成し、そのリモートURLを返すのだ。
// 返ってくるURLは一時的なもので、やがて失効する点に注意なのだ。
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqBody := imageRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		Size:    "1024x1024",
		Quality: "standard",
		N:       1,
	}

	var resp imageResponse
	if err := c.postJSON(ctx, "/images/generations", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("画像APIがエラーを返したのだ: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("画像APIが画像を返さなかったのだ")
	}
	return resp.Data[0].URL, nil
}

// postJSON はJSONボディをPOSTし、レスポンスを out にデコードするのだ。
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("リクエストのエンコードに失敗したのだ: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("APIへの接続に失敗したのだ: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスの読み取りに失敗したのだ: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("APIが status %d を返したのだ: %s", resp.StatusCode, snippet(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("レスポンスのデコードに失敗したのだ: %w", err)
	}
	return nil
}

// snippet はログやエラーに載せるためにボディを短く切り詰めるのだ。
func snippet(raw []byte) string {
	const limit = 200
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
