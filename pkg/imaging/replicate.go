package imaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// replicate 系APIの固定サンプリングパラメータなのだ。
// 副系は品質より確実性を優先して、枯れた設定で一発勝負するのだ。
const (
	replicateScheduler = "K_EULER"
	replicateSteps     = 30
	replicateSide      = 1024
)

// Doer はHTTPリクエストを実行できるクライアントの最小インターフェースなのだ。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ReplicateProvider は Replicate 互換の予測APIを副系として使うのだ。
type ReplicateProvider struct {
	httpClient Doer
	endpoint   string
	token      string
	version    string
}

// NewReplicateProvider は ReplicateProvider の新しいインスタンスを生成して返すのだ。
func NewReplicateProvider(httpClient Doer, endpoint, token, version string) *ReplicateProvider {
	return &ReplicateProvider{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      token,
		version:    version,
	}
}

func (p *ReplicateProvider) Name() string { return "replicate" }

type replicateRequest struct {
	Version string         `json:"version"`
	Input   replicateInput `json:"input"`
}

type replicateInput struct {
	Prompt            string `json:"prompt"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	NumOutputs        int    `json:"num_outputs"`
	Scheduler         string `json:"scheduler"`
	NumInferenceSteps int    `json:"num_inference_steps"`
}

type replicateResponse struct {
	Output []string `json:"output"`
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
}

// Generate は同期モード（Prefer: wait）で予測を実行し、最初の出力URLを返すのだ。
func (p *ReplicateProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := replicateRequest{
		Version: p.version,
		Input: replicateInput{
			Prompt:            prompt,
			Width:             replicateSide,
			Height:            replicateSide,
			NumOutputs:        1,
			Scheduler:         replicateScheduler,
			NumInferenceSteps: replicateSteps,
		},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)
	// 予測の完了までレスポンスを保留してもらうのだ。ポーリング実装は持ちたくないのだ。
	req.Header.Set("Prefer", "wait")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("副系プロバイダへの接続に失敗したのだ: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("副系プロバイダが status %d を返したのだ", resp.StatusCode)
	}

	var parsed replicateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("副系プロバイダの応答が読めないのだ: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("副系プロバイダがエラーを返したのだ: %s", parsed.Error)
	}
	if len(parsed.Output) == 0 || parsed.Output[0] == "" {
		return "", fmt.Errorf("副系プロバイダが画像を返さなかったのだ")
	}
	return parsed.Output[0], nil
}
