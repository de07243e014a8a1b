// Package hosting は、画像を公開ホスティングサービスへ再アップロードするのだ。
// 生成APIが返すURLは期限切れで消えるので、下流へ渡す前にここで恒久URLへ
// 差し替えるのだ。Rehost はベストエフォートで、失敗してもパイプラインは止めないのだよ。
package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Doer はHTTPリクエストを実行できるクライアントの最小インターフェースなのだ。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Uploader は画像のダウンロードと再アップロードを担う実体なのだ。
type Uploader struct {
	httpClient Doer
	endpoint   string
	apiKey     string
	tempDir    string
}

// NewUploader は Uploader の新しいインスタンスを生成して返すのだ。
func NewUploader(httpClient Doer, endpoint, apiKey, tempDir string) *Uploader {
	return &Uploader{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		tempDir:    tempDir,
	}
}

// hostResponse は画像ホスティングAPIのレスポンス形式なのだ。
type hostResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Rehost はリモートURLの画像をダウンロードし、ホスティングサービスへ載せ替えるのだ。
// 一時ファイルは成功・失敗を問わず必ず削除するのだ。
// 失敗時は ok=false を返すだけで、エラーとしては扱わないのだ。
// 下流は元のURLのまま劣化運転できるからなのだよ。
func (u *Uploader) Rehost(ctx context.Context, remoteURL string) (string, bool) {
	if u.apiKey == "" {
		slog.Warn("画像ホスティングのAPIキーが未設定なので載せ替えをスキップするのだ")
		return "", false
	}

	data, err := u.download(ctx, remoteURL)
	if err != nil {
		slog.Warn("載せ替え用のダウンロードに失敗したのだ", "url", truncateForLog(remoteURL), "error", err)
		return "", false
	}

	if err := os.MkdirAll(u.tempDir, 0o755); err != nil {
		slog.Warn("一時ディレクトリの作成に失敗したのだ", "dir", u.tempDir, "error", err)
		return "", false
	}

	tempPath := filepath.Join(u.tempDir, fmt.Sprintf("temp_%s.jpg", uuid.NewString()))
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		slog.Warn("一時ファイルの書き出しに失敗したのだ", "path", tempPath, "error", err)
		return "", false
	}
	defer os.Remove(tempPath)

	hostedURL, err := u.Upload(ctx, tempPath)
	if err != nil {
		slog.Warn("ホスティングへの載せ替えに失敗したのだ", "error", err)
		return "", false
	}

	slog.Info("画像を恒久URLへ載せ替えたのだ", "url", truncateForLog(hostedURL))
	return hostedURL, true
}

// Upload はローカルファイルをmultipartでアップロードし、公開URLを返すのだ。
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("アップロード対象が開けないのだ: %w", err)
	}
	defer file.Close()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint+"?key="+u.apiKey, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ホスティングへの接続に失敗したのだ: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ホスティングが status %d を返したのだ", resp.StatusCode)
	}

	var parsed hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ホスティングの応答が読めないのだ: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("ホスティングがアップロードを拒否したのだ")
	}
	return parsed.Data.URL, nil
}

// download はリモートURLから画像バイト列を取得するのだ。
func (u *Uploader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ダウンロード元が status %d を返したのだ", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func truncateForLog(s string) string {
	const limit = 80
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
