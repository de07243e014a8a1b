package publisher

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shouni/go-social-kit/pkg/asset"
)

// ResultWriter はパイプラインの実行結果をタイムスタンプ付きJSONとして保存するのだ。
// 監査とデバッグのための書き捨てスナップショットで、1回の実行につき1ファイルなのだ。
type ResultWriter struct {
	dir string
}

// NewResultWriter は ResultWriter の新しいインスタンスを生成して返すのだ。
func NewResultWriter(dir string) *ResultWriter {
	return &ResultWriter{dir: dir}
}

// Save は任意の実行結果をJSONへ直列化して保存し、保存先パスを返すのだ。
// 失敗するのはI/Oかエンコードの問題だけなのだ。
func (w *ResultWriter) Save(data any) (string, error) {
	encoded, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", fmt.Errorf("結果のエンコードに失敗したのだ: %w", err)
	}

	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return "", fmt.Errorf("保存先ディレクトリの作成に失敗したのだ: %w", err)
		}
	}

	path, err := asset.ResolveOutputPath(w.dir, asset.ResultSnapshotName(time.Now()))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("結果の書き出しに失敗したのだ: %w", err)
	}
	return path, nil
}
