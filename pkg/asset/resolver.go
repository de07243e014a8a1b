// Package asset は、生成物（ブランド画像・結果スナップショット）の
// ファイル名と出力パスの解決を一手に引き受けるのだ。
package asset

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は合成済み画像や一時画像を格納するデフォルトのディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultOutputDir は結果スナップショットのデフォルトの保存先です。
	DefaultOutputDir = "output"
	// resultTimeLayout は結果スナップショットのファイル名に使うタイムスタンプ形式です。
	resultTimeLayout = "20060102_150405"
)

var (
	// BrandedFileRegex はブランド合成画像 (branded_1700000000.jpg 等) に一致します
	BrandedFileRegex = regexp.MustCompile(`^branded_\d+\.jpg$`)
	// ResultFileRegex は結果スナップショット (result_20240101_120000.json 等) に一致します
	ResultFileRegex = regexp.MustCompile(`^result_\d{8}_\d{6}\.json$`)
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から
// 最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// BrandedImageName はブランド合成画像のタイムスタンプ付きファイル名を生成します。
// 例: branded_1700000000.jpg
func BrandedImageName(ts time.Time) string {
	return fmt.Sprintf("branded_%d.jpg", ts.Unix())
}

// ResultSnapshotName は結果スナップショットのタイムスタンプ付きファイル名を生成します。
// 例: result_20240101_120000.json
func ResultSnapshotName(ts time.Time) string {
	return fmt.Sprintf("result_%s.json", ts.Format(resultTimeLayout))
}
