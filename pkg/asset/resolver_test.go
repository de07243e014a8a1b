package asset

import (
	"testing"
	"time"
)

func TestNames(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	t.Run("ブランド画像名は自分の正規表現に一致するのだ", func(t *testing.T) {
		name := BrandedImageName(ts)
		if !BrandedFileRegex.MatchString(name) {
			t.Errorf("名前が形式に合わないのだ: %s", name)
		}
	})

	t.Run("スナップショット名は日時を含むのだ", func(t *testing.T) {
		name := ResultSnapshotName(ts)
		if name != "result_20240102_150405.json" {
			t.Errorf("名前が違うのだ: %s", name)
		}
		if !ResultFileRegex.MatchString(name) {
			t.Errorf("名前が形式に合わないのだ: %s", name)
		}
	})
}
