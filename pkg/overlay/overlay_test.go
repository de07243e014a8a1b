package overlay

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/shouni/go-social-kit/pkg/asset"
)

// grayCanvas は合成テスト用の中間色一色の画像を作るのだ。
// 純白・純黒を含まないので、描かれた文字のピクセルだけを数えられるのだ。
func grayCanvas(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	gray := color.RGBA{128, 128, 128, 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, gray)
		}
	}
	return img
}

// countInkRows は純白に近いピクセルを含む行の最小・最大Y座標を返すのだ。
func countInkRows(img *image.RGBA) (minY, maxY int, found bool) {
	minY = img.Bounds().Dy()
	maxY = -1
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r > 0xf000 && g > 0xf000 && b > 0xf000 {
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
				found = true
				break
			}
		}
	}
	return minY, maxY, found
}

func TestCompose(t *testing.T) {
	t.Run("1080x1080のまま下部にテキストブロックが乗るのだ", func(t *testing.T) {
		src := grayCanvas(CanvasSize)
		got, err := Compose(src, "Experts Group FZE", "", DefaultFontSize)
		if err != nil {
			t.Fatalf("合成に失敗したのだ: %v", err)
		}

		if got.Bounds().Dx() != CanvasSize || got.Bounds().Dy() != CanvasSize {
			t.Errorf("出力サイズが違うのだ: %v", got.Bounds())
		}

		minY, maxY, found := countInkRows(got)
		if !found {
			t.Fatal("白い文字のピクセルが見当たらないのだ")
		}
		// テキストは下端の余白（60px + 影ぶん）より上で完結しているべきなのだ
		if maxY >= CanvasSize-bottomMargin+minShadowShift {
			t.Errorf("テキストが下端の余白に食い込んでいるのだ: maxY=%d", maxY)
		}
		// 下半分に描かれているべきなのだ（中央や上に漂っていたら配置ロジックの事故なのだ）
		if minY < CanvasSize/2 {
			t.Errorf("テキストの位置が高すぎるのだ: minY=%d", minY)
		}
	})

	t.Run("2行目は1行目より下に小さく描かれるのだ", func(t *testing.T) {
		one, err := Compose(grayCanvas(CanvasSize), "Brand", "", DefaultFontSize)
		if err != nil {
			t.Fatal(err)
		}
		two, err := Compose(grayCanvas(CanvasSize), "Brand", "www.example.ae", DefaultFontSize)
		if err != nil {
			t.Fatal(err)
		}

		oneMin, _, _ := countInkRows(one)
		twoMin, _, ok := countInkRows(two)
		if !ok {
			t.Fatal("2行版で文字が見当たらないのだ")
		}
		// 2行ぶん積むので、ブロックの先頭はより上から始まるのだ
		if twoMin >= oneMin {
			t.Errorf("2行版のほうが上から始まるべきなのだ: 1行=%d, 2行=%d", oneMin, twoMin)
		}
	})

	t.Run("小さいソース画像も正方形に引き伸ばされるのだ", func(t *testing.T) {
		got, err := Compose(grayCanvas(256), "Brand", "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if got.Bounds().Dx() != CanvasSize {
			t.Errorf("リサイズされていないのだ: %v", got.Bounds())
		}
	})
}

func TestWrapText(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"幅に収まれば1行なのだ", "hello world", 20, []string{"hello world"}},
		{"超えたら折り返すのだ", "aaaa bbbb cccc", 9, []string{"aaaa bbbb", "cccc"}},
		{"長すぎる単語は単独行なのだ", "supercalifragilistic ok", 5, []string{"supercalifragilistic", "ok"}},
		{"空文字は行無しなのだ", "", 10, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := wrapText(tc.text, tc.width); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("期待: %v, 実際: %v", tc.want, got)
			}
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Run("ダウンロードして合成してJPEGを書き出すのだ", func(t *testing.T) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, grayCanvas(64)); err != nil {
			t.Fatal(err)
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(buf.Bytes())
		}))
		defer srv.Close()

		dir := t.TempDir()
		r := NewRenderer(http.DefaultClient, dir)
		path, err := r.Render(context.Background(), srv.URL, "Experts Group FZE", "", DefaultFontSize)
		if err != nil {
			t.Fatalf("合成に失敗したのだ: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("出力ファイルが無いのだ: %v", err)
		}
		if info.Size() == 0 {
			t.Error("出力ファイルが空なのだ")
		}
		if !asset.BrandedFileRegex.MatchString(info.Name()) {
			t.Errorf("ファイル名が形式に合わないのだ: %s", info.Name())
		}
	})

	t.Run("ダウンロード失敗はエラーなのだ", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		r := NewRenderer(http.DefaultClient, t.TempDir())
		if _, err := r.Render(context.Background(), srv.URL, "Brand", "", 0); err == nil {
			t.Error("404なのにエラーが返らなかったのだ")
		}
	})
}
