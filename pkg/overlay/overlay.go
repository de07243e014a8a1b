// Package overlay は、画像の下部にブランドテキストを合成するのだ。
// 1080x1080へリサイズした上で、折り返し済みの行を中央揃えで積み上げ、
// 各行を黒の落ち影→白の本体の順で二度描きする。背景がどんな色でも
// 文字が読めるようにするための泥臭い工夫なのだよ。
package overlay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // PNGで返してくる生成APIもいるのでデコーダを登録しておくのだ
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/shouni/go-social-kit/pkg/asset"
)

// CanvasSize は出力画像の一辺の長さなのだ。Instagram向けの正方形なのだ。
const CanvasSize = 1080

// DefaultFontSize は指定が無い場合のライン1のフォントサイズなのだ。
const DefaultFontSize = 80

const (
	bottomMargin   = 60  // 下端からテキストブロックまでの余白なのだ
	subLineScale   = 0.7 // ライン2はライン1の0.7倍で描くのだ
	lineGapScale   = 0.3 // 行ブロック間の隙間はフォントサイズの0.3倍なのだ
	jpegQuality    = 95
	line1WrapBase  = 40 // フォントサイズ80のときのライン1の折り返し幅（文字数）なのだ
	line2WrapBase  = 50 // 同じくライン2の折り返し幅なのだ
	referenceSize  = 80 // 折り返し幅の逆比例計算の基準サイズなのだ
	minShadowShift = 3
)

// Doer はHTTPリクエストを実行できるクライアントの最小インターフェースなのだ。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Renderer はブランドテキスト合成の実行実体なのだ。
type Renderer struct {
	httpClient Doer
	outputDir  string
}

// NewRenderer は Renderer の新しいインスタンスを生成して返すのだ。
func NewRenderer(httpClient Doer, outputDir string) *Renderer {
	if outputDir == "" {
		outputDir = asset.DefaultImageDir
	}
	return &Renderer{httpClient: httpClient, outputDir: outputDir}
}

// Render は画像をダウンロードしてテキストを合成し、ローカルへ保存してパスを返すのだ。
// line1 と line2 の両方が空の場合、このコンポーネントはそもそも呼ばれない想定なのだ。
func (r *Renderer) Render(ctx context.Context, imageURL, line1, line2 string, fontSize int) (string, error) {
	src, err := r.download(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("合成元画像のダウンロードに失敗したのだ: %w", err)
	}

	composed, err := Compose(src, line1, line2, fontSize)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗したのだ: %w", err)
	}
	outputPath, err := asset.ResolveOutputPath(r.outputDir, asset.BrandedImageName(time.Now()))
	if err != nil {
		return "", err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("出力ファイルが作れないのだ: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, composed, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("JPEGエンコードに失敗したのだ: %w", err)
	}

	slog.Info("ブランド画像を保存したのだ", "path", outputPath)
	return outputPath, nil
}

// Compose は画像を1080x1080へリサイズし、テキストブロックを下部中央へ合成するのだ。
// ネットワークに触らない純粋な合成処理なので、テストはここを直接叩けばいいのだ。
func Compose(src image.Image, line1, line2 string, fontSize int) (*image.RGBA, error) {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	canvas := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, src.Bounds(), draw.Src, nil)

	mainFace, err := loadFace(float64(fontSize))
	if err != nil {
		return nil, err
	}
	subFace, err := loadFace(float64(fontSize) * subLineScale)
	if err != nil {
		return nil, err
	}

	// 折り返し幅はフォントサイズに逆比例させるのだ。小さい文字ほど1行に多く積めるのだよ。
	type block struct {
		lines []string
		face  font.Face
	}
	var blocks []block
	if line1 != "" {
		width := line1WrapBase * referenceSize / fontSize
		blocks = append(blocks, block{wrapText(line1, width), mainFace})
	}
	if line2 != "" {
		width := line2WrapBase * referenceSize / fontSize
		blocks = append(blocks, block{wrapText(line2, width), subFace})
	}
	if len(blocks) == 0 {
		return canvas, nil
	}

	lineGap := int(float64(fontSize) * lineGapScale)

	totalHeight := 0
	for i, b := range blocks {
		totalHeight += len(b.lines) * faceHeight(b.face)
		if i > 0 {
			totalHeight += lineGap
		}
	}

	shadowShift := fontSize / 25
	if shadowShift < minShadowShift {
		shadowShift = minShadowShift
	}

	shadow := image.NewUniform(color.RGBA{0, 0, 0, 180})
	ink := image.NewUniform(color.White)

	// 下端の余白ぶんを確保した位置から、行を上から順に積んでいくのだ
	currentY := CanvasSize - totalHeight - bottomMargin
	for i, b := range blocks {
		if i > 0 {
			currentY += lineGap
		}
		ascent := b.face.Metrics().Ascent.Ceil()
		for _, line := range b.lines {
			lineWidth := font.MeasureString(b.face, line).Ceil()
			x := (CanvasSize - lineWidth) / 2
			baseline := currentY + ascent

			drawLine(canvas, b.face, shadow, line, x+shadowShift, baseline+shadowShift)
			drawLine(canvas, b.face, ink, line, x, baseline)

			currentY += faceHeight(b.face)
		}
	}

	return canvas, nil
}

// drawLine は1行ぶんのテキストを指定色で描くのだ。
func drawLine(dst *image.RGBA, face font.Face, src image.Image, text string, x, baseline int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// faceHeight はフォントの1行ぶんの高さ（アセント+ディセント）を返すのだ。
func faceHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// wrapText は文章を最大 width 文字で単語単位に折り返すのだ。
// 単語1つが幅を超える場合は、その単語だけで1行にするのだ。
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// loadFace はシステムフォントの読み込みを試み、失敗したら同梱のGo Regularへ
// フォールバックするのだ。フォントが無いくらいで合成全体を失敗させたくないのだよ。
func loadFace(size float64) (font.Face, error) {
	data, err := os.ReadFile(systemFontPath())
	if err != nil {
		slog.Warn("システムフォントが読めなかったので同梱フォントを使うのだ", "error", err)
		data = goregular.TTF
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		slog.Warn("システムフォントの解析に失敗したので同梱フォントを使うのだ", "error", err)
		if parsed, err = opentype.Parse(goregular.TTF); err != nil {
			return nil, fmt.Errorf("同梱フォントまで解析できなかったのだ: %w", err)
		}
	}

	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// systemFontPath はOSごとの標準的なフォントパスを返すのだ。
func systemFontPath() string {
	switch runtime.GOOS {
	case "windows":
		return `C:\Windows\Fonts\arial.ttf`
	case "darwin":
		return "/System/Library/Fonts/Helvetica.ttc"
	default:
		return "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	}
}

// download は合成元の画像を取得してデコードするのだ。
func (r *Renderer) download(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ダウンロード元が status %d を返したのだ", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗したのだ: %w", err)
	}
	return img, nil
}
