package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-social-kit/internal/config"

	"github.com/spf13/cobra"
)

// opts は、コマンドラインから渡される実行時パラメータの置き場なのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   "social-kit",
	Short: "トピックからSNS投稿・リール台本・画像を生成して公開するツールなのだ。",
	Long: `1つのトピックを入力すると、投稿キャプション3本とリール台本を生成し、
画像を1枚作って恒久URLへ載せ替え、Webhook経由で公開まで運ぶのだ。`,
	SilenceUsage: true,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- コンテンツ生成関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Topic, "topic", "t", "", "生成の種になるトピックなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.PromptTemplate, "prompt-template", "", "[TITLE]/[CAPTION] プレースホルダ付きの画像プロンプト雛形なのだ。")

	// --- ブランド合成関連 ---
	rootCmd.PersistentFlags().StringVar(&opts.BrandText, "brand-text", "", "画像へ焼き込むメインの一行なのだ。空なら合成しないのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.BrandSite, "brand-site", "", "サブの一行（サイトURLなど）なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.TextSize, "text-size", 0, "焼き込む文字のサイズなのだ。0ならデフォルトなのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().BoolVar(&opts.NoPublish, "no-publish", false, "Webhookへの送信を抑止するのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "結果スナップショットの保存先ディレクトリなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// テキストも画像もチャットAPIを通るので、このキーだけは欠かせないのだ！
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 OPENAI_API_KEY が設定されていません。生成APIの利用には必須なのだ")
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.PersistentPreRunE = preRunAppE
	rootCmd.AddCommand(generateCmd, reelsCmd, serveCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
