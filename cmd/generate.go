package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、トピックからキャンペーン一式（投稿・リール台本・画像・公開）を実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "トピックから投稿・リール台本・画像を生成して公開するのだ。",
	Long: `投稿キャプション3本とリール台本を生成し、画像を1枚仕上げて
Webhookへ送信、最後に実行結果のスナップショットを保存するのだ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.Topic == "" {
		return fmt.Errorf("トピック（--topic）を指定してほしいのだ")
	}

	// 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("キャンペーンのパイプラインを起動するのだ！",
		"topic", opts.Topic,
		"chat_model", cfg.ChatModel,
		"image_model", cfg.ImageModel,
		"publish", !opts.NoPublish)

	result, err := pipeline.Execute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	if result.Delivery != nil && !result.Delivery.Delivered() {
		slog.Warn("送信は受理されなかったのだ。報告を確認してほしいのだ", "status", result.Delivery.StatusCode, "error", result.Delivery.Error)
	}
	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
