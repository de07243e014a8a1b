package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/spf13/cobra"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/pkg/aiclient"
	"github.com/shouni/go-social-kit/pkg/generator"
)

// reelsCmd は、リール台本だけをさっと生成して標準出力へ流すのだ。
var reelsCmd = &cobra.Command{
	Use:   "reels",
	Short: "リール台本だけを生成してJSONで出力するのだ。",
	RunE:  reelsCommand,
}

func reelsCommand(cmd *cobra.Command, args []string) error {
	if opts.Topic == "" {
		return fmt.Errorf("トピック（--topic）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	httpClient := httpkit.New(cfg.HTTPTimeout)
	ai := aiclient.New(httpClient, cfg.ChatBaseURL, cfg.ChatAPIKey, cfg.ChatModel, cfg.ImageModel)

	reel, err := generator.New(ai).GenerateReelScript(cmd.Context(), opts.Topic)
	if err != nil {
		return fmt.Errorf("リール台本の生成に失敗したのだ: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "    ")
	return encoder.Encode(reel)
}
