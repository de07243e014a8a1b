package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-social-kit/internal/builder"
	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/internal/web"
)

// serveCmd は、ログイン付きダッシュボードAPIを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "キャンペーン実行とユーザー管理のダッシュボードAPIを起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVarP(&opts.ListenAddr, "listen", "l", config.DefaultListenAddr, "待ち受けアドレスなのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	cfg.Options = opts

	appCtx := builder.NewAppContext(cfg)
	store, err := builder.BuildAccountStore(appCtx)
	if err != nil {
		return err
	}

	// 初回起動でも必ずログインできるように、初期アカウントの種をまくのだ
	if err := store.EnsureDefaults("admin123", "user123"); err != nil {
		return fmt.Errorf("初期アカウントの作成に失敗したのだ: %w", err)
	}

	server, err := web.NewServer(cfg, store)
	if err != nil {
		return err
	}
	return server.Run(opts.ListenAddr)
}
