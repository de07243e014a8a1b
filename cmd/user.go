package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shouni/go-social-kit/internal/config"
	"github.com/shouni/go-social-kit/pkg/account"
)

var userFlags struct {
	password string
	email    string
	role     string
	active   bool
}

// userCmd は、ユーザー台帳をコマンドラインから管理するのだ。
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "ユーザー台帳を管理するのだ。",
	// 台帳の操作にAPIキーは要らないので、ルートの必須チェックを外すのだ
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "ユーザーを追加するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Create(args[0], userFlags.password, userFlags.email, account.Role(userFlags.role)); err != nil {
			return err
		}
		fmt.Printf("ユーザー %s を追加したのだ\n", args[0])
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <username>",
	Short: "ユーザーの属性を書き換えるのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		// 指定されたフラグだけを更新対象にするのだ
		var upd account.UpdateOptions
		if cmd.Flags().Changed("email") {
			upd.Email = &userFlags.email
		}
		if cmd.Flags().Changed("role") {
			role := account.Role(userFlags.role)
			upd.Role = &role
		}
		if cmd.Flags().Changed("active") {
			upd.Active = &userFlags.active
		}
		if cmd.Flags().Changed("password") {
			upd.Password = &userFlags.password
		}

		if err := store.Update(args[0], upd); err != nil {
			return err
		}
		fmt.Printf("ユーザー %s を更新したのだ\n", args[0])
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "ユーザーを削除するのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("ユーザー %s を削除したのだ\n", args[0])
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "ユーザーの一覧を表示するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tROLE\tEMAIL\tACTIVE\tLAST LOGIN")
		for _, u := range store.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", u.Username, u.Role, u.Email, u.Active, u.LastLogin)
		}
		return w.Flush()
	},
}

func init() {
	userCreateCmd.Flags().StringVarP(&userFlags.password, "password", "p", "", "パスワードなのだ。")
	userCreateCmd.Flags().StringVarP(&userFlags.email, "email", "e", "", "メールアドレスなのだ。")
	userCreateCmd.Flags().StringVarP(&userFlags.role, "role", "r", string(account.RoleUser), "権限区分（admin / user）なのだ。")

	userUpdateCmd.Flags().StringVarP(&userFlags.password, "password", "p", "", "新しいパスワードなのだ。")
	userUpdateCmd.Flags().StringVarP(&userFlags.email, "email", "e", "", "新しいメールアドレスなのだ。")
	userUpdateCmd.Flags().StringVarP(&userFlags.role, "role", "r", "", "新しい権限区分なのだ。")
	userUpdateCmd.Flags().BoolVar(&userFlags.active, "active", true, "アカウントの有効・無効なのだ。")

	userCmd.AddCommand(userCreateCmd, userUpdateCmd, userDeleteCmd, userListCmd)
}

func openStore() (*account.Store, error) {
	cfg := config.LoadConfig()
	return account.NewStore(cfg.UsersFile, account.NewBcryptHasher())
}
