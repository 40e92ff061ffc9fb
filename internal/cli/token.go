package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/auth"
)

func init() {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed session token for local development",
		Long:  "Sign a session token with the shared secret ($BETTER_AUTH_SECRET). Export it as $TODO_BRIDGE_TOKEN or pass it with --token.",
		Run:   runToken,
	}

	cmd.Flags().StringP("user", "u", "", "User id to put in the token (required)")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (default from config)")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runToken(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg := loadConfig()
	if err := cfg.RequireSecret(); err != nil {
		exitErr("token", err)
	}
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, exp, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, ttl).Issue(user)
	if err != nil {
		exitErr("token", err)
	}

	if textMode() {
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return
	}
	printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"user_id":    user,
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}
