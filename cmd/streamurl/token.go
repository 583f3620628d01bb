package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobeaver/streamurl/config"
	"github.com/gobeaver/streamurl/krypto"
)

func tokenCommand() *cobra.Command {
	var (
		subject string
		scope   string
		key     string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long:  "Issue an HS256 bearer token signed with --key, or with STREAMURL_JWT_KEY when the flag is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				var env struct {
					JWTKey string `env:"JWT_KEY"`
				}
				if err := config.Load(&env); err != nil {
					return err
				}
				key = env.JWTKey
			}
			if key == "" {
				return errors.New("no signing key: pass --key or set " + config.DefaultPrefix + "JWT_KEY")
			}
			tok, err := krypto.NewAPIToken([]byte(key), subject, scope, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().StringVar(&scope, "scope", "", "Optional scope claim")
	cmd.Flags().StringVar(&key, "key", "", "Signing key")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
