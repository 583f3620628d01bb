package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeaver/streamurl/streamurl"
)

func verifyCommand() *cobra.Command {
	var rawURL, key, alg string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the txSecret and txTime of an authenticated URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := streamurl.ParseAlgorithm(alg)
			if err != nil {
				return err
			}
			tok, err := streamurl.Verify(rawURL, key, a)
			if err != nil {
				return err
			}
			exp, err := tok.ExpiresAt()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid until %s UTC (txTime %s)\n", streamurl.FormatExpiry(exp), tok.HexTime)
			return nil
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", "", "URL to check")
	cmd.Flags().StringVar(&key, "key", "", "Authentication key")
	cmd.Flags().StringVar(&alg, "alg", "md5", "Digest algorithm: md5 or sha256")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("key")
	return cmd
}
