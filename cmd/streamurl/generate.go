package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobeaver/streamurl/krypto"
	"github.com/gobeaver/streamurl/streamurl"
)

type generateOutput struct {
	Direction streamurl.Direction  `json:"direction"`
	Config    streamurl.Config     `json:"config"`
	URLs      []streamurl.NamedURL `json:"urls"`
}

func generateCommand() *cobra.Command {
	var (
		cfg       streamurl.Config
		dir       string
		alg       string
		ttl       time.Duration
		randomKey bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the URL set of a stream",
		Example: `  streamurl generate --domain push.example.com --stream stream001
  streamurl generate --direction play --domain play.example.com --stream stream001 --key abc123 --ttl 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := streamurl.ParseDirection(dir)
			if err != nil {
				return err
			}
			if cfg.Algorithm, err = streamurl.ParseAlgorithm(alg); err != nil {
				return err
			}

			if randomKey {
				if cfg.SecretKey != "" {
					return errors.New("--key and --random-key are mutually exclusive")
				}
				if cfg.SecretKey, err = krypto.GenerateSecureToken(16); err != nil {
					return err
				}
			}
			if ttl > 0 {
				if cfg.ExpireAt != "" {
					return errors.New("--expire and --ttl are mutually exclusive")
				}
				cfg.ExpireAt = streamurl.ExpireIn(ttl, time.Now())
			}

			urls, err := streamurl.GenerateAll(cfg, d)
			if err != nil {
				return err
			}
			ordered := urls.Ordered(d)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(generateOutput{Direction: d, Config: cfg, URLs: ordered})
			}

			tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			if randomKey {
				fmt.Fprintf(tw, "Key\t%s\n", cfg.SecretKey)
			}
			if cfg.AuthEnabled() {
				fmt.Fprintf(tw, "Expires\t%s UTC\n", cfg.ExpireAt)
			}
			for _, u := range ordered {
				fmt.Fprintf(tw, "%s\t%s\n", u.Protocol.DisplayName(), u.URL)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&dir, "direction", "d", "publish", "publish (stream) or playback (play)")
	cmd.Flags().StringVar(&cfg.Domain, "domain", "", "CDN domain")
	cmd.Flags().StringVar(&cfg.AppName, "app", streamurl.DefaultAppName, "Application name")
	cmd.Flags().StringVar(&cfg.StreamName, "stream", "", "Stream name")
	cmd.Flags().StringVar(&cfg.SecretKey, "key", "", "Authentication key; omit for unauthenticated URLs")
	cmd.Flags().StringVar(&cfg.ExpireAt, "expire", "", "Expiry as YYYY-MM-DD HH:MM:SS in UTC")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Expiry relative to now, instead of --expire")
	cmd.Flags().StringVar(&alg, "alg", "md5", "Digest algorithm: md5 or sha256")
	cmd.Flags().BoolVar(&randomKey, "random-key", false, "Generate a random authentication key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
