package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/gobeaver/streamurl/config"
	"github.com/gobeaver/streamurl/history"
	"github.com/gobeaver/streamurl/streamurl"
)

// historyCommand groups the snapshot commands. They open the same database
// and export store as serve, configured by the same variables.
func historyCommand() *cobra.Command {
	var dir, dataDir string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export and restore saved history",
	}
	cmd.PersistentFlags().StringVarP(&dir, "direction", "d", "publish", "publish (stream) or playback (play)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the sqlite database and local exports")

	// withExporter resolves the direction and opens the services for one
	// command run.
	withExporter := func(cmd *cobra.Command, fn func(*history.Exporter, streamurl.Direction) error) error {
		d, err := streamurl.ParseDirection(dir)
		if err != nil {
			return err
		}
		cfg := &serverConfig{}
		if err := config.Load(cfg); err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		svc, err := openServices(cmd.Context(), cfg.DataDir, cfg.HistorySecret, logr.Discard())
		if err != nil {
			return err
		}
		defer svc.Close()
		return fn(svc.exporter, d)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the direction's history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExporter(cmd, func(e *history.Exporter, d streamurl.Direction) error {
				name, err := e.Export(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "exports",
		Short: "List earlier snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExporter(cmd, func(e *history.Exporter, d streamurl.Direction) error {
				files, err := e.Exports(cmd.Context(), d)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, f := range files {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.ModTime.UTC().Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "restore NAME",
		Short:   "Re-add the records of a snapshot",
		Example: "  streamurl history restore -d play history-20261019T120000Z.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExporter(cmd, func(e *history.Exporter, d streamurl.Direction) error {
				n, err := e.Restore(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d records from %s\n", n, args[0])
				return nil
			})
		},
	})

	return cmd
}
