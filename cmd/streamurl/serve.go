package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gobeaver/streamurl/api"
	"github.com/gobeaver/streamurl/config"
	"github.com/gobeaver/streamurl/logging"
)

// serverConfig is read from STREAMURL_* variables; flags override it.
type serverConfig struct {
	Addr            string        `env:"ADDR,default::3001"`
	DataDir         string        `env:"DATA_DIR,default:data"`
	StaticDir       string        `env:"STATIC_DIR"`
	JWTKey          string        `env:"JWT_KEY"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"`
	HistorySecret   string        `env:"HISTORY_SECRET"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default:10s"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE,default:0"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST,default:20"`
}

func serveCommand() *cobra.Command {
	var (
		flagSrv serverConfig
		flagLog = logging.Config{Format: "text"}
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and web form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srvCfg := &serverConfig{}
			if err := config.Load(srvCfg); err != nil {
				return err
			}
			logCfg, err := logging.GetConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				srvCfg.Addr = flagSrv.Addr
			}
			if flags.Changed("data-dir") {
				srvCfg.DataDir = flagSrv.DataDir
			}
			if flags.Changed("static-dir") {
				srvCfg.StaticDir = flagSrv.StaticDir
			}
			if flags.Changed("v") {
				logCfg.Verbosity = flagLog.Verbosity
			}
			if flags.Changed("log-format") {
				logCfg.Format = flagLog.Format
			}
			if flags.Changed("log-file") {
				logCfg.File = flagLog.File
			}

			log, closer, err := logging.New(*logCfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			return serve(cmd.Context(), *srvCfg, log)
		},
	}

	cmd.Flags().StringVar(&flagSrv.Addr, "addr", ":3001", "Listen address")
	cmd.Flags().StringVar(&flagSrv.DataDir, "data-dir", "data", "Directory for the sqlite database and local exports")
	cmd.Flags().StringVar(&flagSrv.StaticDir, "static-dir", "", "Directory of the built web form")
	logging.AddFlags(cmd.Flags(), &flagLog)
	return cmd
}

func serve(ctx context.Context, cfg serverConfig, log logr.Logger) error {
	svc, err := openServices(ctx, cfg.DataDir, cfg.HistorySecret, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	handler := api.NewRouter(api.Options{
		Recorder:    svc.recorder,
		Exporter:    svc.exporter,
		Metrics:     svc.metrics,
		Logger:      log.WithName("http"),
		Health:      func(ctx context.Context) error { return svc.db.Check(ctx, 2*time.Second) },
		JWTKey:      []byte(cfg.JWTKey),
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   cfg.StaticDir,

		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run the server until it fails or ctx is cancelled, then drain.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr, "database", svc.db.Driver(), "export_driver", svc.exportDriver)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
