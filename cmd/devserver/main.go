package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/fitcalc/internal/config"
	"github.com/2beens/fitcalc/internal/devserver"
	"github.com/2beens/fitcalc/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "fitcalc-devserver",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using store: %s", cfg.Store)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	if cfg.AnonKey == "" {
		log.Fatalln("anon key not set, use FITCALC_ANON_KEY env var to set it")
	}
	if cfg.Store == devserver.StorePostgres && cfg.PostgresPassword == "" {
		log.Warnln("postgres password not set, use FITCALC_POSTGRES_PASS")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := devserver.NewServer(ctx, devserver.NewServerParams{
		Config: cfg,
	})
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	cancel()

	if err := server.GracefulShutdown(); err != nil {
		log.Errorf("graceful shutdown: %s", err)
	}
}
