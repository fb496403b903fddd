package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/drinkpos/internal/app"
	"github.com/noah-isme/drinkpos/internal/config"
	"github.com/noah-isme/drinkpos/internal/obs"
	"github.com/noah-isme/drinkpos/internal/register"
	"github.com/noah-isme/drinkpos/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	menuPath := flag.String("menu", cfg.MenuPath, "path to the menu CSV")
	flag.Parse()
	if flag.NArg() > 0 {
		*menuPath = flag.Arg(0)
	}

	// stdout belongs to the session; logs go to stderr.
	logger := obs.NewLoggerTo(os.Stderr, envOrDefault("OBS_LOG_FORMAT", "console"), envOrDefault("OBS_LOG_LEVEL", "warn"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	redisClient, err := app.NewRedis(ctx, cfg.RedisURL, false, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	receipts, storeName, target := app.ReceiptStore(cfg, redisClient, logger)
	svc := register.New(register.Options{
		Catalog:   app.LoadMenu(*menuPath, logger),
		Location:  cfg.Location,
		Receipts:  receipts,
		StoreName: storeName,
		Logger:    logger,
	})

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go app.WatchMenuReload(ctx, hup, *menuPath, logger, svc.ReloadMenu)

	s := &session.Session{Svc: svc, In: os.Stdin, Out: os.Stdout, ReceiptTarget: target}
	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("session ended")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
