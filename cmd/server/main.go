package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend-go/internal/app"
	"portfolio-backend-go/internal/config"
	httpapi "portfolio-backend-go/internal/http"
	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("config")
	}

	cleanupLogs, err := logging.Init(logging.Config{
		Level:         cfg.LogLevel,
		JSON:          cfg.LogJSON,
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		logging.Logger.Error().Err(err).Msg("logger setup failed")
	} else {
		defer cleanupLogs()
	}
	log := logging.WithComponent("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer st.Close()

	blobs, err := app.BlobStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("blob store")
	}

	hub := services.NewMetricsHub()
	go hub.Run(ctx)
	samples := services.NewSampleRing(720)
	sampler := services.Sampler{
		DiskPath: cfg.MetricsDiskPath,
		Interval: time.Duration(cfg.MetricsSampleSeconds) * time.Second,
		Ring:     samples,
		Hub:      hub,
	}
	go sampler.Run(ctx)

	server := httpapi.NewServer(cfg, httpapi.Deps{
		Store:      st,
		Notifier:   app.Notifier(cfg),
		Blobs:      blobs,
		Listener:   app.Listener(cfg),
		Samples:    samples,
		MetricsHub: hub,
	})

	if _, err := server.Settings.GetOrCreate(ctx); err != nil {
		log.Fatal().Err(err).Msg("site settings")
	}

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	server.Contacts.Wait()
	log.Info().Msg("shutdown complete")
}
