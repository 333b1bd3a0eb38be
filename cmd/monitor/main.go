package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/api"
	"github.com/Caring-Indians-2020/backend-medKit/internal/config"
	"github.com/Caring-Indians-2020/backend-medKit/internal/couchbase"
	"github.com/Caring-Indians-2020/backend-medKit/internal/directory"
	"github.com/Caring-Indians-2020/backend-medKit/internal/ingest"
	"github.com/Caring-Indians-2020/backend-medKit/internal/metrics"
	"github.com/Caring-Indians-2020/backend-medKit/internal/mqtt"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
	"github.com/Caring-Indians-2020/backend-medKit/pkg/zerolog_config"
)

func main() {
	cfg := config.Load()

	// Set app prefix
	zerolog_config.SetAppPrefix("monitor")

	// Initialize zerolog with Elasticsearch
	zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs", cfg.LogLevel)

	log.Info().Msg("Starting medkit-monitor service")

	// Start system metrics collection
	metrics.StartSystemMetricsCollection("monitor")

	// Patient/bed directory
	dbClient, err := couchbase.NewClient(
		cfg.CouchbaseURL,
		cfg.CouchbaseUsername,
		cfg.CouchbasePassword,
		cfg.CouchbaseBucket,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	defer dbClient.Close()
	store := directory.NewCouchbaseStore(dbClient)

	// Telemetry cache shared by the ingest loop and every viewer session
	cache := telemetry.NewCache(cfg.MaxQueueLen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Housekeeping: expire viewer sessions that stopped polling without
	// deregistering
	go runHousekeeping(ctx, cache, cfg.SessionIdleTTL)

	// Ingest loop consuming the whole telemetry feed
	mqttClient, err := mqtt.NewClient(mqtt.Options{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
	}
	defer mqttClient.Disconnect()

	loop := ingest.NewLoop(store, cache)
	if err := loop.Start(mqttClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to start ingest loop")
	}

	// REST + realtime surface
	router := api.SetupRoutes(api.New(store, cache, cfg.RealtimeTick))
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.APIPort).
			Msg("Server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")
	cancel()

	// Shutdown server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Monitor service shutdown complete")
}

// runHousekeeping periodically expires idle viewer sessions from the cache.
func runHousekeeping(ctx context.Context, cache *telemetry.Cache, idleTTL time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Housekeeping stopping")
			return
		case <-ticker.C:
			if expired := cache.ExpireIdle(idleTTL); expired > 0 {
				log.Info().Int("expired", expired).Msg("Housekeeping expired idle sessions")
			}
		}
	}
}
