package main

import (
	"context"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/orchestrator"
	"github.com/Caring-Indians-2020/backend-medKit/pkg/zerolog_config"
)

// Runs the whole demo stack as one unit: the monitor backend plus the
// bedside node simulator, built as sibling binaries in the working
// directory.
func main() {
	zerolog_config.SetAppPrefix("stack")
	zerolog_config.StartupWithEnv(os.Getenv("ELASTICSEARCH_URL"), "logs", os.Getenv("LOG_LEVEL"))

	log.Info().Msg("Starting medKit stack")

	binExt := ""
	if runtime.GOOS == "windows" {
		binExt = ".exe"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)

	sm := orchestrator.NewServiceManager()
	if err := sm.StartMonitorService(ctx, binExt); err != nil {
		log.Fatal().Err(err).Msg("Failed to start monitor service")
	}
	if err := sm.StartNodeSimService(ctx, binExt); err != nil {
		log.Fatal().Err(err).Msg("Failed to start node simulator")
	}

	sm.WaitForServices(ctx)
	log.Info().Msg("Stack shut down")
}
