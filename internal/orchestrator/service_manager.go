package orchestrator

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// ServiceManager manages the lifecycle of the monitor and node simulator
// processes when the stack is run as a single unit.
type ServiceManager struct {
	monitorCmd *exec.Cmd
	nodesimCmd *exec.Cmd
}

// NewServiceManager creates a new service manager
func NewServiceManager() *ServiceManager {
	return &ServiceManager{}
}

// StartMonitorService starts the monitor service
func (sm *ServiceManager) StartMonitorService(ctx context.Context, binExt string) error {
	log.Info().Msg("Starting monitor service...")

	sm.monitorCmd = exec.CommandContext(ctx, "./monitor"+binExt)
	sm.monitorCmd.Stdout = log.Logger
	sm.monitorCmd.Stderr = log.Logger

	if err := sm.monitorCmd.Start(); err != nil {
		return err
	}

	// Give the monitor time to connect to the broker before nodes publish
	time.Sleep(2 * time.Second)
	return nil
}

// StartNodeSimService starts the bedside node simulator
func (sm *ServiceManager) StartNodeSimService(ctx context.Context, binExt string) error {
	log.Info().Msg("Starting node simulator...")

	sm.nodesimCmd = exec.CommandContext(ctx, "./nodesim"+binExt)
	sm.nodesimCmd.Stdout = log.Logger
	sm.nodesimCmd.Stderr = log.Logger

	if err := sm.nodesimCmd.Start(); err != nil {
		return err
	}

	return nil
}

// WaitForServices waits for either process to exit or the context to be
// cancelled.
func (sm *ServiceManager) WaitForServices(ctx context.Context) {
	log.Info().Msg("Both services started, waiting for completion...")

	monitorDone := make(chan error, 1)
	go func() {
		monitorDone <- sm.monitorCmd.Wait()
	}()

	nodesimDone := make(chan error, 1)
	go func() {
		nodesimDone <- sm.nodesimCmd.Wait()
	}()

	select {
	case err := <-monitorDone:
		if err != nil {
			log.Error().Err(err).Msg("Monitor service exited with error")
		} else {
			log.Info().Msg("Monitor service exited")
		}
	case err := <-nodesimDone:
		if err != nil {
			log.Error().Err(err).Msg("Node simulator exited with error")
		} else {
			log.Info().Msg("Node simulator exited")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down services...")
		sm.shutdownServices()
	}
}

// shutdownServices gracefully shuts down all services
func (sm *ServiceManager) shutdownServices() {
	if sm.nodesimCmd.Process != nil {
		sm.nodesimCmd.Process.Signal(syscall.SIGTERM)
	}

	if sm.monitorCmd.Process != nil {
		sm.monitorCmd.Process.Signal(syscall.SIGTERM)
	}

	// Wait for graceful shutdown
	time.Sleep(5 * time.Second)

	// Force kill if still running
	if sm.nodesimCmd.Process != nil {
		sm.nodesimCmd.Process.Kill()
	}
	if sm.monitorCmd.Process != nil {
		sm.monitorCmd.Process.Kill()
	}
}
