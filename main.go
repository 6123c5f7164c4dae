package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/habedi/voxbridge/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// shutdownGrace is how long a command may take to wind down after the first
// interrupt before the process is terminated.
const shutdownGrace = 3 * time.Second

// main sets up logging from DEBUG_VOXBRIDGE, listens for interrupts and
// runs the root command.
func main() {
	configureLogLevelFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, cancel, shutdownGrace, func(msg string) { log.Error().Msg(msg) }, os.Exit)

	cmd.Execute(ctx)
}

// configureLogLevelFromEnv enables debug logging unless DEBUG_VOXBRIDGE is
// empty, "0" or "false".
func configureLogLevelFromEnv() {
	switch os.Getenv("DEBUG_VOXBRIDGE") {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt cancels the running command on the first interrupt. The
// process exits when a second interrupt arrives or grace runs out.
func handleInterrupt(stopChan chan os.Signal, cancel context.CancelFunc, grace time.Duration, fatalLog func(string), exit func(int)) {
	<-stopChan
	log.Info().Msg("Interrupt received, stopping...")
	cancel()

	select {
	case <-stopChan:
	case <-time.After(grace):
	}
	fatalLog("Interrupt signal received. Exiting...")
	exit(1)
}
