// Command dictation runs the real-time speech-to-text pipeline: capture,
// resample, VAD gating, windowed transcription, fuzzy-matched draft
// assembly, and the websocket/REST event surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lokutor-ai/lokutor-dictation/pkg/config"
	"github.com/lokutor-ai/lokutor-dictation/pkg/logging"
	"github.com/lokutor-ai/lokutor-dictation/pkg/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "dictation: config: %v\n", err)
		return 1
	}

	log := logging.New(cfg.LogLevel)

	p, err := pipeline.New(cfg, log)
	if err != nil {
		log.Error("dictation: failed to build pipeline", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("dictation: starting", "host", cfg.Host, "port", cfg.Port, "workers", cfg.WorkerCount)
	err = p.Run(ctx)

	if err == nil || errors.Is(err, context.Canceled) {
		log.Info("dictation: shut down cleanly")
		if ctx.Err() != nil {
			return 130
		}
		return 0
	}

	log.Error("dictation: exited with error", "error", err)
	return 1
}
