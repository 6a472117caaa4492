package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ruteri/liveness-gated-kms/api/kmshandler"
	"github.com/ruteri/liveness-gated-kms/api/server"
	"github.com/ruteri/liveness-gated-kms/cmd/flags"
	"github.com/ruteri/liveness-gated-kms/entropy"
	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/kms"
	"github.com/ruteri/liveness-gated-kms/storage"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

var entropyDefaults = entropy.DefaultConfig()

func main() {
	app := &cli.App{
		Name:  "kms-server",
		Usage: "Serve the liveness gated KMS",
		Flags: append(KmsFlags, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			window := cCtx.Int(UnlockWindowFlag.Name)
			if window <= 0 {
				return fmt.Errorf("%w: --%s=%d", interfaces.ErrInvalidWindow, UnlockWindowFlag.Name, window)
			}

			source, err := setupEntropy(cCtx, logger)
			if err != nil {
				logger.Error("Failed to configure entropy source", "err", err)
				return err
			}

			backend, err := storage.NewStateBackendFactory(logger).CreateMultiBackend(cCtx.StringSlice(StateLocationFlag.Name))
			if err != nil {
				logger.Error("Failed to configure state backend", "err", err)
				return err
			}

			loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			state := kms.NewState(loadCtx, backend, logger)
			cancel()

			gate, err := kms.NewGate(state, state, source, time.Duration(window)*time.Second, logger)
			if err != nil {
				logger.Error("Failed to create gate", "err", err)
				return err
			}

			handler := kmshandler.NewHandler(gate, cCtx.String(flags.APIKeyFlag.Name), logger).
				WithUnlockRateLimit(rate.Limit(cCtx.Float64(UnlockRateFlag.Name)), cCtx.Int(UnlockBurstFlag.Name))

			listenAddr := net.JoinHostPort(cCtx.String(ListenHostFlag.Name), strconv.Itoa(cCtx.Int(PortFlag.Name)))
			kmsServer, err := server.New(flags.ConfigureServer(cCtx, logger, listenAddr), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("KMS initialized",
				slog.String("entropy_mode", source.Mode()),
				slog.Int("unlock_window_seconds", window),
				slog.String("state", backend.LocationURI()))

			kmsServer.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			kmsServer.Shutdown()

			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := state.Flush(flushCtx); err != nil {
				logger.Error("Final state flush failed", "err", err)
			}
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupEntropy(cCtx *cli.Context, logger *slog.Logger) (*entropy.Source, error) {
	mode, err := entropy.ParseMode(cCtx.String(EntropyModeFlag.Name))
	if err != nil {
		return nil, err
	}

	cfg := entropy.Config{
		Mode:          mode,
		Device:        cCtx.String(CaptureDeviceFlag.Name),
		Frames:        cCtx.Int(CaptureFramesFlag.Name),
		Interval:      cCtx.Duration(CaptureIntervalFlag.Name),
		Timeout:       cCtx.Duration(CaptureTimeoutFlag.Name),
		LiveThreshold: cCtx.Float64(LiveThresholdFlag.Name),
		LowThreshold:  cCtx.Float64(LowThresholdFlag.Name),
	}

	var capturer interfaces.MotionCapturer
	if endpoint := cCtx.String(CaptureEndpointFlag.Name); mode == entropy.ModeExternal && endpoint != "" {
		httpCapturer, err := entropy.NewHTTPCapturer(endpoint, nil)
		if err != nil {
			return nil, err
		}
		capturer = httpCapturer
	}

	return entropy.NewSource(cfg, capturer, logger)
}
