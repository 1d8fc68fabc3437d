package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/skratchdot/open-golang/open"
	"golang.org/x/sync/errgroup"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/api"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/capture"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/render"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/watcher"
)

const (
	storeOpenTimeout = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// StartService runs the API server until SIGINT or SIGTERM.
func StartService(cfg *config.Config, configPath string, openBrowser bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := RunService(ctx, cfg, configPath, openBrowser); err != nil {
		log.Fatalf("service stopped: %v", err)
	}
	log.Info("service stopped")
}

// RunService serves the API and watches configPath until ctx is done.
func RunService(ctx context.Context, cfg *config.Config, configPath string, openBrowser bool) error {
	manager, err := openManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := manager.Close(); errClose != nil {
			log.WithError(errClose).Warn("failed to close capture store")
		}
	}()

	server := api.NewServer(cfg, manager)

	g, gctx := errgroup.WithContext(ctx)
	if configPath != "" {
		w, errWatcher := watcher.NewWatcher(configPath, server.UpdateConfig)
		if errWatcher != nil {
			return fmt.Errorf("failed to create config watcher: %w", errWatcher)
		}
		if errStart := w.Start(gctx); errStart != nil {
			return fmt.Errorf("failed to start config watcher: %w", errStart)
		}
		defer func() { _ = w.Stop() }()
	}

	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if openBrowser {
		OpenGenerator(cfg.GeneratorURL)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openManager(ctx context.Context, cfg *config.Config) (*capture.Manager, error) {
	openCtx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
	defer cancel()

	store, err := capture.Open(openCtx, cfg.CaptureStore)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture store: %w", err)
	}

	var archive capture.Archiver
	if cfg.Archive.Enabled() {
		a, errArchive := capture.NewObjectArchive(openCtx, cfg.Archive)
		if errArchive != nil {
			log.WithError(errArchive).Warn("object archive disabled")
		} else {
			archive = a
			log.Infof("archiving captures to bucket %s", cfg.Archive.Bucket)
		}
	}
	return capture.NewManager(store, archive), nil
}

// OpenGenerator opens the generator page in the default browser.
func OpenGenerator(rawURL string) {
	target := render.NormalizeGeneratorURL(rawURL)
	if err := open.Run(target); err != nil {
		log.WithError(err).Warnf("failed to open browser, visit %s", target)
		return
	}
	log.Infof("opened %s", target)
}
