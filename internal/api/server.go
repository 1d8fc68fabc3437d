// Package api provides the HTTP API of the generator service: extraction of
// studio payloads from page snapshots, request-body conversion, command
// rendering, and the capture store shared by the capture and generator pages.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/capture"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/wsrelay"
)

type serverOptionConfig struct {
	extraMiddleware    []gin.HandlerFunc
	engineConfigurator func(*gin.Engine)
	routerConfigurator func(*gin.Engine, *config.Config)
	frameConcurrency   int
}

// ServerOption customises HTTP server construction.
type ServerOption func(*serverOptionConfig)

// WithMiddleware appends additional Gin middleware during server construction.
func WithMiddleware(mw ...gin.HandlerFunc) ServerOption {
	return func(cfg *serverOptionConfig) {
		cfg.extraMiddleware = append(cfg.extraMiddleware, mw...)
	}
}

// WithEngineConfigurator allows callers to mutate the Gin engine prior to middleware setup.
func WithEngineConfigurator(fn func(*gin.Engine)) ServerOption {
	return func(cfg *serverOptionConfig) {
		cfg.engineConfigurator = fn
	}
}

// WithRouterConfigurator appends a callback after default routes are registered.
func WithRouterConfigurator(fn func(*gin.Engine, *config.Config)) ServerOption {
	return func(cfg *serverOptionConfig) {
		cfg.routerConfigurator = fn
	}
}

// WithFrameConcurrency bounds how many frames of one request are extracted in parallel.
func WithFrameConcurrency(n int) ServerOption {
	return func(cfg *serverOptionConfig) {
		cfg.frameConcurrency = n
	}
}

// Server represents the API server.
type Server struct {
	engine *gin.Engine
	server *http.Server

	// mu guards cfg and extractor, both replaced on config reload.
	mu        sync.RWMutex
	cfg       *config.Config
	extractor *extract.Extractor

	manager          *capture.Manager
	hub              *wsrelay.Hub
	frameConcurrency int
}

// NewServer creates the API server over cfg and the capture manager.
func NewServer(cfg *config.Config, manager *capture.Manager, opts ...ServerOption) *Server {
	optionState := &serverOptionConfig{frameConcurrency: 4}
	for i := range opts {
		opts[i](optionState)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if optionState.engineConfigurator != nil {
		optionState.engineConfigurator(engine)
	}

	s := &Server{
		engine:           engine,
		cfg:              cfg,
		extractor:        NewExtractor(cfg.Extraction),
		manager:          manager,
		frameConcurrency: optionState.frameConcurrency,
	}
	s.hub = wsrelay.NewHub(manager, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || originAllowed(s.config().AllowedOrigins, origin)
	})

	engine.Use(log.GinRequestLogger())
	engine.Use(log.GinRecovery())
	engine.Use(s.corsMiddleware())
	engine.Use(decompressMiddleware())
	for _, mw := range optionState.extraMiddleware {
		engine.Use(mw)
	}

	s.setupRoutes()
	if optionState.routerConfigurator != nil {
		optionState.routerConfigurator(engine, cfg)
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}
	return s
}

// NewExtractor builds an extractor from the configured scan bounds.
func NewExtractor(e config.ExtractionConfig) *extract.Extractor {
	return extract.New(extract.Options{
		GlobalScanLimit: e.GlobalScanLimit,
		MinBlockLength:  e.MinBlockLength,
		MinViewerLength: e.MinViewerLength,
		MinGlobalSize:   e.MinGlobalSize,
		MaxGlobalSize:   e.MaxGlobalSize,
		MinToolsRatio:   e.MinToolsRatio,
	})
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Addr is the listen address.
func (s *Server) Addr() string { return s.server.Addr }

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Server) currentExtractor() *extract.Extractor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extractor
}

// Start begins listening for and serving HTTP requests.
// It's a blocking call and will only return on an unrecoverable error.
func (s *Server) Start() error {
	if s == nil || s.server == nil {
		return fmt.Errorf("failed to start HTTP server: server not initialized")
	}
	log.Infof("API server listening on %s", s.server.Addr)
	if errServe := s.server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %v", errServe)
	}
	return nil
}

// Stop gracefully shuts down the API server without interrupting any
// active connections.
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("Stopping API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	log.Debug("API server stopped")
	return nil
}

// UpdateConfig swaps in a reloaded configuration. Listen address and
// capture store changes need a restart and are only reported.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	oldCfg := s.cfg
	s.cfg = cfg
	s.extractor = NewExtractor(cfg.Extraction)
	s.mu.Unlock()

	if oldCfg.Debug != cfg.Debug {
		log.SetDebug(cfg.Debug)
		log.Debugf("debug mode updated from %t to %t", oldCfg.Debug, cfg.Debug)
	}
	if oldCfg.LoggingToFile != cfg.LoggingToFile || oldCfg.LogsDir != cfg.LogsDir {
		if err := log.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsDir); err != nil {
			log.Errorf("failed to reconfigure log output: %v", err)
		}
	}
	if oldCfg.Host != cfg.Host || oldCfg.Port != cfg.Port {
		log.Warnf("listen address changed to %s:%d; restart to apply", cfg.Host, cfg.Port)
	}
	if oldCfg.CaptureStore != cfg.CaptureStore {
		log.Warn("capture-store settings changed; restart to apply")
	}
	log.Info("configuration reloaded")
}
