// Package model implements the pluggable prediction backend shared by all
// requests. The service is an explicitly constructed instance handed to the
// API layer; reload swaps the backend under a write lock so concurrent
// predictions observe strictly the old or the new backend.
package model

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// Backend selectors accepted in configuration.
const (
	BackendSimulate = "simulate"
	BackendArtifact = "artifact"
)

// Service states.
const (
	StateUnloaded = "unloaded"
	StateLoading  = "loading"
	StateReady    = "ready"
	StateFailed   = "failed"
)

// Config selects and parameterises the backend strategy.
type Config struct {
	// Backend is "simulate" (default) or "artifact".
	Backend string
	// Path locates the serialized artifact; required for the artifact backend.
	Path string
	// Device is informational pass-through for the artifact backend.
	Device string
	// SimulateDelay fixes the simulator's artificial latency. Zero means a
	// random delay in [100ms, 500ms) per prediction.
	SimulateDelay time.Duration
}

type backend interface {
	predict(ctx context.Context, img image.Image) (ports.ModelPrediction, error)
}

// Service dispatches predictions to the loaded backend.
type Service struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.RWMutex
	state   string
	backend backend
}

func New(cfg Config, logger zerolog.Logger) *Service {
	if cfg.Backend == "" {
		cfg.Backend = BackendSimulate
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	return &Service{cfg: cfg, logger: logger, state: StateUnloaded}
}

// Load builds the configured backend and transitions to ready, or to failed
// when the artifact cannot be loaded.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Service) loadLocked() error {
	s.state = StateLoading
	s.backend = nil

	var (
		b   backend
		err error
	)
	switch s.cfg.Backend {
	case BackendArtifact:
		b, err = newArtifactBackend(s.cfg.Path)
	default:
		b = newSimulatorBackend(s.cfg.SimulateDelay)
	}
	if err != nil {
		s.state = StateFailed
		s.logger.Error().Err(err).Str("backend", s.cfg.Backend).Str("path", s.cfg.Path).Msg("model load failed")
		return err
	}

	s.backend = b
	s.state = StateReady
	s.logger.Info().Str("backend", s.cfg.Backend).Msg("model loaded")
	return nil
}

// Predict runs the loaded backend on a decoded scan. The probability is
// always within [0, 1] and the finding follows the fixed 0.5 threshold.
func (s *Service) Predict(ctx context.Context, img image.Image) (ports.ModelPrediction, error) {
	s.mu.RLock()
	state, b := s.state, s.backend
	s.mu.RUnlock()

	if state != StateReady || b == nil {
		return ports.ModelPrediction{}, domain.ErrModelNotReady
	}
	return b.predict(ctx, img)
}

func (s *Service) Status() ports.ModelStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ports.ModelStatus{
		Backend: s.cfg.Backend,
		Loaded:  s.state == StateReady,
		State:   s.state,
		Path:    s.cfg.Path,
	}
	if s.cfg.Backend == BackendArtifact {
		st.Device = s.cfg.Device
	}
	return st
}

// Reload tears down the current backend and re-runs Load. In-flight
// predictions finish against whichever backend they captured.
func (s *Service) Reload(_ context.Context) (ports.ModelStatus, error) {
	s.mu.Lock()
	s.state = StateUnloaded
	err := s.loadLocked()
	s.mu.Unlock()

	if err != nil {
		return s.Status(), err
	}
	return s.Status(), nil
}
