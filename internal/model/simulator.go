package model

import (
	"context"
	"image"
	"math"
	"math/rand/v2"
	"time"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// simulatorBackend emulates inference: a pseudo-random probability in the
// biased [0.3, 0.7) sub-range plus an artificial delay for latency realism.
type simulatorBackend struct {
	delay time.Duration
}

func newSimulatorBackend(delay time.Duration) *simulatorBackend {
	return &simulatorBackend{delay: delay}
}

func (b *simulatorBackend) predict(ctx context.Context, _ image.Image) (ports.ModelPrediction, error) {
	delay := b.delay
	if delay <= 0 {
		delay = time.Duration(100+rand.IntN(400)) * time.Millisecond
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ports.ModelPrediction{}, ctx.Err()
	case <-timer.C:
	}

	prob := round4(0.3 + 0.4*rand.Float64())
	return ports.ModelPrediction{
		Probability: prob,
		Finding:     domain.FindingFor(prob),
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
