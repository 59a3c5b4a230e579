package model

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// artifact is the serialized inference model: a logistic regression over a
// square grayscale downsample of the scan.
//
//	{"input_size": 32, "weights": [... 32*32 values ...], "bias": -0.5}
type artifact struct {
	InputSize int       `json:"input_size"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
}

type artifactBackend struct {
	model artifact
}

func newArtifactBackend(path string) (*artifactBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: model path not configured", domain.ErrModelLoad)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", domain.ErrModelLoad, err)
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: deserialize artifact: %v", domain.ErrModelLoad, err)
	}
	if a.InputSize <= 0 || len(a.Weights) != a.InputSize*a.InputSize {
		return nil, fmt.Errorf("%w: artifact wants %d inputs, has %d weights",
			domain.ErrModelLoad, a.InputSize*a.InputSize, len(a.Weights))
	}
	return &artifactBackend{model: a}, nil
}

func (b *artifactBackend) predict(_ context.Context, img image.Image) (ports.ModelPrediction, error) {
	inputs := downsample(img, b.model.InputSize)

	z := b.model.Bias
	for i, w := range b.model.Weights {
		z += w * inputs[i]
	}
	prob := clamp01(sigmoid(z))

	return ports.ModelPrediction{
		Probability: prob,
		Finding:     domain.FindingFor(prob),
	}, nil
}

// downsample reduces img to an n×n grid of mean grayscale intensities in
// [0, 1], row-major — the tensor shape the artifact expects.
func downsample(img image.Image, n int) []float64 {
	out := make([]float64, n*n)
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return out
	}

	for cy := 0; cy < n; cy++ {
		for cx := 0; cx < n; cx++ {
			x0 := bounds.Min.X + cx*w/n
			x1 := bounds.Min.X + (cx+1)*w/n
			y0 := bounds.Min.Y + cy*h/n
			y1 := bounds.Min.Y + (cy+1)*h/n
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if y1 <= y0 {
				y1 = y0 + 1
			}

			var sum, count float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, bl, _ := img.At(x, y).RGBA()
					// 16-bit channels; luma without chroma weighting.
					sum += float64(r+g+bl) / (3 * 65535)
					count++
				}
			}
			out[cy*n+cx] = sum / count
		}
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
