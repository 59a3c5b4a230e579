package ports

import (
	"context"
	"image"
	"time"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

// ModelPrediction is the raw model output for one scan.
type ModelPrediction struct {
	Probability float64 `json:"probability"`
	Finding     string  `json:"primary_finding"`
}

// ModelStatus describes the model service's current backend and state.
type ModelStatus struct {
	Backend string `json:"backend"`
	Loaded  bool   `json:"loaded"`
	State   string `json:"state"`
	Path    string `json:"model_path,omitempty"`
	Device  string `json:"device,omitempty"`
}

// ModelService is the pluggable prediction backend shared by all requests.
type ModelService interface {
	Predict(ctx context.Context, img image.Image) (ModelPrediction, error)
	Status() ModelStatus
	Reload(ctx context.Context) (ModelStatus, error)
}

// ScanDecoder turns uploaded bytes into a normalized raster image.
type ScanDecoder interface {
	Decode(data []byte, filename string) (*domain.Scan, error)
}

// AuditLog is the append-only record of prediction requests.
type AuditLog interface {
	Append(rec domain.AuditRecord) error
	Tail(limit int) ([]domain.AuditRecord, error)
}

// ResultCache short-circuits repeat predictions for byte-identical uploads.
// Implementations may be absent; callers must tolerate a nil cache.
type ResultCache interface {
	Get(ctx context.Context, contentHash string) (*CachedResult, error)
	Set(ctx context.Context, contentHash string, res CachedResult, ttl time.Duration) error
}

// CachedResult is the subset of a prediction worth replaying for identical
// content. Audit ids are never cached; every request gets a fresh one.
type CachedResult struct {
	Probability float64 `json:"probability"`
	Finding     string  `json:"primary_finding"`
	Modality    string  `json:"scan_modality"`
}

// PredictionService orchestrates the upload → decode → predict → audit
// pipeline.
type PredictionService interface {
	Predict(ctx context.Context, who *domain.Identity, filename string, content []byte) (*domain.PredictionResult, error)
}
