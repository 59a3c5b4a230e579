package domain

// Known scan modalities. DICOM files carry their own modality tag; anything
// else is inferred from the file extension.
const (
	ModalityCT      = "CT"
	ModalityDICOM   = "DICOM"
	ModalityUnknown = "Unknown"
)

// Findings reported by the model service.
const (
	FindingSuspicious = "suspicious lesion"
	FindingNone       = "no acute findings"
)

// FindingThreshold is the probability at or above which a scan is labelled
// suspicious.
const FindingThreshold = 0.5

// FindingFor maps a malignancy probability to its finding label.
func FindingFor(probability float64) string {
	if probability >= FindingThreshold {
		return FindingSuspicious
	}
	return FindingNone
}

// AuditRecord is one durable row describing a single prediction request.
// Records are append-only and never mutated or deleted.
type AuditRecord struct {
	AuditID               string  `json:"audit_id"`
	UserID                string  `json:"user_id"`
	Filename              string  `json:"filename"`
	SavedPath             string  `json:"saved_path"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// PredictionResult is the transient per-request outcome returned to the
// caller. Only the AuditRecord subset is persisted.
type PredictionResult struct {
	AuditID               string  `json:"audit_id"`
	UserID                string  `json:"user_id"`
	ScanModality          string  `json:"scan_modality"`
	Filename              string  `json:"filename"`
	PrimaryFinding        string  `json:"primary_finding"`
	ProbabilityMalignancy float64 `json:"probability_malignancy"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}
