package walkforward

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Metadata is the metrics JSON document persisted next to the model
// binary. Downstream consumers (report generators, the production scoring
// pipeline) treat it as read-only.
type Metadata struct {
	FeatureNames []string        `json:"feature_names"`
	Target       string          `json:"target"`
	Metrics      MetadataMetrics `json:"metrics"`

	DroppedFeatures []string     `json:"dropped_features,omitempty"`
	Folds           []FoldReport `json:"folds,omitempty"`
	GeneratedAt     string       `json:"generated_at"`
}

// MetadataMetrics is the pooled out-of-sample metrics block.
type MetadataMetrics struct {
	AUC              float64       `json:"auc"`
	Accuracy         float64       `json:"accuracy"`
	QuintileAnalysis []QuintileRow `json:"quintile_analysis"`
	ThresholdSweep   []SweepRow    `json:"threshold_sweep,omitempty"`
}

// BuildMetadata assembles the metadata document from a result.
func BuildMetadata(r *Result, now time.Time) *Metadata {
	return &Metadata{
		FeatureNames:    r.FeatureNames,
		Target:          "win",
		DroppedFeatures: r.DroppedNames,
		Folds:           r.Folds,
		GeneratedAt:     now.UTC().Format(time.RFC3339),
		Metrics: MetadataMetrics{
			AUC:              r.AUC,
			Accuracy:         r.Accuracy,
			QuintileAnalysis: r.Quintiles,
			ThresholdSweep:   r.Sweep,
		},
	}
}

// Persist writes the final model and its metadata document.
func Persist(r *Result, modelPath, metaPath string, now time.Time) error {
	if err := r.FinalModel.Save(modelPath); err != nil {
		return fmt.Errorf("persist model: %w", err)
	}
	meta := BuildMetadata(r, now)
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
