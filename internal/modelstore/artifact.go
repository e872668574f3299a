package modelstore

import (
	"encoding/json"
	"os"
	"time"

	"demandcast/internal/ml"
	"demandcast/pkg/errors"
)

// Artifact is the on-disk form of one trained per-group ensemble. Written
// once, never mutated; retraining supersedes the file via atomic rename.
type Artifact struct {
	Group        string       `json:"group"`
	SchemaHash   string       `json:"feature_schema_hash"`
	FeatureCount int          `json:"feature_count"`
	TrainedAt    time.Time    `json:"trained_at"`
	Ensemble     *ml.Ensemble `json:"ensemble"`
}

// GroupMetadata is the per-group entry of the scope metadata document
type GroupMetadata struct {
	TrainedAt    time.Time      `json:"trained_at"`
	FeatureCount int            `json:"feature_count"`
	SchemaHash   string         `json:"feature_schema_hash"`
	Metrics      ml.EvalMetrics `json:"metrics"`
	TrainSamples int            `json:"train_samples"`
	EvalSamples  int            `json:"eval_samples"`
}

// Metadata is the shared per-scope metadata document, one per artifact
// directory
type Metadata struct {
	Groups map[string]GroupMetadata `json:"groups"`
}

func readArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactCorrupt, "%s: %v", path, err)
	}
	if artifact.Ensemble == nil || artifact.Ensemble.Bagging == nil || artifact.Ensemble.Boosting == nil {
		return nil, errors.Wrapf(errors.ErrArtifactCorrupt, "%s: missing ensemble", path)
	}
	return &artifact, nil
}

func readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Metadata{Groups: map[string]GroupMetadata{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactCorrupt, "%s: %v", path, err)
	}
	if meta.Groups == nil {
		meta.Groups = map[string]GroupMetadata{}
	}
	return &meta, nil
}
