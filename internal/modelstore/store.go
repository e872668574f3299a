// Package modelstore owns persistence and serving of trained per-group
// demand models. Artifacts live one file per category group inside a scope
// directory; a store-scoped instance falls back to the global scope for
// groups it has no local model for.
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"demandcast/internal/domain/catalog"
	"demandcast/internal/features"
	"demandcast/internal/metrics"
	"demandcast/internal/ml"
	"demandcast/pkg/errors"
	"demandcast/pkg/logger"
)

const (
	globalScopeDir = "global"
	storeScopeDir  = "stores"
	metadataFile   = "metadata.json"
	prevSuffix     = "_prev"
)

// Store loads, serves and persists per-group model artifacts. The loaded
// model map is read-only after Load returns, so Predict is safe for
// concurrent callers.
type Store struct {
	baseDir string
	storeID string
	log     *logger.Logger

	mu     sync.RWMutex
	models map[catalog.Group]*Artifact
}

// New creates a model store over baseDir. A non-empty storeID scopes the
// store to one retail location with global fallback; an empty storeID uses
// the global scope only.
func New(baseDir, storeID string, log *logger.Logger) *Store {
	return &Store{
		baseDir: baseDir,
		storeID: storeID,
		log:     log.With("component", "modelstore", "store_id", storeID),
		models:  make(map[catalog.Group]*Artifact),
	}
}

// scopeDir returns the primary artifact directory for this store
func (s *Store) scopeDir() string {
	if s.storeID == "" {
		return filepath.Join(s.baseDir, globalScopeDir)
	}
	return filepath.Join(s.baseDir, storeScopeDir, s.storeID)
}

func (s *Store) globalDir() string {
	return filepath.Join(s.baseDir, globalScopeDir)
}

func artifactFile(dir string, group catalog.Group) string {
	return filepath.Join(dir, fmt.Sprintf("%s.json", group))
}

// Load reads artifacts for every category group, preferring the store
// scope and falling back to the global scope per group. Artifacts whose
// recorded schema hash disagrees with the running feature schema are
// skipped as stale. Best effort: returns true when at least one group
// loaded.
func (s *Store) Load() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentHash := features.SchemaHash()
	loaded := make(map[catalog.Group]*Artifact, len(catalog.Groups))

	type scope struct {
		path string
		name string
	}
	dirs := []scope{{s.scopeDir(), "store"}}
	if s.storeID != "" {
		dirs = append(dirs, scope{s.globalDir(), "global"})
	}

	for _, dir := range dirs {
		for _, group := range catalog.Groups {
			if _, ok := loaded[group]; ok {
				continue
			}

			artifact, err := readArtifact(artifactFile(dir.path, group))
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				s.log.Warnw("Skipping unreadable model artifact",
					"group", group, "scope", dir.name, "error", err)
				continue
			}

			if err := checkSchemaHash(artifact, currentHash); err != nil {
				s.log.Warnw("Skipping stale model artifact",
					"group", group,
					"scope", dir.name,
					"error", err)
				metrics.StaleArtifacts.WithLabelValues(group.String()).Inc()
				continue
			}

			loaded[group] = artifact
			metrics.ArtifactsLoaded.WithLabelValues(group.String(), dir.name).Set(1)
			s.log.Infow("Model artifact loaded",
				"group", group,
				"scope", dir.name,
				"trained_at", artifact.TrainedAt,
				"features", artifact.FeatureCount)
		}
	}

	s.models = loaded
	return len(loaded) > 0
}

// checkSchemaHash rejects artifacts trained against a different feature
// schema than the running builder
func checkSchemaHash(artifact *Artifact, currentHash string) error {
	if artifact.SchemaHash != currentHash {
		return errors.Wrapf(errors.ErrSchemaMismatch,
			"artifact trained on schema %s, current %s", artifact.SchemaHash, currentHash)
	}
	return nil
}

// Save persists the ensemble for one group atomically, keeping the prior
// artifact as a backup. The write sequence is: temp file, rename existing
// artifact to its _prev name, move the temp file into place, then update
// the scope metadata. A failure at any step leaves the prior artifact
// valid and removes the temp file.
func (s *Store) Save(group catalog.Group, ensemble *ml.Ensemble, evalMetrics ml.EvalMetrics, trainSamples, evalSamples int) error {
	dir := s.scopeDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create artifact directory")
	}

	artifact := &Artifact{
		Group:        group.String(),
		SchemaHash:   features.SchemaHash(),
		FeatureCount: features.SchemaLength,
		TrainedAt:    time.Now().UTC(),
		Ensemble:     ensemble,
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return errors.Wrap(err, "failed to encode model artifact")
	}

	final := artifactFile(dir, group)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary artifact")
	}

	if _, err := os.Stat(final); err == nil {
		backup := filepath.Join(dir, fmt.Sprintf("%s%s.json", group, prevSuffix))
		if err := os.Rename(final, backup); err != nil {
			_ = os.Remove(tmp)
			return errors.Wrap(err, "failed to back up previous artifact")
		}
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to move artifact into place")
	}

	// Metadata only after the artifact write succeeded
	if err := s.updateMetadata(dir, group, artifact, evalMetrics, trainSamples, evalSamples); err != nil {
		return err
	}

	s.log.Infow("Model artifact saved",
		"group", group,
		"path", final,
		"train_samples", trainSamples,
		"eval_samples", evalSamples)
	return nil
}

func (s *Store) updateMetadata(dir string, group catalog.Group, artifact *Artifact, evalMetrics ml.EvalMetrics, trainSamples, evalSamples int) error {
	metaPath := filepath.Join(dir, metadataFile)
	meta, err := readMetadata(metaPath)
	if err != nil {
		return errors.Wrap(err, "failed to read scope metadata")
	}

	meta.Groups[group.String()] = GroupMetadata{
		TrainedAt:    artifact.TrainedAt,
		FeatureCount: artifact.FeatureCount,
		SchemaHash:   artifact.SchemaHash,
		Metrics:      evalMetrics,
		TrainSamples: trainSamples,
		EvalSamples:  evalSamples,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode scope metadata")
	}

	tmp := metaPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary metadata")
	}
	if err := os.Rename(tmp, metaPath); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to move metadata into place")
	}
	return nil
}

// Loaded reports whether a model is currently loaded for the group
func (s *Store) Loaded(group catalog.Group) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.models[group]
	return ok
}

// Metadata returns the metadata document of the store's primary scope
func (s *Store) Metadata() (*Metadata, error) {
	return readMetadata(filepath.Join(s.scopeDir(), metadataFile))
}
