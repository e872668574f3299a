package modelstore

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcast/internal/domain/catalog"
	"demandcast/internal/features"
	"demandcast/internal/ml"
	pkgerrors "demandcast/pkg/errors"
	"demandcast/pkg/logger"
)

// fitTestEnsemble trains a small ensemble on synthetic data so tests
// exercise real model serialization rather than hand-built trees
func fitTestEnsemble(t *testing.T) *ml.Ensemble {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	n := 120
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		vec := make([]float64, features.SchemaLength)
		for j := range vec {
			vec[j] = rng.Float64()
		}
		X[i] = vec
		y[i] = 3*vec[0] + vec[1] + rng.Float64()*0.1
	}

	bagging := ml.NewBagging(ml.BaggingParams{NumTrees: 5, MaxDepth: 3, MinLeaf: 5, Seed: 1})
	require.NoError(t, bagging.Fit(X, y))
	boosting := ml.NewBoosting(ml.BoostingParams{Rounds: 10, LearningRate: 0.1, MaxDepth: 3, MinLeaf: 5, Alpha: 0.7})
	require.NoError(t, boosting.Fit(X, y))

	return &ml.Ensemble{
		Bagging:            bagging,
		Boosting:           boosting,
		BlendWeight:        0.5,
		Alpha:              0.7,
		FeatureImportances: ml.Importances(bagging, boosting),
	}
}

func testVector(seed int64) features.Vector {
	rng := rand.New(rand.NewSource(seed))
	vec := make(features.Vector, features.SchemaLength)
	for i := range vec {
		vec[i] = rng.Float64()
	}
	return vec
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	ensemble := fitTestEnsemble(t)

	writer := New(baseDir, "", logger.Get())
	require.NoError(t, writer.Save(catalog.GroupFood, ensemble, ml.EvalMetrics{MAE: 0.5, Alpha: 0.7}, 100, 20))

	reader := New(baseDir, "", logger.Get())
	require.True(t, reader.Load())
	require.True(t, reader.Loaded(catalog.GroupFood))

	// Loaded model must reproduce in-memory predictions exactly
	for seed := int64(0); seed < 5; seed++ {
		vec := testVector(seed)
		want := ensemble.Predict(vec)
		if want < 0 {
			want = 0
		}
		got, ok := reader.Predict(vec, "01")
		require.True(t, ok)
		assert.Equal(t, want, got, "seed %d", seed)
	}
}

func TestStore_StaleSchemaHashRejected(t *testing.T) {
	baseDir := t.TempDir()
	store := New(baseDir, "", logger.Get())
	require.NoError(t, store.Save(catalog.GroupFood, fitTestEnsemble(t), ml.EvalMetrics{}, 100, 20))

	// Rewrite the artifact with a hash from a different feature schema
	path := filepath.Join(baseDir, "global", "food.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["feature_schema_hash"] = json.RawMessage(`"0000000000000000"`)
	data, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	reader := New(baseDir, "", logger.Get())
	assert.False(t, reader.Load(), "stale artifact must not load")
	assert.False(t, reader.Loaded(catalog.GroupFood))

	_, ok := reader.Predict(testVector(1), "01")
	assert.False(t, ok)
}

func TestStore_CorruptArtifactSkipped(t *testing.T) {
	baseDir := t.TempDir()
	dir := filepath.Join(baseDir, "global")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "food.json"), []byte("{not json"), 0o644))

	store := New(baseDir, "", logger.Get())
	assert.False(t, store.Load())
}

func TestStore_ResaveKeepsBackup(t *testing.T) {
	baseDir := t.TempDir()
	store := New(baseDir, "", logger.Get())
	ensemble := fitTestEnsemble(t)

	require.NoError(t, store.Save(catalog.GroupAlcohol, ensemble, ml.EvalMetrics{}, 100, 20))
	require.NoError(t, store.Save(catalog.GroupAlcohol, ensemble, ml.EvalMetrics{}, 110, 25))

	_, err := os.Stat(filepath.Join(baseDir, "global", "alcohol_prev.json"))
	assert.NoError(t, err, "previous artifact kept as backup")

	reader := New(baseDir, "", logger.Get())
	assert.True(t, reader.Load())
}

func TestStore_GlobalFallback(t *testing.T) {
	baseDir := t.TempDir()

	globalStore := New(baseDir, "", logger.Get())
	require.NoError(t, globalStore.Save(catalog.GroupFood, fitTestEnsemble(t), ml.EvalMetrics{}, 100, 20))

	scoped := New(baseDir, "store-042", logger.Get())
	require.True(t, scoped.Load(), "store scope falls back to global artifacts")
	assert.True(t, scoped.Loaded(catalog.GroupFood))

	_, ok := scoped.Predict(testVector(1), "01")
	assert.True(t, ok)
}

func TestStore_StoreScopeShadowsGlobal(t *testing.T) {
	baseDir := t.TempDir()
	globalEnsemble := fitTestEnsemble(t)

	globalStore := New(baseDir, "", logger.Get())
	require.NoError(t, globalStore.Save(catalog.GroupFood, globalEnsemble, ml.EvalMetrics{}, 100, 20))

	// A per-store model trained on different data must win over global
	localEnsemble := fitTestEnsemble(t)
	localEnsemble.BlendWeight = 1.0
	localStore := New(baseDir, "store-042", logger.Get())
	require.NoError(t, localStore.Save(catalog.GroupFood, localEnsemble, ml.EvalMetrics{}, 100, 20))

	reader := New(baseDir, "store-042", logger.Get())
	require.True(t, reader.Load())

	vec := testVector(3)
	want := localEnsemble.Predict(vec)
	if want < 0 {
		want = 0
	}
	got, ok := reader.Predict(vec, "01")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestStore_PredictUnavailableGroup(t *testing.T) {
	store := New(t.TempDir(), "", logger.Get())
	store.Load()

	pred, ok := store.Predict(testVector(1), "20")
	assert.False(t, ok)
	assert.Zero(t, pred)
}

func TestStore_PredictRejectsWrongLength(t *testing.T) {
	baseDir := t.TempDir()
	store := New(baseDir, "", logger.Get())
	require.NoError(t, store.Save(catalog.GroupFood, fitTestEnsemble(t), ml.EvalMetrics{}, 100, 20))
	require.True(t, store.Load())

	_, ok := store.Predict(make(features.Vector, 3), "01")
	assert.False(t, ok)
}

func TestCheckSchemaHash(t *testing.T) {
	artifact := &Artifact{SchemaHash: features.SchemaHash()}
	assert.NoError(t, checkSchemaHash(artifact, features.SchemaHash()))

	err := checkSchemaHash(artifact, "0000000000000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrSchemaMismatch)
}

func TestStore_PredictBatch(t *testing.T) {
	baseDir := t.TempDir()
	store := New(baseDir, "", logger.Get())
	require.NoError(t, store.Save(catalog.GroupFood, fitTestEnsemble(t), ml.EvalMetrics{}, 100, 20))
	require.True(t, store.Load())

	t.Run("MixedVectorLengths", func(t *testing.T) {
		vecs := []features.Vector{
			testVector(1),
			make(features.Vector, 3), // wrong length, must be refused
			testVector(2),
		}
		preds, oks := store.PredictBatch(vecs, "01")
		require.Len(t, preds, 3)
		require.Len(t, oks, 3)

		assert.True(t, oks[0])
		assert.False(t, oks[1])
		assert.True(t, oks[2])
		assert.Zero(t, preds[1])
		assert.GreaterOrEqual(t, preds[0], 0.0)
		assert.GreaterOrEqual(t, preds[2], 0.0)
	})

	t.Run("UnloadedGroup", func(t *testing.T) {
		preds, oks := store.PredictBatch([]features.Vector{testVector(1), testVector(2)}, "20")
		for i := range oks {
			assert.False(t, oks[i])
			assert.Zero(t, preds[i])
		}
	})
}

func TestStore_MetadataUpdated(t *testing.T) {
	baseDir := t.TempDir()
	store := New(baseDir, "", logger.Get())
	require.NoError(t, store.Save(catalog.GroupFood, fitTestEnsemble(t), ml.EvalMetrics{MAE: 0.4, Pinball: 0.2, Alpha: 0.7}, 100, 20))

	meta, err := store.Metadata()
	require.NoError(t, err)
	entry, ok := meta.Groups["food"]
	require.True(t, ok)
	assert.Equal(t, features.SchemaHash(), entry.SchemaHash)
	assert.Equal(t, features.SchemaLength, entry.FeatureCount)
	assert.Equal(t, 100, entry.TrainSamples)
	assert.Equal(t, 20, entry.EvalSamples)
	assert.InDelta(t, 0.4, entry.Metrics.MAE, 1e-12)
}
