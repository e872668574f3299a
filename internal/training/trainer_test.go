package training

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcast/internal/config"
	"demandcast/internal/domain/catalog"
	"demandcast/internal/domain/forecast"
	"demandcast/internal/features"
	"demandcast/internal/modelstore"
	pkgerrors "demandcast/pkg/errors"
	"demandcast/pkg/logger"
)

// fakeHistory is an in-memory HistoryStore for trainer tests
type fakeHistory struct {
	items   []forecast.Item
	records map[string][]forecast.DailyRecord
}

var _ forecast.HistoryStore = (*fakeHistory)(nil)

func (f *fakeHistory) DailyRecords(_ context.Context, itemCode string, days int) ([]forecast.DailyRecord, error) {
	records := f.records[itemCode]
	if len(records) > days {
		records = records[len(records)-days:]
	}
	return records, nil
}

func (f *fakeHistory) ActiveItems(_ context.Context, minDays int) ([]forecast.Item, error) {
	var items []forecast.Item
	for _, item := range f.items {
		if len(f.records[item.ItemCode]) >= minDays {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeHistory) ItemBusinessAttributes(_ context.Context, _ []string) (map[string]forecast.BusinessAttributes, error) {
	return map[string]forecast.BusinessAttributes{}, nil
}

func (f *fakeHistory) ExternalFactors(_ context.Context, _, _ time.Time) (map[string]forecast.ExternalFactor, error) {
	return map[string]forecast.ExternalFactor{}, nil
}

func (f *fakeHistory) ActivePromotionWindows(_ context.Context, _ string) ([]forecast.PromotionWindow, error) {
	return nil, nil
}

func (f *fakeHistory) ReceivingPatternStats(_ context.Context, _ []string) (map[string]forecast.ReceivingStats, error) {
	return map[string]forecast.ReceivingStats{}, nil
}

func constantHistory(itemCode string, days int, qty float64) []forecast.DailyRecord {
	end := forecast.Day(time.Now()).AddDate(0, 0, -1)
	records := make([]forecast.DailyRecord, days)
	for i := 0; i < days; i++ {
		records[i] = forecast.DailyRecord{
			ItemCode:     itemCode,
			Date:         end.AddDate(0, 0, -(days - 1 - i)),
			QtySold:      qty,
			ClosingStock: qty * 2,
		}
	}
	return records
}

func testTrainingConfig() config.TrainingConfig {
	return config.TrainingConfig{
		LookbackDays:       60,
		MinItemHistoryDays: 14,
		MinSamplesPerGroup: 50,
		BlendWeight:        0.5,
		Seed:               42,
		AlphaFood:          0.70,
		AlphaPerishable:    0.70,
		AlphaAlcohol:       0.65,
		AlphaTobacco:       0.60,
		AlphaGeneral:       0.40,
	}
}

func TestTrainer_TrainAllGroups(t *testing.T) {
	history := &fakeHistory{
		items: []forecast.Item{
			{ItemCode: "FOOD1", CategoryCode: "01"},    // 60 days -> 53 samples
			{ItemCode: "TOBACCO1", CategoryCode: "20"}, // 20 days -> 13 samples
		},
		records: map[string][]forecast.DailyRecord{
			"FOOD1":    constantHistory("FOOD1", 60, 5),
			"TOBACCO1": constantHistory("TOBACCO1", 20, 2),
		},
	}

	models := modelstore.New(t.TempDir(), "", logger.Get())
	trainer := New(history, models, testTrainingConfig(), logger.Get())

	outcomes, err := trainer.TrainAllGroups(context.Background(), 60)
	require.NoError(t, err)
	require.Len(t, outcomes, len(catalog.Groups))

	t.Run("FoodGroupSucceeds", func(t *testing.T) {
		food := outcomes[catalog.GroupFood]
		require.True(t, food.Success, "food outcome: %+v", food)
		assert.Positive(t, food.TrainSamples)
		assert.Positive(t, food.EvalSamples)
		// Constant demand of five is easy to fit
		assert.Less(t, food.Metrics.MAE, 1.0)
	})

	t.Run("TobaccoGroupInsufficient", func(t *testing.T) {
		tobacco := outcomes[catalog.GroupTobacco]
		require.False(t, tobacco.Success)
		assert.Contains(t, tobacco.Reason, "insufficient samples")
	})

	t.Run("EmptyGroupsSkipped", func(t *testing.T) {
		for _, group := range []catalog.Group{catalog.GroupAlcohol, catalog.GroupPerishable, catalog.GroupGeneral} {
			outcome := outcomes[group]
			assert.False(t, outcome.Success, "group %s should be skipped", group)
			assert.Contains(t, outcome.Reason, "insufficient samples")
		}
	})

	t.Run("TrainedModelPredictsConstantDemand", func(t *testing.T) {
		require.True(t, models.Load(), "trained artifact should load")

		target := forecast.Day(time.Now())
		vec, err := features.NewBuilder().Build(features.BuildInput{
			Window:       constantHistory("FOOD1", 21, 5),
			TargetDate:   target,
			CategoryCode: "01",
			StockQty:     10,
		})
		require.NoError(t, err)

		pred, ok := models.Predict(vec, "01")
		require.True(t, ok, "food model should be available")
		assert.GreaterOrEqual(t, pred, 0.0)
		assert.InDelta(t, 5.0, pred, 1.0, "constant-5 training data should predict near 5")
	})
}

// fakeTracker counts errors captured through the logger
type fakeTracker struct {
	mu       sync.Mutex
	captured []error
}

func (f *fakeTracker) CaptureError(_ context.Context, err error, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, err)
	return nil
}

func (f *fakeTracker) CaptureMessage(_ context.Context, _ string, _ pkgerrors.Level, _ map[string]string) error {
	return nil
}

func (f *fakeTracker) Flush(_ context.Context) error { return nil }

func (f *fakeTracker) Captured() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.captured...)
}

func TestTrainer_FailedGroupReachesErrorTracker(t *testing.T) {
	log := logger.Get()
	tracker := &fakeTracker{}
	logger.SetErrorTracker(tracker)
	defer logger.SetErrorTracker(nil)

	history := &fakeHistory{
		items: []forecast.Item{{ItemCode: "FOOD1", CategoryCode: "01"}},
		records: map[string][]forecast.DailyRecord{
			"FOOD1": constantHistory("FOOD1", 60, 5),
		},
	}

	// A file where the artifact base dir should be makes every save fail
	baseDir := filepath.Join(t.TempDir(), "models")
	require.NoError(t, os.WriteFile(baseDir, []byte("not a directory"), 0o644))

	models := modelstore.New(baseDir, "", log)
	trainer := New(history, models, testTrainingConfig(), log)

	outcomes, err := trainer.TrainAllGroups(context.Background(), 60)
	require.NoError(t, err)

	food := outcomes[catalog.GroupFood]
	require.False(t, food.Success)
	assert.Contains(t, food.Reason, "artifact save")
	assert.NotEmpty(t, tracker.Captured(), "training failure must reach the error tracker")
}

func TestTrainer_NoItems(t *testing.T) {
	history := &fakeHistory{records: map[string][]forecast.DailyRecord{}}
	models := modelstore.New(t.TempDir(), "", logger.Get())
	trainer := New(history, models, testTrainingConfig(), logger.Get())

	_, err := trainer.TrainAllGroups(context.Background(), 60)
	assert.Error(t, err)
}

func TestTrainer_GroupFailureIsolated(t *testing.T) {
	// A tobacco group with plenty of samples trains alongside food; one
	// group's data never affects another's outcome
	history := &fakeHistory{
		items: []forecast.Item{
			{ItemCode: "FOOD1", CategoryCode: "01"},
			{ItemCode: "TOBACCO1", CategoryCode: "20"},
		},
		records: map[string][]forecast.DailyRecord{
			"FOOD1":    constantHistory("FOOD1", 60, 5),
			"TOBACCO1": constantHistory("TOBACCO1", 60, 3),
		},
	}

	models := modelstore.New(t.TempDir(), "", logger.Get())
	trainer := New(history, models, testTrainingConfig(), logger.Get())

	outcomes, err := trainer.TrainAllGroups(context.Background(), 60)
	require.NoError(t, err)

	assert.True(t, outcomes[catalog.GroupFood].Success)
	assert.True(t, outcomes[catalog.GroupTobacco].Success)
	assert.False(t, outcomes[catalog.GroupGeneral].Success)
}
