// Package training orchestrates per-group dataset assembly, leakage-safe
// splitting, ensemble fitting, evaluation and model persistence.
package training

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"demandcast/internal/config"
	"demandcast/internal/domain/catalog"
	"demandcast/internal/domain/forecast"
	"demandcast/internal/features"
	"demandcast/internal/metrics"
	"demandcast/internal/ml"
	"demandcast/internal/modelstore"
	"demandcast/pkg/errors"
	"demandcast/pkg/logger"
)

// sampleStartDay is the first day of an item's window eligible as a target
// date; earlier days lack enough trailing history to encode
const sampleStartDay = 8

// Trainer builds training sets from the historical store and produces one
// persisted ensemble per category group
type Trainer struct {
	history forecast.HistoryStore
	models  *modelstore.Store
	builder *features.Builder
	cfg     config.TrainingConfig
	log     *logger.Logger
}

// New creates a trainer
func New(history forecast.HistoryStore, models *modelstore.Store, cfg config.TrainingConfig, log *logger.Logger) *Trainer {
	return &Trainer{
		history: history,
		models:  models,
		builder: features.NewBuilder(),
		cfg:     cfg,
		log:     log.With("component", "trainer"),
	}
}

// TrainAllGroups assembles samples over the lookback window and trains one
// ensemble per category group. A group with insufficient data or a fit or
// save failure is marked failed with a reason; other groups proceed. The
// returned error covers only run-level failures (store queries), never a
// single group.
func (t *Trainer) TrainAllGroups(ctx context.Context, lookbackDays int) (map[catalog.Group]*Outcome, error) {
	runID := uuid.New().String()
	log := t.log.With("run_id", runID)

	samples, err := t.assembleSamples(ctx, lookbackDays, log)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[catalog.Group][]Sample)
	for _, s := range samples {
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}

	outcomes := make(map[catalog.Group]*Outcome, len(catalog.Groups))
	for _, group := range catalog.Groups {
		outcomes[group] = t.trainGroup(group, byGroup[group], log)
	}
	return outcomes, nil
}

// assembleSamples builds one sample per eligible (item, target date) pair.
// Each sample's feature window is the history strictly before its target
// date, and the point-in-time stock is the previous day's closing stock, so
// no same-day or future values leak into features.
func (t *Trainer) assembleSamples(ctx context.Context, lookbackDays int, log *logger.Logger) ([]Sample, error) {
	items, err := t.history.ActiveItems(ctx, t.cfg.MinItemHistoryDays)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active items")
	}
	if len(items) == 0 {
		return nil, errors.Wrap(errors.ErrInsufficientData, "no active items")
	}

	codes := make([]string, len(items))
	for i, item := range items {
		codes[i] = item.ItemCode
	}

	attrs, err := t.history.ItemBusinessAttributes(ctx, codes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load business attributes")
	}
	receiving, err := t.history.ReceivingPatternStats(ctx, codes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load receiving stats")
	}

	end := forecast.Day(time.Now())
	start := end.AddDate(0, 0, -lookbackDays)
	factors, err := t.history.ExternalFactors(ctx, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load external factors")
	}

	var samples []Sample
	skippedItems := 0
	for _, item := range items {
		itemSamples, err := t.assembleItem(ctx, item, lookbackDays, attrs, receiving, factors)
		if err != nil {
			log.Debugw("Skipping item", "item", item.ItemCode, "error", err)
			skippedItems++
			continue
		}
		samples = append(samples, itemSamples...)
	}

	log.Infow("Training samples assembled",
		"items", len(items),
		"skipped_items", skippedItems,
		"samples", len(samples),
		"lookback_days", lookbackDays)
	return samples, nil
}

func (t *Trainer) assembleItem(
	ctx context.Context,
	item forecast.Item,
	lookbackDays int,
	attrs map[string]forecast.BusinessAttributes,
	receiving map[string]forecast.ReceivingStats,
	factors map[string]forecast.ExternalFactor,
) ([]Sample, error) {
	records, err := t.history.DailyRecords(ctx, item.ItemCode, lookbackDays)
	if err != nil {
		return nil, err
	}
	if len(records) < t.cfg.MinItemHistoryDays {
		return nil, errors.Wrapf(errors.ErrInsufficientData,
			"item %s has %d days, need %d", item.ItemCode, len(records), t.cfg.MinItemHistoryDays)
	}

	promos, err := t.history.ActivePromotionWindows(ctx, item.ItemCode)
	if err != nil {
		return nil, err
	}

	var business *forecast.BusinessAttributes
	if a, ok := attrs[item.ItemCode]; ok {
		business = &a
	}
	var recv *forecast.ReceivingStats
	if r, ok := receiving[item.ItemCode]; ok {
		recv = &r
	}

	group := catalog.GroupOf(item.CategoryCode)

	var samples []Sample
	for i := sampleStartDay - 1; i < len(records); i++ {
		targetDate := forecast.Day(records[i].Date)
		aux := buildAux(targetDate, factors, promos, recv)

		vec, err := t.builder.Build(features.BuildInput{
			Window:       records[:i],
			TargetDate:   targetDate,
			CategoryCode: item.CategoryCode,
			StockQty:     records[i-1].ClosingStock,
			PendingQty:   0,
			Business:     business,
			Aux:          aux,
		})
		if err != nil {
			continue
		}

		samples = append(samples, Sample{
			Vector:     vec,
			TargetDate: targetDate,
			Target:     records[i].QtySold,
			Group:      group,
		})
	}
	return samples, nil
}

// buildAux resolves one target date's auxiliary signal from the shared
// factor map, the item's promotion windows and its receiving stats
func buildAux(
	targetDate time.Time,
	factors map[string]forecast.ExternalFactor,
	promos []forecast.PromotionWindow,
	recv *forecast.ReceivingStats,
) *forecast.AuxiliarySignal {
	aux := &forecast.AuxiliarySignal{Receiving: recv}

	if f, ok := factors[forecast.DayKey(targetDate)]; ok {
		aux.Temperature = f.Temperature
		aux.TemperatureDelta = f.TemperatureDelta
		aux.IsHoliday = f.IsHoliday
		aux.HolidayPeriodDays = f.HolidayPeriodDays
		aux.IsPreHoliday = f.IsPreHoliday
		aux.IsPostHoliday = f.IsPostHoliday
	}

	for _, w := range promos {
		if w.Contains(targetDate) {
			aux.PromoActive = true
			break
		}
	}
	return aux
}

// trainGroup fits, evaluates and persists one group's ensemble
func (t *Trainer) trainGroup(group catalog.Group, samples []Sample, log *logger.Logger) *Outcome {
	start := time.Now()
	log = log.With("group", group.String())

	if len(samples) < t.cfg.MinSamplesPerGroup {
		reason := fmt.Sprintf("insufficient samples: %d < %d", len(samples), t.cfg.MinSamplesPerGroup)
		log.Infow("Skipping group", "reason", reason)
		metrics.TrainingRuns.WithLabelValues(group.String(), "skipped").Inc()
		return skippedOutcome(group, reason)
	}

	train, eval, positional := splitByDate(samples)
	if positional {
		log.Infow("Date split yielded too few evaluation samples, using positional fallback",
			"samples", len(samples))
	}

	trainX := make([][]float64, len(train))
	trainY := make([]float64, len(train))
	for i, s := range train {
		trainX[i] = s.Vector
		trainY[i] = s.Target
	}

	alpha := t.alphaFor(group)
	bagging := ml.NewBagging(ml.DefaultBaggingParams(t.cfg.Seed))
	boosting := ml.NewBoosting(ml.DefaultBoostingParams(alpha))

	if err := bagging.Fit(trainX, trainY); err != nil {
		return t.failedOutcome(group, "bagging fit", errors.Wrapf(errors.ErrFitFailed, "%v", err), log)
	}
	if err := boosting.Fit(trainX, trainY); err != nil {
		return t.failedOutcome(group, "boosting fit", errors.Wrapf(errors.ErrFitFailed, "%v", err), log)
	}

	ensemble := &ml.Ensemble{
		Bagging:            bagging,
		Boosting:           boosting,
		BlendWeight:        t.cfg.BlendWeight,
		Alpha:              alpha,
		FeatureImportances: ml.Importances(bagging, boosting),
	}

	predicted := make([]float64, len(eval))
	observed := make([]float64, len(eval))
	for i, s := range eval {
		p := ensemble.Predict(s.Vector)
		if p < 0 {
			p = 0
		}
		predicted[i] = p
		observed[i] = s.Target
	}
	evalMetrics := ml.Evaluate(predicted, observed, alpha)

	if err := t.models.Save(group, ensemble, evalMetrics, len(train), len(eval)); err != nil {
		return t.failedOutcome(group, "artifact save", err, log)
	}

	duration := time.Since(start)
	metrics.TrainingRuns.WithLabelValues(group.String(), "success").Inc()
	metrics.TrainingDuration.WithLabelValues(group.String()).Observe(duration.Seconds())
	metrics.TrainingSamples.WithLabelValues(group.String(), "train").Set(float64(len(train)))
	metrics.TrainingSamples.WithLabelValues(group.String(), "eval").Set(float64(len(eval)))
	metrics.TrainingPinballLoss.WithLabelValues(group.String()).Set(evalMetrics.Pinball)

	log.Infow("Group trained",
		"alpha", alpha,
		"train_samples", len(train),
		"eval_samples", len(eval),
		"positional_split", positional,
		"mae", evalMetrics.MAE,
		"rmse", evalMetrics.RMSE,
		"mape", evalMetrics.MAPE,
		"pinball", evalMetrics.Pinball,
		"top_features", topImportances(ensemble.FeatureImportances, 5),
		"duration", duration)

	return &Outcome{
		Group:           group,
		Success:         true,
		Metrics:         evalMetrics,
		TrainSamples:    len(train),
		EvalSamples:     len(eval),
		PositionalSplit: positional,
		TrainedAt:       time.Now().UTC(),
		Duration:        duration,
	}
}

func (t *Trainer) failedOutcome(group catalog.Group, stage string, err error, log *logger.Logger) *Outcome {
	reason := fmt.Sprintf("%s: %v", stage, err)
	log.Errorw("Group training failed", "stage", stage, "error", err)
	metrics.TrainingRuns.WithLabelValues(group.String(), "failed").Inc()
	return &Outcome{Group: group, Success: false, Reason: reason}
}

// alphaFor returns the configured pinball quantile level for a group.
// Short-shelf-life and high-margin groups sit above 0.5 because stock-outs
// cost more than overstock there; general merchandise sits below 0.5.
func (t *Trainer) alphaFor(group catalog.Group) float64 {
	switch group {
	case catalog.GroupFood:
		return t.cfg.AlphaFood
	case catalog.GroupPerishable:
		return t.cfg.AlphaPerishable
	case catalog.GroupAlcohol:
		return t.cfg.AlphaAlcohol
	case catalog.GroupTobacco:
		return t.cfg.AlphaTobacco
	default:
		return t.cfg.AlphaGeneral
	}
}

// topImportances formats the k highest feature importances as name=value
// pairs for training-run logs
func topImportances(importances []float64, k int) []string {
	if len(importances) == 0 {
		return nil
	}

	type ranked struct {
		name  string
		value float64
	}
	all := make([]ranked, 0, len(importances))
	for i, v := range importances {
		if i < len(features.Names) {
			all = append(all, ranked{features.Names[i], v})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].value > all[j].value })

	if k > len(all) {
		k = len(all)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = fmt.Sprintf("%s=%.4f", all[i].name, all[i].value)
	}
	return out
}
