package training

import (
	"sort"

	"demandcast/internal/domain/forecast"
)

const (
	trainFraction  = 0.8
	minEvalSamples = 5
)

// splitByDate partitions samples for leakage-safe evaluation: distinct
// target dates are sorted and the first 80% go to training, so every
// evaluation date lies strictly after every training date. When that
// leaves fewer than minEvalSamples evaluation samples, an 80/20
// positional split over date-sorted samples applies instead; the caller
// records which path was taken.
func splitByDate(samples []Sample) (train, eval []Sample, positional bool) {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TargetDate.Before(sorted[j].TargetDate)
	})

	seen := make(map[string]struct{})
	var dates []string
	for _, s := range sorted {
		key := forecast.DayKey(s.TargetDate)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			dates = append(dates, key)
		}
	}
	sort.Strings(dates)

	cut := int(float64(len(dates)) * trainFraction)
	if cut < 1 {
		cut = 1
	}
	if cut >= len(dates) {
		cut = len(dates) - 1
	}

	trainDates := make(map[string]struct{}, cut)
	for _, d := range dates[:cut] {
		trainDates[d] = struct{}{}
	}

	for _, s := range sorted {
		if _, ok := trainDates[forecast.DayKey(s.TargetDate)]; ok {
			train = append(train, s)
		} else {
			eval = append(eval, s)
		}
	}

	// A single distinct date leaves the train side empty; that degenerate
	// case also takes the positional path
	if len(train) > 0 && len(eval) >= minEvalSamples {
		return train, eval, false
	}

	// Positional fallback over the date-sorted samples
	idx := int(float64(len(sorted)) * trainFraction)
	if idx < 1 {
		idx = 1
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[:idx], sorted[idx:], true
}
