package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcast/internal/domain/catalog"
)

func makeSamples(days, perDay int) []Sample {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var samples []Sample
	for d := 0; d < days; d++ {
		for i := 0; i < perDay; i++ {
			samples = append(samples, Sample{
				TargetDate: base.AddDate(0, 0, d),
				Target:     float64(d + i),
				Group:      catalog.GroupFood,
			})
		}
	}
	return samples
}

func TestSplitByDate_NoLeakage(t *testing.T) {
	samples := makeSamples(30, 4)

	train, eval, positional := splitByDate(samples)
	require.False(t, positional, "30 distinct dates should not need the fallback")
	require.NotEmpty(t, train)
	require.NotEmpty(t, eval)
	assert.Equal(t, len(samples), len(train)+len(eval))

	// Core leakage invariant: every training date strictly precedes every
	// evaluation date
	maxTrain := train[0].TargetDate
	for _, s := range train {
		if s.TargetDate.After(maxTrain) {
			maxTrain = s.TargetDate
		}
	}
	minEval := eval[0].TargetDate
	for _, s := range eval {
		if s.TargetDate.Before(minEval) {
			minEval = s.TargetDate
		}
	}
	assert.True(t, maxTrain.Before(minEval),
		"max train date %v must precede min eval date %v", maxTrain, minEval)
}

func TestSplitByDate_EightyTwentyOnDates(t *testing.T) {
	samples := makeSamples(10, 4)

	train, eval, positional := splitByDate(samples)
	require.False(t, positional)
	assert.Len(t, train, 32, "first 8 of 10 distinct dates train")
	assert.Len(t, eval, 8, "last 2 of 10 distinct dates evaluate")
}

func TestSplitByDate_PositionalFallback(t *testing.T) {
	// Two distinct dates cannot give five evaluation samples from the date
	// split when the last date holds too few
	samples := makeSamples(2, 3)

	train, eval, positional := splitByDate(samples)
	assert.True(t, positional, "sparse dates should trigger the positional fallback")
	assert.Equal(t, len(samples), len(train)+len(eval))
	assert.NotEmpty(t, train)
	assert.NotEmpty(t, eval)
}

func TestSplitByDate_SingleDistinctDate(t *testing.T) {
	// One distinct date cannot be partitioned by date at all, no matter how
	// many samples it carries; the positional fallback must apply and both
	// sides must be non-empty
	samples := makeSamples(1, 8)

	train, eval, positional := splitByDate(samples)
	assert.True(t, positional, "one distinct date must take the positional fallback")
	assert.NotEmpty(t, train, "train side must never come out empty")
	assert.NotEmpty(t, eval)
	assert.Equal(t, len(samples), len(train)+len(eval))
}

func TestSplitByDate_UnsortedInput(t *testing.T) {
	samples := makeSamples(20, 2)
	// Shuffle deterministically by swapping halves
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}

	train, eval, positional := splitByDate(samples)
	require.False(t, positional)

	for _, tr := range train {
		for _, ev := range eval {
			assert.True(t, tr.TargetDate.Before(ev.TargetDate),
				"train date %v must precede eval date %v", tr.TargetDate, ev.TargetDate)
		}
	}
}
