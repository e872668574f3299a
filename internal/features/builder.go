package features

import (
	"math"
	"time"

	"demandcast/internal/domain/catalog"
	"demandcast/internal/domain/forecast"
	"demandcast/pkg/errors"
)

// Fixed normalization constants. These must match the constants any persisted
// artifact was trained with; they are part of the schema contract, not
// tunable hyper-parameters.
const (
	// MinWindowDays is the smallest history window Build accepts
	MinWindowDays = 3

	// TemperatureUnknown is the sentinel emitted when no temperature reading
	// exists for the target date. It sits outside the reachable scaled range
	// so "unknown" is distinguishable from every real reading.
	TemperatureUnknown = -2.0

	temperatureBase  = 15.0 // 15 deg C scales to 0
	temperatureRange = 15.0 // 30 deg C scales to 1

	stockCoverCapDays = 14.0
	leadTimeNormDays  = 3.0
	leadTimeCVNorm    = 2.0

	// leadTimeCVDefault applies when an item has no delivery history.
	// Absence of history is read as low variability, not instability.
	leadTimeCVDefault = 0.25

	deliveryFreqWindow = 14.0
	pendingAgeNormDays = 5.0
	holidayPeriodNorm  = 7.0

	wowChangeMin = -1.0
	wowChangeMax = 3.0
)

// BuildInput carries everything needed to encode one (item, target date) pair.
// Window must contain only records dated strictly before TargetDate, oldest
// first; same-day stock state arrives via StockQty/PendingQty.
type BuildInput struct {
	Window       []forecast.DailyRecord
	TargetDate   time.Time
	CategoryCode string
	StockQty     float64
	PendingQty   float64
	Business     *forecast.BusinessAttributes
	Aux          *forecast.AuxiliarySignal
}

// Builder converts daily history windows plus auxiliary context into fixed
// length feature vectors. It holds no state and is safe for concurrent use.
type Builder struct{}

// NewBuilder creates a feature builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build encodes one input into a SchemaLength vector. Returns a wrapped
// ErrInsufficientData when the window holds fewer than MinWindowDays records.
func (b *Builder) Build(in BuildInput) (Vector, error) {
	if len(in.Window) < MinWindowDays {
		return nil, errors.Wrapf(errors.ErrInsufficientData,
			"window has %d records, need %d", len(in.Window), MinWindowDays)
	}

	qtys := make([]float64, len(in.Window))
	byDate := make(map[string]float64, len(in.Window))
	for i, rec := range in.Window {
		qtys[i] = rec.QtySold
		byDate[forecast.DayKey(rec.Date)] = rec.QtySold
	}

	avg7 := trailingMean(qtys, 7)
	avg14 := trailingMean(qtys, 14)
	avg31 := trailingMean(qtys, 31)

	trend := 1.0
	if avg31 > 0 {
		trend = avg7 / avg31
	}

	v := make(Vector, 0, SchemaLength)

	// Trailing demand statistics
	v = append(v,
		avg7,
		avg14,
		avg31,
		trend,
		coefficientOfVariation(tail(qtys, 14)),
	)

	// Calendar encoding
	target := forecast.Day(in.TargetDate)
	weekday := float64(target.Weekday())
	month := float64(target.Month())
	v = append(v,
		math.Sin(2*math.Pi*weekday/7),
		math.Cos(2*math.Pi*weekday/7),
		math.Sin(2*math.Pi*month/12),
		math.Cos(2*math.Pi*month/12),
		boolFeature(target.Weekday() == time.Saturday || target.Weekday() == time.Sunday),
		boolFeature(in.Aux != nil && in.Aux.IsHoliday),
	)

	// Category one-hot
	group := catalog.GroupOf(in.CategoryCode)
	for _, g := range catalog.Groups {
		v = append(v, boolFeature(g == group))
	}

	// Point-in-time stock state
	stockCover := 0.0
	if avg7 > 0 {
		stockCover = math.Min(in.StockQty/avg7, stockCoverCapDays) / stockCoverCapDays
	}
	promo := in.Aux != nil && in.Aux.PromoActive
	v = append(v,
		in.StockQty,
		stockCover,
		in.PendingQty,
		boolFeature(promo),
	)

	// Business attributes
	expiryLog, disposal, margin := 0.0, 0.0, 0.0
	if in.Business != nil {
		if in.Business.ExpiryDays > 0 {
			expiryLog = math.Log1p(float64(in.Business.ExpiryDays))
		}
		disposal = in.Business.DisposalRate
		margin = in.Business.MarginRate
	}
	v = append(v, expiryLog, disposal, margin)

	// External factors
	temperature := TemperatureUnknown
	tempDelta := 0.0
	if in.Aux != nil && in.Aux.Temperature != nil {
		temperature = (*in.Aux.Temperature - temperatureBase) / temperatureRange
	}
	if in.Aux != nil && in.Aux.TemperatureDelta != nil {
		tempDelta = *in.Aux.TemperatureDelta / temperatureRange
	}
	v = append(v, temperature, tempDelta)

	// Lag features, expressed as ratios so items of different volume stay
	// comparable
	lag7, has7 := byDate[forecast.DayKey(target.AddDate(0, 0, -7))]
	lag14, has14 := byDate[forecast.DayKey(target.AddDate(0, 0, -14))]
	lag28, has28 := byDate[forecast.DayKey(target.AddDate(0, 0, -28))]

	lag7Ratio := 1.0
	if has7 && avg7 > 0 {
		lag7Ratio = lag7 / avg7
	}
	lag28Ratio := 1.0
	if has28 && avg31 > 0 {
		lag28Ratio = lag28 / avg31
	}
	wow := 0.0
	if has7 && has14 && lag14 > 0 {
		wow = clamp((lag7-lag14)/lag14, wowChangeMin, wowChangeMax)
	}
	v = append(v, lag7Ratio, lag28Ratio, wow)

	// Holiday context
	holidayLen, pre, post := 0.0, false, false
	if in.Aux != nil {
		holidayLen = float64(in.Aux.HolidayPeriodDays) / holidayPeriodNorm
		pre = in.Aux.IsPreHoliday
		post = in.Aux.IsPostHoliday
	}
	v = append(v, holidayLen, boolFeature(pre), boolFeature(post))

	// Receiving pattern
	leadAvg, leadCV, shortRate, freq, pendingAge := 0.0, leadTimeCVDefault, 0.0, 0.0, 0.0
	if in.Aux != nil && in.Aux.Receiving != nil {
		r := in.Aux.Receiving
		leadAvg = math.Min(r.LeadTimeAvgDays/leadTimeNormDays, 1.0)
		if r.LeadTimeAvgDays > 0 {
			leadCV = math.Min((r.LeadTimeStdDays/r.LeadTimeAvgDays)/leadTimeCVNorm, 1.0)
		}
		shortRate = r.ShortDeliveryRate
		freq = float64(r.DeliveryCount14d) / deliveryFreqWindow
		pendingAge = math.Min(r.PendingAgeDays/pendingAgeNormDays, 1.0)
	}
	v = append(v, leadAvg, leadCV, shortRate, freq, pendingAge)

	return v, nil
}

// Helper methods

// trailingMean averages the last n values, or all of them when fewer exist
func trailingMean(values []float64, n int) float64 {
	window := tail(values, n)
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// coefficientOfVariation returns stddev/mean, or 0 for a zero mean
func coefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / mean
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
