package features

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Vector is one fixed-length feature encoding of an item's recent history
// and context for a single prediction date
type Vector []float64

// Names lists every feature in vector order. The order and count are the
// feature schema: any addition, removal or reorder changes SchemaHash and
// invalidates persisted model artifacts.
var Names = []string{
	// Trailing demand statistics
	"qty_avg_7d",
	"qty_avg_14d",
	"qty_avg_31d",
	"qty_trend_ratio",
	"qty_cv_14d",

	// Calendar encoding
	"weekday_sin",
	"weekday_cos",
	"month_sin",
	"month_cos",
	"is_weekend",
	"is_holiday",

	// Category one-hot
	"cat_food",
	"cat_alcohol",
	"cat_tobacco",
	"cat_perishable",
	"cat_general",

	// Point-in-time stock state
	"stock_qty",
	"stock_cover_days",
	"pending_qty",
	"promo_active",

	// Business attributes
	"expiry_days_log",
	"disposal_rate",
	"margin_rate",

	// External factors
	"temperature",
	"temperature_delta",

	// Lag features
	"lag_7d_ratio",
	"lag_28d_ratio",
	"wow_change_ratio",

	// Holiday context
	"holiday_period_len",
	"is_pre_holiday",
	"is_post_holiday",

	// Receiving pattern
	"lead_time_avg",
	"lead_time_cv",
	"short_delivery_rate",
	"delivery_frequency_14d",
	"pending_age_days",
}

// SchemaLength is the fixed vector dimension
var SchemaLength = len(Names)

// SchemaHash fingerprints the ordered feature-name list. Persisted model
// artifacts record this value; a mismatch on load marks the artifact stale.
func SchemaHash() string {
	return hashNames(Names)
}

func hashNames(names []string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(names, ",")))
	return fmt.Sprintf("%016x", h.Sum64())
}
