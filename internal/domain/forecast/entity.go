package forecast

import "time"

// DailyRecord is one item's observed activity for one calendar date.
// Records are append-only and ordered oldest first per item; dates are
// normalized to UTC midnight.
type DailyRecord struct {
	ItemCode     string    `db:"item_code" json:"item_code"`
	Date         time.Time `db:"record_date" json:"date"`
	QtySold      float64   `db:"qty_sold" json:"qty_sold"`
	ClosingStock float64   `db:"closing_stock" json:"closing_stock"`
}

// Item is an active catalog entry with enough history to train on
type Item struct {
	ItemCode     string `db:"item_code" json:"item_code"`
	CategoryCode string `db:"category_code" json:"category_code"`
}

// BusinessAttributes are slow-changing per-item master attributes
type BusinessAttributes struct {
	ExpiryDays   int     `db:"expiry_days" json:"expiry_days"`     // 0 = unknown
	DisposalRate float64 `db:"disposal_rate" json:"disposal_rate"` // waste fraction, 0.0-1.0
	MarginRate   float64 `db:"margin_rate" json:"margin_rate"`     // gross margin, 0.0-1.0
}

// ExternalFactor is per-date external context shared by all items.
// Temperature fields are nil when the source had no reading for the date;
// nil must never be collapsed to zero.
type ExternalFactor struct {
	Date              time.Time `db:"factor_date" json:"date"`
	Temperature       *float64  `db:"temperature" json:"temperature,omitempty"`
	TemperatureDelta  *float64  `db:"temperature_delta" json:"temperature_delta,omitempty"`
	IsHoliday         bool      `db:"is_holiday" json:"is_holiday"`
	HolidayPeriodDays int       `db:"holiday_period_days" json:"holiday_period_days"`
	IsPreHoliday      bool      `db:"is_pre_holiday" json:"is_pre_holiday"`
	IsPostHoliday     bool      `db:"is_post_holiday" json:"is_post_holiday"`
}

// PromotionWindow is a date range during which an item is on promotion,
// inclusive on both ends
type PromotionWindow struct {
	ItemCode string    `db:"item_code" json:"item_code"`
	Start    time.Time `db:"start_date" json:"start"`
	End      time.Time `db:"end_date" json:"end"`
}

// Contains reports whether date falls inside the promotion window
func (w PromotionWindow) Contains(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

// ReceivingStats summarizes an item's inbound delivery pattern.
// A nil *ReceivingStats means the item has no delivery history at all,
// which is distinct from a zero-valued one.
type ReceivingStats struct {
	LeadTimeAvgDays   float64 `db:"lead_time_avg_days" json:"lead_time_avg_days"`
	LeadTimeStdDays   float64 `db:"lead_time_std_days" json:"lead_time_std_days"`
	ShortDeliveryRate float64 `db:"short_delivery_rate" json:"short_delivery_rate"` // 0.0-1.0
	DeliveryCount14d  int     `db:"delivery_count_14d" json:"delivery_count_14d"`
	PendingAgeDays    float64 `db:"pending_age_days" json:"pending_age_days"`
}

// AuxiliarySignal bundles the per-date context used to build one feature
// vector. Every field is optional; absence is encoded explicitly (nil
// pointers, nil Receiving) rather than with zero values.
type AuxiliarySignal struct {
	Temperature       *float64
	TemperatureDelta  *float64
	IsHoliday         bool
	HolidayPeriodDays int
	IsPreHoliday      bool
	IsPostHoliday     bool
	PromoActive       bool
	Receiving         *ReceivingStats
}

// Day normalizes t to UTC midnight so calendar dates compare and hash
// consistently regardless of source timezone
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as an ISO calendar date for use as a map key
func DayKey(t time.Time) string {
	return Day(t).Format("2006-01-02")
}
