package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"demandcast/internal/domain/forecast"
	pkgerrors "demandcast/pkg/errors"
)

// Compile-time check
var _ forecast.HistoryStore = (*HistoryRepository)(nil)

// HistoryRepository implements forecast.HistoryStore over the scraped sales
// store using sqlx. All queries are read-only; the acquisition layer owns
// writes.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// DailyRecords returns up to days of history for one item, oldest first
func (r *HistoryRepository) DailyRecords(ctx context.Context, itemCode string, days int) ([]forecast.DailyRecord, error) {
	query := `
		SELECT item_code, record_date, qty_sold, closing_stock
		FROM (
			SELECT item_code, record_date, qty_sold, closing_stock
			FROM daily_records
			WHERE item_code = $1
			ORDER BY record_date DESC
			LIMIT $2
		) recent
		ORDER BY record_date ASC`

	var records []forecast.DailyRecord
	if err := r.db.SelectContext(ctx, &records, query, itemCode, days); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get daily records")
	}
	for i := range records {
		records[i].Date = forecast.Day(records[i].Date)
	}
	return records, nil
}

// ActiveItems returns items with at least minDays days of recorded history
func (r *HistoryRepository) ActiveItems(ctx context.Context, minDays int) ([]forecast.Item, error) {
	query := `
		SELECT i.item_code, i.category_code
		FROM items i
		JOIN daily_records d ON d.item_code = i.item_code
		WHERE i.is_active = true
		GROUP BY i.item_code, i.category_code
		HAVING COUNT(*) >= $1
		ORDER BY i.item_code`

	var items []forecast.Item
	if err := r.db.SelectContext(ctx, &items, query, minDays); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get active items")
	}
	return items, nil
}

// ItemBusinessAttributes returns master attributes for the given items
func (r *HistoryRepository) ItemBusinessAttributes(ctx context.Context, itemCodes []string) (map[string]forecast.BusinessAttributes, error) {
	if len(itemCodes) == 0 {
		return map[string]forecast.BusinessAttributes{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT item_code, expiry_days, disposal_rate, margin_rate
		FROM item_attributes
		WHERE item_code IN (?)`, itemCodes)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to build attributes query")
	}
	query = r.db.Rebind(query)

	var rows []struct {
		ItemCode string `db:"item_code"`
		forecast.BusinessAttributes
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get business attributes")
	}

	attrs := make(map[string]forecast.BusinessAttributes, len(rows))
	for _, row := range rows {
		attrs[row.ItemCode] = row.BusinessAttributes
	}
	return attrs, nil
}

// ExternalFactors returns per-date context for the inclusive range, keyed
// by ISO date
func (r *HistoryRepository) ExternalFactors(ctx context.Context, start, end time.Time) (map[string]forecast.ExternalFactor, error) {
	query := `
		SELECT factor_date, temperature, temperature_delta,
		       is_holiday, holiday_period_days, is_pre_holiday, is_post_holiday
		FROM external_factors
		WHERE factor_date BETWEEN $1 AND $2
		ORDER BY factor_date`

	var rows []forecast.ExternalFactor
	if err := r.db.SelectContext(ctx, &rows, query, forecast.Day(start), forecast.Day(end)); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get external factors")
	}

	factors := make(map[string]forecast.ExternalFactor, len(rows))
	for _, row := range rows {
		row.Date = forecast.Day(row.Date)
		factors[forecast.DayKey(row.Date)] = row
	}
	return factors, nil
}

// ActivePromotionWindows returns all promotion windows for one item
func (r *HistoryRepository) ActivePromotionWindows(ctx context.Context, itemCode string) ([]forecast.PromotionWindow, error) {
	query := `
		SELECT item_code, start_date, end_date
		FROM promotions
		WHERE item_code = $1
		ORDER BY start_date`

	var windows []forecast.PromotionWindow
	if err := r.db.SelectContext(ctx, &windows, query, itemCode); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get promotion windows")
	}
	for i := range windows {
		windows[i].Start = forecast.Day(windows[i].Start)
		windows[i].End = forecast.Day(windows[i].End)
	}
	return windows, nil
}

// ReceivingPatternStats aggregates each item's delivery pattern from its
// receiving history. Items with no receivings are absent from the map,
// which downstream code reads as "no delivery history", not zero.
func (r *HistoryRepository) ReceivingPatternStats(ctx context.Context, itemCodes []string) (map[string]forecast.ReceivingStats, error) {
	if len(itemCodes) == 0 {
		return map[string]forecast.ReceivingStats{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT
			item_code,
			COALESCE(AVG(EXTRACT(EPOCH FROM received_at - ordered_at) / 86400.0)
				FILTER (WHERE received_at IS NOT NULL), 0)           AS lead_time_avg_days,
			COALESCE(STDDEV_POP(EXTRACT(EPOCH FROM received_at - ordered_at) / 86400.0)
				FILTER (WHERE received_at IS NOT NULL), 0)           AS lead_time_std_days,
			COALESCE(AVG(CASE WHEN qty_received < qty_ordered THEN 1.0 ELSE 0.0 END)
				FILTER (WHERE received_at IS NOT NULL), 0)           AS short_delivery_rate,
			COUNT(*) FILTER (WHERE received_at >= NOW() - INTERVAL '14 days') AS delivery_count_14d,
			COALESCE(AVG(EXTRACT(EPOCH FROM NOW() - ordered_at) / 86400.0)
				FILTER (WHERE received_at IS NULL), 0)               AS pending_age_days
		FROM receivings
		WHERE item_code IN (?)
		GROUP BY item_code`, itemCodes)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to build receiving stats query")
	}
	query = r.db.Rebind(query)

	var rows []struct {
		ItemCode string `db:"item_code"`
		forecast.ReceivingStats
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get receiving stats")
	}

	stats := make(map[string]forecast.ReceivingStats, len(rows))
	for _, row := range rows {
		stats[row.ItemCode] = row.ReceivingStats
	}
	return stats, nil
}
