package forecast

import (
	"context"
	"time"
)

// HistoryStore defines read-only access to the historical sales store.
// The pipeline never writes through this interface; the store is populated
// by an external acquisition layer.
type HistoryStore interface {
	// DailyRecords returns up to days of history for one item, oldest first
	DailyRecords(ctx context.Context, itemCode string, days int) ([]DailyRecord, error)

	// ActiveItems returns items with at least minDays days of history
	ActiveItems(ctx context.Context, minDays int) ([]Item, error)

	// ItemBusinessAttributes returns master attributes for the given items.
	// Items without attributes are absent from the map.
	ItemBusinessAttributes(ctx context.Context, itemCodes []string) (map[string]BusinessAttributes, error)

	// ExternalFactors returns per-date context for the inclusive date range,
	// keyed by ISO date (DayKey)
	ExternalFactors(ctx context.Context, start, end time.Time) (map[string]ExternalFactor, error)

	// ActivePromotionWindows returns all promotion windows for one item
	ActivePromotionWindows(ctx context.Context, itemCode string) ([]PromotionWindow, error)

	// ReceivingPatternStats returns delivery-pattern summaries for the given
	// items. Items with no delivery history are absent from the map.
	ReceivingPatternStats(ctx context.Context, itemCodes []string) (map[string]ReceivingStats, error)
}
