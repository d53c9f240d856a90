package orders

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	orderNumberPrefix = "ORD"
	maxDailySequence  = 9999
)

// NextOrderNumber hands out the next ORD<YYYYMMDD><NNNN> number for the day.
// A single upsert increments the per-day counter row, so the database
// serializes concurrent callers and no two orders can receive the same
// number. Past 9999 orders in one day the 4-digit space is exhausted and the
// suffix degrades to a coarse timestamp.
func NextOrderNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	day := now.Format("20060102")

	var lastSeq int
	err := tx.WithContext(ctx).Raw(`
INSERT INTO order_sequences (day, last_seq) VALUES (?, 1)
ON CONFLICT (day) DO UPDATE SET last_seq = order_sequences.last_seq + 1
RETURNING last_seq`, day).Scan(&lastSeq).Error
	if err != nil {
		return "", fmt.Errorf("advancing order sequence: %w", err)
	}

	if lastSeq > maxDailySequence {
		return fmt.Sprintf("%s%s%d", orderNumberPrefix, day, now.Unix()%1_000_000), nil
	}
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, day, lastSeq), nil
}
