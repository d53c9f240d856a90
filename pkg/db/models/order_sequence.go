package models

// OrderSequence is the per-day order number counter. A single guarded upsert
// increments last_seq, so concurrent order creation never hands out the same
// number.
type OrderSequence struct {
	Day     string `gorm:"column:day;primaryKey"`
	LastSeq int    `gorm:"column:last_seq;not null"`
}
