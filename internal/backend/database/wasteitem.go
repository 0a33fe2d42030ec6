package database

import "time"

// TimestampLayout is the fixed-width UTC layout used for the timestamp column.
// Lexical order of stored values equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

type WasteItem struct {
	ID                   int64     `db:"id" json:"id"`
	ImagePath            string    `db:"image_path" json:"image_path"`
	ClassificationResult string    `db:"classification_result" json:"classification_result"`
	Confidence           float64   `db:"confidence" json:"confidence"`
	Category             string    `db:"category" json:"category"`
	Timestamp            time.Time `db:"timestamp" json:"timestamp"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// parseTimestamp also accepts the millisecond precision of the column default.
func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
