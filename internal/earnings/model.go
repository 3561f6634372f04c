package earnings

import "time"

// StoredTextLimit caps how much raw source text is kept on a record.
const StoredTextLimit = 5000

// Record is one analyzed earnings call (or its fundamentals+news stand-in)
// for a user and ticker. Records are append-only; a fresh analysis creates
// a new row and older ones remain as history.
type Record struct {
	ID              int64             `json:"id"`
	UserID          string            `json:"-"`
	HoldingID       *int64            `json:"holding_id,omitempty"`
	Ticker          string            `json:"ticker"`
	CallDate        *time.Time        `json:"call_date,omitempty"`
	ExtractedText   string            `json:"extracted_text,omitempty"`
	Summary         string            `json:"summary"`
	SentimentScore  float64           `json:"sentiment_score"`
	GuidanceOutlook string            `json:"guidance_outlook"`
	RiskMentions    int               `json:"risk_mentions"`
	GrowthMentions  int               `json:"growth_mentions"`
	KeyMetrics      map[string]string `json:"key_metrics"`
	CreatedAt       time.Time         `json:"created_at"`
}

// HasSummary reports whether the record carries usable narrative text.
// Records without one are treated as absent by resolvers.
func (r Record) HasSummary() bool {
	return r.Summary != ""
}
