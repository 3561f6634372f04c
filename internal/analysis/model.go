package analysis

// EarningsInput is the stored input of an earnings-analysis job. The raw
// transcript is handed to the task directly and never persisted on the job.
type EarningsInput struct {
	Ticker        string `json:"ticker"`
	HasTranscript bool   `json:"has_transcript"`
}

// EarningsResult is the stored result of a completed earnings-analysis job.
type EarningsResult struct {
	Analysis string `json:"analysis"`
}

// PortfolioInput is the stored input of a portfolio-analysis job.
type PortfolioInput struct {
	PortfolioID int64 `json:"portfolio_id"`
}

// SnapshotSummary is the snapshot subset embedded in a portfolio-analysis
// result.
type SnapshotSummary struct {
	TotalValue        float64 `json:"total_value"`
	HealthScore       int     `json:"health_score"`
	NumPositions      int     `json:"num_positions"`
	ConcentrationRisk float64 `json:"concentration_risk"`
}

// PortfolioResult is the stored result of a completed portfolio-analysis job.
type PortfolioResult struct {
	Analysis string          `json:"analysis"`
	Snapshot SnapshotSummary `json:"snapshot"`
}

// CompareInput is the stored input of a comparison job.
type CompareInput struct {
	Tickers []string `json:"tickers"`
}

// CompareResult is the stored result of a completed comparison job.
type CompareResult struct {
	Comparison string `json:"comparison"`
}
