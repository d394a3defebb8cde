package types

// ChartStrategy selects how much work the chart extractor is allowed to do.
type ChartStrategy string

const (
	// ChartStrategyFull tries LLM-structured extraction before the regex
	// fallback.
	ChartStrategyFull ChartStrategy = "full"
	// ChartStrategyCheap skips the LLM pass and goes straight to the regex
	// fallback. Used by latency-bounded callers such as the WhatsApp webhook.
	ChartStrategyCheap ChartStrategy = "cheap"
)

type AskRequest struct {
	Question      string        `json:"question"`
	Company       string        `json:"company,omitempty"`
	EnableCharts  bool          `json:"enable_charts,omitempty"`
	ChartStrategy ChartStrategy `json:"chart_strategy,omitempty"`
}

type SearchRequest struct {
	Question string `json:"question"`
	Company  string `json:"company,omitempty"`
}
