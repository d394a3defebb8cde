package types

// ChartType enumerates supported chart shapes.
type ChartType string

const (
	ChartTypeLine    ChartType = "line"
	ChartTypeBar     ChartType = "bar"
	ChartTypeScatter ChartType = "scatter"
	ChartTypePie     ChartType = "pie"
)

// ChartSeries is one named data series, aligned 1:1 with the chart labels.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`
}

// ChartSpec is a validated structured description of a chart derived from
// retrieved context. All series share the label count; at least two labels
// must carry a finite non-zero value somewhere.
type ChartSpec struct {
	Type    ChartType     `json:"type,omitempty"`
	Labels  []string      `json:"labels"`
	Series  []ChartSeries `json:"series"`
	Unit    string        `json:"unit,omitempty"`
	Stacked bool          `json:"stacked,omitempty"`
}
