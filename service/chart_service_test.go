package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-be/types"
)

func TestHasChartIntent(t *testing.T) {
	assert.True(t, HasChartIntent("Plot revenue over the last three years"))
	assert.True(t, HasChartIntent("show me a CHART of margins"))
	assert.True(t, HasChartIntent("visualise the YoY trend"))
	assert.True(t, HasChartIntent("compare FY22 and FY23 PAT"))
	assert.False(t, HasChartIntent("What was revenue in FY23?"))
	assert.False(t, HasChartIntent(""))
}

func TestParseChartJSON(t *testing.T) {
	valid := `{"type":"bar","labels":["FY22","FY23"],"series":[{"name":"Revenue","values":[100,150]}]}`

	t.Run("raw json", func(t *testing.T) {
		spec, err := ParseChartJSON(valid)
		require.NoError(t, err)
		require.NotNil(t, spec)
		assert.Equal(t, types.ChartTypeBar, spec.Type)
		assert.Equal(t, []string{"FY22", "FY23"}, spec.Labels)
	})

	t.Run("fenced block", func(t *testing.T) {
		spec, err := ParseChartJSON("Here you go:\n```json\n" + valid + "\n```\nHope that helps.")
		require.NoError(t, err)
		require.NotNil(t, spec)
		assert.Len(t, spec.Series, 1)
	})

	t.Run("brace substring amid prose", func(t *testing.T) {
		spec, err := ParseChartJSON("Sure! The spec is " + valid + " as requested.")
		require.NoError(t, err)
		require.NotNil(t, spec)
	})

	t.Run("literal null means no chart", func(t *testing.T) {
		spec, err := ParseChartJSON("null")
		require.NoError(t, err)
		assert.Nil(t, spec)
	})

	t.Run("garbage is an error", func(t *testing.T) {
		_, err := ParseChartJSON("I could not find any numbers to chart.")
		assert.Error(t, err)
	})

	t.Run("braces inside strings do not confuse the scanner", func(t *testing.T) {
		raw := `prefix {"type":"bar","labels":["a{b","c}d"],"series":[{"name":"s","values":[1,2]}]} suffix`
		spec, err := ParseChartJSON(raw)
		require.NoError(t, err)
		require.NotNil(t, spec)
		assert.Equal(t, []string{"a{b", "c}d"}, spec.Labels)
	})
}

func TestValidateChartSpec(t *testing.T) {
	t.Run("valid bar chart", func(t *testing.T) {
		spec := &types.ChartSpec{
			Type:   types.ChartTypeBar,
			Labels: []string{"FY22", "FY23"},
			Series: []types.ChartSeries{{Name: "Revenue", Values: []float64{100, 150}}},
		}
		assert.NoError(t, ValidateChartSpec(spec))
	})

	t.Run("misaligned series rejected", func(t *testing.T) {
		spec := &types.ChartSpec{
			Labels: []string{"FY22", "FY23"},
			Series: []types.ChartSeries{{Name: "Revenue", Values: []float64{100}}},
		}
		assert.Error(t, ValidateChartSpec(spec))
	})

	t.Run("single non-zero point rejected", func(t *testing.T) {
		spec := &types.ChartSpec{
			Labels: []string{"FY22", "FY23"},
			Series: []types.ChartSeries{{Name: "Revenue", Values: []float64{100, 0}}},
		}
		assert.Error(t, ValidateChartSpec(spec))
	})

	t.Run("pie needs exactly one positive series", func(t *testing.T) {
		spec := &types.ChartSpec{
			Type:   types.ChartTypePie,
			Labels: []string{"Domestic", "Exports"},
			Series: []types.ChartSeries{
				{Name: "a", Values: []float64{60, 40}},
				{Name: "b", Values: []float64{1, 2}},
			},
		}
		assert.Error(t, ValidateChartSpec(spec))

		spec.Series = spec.Series[:1]
		assert.NoError(t, ValidateChartSpec(spec))

		spec.Series[0].Values = []float64{-60, 40}
		assert.Error(t, ValidateChartSpec(spec))
	})
}

func TestSanitizeChartSpec(t *testing.T) {
	t.Run("zero columns dropped", func(t *testing.T) {
		spec := &types.ChartSpec{
			Type:   types.ChartTypeLine,
			Labels: []string{"FY21", "FY22", "FY23"},
			Series: []types.ChartSeries{{Name: "Revenue", Values: []float64{0, 100, 150}}},
		}
		got := SanitizeChartSpec(spec)
		require.NotNil(t, got)
		assert.Equal(t, []string{"FY22", "FY23"}, got.Labels)
		assert.Equal(t, []float64{100, 150}, got.Series[0].Values)
	})

	t.Run("too few survivors reduces to nil", func(t *testing.T) {
		spec := &types.ChartSpec{
			Labels: []string{"FY22", "FY23"},
			Series: []types.ChartSeries{{Name: "Revenue", Values: []float64{100, 0}}},
		}
		assert.Nil(t, SanitizeChartSpec(spec))
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, SanitizeChartSpec(nil))
	})
}

func TestHeuristicExtract(t *testing.T) {
	t.Run("value before label", func(t *testing.T) {
		spec := HeuristicExtract("PAT was 100 Cr in FY22 and 150 Cr in FY23")
		require.NotNil(t, spec)
		assert.Equal(t, []string{"FY22", "FY23"}, spec.Labels)
		require.Len(t, spec.Series, 1)
		assert.Equal(t, "Value", spec.Series[0].Name)
		assert.Equal(t, []float64{100, 150}, spec.Series[0].Values)
		assert.Equal(t, "CR", spec.Unit)
	})

	t.Run("value after label", func(t *testing.T) {
		spec := HeuristicExtract("FY22: 1,450 Cr, FY23: 1,620 Cr")
		require.NotNil(t, spec)
		assert.Equal(t, []string{"FY22", "FY23"}, spec.Labels)
		assert.Equal(t, []float64{1450, 1620}, spec.Series[0].Values)
	})

	t.Run("percent unit", func(t *testing.T) {
		spec := HeuristicExtract("Margins were 21.3% in Q1FY24 and 22.1% in Q2FY24")
		require.NotNil(t, spec)
		assert.Equal(t, "%", spec.Unit)
		assert.Equal(t, []float64{21.3, 22.1}, spec.Series[0].Values)
	})

	t.Run("duplicate labels keep first occurrence", func(t *testing.T) {
		spec := HeuristicExtract("FY23: 100 Cr. FY23 restated: 110 Cr. FY22: 90 Cr.")
		require.NotNil(t, spec)
		assert.Equal(t, []string{"FY23", "FY22"}, spec.Labels)
		assert.Equal(t, []float64{100, 90}, spec.Series[0].Values)
	})

	t.Run("single label is not a chart", func(t *testing.T) {
		assert.Nil(t, HeuristicExtract("Revenue was 100 Cr in FY23"))
	})

	t.Run("no numbers is not a chart", func(t *testing.T) {
		assert.Nil(t, HeuristicExtract("Revenue grew in FY22 and FY23"))
	})
}

func TestChartExtract(t *testing.T) {
	excerpts := []types.RankedExcerpt{{Text: "Revenue was 100 Cr in FY22 and 150 Cr in FY23"}}
	validJSON := `{"type":"bar","labels":["FY22","FY23"],"series":[{"name":"Revenue","values":[100,150]}],"unit":"CR"}`

	t.Run("no intent terminates immediately", func(t *testing.T) {
		primary := &fakeCompletion{name: "p", reply: validJSON}
		c := NewChartService(primary, nil, testLogger())
		got := c.Extract(context.Background(), "what was revenue?", "answer", excerpts, types.ChartStrategyFull)
		assert.Nil(t, got)
		assert.Empty(t, primary.prompts)
	})

	t.Run("structured extraction wins on full strategy", func(t *testing.T) {
		primary := &fakeCompletion{name: "p", reply: validJSON}
		c := NewChartService(primary, nil, testLogger())
		got := c.Extract(context.Background(), "chart revenue", "whatever", excerpts, types.ChartStrategyFull)
		require.NotNil(t, got)
		assert.Equal(t, "Revenue", got.Series[0].Name)
	})

	t.Run("alternate retried after primary garbage", func(t *testing.T) {
		primary := &fakeCompletion{name: "p", reply: "no json here"}
		alternate := &fakeCompletion{name: "a", reply: validJSON}
		c := NewChartService(primary, alternate, testLogger())
		got := c.Extract(context.Background(), "chart revenue", "whatever", excerpts, types.ChartStrategyFull)
		require.NotNil(t, got)
		assert.Len(t, alternate.prompts, 1)
	})

	t.Run("cheap strategy skips providers", func(t *testing.T) {
		primary := &fakeCompletion{name: "p", err: errors.New("must not be called")}
		c := NewChartService(primary, nil, testLogger())
		got := c.Extract(context.Background(), "chart the PAT", "PAT was 100 Cr in FY22 and 150 Cr in FY23", excerpts, types.ChartStrategyCheap)
		require.NotNil(t, got)
		assert.Empty(t, primary.prompts)
		assert.Equal(t, []string{"FY22", "FY23"}, got.Labels)
	})

	t.Run("falls back to question text", func(t *testing.T) {
		c := NewChartService(nil, nil, testLogger())
		got := c.Extract(context.Background(), "compare 100 Cr in FY22 vs 150 Cr in FY23", "Here is the comparison.", nil, types.ChartStrategyCheap)
		require.NotNil(t, got)
	})

	t.Run("suppression guard discards charts", func(t *testing.T) {
		primary := &fakeCompletion{name: "p", reply: validJSON}
		c := NewChartService(primary, nil, testLogger())
		got := c.Extract(context.Background(), "chart revenue", "This cannot be answered from the documents.", excerpts, types.ChartStrategyFull)
		assert.Nil(t, got)
	})
}
