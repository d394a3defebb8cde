package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lineSpec() *types.ChartSpec {
	return &types.ChartSpec{
		Type:   types.ChartTypeLine,
		Labels: []string{"FY22", "FY23"},
		Series: []types.ChartSeries{{Name: "Revenue", Values: []float64{100, 150}}},
		Unit:   "CR",
	}
}

func TestChartSpecToChartJS(t *testing.T) {
	t.Run("line chart", func(t *testing.T) {
		cfg := chartSpecToChartJS(lineSpec())
		assert.Equal(t, "line", cfg["type"])

		data := cfg["data"].(map[string]interface{})
		assert.Equal(t, []string{"FY22", "FY23"}, data["labels"])
		datasets := data["datasets"].([]map[string]interface{})
		require.Len(t, datasets, 1)
		assert.Equal(t, "Revenue", datasets[0]["label"])
		assert.Equal(t, false, datasets[0]["fill"])
		assert.Equal(t, chartPalette[0], datasets[0]["borderColor"])

		scales := cfg["options"].(map[string]interface{})["scales"].(map[string]interface{})
		y := scales["y"].(map[string]interface{})
		assert.Equal(t, "CR", y["title"].(map[string]interface{})["text"])
	})

	t.Run("scatter rendered as line", func(t *testing.T) {
		spec := lineSpec()
		spec.Type = types.ChartTypeScatter
		cfg := chartSpecToChartJS(spec)
		assert.Equal(t, "line", cfg["type"])
	})

	t.Run("stacked bar", func(t *testing.T) {
		spec := lineSpec()
		spec.Type = types.ChartTypeBar
		spec.Stacked = true
		cfg := chartSpecToChartJS(spec)
		scales := cfg["options"].(map[string]interface{})["scales"].(map[string]interface{})
		assert.Equal(t, true, scales["y"].(map[string]interface{})["stacked"])
	})

	t.Run("pie colors per slice and no scales", func(t *testing.T) {
		spec := lineSpec()
		spec.Type = types.ChartTypePie
		cfg := chartSpecToChartJS(spec)
		assert.Equal(t, "pie", cfg["type"])
		_, hasScales := cfg["options"].(map[string]interface{})["scales"]
		assert.False(t, hasScales)

		datasets := cfg["data"].(map[string]interface{})["datasets"].([]map[string]interface{})
		require.Len(t, datasets, 1)
		assert.Len(t, datasets[0]["backgroundColor"], 2)
	})

	t.Run("empty type defaults to line", func(t *testing.T) {
		spec := lineSpec()
		spec.Type = ""
		assert.Equal(t, "line", chartSpecToChartJS(spec)["type"])
	})
}

func TestQuickChartCreate(t *testing.T) {
	t.Run("post create", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chart/create", r.URL.Path)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "png", body["format"])
			assert.Equal(t, "transparent", body["backgroundColor"])
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"url":     "https://quickchart.io/chart/render/abc",
			})
		}))
		defer srv.Close()

		client := NewQuickChartClient(config.QuickChartConfig{BaseURL: srv.URL}, testLogger())
		url, err := client.Create(context.Background(), lineSpec())
		require.NoError(t, err)
		assert.Equal(t, "https://quickchart.io/chart/render/abc", url)
	})

	t.Run("retries once then falls back to a direct url", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewQuickChartClient(config.QuickChartConfig{BaseURL: srv.URL}, testLogger())
		url, err := client.Create(context.Background(), lineSpec())
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Contains(t, url, srv.URL+"/chart?")
		assert.Contains(t, url, "format=png")
	})
}
