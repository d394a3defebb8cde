package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/types"
)

var chartPalette = []string{"#2563eb", "#16a34a", "#f59e0b", "#ef4444", "#8b5cf6"}

// QuickChartClient renders chart specifications to hosted PNG URLs via the
// QuickChart API, so they can be attached as WhatsApp media.
type QuickChartClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func NewQuickChartClient(cfg config.QuickChartConfig, logger *slog.Logger) *QuickChartClient {
	return &QuickChartClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Create posts the Chart.js config to /chart/create and returns a hosted
// image URL. The POST is retried once; on a second failure, a direct GET
// rendering URL is built instead so the media fetcher can hit QuickChart
// itself.
func (c *QuickChartClient) Create(ctx context.Context, spec *types.ChartSpec) (string, error) {
	cfg := chartSpecToChartJS(spec)

	body := map[string]interface{}{
		"chart":           cfg,
		"backgroundColor": "transparent",
		"format":          "png",
	}
	if c.apiKey != "" {
		body["key"] = c.apiKey
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	chartURL, err := c.post(ctx, payload)
	if err != nil {
		c.logger.Warn("quickchart create failed, retrying once", slog.String("error", err.Error()))
		chartURL, err = c.post(ctx, payload)
	}
	if err == nil {
		return chartURL, nil
	}
	c.logger.Warn("quickchart create failed twice, using direct render url", slog.String("error", err.Error()))

	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("c", string(raw))
	q.Set("format", "png")
	q.Set("backgroundColor", "transparent")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return c.baseURL + "/chart?" + q.Encode(), nil
}

func (c *QuickChartClient) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chart/create", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("quickchart create failed: %d %s", resp.StatusCode, snippet)
	}

	var out struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("quickchart response decode: %w", err)
	}
	if !out.Success || out.URL == "" {
		return "", fmt.Errorf("quickchart returned no url")
	}
	return out.URL, nil
}

// chartSpecToChartJS converts a validated spec into a Chart.js config.
// Scatter is approximated as a line chart with visible points.
func chartSpecToChartJS(spec *types.ChartSpec) map[string]interface{} {
	chartType := spec.Type
	if chartType == "" {
		chartType = types.ChartTypeLine
	}
	isPie := chartType == types.ChartTypePie

	var datasets []map[string]interface{}
	if isPie {
		background := make([]string, len(spec.Labels))
		for i := range spec.Labels {
			background[i] = chartPalette[i%len(chartPalette)]
		}
		datasets = []map[string]interface{}{{
			"label":           spec.Series[0].Name,
			"data":            spec.Series[0].Values,
			"backgroundColor": background,
		}}
	} else {
		for i, s := range spec.Series {
			color := s.Color
			if color == "" {
				color = chartPalette[i%len(chartPalette)]
			}
			datasets = append(datasets, map[string]interface{}{
				"label":           s.Name,
				"data":            s.Values,
				"borderColor":     color,
				"backgroundColor": color + "80",
				"fill":            chartType != types.ChartTypeLine,
			})
		}
	}

	renderType := string(chartType)
	if chartType == types.ChartTypeScatter {
		renderType = string(types.ChartTypeLine)
	}

	cfg := map[string]interface{}{
		"type": renderType,
		"data": map[string]interface{}{
			"labels":   spec.Labels,
			"datasets": datasets,
		},
		"options": map[string]interface{}{
			"responsive": true,
			"plugins": map[string]interface{}{
				"legend": map[string]interface{}{
					"position": "top",
					"labels":   map[string]interface{}{"color": "#e5e7eb"},
				},
				"title": map[string]interface{}{"display": false},
			},
			"elements": map[string]interface{}{
				"point": map[string]interface{}{"radius": 3},
			},
			"layout": map[string]interface{}{"padding": 8},
		},
	}
	if !isPie {
		yAxis := map[string]interface{}{
			"stacked": chartType == types.ChartTypeBar && spec.Stacked,
			"ticks":   map[string]interface{}{"color": "#e5e7eb"},
			"grid":    map[string]interface{}{"color": "#374151"},
		}
		if spec.Unit != "" {
			yAxis["title"] = map[string]interface{}{
				"display": true,
				"text":    spec.Unit,
				"color":   "#e5e7eb",
			}
		}
		cfg["options"].(map[string]interface{})["scales"] = map[string]interface{}{
			"x": map[string]interface{}{
				"ticks": map[string]interface{}{"color": "#e5e7eb"},
				"grid":  map[string]interface{}{"color": "#374151"},
			},
			"y": yAxis,
		}
	}
	return cfg
}
