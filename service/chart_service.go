package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/finsight-ai/finsight-be/types"
)

// chartIntentKeywords gate the whole extraction pipeline. Substring match,
// case-insensitive.
var chartIntentKeywords = []string{
	"chart", "graph", "plot", "visualize", "visualise",
	"trend", "compare", "breakdown", "yoy", "qoq",
}

// suppressionPhrases in the synthesized answer mean the model could not
// ground an answer, so any chart extracted alongside it is noise.
var suppressionPhrases = []string{
	"cannot be answered",
	"insufficient data",
	"don't know",
	"not available",
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	// Period labels: FY22, FY2023, Q1FY24, Q3 2024, H1FY23, CY23, bare years.
	chartLabelRe = regexp.MustCompile(`(?i)\b(?:(?:[QH][1-4]\s*)?(?:FY|CY)\s*'?\d{2,4}|[QH][1-4]\s*'?\d{2,4}|20\d{2}(?:-\d{2})?)\b`)

	// Optionally comma-grouped decimal with an optional unit suffix.
	chartValueRe = regexp.MustCompile(`(?i)(-?\d{1,3}(?:,\d{2,3})*(?:\.\d+)?|-?\d+(?:\.\d+)?)\s*(%|cr(?:ore)?s?|bn|billions?|mn|millions?|lakhs?)?`)
)

// heuristicWindow bounds how far back a value may precede its label.
const heuristicWindow = 48

// ChartService decides whether a question calls for a chart and extracts a
// validated specification from the retrieved context, falling back from
// LLM-structured extraction to a regex scan of the answer text.
type ChartService struct {
	primary   CompletionService // may be nil
	alternate CompletionService // may be nil
	logger    *slog.Logger
}

func NewChartService(primary, alternate CompletionService, logger *slog.Logger) *ChartService {
	return &ChartService{primary: primary, alternate: alternate, logger: logger}
}

// HasChartIntent reports whether the question asks for a visualization.
func HasChartIntent(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range chartIntentKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Extract runs the extraction ladder: intent gate, structured LLM pass
// (skipped on the cheap strategy), alternate-provider retry, regex fallback
// over answer then question, suppression guard, sanitization. Returns nil
// when no valid chart can be produced; never returns an error.
func (c *ChartService) Extract(ctx context.Context, question, answer string, excerpts []types.RankedExcerpt, strategy types.ChartStrategy) *types.ChartSpec {
	if !HasChartIntent(question) {
		return nil
	}
	if answerSuppressed(answer) {
		return nil
	}

	var spec *types.ChartSpec
	if strategy != types.ChartStrategyCheap {
		spec = c.structuredExtract(ctx, c.primary, question, excerpts)
		if spec == nil {
			spec = c.structuredExtract(ctx, c.alternate, question, excerpts)
		}
	}
	if spec == nil {
		spec = HeuristicExtract(answer)
	}
	if spec == nil {
		spec = HeuristicExtract(question)
	}
	return SanitizeChartSpec(spec)
}

func answerSuppressed(answer string) bool {
	a := strings.ToLower(answer)
	for _, p := range suppressionPhrases {
		if strings.Contains(a, p) {
			return true
		}
	}
	return false
}

func (c *ChartService) structuredExtract(ctx context.Context, provider CompletionService, question string, excerpts []types.RankedExcerpt) *types.ChartSpec {
	if provider == nil || len(excerpts) == 0 {
		return nil
	}
	raw, err := provider.Complete(ctx, buildChartPrompt(question, excerpts))
	if err != nil {
		c.logger.Warn("structured chart extraction failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()))
		return nil
	}
	spec, err := ParseChartJSON(raw)
	if err != nil {
		c.logger.Warn("chart response unparseable, falling through",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()))
		return nil
	}
	if spec == nil || ValidateChartSpec(spec) != nil {
		return nil
	}
	return spec
}

func buildChartPrompt(question string, excerpts []types.RankedExcerpt) string {
	var b strings.Builder
	b.WriteString("Extract numeric data relevant to the question from the sources below and emit STRICTLY a JSON object of the form ")
	b.WriteString(`{"type":"line|bar|scatter|pie","labels":[...],"series":[{"name":"...","values":[...]}],"unit":"...","stacked":false}`)
	b.WriteString(" with no surrounding text. Every series must have exactly one value per label. ")
	b.WriteString("Use only numbers that literally appear in the sources; never fabricate or zero-fill values. ")
	b.WriteString("If the sources do not contain enough data for a chart, emit the literal value null.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	if len(excerpts) > maxPromptExcerpts {
		excerpts = excerpts[:maxPromptExcerpts]
	}
	for i, e := range excerpts {
		fmt.Fprintf(&b, "Source %d (%s, %s):\n%s\n\n", i+1, e.Title, e.PublishedDate, e.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ParseChartJSON parses free-form model output tolerantly: raw JSON first,
// then the contents of a fenced code block, then the first balanced-brace
// substring. A literal null is a valid "no chart" result (nil, nil).
func ParseChartJSON(raw string) (*types.ChartSpec, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if sub := braceSubstring(raw); sub != "" {
		candidates = append(candidates, sub)
	}

	var lastErr error
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if cand == "null" {
			return nil, nil
		}
		var spec types.ChartSpec
		if err := json.Unmarshal([]byte(cand), &spec); err != nil {
			lastErr = err
			continue
		}
		return &spec, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object found in response")
	}
	return nil, lastErr
}

// braceSubstring returns the first balanced {...} span in s, or "".
func braceSubstring(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// ValidateChartSpec checks structural invariants: at least two labels, every
// series aligned with the labels, at least two label positions carrying a
// finite non-zero value, and pie charts holding exactly one series with a
// positive total.
func ValidateChartSpec(spec *types.ChartSpec) error {
	if spec == nil {
		return fmt.Errorf("nil chart spec")
	}
	if len(spec.Labels) < 2 {
		return fmt.Errorf("need at least 2 labels, got %d", len(spec.Labels))
	}
	if len(spec.Series) == 0 {
		return fmt.Errorf("no series")
	}
	for _, s := range spec.Series {
		if len(s.Values) != len(spec.Labels) {
			return fmt.Errorf("series %q has %d values for %d labels", s.Name, len(s.Values), len(spec.Labels))
		}
	}
	nonZero := 0
	for i := range spec.Labels {
		if labelHasValue(spec, i) {
			nonZero++
		}
	}
	if nonZero < 2 {
		return fmt.Errorf("fewer than 2 labels carry a non-zero value")
	}
	if spec.Type == types.ChartTypePie {
		if len(spec.Series) != 1 {
			return fmt.Errorf("pie chart requires exactly one series, got %d", len(spec.Series))
		}
		total := 0.0
		for _, v := range spec.Series[0].Values {
			if isFinite(v) {
				total += v
			}
		}
		if total <= 0 {
			return fmt.Errorf("pie chart series total must be positive")
		}
	}
	return nil
}

// SanitizeChartSpec drops label positions where no series carries a finite
// non-zero value, then re-validates. Returns nil if fewer than two positions
// survive.
func SanitizeChartSpec(spec *types.ChartSpec) *types.ChartSpec {
	if spec == nil {
		return nil
	}
	for _, s := range spec.Series {
		if len(s.Values) != len(spec.Labels) {
			return nil
		}
	}

	var keep []int
	for i := range spec.Labels {
		if labelHasValue(spec, i) {
			keep = append(keep, i)
		}
	}
	if len(keep) < 2 {
		return nil
	}

	out := &types.ChartSpec{
		Type:    spec.Type,
		Labels:  make([]string, 0, len(keep)),
		Unit:    spec.Unit,
		Stacked: spec.Stacked,
	}
	for _, i := range keep {
		out.Labels = append(out.Labels, spec.Labels[i])
	}
	for _, s := range spec.Series {
		ns := types.ChartSeries{Name: s.Name, Color: s.Color, Values: make([]float64, 0, len(keep))}
		for _, i := range keep {
			ns.Values = append(ns.Values, s.Values[i])
		}
		out.Series = append(out.Series, ns)
	}
	if err := ValidateChartSpec(out); err != nil {
		return nil
	}
	return out
}

func labelHasValue(spec *types.ChartSpec, i int) bool {
	for _, s := range spec.Series {
		if i < len(s.Values) && isFinite(s.Values[i]) && s.Values[i] != 0 {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// HeuristicExtract scans text for (period-label, value) pairs. For each
// label it takes the value immediately following it, or failing that the
// most recent value preceding it within a bounded window. Labels are
// deduplicated keeping the first occurrence; the unit is chosen by
// plurality vote among matched suffixes.
func HeuristicExtract(text string) *types.ChartSpec {
	labelSpans := chartLabelRe.FindAllStringIndex(text, -1)
	if len(labelSpans) < 2 {
		return nil
	}

	type numMatch struct {
		start, end int
		value      float64
		unit       string
	}
	var nums []numMatch
	for _, m := range chartValueRe.FindAllStringSubmatchIndex(text, -1) {
		if overlapsAny(m[0], m[1], labelSpans) {
			continue
		}
		raw := strings.ReplaceAll(text[m[2]:m[3]], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		unit := ""
		if m[4] >= 0 {
			unit = canonicalUnit(text[m[4]:m[5]])
		}
		nums = append(nums, numMatch{start: m[0], end: m[1], value: v, unit: unit})
	}
	if len(nums) < 2 {
		return nil
	}

	var labels []string
	var values []float64
	unitVotes := map[string]int{}
	seen := map[string]bool{}

	for _, span := range labelSpans {
		label := normalizeLabel(text[span[0]:span[1]])
		if seen[label] {
			continue
		}

		var picked *numMatch
		// A value directly after the label, with only separators between.
		for i := range nums {
			n := &nums[i]
			if n.start >= span[1] && separatorOnly(text[span[1]:n.start]) {
				picked = n
				break
			}
		}
		// Otherwise the closest value before the label within the window.
		if picked == nil {
			for i := range nums {
				n := &nums[i]
				if n.end <= span[0] && span[0]-n.end <= heuristicWindow {
					if picked == nil || n.end > picked.end {
						picked = n
					}
				}
			}
		}
		if picked == nil {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
		values = append(values, picked.value)
		if picked.unit != "" {
			unitVotes[picked.unit]++
		}
	}

	if len(labels) < 2 || countNonZero(values) < 2 {
		return nil
	}

	return &types.ChartSpec{
		Type:   types.ChartTypeBar,
		Labels: labels,
		Series: []types.ChartSeries{{Name: "Value", Values: values}},
		Unit:   dominantUnit(unitVotes),
	}
}

func overlapsAny(start, end int, spans [][]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

// separatorOnly reports whether s contains nothing but whitespace and
// joining punctuation, so a number can be treated as adjacent to a label.
func separatorOnly(s string) bool {
	if len(s) > heuristicWindow {
		return false
	}
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
		case r == ':' || r == '=' || r == '-' || r == ',' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(strings.Join(strings.Fields(label), ""))
}

func canonicalUnit(unit string) string {
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "%":
		return "%"
	case "cr", "crore":
		return "CR"
	case "bn", "billion":
		return "BN"
	case "mn", "million":
		return "MN"
	case "lakh":
		return "LAKH"
	default:
		return strings.ToUpper(unit)
	}
}

func dominantUnit(votes map[string]int) string {
	best := ""
	bestN := 0
	for u, n := range votes {
		if n > bestN {
			best, bestN = u, n
		}
	}
	return best
}

func countNonZero(values []float64) int {
	n := 0
	for _, v := range values {
		if isFinite(v) && v != 0 {
			n++
		}
	}
	return n
}
