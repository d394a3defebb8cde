package service

import (
	"math"
	"regexp"
	"strings"

	"github.com/finsight-ai/finsight-be/types"
)

// lineBreakYDelta is the vertical jump, in page units, that starts a new
// line when grouping positioned fragments.
const lineBreakYDelta = 3.0

const (
	maxHeadingLen = 80
	headingWindow = 2
)

var (
	bulletLineRe  = regexp.MustCompile(`^[•\-*–—·]\s+`)
	endPunctRe    = regexp.MustCompile(`[.;:!?]$`)
	asciiLetterRe = regexp.MustCompile(`[A-Za-z]`)
	upperLetterRe = regexp.MustCompile(`[A-Z]`)
)

// LinesFromFragments reconstructs the lines of a page from positioned text
// fragments. A fragment starts a new line when its vertical coordinate jumps
// by more than lineBreakYDelta from the current line's baseline, or when the
// fragment itself carries an explicit end-of-line hint; a hint on a fragment
// that already opens a line has no effect. Fragments within a line are joined
// with single spaces. Lines are normalized and empty lines dropped before
// statistics are computed.
func LinesFromFragments(frags []types.Fragment) types.PageContent {
	var lines []string
	var cur []string
	var prevY float64
	prevValid := false

	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, strings.TrimSpace(strings.Join(cur, " ")))
			cur = cur[:0]
		}
	}

	for _, f := range frags {
		y := f.Y
		yValid := !math.IsNaN(y) && !math.IsInf(y, 0)
		if len(cur) == 0 {
			cur = append(cur, f.Text)
			prevY, prevValid = y, yValid
			continue
		}
		newLine := yValid && prevValid && math.Abs(y-prevY) > lineBreakYDelta
		if newLine || f.EOL {
			flush()
			cur = append(cur, f.Text)
			prevY, prevValid = y, yValid
			continue
		}
		cur = append(cur, f.Text)
		if yValid {
			prevY, prevValid = y, true
		}
	}
	flush()

	cleaned := make([]string, 0, len(lines))
	totalChars := 0
	bulletLines := 0
	for _, l := range lines {
		c := NormalizeText(l)
		if c == "" {
			continue
		}
		cleaned = append(cleaned, c)
		totalChars += len(c)
		if bulletLineRe.MatchString(c) {
			bulletLines++
		}
	}

	avg := 0.0
	if len(cleaned) > 0 {
		avg = float64(totalChars) / float64(len(cleaned))
	}

	return types.PageContent{
		Text:  NormalizeText(strings.Join(cleaned, "\n")),
		Lines: cleaned,
		Stats: types.PageStats{
			TotalChars:  totalChars,
			BulletLines: bulletLines,
			AvgLineLen:  avg,
		},
	}
}

// DetectPageType classifies a page as slide-like or dense text. Low total
// character count, short average lines, or a high bullet density all point
// to a slide. Best-effort heuristic; the thresholds were tuned on earnings
// presentations and the bullet-density formula is kept as-is for behavioral
// compatibility.
func DetectPageType(stats types.PageStats) types.PageType {
	slideByChars := stats.TotalChars <= 800
	slideByBullets := stats.BulletLines >= 2 &&
		float64(stats.BulletLines)/math.Max(1, float64(stats.TotalChars)/200) > 0.05
	slideByAvgLen := stats.AvgLineLen > 0 && stats.AvgLineLen < 60
	if slideByChars || slideByBullets || slideByAvgLen {
		return types.PageTypeSlide
	}
	return types.PageTypeText
}

// PickHeading scores the first two lines of a page as heading candidates and
// returns the best one, or "" when no candidate scores strictly above zero.
// Short lines with many uppercase letters and no trailing sentence
// punctuation score highest; bullet lines are penalized.
func PickHeading(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	n := headingWindow
	if len(lines) < n {
		n = len(lines)
	}

	best := ""
	bestScore := math.Inf(-1)
	for _, c := range lines[:n] {
		if sc := headingScore(c); sc > bestScore {
			bestScore = sc
			best = c
		}
	}
	if bestScore > 0 {
		return best
	}
	return ""
}

func headingScore(s string) float64 {
	length := len([]rune(s))
	if length == 0 || length > maxHeadingLen {
		return 0
	}
	letters := len(asciiLetterRe.FindAllString(s, -1))
	upper := len(upperLetterRe.FindAllString(s, -1))
	upperRatio := 0.0
	if letters > 0 {
		upperRatio = float64(upper) / float64(letters)
	}

	score := (1 - float64(length)/float64(maxHeadingLen)) + upperRatio*0.7
	if endPunctRe.MatchString(s) {
		score -= 0.6
	} else {
		score += 0.2
	}
	if bulletLineRe.MatchString(s) {
		score -= 0.8
	}
	return score
}
