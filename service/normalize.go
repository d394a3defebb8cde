package service

import (
	"regexp"
	"strings"
)

var (
	zeroWidthRe  = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
	intraSpaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	dashRunRe    = regexp.MustCompile(`-{4,}`)
	equalsRunRe  = regexp.MustCompile(`={4,}`)
	underRunRe   = regexp.MustCompile(`_{4,}`)
)

// NormalizeText cleans raw extracted text: removes zero-width characters,
// squashes spaces and tabs while keeping newlines, collapses runs of blank
// lines to two and runs of separator characters to three, and trims the
// ends. Idempotent: NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	s = zeroWidthRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r", "")
	s = intraSpaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = dashRunRe.ReplaceAllString(s, "---")
	s = equalsRunRe.ReplaceAllString(s, "===")
	s = underRunRe.ReplaceAllString(s, "___")
	return strings.TrimSpace(s)
}
