package council

import (
	"regexp"
	"strings"
)

const rankingMarker = "FINAL RANKING:"

var (
	numberedLabelRe = regexp.MustCompile(`\d+\.\s*Response [A-Z]`)
	labelRe         = regexp.MustCompile(`Response [A-Z]`)
)

// ParseRanking extracts an ordered best-to-worst list of response
// labels from a judge's free-text review. Three tiers, each tried
// only when the previous found nothing:
//
//  1. numbered entries ("1. Response A") after the first
//     "FINAL RANKING:" marker
//  2. bare label tokens after the marker
//  3. bare label tokens anywhere in the text (marker absent)
//
// Duplicate or unknown labels are preserved; filtering is the
// aggregator's job. An unparsable review yields an empty list, never
// an error.
func ParseRanking(text string) []string {
	if _, after, found := strings.Cut(text, rankingMarker); found {
		if numbered := numberedLabelRe.FindAllString(after, -1); len(numbered) > 0 {
			labels := make([]string, len(numbered))
			for i, m := range numbered {
				labels[i] = labelRe.FindString(m)
			}
			return labels
		}
		return labelRe.FindAllString(after, -1)
	}
	return labelRe.FindAllString(text, -1)
}
