package council

import (
	"math"
	"sort"
)

// Aggregate turns raw peer reviews into a consensus order. Each
// review is parsed and walked with 1-based positions; labels missing
// from the round's map are skipped, repeated labels count every time
// they appear. Models that collected no positions are omitted. The
// result is sorted ascending by mean position (lower is better) with
// ties left in encounter order.
func Aggregate(records []RankingRecord, labels LabelMap) []AggregateEntry {
	positions := make(map[string][]int)
	var order []string

	for _, rec := range records {
		for i, label := range ParseRanking(rec.Ranking) {
			model, ok := labels[label]
			if !ok {
				continue
			}
			if _, seen := positions[model]; !seen {
				order = append(order, model)
			}
			positions[model] = append(positions[model], i+1)
		}
	}

	entries := make([]AggregateEntry, 0, len(order))
	for _, model := range order {
		ps := positions[model]
		sum := 0
		for _, p := range ps {
			sum += p
		}
		avg := math.Round(float64(sum)/float64(len(ps))*100) / 100
		entries = append(entries, AggregateEntry{
			Model:         model,
			AverageRank:   avg,
			RankingsCount: len(ps),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AverageRank < entries[j].AverageRank
	})
	return entries
}
