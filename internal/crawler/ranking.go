package crawler

import (
	"sort"
	"unicode/utf8"

	"github.com/nao1215/wordcrawl/internal/model"
)

// topWords returns the n most popular words of counts.
//
// Words are ranked by count (descending), then by length in runes
// (descending), then alphabetically. The secondary rules make the order
// deterministic when counts tie.
func topWords(counts map[string]int, n int) model.WordCounts {
	if n <= 0 || len(counts) == 0 {
		return make(model.WordCounts, 0)
	}

	ranked := make(model.WordCounts, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, model.WordCount{Word: word, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		la, lb := utf8.RuneCountInString(a.Word), utf8.RuneCountInString(b.Word)
		if la != lb {
			return la > lb
		}
		return a.Word < b.Word
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
