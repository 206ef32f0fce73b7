package engine

import (
	"strings"
)

// SearchResult is the outcome of Searcher.Next.
type SearchResult struct {
	// Matches holds the index of every matching item, in order.
	Matches []int

	// Selected is the index of the item picked by this search.
	Selected int
}

// Searcher finds items containing a query, ignoring case. Repeating
// the previous query selects the next match, wrapping around to the
// first one after the last.
type Searcher struct {
	searched bool
	last     string
	times    int
}

// Next searches items for query. It returns false when nothing
// matches.
func (o *Searcher) Next(items []string, query string) (SearchResult, bool) {
	if o.searched && query == o.last {
		o.times++
	} else {
		o.times = 0
		o.last = query
		o.searched = true
	}

	needle := strings.ToLower(query)

	var result SearchResult
	for i, item := range items {
		if strings.Contains(strings.ToLower(item), needle) {
			result.Matches = append(result.Matches, i)
		}
	}

	if len(result.Matches) == 0 {
		o.times = 0
		return result, false
	}

	if o.times >= len(result.Matches) {
		o.times = 0
	}

	result.Selected = result.Matches[o.times]

	return result, true
}

// Reset forgets the previous query.
func (o *Searcher) Reset() {
	o.searched = false
	o.last = ""
	o.times = 0
}
