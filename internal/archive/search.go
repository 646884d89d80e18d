package archive

import (
	"github.com/sahilm/fuzzy"
)

// Match is a search hit.
type Match struct {
	Item    Item
	Score   int
	Matched []int // byte offsets into the description
}

type descriptions []Item

func (d descriptions) String(i int) string { return d[i].Description }
func (d descriptions) Len() int            { return len(d) }

// Search fuzzy-matches query against every description, best first.
func (a *Archive) Search(query string) ([]Match, error) {
	items, err := a.List()
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, m := range fuzzy.FindFrom(query, descriptions(items)) {
		matches = append(matches, Match{
			Item:    items[m.Index],
			Score:   m.Score,
			Matched: m.MatchedIndexes,
		})
	}
	return matches, nil
}
