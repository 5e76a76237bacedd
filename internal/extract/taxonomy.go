package extract

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// taxonomyEntry binds a category to its keyword list. Order matters:
// when keywords from several categories appear in the same document, the
// category listed first wins.
type taxonomyEntry struct {
	category Category
	keywords []string
}

// taxonomy is the closed, ordered keyword map used for classification.
// Matching is plain case-insensitive substring search, not statistical.
var taxonomy = []taxonomyEntry{
	{CategoryFood, []string{"restaurant", "cafe", "starbucks", "mcdonald", "food", "coffee"}},
	{CategoryTravel, []string{"uber", "lyft", "flight", "airlines", "hotel", "taxi"}},
	{CategoryShopping, []string{"amazon", "store", "mall", "target", "walmart"}},
	{CategoryEntertainment, []string{"movie", "cinema", "concert", "spotify", "netflix"}},
	{CategoryBills, []string{"electric", "water", "internet", "rent", "bill"}},
}

// Classifier assigns one of the fixed categories to free text by scanning
// for taxonomy keywords in a single Aho-Corasick pass. It is immutable
// after construction and safe for concurrent use.
type Classifier struct {
	matcher *ahocorasick.Matcher
	ranks   []int // pattern index -> taxonomy rank
}

// NewClassifier builds the keyword matcher from the static taxonomy.
func NewClassifier() *Classifier {
	var patterns [][]byte
	var ranks []int
	for rank, entry := range taxonomy {
		for _, kw := range entry.keywords {
			patterns = append(patterns, []byte(kw))
			ranks = append(ranks, rank)
		}
	}
	return &Classifier{
		matcher: ahocorasick.NewMatcher(patterns),
		ranks:   ranks,
	}
}

// Classify returns the first taxonomy category with a keyword present in
// the text, or CategoryOther when nothing matches. Precedence follows
// taxonomy order, not position in the text.
func (c *Classifier) Classify(text string) Category {
	matches := c.matcher.Match([]byte(strings.ToLower(text)))
	best := len(taxonomy)
	for _, idx := range matches {
		if idx >= 0 && idx < len(c.ranks) && c.ranks[idx] < best {
			best = c.ranks[idx]
		}
	}
	if best == len(taxonomy) {
		return CategoryOther
	}
	return taxonomy[best].category
}

// knownCategory maps a raw label value onto the closed category set.
// Anything outside the set is rejected rather than passed through.
func knownCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryFood:
		return CategoryFood, true
	case CategoryTravel:
		return CategoryTravel, true
	case CategoryShopping:
		return CategoryShopping, true
	case CategoryEntertainment:
		return CategoryEntertainment, true
	case CategoryBills:
		return CategoryBills, true
	case CategoryOther:
		return CategoryOther, true
	}
	return "", false
}
