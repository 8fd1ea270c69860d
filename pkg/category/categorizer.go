package category

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// minimumSimilarity is the token similarity under which a category is not suggested at all.
const minimumSimilarity = 0.6

type Suggestion struct {
	CategoryId   int     `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Confidence   float64 `json:"confidence"`
}

// Categorizer suggests a category for a free-text description by fuzzy matching its words
// against category names and keywords.
type Categorizer struct{}

func NewCategorizer() *Categorizer {
	return &Categorizer{}
}

// Suggest returns the best scoring category. Confidence is in [0,1]; ok is false when no
// category is similar enough.
func (c *Categorizer) Suggest(description string, categories []Category) (Suggestion, bool) {
	words := tokenize(description)
	if len(words) == 0 {
		return Suggestion{}, false
	}

	var best Suggestion
	found := false
	for _, cat := range categories {
		score := 0.0
		for _, term := range terms(cat) {
			for _, word := range words {
				if s := similarity(word, term); s > score {
					score = s
				}
			}
		}
		if score >= minimumSimilarity && score > best.Confidence {
			best = Suggestion{CategoryId: cat.Id, CategoryName: cat.Name, Confidence: score}
			found = true
		}
	}
	return best, found
}

func terms(cat Category) []string {
	result := tokenize(cat.Name)
	for _, keyword := range cat.Keywords {
		result = append(result, tokenize(keyword)...)
	}
	return result
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// tokenize lowercases s and splits it into words of at least three letters.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			words = append(words, f)
		}
	}
	return words
}
