package classifier

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned when fitting on documents with no tokens.
var ErrEmptyVocabulary = errors.New("classifier: empty vocabulary")

// CountVectorizer maps token lists to n-gram count vectors. Vocabulary
// indices follow the sorted term order.
type CountVectorizer struct {
	MinN  int      `json:"min_n"`
	MaxN  int      `json:"max_n"`
	Terms []string `json:"terms"`
	index map[string]int32
}

// NewCountVectorizer returns an unfitted vectorizer for n-grams minN..maxN.
func NewCountVectorizer(minN, maxN int) *CountVectorizer {
	return &CountVectorizer{MinN: minN, MaxN: maxN}
}

// ngrams returns every n-gram of tokens for n in [minN, maxN], tokens joined
// by a single space.
func ngrams(tokens []string, minN, maxN int) []string {
	if maxN == 1 && minN == 1 {
		return tokens
	}
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				out = append(out, tokens[i])
				continue
			}
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Fit learns the vocabulary of docs.
func (v *CountVectorizer) Fit(docs [][]string) error {
	seen := make(map[string]struct{})
	for _, d := range docs {
		for _, g := range ngrams(d, v.MinN, v.MaxN) {
			seen[g] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ErrEmptyVocabulary
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	v.Terms = terms
	v.buildIndex()
	return nil
}

func (v *CountVectorizer) buildIndex() {
	v.index = make(map[string]int32, len(v.Terms))
	for i, t := range v.Terms {
		v.index[t] = int32(i)
	}
}

// Transform counts the known n-grams of each document. Unknown n-grams are
// ignored. Safe for concurrent use once the vectorizer is fitted or loaded.
func (v *CountVectorizer) Transform(docs [][]string) Matrix {
	if v.index == nil {
		v.buildIndex()
	}
	m := Matrix{Rows: make([]Row, len(docs)), Cols: len(v.Terms)}
	for i, d := range docs {
		counts := make(map[int32]float64)
		for _, g := range ngrams(d, v.MinN, v.MaxN) {
			if j, ok := v.index[g]; ok {
				counts[j]++
			}
		}
		m.Rows[i] = sortedRow(counts)
	}
	return m
}

// FitTransform is Fit followed by Transform.
func (v *CountVectorizer) FitTransform(docs [][]string) (Matrix, error) {
	if err := v.Fit(docs); err != nil {
		return Matrix{}, err
	}
	return v.Transform(docs), nil
}

func sortedRow(counts map[int32]float64) Row {
	r := Row{Indices: make([]int32, 0, len(counts)), Values: make([]float64, 0, len(counts))}
	for j := range counts {
		r.Indices = append(r.Indices, j)
	}
	sort.Slice(r.Indices, func(a, b int) bool { return r.Indices[a] < r.Indices[b] })
	for _, j := range r.Indices {
		r.Values = append(r.Values, counts[j])
	}
	return r
}
