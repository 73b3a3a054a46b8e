package classifier

import "math"

// TFIDF reweights count vectors by smoothed inverse document frequency and
// scales every row to unit l2 norm.
type TFIDF struct {
	IDF []float64 `json:"idf"`
}

// Fit computes idf(t) = ln((1+n)/(1+df(t))) + 1 over the rows of counts.
func (t *TFIDF) Fit(counts Matrix) {
	df := make([]float64, counts.Cols)
	for _, r := range counts.Rows {
		for _, j := range r.Indices {
			df[j]++
		}
	}
	n := float64(len(counts.Rows))
	t.IDF = make([]float64, counts.Cols)
	for j, d := range df {
		t.IDF[j] = math.Log((1+n)/(1+d)) + 1
	}
}

// Transform returns a new matrix; counts is left untouched.
func (t *TFIDF) Transform(counts Matrix) Matrix {
	out := Matrix{Rows: make([]Row, len(counts.Rows)), Cols: counts.Cols}
	for i, r := range counts.Rows {
		vals := make([]float64, len(r.Values))
		var norm float64
		for k, j := range r.Indices {
			vals[k] = r.Values[k] * t.IDF[j]
			norm += vals[k] * vals[k]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range vals {
				vals[k] /= norm
			}
		}
		out.Rows[i] = Row{Indices: r.Indices, Values: vals}
	}
	return out
}

// FitTransform is Fit followed by Transform.
func (t *TFIDF) FitTransform(counts Matrix) Matrix {
	t.Fit(counts)
	return t.Transform(counts)
}
