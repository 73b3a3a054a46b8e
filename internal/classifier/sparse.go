// Package classifier implements the multi-label message classifier: n-gram
// count vectorisation, TF-IDF weighting and one random forest per label,
// with grid search, hold-out evaluation and a serialisable artifact.
package classifier

import "sort"

// Row is a sparse vector with strictly increasing indices.
type Row struct {
	Indices []int32
	Values  []float64
}

// At returns the value stored for index j, or 0.
func (r Row) At(j int32) float64 {
	k := sort.Search(len(r.Indices), func(i int) bool { return r.Indices[i] >= j })
	if k < len(r.Indices) && r.Indices[k] == j {
		return r.Values[k]
	}
	return 0
}

// Matrix is a row-major sparse matrix.
type Matrix struct {
	Rows []Row
	Cols int
}

// Subset returns the rows at idx, sharing storage with m.
func (m Matrix) Subset(idx []int) Matrix {
	out := Matrix{Rows: make([]Row, len(idx)), Cols: m.Cols}
	for i, j := range idx {
		out.Rows[i] = m.Rows[j]
	}
	return out
}

type entry struct {
	row int32
	val float64
}

// columns is the column-major view of a Matrix used while growing trees.
type columns [][]entry

func toColumns(m Matrix) columns {
	counts := make([]int, m.Cols)
	for _, r := range m.Rows {
		for _, j := range r.Indices {
			counts[j]++
		}
	}
	cols := make(columns, m.Cols)
	for j, n := range counts {
		cols[j] = make([]entry, 0, n)
	}
	for i, r := range m.Rows {
		for k, j := range r.Indices {
			cols[j] = append(cols[j], entry{row: int32(i), val: r.Values[k]})
		}
	}
	return cols
}

func subsetLabels(y [][]uint8, idx []int) [][]uint8 {
	out := make([][]uint8, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func subsetTokens(docs [][]string, idx []int) [][]string {
	out := make([][]string, len(idx))
	for i, j := range idx {
		out[i] = docs[j]
	}
	return out
}
