package server

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pable/go-data-pipelines/internal/model"
)

// Bar is one Plotly bar trace.
type Bar struct {
	Type string    `json:"type"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Axis is a Plotly axis layout.
type Axis struct {
	Title string `json:"title"`
}

// Layout is a Plotly figure layout.
type Layout struct {
	Title string `json:"title"`
	YAxis Axis   `json:"yaxis"`
	XAxis Axis   `json:"xaxis"`
}

// Graph is one Plotly figure.
type Graph struct {
	Data   []Bar  `json:"data"`
	Layout Layout `json:"layout"`
}

// Dashboard holds the aggregates rendered on the index page. It is built
// once from the messages table and never modified.
type Dashboard struct {
	Genres      []string
	GenreCounts []int
	// CategorySums[g][c] sums category c over messages of genre Genres[g].
	CategorySums  [][]int
	CategoryNames []string
	Graphs        []Graph
	IDs           []string
}

// NewDashboard groups t by genre (sorted) and sums every category per genre.
func NewDashboard(t *model.MessageTable) *Dashboard {
	idx := map[string]int{}
	for _, r := range t.Rows {
		if _, ok := idx[r.Genre]; !ok {
			idx[r.Genre] = 0
		}
	}
	genres := make([]string, 0, len(idx))
	for g := range idx {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	for i, g := range genres {
		idx[g] = i
	}

	d := &Dashboard{
		Genres:        genres,
		GenreCounts:   make([]int, len(genres)),
		CategorySums:  make([][]int, len(genres)),
		CategoryNames: t.CategoryNames,
	}
	for i := range d.CategorySums {
		d.CategorySums[i] = make([]int, len(t.CategoryNames))
	}
	for _, r := range t.Rows {
		g := idx[r.Genre]
		d.GenreCounts[g]++
		for c, v := range r.Categories {
			d.CategorySums[g][c] += v
		}
	}
	d.Graphs = d.graphs()
	d.IDs = make([]string, len(d.Graphs))
	for i := range d.Graphs {
		d.IDs[i] = fmt.Sprintf("graph-%d", i)
	}
	return d
}

func (d *Dashboard) graphs() []Graph {
	out := []Graph{{
		Data: []Bar{{Type: "bar", X: d.Genres, Y: floats(d.GenreCounts)}},
		Layout: Layout{
			Title: "Distribution of Message Genres",
			YAxis: Axis{Title: "Count"},
			XAxis: Axis{Title: "Genre"},
		},
	}}
	title := cases.Title(language.English)
	for g, genre := range d.Genres {
		out = append(out, Graph{
			Data: []Bar{{Type: "bar", X: d.CategoryNames, Y: floats(d.CategorySums[g])}},
			Layout: Layout{
				Title: fmt.Sprintf("Distribution of %s Message Categories", title.String(genre)),
				YAxis: Axis{Title: "Count"},
				XAxis: Axis{Title: "Category"},
			},
		})
	}
	return out
}

func floats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
