package classifier

import (
	"math"
	"math/rand/v2"
	"sort"
)

const leaf = -1

// Tree is a binary decision tree over sparse rows, stored as parallel arrays
// indexed by node id. Node 0 is the root. Leaves have Feature == -1.
type Tree struct {
	Feature   []int32   `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int32   `json:"left"`
	Right     []int32   `json:"right"`
	// Prob is the weighted share of class 1 among the node's training samples.
	Prob []float64 `json:"prob"`
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int { return len(t.Feature) }

// Proba returns the class-1 probability of the leaf r falls into. A row goes
// left when its value is <= the node threshold; absent features read as 0.
func (t *Tree) Proba(r Row) float64 {
	n := int32(0)
	for t.Feature[n] != leaf {
		if r.At(t.Feature[n]) <= t.Threshold[n] {
			n = t.Left[n]
		} else {
			n = t.Right[n]
		}
	}
	return t.Prob[n]
}

func (t *Tree) addNode() int32 {
	t.Feature = append(t.Feature, leaf)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, leaf)
	t.Right = append(t.Right, leaf)
	t.Prob = append(t.Prob, 0)
	return int32(len(t.Feature) - 1)
}

type valWeight struct {
	val float64
	w   float64
	pos float64 // weight carried by class 1
}

// treeBuilder grows one tree. It is not safe for concurrent use; every tree
// gets its own builder.
type treeBuilder struct {
	cols        columns
	rows        []Row
	y           []uint8
	w           []float64
	maxFeatures int
	rng         *rand.Rand

	stamp     []int32
	featStamp []int32
	mark      int32
	present   []int32
	buf       []valWeight

	tree *Tree
}

// maxFeaturesFor is the per-split feature budget: floor(sqrt(n)), at least 1.
func maxFeaturesFor(nFeatures int) int {
	return max(1, int(math.Sqrt(float64(nFeatures))))
}

// growTree fits a tree on a bootstrap sample of rows drawn with rng. Gini
// impurity, no depth limit: nodes split until pure or down to one sample.
func growTree(cols columns, rows []Row, y []uint8, rng *rand.Rand) *Tree {
	n := len(rows)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[rng.IntN(n)]++
	}
	samples := make([]int32, 0, n)
	for i, c := range w {
		if c > 0 {
			samples = append(samples, int32(i))
		}
	}

	b := &treeBuilder{
		cols:        cols,
		rows:        rows,
		y:           y,
		w:           w,
		maxFeatures: maxFeaturesFor(len(cols)),
		rng:         rng,
		stamp:       make([]int32, n),
		featStamp:   make([]int32, len(cols)),
		tree:        &Tree{},
	}
	b.grow(samples)
	return b.tree
}

func (b *treeBuilder) grow(samples []int32) int32 {
	node := b.tree.addNode()

	var wTot, wPos float64
	for _, s := range samples {
		wTot += b.w[s]
		if b.y[s] == 1 {
			wPos += b.w[s]
		}
	}
	b.tree.Prob[node] = wPos / wTot

	if len(samples) < 2 || wPos == 0 || wPos == wTot {
		return node
	}
	f, thr, ok := b.bestSplit(samples, wTot, wPos)
	if !ok {
		return node
	}

	// Partition in place: values <= thr first.
	i, j := 0, len(samples)-1
	for i <= j {
		if b.rows[samples[i]].At(f) <= thr {
			i++
			continue
		}
		samples[i], samples[j] = samples[j], samples[i]
		j--
	}
	left := b.grow(samples[:i])
	right := b.grow(samples[i:])

	b.tree.Feature[node] = f
	b.tree.Threshold[node] = thr
	b.tree.Left[node] = left
	b.tree.Right[node] = right
	return node
}

// bestSplit draws candidate features in random order among those present in
// the node and keeps the split with the lowest weighted child Gini impurity.
// Features constant within the node are skipped and do not count against
// maxFeatures. Ties keep the first candidate seen.
func (b *treeBuilder) bestSplit(samples []int32, wTot, wPos float64) (int32, float64, bool) {
	b.mark++
	for _, s := range samples {
		b.stamp[s] = b.mark
	}
	b.present = b.present[:0]
	for _, s := range samples {
		for _, j := range b.rows[s].Indices {
			if b.featStamp[j] != b.mark {
				b.featStamp[j] = b.mark
				b.present = append(b.present, j)
			}
		}
	}
	sort.Slice(b.present, func(a, c int) bool { return b.present[a] < b.present[c] })
	b.rng.Shuffle(len(b.present), func(a, c int) {
		b.present[a], b.present[c] = b.present[c], b.present[a]
	})

	var (
		bestFeature   int32 = leaf
		bestThreshold float64
		bestScore     = math.Inf(-1)
		evaluated     int
	)
	for _, f := range b.present {
		if evaluated >= b.maxFeatures {
			break
		}
		vals := b.buf[:0]
		var nzW, nzPos float64
		for _, e := range b.cols[f] {
			if b.stamp[e.row] != b.mark {
				continue
			}
			ws := b.w[e.row]
			pos := 0.0
			if b.y[e.row] == 1 {
				pos = ws
			}
			vals = append(vals, valWeight{val: e.val, w: ws, pos: pos})
			nzW += ws
			nzPos += pos
		}
		b.buf = vals
		zeros := len(samples) - len(vals)
		sort.Slice(vals, func(a, c int) bool { return vals[a].val < vals[c].val })
		if zeros == 0 && vals[0].val == vals[len(vals)-1].val {
			continue
		}
		evaluated++

		wl, pl := wTot-nzW, wPos-nzPos
		consider := func(lo, hi float64) {
			score := giniScore(wl, pl) + giniScore(wTot-wl, wPos-pl)
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
			}
		}
		if zeros > 0 {
			consider(0, vals[0].val)
		}
		for k := 0; k < len(vals)-1; k++ {
			wl += vals[k].w
			pl += vals[k].pos
			if vals[k+1].val > vals[k].val {
				consider(vals[k].val, vals[k+1].val)
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature != leaf
}

// giniScore is sum_c w_c^2 / w for one child. Maximising the sum over both
// children minimises their weighted Gini impurity.
func giniScore(w, pos float64) float64 {
	if w <= 0 {
		return 0
	}
	neg := w - pos
	return (pos*pos + neg*neg) / w
}

func midpoint(lo, hi float64) float64 {
	m := lo/2 + hi/2
	if m == hi || math.IsInf(m, 0) || math.IsNaN(m) {
		return lo
	}
	return m
}
