package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// TrainTestSplit shuffles 0..n-1 with seed and returns (train, test) index
// sets. The test set takes ceil(testSize*n) indices.
func TrainTestSplit(n int, testSize float64, seed uint64) ([]int, []int, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, nil, fmt.Errorf("test size %v leaves no training samples out of %d", testSize, n)
	}
	perm := rand.New(rand.NewPCG(seed, 0)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Fold is one train/test partition of a k-fold split.
type Fold struct {
	Train []int
	Test  []int
}

// KFold splits 0..n-1 into k contiguous test folds without shuffling. The
// first n%k folds hold one extra index.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k-fold needs at least 2 folds, got %d", k)
	}
	if k > n {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", n, k)
	}
	folds := make([]Fold, k)
	start := 0
	for i := range folds {
		size := n / k
		if i < n%k {
			size++
		}
		end := start + size
		f := Fold{Test: make([]int, 0, size), Train: make([]int, 0, n-size)}
		for j := 0; j < n; j++ {
			if j >= start && j < end {
				f.Test = append(f.Test, j)
			} else {
				f.Train = append(f.Train, j)
			}
		}
		folds[i] = f
		start = end
	}
	return folds, nil
}
