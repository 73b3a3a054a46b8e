package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-data-pipelines/internal/model"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// separable returns n texts alternating between two vocabularies, with the
// labels [1 0] and [0 1].
func separable(n int) ([]string, [][]uint8) {
	texts := make([]string, n)
	y := make([][]uint8, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			texts[i] = "We need water"
			y[i] = []uint8{1, 0}
		} else {
			texts[i] = "Fire, send help!"
			y[i] = []uint8{0, 1}
		}
	}
	return texts, y
}

// ---- vectorizer / tfidf ----

func TestCountVectorizerNGrams(t *testing.T) {
	v := NewCountVectorizer(1, 2)
	m, err := v.FitTransform([][]string{{"the", "cat"}, {"the", "dog", "the"}})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	want := []string{"cat", "dog", "dog the", "the", "the cat", "the dog"}
	if !reflect.DeepEqual(v.Terms, want) {
		t.Fatalf("terms: got %q, want %q", v.Terms, want)
	}
	if m.Cols != len(want) {
		t.Errorf("cols: got %d", m.Cols)
	}
	// "the" is index 3 and appears twice in the second document.
	if got := m.Rows[1].At(3); got != 2 {
		t.Errorf("count of 'the' in doc 1: got %v", got)
	}
	if got := m.Rows[0].At(1); got != 0 {
		t.Errorf("count of 'dog' in doc 0: got %v", got)
	}

	unseen := v.Transform([][]string{{"bird"}})
	if len(unseen.Rows[0].Indices) != 0 {
		t.Errorf("unknown terms should be ignored, got %+v", unseen.Rows[0])
	}
}

func TestCountVectorizerEmpty(t *testing.T) {
	_, err := NewCountVectorizer(1, 1).FitTransform([][]string{{}, {}})
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestTFIDF(t *testing.T) {
	v := NewCountVectorizer(1, 1)
	counts, _ := v.FitTransform([][]string{{"cat", "the"}, {"the"}})
	var tf TFIDF
	x := tf.FitTransform(counts)

	// cat: df=1, the: df=2, n=2.
	if !near(tf.IDF[0], math.Log(3.0/2.0)+1) || !near(tf.IDF[1], 1) {
		t.Errorf("idf: got %v", tf.IDF)
	}
	for i, r := range x.Rows {
		var norm float64
		for _, v := range r.Values {
			norm += v * v
		}
		if !near(norm, 1) {
			t.Errorf("row %d: squared norm %v, want 1", i, norm)
		}
	}
	if counts.Rows[1].Values[0] != 1 {
		t.Error("Transform must not modify its input")
	}
}

// ---- forests ----

func TestForestLearnsSeparableData(t *testing.T) {
	texts, y := separable(20)
	p := NewPipeline(Params{NGramMax: 1, Estimators: 10}, []string{"water", "fire"}, nil)
	if err := p.Fit(context.Background(), texts, y, FitOptions{Seed: 42, Jobs: 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	got := p.Predict([]string{"WE NEED WATER", "fire , send help !"})
	want := [][]uint8{{1, 0}, {0, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Predict: got %v, want %v", got, want)
	}

	res := p.Classify("We need water")
	if len(res) != 2 || res[0].Name != "water" || res[0].Value != 1 {
		t.Errorf("Classify: got %+v", res)
	}
}

func TestForestDeterministicAcrossJobs(t *testing.T) {
	texts, y := separable(30)
	// Make the second label noisy so trees have some depth.
	for i := range y {
		if i%3 == 0 {
			y[i][1] = 1 - y[i][1]
		}
	}
	fit := func(jobs int) *MultiOutput {
		p := NewPipeline(Params{NGramMax: 2, Estimators: 8}, nil, nil)
		if err := p.Fit(context.Background(), texts, y, FitOptions{Seed: 7, Jobs: jobs}); err != nil {
			t.Fatalf("Fit jobs=%d: %v", jobs, err)
		}
		return p.Model
	}
	sequential, parallel := fit(1), fit(4)
	if !reflect.DeepEqual(sequential, parallel) {
		t.Error("forests differ between jobs=1 and jobs=4")
	}
}

func TestFitMultiOutputCancelled(t *testing.T) {
	texts, y := separable(10)
	p := NewPipeline(Params{NGramMax: 1, Estimators: 5}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Fit(ctx, texts, y, FitOptions{Seed: 1, Jobs: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTreeProbaFollowsThresholds(t *testing.T) {
	tree := &Tree{
		Feature:   []int32{2, leaf, leaf},
		Threshold: []float64{0.5, 0, 0},
		Left:      []int32{1, leaf, leaf},
		Right:     []int32{2, leaf, leaf},
		Prob:      []float64{0.5, 0.1, 0.9},
	}
	if got := tree.Proba(Row{}); got != 0.1 {
		t.Errorf("absent feature should go left, got %v", got)
	}
	if got := tree.Proba(Row{Indices: []int32{2}, Values: []float64{0.7}}); got != 0.9 {
		t.Errorf("0.7 > 0.5 should go right, got %v", got)
	}
	if got := tree.Proba(Row{Indices: []int32{2}, Values: []float64{0.5}}); got != 0.1 {
		t.Errorf("value equal to threshold should go left, got %v", got)
	}
}

func TestMaxFeatures(t *testing.T) {
	cases := map[int]int{1: 1, 3: 1, 4: 2, 100: 10, 101: 10}
	for n, want := range cases {
		if got := maxFeaturesFor(n); got != want {
			t.Errorf("maxFeaturesFor(%d) = %d, want %d", n, got, want)
		}
	}
}

// ---- splits ----

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(11, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}
	if len(test) != 3 || len(train) != 8 {
		t.Fatalf("sizes: train=%d test=%d, want 8/3", len(train), len(test))
	}
	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	if len(seen) != 11 {
		t.Errorf("expected all 11 indices, got %d", len(seen))
	}

	train2, test2, _ := TrainTestSplit(11, 0.2, 42)
	if !reflect.DeepEqual(train, train2) || !reflect.DeepEqual(test, test2) {
		t.Error("same seed should give the same split")
	}

	if _, _, err := TrainTestSplit(1, 0.2, 42); err == nil {
		t.Error("expected error when no training samples remain")
	}
}

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 3)
	if err != nil {
		t.Fatalf("KFold: %v", err)
	}
	wantTests := [][]int{{0, 1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	for i, f := range folds {
		if !reflect.DeepEqual(f.Test, wantTests[i]) {
			t.Errorf("fold %d test: got %v, want %v", i, f.Test, wantTests[i])
		}
		if len(f.Train)+len(f.Test) != 10 {
			t.Errorf("fold %d: train+test = %d", i, len(f.Train)+len(f.Test))
		}
	}
	if _, err := KFold(2, 3); err == nil {
		t.Error("expected error for more folds than samples")
	}
	if _, err := KFold(10, 1); err == nil {
		t.Error("expected error for k < 2")
	}
}

// ---- metrics ----

func TestClassificationReport(t *testing.T) {
	rep := ClassificationReport([]uint8{0, 0, 1, 1}, []uint8{0, 1, 1, 1})
	if len(rep.Classes) != 2 {
		t.Fatalf("classes: got %d", len(rep.Classes))
	}
	c0, c1 := rep.Classes[0], rep.Classes[1]
	if !near(c0.Precision, 1) || !near(c0.Recall, 0.5) || !near(c0.F1, 2.0/3.0) || c0.Support != 2 {
		t.Errorf("class 0: %+v", c0)
	}
	if !near(c1.Precision, 2.0/3.0) || !near(c1.Recall, 1) || !near(c1.F1, 0.8) || c1.Support != 2 {
		t.Errorf("class 1: %+v", c1)
	}
	if !near(rep.Accuracy, 0.75) {
		t.Errorf("accuracy: %v", rep.Accuracy)
	}
	if !near(rep.Macro.Precision, 5.0/6.0) || !near(rep.Weighted.Precision, 5.0/6.0) {
		t.Errorf("averages: macro=%+v weighted=%+v", rep.Macro, rep.Weighted)
	}
	if rep.Macro.Support != 4 {
		t.Errorf("support: %d", rep.Macro.Support)
	}
}

func TestClassificationReportZeroDivision(t *testing.T) {
	rep := ClassificationReport([]uint8{0, 0}, []uint8{1, 1})
	for _, c := range rep.Classes {
		if c.Precision != 0 || c.Recall != 0 || c.F1 != 0 {
			t.Errorf("class %d: expected zeros, got %+v", c.Class, c)
		}
	}
	if rep.Classes[1].Support != 0 {
		t.Errorf("class 1 support: %d", rep.Classes[1].Support)
	}
}

func TestSubsetAccuracy(t *testing.T) {
	got := SubsetAccuracy(
		[][]uint8{{1, 0}, {0, 1}, {1, 1}, {0, 0}},
		[][]uint8{{1, 0}, {0, 0}, {1, 1}, {1, 0}},
	)
	if !near(got, 0.5) {
		t.Errorf("SubsetAccuracy: got %v, want 0.5", got)
	}
}

// ---- grid search ----

func TestGridOrder(t *testing.T) {
	g := Grid(DefaultEstimators, DefaultNGramMax)
	want := []Params{
		{NGramMax: 1, Estimators: 10}, {NGramMax: 2, Estimators: 10},
		{NGramMax: 1, Estimators: 50}, {NGramMax: 2, Estimators: 50},
		{NGramMax: 1, Estimators: 100}, {NGramMax: 2, Estimators: 100},
	}
	if !reflect.DeepEqual(g, want) {
		t.Errorf("grid: got %v", g)
	}
}

func TestGridSearchTiesKeepFirst(t *testing.T) {
	texts, y := separable(20)
	p := NewPipeline(Params{}, nil, nil)
	docs := p.AnalyzeAll(texts)
	grid := []Params{{NGramMax: 1, Estimators: 3}, {NGramMax: 2, Estimators: 3}}
	res, err := GridSearch(context.Background(), docs, y, grid, SearchOptions{Folds: 4, Fit: FitOptions{Seed: 42, Jobs: 1}})
	if err != nil {
		t.Fatalf("GridSearch: %v", err)
	}
	for _, s := range res.Scores {
		if s.Mean != 1 || s.Rank != 1 || len(s.Folds) != 4 {
			t.Errorf("score %s: %+v", s.Params, s)
		}
	}
	if res.BestIndex != 0 || res.Best() != grid[0] {
		t.Errorf("tie should keep the first grid point, got %d", res.BestIndex)
	}
}

func TestRank(t *testing.T) {
	scores := []CVScore{{Mean: 0.5}, {Mean: 0.9}, {Mean: 0.5}, {Mean: 0.7}}
	rank(scores)
	want := []int{3, 1, 3, 2}
	for i, s := range scores {
		if s.Rank != want[i] {
			t.Errorf("rank %d: got %d, want %d", i, s.Rank, want[i])
		}
	}
}

// ---- training and artifacts ----

func messageTable(n int) *model.MessageTable {
	texts, y := separable(n)
	t := &model.MessageTable{CategoryNames: []string{"water", "fire"}}
	for i := range texts {
		t.Rows = append(t.Rows, model.Message{
			ID:         int64(i),
			Message:    texts[i],
			Genre:      "direct",
			Categories: []int{int(y[i][0]), int(y[i][1])},
		})
	}
	return t
}

func TestTrain(t *testing.T) {
	var out bytes.Buffer
	opts := DefaultOptions()
	opts.Grid = []Params{{NGramMax: 1, Estimators: 5}}
	opts.Folds = 3
	opts.Out = &out

	res, err := Train(context.Background(), messageTable(30), opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.TrainSize != 24 || res.TestSize != 6 {
		t.Errorf("split sizes: %d/%d", res.TrainSize, res.TestSize)
	}
	if len(res.Reports) != 2 || res.Reports[1].Label != "fire" {
		t.Fatalf("reports: %+v", res.Reports)
	}
	for _, r := range res.Reports {
		if r.Accuracy != 1 {
			t.Errorf("label %s: accuracy %v", r.Label, r.Accuracy)
		}
	}
	if !bytes.Contains(out.Bytes(), []byte("Evaluating model...")) {
		t.Errorf("progress output: %q", out.String())
	}
}

func TestTrainNoCategories(t *testing.T) {
	_, err := Train(context.Background(), &model.MessageTable{}, DefaultOptions())
	if err == nil {
		t.Fatal("expected error for a table without category columns")
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	texts, y := separable(20)
	p := NewPipeline(Params{NGramMax: 2, Estimators: 4}, []string{"water", "fire"}, nil)
	if err := p.Fit(context.Background(), texts, y, FitOptions{Seed: 3, Jobs: 2}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	search := &SearchResult{Scores: []CVScore{{Params: p.Params, Mean: 1, Rank: 1}}}

	var buf bytes.Buffer
	if err := WriteArtifact(&buf, p, search); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	loaded, gotSearch, err := ReadArtifact(&buf)
	if err != nil {
		t.Fatalf("ReadArtifact: %v", err)
	}
	if loaded.Params != p.Params || !reflect.DeepEqual(loaded.Labels, p.Labels) {
		t.Errorf("params/labels: got %+v %v", loaded.Params, loaded.Labels)
	}
	if gotSearch == nil || gotSearch.Best() != p.Params {
		t.Errorf("search: got %+v", gotSearch)
	}
	queries := []string{"need water now", "fire!", "nothing relevant"}
	if !reflect.DeepEqual(loaded.Predict(queries), p.Predict(queries)) {
		t.Error("loaded artifact predicts differently")
	}
}

func TestArtifactVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	json.NewEncoder(enc).Encode(artifact{Version: ArtifactVersion + 1})
	enc.Close()

	if _, _, err := ReadArtifact(&buf); !errors.Is(err, ErrArtifactVersion) {
		t.Fatalf("expected ErrArtifactVersion, got %v", err)
	}
}

func TestSaveLoadModel(t *testing.T) {
	texts, y := separable(10)
	p := NewPipeline(Params{NGramMax: 1, Estimators: 2}, []string{"water", "fire"}, nil)
	if err := p.Fit(context.Background(), texts, y, FitOptions{Seed: 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	path := t.TempDir() + "/classifier.model"
	if err := SaveModel(path, p, nil); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if len(loaded.Model.Forests) != 2 {
		t.Errorf("forests: got %d", len(loaded.Model.Forests))
	}
}
