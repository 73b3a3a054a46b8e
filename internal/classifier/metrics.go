package classifier

import "sort"

// ClassStats are the scores of one class of one label.
type ClassStats struct {
	Class     uint8
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Averages are aggregated scores over the classes of a report.
type Averages struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is the evaluation of one label column.
type Report struct {
	Classes  []ClassStats
	Accuracy float64
	Macro    Averages
	Weighted Averages
}

// LabelReport names a Report.
type LabelReport struct {
	Label string
	Report
}

// ClassificationReport scores yPred against yTrue for every class that
// appears in either. Undefined precision, recall or F1 (zero division) is 0.
func ClassificationReport(yTrue, yPred []uint8) Report {
	present := map[uint8]bool{}
	for i := range yTrue {
		present[yTrue[i]] = true
		present[yPred[i]] = true
	}
	classes := make([]uint8, 0, len(present))
	for c := range present {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	var rep Report
	var correct int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	n := len(yTrue)
	if n > 0 {
		rep.Accuracy = float64(correct) / float64(n)
	}

	for _, c := range classes {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yTrue[i] == c && yPred[i] == c:
				tp++
			case yPred[i] == c:
				fp++
			case yTrue[i] == c:
				fn++
			}
		}
		s := ClassStats{Class: c, Support: tp + fn}
		s.Precision = ratio(tp, tp+fp)
		s.Recall = ratio(tp, tp+fn)
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		rep.Classes = append(rep.Classes, s)

		rep.Macro.Precision += s.Precision
		rep.Macro.Recall += s.Recall
		rep.Macro.F1 += s.F1
		w := float64(s.Support)
		rep.Weighted.Precision += w * s.Precision
		rep.Weighted.Recall += w * s.Recall
		rep.Weighted.F1 += w * s.F1
	}
	if k := float64(len(classes)); k > 0 {
		rep.Macro.Precision /= k
		rep.Macro.Recall /= k
		rep.Macro.F1 /= k
	}
	if n > 0 {
		rep.Weighted.Precision /= float64(n)
		rep.Weighted.Recall /= float64(n)
		rep.Weighted.F1 /= float64(n)
	}
	rep.Macro.Support = n
	rep.Weighted.Support = n
	return rep
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// SubsetAccuracy is the share of rows whose every label is predicted exactly.
func SubsetAccuracy(yTrue, yPred [][]uint8) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var hits int
	for i := range yTrue {
		if equalRow(yTrue[i], yPred[i]) {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

func equalRow(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// column extracts label l from a label matrix.
func column(y [][]uint8, l int) []uint8 {
	out := make([]uint8, len(y))
	for i, row := range y {
		out[i] = row[l]
	}
	return out
}
