package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pable/go-data-pipelines/internal/classifier"
	"github.com/pable/go-data-pipelines/internal/model"
	"github.com/pable/go-data-pipelines/internal/telemetry"
)

func TestPrintClassificationReport(t *testing.T) {
	var buf bytes.Buffer
	rep := classifier.ClassificationReport([]uint8{0, 0, 1, 1}, []uint8{0, 1, 1, 1})
	PrintClassificationReport(&buf, classifier.LabelReport{Label: "related", Report: rep})

	out := buf.String()
	for _, want := range []string{"category: related", "PRECISION", "accuracy", "macro avg", "weighted avg", "0.75", "VERY_LOW"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintGridScoresMarksBest(t *testing.T) {
	var buf bytes.Buffer
	PrintGridScores(&buf, &classifier.SearchResult{
		Scores: []classifier.CVScore{
			{Params: classifier.Params{NGramMax: 1, Estimators: 10}, Mean: 0.2, Rank: 2},
			{Params: classifier.Params{NGramMax: 2, Estimators: 10}, Mean: 0.3, Rank: 1},
		},
		BestIndex: 1,
	})
	if strings.Count(buf.String(), ">") != 1 || !strings.Contains(buf.String(), "(1, 2)") {
		t.Errorf("unexpected grid table:\n%s", buf.String())
	}
}

func TestPrintScrapeSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintScrapeSummary(&buf, telemetry.Summary{
		Total: 2, Done: 2,
		Failed: []telemetry.Result{{MatchID: "m3", Reason: telemetry.ReasonTelemetryUnavailable, Err: errors.New("gone")}},
	})
	out := buf.String()
	if !strings.Contains(out, "Done: 2") || !strings.Contains(out, "m3") || !strings.Contains(out, "gone") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestPrintLedgerEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintLedger(&buf, nil)
	if !strings.Contains(buf.String(), "No matches scraped yet.") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	PrintLedger(&buf, []model.ScrapedMatch{{MatchID: "0123456789abcdef", MapName: "Erangel", Drops: 4}})
	if !strings.Contains(buf.String(), "0123456789ab") || strings.Contains(buf.String(), "0123456789abc") {
		t.Errorf("match id should be shortened to 12 chars:\n%s", buf.String())
	}
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	PrintRows(&buf, []string{"id"}, nil)
	if strings.TrimSpace(buf.String()) != "(no rows)" {
		t.Errorf("got %q", buf.String())
	}
	buf.Reset()
	PrintRows(&buf, []string{"id", "genre"}, [][]string{{"1", "news"}, {"2", "direct"}})
	if !strings.Contains(buf.String(), "(2 rows)") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWilsonCI(t *testing.T) {
	lo, hi := wilsonCI(0, 0)
	if lo != 0 || hi != 1 {
		t.Errorf("n=0: got (%v, %v)", lo, hi)
	}
	lo, hi = wilsonCI(50, 100)
	if math.Abs(lo-0.4038) > 1e-3 || math.Abs(hi-0.5962) > 1e-3 {
		t.Errorf("50/100: got (%v, %v)", lo, hi)
	}
}
