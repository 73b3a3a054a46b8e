package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-data-pipelines/internal/classifier"
	"github.com/pable/go-data-pipelines/internal/model"
	"github.com/pable/go-data-pipelines/internal/telemetry"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }

// PrintClassificationReport prints one label's per-class scores followed by
// accuracy and the macro/weighted averages.
func PrintClassificationReport(w io.Writer, r classifier.LabelReport) {
	fmt.Fprintf(w, "category: %s\n", r.Label)
	table := newTable(w)
	table.Header(" ", "PRECISION", "RECALL", "F1-SCORE", "SUPPORT", "SAMPLE")
	for _, c := range r.Classes {
		table.Append(
			strconv.Itoa(int(c.Class)),
			f2(c.Precision),
			f2(c.Recall),
			f2(c.F1),
			strconv.Itoa(c.Support),
			sampleFlag(c.Support),
		)
	}
	table.Append("accuracy", "", "", f2(r.Accuracy), strconv.Itoa(r.Macro.Support), "")
	table.Append("macro avg", f2(r.Macro.Precision), f2(r.Macro.Recall), f2(r.Macro.F1), strconv.Itoa(r.Macro.Support), "")
	table.Append("weighted avg", f2(r.Weighted.Precision), f2(r.Weighted.Recall), f2(r.Weighted.F1), strconv.Itoa(r.Weighted.Support), "")
	table.Render()
	fmt.Fprintln(w)
}

// PrintLabelOverview prints one row per label: accuracy with its 95% Wilson
// interval, positive-class F1 and positive support.
func PrintLabelOverview(w io.Writer, reports []classifier.LabelReport) {
	table := newTable(w)
	table.Header("LABEL", "ACCURACY", "95% CI", "F1(1)", "SUPPORT(1)", "SAMPLE")
	for _, r := range reports {
		n := r.Macro.Support
		hits := int(math.Round(r.Accuracy * float64(n)))
		lo, hi := wilsonCI(hits, n)

		f1, support := "—", 0
		for _, c := range r.Classes {
			if c.Class == 1 {
				f1 = f2(c.F1)
				support = c.Support
			}
		}
		table.Append(
			r.Label,
			f2(r.Accuracy),
			fmt.Sprintf("%.2f–%.2f", lo, hi),
			f1,
			strconv.Itoa(support),
			sampleFlag(support),
		)
	}
	table.Render()
}

// PrintGridScores prints the cross-validation table; the winner is marked ">".
func PrintGridScores(w io.Writer, res *classifier.SearchResult) {
	table := newTable(w)
	table.Header(" ", "NGRAM_RANGE", "N_ESTIMATORS", "MEAN", "STD", "RANK", "FIT_TIME")
	for i, s := range res.Scores {
		marker := " "
		if i == res.BestIndex {
			marker = ">"
		}
		table.Append(
			marker,
			fmt.Sprintf("(1, %d)", s.Params.NGramMax),
			strconv.Itoa(s.Params.Estimators),
			fmt.Sprintf("%.4f", s.Mean),
			fmt.Sprintf("%.4f", s.Std),
			strconv.Itoa(s.Rank),
			s.Fit.Round(time.Millisecond).String(),
		)
	}
	table.Render()
}

// PrintScrapeSummary prints the batch tally and one row per failed match.
func PrintScrapeSummary(w io.Writer, s telemetry.Summary) {
	fmt.Fprintf(w, "\nDone: %d  |  Expected: %d  |  Skipped (already scraped): %d  |  Failed: %d\n",
		s.Done, s.Total, s.Skipped, len(s.Failed))
	if len(s.Failed) == 0 {
		return
	}
	table := newTable(w)
	table.Header("MATCH", "REASON", "ERROR")
	for _, f := range s.Failed {
		msg := "—"
		if f.Err != nil {
			msg = f.Err.Error()
		}
		table.Append(f.MatchID, string(f.Reason), msg)
	}
	table.Render()
}

// PrintLedger prints the scraped-matches ledger.
func PrintLedger(w io.Writer, matches []model.ScrapedMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches scraped yet.")
		return
	}
	table := newTable(w)
	table.Header("MATCH", "MAP", "MODE", "STARTED", "DROPS", "WEAPONS", "DAMAGE", "KILLS")
	for _, m := range matches {
		table.Append(
			shortID(m.MatchID),
			m.MapName,
			m.GameMode,
			orDash(m.StartedAt),
			strconv.Itoa(m.Drops),
			strconv.Itoa(m.Weapons),
			strconv.Itoa(m.Damage),
			strconv.Itoa(m.Kills),
		)
	}
	table.Render()
}

// PrintScrapedMatch prints a one-line summary header for a ledger entry.
func PrintScrapedMatch(w io.Writer, m model.ScrapedMatch) {
	fmt.Fprintf(w, "\nMap: %s  |  Mode: %s  |  Started: %s  |  Scraped: %s  |  Match: %s\n",
		m.MapName, m.GameMode, orDash(m.StartedAt), m.ScrapedAt, m.MatchID)
	fmt.Fprintf(w, "Rows written: drops %d, weapons %d, damage %d, kills %d\n\n",
		m.Drops, m.Weapons, m.Damage, m.Kills)
}

// PrintRows prints a generic result set with a row count footer.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func sampleFlag(n int) string {
	switch {
	case n >= 50:
		return "OK"
	case n >= 20:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
