package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/knoguchi/rankeval/internal/reranker"
	"github.com/knoguchi/rankeval/internal/service"
)

const maxDescriptionRunes = 60

// Printer writes comparisons to a terminal.
type Printer struct {
	out       io.Writer
	useColors bool
}

// ResolveColors reports whether colored output should be used. NO_COLOR and
// TERM=dumb disable it unless forced.
func ResolveColors(force bool) bool {
	if force {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

func (p *Printer) heading(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan, color.Bold).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) warn(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.out, "! "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[WARN] "+format+"\n", args...)
}

// Comparison renders the query intent, the three orderings and the NDCG summary.
func (p *Printer) Comparison(cmp *service.Comparison) error {
	p.heading("Query: %s", cmp.Query)
	fmt.Fprintf(p.out, "Query intent: %s\n", cmp.QueryIntent)
	if cmp.ListwiseFailed {
		p.warn("listwise ranking failed; showing baseline order")
	}
	if cmp.Dropped > 0 || cmp.Duplicated > 0 {
		p.warn("listwise verdict dropped %d and repeated %d entries", cmp.Dropped, cmp.Duplicated)
	}

	sections := []struct {
		title   string
		results []reranker.SearchResult
	}{
		{"Baseline (search API order)", cmp.Baseline},
		{"Pointwise re-ranking", cmp.Pointwise},
		{"Listwise re-ranking", cmp.Listwise},
	}
	for _, s := range sections {
		fmt.Fprintln(p.out)
		p.heading("%s", s.title)
		if err := p.results(s.results); err != nil {
			return err
		}
	}

	fmt.Fprintln(p.out)
	return p.Evaluation(cmp.Evaluation)
}

func (p *Printer) results(results []reranker.SearchResult) error {
	t := NewTable(p.out, []string{"#", "Orig", "Title", "Description", "Score", "Reasoning"})
	for i, r := range results {
		t.AddRow([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.OriginalIndex),
			r.Title,
			truncate(r.Description, maxDescriptionRunes),
			r.ScoreLabel(),
			r.ReasoningLabel(),
		})
	}
	return t.Render()
}

// Evaluation renders NDCG per ordering, highlighting the best re-ranking.
func (p *Printer) Evaluation(ev service.Evaluation) error {
	p.heading("NDCG (pointwise scores as relevance grades)")

	best := ev.BaselineNDCG
	if ev.ListwiseNDCG > best {
		best = ev.ListwiseNDCG
	}

	t := NewTable(p.out, []string{"Ordering", "NDCG"})
	rows := []struct {
		name  string
		value float64
	}{
		{"baseline", ev.BaselineNDCG},
		{"pointwise", ev.PointwiseNDCG},
		{"listwise", ev.ListwiseNDCG},
		{"listwise (own scores)", ev.ListwiseSelfNDCG},
	}
	for _, r := range rows {
		value := strconv.FormatFloat(r.value, 'f', 4, 64)
		if p.useColors && r.name != "pointwise" && r.value == best && best > 0 {
			value = color.GreenString(value)
		}
		t.AddRow([]string{r.name, value})
	}
	return t.Render()
}

// BulkRow is one line of a bulk run summary.
type BulkRow struct {
	Keyword    string
	Results    int
	Evaluation service.Evaluation
	Err        error
}

// Bulk renders a per-keyword summary of a bulk run.
func (p *Printer) Bulk(rows []BulkRow) error {
	t := NewTable(p.out, []string{"Keyword", "Results", "Baseline", "Pointwise", "Listwise", "Status"})
	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			status := "error: " + r.Err.Error()
			if p.useColors {
				status = color.RedString(status)
			}
			t.AddRow([]string{r.Keyword, "-", "-", "-", "-", status})
			continue
		}
		t.AddRow([]string{
			r.Keyword,
			strconv.Itoa(r.Results),
			strconv.FormatFloat(r.Evaluation.BaselineNDCG, 'f', 4, 64),
			strconv.FormatFloat(r.Evaluation.PointwiseNDCG, 'f', 4, 64),
			strconv.FormatFloat(r.Evaluation.ListwiseNDCG, 'f', 4, 64),
			"ok",
		})
	}
	if err := t.Render(); err != nil {
		return err
	}
	if failed > 0 {
		p.warn("%d of %d keywords failed", failed, len(rows))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
