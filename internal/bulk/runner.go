package bulk

import (
	"context"
	"log/slog"

	"github.com/knoguchi/rankeval/internal/service"
)

// Comparer runs one comparison.
type Comparer interface {
	Run(ctx context.Context, query string) (*service.Comparison, error)
}

// Outcome is the result for one keyword. Exactly one of Comparison and Err is set.
type Outcome struct {
	Keyword    string
	Comparison *service.Comparison
	Err        error
}

// Runner executes comparisons for a keyword list.
type Runner struct {
	comparer Comparer
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(comparer Comparer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{comparer: comparer, logger: logger}
}

// Run processes rows one at a time in file order. A failed keyword is
// recorded in its Outcome and the batch continues; only context
// cancellation stops it early. onDone, if non-nil, is called after each keyword.
func (r *Runner) Run(ctx context.Context, rows []Row, onDone func(Outcome)) []Outcome {
	outcomes := make([]Outcome, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("bulk run cancelled", "completed", i, "total", len(rows), "error", err)
			break
		}

		cmp, err := r.comparer.Run(ctx, row.Keyword)
		o := Outcome{Keyword: row.Keyword, Comparison: cmp, Err: err}
		if err != nil {
			o.Comparison = nil
			r.logger.Warn("keyword failed", "keyword", row.Keyword, "error", err)
		} else {
			r.logger.Debug("keyword complete", "keyword", row.Keyword, "results", len(cmp.Baseline))
		}

		outcomes = append(outcomes, o)
		if onDone != nil {
			onDone(o)
		}
	}
	return outcomes
}
