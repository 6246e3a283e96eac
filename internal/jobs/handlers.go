package jobs

import (
	"context"
	"log/slog"
	"time"

	"bazi/internal/chart"
	"bazi/internal/reverse"
)

// ReverseSearchHandler runs a reverse search, reporting the share of years
// scanned as progress.
func ReverseSearchHandler(logger *slog.Logger) JobHandler {
	return func(ctx context.Context, job *Job, progress func(int)) (interface{}, error) {
		scope, err := ParseReverseScope(job.Scope)
		if err != nil {
			return nil, err
		}

		lastPct := -1
		start := time.Now()
		matches, err := chart.ReverseSearch(ctx, scope.Targets, scope.Range, reverse.Options{
			Progress: func(done, total int) {
				pct := done * 100 / total
				// Each update is a database write; skip unchanged percentages.
				if pct != lastPct && pct < 100 {
					lastPct = pct
					progress(pct)
				}
			},
		})
		if err != nil {
			return nil, err
		}

		logger.Debug("Reverse search finished",
			"jobId", job.ID,
			"targets", scope.Targets.String(),
			"matches", len(matches),
		)
		return ReverseResult{
			Targets:    scope.Targets,
			Range:      scope.Range,
			Matches:    matches,
			Count:      len(matches),
			Consistent: reverse.Consistent(scope.Targets),
			Duration:   time.Since(start).String(),
		}, nil
	}
}
