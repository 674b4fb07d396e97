package report

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/latedays/internal/domain"
)

// Summary describes one run for the operator. It is never written to the CSV.
type Summary struct {
	Total     int
	OnTime    int
	Late      int
	Failed    []domain.FailedEntry
	Mean      float64
	Median    float64
	MaxDays   int
	TotalDays int
}

// Summarize counts outcomes and computes late-day statistics over the resolved entries.
func Summarize(outcomes []domain.Outcome) (Summary, error) {
	s := Summary{Total: len(outcomes)}
	var days stats.Float64Data
	for _, o := range outcomes {
		if o.Failed != nil {
			s.Failed = append(s.Failed, *o.Failed)
			continue
		}
		d := o.Result.LateDays
		if d == 0 {
			s.OnTime++
		} else {
			s.Late++
		}
		s.TotalDays += d
		days = append(days, float64(d))
	}
	if len(days) == 0 {
		return s, nil
	}

	var err error
	if s.Mean, err = stats.Mean(days); err != nil {
		return s, fmt.Errorf("failed to compute mean: %w", err)
	}
	if s.Median, err = stats.Median(days); err != nil {
		return s, fmt.Errorf("failed to compute median: %w", err)
	}
	maxDays, err := stats.Max(days)
	if err != nil {
		return s, fmt.Errorf("failed to compute max: %w", err)
	}
	s.MaxDays = int(maxDays)
	return s, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("%d entries: %d on time, %d late, %d unresolved; late days mean %.2f, median %.1f, max %d",
		s.Total, s.OnTime, s.Late, len(s.Failed), s.Mean, s.Median, s.MaxDays)
}
