package chart

import (
	"context"

	"bazi/internal/errors"
	"bazi/internal/reverse"
)

// ReverseSearch lists the dates within r whose pillars equal t. The range
// must lie within the supported years.
func ReverseSearch(ctx context.Context, t reverse.Targets, r reverse.Range, opts reverse.Options) ([]reverse.Match, error) {
	if err := ValidateRange(r); err != nil {
		return nil, err
	}
	return reverse.Search(ctx, t, r, opts)
}

// ValidateRange rejects empty ranges and years the calendar cannot place.
func ValidateRange(r reverse.Range) error {
	if r.Years() == 0 {
		return errors.Newf(errors.InvalidRange, "range %d-%d is empty", r.From, r.To)
	}
	if r.From < MinYear || r.To > MaxYear {
		return errors.Newf(errors.InvalidRange, "range %d-%d outside %d-%d", r.From, r.To, MinYear, MaxYear)
	}
	return nil
}
