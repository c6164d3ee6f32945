// Package store implements the columnar audit store: struct-of-arrays
// layout enforcing chronological append order, with logarithmic range
// scans on the timestamp column.
package store

import (
	"fmt"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// TimeRange is a closed Unix-epoch-seconds interval [Start, End],
// matching ColumnarAuditStore.QueryTimeRange's inclusive semantics.
type TimeRange struct {
	Start float64
	End   float64
}

// NewTimeRange validates Start <= End.
func NewTimeRange(start, end float64) (TimeRange, error) {
	if start > end {
		return TimeRange{}, apperrors.InvalidArgument(
			fmt.Sprintf("start (%v) must be <= end (%v)", start, end))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether timestamp falls within the range.
func (r TimeRange) Contains(timestamp float64) bool {
	return r.Start <= timestamp && timestamp <= r.End
}

// DurationSeconds returns the length of the range.
func (r TimeRange) DurationSeconds() float64 {
	return r.End - r.Start
}
