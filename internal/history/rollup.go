// Package history summarizes completed measurement records for listing and drill-down.
package history

import (
	"errors"
	"fmt"
	"strings"

	"latency-dashboard/internal/models"
)

// ErrIndexOutOfRange is returned when a drill-down index names no record
var ErrIndexOutOfRange = errors.New("history: record index out of range")

// EmptyRecordError marks a record without any target statistics
type EmptyRecordError struct {
	Index     int
	Timestamp string
}

func (e *EmptyRecordError) Error() string {
	return fmt.Sprintf("history: record %d (%s) has no targets", e.Index, e.Timestamp)
}

// Summary is the per-record aggregate shown in the history list
type Summary struct {
	Index              int     `json:"index"`
	Timestamp          string  `json:"timestamp"`
	TargetIDsJoined    string  `json:"targets"`
	OverallAvgMs       float64 `json:"overall_avg_ms"`
	OverallLossPercent float64 `json:"overall_loss_percent"`
}

// Summarize aggregates a single record; index is its position in the history log
func Summarize(index int, record models.HistoricalRecord) (Summary, error) {
	n := record.Data.Len()
	if n == 0 {
		return Summary{}, &EmptyRecordError{Index: index, Timestamp: record.Timestamp}
	}

	var sumAvg, sumLoss float64
	record.Data.Each(func(_ string, s models.TargetStatistics) {
		sumAvg += s.Avg
		sumLoss += s.PacketLoss
	})

	return Summary{
		Index:              index,
		Timestamp:          record.Timestamp,
		TargetIDsJoined:    strings.Join(record.Data.Targets(), ", "),
		OverallAvgMs:       sumAvg / float64(n),
		OverallLossPercent: sumLoss / float64(n),
	}, nil
}

// Rollup summarizes records in input order. Records that cannot be summarized are
// left out of the result and reported together in the returned error; the
// remaining records are always processed.
func Rollup(records []models.HistoricalRecord) ([]Summary, error) {
	summaries := make([]Summary, 0, len(records))
	var errs []error
	for i, record := range records {
		s, err := Summarize(i, record)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries, errors.Join(errs...)
}

// Detail returns the full per-target data of the record at index, unchanged
func Detail(records []models.HistoricalRecord, index int) (models.HistoricalRecord, error) {
	if index < 0 || index >= len(records) {
		return models.HistoricalRecord{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(records))
	}
	return records[index], nil
}

// Excluded lists the records a Rollup error left out
func Excluded(err error) []*EmptyRecordError {
	if err == nil {
		return nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	var out []*EmptyRecordError
	for _, e := range errs {
		var empty *EmptyRecordError
		if errors.As(e, &empty) {
			out = append(out, empty)
		}
	}
	return out
}
