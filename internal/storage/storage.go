package storage

import (
	"context"
	"errors"

	"nitroScope/internal/model"
)

// ReportSink persists valuation reports.
type ReportSink interface {
	PutReport(ctx context.Context, report model.ValuationReport) error
}

// ReportLister returns a user's stored reports, newest first.
type ReportLister interface {
	ListReports(ctx context.Context, user string, limit int) ([]model.ValuationReport, error)
}

// MultiSink writes every report to each sink in order.
type MultiSink []ReportSink

func (m MultiSink) PutReport(ctx context.Context, report model.ValuationReport) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutReport(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
