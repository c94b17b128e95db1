package services

import (
	"context"
	"errors"
	"fmt"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/metrics"
)

// ScanSink receives a log entry for every finished scan
type ScanSink interface {
	Name() string
	RecordScan(ctx context.Context, log *models.ScanLog) error
}

// MultiSink fans a scan log out to several sinks. Every sink is tried;
// failures are joined.
type MultiSink struct {
	sinks []ScanSink
}

// NewMultiSink creates a sink over the non-nil sinks given
func NewMultiSink(sinks ...ScanSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Name identifies the sink
func (m *MultiSink) Name() string {
	return "multi"
}

// Len returns the number of wrapped sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// RecordScan writes log to every sink
func (m *MultiSink) RecordScan(ctx context.Context, log *models.ScanLog) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordScan(ctx, log); err != nil {
			metrics.RecordSinkError(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
