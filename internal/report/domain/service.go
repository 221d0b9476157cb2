package domain

import (
	"context"
	"errors"
	"time"
)

type GenerateRequest struct {
	RunID         string
	OperatorID    string
	ReportingDate time.Time
	NoShows       int64
	ClosedStays   int64
}

// Artifacts references stored report files. PDFPath is always set on success.
type Artifacts struct {
	PDFPath  string
	XLSXPath string
}

func (a Artifacts) All() []string {
	out := []string{a.PDFPath}
	if a.XLSXPath != "" {
		out = append(out, a.XLSXPath)
	}
	return out
}

type Service interface {
	Build(ctx context.Context, req GenerateRequest) (DailyReport, error)
	Generate(ctx context.Context, req GenerateRequest) (Artifacts, error)
}

var ErrInvalidReportingDate = errors.New("invalid_reporting_date")
